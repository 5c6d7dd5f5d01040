package sqltools

import (
	"errors"
	"regexp"
	"strings"
)

// ErrStatementNotAllowed rejects statements carrying mutating verbs. The
// text is part of the client-facing contract.
var ErrStatementNotAllowed = errors.New("Only SELECT queries are allowed")

// ErrMultipleStatements rejects semicolon-separated batches.
var ErrMultipleStatements = errors.New("multiple SQL statements are not allowed")

// deniedVerbs matches mutating SQL verbs as whole words, any case. Word
// boundaries keep identifiers like updated_at out of scope. This is a
// syntactic screen, not a parser: verbs inside comments or string literals
// still match, and mutations hidden behind stored procedure calls do not.
var deniedVerbs = regexp.MustCompile(`(?i)\b(update|delete|insert|merge|drop|alter|truncate)\b`)

// Classify decides whether a statement may run. One trailing semicolon is
// tolerated; any interior semicolon rejects the statement as a batch.
func Classify(query string) error {
	trimmed := strings.TrimSpace(query)
	trimmed = strings.TrimSuffix(trimmed, ";")
	if strings.Contains(trimmed, ";") {
		return ErrMultipleStatements
	}
	if deniedVerbs.MatchString(trimmed) {
		return ErrStatementNotAllowed
	}
	return nil
}
