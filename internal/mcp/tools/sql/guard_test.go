package sqltools

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMCP_Guard_Classify(t *testing.T) {
	t.Parallel()

	t.Run("allows read-only statements", func(t *testing.T) {
		t.Parallel()

		allowed := []string{
			"SELECT 1",
			"select * from orders",
			"SELECT id, updated_at FROM users WHERE deleted_at IS NULL",
			"SELECT * FROM deletes",
			"WITH recent AS (SELECT * FROM events) SELECT count(*) FROM recent",
			"SHOW TABLES",
			"DESCRIBE TABLE users",
			"SELECT 1;",
			"  SELECT 1  ",
		}
		for _, sql := range allowed {
			require.NoError(t, Classify(sql), "expected %q to be allowed", sql)
		}
	})

	t.Run("rejects mutating verbs as whole words in any case", func(t *testing.T) {
		t.Parallel()

		denied := []string{
			"UPDATE users SET name = 'x'",
			"update users set name = 'x'",
			"DELETE FROM t",
			"Delete From t",
			"INSERT INTO t VALUES (1)",
			"MERGE INTO t USING s ON t.id = s.id",
			"DROP TABLE t",
			"ALTER TABLE t ADD COLUMN c INT",
			"TRUNCATE TABLE t",
			"SELECT 1; DELETE FROM t -- still a delete",
			"/* harmless */ drop table t",
		}
		for _, sql := range denied {
			err := Classify(sql)
			require.Error(t, err, "expected %q to be rejected", sql)
		}
	})

	t.Run("rejection message is the client-facing contract", func(t *testing.T) {
		t.Parallel()

		err := Classify("DELETE FROM t")
		require.ErrorIs(t, err, ErrStatementNotAllowed)
		require.Equal(t, "Only SELECT queries are allowed", err.Error())
	})

	t.Run("rejects semicolon-separated batches", func(t *testing.T) {
		t.Parallel()

		err := Classify("SELECT 1; SELECT 2")
		require.ErrorIs(t, err, ErrMultipleStatements)

		// One trailing terminator is fine.
		require.NoError(t, Classify("SELECT 1;"))
	})
}
