package warehouse

import (
	"context"
	"fmt"
	"log/slog"
)

// ResultSet is a fully buffered query result. Column order and row order
// match what the warehouse returned.
type ResultSet struct {
	Columns []string
	Rows    []Row
	Count   int
}

// Execute runs one query over a fresh connection and buffers every row. The
// connection is released exactly once on all exit paths; release failures
// are logged and the primary outcome wins. Failed executions are not
// retried.
func Execute(ctx context.Context, log *slog.Logger, db DB, query string) (*ResultSet, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Warn("warehouse: failed to release connection", "error", cerr)
		}
	}()

	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	resultRows := make([]Row, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		for i, val := range values {
			if b, ok := val.([]byte); ok {
				values[i] = string(b)
			}
		}
		resultRows = append(resultRows, NewRow(columns, values))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return &ResultSet{
		Columns: columns,
		Rows:    resultRows,
		Count:   len(resultRows),
	}, nil
}
