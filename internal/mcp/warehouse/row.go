package warehouse

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Row is one result row keyed by column name. Serialization preserves the
// column order the warehouse returned.
type Row struct {
	columns []string
	values  []any
}

func NewRow(columns []string, values []any) Row {
	return Row{columns: columns, values: values}
}

func (r Row) Columns() []string {
	return r.columns
}

func (r Row) Values() []any {
	return r.values
}

// Value returns the value for a column name, or nil when absent.
func (r Row) Value(name string) any {
	for i, col := range r.columns {
		if col == name {
			return r.values[i]
		}
	}
	return nil
}

// MarshalJSON emits an object whose keys appear in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	if len(r.columns) != len(r.values) {
		return nil, fmt.Errorf("row has %d columns and %d values", len(r.columns), len(r.values))
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, fmt.Errorf("failed to marshal column %s: %w", col, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
