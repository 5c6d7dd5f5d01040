package warehouse

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMCP_Warehouse_Row(t *testing.T) {
	t.Parallel()

	t.Run("marshals keys in column order", func(t *testing.T) {
		t.Parallel()

		row := NewRow([]string{"zeta", "alpha", "mid"}, []any{int64(1), "a", nil})
		data, err := json.Marshal(row)
		require.NoError(t, err)
		require.Equal(t, `{"zeta":1,"alpha":"a","mid":null}`, string(data))
	})

	t.Run("value lookup by column name", func(t *testing.T) {
		t.Parallel()

		row := NewRow([]string{"id", "name"}, []any{int64(7), "x"})
		require.Equal(t, int64(7), row.Value("id"))
		require.Equal(t, "x", row.Value("name"))
		require.Nil(t, row.Value("missing"))
	})

	t.Run("rejects mismatched columns and values", func(t *testing.T) {
		t.Parallel()

		row := NewRow([]string{"a", "b"}, []any{1})
		_, err := json.Marshal(row)
		require.Error(t, err)
	})
}
