package mcp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMCP_WriteEvent(t *testing.T) {
	t.Parallel()

	t.Run("result envelope", func(t *testing.T) {
		t.Parallel()

		rr := httptest.NewRecorder()
		resp := NewResultResponse(json.RawMessage("7"), TextResult(`[{"1":1}]`))
		require.NoError(t, WriteEvent(rr, resp))

		require.Equal(t, http.StatusOK, rr.Code)
		require.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))
		require.Equal(t, "no-cache", rr.Header().Get("Cache-Control"))
		require.Equal(t,
			"event: message\ndata: {\"jsonrpc\":\"2.0\",\"id\":7,\"result\":{\"content\":[{\"type\":\"text\",\"text\":\"[{\\\"1\\\":1}]\"}]}}\n\n",
			rr.Body.String(),
		)
	})

	t.Run("error envelope", func(t *testing.T) {
		t.Parallel()

		rr := httptest.NewRecorder()
		resp := NewErrorResponse(json.RawMessage("3"), CodeToolExecutionFailed, "Only SELECT queries are allowed")
		require.NoError(t, WriteEvent(rr, resp))

		require.Equal(t,
			"event: message\ndata: {\"jsonrpc\":\"2.0\",\"id\":3,\"error\":{\"code\":-32000,\"message\":\"Only SELECT queries are allowed\"}}\n\n",
			rr.Body.String(),
		)
	})
}
