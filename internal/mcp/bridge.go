package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Bridge dispatches decoded invocation requests against a registry and maps
// every outcome to exactly one response envelope.
type Bridge struct {
	log      *slog.Logger
	registry *Registry
}

func NewBridge(log *slog.Logger, registry *Registry) (*Bridge, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	return &Bridge{log: log, registry: registry}, nil
}

// ServeHTTP accepts one POSTed envelope and answers with one event-stream
// frame. Bodies that do not parse as JSON get a 400 with a parse-error
// envelope instead of a stream.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		b.log.Debug("mcp: request body did not parse", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		if err := json.NewEncoder(w).Encode(NewErrorResponse(nil, CodeParseError, "Parse error")); err != nil {
			b.log.Error("mcp: failed to write parse error response", "error", err)
		}
		return
	}

	if err := WriteEvent(w, b.Handle(r.Context(), &req)); err != nil {
		b.log.Error("mcp: failed to write response event", "error", err)
	}
}

// Handle runs the dispatch sequence: method gate, tool resolution, argument
// validation, handler invocation, envelope mapping. A panic anywhere in the
// sequence surfaces as an internal-error envelope instead of crashing the
// request. No state is retained between calls.
func (b *Bridge) Handle(ctx context.Context, req *Request) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("mcp: panic while handling request",
				"method", req.Method,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			resp = NewErrorResponse(req.ID, CodeInternalError, "Internal error")
		}
	}()

	if req.Method != MethodCallTool {
		b.log.Debug("mcp: unknown method", "method", req.Method)
		return NewErrorResponse(req.ID, CodeMethodNotFound, "Method not found")
	}

	if req.Params == nil {
		return NewErrorResponse(req.ID, CodeInvalidParams, "Invalid params")
	}

	tool, ok := b.registry.Resolve(req.Params.Name)
	if !ok {
		b.log.Debug("mcp: unknown tool", "tool", req.Params.Name)
		return NewErrorResponse(req.ID, CodeToolNotFound, fmt.Sprintf("Tool not found: %s", req.Params.Name))
	}

	if err := tool.ValidateArguments(req.Params.Arguments); err != nil {
		return NewErrorResponse(req.ID, CodeInvalidParams, fmt.Sprintf("Invalid params: %v", err))
	}

	result, err := tool.Call(ctx, req.Params.Arguments)
	if err != nil {
		return NewErrorResponse(req.ID, CodeToolExecutionFailed, err.Error())
	}

	return NewResultResponse(req.ID, result)
}
