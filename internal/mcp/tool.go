package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// HandlerFunc executes a tool call with schema-validated raw arguments.
type HandlerFunc func(ctx context.Context, args json.RawMessage) (*ToolResult, error)

// Tool binds a name to an argument schema and a handler. Immutable after
// construction.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema

	handler  HandlerFunc
	resolved *jsonschema.Resolved
}

func NewTool(name, description string, inputSchema *jsonschema.Schema, handler HandlerFunc) (*Tool, error) {
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if inputSchema == nil {
		return nil, fmt.Errorf("input schema is required")
	}
	if handler == nil {
		return nil, fmt.Errorf("handler is required")
	}
	resolved, err := inputSchema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve input schema: %w", err)
	}
	return &Tool{
		Name:        name,
		Description: description,
		InputSchema: inputSchema,
		handler:     handler,
		resolved:    resolved,
	}, nil
}

// ValidateArguments checks raw arguments against the tool's input schema.
// Absent arguments validate as an empty object.
func (t *Tool) ValidateArguments(raw json.RawMessage) error {
	var args any = map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return fmt.Errorf("arguments are not valid JSON: %w", err)
		}
	}
	return t.resolved.Validate(args)
}

// Call invokes the handler with already-validated arguments.
func (t *Tool) Call(ctx context.Context, args json.RawMessage) (*ToolResult, error) {
	return t.handler(ctx, args)
}
