package sqltools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/yuliamininberg/snowflake-mcp1/internal/mcp"
	"github.com/yuliamininberg/snowflake-mcp1/internal/mcp/server/metrics"
	"github.com/yuliamininberg/snowflake-mcp1/internal/mcp/warehouse"
)

type QueryInput struct {
	SQL string `json:"sql"`
}

type QueryToolConfig struct {
	Logger *slog.Logger
	DB     warehouse.DB

	Name        string
	Description string
}

func (cfg *QueryToolConfig) Validate() error {
	if cfg.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if cfg.DB == nil {
		return fmt.Errorf("database is required")
	}
	if cfg.Name == "" {
		return fmt.Errorf("name is required")
	}
	if cfg.Description == "" {
		return fmt.Errorf("description is required")
	}
	return nil
}

type QueryTool struct {
	log *slog.Logger
	cfg QueryToolConfig
	db  warehouse.DB
}

func NewQueryTool(cfg QueryToolConfig) (*QueryTool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate query tool config: %w", err)
	}
	return &QueryTool{
		log: cfg.Logger,
		cfg: cfg,
		db:  cfg.DB,
	}, nil
}

// Register adds the tool to the registry with its argument schema and a
// metrics-wrapped handler.
func (t *QueryTool) Register(registry *mcp.Registry) error {
	schema, err := jsonschema.For[QueryInput](nil)
	if err != nil {
		return fmt.Errorf("failed to create query input schema: %w", err)
	}

	tool, err := mcp.NewTool(t.cfg.Name, t.cfg.Description, schema, func(ctx context.Context, args json.RawMessage) (*mcp.ToolResult, error) {
		startTime := time.Now()
		toolName := t.cfg.Name
		res, err := t.handleQuery(ctx, args)
		duration := time.Since(startTime).Seconds()

		if err != nil {
			metrics.ToolCallsTotal.WithLabelValues(toolName, "error").Inc()
			metrics.ToolCallDuration.WithLabelValues(toolName).Observe(duration)
			return nil, err
		}
		metrics.ToolCallsTotal.WithLabelValues(toolName, "success").Inc()
		metrics.ToolCallDuration.WithLabelValues(toolName).Observe(duration)
		return res, nil
	})
	if err != nil {
		return fmt.Errorf("failed to create query tool: %w", err)
	}

	if err := registry.Register(tool); err != nil {
		return fmt.Errorf("failed to register query tool: %w", err)
	}
	return nil
}

func (t *QueryTool) handleQuery(ctx context.Context, args json.RawMessage) (*mcp.ToolResult, error) {
	var input QueryInput
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, fmt.Errorf("failed to decode query arguments: %w", err)
	}

	t.log.Debug("query: running query tool", "sql", input.SQL)

	if err := Classify(input.SQL); err != nil {
		return nil, err
	}

	result, err := warehouse.Execute(ctx, t.log, t.db, input.SQL)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(result.Rows)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize rows: %w", err)
	}

	return mcp.TextResult(string(payload)), nil
}
