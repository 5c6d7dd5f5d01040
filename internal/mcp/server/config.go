package server

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/yuliamininberg/snowflake-mcp1/internal/mcp/warehouse"
)

const (
	defaultPath              = "/mcp"
	defaultReadHeaderTimeout = 5 * time.Second
	defaultShutdownTimeout   = 5 * time.Second
)

type Config struct {
	Logger *slog.Logger

	DB warehouse.DB

	Version           string
	ListenAddr        string
	Path              string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	AllowedTokens     []string // Bearer tokens allowed for MCP endpoint authentication
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if c.DB == nil {
		return fmt.Errorf("database is required")
	}
	if c.Path == "" {
		c.Path = defaultPath
	}
	if c.ReadHeaderTimeout == 0 {
		c.ReadHeaderTimeout = defaultReadHeaderTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
	return nil
}
