package server

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yuliamininberg/snowflake-mcp1/internal/mcp/warehouse"
)

// fakeDB is a warehouse that cannot hand out connections.
type fakeDB struct{}

func (d *fakeDB) Database() string { return "main" }
func (d *fakeDB) Schema() string   { return "" }
func (d *fakeDB) Close() error     { return nil }
func (d *fakeDB) Conn(ctx context.Context) (warehouse.Connection, error) {
	return nil, errors.New("database error")
}

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func TestMCP_Server_Config_Validate(t *testing.T) {
	t.Parallel()

	validConfig := func() Config {
		return Config{
			Logger:     testLogger(t),
			DB:         &fakeDB{},
			ListenAddr: "127.0.0.1:0",
		}
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "valid", modify: func(c *Config) {}},
		{name: "missing logger", modify: func(c *Config) { c.Logger = nil }, wantErr: "logger is required"},
		{name: "missing db", modify: func(c *Config) { c.DB = nil }, wantErr: "database is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("applies defaults", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		require.NoError(t, cfg.Validate())
		require.Equal(t, "/mcp", cfg.Path)
		require.Equal(t, 5*time.Second, cfg.ReadHeaderTimeout)
		require.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	})
}
