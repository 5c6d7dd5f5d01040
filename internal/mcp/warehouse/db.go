package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/cenkalti/backoff/v5"
	_ "github.com/snowflakedb/gosnowflake"
)

const connectMaxTries = 5

// DB hands out single-use warehouse sessions. Connections are never pooled:
// releasing one closes its session.
type DB interface {
	Database() string
	Schema() string
	Close() error
	Conn(ctx context.Context) (Connection, error)
}

// Connection is one session bound to a single query execution.
type Connection interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Close() error
}

type warehouseDB struct {
	db       *sql.DB
	database string
	schema   string
}

type warehouseConn struct {
	conn *sql.Conn
}

// NewDB wraps a database handle. Idle pooling is disabled so every released
// connection closes its underlying session.
func NewDB(db *sql.DB, database, schema string) DB {
	db.SetMaxIdleConns(0)
	return &warehouseDB{db: db, database: database, schema: schema}
}

type sessionInfo struct {
	database string
	schema   string
}

// Open connects to the warehouse and verifies the session by resolving the
// current database and schema. The verification is retried under exponential
// backoff since connection setup is safe to repeat; query execution later on
// is never retried.
func Open(ctx context.Context, cfg Config, log *slog.Logger) (DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate warehouse config: %w", err)
	}

	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse: %w", err)
	}

	info, err := backoff.Retry(ctx, func() (sessionInfo, error) {
		var database, schema sql.NullString
		row := db.QueryRowContext(ctx, "SELECT CURRENT_DATABASE(), CURRENT_SCHEMA()")
		if err := row.Scan(&database, &schema); err != nil {
			log.Warn("warehouse: connectivity check failed", "error", err)
			return sessionInfo{}, fmt.Errorf("failed to verify warehouse session: %w", err)
		}
		return sessionInfo{database: database.String, schema: schema.String}, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(connectMaxTries))
	if err != nil {
		db.Close()
		return nil, err
	}

	log.Info("warehouse: session verified",
		"account", cfg.Account,
		"database", info.database,
		"schema", info.schema,
	)

	return NewDB(db, info.database, info.schema), nil
}

func (d *warehouseDB) Database() string {
	return d.database
}

func (d *warehouseDB) Schema() string {
	return d.schema
}

func (d *warehouseDB) Close() error {
	return d.db.Close()
}

func (d *warehouseDB) Conn(ctx context.Context) (Connection, error) {
	conn, err := d.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}
	return &warehouseConn{conn: conn}, nil
}

func (c *warehouseConn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.conn.ExecContext(ctx, query, args...)
}

func (c *warehouseConn) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.conn.QueryContext(ctx, query, args...)
}

func (c *warehouseConn) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return c.conn.QueryRowContext(ctx, query, args...)
}

func (c *warehouseConn) Close() error {
	return c.conn.Close()
}
