package warehouse

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/snowflakedb/gosnowflake"
)

const (
	defaultLoginTimeout = 60 * time.Second

	// application name reported to the warehouse for session attribution
	applicationName = "snowflake-mcp"
)

// Config carries the warehouse credentials and session defaults. Presence is
// validated at startup, not per call.
type Config struct {
	Account              string `env:"SNOWFLAKE_ACCOUNT"`
	User                 string `env:"SNOWFLAKE_USER"`
	Password             string `env:"SNOWFLAKE_PASSWORD"`
	PrivateKeyPath       string `env:"SNOWFLAKE_PRIVATE_KEY_PATH"`
	PrivateKeyPassphrase string `env:"SNOWFLAKE_PRIVATE_KEY_PASSPHRASE"`
	Warehouse            string `env:"SNOWFLAKE_WAREHOUSE"`
	Database             string `env:"SNOWFLAKE_DATABASE"`
	Schema               string `env:"SNOWFLAKE_SCHEMA"`
	Role                 string `env:"SNOWFLAKE_ROLE"`

	LoginTimeout time.Duration `env:"SNOWFLAKE_LOGIN_TIMEOUT" envDefault:"60s"`
}

// ConfigFromEnv parses the SNOWFLAKE_* environment variables.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse warehouse environment: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Account == "" {
		return fmt.Errorf("account is required")
	}
	if c.User == "" {
		return fmt.Errorf("user is required")
	}
	if c.Password == "" && c.PrivateKeyPath == "" {
		return fmt.Errorf("password or private key path is required")
	}
	if c.LoginTimeout == 0 {
		c.LoginTimeout = defaultLoginTimeout
	}
	return nil
}

// DSN renders the driver connection string. A configured private key takes
// precedence over a password and switches the session to JWT authentication.
func (c *Config) DSN() (string, error) {
	sc := &gosnowflake.Config{
		Account:      c.Account,
		User:         c.User,
		Warehouse:    c.Warehouse,
		Database:     c.Database,
		Schema:       c.Schema,
		Role:         c.Role,
		Application:  applicationName,
		LoginTimeout: c.LoginTimeout,
	}

	if c.PrivateKeyPath != "" {
		key, err := LoadPrivateKey(c.PrivateKeyPath, c.PrivateKeyPassphrase)
		if err != nil {
			return "", fmt.Errorf("failed to load private key: %w", err)
		}
		sc.PrivateKey = key
		sc.Authenticator = gosnowflake.AuthTypeJwt
	} else {
		sc.Password = c.Password
	}

	dsn, err := gosnowflake.DSN(sc)
	if err != nil {
		return "", fmt.Errorf("failed to build dsn: %w", err)
	}
	return dsn, nil
}
