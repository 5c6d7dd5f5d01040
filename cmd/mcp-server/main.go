package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "net/http/pprof"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/yuliamininberg/snowflake-mcp1/internal/mcp/server"
	"github.com/yuliamininberg/snowflake-mcp1/internal/mcp/server/metrics"
	"github.com/yuliamininberg/snowflake-mcp1/internal/mcp/warehouse"
)

var (
	// Set by LDFLAGS
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const (
	defaultListenAddr  = "0.0.0.0:8010"
	defaultMetricsAddr = "0.0.0.0:0"
	defaultMCPPath     = "/mcp"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if it exists
	_ = godotenv.Load()

	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")
	enablePprofFlag := flag.Bool("enable-pprof", false, "enable pprof server")
	listenAddrFlag := flag.String("listen-addr", defaultListenAddr, "HTTP server listen address")
	mcpPathFlag := flag.String("mcp-path", defaultMCPPath, "HTTP path serving the tool-invocation endpoint")
	metricsAddrFlag := flag.String("metrics-addr", defaultMetricsAddr, "Address to listen on for prometheus metrics")
	shutdownTimeoutFlag := flag.Duration("shutdown-timeout", 5*time.Second, "graceful shutdown timeout")
	flag.Parse()

	log := newLogger(*verboseFlag)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := <-sigCh
		log.Info("server: received signal", "signal", sig.String())
		cancel()
	}()

	if *enablePprofFlag {
		go func() {
			log.Info("starting pprof server", "address", "localhost:6060")
			err := http.ListenAndServe("localhost:6060", nil)
			if err != nil {
				log.Error("failed to start pprof server", "error", err)
			}
		}()
	}

	var metricsServerErrCh = make(chan error, 1)
	if *metricsAddrFlag != "" {
		metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)
		go func() {
			listener, err := net.Listen("tcp", *metricsAddrFlag)
			if err != nil {
				log.Error("failed to start prometheus metrics server listener", "error", err)
				metricsServerErrCh <- err
				return
			}
			log.Info("prometheus metrics server listening", "address", listener.Addr().String())
			http.Handle("/metrics", promhttp.Handler())
			if err := http.Serve(listener, nil); err != nil {
				log.Error("failed to start prometheus metrics server", "error", err)
				metricsServerErrCh <- err
				return
			}
		}()
	}

	// Parse allowed tokens from environment variable (comma-separated)
	// Auth can be explicitly disabled with MCP_AUTH_DISABLED=true
	var allowedTokens []string
	authDisabled := os.Getenv("MCP_AUTH_DISABLED") == "true"

	if authDisabled {
		log.Info("mcp server: authentication explicitly disabled")
	} else if tokensEnv := os.Getenv("MCP_ALLOWED_TOKENS"); tokensEnv != "" {
		for _, token := range strings.Split(tokensEnv, ",") {
			token = strings.TrimSpace(token)
			if token != "" {
				allowedTokens = append(allowedTokens, token)
			}
		}
		if len(allowedTokens) > 0 {
			log.Info("mcp server: token authentication enabled", "token_count", len(allowedTokens))
		}
	} else {
		log.Info("mcp server: authentication disabled (no tokens configured)")
	}

	warehouseCfg, err := warehouse.ConfigFromEnv()
	if err != nil {
		return err
	}

	db, err := warehouse.Open(ctx, warehouseCfg, log)
	if err != nil {
		return fmt.Errorf("failed to open warehouse: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close warehouse", "error", err)
		}
	}()

	srv, err := server.New(server.Config{
		Logger:          log,
		DB:              db,
		Version:         version,
		ListenAddr:      *listenAddrFlag,
		Path:            *mcpPathFlag,
		ShutdownTimeout: *shutdownTimeoutFlag,
		AllowedTokens:   allowedTokens,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	serverErrCh := make(chan error, 1)
	go func() {
		err := srv.Run(ctx)
		if err != nil {
			serverErrCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("server: shutting down", "reason", ctx.Err())
		return nil
	case err := <-serverErrCh:
		log.Error("server: server error causing shutdown", "error", err)
		return err
	case err := <-metricsServerErrCh:
		log.Error("server: metrics server error causing shutdown", "error", err)
		return err
	}
}

func newLogger(verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      logLevel,
		TimeFormat: time.Kitchen,
	}))
}
