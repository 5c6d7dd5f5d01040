package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yuliamininberg/snowflake-mcp1/internal/mcp"
	"github.com/yuliamininberg/snowflake-mcp1/internal/mcp/server/metrics"
	sqltools "github.com/yuliamininberg/snowflake-mcp1/internal/mcp/tools/sql"
)

const (
	queryToolName = "run_query"

	queryToolDescription = `
		Execute read-only SQL against the configured Snowflake warehouse.

		USAGE RULES:
		- Only SELECT statements are accepted. Mutating statements (UPDATE, DELETE, INSERT, MERGE, DROP, ALTER, TRUNCATE) are rejected before reaching the warehouse.
		- Send exactly one statement per call; semicolon-separated batches are rejected.
		- The full result set is buffered and returned as a JSON array of row objects, so aggregate with GROUP BY and apply LIMIT to keep results small.
	`

	readyzProbeTimeout = 5 * time.Second
)

type Server struct {
	log    *slog.Logger
	cfg    Config
	bridge *mcp.Bridge
	http   *http.Server
}

func New(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		log: cfg.Logger,
		cfg: cfg,
	}

	registry := mcp.NewRegistry()

	queryTool, err := sqltools.NewQueryTool(sqltools.QueryToolConfig{
		Logger:      cfg.Logger,
		DB:          cfg.DB,
		Name:        queryToolName,
		Description: queryToolDescription,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create query tool: %w", err)
	}
	if err := queryTool.Register(registry); err != nil {
		return nil, fmt.Errorf("failed to register query tool: %w", err)
	}

	bridge, err := mcp.NewBridge(cfg.Logger, registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create bridge: %w", err)
	}
	s.bridge = bridge

	mux := http.NewServeMux()

	// Apply metrics middleware first, then authentication if needed
	handler := s.metricsMiddleware(bridge)
	if len(cfg.AllowedTokens) > 0 {
		handler = s.authMiddleware(handler)
	}
	mux.Handle(s.cfg.Path, handler)

	mux.Handle("/healthz", s.metricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok\n")); err != nil {
			s.log.Error("failed to write healthz response", "error", err)
		}
	})))
	mux.Handle("/readyz", s.metricsMiddleware(http.HandlerFunc(s.readyzHandler)))

	s.http = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		// Timeouts bound how long a hung warehouse call can hold a request
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
		// Set MaxHeaderBytes to prevent abuse
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	s.log.Info("server: registered tools", "tools", registry.Names())

	return s, nil
}

func (s *Server) Run(ctx context.Context) error {
	serveErrCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("server: http server error", "error", err)
			serveErrCh <- fmt.Errorf("failed to listen and serve: %w", err)
		}
	}()

	s.log.Info("server: mcp bridge listening",
		"listenAddr", s.cfg.ListenAddr,
		"path", s.cfg.Path,
	)

	select {
	case <-ctx.Done():
		s.log.Info("server: stopping",
			"reason", ctx.Err(),
			"listenAddr", s.cfg.ListenAddr,
		)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer shutdownCancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
		s.log.Info("server: HTTP server shutdown complete")
		return nil
	case err := <-serveErrCh:
		s.log.Error("server: http server error causing shutdown",
			"error", err,
			"listenAddr", s.cfg.ListenAddr,
		)
		return err
	}
}

func (s *Server) readyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyzProbeTimeout)
	defer cancel()

	if err := s.checkWarehouse(ctx); err != nil {
		s.log.Debug("readyz: warehouse not ready", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		if _, err := w.Write([]byte("warehouse not ready\n")); err != nil {
			s.log.Error("failed to write readyz response", "error", err)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok\n")); err != nil {
		s.log.Error("failed to write readyz response", "error", err)
	}
}

func (s *Server) checkWarehouse(ctx context.Context) error {
	conn, err := s.cfg.DB.Conn(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			s.log.Warn("readyz: failed to release connection", "error", cerr)
		}
	}()

	var one int
	return conn.QueryRowContext(ctx, "SELECT 1").Scan(&one)
}

// authMiddleware wraps an HTTP handler with Bearer token authentication
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			metrics.AuthFailuresTotal.WithLabelValues("missing_header").Inc()
			w.Header().Set("WWW-Authenticate", `Bearer`)
			w.WriteHeader(http.StatusUnauthorized)
			if _, err := w.Write([]byte("unauthorized: missing authorization header\n")); err != nil {
				s.log.Error("failed to write auth error response", "error", err)
			}
			return
		}

		// Extract token from "Bearer <token>" format
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			metrics.AuthFailuresTotal.WithLabelValues("invalid_format").Inc()
			w.Header().Set("WWW-Authenticate", `Bearer`)
			w.WriteHeader(http.StatusUnauthorized)
			if _, err := w.Write([]byte("unauthorized: invalid authorization header format\n")); err != nil {
				s.log.Error("failed to write auth error response", "error", err)
			}
			return
		}

		token := strings.TrimSpace(parts[1])
		if token == "" {
			metrics.AuthFailuresTotal.WithLabelValues("empty_token").Inc()
			w.Header().Set("WWW-Authenticate", `Bearer`)
			w.WriteHeader(http.StatusUnauthorized)
			if _, err := w.Write([]byte("unauthorized: empty token\n")); err != nil {
				s.log.Error("failed to write auth error response", "error", err)
			}
			return
		}

		// Check if token is in the allowed list
		allowed := false
		for _, allowedToken := range s.cfg.AllowedTokens {
			if token == allowedToken {
				allowed = true
				break
			}
		}

		if !allowed {
			metrics.AuthFailuresTotal.WithLabelValues("invalid_token").Inc()
			w.Header().Set("WWW-Authenticate", `Bearer`)
			w.WriteHeader(http.StatusUnauthorized)
			if _, err := w.Write([]byte("unauthorized: invalid token\n")); err != nil {
				s.log.Error("failed to write auth error response", "error", err)
			}
			return
		}

		// Token is valid, proceed with the request
		next.ServeHTTP(w, r)
	})
}

// metricsMiddleware wraps an HTTP handler with metrics collection
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()
		method := r.Method
		endpoint := r.URL.Path

		// Create a response writer wrapper to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(startTime).Seconds()
		status := fmt.Sprintf("%d", wrapped.statusCode)

		metrics.HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
		metrics.HTTPRequestDuration.Observe(duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
