package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

const defaultRequestTimeout = 120 * time.Second

type ClientConfig struct {
	Logger *slog.Logger

	Endpoint       string
	RequestTimeout time.Duration
	Token          string // Optional Bearer token for authentication
}

func (c *ClientConfig) Validate() error {
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	return nil
}

// Client invokes tools on a remote bridge endpoint and decodes the single
// event-stream frame it answers with.
type Client struct {
	log    *slog.Logger
	cfg    ClientConfig
	httpc  *http.Client
	nextID atomic.Int64
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		log:   cfg.Logger,
		cfg:   cfg,
		httpc: &http.Client{Timeout: cfg.RequestTimeout},
	}, nil
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

// CallTool invokes a named tool and returns its result. Protocol-level
// failures come back as *Error.
func (c *Client) CallTool(ctx context.Context, name string, arguments any) (*ToolResult, error) {
	args, err := json.Marshal(arguments)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal arguments: %w", err)
	}

	id := strconv.FormatInt(c.nextID.Add(1), 10)
	body, err := json.Marshal(&Request{
		JSONRPC: Version,
		ID:      json.RawMessage(id),
		Method:  MethodCallTool,
		Params:  &CallParams{Name: name, Arguments: args},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	c.log.Debug("mcp/client: calling tool", "tool", name, "id", id)

	httpResp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call endpoint: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	contentType := httpResp.Header.Get("Content-Type")
	payload := raw
	switch {
	case strings.HasPrefix(contentType, "text/event-stream"):
		payload, err = extractEventData(raw)
		if err != nil {
			return nil, err
		}
	case strings.HasPrefix(contentType, "application/json"):
	default:
		return nil, fmt.Errorf("unexpected response status %d: %s", httpResp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var resp Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response envelope: %w", err)
	}
	if !bytes.Equal(bytes.TrimSpace(resp.ID), []byte(id)) {
		return nil, fmt.Errorf("response id %s does not match request id %s", resp.ID, id)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	if resp.Result == nil {
		return nil, fmt.Errorf("response carries neither result nor error")
	}
	return resp.Result, nil
}

// extractEventData pulls the payload out of the first event-stream frame.
func extractEventData(raw []byte) ([]byte, error) {
	for _, line := range strings.Split(string(raw), "\n") {
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			return []byte(data), nil
		}
	}
	return nil, fmt.Errorf("no data frame in event stream")
}
