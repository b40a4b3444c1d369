package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// CallOptions carries per-call extras. Token, when set, is attached as the
// bearer credential.
type CallOptions struct {
	Token string
}

// Invoker executes a named remote action against the backend.
//
// Implementations must return an error on transport failure or a
// non-success status; a well-formed error response body is not a Result.
type Invoker interface {
	Invoke(ctx context.Context, action Action, args map[string]any, opts CallOptions) (Result, error)
}

// Client is the HTTP Invoker. One network round trip per call, no
// retries; the browser re-attempts user-level actions.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type actionRequest struct {
	Action Action         `json:"action"`
	Args   map[string]any `json:"args"`
}

const maxResponseBytes = 1 << 20

func (c *Client) Invoke(ctx context.Context, action Action, args map[string]any, opts CallOptions) (Result, error) {
	if args == nil {
		args = map[string]any{}
	}
	body, err := json.Marshal(actionRequest{Action: action, Args: args})
	if err != nil {
		return Result{}, fmt.Errorf("backend: encode %s args: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/action", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("backend: build %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("backend: %s call failed: %w", action, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Result{}, fmt.Errorf("backend: read %s response: %w", action, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("backend: %s returned status %d", action, resp.StatusCode)
	}

	return ParseResult(data)
}
