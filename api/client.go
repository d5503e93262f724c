// Package api is the HTTP client for the Thunder payments backend. Every
// call attaches the caller's bearer token and runs under the request
// context; nothing is retried here.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/thunderpay/thunder-go/logger"
	"github.com/thunderpay/thunder-go/metrics"
	"github.com/thunderpay/thunder-go/types"
)

// Client talks to the Thunder backend.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        logger.Logger
	rec        metrics.Recorder
}

// NewClient creates a backend client. Nil httpClient, log and rec select a
// 30s-timeout client, a noop logger and a noop recorder.
func NewClient(baseURL, token string, httpClient *http.Client, log logger.Logger, rec metrics.Recorder) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = logger.NoopLogger{}
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: httpClient,
		log:        log,
		rec:        rec,
	}
}

// envelope is the uniform response wrapper used by every backend endpoint.
type envelope struct {
	Success     bool            `json:"success"`
	Description string          `json:"description,omitempty"`
	ErrorCode   string          `json:"errorCode,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// doRaw sends one request and returns the response body. Transport failures
// come back as network_error; status codes are left to the caller since the
// backend signals outcomes in the body.
func (c *Client) doRaw(ctx context.Context, method, path string, body any, operation, category string) ([]byte, int, error) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, 0, types.Wrap(types.ErrInvalidInput, "failed to marshal request", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, types.Wrap(types.ErrNetworkError, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.rec.ObserveLatency(operation, time.Since(start), map[string]string{"category": category})
	if err != nil {
		c.log.Error("backend request failed", map[string]any{"path": path, "error": err.Error()})
		return nil, 0, types.Wrap(types.ErrNetworkError, "request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, types.Wrap(types.ErrNetworkError, "failed to read response", err)
	}

	c.log.Debug("backend response", map[string]any{
		"path":   path,
		"status": resp.StatusCode,
	})
	return raw, resp.StatusCode, nil
}

// do sends one request and decodes the uniform envelope. An unparseable
// body is a network_error; a well-formed envelope is returned as-is,
// whatever its success flag.
func (c *Client) do(ctx context.Context, method, path string, body any, operation, category string) (*envelope, error) {
	raw, status, err := c.doRaw(ctx, method, path, body, operation, category)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.log.Error("backend response unreadable", map[string]any{
			"path":   path,
			"status": status,
			"error":  err.Error(),
		})
		return nil, types.Wrap(types.ErrNetworkError,
			fmt.Sprintf("unreadable response (status %d)", status), err)
	}
	return &env, nil
}
