// Package api is the HTTP client for the Alpha Bot backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/alphabot/alphabot-client/internal/credentials"
	"github.com/alphabot/alphabot-client/pkg/logger"
	"github.com/alphabot/alphabot-client/pkg/metrics"
)

// Config holds backend client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the instrumented default client.
	HTTPClient *http.Client
}

// Client calls the Alpha Bot REST API.
type Client struct {
	baseURL string
	http    *http.Client
	creds   credentials.Provider
	logger  *logger.Logger
}

// New creates a backend client. Every request carries the provider's bearer
// token when one is stored.
func New(cfg Config, creds credentials.Provider, log *logger.Logger) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    hc,
		creds:   creds,
		logger:  log,
	}
}

// request describes one backend call.
type request struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any
	form   url.Values
	auth   bool
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	endpoint := c.baseURL + r.path
	if len(r.query) > 0 {
		endpoint += "?" + r.query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case r.form != nil:
		body = strings.NewReader(r.form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case r.body != nil:
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", r.op, err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", r.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if r.auth {
		token, err := c.creds.Token(ctx)
		switch {
		case err == nil:
			req.Header.Set("Authorization", "Bearer "+token)
		case !errors.Is(err, credentials.ErrNoToken):
			c.logger.Warn("credential lookup failed", zap.String("op", r.op), zap.Error(err))
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordBackendCall(r.op, 0, time.Since(start).Seconds())
		return &TransportError{Op: r.op, Err: err}
	}
	defer resp.Body.Close()
	metrics.RecordBackendCall(r.op, resp.StatusCode, time.Since(start).Seconds())

	c.logger.Debug("backend call",
		zap.String("op", r.op),
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newStatusError(r.op, resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: r.op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
