// Package upstream issues the single pdforge call made for each request.
package upstream

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/polisai/pdforge-adapter/pkg/domain"
)

// DefaultEndpoint is the pdforge synchronous PDF generation endpoint.
const DefaultEndpoint = "https://api.pdforge.com/v1/pdf/sync"

// Response is the raw pdforge reply. Body is nil when no content could be read.
type Response struct {
	StatusCode int
	Body       []byte
}

// Client posts an encoded payload to pdforge.
type Client interface {
	GeneratePDF(ctx context.Context, apiKey string, payload []byte) (*Response, error)
}

// Config holds the settings for an HTTPClient.
type Config struct {
	Endpoint   string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// HTTPClient is the net/http implementation of Client. It never retries.
type HTTPClient struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPClient creates a client for the configured endpoint.
func NewHTTPClient(cfg Config) *HTTPClient {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return &HTTPClient{
		endpoint:   endpoint,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Endpoint returns the URL every payload is posted to.
func (c *HTTPClient) Endpoint() string {
	return c.endpoint
}

// GeneratePDF posts payload with bearer authentication. Failures to reach
// pdforge are returned as *domain.UpstreamError; a body that cannot be read is
// reported as absent.
func (c *HTTPClient) GeneratePDF(ctx context.Context, apiKey string, payload []byte) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &domain.UpstreamError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	c.logger.Debug("posting payload to pdforge",
		"endpoint", c.endpoint,
		"bytes", len(payload),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.UpstreamError{Err: err}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.LogAttrs(ctx, slog.LevelWarn, "failed to close pdforge response body", slog.String("error", cerr.Error()))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("failed to read pdforge response body",
			"status", resp.StatusCode,
			"error", err,
		)
		body = nil
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}
