// Package client provides the outbound HTTP client shared by the router's
// collaborators: the MCP handler, the action service and the health service.
package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"action-router/internal/config"
	"action-router/internal/metrics"
	"action-router/internal/model"
)

// Upstream targets, used as the "target" metrics label.
const (
	TargetMcp     = "mcp"
	TargetActions = "actions"
	TargetHealth  = "health"
)

// Upstream sends requests to the router's external collaborators.
type Upstream struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// New creates an Upstream client on the default transport.
// The metrics parameter is optional; pass nil to disable upstream metrics recording.
func New(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *Upstream {
	return NewWithTransport(cfg, http.DefaultTransport, logger, m)
}

// NewWithTransport creates an Upstream client on rt. The WASI build passes the
// host's outgoing-handler transport here.
func NewWithTransport(cfg *config.Config, rt http.RoundTripper, logger *slog.Logger, m *metrics.Metrics) *Upstream {
	return &Upstream{
		httpClient: &http.Client{
			Transport: rt,
			Timeout:   time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
		},
		logger:  logger.With("component", "upstream_client"),
		metrics: m,
	}
}

// Do executes req against target and returns the raw response.
// The caller is responsible for closing the response body.
func (c *Upstream) Do(target string, req *http.Request) (*model.ForwardResponse, error) {
	c.logger.Debug("upstream request",
		"target", target,
		"method", req.Method,
		"path", req.URL.Path,
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req) //nolint:bodyclose // body ownership transfers to caller via ForwardResponse
	duration := time.Since(start).Seconds()

	method := metrics.NormalizeMethod(req.Method)

	if err != nil {
		if c.metrics != nil {
			c.metrics.UpstreamDuration.WithLabelValues(target, method).Observe(duration)
		}
		return nil, fmt.Errorf("upstream request: %w", err)
	}

	if c.metrics != nil {
		status := strconv.Itoa(resp.StatusCode)
		c.metrics.UpstreamDuration.WithLabelValues(target, method).Observe(duration)
		c.metrics.UpstreamResponses.WithLabelValues(target, method, status).Inc()
	}

	return &model.ForwardResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
	}, nil
}

// DoStream builds and executes a request, returning the response body as a stream.
// The caller is responsible for closing the returned ReadCloser.
// ctx bounds the upstream call: canceling it cancels the request.
func (c *Upstream) DoStream(ctx context.Context, target, method, url string, header http.Header, body io.Reader) (*model.ForwardResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	if header != nil {
		req.Header = header
	}

	return c.Do(target, req)
}
