// Package service implements the router's request-processing steps and the
// collaborators it calls: action invocation, health checks and MCP forwarding.
package service

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"action-router/internal/client"
	"action-router/internal/config"
	"action-router/internal/model"
)

// hopByHopHeaders are connection-scoped and never forwarded in either direction.
var hopByHopHeaders = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
}

const userAgent = "action-router/1.0"

// McpService hands requests to the external MCP handler at mcp.forward_url.
type McpService struct {
	client  *client.Upstream
	logger  *slog.Logger
	baseURL *url.URL
}

// NewMcpService creates an McpService. With no mcp.forward_url the service is
// returned unconfigured and Forward always fails with ErrMcpNotConfigured.
func NewMcpService(c *client.Upstream, cfg *config.Config, logger *slog.Logger) (*McpService, error) {
	s := &McpService{
		client: c,
		logger: logger.With("component", "mcp_service"),
	}
	if cfg.Mcp.ForwardURL == "" {
		return s, nil
	}

	u, err := url.Parse(cfg.Mcp.ForwardURL)
	if err != nil {
		return nil, fmt.Errorf("parse mcp forward_url: %w", err)
	}
	s.baseURL = u
	return s, nil
}

// Configured reports whether a forward target is set.
func (s *McpService) Configured() bool {
	return s != nil && s.baseURL != nil
}

// Forward sends the request, body untouched, to the MCP handler and returns
// its response. The caller is responsible for closing the response body.
func (s *McpService) Forward(fr *model.ForwardRequest) (*model.ForwardResponse, error) {
	if !s.Configured() {
		return nil, DelegateToMcpFailed(ErrMcpNotConfigured)
	}

	target := s.buildTargetURL(fr.Query)
	header := s.filterRequestHeaders(fr.Header)

	s.logger.Debug("forwarding request",
		"method", fr.Method,
		"path", fr.Path,
	)

	resp, err := s.client.DoStream(fr.Ctx, client.TargetMcp, fr.Method, target, header, fr.Body)
	if err != nil {
		return nil, McpForwardFailed(fmt.Errorf("forward to mcp handler: %w", err))
	}

	resp.Header = s.filterResponseHeaders(resp.Header)
	return resp, nil
}

// buildTargetURL keeps the configured endpoint and merges the caller's query into it.
func (s *McpService) buildTargetURL(query url.Values) string {
	u := *s.baseURL

	q := u.Query()
	for k, v := range query {
		for _, vv := range v {
			q.Add(k, vv)
		}
	}
	u.RawQuery = q.Encode()

	return u.String()
}

func (s *McpService) filterRequestHeaders(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for key, vals := range src {
		if hopByHopHeaders[http.CanonicalHeaderKey(key)] {
			continue
		}
		dst[http.CanonicalHeaderKey(key)] = vals
	}
	if dst.Get("User-Agent") == "" {
		dst.Set("User-Agent", userAgent)
	}
	return dst
}

func (s *McpService) filterResponseHeaders(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for key, vals := range src {
		if hopByHopHeaders[http.CanonicalHeaderKey(key)] {
			continue
		}
		dst[key] = vals
	}
	return dst
}
