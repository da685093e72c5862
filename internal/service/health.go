package service

import (
	"context"
	"log/slog"
	"net/http"

	"action-router/internal/client"
	"action-router/internal/config"
)

// HealthChecker reports the status string served on GET /health.
type HealthChecker interface {
	Check(ctx context.Context) (string, error)
}

// NewHealthChecker returns a RemoteHealth when health.check_url is set and a
// StaticHealth otherwise.
func NewHealthChecker(c *client.Upstream, cfg *config.Config, logger *slog.Logger) HealthChecker {
	if cfg.Health.CheckURL == "" {
		return StaticHealth{}
	}
	return &RemoteHealth{
		client: c,
		url:    cfg.Health.CheckURL,
		logger: logger.With("component", "health_checker"),
	}
}

// StaticHealth always reports "healthy".
type StaticHealth struct{}

// Check returns "healthy".
func (StaticHealth) Check(context.Context) (string, error) {
	return "healthy", nil
}

// RemoteHealth asks the health-check service. A 2xx reply body is the status.
type RemoteHealth struct {
	client *client.Upstream
	url    string
	logger *slog.Logger
}

// Check calls the health-check service.
func (h *RemoteHealth) Check(ctx context.Context) (string, error) {
	resp, err := h.client.DoStream(ctx, client.TargetHealth, http.MethodGet, h.url, nil, nil)
	if err != nil {
		return "", HealthCheckFailed(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := ReadBody(resp.Body, maxUpstreamReplyBytes)
	if err != nil {
		return "", HealthCheckFailed(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		h.logger.Warn("health check failed", "status", resp.StatusCode)
		return "", HealthCheckFailed(upstreamStatusError("health service", resp.StatusCode, body))
	}

	return string(body), nil
}
