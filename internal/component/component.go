// Package component assembles the router served by the WASI component.
package component

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"action-router/internal/client"
	"action-router/internal/config"
	"action-router/internal/handler"
	"action-router/internal/middleware"
	"action-router/internal/route"
	"action-router/internal/service"
)

// DefaultMcpURL is the MCP handler the component delegates to unless the
// build overrides it. It is a sibling component reached through the host's
// outgoing-handler.
const DefaultMcpURL = "http://localhost:8081/mcp"

// Options are the build-time settings of the component.
type Options struct {
	// McpForwardURL is where POST /mcp is forwarded. Empty means DefaultMcpURL.
	McpForwardURL string
	// Transport carries every outbound call.
	Transport http.RoundTripper
}

// Config returns the defaulted configuration with the MCP target applied.
func Config(opts Options) *config.Config {
	cfg := config.Default()
	cfg.Mcp.ForwardURL = opts.McpForwardURL
	if cfg.Mcp.ForwardURL == "" {
		cfg.Mcp.ForwardURL = DefaultMcpURL
	}
	return cfg
}

// New builds the Echo instance the component exports.
func New(opts Options, logger *slog.Logger) (*echo.Echo, error) {
	cfg := Config(opts)

	rt := opts.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	upstream := client.NewWithTransport(cfg, rt, logger, nil)

	mcp, err := service.NewMcpService(upstream, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("mcp service: %w", err)
	}

	d := handler.NewDispatcher(cfg,
		service.NewActionInvoker(upstream, cfg, logger),
		service.NewHealthChecker(upstream, cfg, logger),
		handler.NewMcpHandler(mcp, logger),
		logger,
		nil,
	)

	e := echo.New()
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(logger, route.DefaultTable()))
	handler.RegisterRoutes(e, d)
	return e, nil
}
