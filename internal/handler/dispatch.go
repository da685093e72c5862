// Package handler wires the router's dispatch logic onto Echo.
package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"action-router/internal/config"
	"action-router/internal/metrics"
	"action-router/internal/model"
	"action-router/internal/route"
	"action-router/internal/service"
)

// Dispatcher classifies each request and either answers it or hands it,
// untouched, to the MCP delegate.
type Dispatcher struct {
	table     *route.Table
	bodyLimit int64
	actions   service.ActionInvoker
	health    service.HealthChecker
	delegate  http.Handler
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewDispatcher creates a Dispatcher over the default route table. When mcp is
// nil or has no forward target, POST /mcp fails with a delegation error.
// The metrics parameter is optional.
func NewDispatcher(
	cfg *config.Config,
	actions service.ActionInvoker,
	health service.HealthChecker,
	mcp *McpHandler,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Dispatcher {
	var delegate http.Handler
	if mcp.Configured() {
		delegate = mcp
	}
	return &Dispatcher{
		table:     route.DefaultTable(),
		bodyLimit: cfg.Server.BodyMaxBytes,
		actions:   actions,
		health:    health,
		delegate:  delegate,
		logger:    logger.With("component", "dispatcher"),
		metrics:   m,
	}
}

// Dispatch decides what to do with r. It reads the body only for POST /actions,
// so a delegated request reaches the MCP handler unconsumed.
func (d *Dispatcher) Dispatch(r *http.Request) (model.Result, error) {
	_, res, err := d.dispatch(r)
	return res, err
}

func (d *Dispatcher) dispatch(r *http.Request) (route.Route, model.Result, error) {
	rt, path := d.table.Classify(r.Method, r.URL.RequestURI())

	switch rt {
	case route.Health:
		status, err := d.health.Check(r.Context())
		if err != nil {
			return rt, model.Result{}, err
		}
		return rt, model.Respond(model.NewResponse(http.StatusOK, status)), nil

	case route.Mcp:
		if d.delegate == nil {
			return rt, model.Result{}, service.DelegateToMcpFailed(service.ErrMcpNotConfigured)
		}
		return rt, model.Delegate(), nil

	case route.Actions:
		body, err := service.ReadBody(r.Body, d.bodyLimit)
		if err != nil {
			return rt, model.Result{}, err
		}
		in, err := service.DecodeActionInput(body)
		if err != nil {
			return rt, model.Result{}, err
		}
		result, err := d.actions.Invoke(r.Context(), in)
		if err != nil {
			return rt, model.Result{}, err
		}
		return rt, model.Respond(model.NewResponse(http.StatusOK, result)), nil

	default:
		msg := fmt.Sprintf("Route not found: %s %s", r.Method, path)
		return rt, model.Respond(model.NewResponse(http.StatusNotFound, msg)), nil
	}
}

// Handle is the Echo entry point for every path and method.
func (d *Dispatcher) Handle(c echo.Context) error {
	req := c.Request()

	rt, res, err := d.dispatch(req)
	if err != nil {
		d.observe(rt, errorKind(err).String())
		return d.mapError(c, err)
	}

	if res.Delegated() {
		d.observe(rt, "delegated")
		// Ownership of the request and the response writer passes to the
		// delegate; nothing here touches either afterwards.
		d.delegate.ServeHTTP(c.Response(), req)
		return nil
	}

	d.observe(rt, "response")
	return d.respond(c, res.Response())
}

// respond commits status and headers once, then writes the whole body.
// A write failure after the commit cannot be turned into another response;
// it is logged and returned so Echo aborts the exchange.
func (d *Dispatcher) respond(c echo.Context, resp model.Response) error {
	w := c.Response()
	if w.Committed {
		d.logger.Error("response already committed", "status", w.Status)
		return nil
	}

	w.Header().Set(echo.HeaderContentType, echo.MIMETextPlainCharsetUTF8)
	w.WriteHeader(resp.Status)
	if _, err := io.WriteString(w, resp.Body); err != nil {
		d.logger.Error("writing response body",
			"err", err,
			"status", resp.Status,
		)
		return fmt.Errorf("write response body: %w", err)
	}
	return nil
}

// mapError turns any dispatch failure into exactly one response.
func (d *Dispatcher) mapError(c echo.Context, err error) error {
	kind := errorKind(err)
	status := kind.StatusCode()

	body := service.DelegationFailedMessage
	var e *service.Error
	if errors.As(err, &e) {
		body = e.Body()
	}

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	d.logger.Log(c.Request().Context(), level, "dispatch failed",
		"kind", kind.String(),
		"err", err,
		"method", c.Request().Method,
		"path", c.Request().URL.Path,
	)

	return d.respond(c, model.NewResponse(status, body))
}

// errorKind returns the failure kind of err. Errors that did not come from the
// service layer are treated as local delegation failures: 500 with a fixed body.
func errorKind(err error) service.Kind {
	var e *service.Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return service.KindDelegateToMcp
}

func (d *Dispatcher) observe(rt route.Route, outcome string) {
	if d.metrics == nil {
		return
	}
	d.metrics.DispatchOutcomes.WithLabelValues(rt.String(), outcome).Inc()
}
