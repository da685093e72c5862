// Package middleware provides Echo middleware for logging, metrics, security
// headers and rate limiting.
package middleware

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"action-router/internal/route"
)

// RequestLogger returns an Echo middleware that logs each request with slog.
// The route field is the table's classification, so a wrong-method request to
// a known path is logged as "none".
func RequestLogger(logger *slog.Logger, table *route.Table) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			req := c.Request()
			res := c.Response()
			rt, path := table.Classify(req.Method, req.URL.RequestURI())

			level := slog.LevelInfo
			if res.Status >= 500 || err != nil {
				level = slog.LevelError
			}
			logger.Log(req.Context(), level, "request",
				"method", req.Method,
				"path", path,
				"route", rt.String(),
				"status", res.Status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", res.Header().Get(echo.HeaderXRequestID),
				"remote_ip", c.RealIP(),
				"bytes_in", req.ContentLength,
				"bytes_out", res.Size,
			)

			return err
		}
	}
}
