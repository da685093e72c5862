package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"action-router/internal/metrics"
	"action-router/internal/route"
)

// MetricsMiddleware returns an Echo middleware that records Prometheus metrics
// for each inbound request, labeled by the route table's path.
func MetricsMiddleware(m *metrics.Metrics, table *route.Table) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()

			err := next(c)

			// A returned *echo.HTTPError has not been written yet; Echo's
			// error handler writes it after this middleware unwinds.
			statusCode := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					statusCode = he.Code
				}
			}

			status := strconv.Itoa(statusCode)
			method := metrics.NormalizeMethod(c.Request().Method)
			rt := metrics.NormalizeRoute(table, c.Request().URL.Path)
			duration := time.Since(start).Seconds()

			m.RequestsTotal.WithLabelValues(method, status, rt).Inc()
			m.RequestDuration.WithLabelValues(method, status, rt).Observe(duration)

			return err
		}
	}
}
