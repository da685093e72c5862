package middleware

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RateLimiter returns a per-client-IP token bucket limiter. Rejections are
// answered in the same plain-text form as the router's own responses.
func RateLimiter(rps float64, logger *slog.Logger) echo.MiddlewareFunc {
	store := echomw.NewRateLimiterMemoryStore(rate.Limit(rps))
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			logger.Warn("rate limiter identifier error", "err", err)
			return c.String(http.StatusForbidden, "Forbidden")
		},
		DenyHandler: func(c echo.Context, identifier string, _ error) error {
			logger.Warn("rate limit exceeded",
				"remote_ip", identifier,
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
			)
			return c.String(http.StatusTooManyRequests, "Too many requests")
		},
	})
}
