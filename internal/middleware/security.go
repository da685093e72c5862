package middleware

import (
	"github.com/labstack/echo/v4"
)

// securityHeaders are set on every response, including delegated MCP replies.
var securityHeaders = map[string]string{
	"X-Content-Type-Options": "nosniff",
	"X-Frame-Options":        "DENY",
	"Cache-Control":          "no-store",
}

// SecurityHeaders returns an Echo middleware that adds security headers to
// responses. Headers are set just before the status line is committed, so
// they also reach replies written by the MCP delegate.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			res := c.Response()
			res.Before(func() {
				for k, v := range securityHeaders {
					if res.Header().Get(k) == "" {
						res.Header().Set(k, v)
					}
				}
			})
			return next(c)
		}
	}
}
