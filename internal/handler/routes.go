package handler

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes mounts the dispatcher on every method and path. Matching is
// done by the dispatcher's route table, not by Echo's router.
func RegisterRoutes(e *echo.Echo, d *Dispatcher) {
	e.Any("/", d.Handle)
	e.Any("/*", d.Handle)
	// Any only covers Echo's built-in methods; anything else (PURGE, LINK)
	// would otherwise get Echo's 405 instead of the dispatcher's 404.
	e.RouteNotFound("/", d.Handle)
	e.RouteNotFound("/*", d.Handle)
}
