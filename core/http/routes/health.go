package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthRoutes adds the liveness and readiness endpoints. They are exempt
// from authentication so orchestrators can probe them.
func HealthRoutes(e *echo.Echo) {
	ok := func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}

	e.GET("/healthz", ok)
	e.GET("/readyz", ok)
}
