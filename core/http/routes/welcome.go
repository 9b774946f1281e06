package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/mudler/LocalSRS/core/application"
	"github.com/mudler/LocalSRS/core/http/endpoints/srs"
)

func RegisterPagesRoutes(e *echo.Echo, application *application.Application) {
	if !application.ApplicationConfig().DisableWelcomePage {
		e.GET("/", srs.WelcomeEndpoint(application))
	}
}
