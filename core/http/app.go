package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mudler/xlog"

	httpMiddleware "github.com/mudler/LocalSRS/core/http/middleware"
	"github.com/mudler/LocalSRS/core/http/routes"

	"github.com/mudler/LocalSRS/core/application"
	"github.com/mudler/LocalSRS/core/schema"
)

// @title LocalSRS API
// @version 2.0.0
// @description Turns spoken video and audio into spaced-repetition flashcard decks.
// @termsOfService
// @contact.name LocalSRS
// @contact.url https://github.com/mudler/LocalSRS
// @license.name MIT
// @license.url https://raw.githubusercontent.com/mudler/LocalSRS/master/LICENSE
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func API(application *application.Application) (*echo.Echo, error) {
	e := echo.New()

	// Set body limit
	if application.ApplicationConfig().UploadLimitMB > 0 {
		e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", application.ApplicationConfig().UploadLimitMB)))
	}

	// Set error handler
	if !application.ApplicationConfig().OpaqueErrors {
		e.HTTPErrorHandler = func(err error, c echo.Context) {
			code := http.StatusInternalServerError
			var he *echo.HTTPError
			if errors.As(err, &he) {
				code = he.Code
			}

			// Handle 404 errors with HTML rendering when appropriate
			if code == http.StatusNotFound {
				notFoundHandler(c)
				return
			}

			c.JSON(code, schema.ErrorResponse{
				Error: &schema.APIError{Message: err.Error(), Code: code},
			})
		}
	} else {
		e.HTTPErrorHandler = func(err error, c echo.Context) {
			code := http.StatusInternalServerError
			var he *echo.HTTPError
			if errors.As(err, &he) {
				code = he.Code
			}
			c.NoContent(code)
		}
	}

	// Set renderer
	renderer, err := renderEngine()
	if err != nil {
		return nil, err
	}
	e.Renderer = renderer

	// Hide banner
	e.HideBanner = true

	// Middleware - StripPathPrefix must be registered early as it uses Rewrite which runs before routing
	e.Pre(httpMiddleware.StripPathPrefix())

	if application.ApplicationConfig().MachineTag != "" {
		e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				c.Response().Header().Set("Machine-Tag", application.ApplicationConfig().MachineTag)
				return next(c)
			}
		})
	}

	// Request logging
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			err := next(c)
			xlog.Info("HTTP request", "method", req.Method, "path", req.URL.Path, "status", res.Status)
			return err
		}
	})

	// Recover middleware
	if !application.ApplicationConfig().Debug {
		e.Use(middleware.Recover())
	}

	// Metrics middleware, on the service the application already owns
	if !application.ApplicationConfig().DisableMetrics {
		e.Use(httpMiddleware.MetricsAPIMiddleware(application.Metrics()))
	}

	// Health Checks should always be exempt from auth, so register these first
	routes.HealthRoutes(e)

	// Get key auth middleware
	keyAuthMiddleware, err := httpMiddleware.GetKeyAuthConfig(application.ApplicationConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create key auth config: %w", err)
	}

	// Auth is applied to _all_ endpoints. No exceptions. Filtering out endpoints to bypass is the role of the Skipper property of the KeyAuth Configuration
	e.Use(keyAuthMiddleware)

	// CORS middleware
	if application.ApplicationConfig().CORS {
		corsConfig := middleware.CORSConfig{}
		if application.ApplicationConfig().CORSAllowOrigins != "" {
			corsConfig.AllowOrigins = strings.Split(application.ApplicationConfig().CORSAllowOrigins, ",")
		}
		e.Use(middleware.CORSWithConfig(corsConfig))
	}

	// CSRF middleware
	if application.ApplicationConfig().CSRF {
		xlog.Debug("Enabling CSRF middleware. Tokens are now required for state-modifying requests")
		e.Use(middleware.CSRF())
	}

	routes.RegisterPagesRoutes(e, application)
	routes.RegisterLocalSRSRoutes(e, application)

	// Note: 404 handling is done via HTTPErrorHandler above, no need for catch-all route

	e.Server.RegisterOnShutdown(func() {
		xlog.Info("LocalSRS API server shutting down")
	})

	return e, nil
}
