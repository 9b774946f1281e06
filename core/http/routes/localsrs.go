package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/mudler/LocalSRS/core/application"
	"github.com/mudler/LocalSRS/core/http/endpoints/srs"
	"github.com/mudler/LocalSRS/internal"
)

func RegisterLocalSRSRoutes(e *echo.Echo, application *application.Application) {
	appConfig := application.ApplicationConfig()

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	if !appConfig.DisableMetrics {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	e.GET("/version", func(c echo.Context) error {
		return c.JSON(http.StatusOK, struct {
			Version string `json:"version"`
		}{Version: internal.PrintableVersion()})
	})

	v1 := e.Group("/v1")

	// Decks
	v1.POST("/decks", srs.BuildDeckEndpoint(application))
	v1.GET("/decks", srs.ListDecksEndpoint(application))
	v1.GET("/decks/:id/download", srs.DownloadDeckEndpoint(application))

	// Remote sources
	v1.POST("/downloads", srs.DownloadEndpoint(application))

	// Jobs
	v1.GET("/jobs", srs.ListJobsEndpoint(application))
	v1.GET("/jobs/:id", srs.GetJobEndpoint(application))
	v1.DELETE("/jobs/:id", srs.CancelJobEndpoint(application))

	// Sessions
	v1.GET("/sessions", srs.ListSessionsEndpoint(application))
	v1.POST("/sessions/sweep", srs.SweepSessionsEndpoint(application))
	v1.GET("/sessions/:id", srs.GetSessionEndpoint(application))
	v1.DELETE("/sessions/:id", srs.DeleteSessionEndpoint(application))
	v1.POST("/sessions/:id/regenerate", srs.RegenerateSessionEndpoint(application))
	v1.GET("/sessions/:id/transcripts/:video", srs.GetTranscriptEndpoint(application))

	// Presets
	v1.GET("/presets", srs.ListPresetsEndpoint(application))
	v1.GET("/presets/:name", srs.GetPresetEndpoint(application))

	// System
	v1.GET("/system", srs.SystemInformationEndpoint(application))
	v1.GET("/traces", srs.StageTracesEndpoint(application))
}
