package srs

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mudler/LocalSRS/core/application"
	"github.com/mudler/LocalSRS/core/trace"
)

// StageTracesEndpoint returns recent pipeline stage traces
// @Summary Get stage traces
// @Description Recent pipeline stage executions from the in-memory ring buffer. Empty unless tracing is enabled.
// @Tags system
// @Produce json
// @Success 200 {array} trace.StageTrace "Stage traces, newest first"
// @Router /v1/traces [get]
func StageTracesEndpoint(_ *application.Application) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, trace.GetStageTraces())
	}
}
