package srs

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mudler/LocalSRS/core/application"
	"github.com/mudler/LocalSRS/core/schema"
	"github.com/mudler/LocalSRS/core/system"
	"github.com/mudler/LocalSRS/internal"
)

// SystemInformationEndpoint reports service health details
// @Summary System information
// @Description Version, memory, the sessions filesystem and which external tools are available
// @Tags system
// @Produce json
// @Success 200 {object} schema.SystemResponse "System information"
// @Router /v1/system [get]
func SystemInformationEndpoint(app *application.Application) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, schema.SystemResponse{
			Version: internal.PrintableVersion(),
			RAM:     system.GetRAMInfo(),
			Disk:    system.GetDiskInfo(app.ApplicationConfig().SessionsPath),
			Tools:   system.ProbeTools(),
		})
	}
}
