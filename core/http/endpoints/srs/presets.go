package srs

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mudler/LocalSRS/core/application"
)

// ListPresetsEndpoint lists the loaded presets
// @Summary List presets
// @Description List every loaded preset, optionally filtered by a fuzzy search term
// @Tags presets
// @Produce json
// @Param search query string false "Fuzzy filter on preset names"
// @Success 200 {array} config.Preset "Presets"
// @Router /v1/presets [get]
func ListPresetsEndpoint(app *application.Application) echo.HandlerFunc {
	return func(c echo.Context) error {
		if term := c.QueryParam("search"); term != "" {
			return c.JSON(http.StatusOK, app.PresetLoader().SearchPresets(term))
		}
		return c.JSON(http.StatusOK, app.PresetLoader().GetAllPresets())
	}
}

// GetPresetEndpoint gets a preset by name
// @Summary Get a preset
// @Description Get one preset with its effective, defaulted values
// @Tags presets
// @Produce json
// @Param name path string true "Preset name"
// @Success 200 {object} config.Preset "The preset"
// @Failure 404 {object} map[string]string "Preset not found"
// @Router /v1/presets/{name} [get]
func GetPresetEndpoint(app *application.Application) echo.HandlerFunc {
	return func(c echo.Context) error {
		name := c.Param("name")
		preset, ok := app.PresetLoader().GetPreset(name)
		if !ok {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "preset not found: " + name})
		}
		return c.JSON(http.StatusOK, preset)
	}
}
