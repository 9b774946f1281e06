package srs

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mudler/LocalSRS/core/application"
	"github.com/mudler/LocalSRS/core/http/middleware"
	"github.com/mudler/LocalSRS/internal"
)

func WelcomeEndpoint(app *application.Application) echo.HandlerFunc {
	return func(c echo.Context) error {
		summary := map[string]interface{}{
			"Title":   "LocalSRS - " + internal.PrintableVersion(),
			"Version": internal.PrintableVersion(),
			"BaseURL": middleware.BaseURL(c),
			"Presets": app.PresetLoader().GetAllPresets(),
			"Jobs":    app.JobService().ListJobs(nil, 10),
		}

		if c.Request().Header.Get(echo.HeaderContentType) == echo.MIMEApplicationJSON ||
			!strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMETextHTML) {
			return c.JSON(http.StatusOK, summary)
		}
		return c.Render(http.StatusOK, "index.html", summary)
	}
}
