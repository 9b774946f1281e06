package srs

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mudler/LocalSRS/core/application"
	"github.com/mudler/LocalSRS/core/schema"
	"github.com/mudler/LocalSRS/core/services"
	"github.com/mudler/LocalSRS/pkg/downloader"
)

// DownloadEndpoint queues a deck build from a remote source
// @Summary Build a deck from a URL
// @Description Fetch a remote source (streaming site, plain HTTP or s3://) and queue a deck build from it.
// @Tags decks
// @Accept json
// @Produce json
// @Param request body schema.DownloadRequest true "Source URL and build options"
// @Success 202 {object} schema.JobSubmittedResponse "Job queued"
// @Failure 400 {object} map[string]string "Invalid request"
// @Router /v1/downloads [post]
func DownloadEndpoint(app *application.Application) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req schema.DownloadRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		}
		if req.URL == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "url is required"})
		}

		uri := downloader.URI(req.URL)
		if !uri.LooksLikeURL() && !uri.LooksLikeS3() && !app.ApplicationConfig().AllowLocalSources {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "local sources are not allowed"})
		}
		if req.Preset != "" {
			if _, ok := app.PresetLoader().GetPreset(req.Preset); !ok {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown preset: " + req.Preset})
			}
		}

		sess, err := openOrCreateSession(app, req.SessionID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		build := req.BuildDeckRequest
		build.SessionID = sess.ID()

		inputs := []services.PipelineInput{{URL: req.URL}}
		jobID, err := app.JobService().Submit(schema.JobTypeDownload, sess.ID(), build, inputs)
		if err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		}

		return c.JSON(http.StatusAccepted, schema.JobSubmittedResponse{JobID: jobID, SessionID: sess.ID()})
	}
}
