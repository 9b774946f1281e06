package srs

import (
	"net/http"
	"os"

	"github.com/labstack/echo/v4"

	"github.com/mudler/LocalSRS/core/application"
	"github.com/mudler/LocalSRS/core/schema"
	"github.com/mudler/LocalSRS/core/services"
	"github.com/mudler/LocalSRS/core/session"
)

// ListSessionsEndpoint lists the sessions on disk
// @Summary List sessions
// @Description List every session currently on disk with its age and footprint
// @Tags sessions
// @Produce json
// @Success 200 {array} schema.SessionInfo "Sessions"
// @Router /v1/sessions [get]
func ListSessionsEndpoint(app *application.Application) echo.HandlerFunc {
	return func(c echo.Context) error {
		root := app.ApplicationConfig().SessionsPath
		ids, err := session.List(root)
		if err != nil {
			return err
		}

		infos := make([]schema.SessionInfo, 0, len(ids))
		for _, id := range ids {
			sess := session.Open(root, id)
			infos = append(infos, schema.SessionInfo{
				ID:        id,
				AgeHours:  sess.AgeHours(),
				Videos:    sess.Videos(),
				DiskBytes: sess.DiskBytes(),
			})
		}
		return c.JSON(http.StatusOK, infos)
	}
}

// GetSessionEndpoint gets one session
// @Summary Get a session
// @Description Get one session's age, cached videos and disk footprint
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} schema.SessionInfo "Session details"
// @Failure 404 {object} map[string]string "Session not found"
// @Router /v1/sessions/{id} [get]
func GetSessionEndpoint(app *application.Application) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		sess := session.Open(app.ApplicationConfig().SessionsPath, id)
		if _, err := os.Stat(sess.Dir()); err != nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found: " + id})
		}
		return c.JSON(http.StatusOK, schema.SessionInfo{
			ID:         id,
			AgeHours:   sess.AgeHours(),
			Videos:     sess.Videos(),
			DiskBytes:  sess.DiskBytes(),
			SourcePath: sess.SourceDir(),
		})
	}
}

// DeleteSessionEndpoint deletes a session
// @Summary Delete a session
// @Description Delete a session and everything it caches
// @Tags sessions
// @Param id path string true "Session ID"
// @Success 204 "Deleted"
// @Failure 404 {object} map[string]string "Session not found"
// @Router /v1/sessions/{id} [delete]
func DeleteSessionEndpoint(app *application.Application) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		sess := session.Open(app.ApplicationConfig().SessionsPath, id)
		if _, err := os.Stat(sess.Dir()); err != nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found: " + id})
		}
		if err := sess.Cleanup(); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// SweepSessionsEndpoint sweeps expired sessions now
// @Summary Sweep expired sessions
// @Description Delete every session older than the configured maximum age and report what happened
// @Tags sessions
// @Produce json
// @Success 200 {object} schema.SweepResponse "Swept and kept session ids"
// @Router /v1/sessions/sweep [post]
func SweepSessionsEndpoint(app *application.Application) echo.HandlerFunc {
	return func(c echo.Context) error {
		swept, kept := session.SweepExpired(
			app.ApplicationConfig().SessionsPath,
			app.ApplicationConfig().MaxSessionAgeHours,
		)
		return c.JSON(http.StatusOK, schema.SweepResponse{Swept: swept, Kept: kept})
	}
}

// RegenerateSessionEndpoint rebuilds decks from cached transcripts
// @Summary Regenerate decks from a session
// @Description Queue a rebuild of a session's decks from its cached transcripts, typically with different segmentation parameters. No re-transcription happens.
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body schema.BuildDeckRequest false "Build options"
// @Success 202 {object} schema.JobSubmittedResponse "Job queued"
// @Failure 404 {object} map[string]string "Session has no cached transcripts"
// @Router /v1/sessions/{id}/regenerate [post]
func RegenerateSessionEndpoint(app *application.Application) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")

		var req schema.BuildDeckRequest
		if c.Request().ContentLength > 0 {
			if err := c.Bind(&req); err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
			}
		}
		if req.Preset != "" {
			if _, ok := app.PresetLoader().GetPreset(req.Preset); !ok {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown preset: " + req.Preset})
			}
		}

		sess := session.Open(app.ApplicationConfig().SessionsPath, id)
		videos := sess.Videos()
		if len(videos) == 0 {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "session has no cached transcripts: " + id})
		}

		req.SessionID = id
		inputs := make([]services.PipelineInput, 0, len(videos))
		for _, video := range videos {
			inputs = append(inputs, services.PipelineInput{Name: video, CachedOnly: true})
		}

		jobID, err := app.JobService().Submit(schema.JobTypeRegenerate, id, req, inputs)
		if err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusAccepted, schema.JobSubmittedResponse{JobID: jobID, SessionID: id})
	}
}
