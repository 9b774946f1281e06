package srs

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mudler/LocalSRS/core/application"
	"github.com/mudler/LocalSRS/core/config"
	"github.com/mudler/LocalSRS/core/schema"
	"github.com/mudler/LocalSRS/core/segmenter"
	"github.com/mudler/LocalSRS/core/session"
	"github.com/mudler/LocalSRS/pkg/format"
)

// GetTranscriptEndpoint exports a cached transcript
// @Summary Export a transcript
// @Description Export the cached transcript of one video as plain text or subtitles. Sentences are cut with the preset's segmentation but not script-filtered, so nothing is lost in the export.
// @Tags sessions
// @Produce plain
// @Param id path string true "Session ID"
// @Param video path string true "Video name"
// @Param format query string false "text, srt, vtt or lrc" default(text)
// @Param preset query string false "Preset whose segmentation to use"
// @Success 200 {string} string "The rendered transcript"
// @Failure 400 {object} map[string]string "Unknown format or preset"
// @Failure 404 {object} map[string]string "No cached transcript"
// @Router /v1/sessions/{id}/transcripts/{video} [get]
func GetTranscriptEndpoint(app *application.Application) echo.HandlerFunc {
	return func(c echo.Context) error {
		resFmt := schema.TranscriptFormat(c.QueryParam("format"))
		if resFmt == "" {
			resFmt = schema.TranscriptFormatText
		}
		switch resFmt {
		case schema.TranscriptFormatText, schema.TranscriptFormatSrt,
			schema.TranscriptFormatVtt, schema.TranscriptFormatLrc:
		default:
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown format: " + string(resFmt)})
		}

		preset := config.DefaultPreset()
		if name := c.QueryParam("preset"); name != "" {
			p, ok := app.PresetLoader().GetPreset(name)
			if !ok {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown preset: " + name})
			}
			preset = p
		}

		sess := session.Open(app.ApplicationConfig().SessionsPath, c.Param("id"))
		video := c.Param("video")
		entry, ok := sess.GetTranscript(video)
		if !ok {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "no cached transcript for " + video})
		}

		sentences := segmenter.Segment(entry.Words, preset.SegmenterOptions(schema.SegmentationParams{}))
		return c.Blob(http.StatusOK, format.ContentType(resFmt), []byte(format.Transcript(sentences, resFmt)))
	}
}
