package srs

import (
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/mudler/xlog"

	"github.com/mudler/LocalSRS/core/application"
	"github.com/mudler/LocalSRS/core/schema"
	"github.com/mudler/LocalSRS/core/services"
	"github.com/mudler/LocalSRS/core/session"
	"github.com/mudler/LocalSRS/pkg/archive"
	"github.com/mudler/LocalSRS/pkg/media"
)

// BuildDeckEndpoint accepts media uploads and queues a deck build
// @Summary Build a deck from uploaded media
// @Description Upload one or more audio/video files (or archives of them) and queue an asynchronous deck build. Poll the returned job id for progress.
// @Tags decks
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Media files or archives"
// @Param deck_mode formData string false "combined or separate"
// @Param deck_name formData string false "Name of the resulting deck"
// @Param preset formData string false "Preset to build with"
// @Param session_id formData string false "Session to reuse; a new one is created when empty"
// @Success 202 {object} schema.JobSubmittedResponse "Job queued"
// @Failure 400 {object} map[string]string "Invalid request"
// @Router /v1/decks [post]
func BuildDeckEndpoint(app *application.Application) echo.HandlerFunc {
	return func(c echo.Context) error {
		req, err := buildRequestFromForm(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		if req.Preset != "" {
			if _, ok := app.PresetLoader().GetPreset(req.Preset); !ok {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown preset: " + req.Preset})
			}
		}

		form, err := c.MultipartForm()
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "multipart form expected: " + err.Error()})
		}
		files := form.File["files"]
		if len(files) == 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "no files uploaded"})
		}

		sess, err := openOrCreateSession(app, req.SessionID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		req.SessionID = sess.ID()

		var inputs []services.PipelineInput
		for _, fh := range files {
			saved, err := saveUpload(fh, sess.SourceDir())
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("cannot save %q: %s", fh.Filename, err)})
			}

			if archive.IsArchive(saved) {
				extracted, err := extractMedia(saved, sess.SourceDir())
				if err != nil {
					return c.JSON(http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("cannot extract %q: %s", fh.Filename, err)})
				}
				inputs = append(inputs, extracted...)
				continue
			}

			inputs = append(inputs, services.PipelineInput{
				Name: media.SanitizeName(media.StripExt(saved)),
				Path: saved,
			})
		}
		if len(inputs) == 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "no media files in upload"})
		}

		jobID, err := app.JobService().Submit(schema.JobTypeBuild, sess.ID(), req, inputs)
		if err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		}

		return c.JSON(http.StatusAccepted, schema.JobSubmittedResponse{JobID: jobID, SessionID: sess.ID()})
	}
}

// ListDecksEndpoint lists the deck build history
// @Summary List built decks
// @Description List the deck build history, newest first
// @Tags decks
// @Produce json
// @Param limit query int false "Limit number of results"
// @Param session query string false "Only decks of this session"
// @Success 200 {array} store.DeckRecord "Deck history"
// @Router /v1/decks [get]
func ListDecksEndpoint(app *application.Application) echo.HandlerFunc {
	return func(c echo.Context) error {
		if sessionID := c.QueryParam("session"); sessionID != "" {
			recs, err := app.DeckStore().DecksForSession(sessionID)
			if err != nil {
				return err
			}
			return c.JSON(http.StatusOK, recs)
		}

		limit := 0
		if limitParam := c.QueryParam("limit"); limitParam != "" {
			if l, err := strconv.Atoi(limitParam); err == nil {
				limit = l
			}
		}
		recs, err := app.DeckStore().ListDecks(limit)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, recs)
	}
}

// DownloadDeckEndpoint serves a built .apkg package
// @Summary Download a built deck
// @Description Download the .apkg package of a deck history entry. Returns 410 when the file was swept away with its session.
// @Tags decks
// @Produce application/octet-stream
// @Param id path string true "Deck record ID"
// @Success 200 {file} binary "The package"
// @Failure 404 {object} map[string]string "Unknown deck"
// @Failure 410 {object} map[string]string "Deck file expired"
// @Router /v1/decks/{id}/download [get]
func DownloadDeckEndpoint(app *application.Application) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		rec, err := app.DeckStore().GetDeck(id)
		if err != nil {
			return err
		}
		if rec == nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "deck not found: " + id})
		}
		if rec.Path == "" || rec.Error != "" {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "deck build did not produce a package"})
		}
		if _, err := os.Stat(rec.Path); err != nil {
			return c.JSON(http.StatusGone, map[string]string{"error": "deck file expired with its session, rebuild it"})
		}
		return c.Attachment(rec.Path, filepath.Base(rec.Path))
	}
}

// buildRequestFromForm reads the build options out of the multipart fields.
func buildRequestFromForm(c echo.Context) (schema.BuildDeckRequest, error) {
	req := schema.BuildDeckRequest{
		DeckMode:  schema.DeckMode(c.FormValue("deck_mode")),
		DeckName:  c.FormValue("deck_name"),
		Preset:    c.FormValue("preset"),
		SessionID: c.FormValue("session_id"),
	}

	switch req.DeckMode {
	case "", schema.DeckModeCombined, schema.DeckModeSeparate:
	default:
		return req, fmt.Errorf("deck_mode must be %q or %q", schema.DeckModeCombined, schema.DeckModeSeparate)
	}

	for field, dst := range map[string]*int{
		"soft_limit":        &req.Segmentation.SoftLimit,
		"hard_limit":        &req.Segmentation.HardLimit,
		"min_length":        &req.Segmentation.MinLength,
		"final_min_length":  &req.Segmentation.FinalMinLength,
		"clause_min_length": &req.Segmentation.ClauseMinLength,
	} {
		raw := c.FormValue(field)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return req, fmt.Errorf("%s must be a non-negative integer", field)
		}
		*dst = v
	}
	if raw := c.FormValue("max_duration"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			return req, fmt.Errorf("max_duration must be a non-negative number")
		}
		req.Segmentation.MaxDuration = v
	}
	return req, nil
}

func openOrCreateSession(app *application.Application, sessionID string) (*session.Session, error) {
	root := app.ApplicationConfig().SessionsPath
	if sessionID == "" {
		return session.New(root)
	}
	sess := session.Open(root, sessionID)
	if err := os.MkdirAll(sess.SourceDir(), 0750); err != nil {
		return nil, err
	}
	return sess, sess.Touch()
}

func saveUpload(fh *multipart.FileHeader, dstDir string) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := media.SanitizeName(filepath.Base(fh.Filename))
	if name == "" {
		return "", fmt.Errorf("unusable file name")
	}
	dstPath := filepath.Join(dstDir, name)
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dstPath)
		return "", err
	}
	return dstPath, nil
}

// extractMedia unpacks an uploaded archive and returns one input per media
// file found inside. The archive itself is removed once extracted.
func extractMedia(archivePath, dstDir string) ([]services.PipelineInput, error) {
	extractDir := filepath.Join(dstDir, media.SanitizeName(media.StripExt(archivePath)))
	if err := archive.Extract(archivePath, extractDir); err != nil {
		return nil, err
	}
	os.Remove(archivePath)

	var inputs []services.PipelineInput
	err := filepath.WalkDir(extractDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if !media.IsMedia(path) {
			xlog.Debug("skipping non-media archive entry", "path", path)
			return nil
		}
		inputs = append(inputs, services.PipelineInput{
			Name: media.SanitizeName(media.StripExt(path)),
			Path: path,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("archive contains no media files")
	}
	return inputs, nil
}
