package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/google/uuid"
	"github.com/mudler/xlog"
	cp "github.com/otiai10/copy"
	"github.com/schollz/progressbar/v3"

	"github.com/mudler/LocalSRS/core/application"
	cliContext "github.com/mudler/LocalSRS/core/cli/context"
	"github.com/mudler/LocalSRS/core/config"
	"github.com/mudler/LocalSRS/core/schema"
	"github.com/mudler/LocalSRS/core/services"
	"github.com/mudler/LocalSRS/core/session"
	"github.com/mudler/LocalSRS/pkg/archive"
	"github.com/mudler/LocalSRS/pkg/downloader"
	"github.com/mudler/LocalSRS/pkg/media"
	"github.com/mudler/LocalSRS/pkg/transcribe"
)

type BuildCMD struct {
	Inputs []string `arg:"" help:"Media files, directories, archives or URLs to build a deck from"`

	OutputDir   string `short:"o" type:"path" default:"." help:"Directory the finished .apkg files are copied to" group:"output"`
	DeckMode    string `env:"LOCALSRS_DECK_MODE" default:"combined" enum:"combined,separate" help:"Build one combined deck or one deck per video [${enum}]" group:"output"`
	DeckName    string `help:"Name of the resulting deck; derived from the sources when empty" group:"output"`
	Preset      string `help:"Deck preset to build with" group:"output"`
	KeepSession bool   `help:"Keep the session cache around after the build, so parameters can be retried without re-transcribing" group:"output"`

	SessionsPath  string `env:"LOCALSRS_SESSIONS_PATH,SESSIONS_PATH" type:"path" default:"${basepath}/sessions" help:"Path holding the per-session caches and media" group:"storage"`
	PresetsPath   string `env:"LOCALSRS_PRESETS_PATH,PRESETS_PATH" type:"path" help:"Directory of preset YAML files" group:"storage"`
	TemplatesPath string `env:"LOCALSRS_TEMPLATES_PATH,TEMPLATES_PATH" type:"path" help:"Directory of sentence/deck-name template overrides" group:"storage"`

	SoftLimit   int     `help:"Preferred maximum words per sentence, 0 keeps the preset default" group:"segmentation"`
	HardLimit   int     `help:"Absolute maximum words per sentence, 0 keeps the preset default" group:"segmentation"`
	MinLength   int     `help:"Minimum words per sentence, 0 keeps the preset default" group:"segmentation"`
	MaxDuration float64 `help:"Maximum sentence duration in seconds, 0 keeps the preset default" group:"segmentation"`

	JobWorkers  int     `env:"LOCALSRS_JOB_WORKERS" default:"3" help:"How many videos are processed in parallel" group:"pipeline"`
	VADModel    string  `env:"LOCALSRS_VAD_MODEL" type:"path" help:"Silero VAD onnx model used to refine clip boundaries; empty disables refinement" group:"pipeline"`
	VADMaxShift float64 `env:"LOCALSRS_VAD_MAX_SHIFT" default:"0.25" help:"How far voice activity detection may move a clip boundary, in seconds" group:"pipeline"`

	TranscribeBackend string `env:"LOCALSRS_TRANSCRIBE_BACKEND,TRANSCRIBE_BACKEND" default:"assemblyai" help:"Transcription backend: assemblyai, openai or whisper" group:"transcription"`
	TranscribeAPIKey  string `env:"LOCALSRS_TRANSCRIBE_API_KEY,ASSEMBLYAI_API_KEY" help:"API key for the transcription backend" group:"transcription"`
	TranscribeBaseURL string `env:"LOCALSRS_TRANSCRIBE_BASE_URL" help:"Base URL for the openai backend, to point it at any compatible server" group:"transcription"`
	TranscribeModel   string `env:"LOCALSRS_TRANSCRIBE_MODEL" help:"Transcription model name, backend-specific" group:"transcription"`
	WhisperBinary     string `env:"LOCALSRS_WHISPER_BINARY" help:"whisper-server binary for the managed whisper backend" group:"transcription"`
	WhisperModel      string `env:"LOCALSRS_WHISPER_MODEL" type:"path" help:"Model file for the managed whisper backend" group:"transcription"`

	S3Region    string `env:"LOCALSRS_S3_REGION,AWS_REGION" help:"Region for s3:// sources" group:"sources"`
	S3Endpoint  string `env:"LOCALSRS_S3_ENDPOINT" help:"Custom S3 endpoint, for MinIO and friends" group:"sources"`
	S3AccessKey string `env:"LOCALSRS_S3_ACCESS_KEY,AWS_ACCESS_KEY_ID" help:"Access key for s3:// sources" group:"sources"`
	S3SecretKey string `env:"LOCALSRS_S3_SECRET_KEY,AWS_SECRET_ACCESS_KEY" help:"Secret key for s3:// sources" group:"sources"`
	S3Anonymous bool   `env:"LOCALSRS_S3_ANONYMOUS" help:"Fetch s3:// sources without credentials" group:"sources"`
	YTDLPBinary string `env:"LOCALSRS_YTDLP_BINARY" help:"yt-dlp binary for streaming sources, defaults to yt-dlp on PATH" group:"sources"`

	PythonBinary string `env:"LOCALSRS_PYTHON_BINARY" help:"python3 binary running the genanki helper, defaults to python3 on PATH" group:"tools"`
}

func (b *BuildCMD) Run(ctx *cliContext.Context) error {
	opts := []config.AppOption{
		config.WithContext(context.Background()),
		config.WithSessionsPath(b.SessionsPath),
		config.WithPresetsPath(b.PresetsPath),
		config.WithTemplatesPath(b.TemplatesPath),
		config.WithDebug(ctx.Debug || (ctx.LogLevel != nil && *ctx.LogLevel == "debug")),
		config.WithJobWorkers(b.JobWorkers),
		config.WithTranscribeConfig(transcribe.Config{
			Backend:       b.TranscribeBackend,
			APIKey:        b.TranscribeAPIKey,
			BaseURL:       b.TranscribeBaseURL,
			Model:         b.TranscribeModel,
			WhisperBinary: b.WhisperBinary,
			WhisperModel:  b.WhisperModel,
		}),
		config.WithS3Options(downloader.S3Options{
			Region:    b.S3Region,
			Endpoint:  b.S3Endpoint,
			AccessKey: b.S3AccessKey,
			SecretKey: b.S3SecretKey,
			Anonymous: b.S3Anonymous,
		}),
		config.WithYTDLPBinary(b.YTDLPBinary),
		config.WithPythonBinary(b.PythonBinary),
		config.WithVAD(b.VADModel, b.VADMaxShift),
		// One-shot run: nothing scrapes /metrics, local paths are the whole point.
		config.DisableMetricsEndpoint,
		config.AllowLocalSources,
	}

	app, err := application.New(opts...)
	if err != nil {
		return fmt.Errorf("failed basic startup tasks with error %s", err.Error())
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Shutdown(shutdownCtx); err != nil {
			xlog.Error("error during shutdown", "error", err)
		}
	}()

	sess, err := session.New(b.SessionsPath)
	if err != nil {
		return fmt.Errorf("cannot create session: %w", err)
	}
	if !b.KeepSession {
		defer func() {
			if err := sess.Cleanup(); err != nil {
				xlog.Error("error cleaning up the build session", "session", sess.ID(), "error", err)
			}
		}()
	}

	inputs, err := b.collectInputs(sess)
	if err != nil {
		return err
	}

	req := schema.BuildDeckRequest{
		DeckMode:  schema.DeckMode(b.DeckMode),
		DeckName:  b.DeckName,
		Preset:    b.Preset,
		SessionID: sess.ID(),
		Segmentation: schema.SegmentationParams{
			SoftLimit:   b.SoftLimit,
			HardLimit:   b.HardLimit,
			MinLength:   b.MinLength,
			MaxDuration: b.MaxDuration,
		},
	}

	bar := progressbar.NewOptions(
		len(inputs)*100,
		progressbar.OptionSetDescription("building deck"),
		progressbar.OptionShowBytes(false),
		progressbar.OptionClearOnFinish(),
	)
	var barMu sync.Mutex
	percents := map[string]int{}
	progress := func(video, stage string, percent, sentences int, err error) {
		barMu.Lock()
		defer barMu.Unlock()
		if percent > percents[video] {
			percents[video] = percent
		}
		total := 0
		for _, p := range percents {
			total += p
		}
		if err := bar.Set(total); err != nil {
			xlog.Debug("error while updating progress bar", "video", video, "error", err)
		}
	}

	started := time.Now()
	decks, _, err := app.Pipeline().Run(app.ApplicationConfig().Context, sess, uuid.New().String(), req, inputs, progress)
	_ = bar.Finish()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(b.OutputDir, 0750); err != nil {
		return fmt.Errorf("cannot create output directory: %w", err)
	}
	for i, deck := range decks {
		dest := filepath.Join(b.OutputDir, filepath.Base(deck.Path))
		if err := cp.Copy(deck.Path, dest); err != nil {
			return fmt.Errorf("cannot copy deck %q to %q: %w", deck.Name, dest, err)
		}
		decks[i].Path = dest
	}

	return printBuildSummary(decks, sess.ID(), b.KeepSession, time.Since(started))
}

// collectInputs lands every local source in the session's source directory
// and turns the argument list into pipeline inputs. URLs stay as-is, the
// pipeline fetches those itself.
func (b *BuildCMD) collectInputs(sess *session.Session) ([]services.PipelineInput, error) {
	var inputs []services.PipelineInput
	for _, raw := range b.Inputs {
		uri := downloader.URI(raw)
		if uri.LooksLikeURL() || uri.LooksLikeS3() {
			inputs = append(inputs, services.PipelineInput{URL: raw})
			continue
		}

		info, err := os.Stat(raw)
		if err != nil {
			return nil, fmt.Errorf("cannot read input %q: %w", raw, err)
		}

		if info.IsDir() {
			entries, err := os.ReadDir(raw)
			if err != nil {
				return nil, fmt.Errorf("cannot read directory %q: %w", raw, err)
			}
			for _, entry := range entries {
				if entry.IsDir() || !media.IsMedia(entry.Name()) {
					continue
				}
				in, err := landFile(sess, filepath.Join(raw, entry.Name()))
				if err != nil {
					return nil, err
				}
				inputs = append(inputs, in)
			}
			continue
		}

		if archive.IsArchive(raw) {
			extractDir := filepath.Join(sess.SourceDir(), media.StripExt(filepath.Base(raw)))
			if err := archive.Extract(raw, extractDir); err != nil {
				return nil, fmt.Errorf("cannot extract %q: %w", raw, err)
			}
			err := filepath.WalkDir(extractDir, func(path string, d os.DirEntry, err error) error {
				if err != nil || d.IsDir() || !media.IsMedia(path) {
					return err
				}
				inputs = append(inputs, services.PipelineInput{
					Name: media.SanitizeName(media.StripExt(filepath.Base(path))),
					Path: path,
				})
				return nil
			})
			if err != nil {
				return nil, err
			}
			continue
		}

		in, err := landFile(sess, raw)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}

	if len(inputs) == 0 {
		return nil, fmt.Errorf("no media inputs found")
	}
	return inputs, nil
}

func landFile(sess *session.Session, path string) (services.PipelineInput, error) {
	dest := filepath.Join(sess.SourceDir(), filepath.Base(path))
	if err := cp.Copy(path, dest); err != nil {
		return services.PipelineInput{}, fmt.Errorf("cannot copy %q into the session: %w", path, err)
	}
	return services.PipelineInput{
		Name: media.SanitizeName(media.StripExt(filepath.Base(path))),
		Path: dest,
	}, nil
}

func printBuildSummary(decks []schema.DeckResult, sessionID string, kept bool, elapsed time.Duration) error {
	var sb strings.Builder
	sb.WriteString("# Deck build finished\n\n")
	sb.WriteString("| Deck | Cards | File |\n|------|-------|------|\n")
	cards := 0
	for _, deck := range decks {
		fmt.Fprintf(&sb, "| %s | %d | %s |\n", deck.Name, deck.CardCount, deck.Path)
		cards += deck.CardCount
	}
	fmt.Fprintf(&sb, "\n%d cards in %d deck(s), built in %s.\n", cards, len(decks), elapsed.Round(time.Second))
	if kept {
		fmt.Fprintf(&sb, "\nSession `%s` was kept; rebuild with different segmentation parameters via `local-srs run` and `POST /v1/sessions/%s/regenerate`.\n", sessionID, sessionID)
	}

	out, err := glamour.Render(sb.String(), "auto")
	if err != nil {
		// A plain summary beats no summary when the terminal renderer bails.
		fmt.Println(sb.String())
		return nil
	}
	fmt.Print(out)
	return nil
}
