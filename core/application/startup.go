package application

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mudler/xlog"

	"github.com/mudler/LocalSRS/core/config"
	"github.com/mudler/LocalSRS/core/services"
	"github.com/mudler/LocalSRS/core/session"
	"github.com/mudler/LocalSRS/core/store"
	"github.com/mudler/LocalSRS/core/system"
	"github.com/mudler/LocalSRS/core/trace"
	"github.com/mudler/LocalSRS/internal"
	"github.com/mudler/LocalSRS/pkg/anki"
	"github.com/mudler/LocalSRS/pkg/downloader"
	"github.com/mudler/LocalSRS/pkg/transcribe"
	"github.com/mudler/LocalSRS/pkg/vad"
)

func New(opts ...config.AppOption) (*Application, error) {
	options := config.NewApplicationConfig(opts...)
	application := newApplication(options)

	xlog.Info("Starting LocalSRS", "sessionsPath", options.SessionsPath, "backend", options.Transcribe.Backend)
	xlog.Info("LocalSRS version", "version", internal.PrintableVersion())

	if options.SessionsPath == "" {
		return nil, fmt.Errorf("sessions path cannot be empty")
	}
	if err := os.MkdirAll(options.SessionsPath, 0750); err != nil {
		return nil, fmt.Errorf("unable to create sessions path: %q", err)
	}

	tools := system.ProbeTools()
	for _, tool := range []string{"ffmpeg", "ffprobe"} {
		if !tools[tool] {
			xlog.Warn("required tool not found on PATH, builds will fail", "tool", tool)
		}
	}
	if !tools["yt-dlp"] && options.YTDLPBinary == "" {
		xlog.Debug("yt-dlp not found, streaming sources are unavailable")
	}
	if ram := system.GetRAMInfo(); ram != nil {
		xlog.Debug("system memory", "totalMB", ram.Total/1024/1024, "freeMB", ram.Free/1024/1024)
	}

	if !options.DisableMetrics {
		metrics, err := services.NewLocalSRSMetricsService()
		if err != nil {
			return nil, err
		}
		application.metrics = metrics
	}

	transcriber, err := transcribe.New(options.Transcribe)
	if err != nil {
		return nil, fmt.Errorf("transcription backend: %w", err)
	}
	application.transcriber = transcriber

	application.downloader = &downloader.Downloader{
		S3:         options.S3,
		YTDLP:      options.YTDLPBinary,
		AllowLocal: options.AllowLocalSources,
	}
	application.deckBuilder = &anki.Builder{Python: options.PythonBinary}

	if options.VADModelPath != "" {
		detector, err := vad.NewDetector(options.VADModelPath)
		if err != nil {
			xlog.Warn("voice activity detection unavailable", "model", options.VADModelPath, "error", err)
		} else {
			application.vadDetector = detector
		}
	}

	if err := application.presetLoader.LoadPresetsFromPath(options.PresetsPath); err != nil {
		xlog.Error("error loading presets", "error", err)
	}

	events, err := services.NewEventPublisher(options.NATSAddress)
	if err != nil {
		xlog.Warn("event broker unreachable, job events disabled", "address", options.NATSAddress, "error", err)
		events, _ = services.NewEventPublisher("")
	}
	application.events = events

	dsn := options.DatabaseDSN
	if dsn == "" {
		dsn = filepath.Join(options.SessionsPath, "decks.db")
	}
	deckStore, err := store.Open(dsn)
	if err != nil {
		return nil, err
	}
	application.deckStore = deckStore

	if options.EnableTracing {
		trace.InitStageTracingIfEnabled(options.TracingMaxItems)
	}

	application.pipeline = services.NewPipeline(
		options,
		application.presetLoader,
		application.templateCache,
		application.transcriber,
		application.downloader,
		application.deckBuilder,
		application.vadDetector,
		application.metrics,
	)
	application.jobService = services.NewJobService(
		options,
		application.pipeline,
		application.metrics,
		application.events,
		application.deckStore,
	)
	application.jobService.Start(options.Context)

	startSessionSweeper(options)
	startWatcher(application)

	xlog.Info("startup process completed!")
	return application, nil
}

// startSessionSweeper runs the session sweeper for the lifetime of the
// application context.
func startSessionSweeper(options *config.ApplicationConfig) {
	sweeper := session.NewSweeper(
		options.SessionsPath,
		options.MaxSessionAgeHours,
		options.SweepInterval,
		options.SweepCron,
	)
	go sweeper.Run()
	go func() {
		<-options.Context.Done()
		sweeper.Shutdown()
	}()
}

func startWatcher(application *Application) {
	options := application.ApplicationConfig()
	if options.DynamicConfigsDir == "" && options.PresetsPath == "" {
		return
	}

	if options.DynamicConfigsDir != "" {
		if _, err := os.Stat(options.DynamicConfigsDir); err != nil {
			if os.IsNotExist(err) {
				// We try to create the directory if it does not exist and was specified
				if err := os.MkdirAll(options.DynamicConfigsDir, 0700); err != nil {
					xlog.Error("failed creating DynamicConfigsDir", "error", err)
				}
			} else {
				xlog.Error("failed to read DynamicConfigsDir, watcher will not be started", "error", err)
				return
			}
		}
	}

	configHandler := newConfigFileHandler(options, application.PresetLoader())
	if err := configHandler.Watch(); err != nil {
		xlog.Error("failed creating watcher", "error", err)
	}
}
