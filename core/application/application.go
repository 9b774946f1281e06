package application

import (
	"context"

	"github.com/mudler/LocalSRS/core/config"
	"github.com/mudler/LocalSRS/core/services"
	"github.com/mudler/LocalSRS/core/store"
	"github.com/mudler/LocalSRS/pkg/anki"
	"github.com/mudler/LocalSRS/pkg/downloader"
	"github.com/mudler/LocalSRS/pkg/templates"
	"github.com/mudler/LocalSRS/pkg/transcribe"
	"github.com/mudler/LocalSRS/pkg/vad"
)

type Application struct {
	applicationConfig *config.ApplicationConfig
	presetLoader      *config.PresetLoader
	templateCache     *templates.TemplateCache
	transcriber       transcribe.Transcriber
	downloader        *downloader.Downloader
	deckBuilder       *anki.Builder
	vadDetector       *vad.Detector
	metrics           *services.LocalSRSMetricsService
	events            *services.EventPublisher
	deckStore         *store.Store
	pipeline          *services.Pipeline
	jobService        *services.JobService
}

func newApplication(appConfig *config.ApplicationConfig) *Application {
	return &Application{
		applicationConfig: appConfig,
		presetLoader:      config.NewPresetLoader(appConfig.PresetsPath),
		templateCache:     templates.NewTemplateCache(appConfig.TemplatesPath),
	}
}

func (a *Application) ApplicationConfig() *config.ApplicationConfig {
	return a.applicationConfig
}

func (a *Application) PresetLoader() *config.PresetLoader {
	return a.presetLoader
}

func (a *Application) TemplateCache() *templates.TemplateCache {
	return a.templateCache
}

func (a *Application) Transcriber() transcribe.Transcriber {
	return a.transcriber
}

func (a *Application) Downloader() *downloader.Downloader {
	return a.downloader
}

func (a *Application) DeckBuilder() *anki.Builder {
	return a.deckBuilder
}

func (a *Application) Metrics() *services.LocalSRSMetricsService {
	return a.metrics
}

func (a *Application) DeckStore() *store.Store {
	return a.deckStore
}

func (a *Application) Pipeline() *services.Pipeline {
	return a.pipeline
}

func (a *Application) JobService() *services.JobService {
	return a.jobService
}

// Shutdown releases everything that outlives a request: broker connection,
// history database, VAD session and the metrics provider. Safe to call with
// partially initialized fields.
func (a *Application) Shutdown(ctx context.Context) error {
	if a.events != nil {
		a.events.Close()
	}
	var err error
	if a.deckStore != nil {
		err = a.deckStore.Close()
	}
	if a.vadDetector != nil {
		if cerr := a.vadDetector.Close(); err == nil {
			err = cerr
		}
	}
	if a.metrics != nil {
		if merr := a.metrics.Shutdown(ctx); err == nil {
			err = merr
		}
	}
	return err
}
