package transcribe

import (
	"context"
	"fmt"

	"github.com/mudler/LocalSRS/core/schema"
)

// Transcriber turns an audio file into timestamped words. Implementations
// block until the transcript is complete.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language string) ([]schema.Word, error)
	Name() string
}

const (
	BackendAssemblyAI = "assemblyai"
	BackendOpenAI     = "openai"
	BackendWhisper    = "whisper"
)

// Config selects and parameterizes a transcription backend.
type Config struct {
	Backend string
	APIKey  string
	// BaseURL points the openai backend at any compatible server.
	BaseURL string
	// Model is the transcription model name, backend-specific.
	Model string
	// WhisperBinary and WhisperModel configure the managed local server.
	WhisperBinary string
	WhisperModel  string
}

// New builds the Transcriber selected by cfg.Backend.
func New(cfg Config) (Transcriber, error) {
	switch cfg.Backend {
	case BackendAssemblyAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("assemblyai backend requires an api key")
		}
		return newAssemblyAI(cfg), nil
	case BackendOpenAI:
		if cfg.APIKey == "" && cfg.BaseURL == "" {
			return nil, fmt.Errorf("openai backend requires an api key or base url")
		}
		return newOpenAI(cfg), nil
	case BackendWhisper:
		if cfg.WhisperModel == "" {
			return nil, fmt.Errorf("whisper backend requires a model file")
		}
		return newWhisper(cfg), nil
	case "":
		return nil, fmt.Errorf("no transcription backend configured")
	default:
		return nil, fmt.Errorf("unknown transcription backend %q", cfg.Backend)
	}
}
