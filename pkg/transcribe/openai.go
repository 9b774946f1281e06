package transcribe

import (
	"context"
	"fmt"
	"strings"

	"github.com/mudler/xlog"
	"github.com/sashabaranov/go-openai"

	"github.com/mudler/LocalSRS/core/schema"
)

// openAI transcribes through any OpenAI-compatible audio endpoint. With a
// BaseURL set it talks to self-hosted servers exposing the same API.
type openAI struct {
	client *openai.Client
	model  string
}

func newOpenAI(cfg Config) *openAI {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}
	return &openAI{client: openai.NewClientWithConfig(clientConfig), model: model}
}

func (o *openAI) Name() string { return BackendOpenAI }

func (o *openAI) Transcribe(ctx context.Context, audioPath, language string) ([]schema.Word, error) {
	xlog.Info("starting transcription", "backend", BackendOpenAI, "audio", audioPath, "model", o.model)

	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.model,
		FilePath: audioPath,
		Language: language,
		Format:   openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularityWord,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	var words []schema.Word
	for _, w := range resp.Words {
		words = append(words, schema.Word{Text: w.Word, Start: w.Start, End: w.End})
	}
	if len(words) == 0 {
		// Servers without word granularity still return timestamped
		// segments. Segment-grain units keep the rest of the pipeline
		// working, just with coarser card boundaries.
		for _, s := range resp.Segments {
			text := strings.TrimSpace(s.Text)
			if text == "" {
				continue
			}
			words = append(words, schema.Word{Text: text, Start: s.Start, End: s.End})
		}
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("transcription returned no timestamped units")
	}

	xlog.Info("transcription completed", "backend", BackendOpenAI, "words", len(words))
	return words, nil
}
