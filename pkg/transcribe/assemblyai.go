package transcribe

import (
	"context"
	"fmt"
	"os"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	"github.com/mudler/xlog"

	"github.com/mudler/LocalSRS/core/schema"
)

// assemblyAI transcribes through the hosted AssemblyAI API, which returns
// word-level timestamps and speaker labels in one pass.
type assemblyAI struct {
	client *aai.Client
}

func newAssemblyAI(cfg Config) *assemblyAI {
	return &assemblyAI{client: aai.NewClient(cfg.APIKey)}
}

func (a *assemblyAI) Name() string { return BackendAssemblyAI }

func (a *assemblyAI) Transcribe(ctx context.Context, audioPath, language string) ([]schema.Word, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	xlog.Info("starting transcription", "backend", BackendAssemblyAI, "audio", audioPath, "language", language)

	params := &aai.TranscriptOptionalParams{
		SpeakerLabels: aai.Bool(true),
		Punctuate:     aai.Bool(true),
		FormatText:    aai.Bool(true),
	}
	if language != "" {
		params.LanguageCode = aai.TranscriptLanguageCode(language)
	}

	transcript, err := a.client.Transcripts.TranscribeFromReader(ctx, f, params)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}
	if transcript.Status == aai.TranscriptStatusError {
		return nil, fmt.Errorf("transcription failed: %s", aai.ToString(transcript.Error))
	}

	words := wordsFromTranscript(transcript.Words)

	xlog.Info("transcription completed", "backend", BackendAssemblyAI, "words", len(words))
	return words, nil
}

// wordsFromTranscript converts API words to the internal shape: timestamps
// from milliseconds to seconds, and the bare diarization label ("A", "B")
// expanded to the "Speaker A" form the rest of the pipeline displays.
func wordsFromTranscript(ts []aai.TranscriptWord) []schema.Word {
	words := make([]schema.Word, 0, len(ts))
	for _, w := range ts {
		speaker := aai.ToString(w.Speaker)
		if speaker != "" {
			speaker = "Speaker " + speaker
		}
		words = append(words, schema.Word{
			Text:    aai.ToString(w.Text),
			Start:   float64(aai.ToInt64(w.Start)) / 1000,
			End:     float64(aai.ToInt64(w.End)) / 1000,
			Speaker: speaker,
		})
	}
	return words
}
