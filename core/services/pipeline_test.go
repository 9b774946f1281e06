package services_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mudler/LocalSRS/core/config"
	"github.com/mudler/LocalSRS/core/schema"
	"github.com/mudler/LocalSRS/core/services"
	"github.com/mudler/LocalSRS/core/session"
	"github.com/mudler/LocalSRS/pkg/anki"
	"github.com/mudler/LocalSRS/pkg/downloader"
	"github.com/mudler/LocalSRS/pkg/templates"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// stubTranscriber returns canned words, or blocks until its channel closes
// or the context ends.
type stubTranscriber struct {
	words []schema.Word
	err   error
	block chan struct{}
}

func (t *stubTranscriber) Transcribe(ctx context.Context, audioPath, language string) ([]schema.Word, error) {
	if t.block != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.block:
		}
	}
	if t.err != nil {
		return nil, t.err
	}
	return t.words, nil
}

func (t *stubTranscriber) Name() string { return "stub" }

type progressEvent struct {
	Video     string
	Stage     string
	Percent   int
	Sentences int
	Err       error
}

type progressRecorder struct {
	mu     sync.Mutex
	events []progressEvent
}

func (r *progressRecorder) record(video, stage string, percent, sentences int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, progressEvent{video, stage, percent, sentences, err})
}

func (r *progressRecorder) stages(video string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.Video == video {
			out = append(out, e.Stage)
		}
	}
	return out
}

func (r *progressRecorder) find(video, stage string) (progressEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.Video == video && e.Stage == stage {
			return e, true
		}
	}
	return progressEvent{}, false
}

// sixWords forms exactly one sentence: the final punctuation split fires on
// the sixth word.
func sixWords() []schema.Word {
	return []schema.Word{
		{Text: "これ", Start: 0.0, End: 0.4},
		{Text: "は", Start: 0.4, End: 0.6},
		{Text: "今日", Start: 0.6, End: 1.0},
		{Text: "の", Start: 1.0, End: 1.2},
		{Text: "テスト", Start: 1.2, End: 1.8},
		{Text: "です。", Start: 1.8, End: 2.2},
	}
}

func newTestPipeline(appConfig *config.ApplicationConfig, tr *stubTranscriber) *services.Pipeline {
	return services.NewPipeline(
		appConfig,
		config.NewPresetLoader(appConfig.PresetsPath),
		templates.NewTemplateCache(appConfig.TemplatesPath),
		tr,
		&downloader.Downloader{AllowLocal: true},
		&anki.Builder{},
		nil,
		nil,
	)
}

var _ = Describe("PipelineInput", func() {
	It("labels by name when set, by URL otherwise", func() {
		Expect(services.PipelineInput{Name: "ep1", URL: "https://example.com/v"}.Label()).To(Equal("ep1"))
		Expect(services.PipelineInput{URL: "https://example.com/v"}.Label()).To(Equal("https://example.com/v"))
	})
})

var _ = Describe("Pipeline", func() {
	var (
		tempDir   string
		appConfig *config.ApplicationConfig
		sess      *session.Session
		recorder  *progressRecorder
	)

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "pipeline_test")
		Expect(err).NotTo(HaveOccurred())

		appConfig = config.NewApplicationConfig(
			config.WithContext(context.Background()),
			config.WithSessionsPath(filepath.Join(tempDir, "sessions")),
		)
		sess, err = session.New(appConfig.SessionsPath)
		Expect(err).NotTo(HaveOccurred())
		recorder = &progressRecorder{}
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
	})

	It("rejects an empty input list", func() {
		p := newTestPipeline(appConfig, &stubTranscriber{})
		_, _, err := p.Run(context.Background(), sess, "job-1", schema.BuildDeckRequest{}, nil, recorder.record)
		Expect(err).To(MatchError(ContainSubstring("nothing to process")))
	})

	It("rejects an unknown preset", func() {
		p := newTestPipeline(appConfig, &stubTranscriber{})
		inputs := []services.PipelineInput{{Name: "ep1", Path: filepath.Join(tempDir, "ep1.mp3")}}
		_, _, err := p.Run(context.Background(), sess, "job-1", schema.BuildDeckRequest{Preset: "nope"}, inputs, recorder.record)
		Expect(err).To(MatchError(ContainSubstring(`unknown preset "nope"`)))
	})

	It("fails a sourceless input and keeps the run error informative", func() {
		p := newTestPipeline(appConfig, &stubTranscriber{})
		inputs := []services.PipelineInput{{Name: "ghost"}}
		_, _, err := p.Run(context.Background(), sess, "job-1", schema.BuildDeckRequest{}, inputs, recorder.record)
		Expect(err).To(MatchError(ContainSubstring("no cards produced")))
		Expect(err).To(MatchError(ContainSubstring("has no source")))

		e, ok := recorder.find("ghost", "failed")
		Expect(ok).To(BeTrue())
		Expect(e.Err).To(HaveOccurred())
	})

	It("requires a cache entry for cache-only inputs", func() {
		p := newTestPipeline(appConfig, &stubTranscriber{})
		inputs := []services.PipelineInput{{Name: "missing", CachedOnly: true}}
		_, _, err := p.Run(context.Background(), sess, "job-1", schema.BuildDeckRequest{}, inputs, recorder.record)
		Expect(err).To(MatchError(ContainSubstring("not in session cache")))
	})

	It("requires surviving source audio for cache-only inputs", func() {
		gone := filepath.Join(tempDir, "gone.mp3")
		Expect(sess.SaveTranscript("ep1", sixWords(), gone, gone)).To(Succeed())

		p := newTestPipeline(appConfig, &stubTranscriber{})
		inputs := []services.PipelineInput{{Name: "ep1", CachedOnly: true}}
		_, _, err := p.Run(context.Background(), sess, "job-1", schema.BuildDeckRequest{}, inputs, recorder.record)
		Expect(err).To(MatchError(ContainSubstring("re-upload")))
	})

	It("segments cached words and reports the sentence count", func() {
		audio := filepath.Join(sess.SourceDir(), "ep1.mp3")
		Expect(os.WriteFile(audio, []byte("not really audio"), 0o644)).To(Succeed())
		Expect(sess.SaveTranscript("ep1", sixWords(), audio, audio)).To(Succeed())

		p := newTestPipeline(appConfig, &stubTranscriber{})
		inputs := []services.PipelineInput{{Name: "ep1", CachedOnly: true}}
		_, _, err := p.Run(context.Background(), sess, "job-1", schema.BuildDeckRequest{}, inputs, recorder.record)
		// Clip extraction cannot succeed on the fake audio, so the run
		// fails, but only after segmentation reported its count.
		Expect(err).To(HaveOccurred())

		e, ok := recorder.find("ep1", "segment")
		Expect(ok).To(BeTrue())
		Expect(e.Percent).To(Equal(60))
		Expect(e.Sentences).To(Equal(1))
		Expect(recorder.stages("ep1")).To(ContainElements("transcribe", "segment"))
	})

	It("drops transcripts with no usable sentences", func() {
		audio := filepath.Join(sess.SourceDir(), "ep1.mp3")
		Expect(os.WriteFile(audio, []byte("not really audio"), 0o644)).To(Succeed())
		latin := []schema.Word{
			{Text: "la", Start: 0, End: 0.5},
			{Text: "la", Start: 0.5, End: 1.0},
			{Text: "la.", Start: 1.0, End: 1.5},
		}
		Expect(sess.SaveTranscript("ep1", latin, audio, audio)).To(Succeed())

		p := newTestPipeline(appConfig, &stubTranscriber{})
		inputs := []services.PipelineInput{{Name: "ep1", CachedOnly: true}}
		_, _, err := p.Run(context.Background(), sess, "job-1", schema.BuildDeckRequest{}, inputs, recorder.record)
		Expect(err).To(MatchError(ContainSubstring("no usable sentences")))
	})

	It("reports no decks when every video of a separate-mode run fails", func() {
		p := newTestPipeline(appConfig, &stubTranscriber{})
		inputs := []services.PipelineInput{{Name: "a"}, {Name: "b"}}
		req := schema.BuildDeckRequest{DeckMode: schema.DeckModeSeparate}
		_, _, err := p.Run(context.Background(), sess, "job-1", req, inputs, recorder.record)
		Expect(err).To(MatchError(ContainSubstring("no decks produced")))
		Expect(err).To(MatchError(ContainSubstring("a:")))
		Expect(err).To(MatchError(ContainSubstring("b:")))
	})

	It("stops on context cancellation", func() {
		audio := filepath.Join(sess.SourceDir(), "ep1.mp3")
		Expect(os.WriteFile(audio, []byte("not really audio"), 0o644)).To(Succeed())

		tr := &stubTranscriber{block: make(chan struct{})}
		p := newTestPipeline(appConfig, tr)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(50 * time.Millisecond)
			cancel()
		}()

		inputs := []services.PipelineInput{{Name: "ep1", Path: audio}}
		_, _, err := p.Run(ctx, sess, "job-1", schema.BuildDeckRequest{}, inputs, recorder.record)
		Expect(err).To(MatchError(context.Canceled))
	})
})
