package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mudler/xlog"

	"github.com/mudler/LocalSRS/core/config"
	"github.com/mudler/LocalSRS/core/schema"
	"github.com/mudler/LocalSRS/core/segmenter"
	"github.com/mudler/LocalSRS/core/session"
	"github.com/mudler/LocalSRS/core/trace"
	"github.com/mudler/LocalSRS/pkg/anki"
	"github.com/mudler/LocalSRS/pkg/downloader"
	"github.com/mudler/LocalSRS/pkg/media"
	"github.com/mudler/LocalSRS/pkg/templates"
	"github.com/mudler/LocalSRS/pkg/transcribe"
	"github.com/mudler/LocalSRS/pkg/vad"
)

// PipelineInput is one source a job turns into cards. Exactly one of Path,
// URL or CachedOnly describes where the content comes from.
type PipelineInput struct {
	// Name is the video name inside the session. It may be empty for URL
	// inputs, where the fetched title takes over.
	Name string
	// Path is a local file already landed in the session's source directory.
	Path string
	// URL is a remote source the pipeline fetches itself.
	URL string
	// CachedOnly re-segments from the session cache without touching any
	// source; used by regeneration.
	CachedOnly bool
}

// Label identifies the input in progress reports before a URL input has
// resolved its title.
func (in PipelineInput) Label() string {
	if in.Name != "" {
		return in.Name
	}
	return in.URL
}

// VideoProgressFunc receives per-video pipeline progress. err reports a
// failed video; the pipeline keeps going with the remaining ones.
type VideoProgressFunc func(video, stage string, percent int, sentences int, err error)

// Pipeline turns sources into decks: fetch, extract, transcribe, segment,
// render cards, package. It is stateless across runs; per-run state lives
// in a pipelineRun.
type Pipeline struct {
	appConfig   *config.ApplicationConfig
	presets     *config.PresetLoader
	templates   *templates.TemplateCache
	transcriber transcribe.Transcriber
	downloader  *downloader.Downloader
	anki        *anki.Builder
	vad         *vad.Detector
	metrics     *LocalSRSMetricsService
}

func NewPipeline(
	appConfig *config.ApplicationConfig,
	presets *config.PresetLoader,
	templateCache *templates.TemplateCache,
	transcriber transcribe.Transcriber,
	dl *downloader.Downloader,
	builder *anki.Builder,
	detector *vad.Detector,
	metrics *LocalSRSMetricsService,
) *Pipeline {
	return &Pipeline{
		appConfig:   appConfig,
		presets:     presets,
		templates:   templateCache,
		transcriber: transcriber,
		downloader:  dl,
		anki:        builder,
		vad:         detector,
		metrics:     metrics,
	}
}

// Run executes the pipeline for one job. Videos are processed by a bounded
// worker pool; a failed video is reported and skipped, and the run fails
// only when nothing could be packaged. The returned float64 is the summed
// clip audio duration in seconds.
func (p *Pipeline) Run(ctx context.Context, sess *session.Session, jobID string, req schema.BuildDeckRequest, inputs []PipelineInput, progress VideoProgressFunc) ([]schema.DeckResult, float64, error) {
	if len(inputs) == 0 {
		return nil, 0, fmt.Errorf("nothing to process")
	}
	preset, ok := p.presets.GetPreset(req.Preset)
	if !ok {
		return nil, 0, fmt.Errorf("unknown preset %q", req.Preset)
	}
	scripts, err := preset.ScriptRanges()
	if err != nil {
		return nil, 0, fmt.Errorf("preset %q: %w", preset.Name, err)
	}

	mode := req.DeckMode
	if mode == "" {
		mode = schema.DeckModeCombined
	}

	r := &pipelineRun{
		Pipeline: p,
		sess:     sess,
		jobID:    jobID,
		preset:   preset,
		segOpts:  preset.SegmenterOptions(req.Segmentation),
		scripts:  scripts,
		combined: mode == schema.DeckModeCombined,
		multi:    len(inputs) > 1,
		progress: progress,
	}

	workers := p.appConfig.JobWorkers
	if workers <= 0 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for _, in := range inputs {
		wg.Add(1)
		go func(in PipelineInput) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			if ctx.Err() != nil {
				return
			}
			if err := r.processVideo(ctx, in); err != nil {
				r.fail(in.Label(), err)
				xlog.Error("video failed", "session", sess.ID(), "video", in.Label(), "error", err)
			}
		}(in)
	}
	wg.Wait()
	if ctx.Err() != nil {
		return nil, r.clipSeconds, ctx.Err()
	}

	if !r.combined {
		if len(r.decks) == 0 {
			return nil, r.clipSeconds, fmt.Errorf("no decks produced: %w", errors.Join(r.videoErrs...))
		}
		return r.decks, r.clipSeconds, nil
	}

	if len(r.cards) == 0 {
		return nil, r.clipSeconds, fmt.Errorf("no cards produced: %w", errors.Join(r.videoErrs...))
	}

	deckName := req.DeckName
	if deckName == "" {
		deckName = r.combinedDeckName()
	}
	outputPath := filepath.Join(sess.DeckDir(), media.SanitizeName(deckName)+".apkg")

	started := time.Now()
	res, err := p.anki.BuildDeck(ctx, deckName, preset.NoteModel, r.cards, outputPath)
	r.recordStage(trace.StageTracePackage, "", started, deckName, err)
	if err != nil {
		return nil, r.clipSeconds, fmt.Errorf("package deck: %w", err)
	}
	if p.metrics != nil {
		p.metrics.AddCards(res.CardCount)
	}
	for _, name := range r.names {
		progress(name, "done", 100, 0, nil)
	}
	return []schema.DeckResult{*res}, r.clipSeconds, nil
}

// pipelineRun is the per-job execution state: the resolved preset, the
// shared card list and media file counter of combined mode, and the
// results. One mutex guards the mutable parts; contention is negligible
// next to the media work.
type pipelineRun struct {
	*Pipeline
	sess     *session.Session
	jobID    string
	preset   config.Preset
	segOpts  segmenter.Options
	scripts  []segmenter.ScriptRange
	combined bool
	multi    bool
	progress VideoProgressFunc

	mu          sync.Mutex
	counter     int
	cards       []schema.Card
	decks       []schema.DeckResult
	names       []string
	clipSeconds float64
	videoErrs   []error
}

func (r *pipelineRun) nextCard() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counter++
	return r.counter
}

func (r *pipelineRun) finishVideo(name string, cards []schema.Card, clipSeconds float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cards = append(r.cards, cards...)
	r.names = append(r.names, name)
	r.clipSeconds += clipSeconds
}

func (r *pipelineRun) addDeck(d schema.DeckResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decks = append(r.decks, d)
}

func (r *pipelineRun) fail(label string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.videoErrs = append(r.videoErrs, fmt.Errorf("%s: %w", label, err))
}

func (r *pipelineRun) combinedDeckName() string {
	if len(r.names) == 1 {
		return r.names[0]
	}
	out, err := r.templates.EvaluateTemplate(templates.DeckNameTemplate, r.preset.DeckNameTemplate,
		templates.DeckNameData{Count: len(r.names), Videos: r.names, Preset: r.preset.Name})
	if err != nil {
		xlog.Warn("deck name template failed, using fallback", "preset", r.preset.Name, "error", err)
		return fmt.Sprintf("Combined_%d_videos", len(r.names))
	}
	return out
}

// processVideo walks one source through save/download, extract, transcribe,
// segment and card rendering. In separate mode it also packages the video's
// own deck; in combined mode the cards land in the shared state.
func (r *pipelineRun) processVideo(ctx context.Context, in PipelineInput) error {
	label := in.Label()

	name, videoPath, audioPath, streamURL, words, err := r.resolveSource(ctx, in)
	if err != nil {
		r.progress(label, "failed", 0, 0, err)
		return err
	}

	started := time.Now()
	sentences := segmenter.Segment(words, r.segOpts)
	sentences = segmenter.FilterValidScript(sentences, r.preset.Filter.MinLength, r.scripts)
	r.recordStage(trace.StageTraceSegment, name, started,
		fmt.Sprintf("%d words -> %d sentences", len(words), len(sentences)), nil)
	r.progress(label, "segment", 60, len(sentences), nil)
	if len(sentences) == 0 {
		err := fmt.Errorf("no usable sentences in %q", name)
		r.progress(label, "failed", 60, 0, err)
		return err
	}

	vadSegs := r.vadSegments(ctx, name, audioPath)
	storyboard := r.storyboardFor(ctx, streamURL, name)

	frameOK := r.preset.Screenshot.Source == config.ScreenshotSourceVideo &&
		videoPath != "" && fileExists(videoPath) && !media.IsAudio(videoPath)

	cards := make([]schema.Card, 0, len(sentences))
	var clipSeconds float64
	started = time.Now()
	for i, sent := range sentences {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		start, end := sent.Start(), sent.End()
		if vadSegs != nil {
			start, end = vad.SnapBoundaries(start, end, vadSegs, r.snapTolerance())
		}

		var clipName, frameName string
		if r.combined {
			n := r.nextCard()
			clipName = fmt.Sprintf("clip_%06d.mp3", n)
			frameName = fmt.Sprintf("frame_%06d.jpg", n)
		} else {
			clipName = fmt.Sprintf("%s_clip_%d.mp3", name, i+1)
			frameName = fmt.Sprintf("%s_frame_%d.jpg", name, i+1)
		}

		clipPath := filepath.Join(r.sess.MediaDir(), clipName)
		if err := media.ExtractClip(ctx, audioPath, clipPath, start, end, r.preset.Clip.PaddingSeconds); err != nil {
			r.progress(label, "failed", 70, len(sentences), err)
			return fmt.Errorf("clip %d: %w", i+1, err)
		}
		clipSeconds += (end - start) + 2*r.preset.Clip.PaddingSeconds

		framePath := ""
		mid := (start + end) / 2
		switch {
		case storyboard != nil:
			framePath = filepath.Join(r.sess.MediaDir(), frameName)
			if err := storyboard.SaveThumbnailAt(mid, framePath); err != nil {
				xlog.Warn("storyboard still failed", "video", name, "at", mid, "error", err)
				framePath = ""
			}
		case frameOK:
			framePath = filepath.Join(r.sess.MediaDir(), frameName)
			if err := media.ExtractFrame(ctx, videoPath, mid, framePath, r.preset.Screenshot.Resolution); err != nil {
				xlog.Warn("still frame failed", "video", name, "at", mid, "error", err)
				framePath = ""
			}
		}

		text := sent.Text()
		if r.combined && r.multi {
			text = r.sentenceText(name, text)
		}

		cards = append(cards, schema.Card{
			AudioFile: clipPath,
			ImageFile: framePath,
			Sentence:  text,
			Tags:      r.preset.Tags,
		})
		r.progress(label, "cards", 70+((i+1)*25)/len(sentences), len(sentences), nil)
	}
	r.recordStage(trace.StageTraceCards, name, started, fmt.Sprintf("%d cards", len(cards)), nil)

	// The source video is only needed for stills; once the cards are
	// rendered it goes, keeping the session footprint to audio and derived
	// media. The extracted audio stays for regeneration.
	if !in.CachedOnly && videoPath != "" && videoPath != audioPath {
		if err := os.Remove(videoPath); err != nil && !os.IsNotExist(err) {
			xlog.Warn("cannot remove source video", "video", name, "error", err)
		}
	}

	if r.combined {
		r.finishVideo(name, cards, clipSeconds)
		r.progress(label, "cards", 95, len(sentences), nil)
		return nil
	}

	started = time.Now()
	outputPath := filepath.Join(r.sess.DeckDir(), media.SanitizeName(name)+".apkg")
	res, err := r.anki.BuildDeck(ctx, name, r.preset.NoteModel, cards, outputPath)
	r.recordStage(trace.StageTracePackage, name, started, name, err)
	if err != nil {
		r.progress(label, "failed", 95, len(sentences), err)
		return fmt.Errorf("package deck for %q: %w", name, err)
	}
	if r.metrics != nil {
		r.metrics.AddCards(res.CardCount)
	}
	r.finishVideo(name, nil, clipSeconds)
	r.addDeck(*res)
	r.progress(label, "done", 100, len(sentences), nil)
	return nil
}

// resolveSource lands the input in the session and returns the resolved
// video name, media paths and transcript words, transcribing when the
// cache misses.
func (r *pipelineRun) resolveSource(ctx context.Context, in PipelineInput) (name, videoPath, audioPath, streamURL string, words []schema.Word, err error) {
	label := in.Label()

	if in.CachedOnly {
		entry, ok := r.sess.GetTranscript(in.Name)
		if !ok {
			return "", "", "", "", nil, fmt.Errorf("video %q not in session cache", in.Name)
		}
		if entry.SourceAudioPath == "" || !fileExists(entry.SourceAudioPath) {
			return "", "", "", "", nil, fmt.Errorf("session media for %q expired, re-upload the source", in.Name)
		}
		r.progress(label, "transcribe", 30, 0, nil)
		return in.Name, entry.SourceVideoPath, entry.SourceAudioPath, "", entry.Words, nil
	}

	switch {
	case in.URL != "":
		started := time.Now()
		res, ferr := r.downloader.Fetch(ctx, downloader.URI(in.URL), r.sess.SourceDir(), nil)
		r.recordStage(trace.StageTraceDownload, label, started, in.URL, ferr)
		if ferr != nil {
			return "", "", "", "", nil, fmt.Errorf("fetch %q: %w", in.URL, ferr)
		}
		name = res.Title
		videoPath = res.Path
		streamURL = res.StreamURL
		r.progress(label, "download", 10, 0, nil)
	case in.Path != "":
		name = in.Name
		if name == "" {
			name = media.SanitizeName(media.StripExt(in.Path))
		}
		videoPath = in.Path
		r.progress(label, "save", 10, 0, nil)
	default:
		return "", "", "", "", nil, fmt.Errorf("input %q has no source", label)
	}

	if media.IsAudio(videoPath) {
		audioPath = videoPath
		r.progress(label, "extract", 20, 0, nil)
	} else {
		audioPath = filepath.Join(r.sess.SourceDir(), name+".mp3")
		started := time.Now()
		xerr := media.ExtractAudio(ctx, videoPath, audioPath)
		r.recordStage(trace.StageTraceExtract, name, started, filepath.Base(videoPath), xerr)
		if xerr != nil {
			return "", "", "", "", nil, fmt.Errorf("extract audio from %q: %w", name, xerr)
		}
		r.progress(label, "extract", 20, 0, nil)
	}

	if entry, ok := r.sess.GetTranscript(name); ok {
		xlog.Info("transcript cache hit", "session", r.sess.ID(), "video", name)
		r.progress(label, "transcribe", 30, 0, nil)
		return name, videoPath, audioPath, streamURL, entry.Words, nil
	}

	started := time.Now()
	words, terr := r.transcriberFor().Transcribe(ctx, audioPath, r.language())
	r.recordStage(trace.StageTraceTranscribe, name, started,
		fmt.Sprintf("%d words", len(words)), terr)
	if terr != nil {
		return "", "", "", "", nil, fmt.Errorf("transcribe %q: %w", name, terr)
	}
	if err := r.sess.SaveTranscript(name, words, videoPath, audioPath); err != nil {
		xlog.Warn("cannot cache transcript", "session", r.sess.ID(), "video", name, "error", err)
	}
	r.progress(label, "transcribe", 30, 0, nil)
	return name, videoPath, audioPath, streamURL, words, nil
}

func (r *pipelineRun) language() string {
	if r.preset.Transcription.Language != "" {
		return r.preset.Transcription.Language
	}
	return r.preset.Language
}

// transcriberFor honors a preset's model override for the stateless
// backends. The managed whisper backend keeps its configured model; its
// model is the server's, not a per-request knob.
func (r *pipelineRun) transcriberFor() transcribe.Transcriber {
	model := r.preset.Transcription.Model
	cfg := r.appConfig.Transcribe
	if model == "" || model == cfg.Model || cfg.Backend == transcribe.BackendWhisper {
		return r.transcriber
	}
	cfg.Model = model
	tr, err := transcribe.New(cfg)
	if err != nil {
		xlog.Warn("preset model override failed, using configured backend", "model", model, "error", err)
		return r.transcriber
	}
	return tr
}

func (r *pipelineRun) snapTolerance() float64 {
	if r.preset.Clip.VADMaxShift > 0 {
		return r.preset.Clip.VADMaxShift
	}
	if r.appConfig.VADMaxShift > 0 {
		return r.appConfig.VADMaxShift
	}
	return vad.DefaultSnapTolerance
}

// vadSegments detects speech in the video's audio, or returns nil when VAD
// is off or anything fails; clips then keep their transcript boundaries.
func (r *pipelineRun) vadSegments(ctx context.Context, name, audioPath string) []vad.Segment {
	if r.vad == nil {
		return nil
	}
	wav16 := filepath.Join(r.sess.MediaDir(), name+"_16k.wav")
	if err := media.ToWav16k(ctx, audioPath, wav16); err != nil {
		xlog.Warn("16 kHz conversion for vad failed", "video", name, "error", err)
		return nil
	}
	defer os.Remove(wav16)

	samples, rate, err := media.ReadWavSamples(wav16)
	if err != nil || rate != 16000 {
		xlog.Warn("cannot read vad input", "video", name, "rate", rate, "error", err)
		return nil
	}
	segs, err := r.vad.Detect(samples)
	if err != nil {
		xlog.Warn("voice activity detection failed", "video", name, "error", err)
		return nil
	}
	return segs
}

func (r *pipelineRun) storyboardFor(ctx context.Context, streamURL, name string) *downloader.Storyboard {
	if r.preset.Screenshot.Source != config.ScreenshotSourceStoryboard || streamURL == "" {
		return nil
	}
	sb, err := r.downloader.FetchStoryboard(ctx, streamURL, r.sess.MediaDir())
	if err != nil {
		xlog.Warn("storyboard unavailable, falling back to no stills", "video", name, "error", err)
		return nil
	}
	return sb
}

func (r *pipelineRun) sentenceText(video, sentence string) string {
	out, err := r.templates.EvaluateTemplate(templates.SentenceTemplate, r.preset.SentenceTemplate,
		templates.SentenceData{Video: video, Sentence: sentence})
	if err != nil {
		xlog.Warn("sentence template failed, using fallback", "preset", r.preset.Name, "error", err)
		return fmt.Sprintf("[%s] %s", video, sentence)
	}
	return out
}

func (r *pipelineRun) recordStage(stage trace.StageTraceType, video string, started time.Time, summary string, err error) {
	elapsed := time.Since(started)
	if r.metrics != nil {
		r.metrics.ObserveStage(string(stage), elapsed.Seconds())
	}
	if !r.appConfig.EnableTracing {
		return
	}
	trace.InitStageTracingIfEnabled(r.appConfig.TracingMaxItems)

	errStr := ""
	if err != nil {
		errStr = err.Error()
	}
	trace.RecordStageTrace(trace.StageTrace{
		Timestamp: started,
		Duration:  elapsed,
		Stage:     stage,
		JobID:     r.jobID,
		SessionID: r.sess.ID(),
		Video:     video,
		Summary:   trace.TruncateString(summary, 200),
		Error:     errStr,
	})
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
