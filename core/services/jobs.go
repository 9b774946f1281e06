package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mudler/xlog"

	"github.com/mudler/LocalSRS/core/config"
	"github.com/mudler/LocalSRS/core/schema"
	"github.com/mudler/LocalSRS/core/session"
	"github.com/mudler/LocalSRS/core/store"
	"github.com/mudler/LocalSRS/pkg/xsync"
)

// JobService owns the asynchronous deck builds: an in-memory job registry,
// a queue and one executor goroutine. Jobs run one at a time; the videos
// inside a job are parallelized by the pipeline's own worker pool, which is
// where the machine's capacity actually goes.
type JobService struct {
	appConfig *config.ApplicationConfig
	pipeline  *Pipeline

	jobs          *xsync.SyncedMap[string, schema.Job]
	cancellations *xsync.SyncedMap[string, context.CancelFunc]

	jobQueue chan jobExecution

	metrics *LocalSRSMetricsService
	events  *EventPublisher
	history *store.Store
}

type jobExecution struct {
	Job    schema.Job
	Req    schema.BuildDeckRequest
	Inputs []PipelineInput
	Ctx    context.Context
	Cancel context.CancelFunc
}

func NewJobService(
	appConfig *config.ApplicationConfig,
	pipeline *Pipeline,
	metrics *LocalSRSMetricsService,
	events *EventPublisher,
	history *store.Store,
) *JobService {
	return &JobService{
		appConfig:     appConfig,
		pipeline:      pipeline,
		jobs:          xsync.NewSyncedMap[string, schema.Job](),
		cancellations: xsync.NewSyncedMap[string, context.CancelFunc](),
		jobQueue:      make(chan jobExecution, 100),
		metrics:       metrics,
		events:        events,
		history:       history,
	}
}

// Start launches the executor. It returns immediately; the executor stops
// when ctx is done.
func (s *JobService) Start(ctx context.Context) {
	go s.worker(ctx)
	xlog.Info("job service started")
}

func (s *JobService) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case exec := <-s.jobQueue:
			// Canceled while still queued.
			select {
			case <-exec.Ctx.Done():
				s.cancellations.Delete(exec.Job.ID)
				continue
			default:
			}

			s.runJob(exec)
			s.cancellations.Delete(exec.Job.ID)
		}
	}
}

// Submit registers a job and queues it for execution. It returns the job
// id; the caller polls GetJob for progress.
func (s *JobService) Submit(jobType schema.JobType, sessionID string, req schema.BuildDeckRequest, inputs []PipelineInput) (string, error) {
	if len(inputs) == 0 {
		return "", fmt.Errorf("no inputs")
	}

	mode := req.DeckMode
	if mode == "" {
		mode = schema.DeckModeCombined
	}

	videos := make([]schema.VideoProgress, 0, len(inputs))
	for _, in := range inputs {
		videos = append(videos, schema.VideoProgress{Video: in.Label(), Stage: "queued"})
	}

	job := schema.Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		SessionID: sessionID,
		State:     schema.JobStateQueued,
		DeckMode:  mode,
		Preset:    req.Preset,
		Videos:    videos,
		CreatedAt: time.Now(),
	}
	s.setJob(job)

	ctx, cancel := context.WithCancel(s.appConfig.Context)
	s.cancellations.Set(job.ID, cancel)

	select {
	case s.jobQueue <- jobExecution{Job: job, Req: req, Inputs: inputs, Ctx: ctx, Cancel: cancel}:
	default:
		cancel()
		s.cancellations.Delete(job.ID)
		job.State = schema.JobStateFailed
		job.Error = "job queue is full"
		s.setJob(job)
		return "", fmt.Errorf("job queue is full")
	}

	xlog.Info("job queued", "job", job.ID, "type", jobType, "session", sessionID, "inputs", len(inputs))
	return job.ID, nil
}

func (s *JobService) GetJob(id string) (*schema.Job, error) {
	job := s.jobs.Get(id)
	if job.ID == "" {
		return nil, fmt.Errorf("job not found: %s", id)
	}
	return &job, nil
}

// ListJobs returns jobs newest-first, optionally filtered by state.
// limit <= 0 returns everything.
func (s *JobService) ListJobs(state *schema.JobState, limit int) []schema.Job {
	all := s.jobs.Values()
	filtered := make([]schema.Job, 0, len(all))
	for _, job := range all {
		if state != nil && job.State != *state {
			continue
		}
		filtered = append(filtered, job)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	if limit > 0 && limit < len(filtered) {
		filtered = filtered[:limit]
	}
	return filtered
}

// CancelJob cancels a queued or running job. The pipeline notices through
// its context; the state flips here so polling clients see it immediately.
func (s *JobService) CancelJob(id string) error {
	job := s.jobs.Get(id)
	if job.ID == "" {
		return fmt.Errorf("job not found: %s", id)
	}
	if job.State != schema.JobStateQueued && job.State != schema.JobStateRunning {
		return fmt.Errorf("job cannot be canceled: state is %s", job.State)
	}

	if s.cancellations.Exists(id) {
		s.cancellations.Get(id)()
		s.cancellations.Delete(id)
	}

	now := time.Now()
	job.State = schema.JobStateCanceled
	job.EndedAt = &now
	s.setJob(job)
	xlog.Info("job canceled", "job", id)
	return nil
}

func (s *JobService) runJob(exec jobExecution) {
	job := exec.Job
	now := time.Now()
	job.State = schema.JobStateRunning
	job.StartedAt = &now
	s.setJob(job)
	xlog.Info("job started", "job", job.ID, "session", job.SessionID)

	sess := session.Open(s.appConfig.SessionsPath, job.SessionID)

	// Progress callbacks arrive from the pipeline's video pool; the mutex
	// keeps the read-modify-write of the Videos slice atomic.
	var mu sync.Mutex
	progress := func(video, stage string, percent int, sentences int, err error) {
		mu.Lock()
		defer mu.Unlock()
		current := s.jobs.Get(job.ID)
		if current.ID == "" {
			return
		}
		found := false
		for i := range current.Videos {
			if current.Videos[i].Video == video {
				current.Videos[i].Stage = stage
				current.Videos[i].Percent = percent
				if sentences > 0 {
					current.Videos[i].Sentences = sentences
				}
				if err != nil {
					current.Videos[i].Error = err.Error()
				}
				found = true
				break
			}
		}
		if !found {
			vp := schema.VideoProgress{Video: video, Stage: stage, Percent: percent, Sentences: sentences}
			if err != nil {
				vp.Error = err.Error()
			}
			current.Videos = append(current.Videos, vp)
		}
		s.jobs.Set(job.ID, current)
	}

	decks, clipSeconds, err := s.pipeline.Run(exec.Ctx, sess, job.ID, exec.Req, exec.Inputs, progress)

	// Pick up the per-video progress accumulated during the run.
	job = s.jobs.Get(job.ID)
	end := time.Now()
	job.EndedAt = &end

	switch {
	case exec.Ctx.Err() != nil:
		job.State = schema.JobStateCanceled
		xlog.Info("job canceled during execution", "job", job.ID)
	case err != nil:
		job.State = schema.JobStateFailed
		job.Error = err.Error()
		xlog.Error("job failed", "job", job.ID, "error", err)
	default:
		job.State = schema.JobStateDone
		job.Decks = decks
		xlog.Info("job done", "job", job.ID, "decks", len(decks), "took", end.Sub(now).String())
	}
	s.setJob(job)

	s.recordHistory(job, decks, clipSeconds, now)
}

// recordHistory writes the durable outcome rows. Failures get a row too,
// so the history doubles as an audit trail across restarts.
func (s *JobService) recordHistory(job schema.Job, decks []schema.DeckResult, clipSeconds float64, started time.Time) {
	if s.history == nil {
		return
	}
	buildSeconds := time.Since(started).Seconds()

	if job.State == schema.JobStateFailed {
		rec := &store.DeckRecord{
			JobID:        job.ID,
			SessionID:    job.SessionID,
			DeckName:     "",
			CardCount:    0,
			BuildSeconds: buildSeconds,
			ClipSeconds:  clipSeconds,
			Error:        job.Error,
		}
		if err := s.history.RecordDeck(rec); err != nil {
			xlog.Warn("cannot record failed job", "job", job.ID, "error", err)
		}
		return
	}

	for _, d := range decks {
		rec := &store.DeckRecord{
			JobID:        job.ID,
			SessionID:    job.SessionID,
			DeckName:     d.Name,
			Path:         d.Path,
			CardCount:    d.CardCount,
			BuildSeconds: buildSeconds,
			ClipSeconds:  clipSeconds,
		}
		if err := s.history.RecordDeck(rec); err != nil {
			xlog.Warn("cannot record deck", "job", job.ID, "deck", d.Name, "error", err)
		}
	}
}

// setJob stores the job and fans the state out to metrics and events.
func (s *JobService) setJob(job schema.Job) {
	previous := s.jobs.Get(job.ID)
	s.jobs.Set(job.ID, job)
	if previous.State == job.State {
		return
	}
	if s.metrics != nil {
		s.metrics.MarkJobState(string(job.State))
	}
	if s.events != nil {
		s.events.PublishJob(&job)
	}
}
