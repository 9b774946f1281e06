package services_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/mudler/LocalSRS/core/config"
	"github.com/mudler/LocalSRS/core/schema"
	"github.com/mudler/LocalSRS/core/services"
	"github.com/mudler/LocalSRS/core/store"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("JobService", func() {
	var (
		tempDir   string
		appConfig *config.ApplicationConfig
		cancelAll context.CancelFunc
	)

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "jobs_test")
		Expect(err).NotTo(HaveOccurred())

		var ctx context.Context
		ctx, cancelAll = context.WithCancel(context.Background())
		appConfig = config.NewApplicationConfig(
			config.WithContext(ctx),
			config.WithSessionsPath(filepath.Join(tempDir, "sessions")),
		)
	})

	AfterEach(func() {
		cancelAll()
		os.RemoveAll(tempDir)
	})

	newService := func(tr *stubTranscriber, history *store.Store) *services.JobService {
		return services.NewJobService(appConfig, newTestPipeline(appConfig, tr), nil, nil, history)
	}

	jobState := func(s *services.JobService, id string) func() schema.JobState {
		return func() schema.JobState {
			job, err := s.GetJob(id)
			if err != nil {
				return ""
			}
			return job.State
		}
	}

	It("rejects an empty submission", func() {
		s := newService(&stubTranscriber{}, nil)
		_, err := s.Submit(schema.JobTypeBuild, "sess", schema.BuildDeckRequest{}, nil)
		Expect(err).To(MatchError(ContainSubstring("no inputs")))
	})

	It("errors on unknown job ids", func() {
		s := newService(&stubTranscriber{}, nil)
		_, err := s.GetJob("nope")
		Expect(err).To(MatchError(ContainSubstring("job not found")))
		Expect(s.CancelJob("nope")).To(MatchError(ContainSubstring("job not found")))
	})

	It("tracks a job from queued to failed", func() {
		s := newService(&stubTranscriber{}, nil)
		s.Start(appConfig.Context)

		id, err := s.Submit(schema.JobTypeBuild, "sess", schema.BuildDeckRequest{},
			[]services.PipelineInput{{Name: "ghost"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(id).NotTo(BeEmpty())

		Eventually(jobState(s, id), "5s", "10ms").Should(Equal(schema.JobStateFailed))

		job, err := s.GetJob(id)
		Expect(err).NotTo(HaveOccurred())
		Expect(job.Error).To(ContainSubstring("no cards produced"))
		Expect(job.StartedAt).NotTo(BeNil())
		Expect(job.EndedAt).NotTo(BeNil())
		Expect(job.Videos).To(HaveLen(1))
		Expect(job.Videos[0].Video).To(Equal("ghost"))
		Expect(job.Videos[0].Stage).To(Equal("failed"))
		Expect(job.Videos[0].Error).NotTo(BeEmpty())
	})

	It("lists jobs newest-first with state filter and limit", func() {
		// No executor: submissions stay queued.
		s := newService(&stubTranscriber{}, nil)

		var ids []string
		for _, sessID := range []string{"one", "two", "three"} {
			id, err := s.Submit(schema.JobTypeBuild, sessID, schema.BuildDeckRequest{},
				[]services.PipelineInput{{Name: "v"}})
			Expect(err).NotTo(HaveOccurred())
			ids = append(ids, id)
			time.Sleep(2 * time.Millisecond)
		}

		all := s.ListJobs(nil, 0)
		Expect(all).To(HaveLen(3))
		Expect(all[0].ID).To(Equal(ids[2]))
		Expect(all[2].ID).To(Equal(ids[0]))

		queued := schema.JobStateQueued
		Expect(s.ListJobs(&queued, 2)).To(HaveLen(2))

		done := schema.JobStateDone
		Expect(s.ListJobs(&done, 0)).To(BeEmpty())
	})

	It("cancels a queued job exactly once", func() {
		s := newService(&stubTranscriber{}, nil)

		id, err := s.Submit(schema.JobTypeBuild, "sess", schema.BuildDeckRequest{},
			[]services.PipelineInput{{Name: "v"}})
		Expect(err).NotTo(HaveOccurred())

		Expect(s.CancelJob(id)).To(Succeed())
		job, err := s.GetJob(id)
		Expect(err).NotTo(HaveOccurred())
		Expect(job.State).To(Equal(schema.JobStateCanceled))
		Expect(job.EndedAt).NotTo(BeNil())

		Expect(s.CancelJob(id)).To(MatchError(ContainSubstring("cannot be canceled")))
	})

	It("cancels a running job", func() {
		audio := filepath.Join(tempDir, "ep1.mp3")
		Expect(os.WriteFile(audio, []byte("not really audio"), 0o644)).To(Succeed())

		tr := &stubTranscriber{block: make(chan struct{})}
		s := newService(tr, nil)
		s.Start(appConfig.Context)

		id, err := s.Submit(schema.JobTypeBuild, "sess", schema.BuildDeckRequest{},
			[]services.PipelineInput{{Name: "ep1", Path: audio}})
		Expect(err).NotTo(HaveOccurred())

		Eventually(jobState(s, id), "5s", "10ms").Should(Equal(schema.JobStateRunning))
		Expect(s.CancelJob(id)).To(Succeed())
		Eventually(jobState(s, id), "5s", "10ms").Should(Equal(schema.JobStateCanceled))
	})

	It("fails submissions when the queue is full", func() {
		audio := filepath.Join(tempDir, "ep1.mp3")
		Expect(os.WriteFile(audio, []byte("not really audio"), 0o644)).To(Succeed())

		tr := &stubTranscriber{block: make(chan struct{})}
		s := newService(tr, nil)
		s.Start(appConfig.Context)

		// First job occupies the executor, the rest fill the buffer.
		blocker, err := s.Submit(schema.JobTypeBuild, "sess", schema.BuildDeckRequest{},
			[]services.PipelineInput{{Name: "ep1", Path: audio}})
		Expect(err).NotTo(HaveOccurred())
		Eventually(jobState(s, blocker), "5s", "10ms").Should(Equal(schema.JobStateRunning))

		for i := 0; i < 100; i++ {
			_, err := s.Submit(schema.JobTypeBuild, "sess", schema.BuildDeckRequest{},
				[]services.PipelineInput{{Name: "v"}})
			Expect(err).NotTo(HaveOccurred())
		}

		_, err = s.Submit(schema.JobTypeBuild, "sess", schema.BuildDeckRequest{},
			[]services.PipelineInput{{Name: "v"}})
		Expect(err).To(MatchError(ContainSubstring("job queue is full")))

		failed := schema.JobStateFailed
		Expect(s.ListJobs(&failed, 0)).To(HaveLen(1))
	})

	It("records history rows for failed jobs", func() {
		history, err := store.Open(filepath.Join(tempDir, "decks.db"))
		Expect(err).NotTo(HaveOccurred())
		defer history.Close()

		s := newService(&stubTranscriber{}, history)
		s.Start(appConfig.Context)

		id, err := s.Submit(schema.JobTypeBuild, "sess", schema.BuildDeckRequest{},
			[]services.PipelineInput{{Name: "ghost"}})
		Expect(err).NotTo(HaveOccurred())
		Eventually(jobState(s, id), "5s", "10ms").Should(Equal(schema.JobStateFailed))

		Eventually(func() int {
			recs, err := history.ListDecks(0)
			if err != nil {
				return -1
			}
			return len(recs)
		}, "5s", "10ms").Should(Equal(1))

		recs, err := history.ListDecks(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(recs[0].JobID).To(Equal(id))
		Expect(recs[0].SessionID).To(Equal("sess"))
		Expect(recs[0].Error).To(ContainSubstring("no cards produced"))
		Expect(recs[0].CardCount).To(BeZero())
	})
})
