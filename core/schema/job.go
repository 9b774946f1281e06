package schema

import "time"

type JobType string

const (
	JobTypeBuild      JobType = "build"
	JobTypeDownload   JobType = "download"
	JobTypeRegenerate JobType = "regenerate"
)

type JobState string

const (
	JobStateQueued   JobState = "queued"
	JobStateRunning  JobState = "running"
	JobStateDone     JobState = "done"
	JobStateFailed   JobState = "failed"
	JobStateCanceled JobState = "canceled"
)

// VideoProgress tracks one video of a job through the pipeline stages.
// Percent checkpoints follow the service UI: save 10, extract 20,
// transcribe 30, segment 60, cards 70-95, done 100.
type VideoProgress struct {
	Video     string `json:"video"`
	Stage     string `json:"stage"`
	Percent   int    `json:"percent"`
	Sentences int    `json:"sentences,omitempty"`
	Error     string `json:"error,omitempty"`
}

// JobSubmittedResponse acknowledges an accepted job; the client polls the
// job endpoint with the returned id.
type JobSubmittedResponse struct {
	JobID     string `json:"job_id"`
	SessionID string `json:"session_id"`
}

// Job is one asynchronous pipeline execution scoped to a session.
type Job struct {
	ID        string          `json:"job_id"`
	Type      JobType         `json:"type"`
	SessionID string          `json:"session_id"`
	State     JobState        `json:"state"`
	DeckMode  DeckMode        `json:"deck_mode"`
	Preset    string          `json:"preset,omitempty"`
	Videos    []VideoProgress `json:"videos"`
	Decks     []DeckResult    `json:"decks,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	StartedAt *time.Time      `json:"started_at,omitempty"`
	EndedAt   *time.Time      `json:"ended_at,omitempty"`
}
