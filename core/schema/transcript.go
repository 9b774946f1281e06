package schema

import "time"

// Word is the minimal transcribed unit: text plus a time window in seconds
// and an optional speaker label ("" when diarization is off).
type Word struct {
	Text    string  `json:"text"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker,omitempty"`
}

// CacheEntry is the persisted transcription of one video within a session.
// Entries are replaced wholesale on re-save, never patched.
type CacheEntry struct {
	Words           []Word    `json:"words"`
	SourceVideoPath string    `json:"source_video_path"`
	SourceAudioPath string    `json:"source_audio_path"`
	LastSavedAt     time.Time `json:"last_saved_at"`
}

type TranscriptFormat string

const (
	TranscriptFormatText TranscriptFormat = "text"
	TranscriptFormatSrt  TranscriptFormat = "srt"
	TranscriptFormatVtt  TranscriptFormat = "vtt"
	TranscriptFormatLrc  TranscriptFormat = "lrc"
)
