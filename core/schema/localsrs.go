package schema

type APIError struct {
	Code    any     `json:"code,omitempty"`
	Message string  `json:"message"`
	Param   *string `json:"param,omitempty"`
	Type    string  `json:"type"`
}

type ErrorResponse struct {
	Error *APIError `json:"error,omitempty"`
}

// SegmentationParams are the request-level overrides for the segmenter.
// Zero values mean "use the preset default".
type SegmentationParams struct {
	SoftLimit       int     `json:"soft_limit,omitempty" yaml:"soft_limit"`
	HardLimit       int     `json:"hard_limit,omitempty" yaml:"hard_limit"`
	MinLength       int     `json:"min_length,omitempty" yaml:"min_length"`
	MaxDuration     float64 `json:"max_duration,omitempty" yaml:"max_duration"`
	FinalMinLength  int     `json:"final_min_length,omitempty" yaml:"final_min_length"`
	ClauseMinLength int     `json:"clause_min_length,omitempty" yaml:"clause_min_length"`
}

// BuildDeckRequest is the options part of the multipart deck upload and the
// body of the regenerate call.
type BuildDeckRequest struct {
	DeckMode     DeckMode           `json:"deck_mode,omitempty"`
	DeckName     string             `json:"deck_name,omitempty"`
	Preset       string             `json:"preset,omitempty"`
	SessionID    string             `json:"session_id,omitempty"`
	Segmentation SegmentationParams `json:"segmentation,omitempty"`
}

// DownloadRequest asks the service to fetch a remote source and build from it.
type DownloadRequest struct {
	URL string `json:"url"`
	BuildDeckRequest
}

type SessionInfo struct {
	ID         string   `json:"id"`
	AgeHours   float64  `json:"age_hours"`
	Videos     []string `json:"videos"`
	DiskBytes  int64    `json:"disk_bytes"`
	SourcePath string   `json:"source_path,omitempty"`
}

type SweepResponse struct {
	Swept []string `json:"swept"`
	Kept  []string `json:"kept"`
}

type SystemResponse struct {
	Version string          `json:"version"`
	RAM     *RAMInfo        `json:"ram,omitempty"`
	Disk    *DiskInfo       `json:"disk,omitempty"`
	Tools   map[string]bool `json:"tools"`
}

type RAMInfo struct {
	Total        uint64  `json:"total"`
	Used         uint64  `json:"used"`
	Free         uint64  `json:"free"`
	UsagePercent float64 `json:"usage_percent"`
}

type DiskInfo struct {
	Path         string  `json:"path"`
	Total        uint64  `json:"total"`
	Free         uint64  `json:"free"`
	UsedPercent  float64 `json:"used_percent"`
	SessionBytes int64   `json:"session_bytes"`
}
