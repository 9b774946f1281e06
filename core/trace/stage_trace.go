package trace

import (
	"sort"
	"sync"
	"time"

	"github.com/emirpasic/gods/v2/queues/circularbuffer"
	"github.com/mudler/xlog"
)

type StageTraceType string

const (
	StageTraceDownload   StageTraceType = "download"
	StageTraceExtract    StageTraceType = "extract"
	StageTraceTranscribe StageTraceType = "transcribe"
	StageTraceSegment    StageTraceType = "segment"
	StageTraceCards      StageTraceType = "cards"
	StageTracePackage    StageTraceType = "package"
)

// StageTrace is one pipeline stage execution. Traces are kept in a bounded
// ring buffer for inspection; they are diagnostics, not an audit log.
type StageTrace struct {
	Timestamp time.Time      `json:"timestamp"`
	Duration  time.Duration  `json:"duration"`
	Stage     StageTraceType `json:"stage"`
	JobID     string         `json:"job_id"`
	SessionID string         `json:"session_id,omitempty"`
	Video     string         `json:"video,omitempty"`
	Summary   string         `json:"summary,omitempty"`
	Error     string         `json:"error,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

var stageTraceBuffer *circularbuffer.Queue[*StageTrace]
var stageMu sync.Mutex
var stageLogChan = make(chan *StageTrace, 100)
var stageInitOnce sync.Once

func InitStageTracingIfEnabled(maxItems int) {
	stageInitOnce.Do(func() {
		if maxItems <= 0 {
			maxItems = 100
		}
		stageMu.Lock()
		stageTraceBuffer = circularbuffer.New[*StageTrace](maxItems)
		stageMu.Unlock()

		go func() {
			for t := range stageLogChan {
				stageMu.Lock()
				if stageTraceBuffer != nil {
					stageTraceBuffer.Enqueue(t)
				}
				stageMu.Unlock()
			}
		}()
	})
}

func RecordStageTrace(t StageTrace) {
	select {
	case stageLogChan <- &t:
	default:
		xlog.Warn("Stage trace channel full, dropping trace")
	}
}

func GetStageTraces() []StageTrace {
	stageMu.Lock()
	if stageTraceBuffer == nil {
		stageMu.Unlock()
		return []StageTrace{}
	}
	ptrs := stageTraceBuffer.Values()
	stageMu.Unlock()

	traces := make([]StageTrace, len(ptrs))
	for i, p := range ptrs {
		traces[i] = *p
	}

	sort.Slice(traces, func(i, j int) bool {
		return traces[i].Timestamp.Before(traces[j].Timestamp)
	})

	return traces
}

func ClearStageTraces() {
	stageMu.Lock()
	if stageTraceBuffer != nil {
		stageTraceBuffer.Clear()
	}
	stageMu.Unlock()
}

func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
