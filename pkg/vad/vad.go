package vad

import (
	"fmt"
	"sync"

	"github.com/mudler/xlog"
	"github.com/streamer45/silero-vad-go/speech"
)

// Segment is a detected stretch of speech, in seconds.
type Segment struct {
	Start float64
	End   float64
}

// Detector wraps a silero voice activity model. It is single threaded;
// callers serialize access through Detect.
type Detector struct {
	mu       sync.Mutex
	detector *speech.Detector
}

// NewDetector loads the silero model at modelPath. Audio fed to Detect must
// be 16 kHz mono float32.
func NewDetector(modelPath string) (*Detector, error) {
	d, err := speech.NewDetector(speech.DetectorConfig{
		ModelPath:            modelPath,
		SampleRate:           16000,
		Threshold:            0.5,
		MinSilenceDurationMs: 0,
		SpeechPadMs:          0,
	})
	if err != nil {
		return nil, fmt.Errorf("create silero detector: %w", err)
	}
	return &Detector{detector: d}, nil
}

// Detect returns the speech segments found in samples.
func (d *Detector) Detect(samples []float32) ([]Segment, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	detected, err := d.detector.Detect(samples)
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}

	segments := make([]Segment, 0, len(detected))
	for _, s := range detected {
		segments = append(segments, Segment{Start: s.SpeechStartAt, End: s.SpeechEndAt})
	}
	xlog.Debug("voice activity detected", "segments", len(segments))
	return segments, nil
}

// Close releases the model.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.detector == nil {
		return nil
	}
	err := d.detector.Destroy()
	d.detector = nil
	return err
}
