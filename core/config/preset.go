package config

import (
	"fmt"
	"strconv"
	"strings"

	"dario.cat/mergo"

	"github.com/mudler/LocalSRS/core/schema"
	"github.com/mudler/LocalSRS/core/segmenter"
	"github.com/mudler/LocalSRS/pkg/anki"
	"github.com/mudler/LocalSRS/pkg/media"
	"github.com/mudler/LocalSRS/pkg/templates"
)

const (
	ScreenshotSourceVideo      = "video"
	ScreenshotSourceStoryboard = "storyboard"
	ScreenshotSourceNone       = "none"
)

// Preset bundles every tunable of a deck build: how sentences are cut, how
// clips and stills are rendered and what the resulting cards look like.
// Request parameters overlay a preset; a preset overlays the built-in
// defaults.
type Preset struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description,omitempty"`
	Language    string `yaml:"language" json:"language,omitempty"`

	Segmentation schema.SegmentationParams `yaml:"segmentation" json:"segmentation"`
	Filter       FilterConfig              `yaml:"filter" json:"filter"`
	Clip         ClipConfig                `yaml:"clip" json:"clip"`
	Screenshot   ScreenshotConfig          `yaml:"screenshot" json:"screenshot"`

	Transcription TranscriptionOverrides `yaml:"transcription" json:"transcription,omitempty"`

	NoteModel        schema.NoteModel `yaml:"note_model" json:"note_model"`
	SentenceTemplate string           `yaml:"sentence_template" json:"sentence_template,omitempty"`
	DeckNameTemplate string           `yaml:"deck_name_template" json:"deck_name_template,omitempty"`
	Tags             []string         `yaml:"tags" json:"tags,omitempty"`

	presetFile string
}

// FilterConfig parameterizes the post-segmentation validity filter. Scripts
// are inclusive Unicode ranges in "LO-HI" hex notation; a sentence needs at
// least one rune inside any range to survive.
type FilterConfig struct {
	MinLength int      `yaml:"min_length" json:"min_length"`
	Scripts   []string `yaml:"scripts" json:"scripts"`
}

type ClipConfig struct {
	PaddingSeconds float64 `yaml:"padding_seconds" json:"padding_seconds"`
	// VADMaxShift bounds how far voice activity detection may move a clip
	// boundary, in seconds. 0 keeps the global default.
	VADMaxShift float64 `yaml:"vad_max_shift" json:"vad_max_shift"`
}

type ScreenshotConfig struct {
	// Source selects where stills come from: video frames, the streaming
	// site's storyboard track, or none.
	Source     string `yaml:"source" json:"source"`
	Resolution string `yaml:"resolution" json:"resolution"`
}

// TranscriptionOverrides narrow the configured transcription backend per
// preset. Only model and language can vary per deck; credentials stay
// application-level.
type TranscriptionOverrides struct {
	Model    string `yaml:"model" json:"model,omitempty"`
	Language string `yaml:"language" json:"language,omitempty"`
}

// DefaultPreset is the built-in Japanese listening-card preset. It is always
// resolvable, also when no presets directory is configured.
func DefaultPreset() Preset {
	return Preset{
		Name:        "default",
		Description: "Japanese listening cards: audio plus still on the front, sentence on the back",
		Language:    "ja",
		Segmentation: schema.SegmentationParams{
			SoftLimit:       segmenter.DefaultSoftLimit,
			HardLimit:       segmenter.DefaultHardLimit,
			MinLength:       segmenter.DefaultMinLength,
			MaxDuration:     segmenter.DefaultMaxDuration,
			FinalMinLength:  segmenter.DefaultFinalMinLength,
			ClauseMinLength: segmenter.DefaultClauseMinLength,
		},
		Filter: FilterConfig{
			MinLength: segmenter.DefaultMinLength,
			Scripts:   []string{"3040-309F", "30A0-30FF", "4E00-9FAF"},
		},
		Clip: ClipConfig{
			PaddingSeconds: media.ClipPadding,
		},
		Screenshot: ScreenshotConfig{
			Source:     ScreenshotSourceVideo,
			Resolution: media.FrameResolution,
		},
		NoteModel:        anki.DefaultNoteModel(),
		SentenceTemplate: templates.DefaultCombinedSentence,
		DeckNameTemplate: templates.DefaultCombinedDeckName,
	}
}

// SetDefaults fills every empty field from the built-in default preset.
func (p *Preset) SetDefaults() error {
	return mergo.Merge(p, DefaultPreset())
}

func (p *Preset) Validate() bool {
	if p.Name == "" {
		return false
	}
	switch p.Screenshot.Source {
	case ScreenshotSourceVideo, ScreenshotSourceStoryboard, ScreenshotSourceNone:
	default:
		return false
	}
	if _, err := p.ScriptRanges(); err != nil {
		return false
	}
	return true
}

func (p *Preset) PresetFile() string { return p.presetFile }

// SegmenterOptions resolves the effective segmentation options: non-zero
// request overrides win over the preset's values.
func (p *Preset) SegmenterOptions(overrides schema.SegmentationParams) segmenter.Options {
	merged := overrides
	if err := mergo.Merge(&merged, p.Segmentation); err != nil {
		merged = p.Segmentation
	}
	return segmenter.Options{
		SoftLimit:       merged.SoftLimit,
		HardLimit:       merged.HardLimit,
		MinLength:       merged.MinLength,
		MaxDuration:     merged.MaxDuration,
		FinalMinLength:  merged.FinalMinLength,
		ClauseMinLength: merged.ClauseMinLength,
	}
}

// ScriptRanges parses the filter's script ranges.
func (p *Preset) ScriptRanges() ([]segmenter.ScriptRange, error) {
	ranges := make([]segmenter.ScriptRange, 0, len(p.Filter.Scripts))
	for _, s := range p.Filter.Scripts {
		lo, hi, ok := strings.Cut(s, "-")
		if !ok {
			return nil, fmt.Errorf("script range %q is not in LO-HI form", s)
		}
		loRune, err := strconv.ParseUint(strings.TrimSpace(lo), 16, 32)
		if err != nil {
			return nil, fmt.Errorf("script range %q: %w", s, err)
		}
		hiRune, err := strconv.ParseUint(strings.TrimSpace(hi), 16, 32)
		if err != nil {
			return nil, fmt.Errorf("script range %q: %w", s, err)
		}
		if hiRune < loRune {
			return nil, fmt.Errorf("script range %q is inverted", s)
		}
		ranges = append(ranges, segmenter.ScriptRange{Lo: rune(loRune), Hi: rune(hiRune)})
	}
	return ranges, nil
}
