package segmenter

import (
	"strings"
	"unicode"

	"github.com/mudler/LocalSRS/core/schema"
)

// Sentence is a contiguous run of words grouped into one flashcard-sized
// unit. It is a value object: build it once, read it downstream.
type Sentence struct {
	Words []schema.Word
}

// Text concatenates the word texts with no separators. The target languages
// are written without inter-word spacing.
func (s Sentence) Text() string {
	var b strings.Builder
	for _, w := range s.Words {
		b.WriteString(w.Text)
	}
	return b.String()
}

func (s Sentence) Start() float64 {
	if len(s.Words) == 0 {
		return 0
	}
	return s.Words[0].Start
}

func (s Sentence) End() float64 {
	if len(s.Words) == 0 {
		return 0
	}
	return s.Words[len(s.Words)-1].End
}

func (s Sentence) Duration() float64 {
	return s.End() - s.Start()
}

// Speaker returns the speaker of the first word. The segmentation policy
// never lets a sentence cross a speaker boundary, so it holds for all words.
func (s Sentence) Speaker() string {
	if len(s.Words) == 0 {
		return ""
	}
	return s.Words[0].Speaker
}

// Options bound the segmentation pass. The zero value of any field selects
// its default; MaxDuration < 0 disables the duration condition.
type Options struct {
	// SoftLimit is the preferred maximum word count, overridable in favor of
	// a nearby natural boundary.
	SoftLimit int
	// HardLimit is the absolute maximum word count, enforced even mid-clause.
	HardLimit int
	// MinLength is the minimum word count for a sentence to be emitted.
	// Shorter fragments are dropped, except the final trailing one.
	MinLength int
	// FinalMinLength gates splits on sentence-final punctuation.
	FinalMinLength int
	// ClauseMinLength gates splits on clause punctuation. The clause mark is
	// a weaker signal, so it needs more accumulated content.
	ClauseMinLength int
	// MaxDuration caps the spoken span of a sentence in seconds.
	MaxDuration float64
	// FinalPunct and ClausePunct hold the characters treated as
	// sentence-final and clause-separator marks.
	FinalPunct  string
	ClausePunct string
	// BoundaryMarks holds the characters that, together with whitespace,
	// count as a natural boundary for the soft-limit condition. Empty
	// means FinalPunct plus ClausePunct.
	BoundaryMarks string
}

const (
	DefaultSoftLimit       = 10
	DefaultHardLimit       = 20
	DefaultMinLength       = 3
	DefaultFinalMinLength  = 5
	DefaultClauseMinLength = 7
	DefaultMaxDuration     = 8.0
	DefaultFinalPunct      = "。！？"
	DefaultClausePunct     = "、"
)

func DefaultOptions() Options {
	return Options{
		SoftLimit:       DefaultSoftLimit,
		HardLimit:       DefaultHardLimit,
		MinLength:       DefaultMinLength,
		FinalMinLength:  DefaultFinalMinLength,
		ClauseMinLength: DefaultClauseMinLength,
		MaxDuration:     DefaultMaxDuration,
		FinalPunct:      DefaultFinalPunct,
		ClausePunct:     DefaultClausePunct,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.SoftLimit <= 0 {
		o.SoftLimit = d.SoftLimit
	}
	if o.HardLimit <= 0 {
		o.HardLimit = d.HardLimit
	}
	if o.HardLimit < o.SoftLimit {
		o.HardLimit = o.SoftLimit
	}
	if o.MinLength <= 0 {
		o.MinLength = d.MinLength
	}
	if o.FinalMinLength <= 0 {
		o.FinalMinLength = d.FinalMinLength
	}
	if o.ClauseMinLength <= 0 {
		o.ClauseMinLength = d.ClauseMinLength
	}
	if o.MaxDuration == 0 {
		o.MaxDuration = d.MaxDuration
	}
	if o.FinalPunct == "" {
		o.FinalPunct = d.FinalPunct
	}
	if o.ClausePunct == "" {
		o.ClausePunct = d.ClausePunct
	}
	if o.BoundaryMarks == "" {
		o.BoundaryMarks = o.FinalPunct + o.ClausePunct
	}
	return o
}

// Segment groups an ordered word stream into sentences in a single greedy
// left-to-right pass with a lookahead of one word. Each word is appended to
// the current buffer, then the split conditions are checked in precedence
// order, first match wins:
//
//  1. end of stream
//  2. speaker change between the current and the next word
//  3. spoken span at or over MaxDuration, given at least MinLength words
//  4. buffer at or over HardLimit
//  5. sentence-final punctuation in the current word, buffer at or over
//     FinalMinLength
//  6. clause punctuation in the current word, buffer at or over
//     ClauseMinLength
//  7. buffer at or over SoftLimit and the current word carries a
//     boundary mark or whitespace
//
// A split emits the buffer when it holds at least MinLength words. The final
// trailing buffer is emitted regardless, so no trailing content is lost;
// short fragments anywhere else are dropped as noise.
//
// The pass never fails: an empty input yields an empty result. Callers own
// the ordering contract (monotonic, non-overlapping words).
func Segment(words []schema.Word, opts Options) []Sentence {
	if len(words) == 0 {
		return nil
	}
	o := opts.withDefaults()

	var sentences []Sentence
	var buf []schema.Word

	for i, w := range words {
		buf = append(buf, w)

		last := i == len(words)-1
		split := false
		switch {
		case last:
			split = true
		case w.Speaker != words[i+1].Speaker:
			split = true
		case o.MaxDuration > 0 && w.End-buf[0].Start >= o.MaxDuration && len(buf) >= o.MinLength:
			split = true
		case len(buf) >= o.HardLimit:
			split = true
		case containsAny(w.Text, o.FinalPunct) && len(buf) >= o.FinalMinLength:
			split = true
		case containsAny(w.Text, o.ClausePunct) && len(buf) >= o.ClauseMinLength:
			split = true
		case len(buf) >= o.SoftLimit && hasBoundary(w.Text, o.BoundaryMarks):
			split = true
		}

		if !split {
			continue
		}
		if len(buf) >= o.MinLength || last {
			sentences = append(sentences, Sentence{Words: buf})
		}
		buf = nil
	}

	return sentences
}

// ScriptRange is an inclusive Unicode code point interval.
type ScriptRange struct {
	Lo, Hi rune
}

// JapaneseScript covers hiragana, katakana and the common kanji block.
var JapaneseScript = []ScriptRange{
	{Lo: 0x3040, Hi: 0x309F},
	{Lo: 0x30A0, Hi: 0x30FF},
	{Lo: 0x4E00, Hi: 0x9FAF},
}

// FilterValid drops sentences shorter than minLength words and sentences
// whose text carries no Japanese character. It is a pure predicate filter:
// order-preserving, idempotent, no mutation.
func FilterValid(sentences []Sentence, minLength int) []Sentence {
	return FilterValidScript(sentences, minLength, JapaneseScript)
}

// FilterValidScript is FilterValid against a caller-supplied script. This is
// a content-presence check, not language detection: one in-range rune keeps
// the sentence.
func FilterValidScript(sentences []Sentence, minLength int, script []ScriptRange) []Sentence {
	var out []Sentence
	for _, s := range sentences {
		if len(s.Words) < minLength {
			continue
		}
		if !containsScript(s.Text(), script) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func containsScript(text string, script []ScriptRange) bool {
	for _, r := range text {
		for _, sr := range script {
			if r >= sr.Lo && r <= sr.Hi {
				return true
			}
		}
	}
	return false
}

func containsAny(text, chars string) bool {
	return strings.ContainsAny(text, chars)
}

// hasBoundary reports whether the word carries a natural break: any of the
// configured punctuation marks or a whitespace rune.
func hasBoundary(text, punct string) bool {
	if strings.ContainsAny(text, punct) {
		return true
	}
	return strings.ContainsFunc(text, unicode.IsSpace)
}
