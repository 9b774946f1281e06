package segmenter_test

import (
	"fmt"

	"github.com/mudler/LocalSRS/core/schema"
	"github.com/mudler/LocalSRS/core/segmenter"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// wordStream builds a word list where word i spans [i*step, (i+1)*step) and
// carries the given speaker.
func wordStream(texts []string, speaker string, step float64) []schema.Word {
	words := make([]schema.Word, len(texts))
	for i, t := range texts {
		words[i] = schema.Word{
			Text:    t,
			Start:   float64(i) * step,
			End:     float64(i+1) * step,
			Speaker: speaker,
		}
	}
	return words
}

func plainTexts(n int) []string {
	texts := make([]string, n)
	for i := range texts {
		texts[i] = fmt.Sprintf("語%d", i)
	}
	return texts
}

var _ = Describe("Segment", func() {
	var opts segmenter.Options

	BeforeEach(func() {
		opts = segmenter.DefaultOptions()
	})

	Context("with empty input", func() {
		It("returns an empty list", func() {
			Expect(segmenter.Segment(nil, opts)).To(BeEmpty())
			Expect(segmenter.Segment([]schema.Word{}, opts)).To(BeEmpty())
		})
	})

	Context("with a short stream and no split triggers", func() {
		It("emits the whole stream as one trailing sentence", func() {
			words := wordStream([]string{"今日", "は", "晴れ"}, "Speaker A", 0.2)
			sentences := segmenter.Segment(words, opts)
			Expect(sentences).To(HaveLen(1))
			Expect(sentences[0].Words).To(Equal(words))
			Expect(sentences[0].Text()).To(Equal("今日は晴れ"))
		})

		It("emits a trailing fragment even below the minimum length", func() {
			words := wordStream([]string{"はい"}, "", 0.2)
			sentences := segmenter.Segment(words, opts)
			Expect(sentences).To(HaveLen(1))
			Expect(sentences[0].Words).To(HaveLen(1))
		})
	})

	Context("word coverage", func() {
		It("assigns every word to exactly one sentence, in order", func() {
			texts := plainTexts(30)
			texts[9] = "です。"
			texts[19] = "ます。"
			words := wordStream(texts, "Speaker A", 0.1)

			sentences := segmenter.Segment(words, opts)

			var flat []schema.Word
			for _, s := range sentences {
				flat = append(flat, s.Words...)
			}
			Expect(flat).To(Equal(words))
		})

		It("drops short fragments stranded by a speaker change", func() {
			words := append(
				wordStream([]string{"え", "はい"}, "Speaker A", 0.2),
				wordStream([]string{"それ", "では", "始めます"}, "Speaker B", 0.2)...,
			)
			sentences := segmenter.Segment(words, opts)
			Expect(sentences).To(HaveLen(1))
			Expect(sentences[0].Speaker()).To(Equal("Speaker B"))
			Expect(sentences[0].Words).To(HaveLen(3))
		})
	})

	Context("speaker boundaries", func() {
		It("never crosses a speaker change", func() {
			words := append(
				wordStream(plainTexts(6), "Speaker A", 0.1),
				wordStream(plainTexts(7), "Speaker B", 0.1)...,
			)
			sentences := segmenter.Segment(words, opts)
			Expect(len(sentences)).To(BeNumerically(">=", 2))
			for _, s := range sentences {
				for _, w := range s.Words {
					Expect(w.Speaker).To(Equal(s.Speaker()))
				}
			}
		})
	})

	Context("hard limit", func() {
		It("caps every sentence at the hard limit", func() {
			words := wordStream(plainTexts(50), "Speaker A", 0.05)
			sentences := segmenter.Segment(words, opts)
			for _, s := range sentences {
				Expect(len(s.Words)).To(BeNumerically("<=", opts.HardLimit))
			}
		})

		It("cuts unpunctuated streams into hard-limit chunks", func() {
			opts.SoftLimit = 5
			opts.HardLimit = 5
			words := wordStream(plainTexts(12), "Speaker A", 0.05)

			sentences := segmenter.Segment(words, opts)

			Expect(sentences).To(HaveLen(3))
			Expect(sentences[0].Words).To(HaveLen(5))
			Expect(sentences[1].Words).To(HaveLen(5))
			Expect(sentences[2].Words).To(HaveLen(2))
		})
	})

	Context("soft limit", func() {
		It("waits for a natural boundary past the soft limit", func() {
			texts := plainTexts(16)
			texts[12] = "です。"
			words := wordStream(texts, "Speaker A", 0.1)
			opts.SoftLimit = 10
			opts.HardLimit = 20

			sentences := segmenter.Segment(words, opts)

			Expect(len(sentences)).To(BeNumerically(">=", 2))
			Expect(len(sentences[0].Words)).To(BeNumerically(">=", 10))
			Expect(sentences[0].Words).To(HaveLen(13))
		})

		It("splits at the soft limit when the word carries a whitespace boundary", func() {
			texts := plainTexts(14)
			texts[9] = "ね "
			words := wordStream(texts, "Speaker A", 0.1)

			sentences := segmenter.Segment(words, opts)

			Expect(sentences[0].Words).To(HaveLen(10))
		})

		It("honors a custom boundary mark set", func() {
			texts := plainTexts(16)
			texts[9] = "語9・"
			words := wordStream(texts, "Speaker A", 0.1)

			// the interpunct is not a boundary by default
			sentences := segmenter.Segment(words, opts)
			Expect(sentences[0].Words).To(HaveLen(16))

			opts.BoundaryMarks = "・"
			sentences = segmenter.Segment(words, opts)
			Expect(sentences[0].Words).To(HaveLen(10))
		})
	})

	Context("punctuation", func() {
		It("splits on sentence-final punctuation once enough words accumulated", func() {
			texts := plainTexts(10)
			texts[5] = "ました。"
			words := wordStream(texts, "Speaker A", 0.1)

			sentences := segmenter.Segment(words, opts)

			Expect(sentences).To(HaveLen(2))
			Expect(sentences[0].Words).To(HaveLen(6))
		})

		It("ignores sentence-final punctuation in a too-short buffer", func() {
			texts := plainTexts(8)
			texts[2] = "え。"
			words := wordStream(texts, "Speaker A", 0.1)

			sentences := segmenter.Segment(words, opts)

			Expect(sentences).To(HaveLen(1))
			Expect(sentences[0].Words).To(HaveLen(8))
		})

		It("requires more content for a clause mark than for a final mark", func() {
			texts := plainTexts(12)
			texts[6] = "けれど、"
			words := wordStream(texts, "Speaker A", 0.1)

			sentences := segmenter.Segment(words, opts)

			Expect(sentences[0].Words).To(HaveLen(7))

			short := plainTexts(8)
			short[4] = "でも、"
			sentences = segmenter.Segment(wordStream(short, "Speaker A", 0.1), opts)
			Expect(sentences).To(HaveLen(1))
		})
	})

	Context("duration", func() {
		It("bounds the spoken span of a sentence", func() {
			words := wordStream(plainTexts(10), "Speaker A", 1.0)

			sentences := segmenter.Segment(words, opts)

			Expect(sentences).To(HaveLen(2))
			Expect(sentences[0].Words).To(HaveLen(8))
			Expect(sentences[0].Duration()).To(BeNumerically(">=", opts.MaxDuration))
		})

		It("can be disabled", func() {
			opts.MaxDuration = -1
			words := wordStream(plainTexts(10), "Speaker A", 1.0)

			sentences := segmenter.Segment(words, opts)

			Expect(sentences).To(HaveLen(1))
		})
	})

	Context("derived attributes", func() {
		It("exposes the time window and speaker of the run", func() {
			words := wordStream([]string{"この", "映画", "は", "面白い", "です。"}, "Speaker B", 0.5)
			sentences := segmenter.Segment(words, opts)

			Expect(sentences).To(HaveLen(1))
			s := sentences[0]
			Expect(s.Start()).To(Equal(0.0))
			Expect(s.End()).To(Equal(2.5))
			Expect(s.Speaker()).To(Equal("Speaker B"))
			Expect(s.Text()).To(Equal("この映画は面白いです。"))
		})
	})
})

var _ = Describe("FilterValid", func() {
	japanese := func(texts ...string) segmenter.Sentence {
		return segmenter.Sentence{Words: wordStream(texts, "", 0.1)}
	}

	It("drops sentences below the minimum word count", func() {
		in := []segmenter.Sentence{
			japanese("これ", "は", "短い"),
			japanese("はい"),
		}
		out := segmenter.FilterValid(in, 3)
		Expect(out).To(HaveLen(1))
		Expect(out[0].Text()).To(Equal("これは短い"))
	})

	It("drops sentences with no Japanese characters", func() {
		in := []segmenter.Sentence{
			japanese("hello", "there", "friend"),
			japanese("abc", "で", "xyz"),
		}
		out := segmenter.FilterValid(in, 3)
		Expect(out).To(HaveLen(1))
		Expect(out[0].Text()).To(Equal("abcでxyz"))
	})

	It("keeps katakana and kanji content", func() {
		in := []segmenter.Sentence{
			japanese("カタ", "カナ", "です"),
			japanese("漢", "字", "体"),
		}
		Expect(segmenter.FilterValid(in, 3)).To(HaveLen(2))
	})

	It("is idempotent", func() {
		in := []segmenter.Sentence{
			japanese("これ", "は", "有効"),
			japanese("no", "japanese", "here"),
			japanese("短い"),
		}
		once := segmenter.FilterValid(in, 3)
		twice := segmenter.FilterValid(once, 3)
		Expect(twice).To(Equal(once))
	})

	It("preserves order", func() {
		in := []segmenter.Sentence{
			japanese("一", "つ", "目"),
			japanese("二", "つ", "目"),
			japanese("三", "つ", "目"),
		}
		out := segmenter.FilterValid(in, 3)
		Expect(out).To(HaveLen(3))
		Expect(out[0].Text()).To(Equal("一つ目"))
		Expect(out[2].Text()).To(Equal("三つ目"))
	})
})
