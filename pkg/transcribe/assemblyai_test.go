package transcribe

import (
	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("AssemblyAI word mapping", func() {
	It("converts timestamps to seconds and expands speaker labels", func() {
		words := wordsFromTranscript([]aai.TranscriptWord{
			{Text: aai.String("今日は"), Start: aai.Int64(0), End: aai.Int64(800), Speaker: aai.String("A")},
			{Text: aai.String("晴れです"), Start: aai.Int64(800), End: aai.Int64(1500), Speaker: aai.String("B")},
		})

		Expect(words).To(HaveLen(2))
		Expect(words[0].Text).To(Equal("今日は"))
		Expect(words[0].Start).To(Equal(0.0))
		Expect(words[0].End).To(Equal(0.8))
		Expect(words[0].Speaker).To(Equal("Speaker A"))
		Expect(words[1].Speaker).To(Equal("Speaker B"))
	})

	It("leaves the speaker empty when diarization returned none", func() {
		words := wordsFromTranscript([]aai.TranscriptWord{
			{Text: aai.String("今日は"), Start: aai.Int64(0), End: aai.Int64(800)},
		})

		Expect(words).To(HaveLen(1))
		Expect(words[0].Speaker).To(Equal(""))
	})

	It("maps an empty response to an empty word list", func() {
		Expect(wordsFromTranscript(nil)).To(BeEmpty())
	})
})
