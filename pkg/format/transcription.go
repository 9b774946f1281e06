package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/mudler/LocalSRS/core/schema"
	"github.com/mudler/LocalSRS/core/segmenter"
)

// Transcript renders sentences in the requested subtitle or text format.
func Transcript(sentences []segmenter.Sentence, resFmt schema.TranscriptFormat) string {
	var out string
	if resFmt == schema.TranscriptFormatLrc {
		out = "[by:LocalSRS]\n[re:LocalSRS]\n"
	} else if resFmt == schema.TranscriptFormatVtt {
		out = "WEBVTT"
	}

	for i, s := range sentences {
		start := secondsToDuration(s.Start())
		end := secondsToDuration(s.End())
		text := strings.TrimSpace(s.Text())

		switch resFmt {
		case schema.TranscriptFormatLrc:
			m := start.Milliseconds()
			out += fmt.Sprintf("\n[%02d:%02d:%02d] %s", m/60000, (m/1000)%60, (m%1000)/10, text)
		case schema.TranscriptFormatSrt:
			out += fmt.Sprintf("\n\n%d\n%s --> %s\n%s", i+1, durationStr(start, ','), durationStr(end, ','), text)
		case schema.TranscriptFormatVtt:
			out += fmt.Sprintf("\n\n%s --> %s\n%s\n", durationStr(start, '.'), durationStr(end, '.'), text)
		case schema.TranscriptFormatText:
			fallthrough
		default:
			out += fmt.Sprintf("\n%s", text)
		}
	}

	return out
}

// ContentType returns the MIME type a rendered transcript should be served
// with.
func ContentType(resFmt schema.TranscriptFormat) string {
	switch resFmt {
	case schema.TranscriptFormatSrt:
		return "application/x-subrip"
	case schema.TranscriptFormatVtt:
		return "text/vtt"
	default:
		return "text/plain; charset=utf-8"
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func durationStr(d time.Duration, millisSeparator rune) string {
	m := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", m/3600000, (m/60000)%60, int(d.Seconds())%60, millisSeparator, m%1000)
}
