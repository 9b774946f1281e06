package downloader

import (
	"context"
	"fmt"
)

type progressWriter struct {
	total   int64
	written int64
	status  ProgressFunc
	ctx     context.Context
}

func (pw *progressWriter) Write(p []byte) (n int, err error) {
	if pw.ctx != nil {
		select {
		case <-pw.ctx.Done():
			return 0, pw.ctx.Err()
		default:
		}
	}

	n = len(p)
	pw.written += int64(n)
	if pw.status != nil {
		pw.status(pw.written, pw.total)
	}
	return n, nil
}

// FormatBytes renders a byte count human-readably for progress lines.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
