package downloader

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mudler/xlog"

	"github.com/mudler/LocalSRS/pkg/media"
)

func (d *Downloader) ytdlpBinary() string {
	if d.YTDLP != "" {
		return d.YTDLP
	}
	return "yt-dlp"
}

func (d *Downloader) ytdlpCommand(ctx context.Context, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, d.ytdlpBinary(), args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// StreamTitle asks yt-dlp for the title of the stream at rawURL.
func (d *Downloader) StreamTitle(ctx context.Context, rawURL string) (string, error) {
	out, err := d.ytdlpCommand(ctx, []string{"--get-title", "--no-warnings", "--no-playlist", rawURL})
	if err != nil {
		return "", fmt.Errorf("error fetching stream title: %w out: %s", err, out)
	}
	title := strings.TrimSpace(out)
	if title == "" {
		return "", fmt.Errorf("empty stream title for %q", rawURL)
	}
	return title, nil
}

// fetchStream pulls the best audio track of a streaming site URL. Frames for
// these sources come from the storyboard, so only audio is downloaded.
func (d *Downloader) fetchStream(ctx context.Context, rawURL, destDir string) (*FetchResult, error) {
	title, err := d.StreamTitle(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	sanitized := media.SanitizeName(title)

	xlog.Info("downloading stream audio", "url", rawURL, "title", sanitized)

	template := filepath.Join(destDir, sanitized+".%(ext)s")
	args := []string{"--format", "ba[ext=m4a]/ba", "--no-playlist", "--no-warnings", "-o", template, rawURL}
	if out, err := d.ytdlpCommand(ctx, args); err != nil {
		return nil, fmt.Errorf("error downloading stream audio: %w out: %s", err, out)
	}

	matches, err := filepath.Glob(filepath.Join(destDir, sanitized+".*"))
	if err != nil {
		return nil, err
	}
	var audioPath string
	for _, m := range matches {
		if strings.HasSuffix(m, ".part") || strings.HasSuffix(m, ".ytdl") {
			continue
		}
		audioPath = m
		break
	}
	if audioPath == "" {
		return nil, fmt.Errorf("yt-dlp reported success but no audio file found for %q", sanitized)
	}

	audioPath = media.NormalizeExtension(audioPath)
	return &FetchResult{Path: audioPath, Kind: SourceAudio, Title: sanitized, StreamURL: rawURL}, nil
}
