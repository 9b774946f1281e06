package media

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/mudler/xlog"
)

// ClipPadding is added around clip boundaries so playback does not start or
// stop mid-phoneme. Start times are clamped at zero.
const ClipPadding = 0.25

// FrameResolution is the default size of extracted stills.
const FrameResolution = "640x360"

func ffmpegCommand(ctx context.Context, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...) // Constrain this to ffmpeg to permit security scanner to see that the command is safe.
	cmd.Env = []string{}
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func ffprobeCommand(ctx context.Context, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, "ffprobe", args...)
	cmd.Env = []string{}
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// ExtractAudio demuxes the full audio track of videoPath into an MP3 at
// audioPath (44.1 kHz stereo, 128 kbps).
func ExtractAudio(ctx context.Context, videoPath, audioPath string) error {
	args := []string{"-i", videoPath, "-vn", "-ar", "44100", "-ac", "2", "-b:a", "128k", audioPath, "-y"}
	out, err := ffmpegCommand(ctx, args)
	if err != nil {
		return fmt.Errorf("error extracting audio: %w out: %s", err, out)
	}
	return nil
}

// ExtractClip cuts [start, end] seconds out of audioPath into clipPath,
// padded by padding seconds on both sides (0 selects ClipPadding). It tries
// a stream copy first and falls back to re-encoding when the copy fails on
// a non-seekable frame.
func ExtractClip(ctx context.Context, audioPath, clipPath string, start, end, padding float64) error {
	if padding == 0 {
		padding = ClipPadding
	}
	paddedStart := start - padding
	if paddedStart < 0 {
		paddedStart = 0
	}
	duration := end + padding - paddedStart

	args := []string{"-ss", formatSeconds(paddedStart), "-i", audioPath, "-t", formatSeconds(duration), "-c", "copy", clipPath, "-y"}
	out, err := ffmpegCommand(ctx, args)
	if err == nil {
		return nil
	}
	xlog.Debug("clip stream copy failed, re-encoding", "clip", clipPath, "error", err)

	args = []string{"-ss", formatSeconds(paddedStart), "-i", audioPath, "-t", formatSeconds(duration), "-acodec", "libmp3lame", clipPath, "-y"}
	out, err = ffmpegCommand(ctx, args)
	if err != nil {
		return fmt.Errorf("error extracting clip: %w out: %s", err, out)
	}
	return nil
}

// ExtractFrame grabs the still at timestamp seconds of videoPath into a
// JPEG at framePath, scaled to resolution ("" selects FrameResolution).
func ExtractFrame(ctx context.Context, videoPath string, timestamp float64, framePath, resolution string) error {
	if resolution == "" {
		resolution = FrameResolution
	}
	args := []string{"-ss", formatSeconds(timestamp), "-i", videoPath, "-frames:v", "1", "-q:v", "2", "-s", resolution, framePath, "-y"}
	out, err := ffmpegCommand(ctx, args)
	if err != nil {
		return fmt.Errorf("error extracting frame: %w out: %s", err, out)
	}
	return nil
}

// ToWav16k converts src to a 16 kHz mono 16-bit PCM WAV at dst, the input
// format voice activity detection expects.
func ToWav16k(ctx context.Context, src, dst string) error {
	args := []string{"-i", src, "-ar", "16000", "-ac", "1", "-acodec", "pcm_s16le", dst, "-y"}
	out, err := ffmpegCommand(ctx, args)
	if err != nil {
		return fmt.Errorf("error converting to wav: %w out: %s", err, out)
	}
	return nil
}

// Duration probes the container duration of path in seconds.
func Duration(ctx context.Context, path string) (float64, error) {
	args := []string{"-v", "error", "-show_entries", "format=duration", "-of", "csv=p=0", path}
	out, err := ffprobeCommand(ctx, args)
	if err != nil {
		return 0, fmt.Errorf("error probing duration: %w out: %s", err, out)
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, fmt.Errorf("error parsing probed duration %q: %w", strings.TrimSpace(out), err)
	}
	return d, nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}
