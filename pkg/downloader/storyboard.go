package downloader

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mudler/xlog"
)

// Storyboard holds the preview thumbnail grids of a streaming source.
// Audio-only stream fetches use it to produce card stills without ever
// downloading the video track.
type Storyboard struct {
	fps         float64
	rows, cols  int
	thumbWidth  int
	thumbHeight int
	grids       []image.Image
}

type streamFormat struct {
	FormatID string  `json:"format_id"`
	FPS      float64 `json:"fps"`
	Rows     int     `json:"rows"`
	Columns  int     `json:"columns"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
}

type streamMetadata struct {
	Formats []streamFormat `json:"formats"`
}

// Grid fragments arrive as an MHTML document with inline base64 JPEG parts.
var storyboardPartPattern = regexp.MustCompile(
	`Content-Type: image/jpeg\s+Content-Transfer-Encoding: base64\s+Content-Location: \S+\s+([A-Za-z0-9+/=\s]+)`)

// FetchStoryboard downloads the sb0 storyboard of rawURL into destDir and
// decodes its thumbnail grids.
func (d *Downloader) FetchStoryboard(ctx context.Context, rawURL, destDir string) (*Storyboard, error) {
	if err := os.MkdirAll(destDir, 0750); err != nil {
		return nil, err
	}

	// Metadata comes as JSON on stdout, keep stderr out of it.
	cmd := exec.CommandContext(ctx, d.ytdlpBinary(), "-j", "--no-warnings", rawURL)
	metaOut, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("error fetching stream metadata: %w", err)
	}
	var meta streamMetadata
	if err := json.Unmarshal(metaOut, &meta); err != nil {
		return nil, fmt.Errorf("error parsing stream metadata: %w", err)
	}

	var format *streamFormat
	for i := range meta.Formats {
		if meta.Formats[i].FormatID == "sb0" {
			format = &meta.Formats[i]
			break
		}
	}
	if format == nil {
		return nil, fmt.Errorf("no storyboard format available for %q", rawURL)
	}
	if format.FPS <= 0 || format.Rows <= 0 || format.Columns <= 0 || format.Width <= 0 || format.Height <= 0 {
		return nil, fmt.Errorf("storyboard metadata incomplete for %q", rawURL)
	}

	sbPath := filepath.Join(destDir, "storyboard.mhtml")
	if out, err := d.ytdlpCommand(ctx, []string{"-f", "sb0", "--no-warnings", "-o", sbPath, rawURL}); err != nil {
		return nil, fmt.Errorf("error downloading storyboard: %w out: %s", err, out)
	}

	content, err := os.ReadFile(sbPath)
	if err != nil {
		return nil, err
	}
	sb, err := NewStoryboardFromMHTML(string(content), format.FPS, format.Rows, format.Columns, format.Width, format.Height)
	if err != nil {
		return nil, err
	}

	xlog.Debug("storyboard ready", "url", rawURL, "grids", len(sb.grids), "fps", format.FPS)
	return sb, nil
}

// NewStoryboardFromMHTML decodes an already-downloaded storyboard document.
func NewStoryboardFromMHTML(content string, fps float64, rows, cols, thumbWidth, thumbHeight int) (*Storyboard, error) {
	grids, err := decodeStoryboardGrids(content)
	if err != nil {
		return nil, err
	}
	return &Storyboard{
		fps:         fps,
		rows:        rows,
		cols:        cols,
		thumbWidth:  thumbWidth,
		thumbHeight: thumbHeight,
		grids:       grids,
	}, nil
}

func decodeStoryboardGrids(content string) ([]image.Image, error) {
	matches := storyboardPartPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("no images found in storyboard")
	}

	var grids []image.Image
	for _, m := range matches {
		raw := strings.NewReplacer("\n", "", "\r", "", " ", "").Replace(m[1])
		data, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("error decoding storyboard part: %w", err)
		}
		grid, err := jpeg.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("error decoding storyboard grid: %w", err)
		}
		grids = append(grids, grid)
	}
	return grids, nil
}

// ThumbnailAt returns the storyboard thumbnail nearest to timestamp seconds.
// Timestamps past the end clamp to the last thumbnail.
func (sb *Storyboard) ThumbnailAt(timestamp float64) (image.Image, error) {
	interval := 1.0 / sb.fps
	thumbIndex := int(math.Round(timestamp / interval))

	perGrid := sb.rows * sb.cols
	gridIndex := thumbIndex / perGrid
	position := thumbIndex % perGrid
	if gridIndex >= len(sb.grids) {
		gridIndex = len(sb.grids) - 1
		position = perGrid - 1
	}

	row := position / sb.cols
	col := position % sb.cols
	rect := image.Rect(col*sb.thumbWidth, row*sb.thumbHeight, (col+1)*sb.thumbWidth, (row+1)*sb.thumbHeight)

	grid := sb.grids[gridIndex]
	sub, ok := grid.(interface {
		SubImage(image.Rectangle) image.Image
	})
	if !ok {
		return nil, fmt.Errorf("storyboard grid image does not support cropping")
	}
	return sub.SubImage(rect.Intersect(grid.Bounds())), nil
}

// SaveThumbnailAt writes the thumbnail nearest to timestamp as a JPEG.
func (sb *Storyboard) SaveThumbnailAt(timestamp float64, outputPath string) error {
	thumb, err := sb.ThumbnailAt(timestamp)
	if err != nil {
		return err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return jpeg.Encode(f, thumb, &jpeg.Options{Quality: 85})
}
