package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/mudler/xlog"

	"github.com/mudler/LocalSRS/pkg/media"
)

func removePartialFile(tmpFilePath string) error {
	_, err := os.Stat(tmpFilePath)
	if err == nil {
		xlog.Debug("removing partial file", "file", tmpFilePath)
		if err := os.Remove(tmpFilePath); err != nil {
			return fmt.Errorf("failed to remove partial file %q: %w", tmpFilePath, err)
		}
	}
	return nil
}

func (d *Downloader) fetchHTTP(ctx context.Context, rawURL, destDir string, status ProgressFunc) (*FetchResult, error) {
	name, err := URI(rawURL).FilenameFromURL()
	if err != nil {
		return nil, err
	}
	filePath := filepath.Join(destDir, media.SanitizeName(name))

	xlog.Info("downloading source", "url", rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %q: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("failed to download url %q, invalid status code %d", rawURL, resp.StatusCode)
	}

	// save partial download to dedicated file
	tmpFilePath := filePath + ".partial"
	if err := removePartialFile(tmpFilePath); err != nil {
		return nil, err
	}

	outFile, err := os.Create(tmpFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file %q: %w", tmpFilePath, err)
	}
	defer outFile.Close()

	progress := &progressWriter{
		total:  resp.ContentLength,
		status: status,
		ctx:    ctx,
	}
	if _, err := io.Copy(io.MultiWriter(outFile, progress), resp.Body); err != nil {
		return nil, fmt.Errorf("failed to write file %q: %w", filePath, err)
	}

	if err := os.Rename(tmpFilePath, filePath); err != nil {
		return nil, fmt.Errorf("failed to rename temporary file %s -> %s: %w", tmpFilePath, filePath, err)
	}

	filePath = media.NormalizeExtension(filePath)
	xlog.Info("source downloaded", "file", filePath)
	return &FetchResult{Path: filePath, Kind: kindOf(filePath), Title: titleOf(filePath)}, nil
}
