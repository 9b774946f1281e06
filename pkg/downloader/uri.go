package downloader

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/mudler/xlog"
	"github.com/otiai10/copy"

	"github.com/mudler/LocalSRS/pkg/media"
)

const (
	HTTPPrefix  = "http://"
	HTTPSPrefix = "https://"
	S3Prefix    = "s3://"
	LocalPrefix = "file://"
)

type URI string

func (u URI) LooksLikeURL() bool {
	return strings.HasPrefix(string(u), HTTPPrefix) || strings.HasPrefix(string(u), HTTPSPrefix)
}

func (u URI) LooksLikeS3() bool {
	return strings.HasPrefix(string(u), S3Prefix)
}

func (u URI) LooksLikeLocal() bool {
	return strings.HasPrefix(string(u), LocalPrefix) || !strings.Contains(string(u), "://")
}

// LooksLikeStream reports whether the URI points at a streaming site we
// fetch through yt-dlp rather than plain HTTP.
func (u URI) LooksLikeStream() bool {
	if !u.LooksLikeURL() {
		return false
	}
	parsed, err := url.Parse(string(u))
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(parsed.Hostname(), "www.")
	return host == "youtube.com" || host == "youtu.be" || strings.HasSuffix(host, ".youtube.com")
}

// FilenameFromURL extracts the last path element of the URL, without query.
func (u URI) FilenameFromURL() (string, error) {
	parsed, err := url.Parse(string(u))
	if err != nil {
		return "", fmt.Errorf("error parsing url %q: %w", string(u), err)
	}
	name := path.Base(parsed.Path)
	if name == "/" || name == "." || name == "" {
		return "", fmt.Errorf("no filename in url %q", string(u))
	}
	return name, nil
}

// SourceKind tells the pipeline what it can extract from a fetched source.
type SourceKind string

const (
	// SourceVideo carries a video track frames can be grabbed from.
	SourceVideo SourceKind = "video"
	// SourceAudio is audio-only; stills must come from a storyboard, if any.
	SourceAudio SourceKind = "audio"
)

// FetchResult describes a source landed in the session's source directory.
type FetchResult struct {
	Path  string
	Kind  SourceKind
	Title string
	// StreamURL is set when the source came from a streaming site, so
	// storyboard stills can be fetched for it later.
	StreamURL string
}

// ProgressFunc receives byte progress while a fetch is running. total is -1
// when the size is not known up front.
type ProgressFunc func(written, total int64)

// S3Options configures s3:// fetches. Zero value uses the ambient AWS
// credential chain.
type S3Options struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Anonymous bool
}

// Downloader fetches sources of any supported scheme into a directory.
type Downloader struct {
	S3 S3Options
	// YTDLP is the yt-dlp binary to invoke, defaulting to "yt-dlp" on PATH.
	YTDLP string
	// AllowLocal permits file:// and bare path sources. Servers keep this
	// off unless explicitly enabled; the CLI turns it on.
	AllowLocal bool
}

func kindOf(p string) SourceKind {
	if media.IsAudio(p) {
		return SourceAudio
	}
	return SourceVideo
}

func titleOf(p string) string {
	if t := media.Title(p); t != "" {
		return media.SanitizeName(t)
	}
	return media.SanitizeName(media.StripExt(p))
}

// Fetch lands the source uri in destDir and reports what arrived. Streaming
// sites go through yt-dlp, s3:// through the AWS SDK, http(s) through plain
// HTTP and local paths are copied in.
func (d *Downloader) Fetch(ctx context.Context, uri URI, destDir string, status ProgressFunc) (*FetchResult, error) {
	if err := os.MkdirAll(destDir, 0750); err != nil {
		return nil, err
	}

	switch {
	case uri.LooksLikeStream():
		return d.fetchStream(ctx, string(uri), destDir)
	case uri.LooksLikeS3():
		return d.fetchS3(ctx, string(uri), destDir, status)
	case uri.LooksLikeURL():
		return d.fetchHTTP(ctx, string(uri), destDir, status)
	case uri.LooksLikeLocal():
		if !d.AllowLocal {
			return nil, fmt.Errorf("local source %q not allowed", string(uri))
		}
		return d.fetchLocal(string(uri), destDir)
	default:
		return nil, fmt.Errorf("unsupported source scheme in %q", string(uri))
	}
}

func (d *Downloader) fetchLocal(rawURI, destDir string) (*FetchResult, error) {
	src := strings.TrimPrefix(rawURI, LocalPrefix)
	resolved, err := filepath.EvalSymlinks(src)
	if err != nil {
		return nil, fmt.Errorf("error resolving local source %q: %w", src, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("local source %q is a directory", src)
	}

	dst := filepath.Join(destDir, filepath.Base(resolved))
	if err := copy.Copy(resolved, dst); err != nil {
		return nil, fmt.Errorf("error copying local source %q: %w", src, err)
	}
	dst = media.NormalizeExtension(dst)
	xlog.Debug("local source copied", "from", resolved, "to", dst)
	return &FetchResult{Path: dst, Kind: kindOf(dst), Title: titleOf(dst)}, nil
}
