package media

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/mudler/xlog"
)

func extensionFromFileType(ft tag.FileType) string {
	switch ft {
	case tag.FLAC:
		return "flac"
	case tag.MP3:
		return "mp3"
	case tag.OGG:
		return "ogg"
	case tag.M4A, tag.ALAC:
		return "m4a"
	case tag.M4B:
		return "m4b"
	case tag.M4P:
		return "m4p"
	default:
		return ""
	}
}

// Title reads the embedded title tag of the media file at path, or "" when
// the file carries no readable metadata.
func Title(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(m.Title())
}

// NormalizeExtension renames path so its extension matches the detected
// container format. Downloads often arrive with a generic or missing
// extension; ffmpeg and the transcription backends key off it. Returns the
// path to use from here on.
func NormalizeExtension(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return path
	}
	defer f.Close()

	_, fileType, err := tag.Identify(f)
	if err != nil || fileType == tag.UnknownFileType {
		return path
	}
	ext := extensionFromFileType(fileType)
	if ext == "" {
		return path
	}

	current := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if current == ext {
		return path
	}
	newPath := strings.TrimSuffix(path, filepath.Ext(path)) + "." + ext
	if err := os.Rename(path, newPath); err != nil {
		xlog.Debug("could not rename media file to match type", "from", path, "to", newPath, "error", err)
		return path
	}
	return newPath
}
