package media

import (
	"path/filepath"
	"strings"
)

// SanitizeName makes name safe to use as a file or deck name by replacing
// characters that are reserved on common filesystems.
func SanitizeName(name string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return '_'
		}
		return r
	}, name)
	return strings.TrimSpace(sanitized)
}

// StripExt returns the base name of path without its extension.
func StripExt(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// IsAudio reports whether path names an audio-only container. Anything else
// is treated as video.
func IsAudio(path string) bool {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "mp3", "m4a", "m4b", "wav", "ogg", "flac", "aac", "opus":
		return true
	}
	return false
}

// IsVideo reports whether path names a known video container. Used to pick
// the processable files out of extracted archives and directories.
func IsVideo(path string) bool {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "mp4", "mkv", "webm", "avi", "mov", "ts", "m4v", "flv", "wmv", "mpg", "mpeg":
		return true
	}
	return false
}

// IsMedia reports whether path is a processable source, audio or video.
func IsMedia(path string) bool {
	return IsAudio(path) || IsVideo(path)
}
