package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// VerifyPath errors when path, resolved against basePath, escapes it.
// Used on every file name that arrives from outside: uploads, archive
// members, template names.
func VerifyPath(path, basePath string) error {
	base := filepath.Clean(basePath)
	target := filepath.Clean(filepath.Join(base, path))
	rel, err := filepath.Rel(base, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path %q is outside of %q", path, basePath)
	}
	return nil
}

// ExistsInPath reports whether fileName exists inside path.
func ExistsInPath(path string, fileName string) bool {
	_, err := os.Stat(filepath.Join(path, fileName))
	return err == nil
}
