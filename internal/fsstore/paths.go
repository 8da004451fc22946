package fsstore

import (
	"path/filepath"
	"strings"
)

func normalizePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", ErrInvalidPath
	}
	return filepath.Clean(path), nil
}
