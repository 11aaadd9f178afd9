package diagfmt

import (
	"path/filepath"
	"strings"

	"elmdiag/internal/diag"
)

// displayPath renders a group URI according to mode.
func displayPath(uri string, mode PathMode, baseDir string) string {
	path := diag.URIToPath(uri)
	if path == "" {
		return uri
	}
	switch mode {
	case PathModeAbsolute:
		return path
	case PathModeBasename:
		return filepath.Base(path)
	case PathModeRelative:
		if rel, ok := relativeTo(path, baseDir); ok {
			return rel
		}
		return path
	default:
		if rel, ok := relativeTo(path, baseDir); ok && !strings.HasPrefix(rel, "..") {
			return rel
		}
		return path
	}
}

func relativeTo(path, baseDir string) (string, bool) {
	if baseDir == "" {
		return "", false
	}
	rel, err := filepath.Rel(baseDir, path)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
