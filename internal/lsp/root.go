package lsp

import (
	"os"
	"path/filepath"

	"elmdiag/internal/project"
)

// checkRootFor picks the directory elm make runs in for path: the nearest
// elm.json above the file, then the client's workspace root, then the
// file's own directory.
func checkRootFor(workspaceRoot, path string) string {
	if start := resolveStartDir(path); start != "" {
		if found, ok, err := project.FindProjectRoot(start); err == nil && ok {
			return found
		}
	}
	if workspaceRoot != "" {
		return workspaceRoot
	}
	return resolveStartDir(path)
}

func resolveStartDir(path string) string {
	if path == "" {
		return ""
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return path
	}
	return filepath.Dir(path)
}
