// Package project locates Elm project roots on disk.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestName is the file that marks an Elm project root.
const ManifestName = "elm.json"

// FindUp walks up from startDir looking for name.
func FindUp(startDir, name string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// FindElmJSON walks up from startDir to locate elm.json.
func FindElmJSON(startDir string) (path string, ok bool, err error) {
	return FindUp(startDir, ManifestName)
}

// FindProjectRoot returns the directory containing elm.json, if any.
func FindProjectRoot(startDir string) (root string, ok bool, err error) {
	manifestPath, ok, err := FindElmJSON(startDir)
	if err != nil || !ok {
		return "", ok, err
	}
	return filepath.Dir(manifestPath), true, nil
}

// WorkspaceRootFor picks the workspace root for a source file: the nearest
// directory holding elm.json, or the file's own directory when there is none.
func WorkspaceRootFor(file string) (string, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", file, err)
	}
	dir := filepath.Dir(abs)
	root, ok, err := FindProjectRoot(dir)
	if err != nil {
		return "", err
	}
	if !ok {
		return dir, nil
	}
	return root, nil
}
