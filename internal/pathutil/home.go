package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const homeVar = "$HOME"

// ToHomeBased rewrites an absolute path below the home directory as
// "$HOME/...". Other paths are returned unchanged.
func ToHomeBased(path string) (string, error) {
	if !filepath.IsAbs(path) {
		return "", fmt.Errorf("path must be absolute: %s", path)
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path, nil
	}
	home = filepath.Clean(home)

	if !IsWithin(path, home) {
		return path, nil
	}
	rel, err := filepath.Rel(home, path)
	if err != nil {
		return path, nil
	}
	if rel == "." {
		return homeVar, nil
	}
	return homeVar + "/" + filepath.ToSlash(rel), nil
}

// FromHomeBased expands a leading "$HOME" written by ToHomeBased.
func FromHomeBased(path string) (string, error) {
	if path != homeVar && !strings.HasPrefix(path, homeVar+"/") {
		return filepath.Clean(path), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expanding %s: %w", path, err)
	}
	rest := strings.TrimPrefix(path, homeVar)
	return filepath.Join(home, filepath.FromSlash(rest)), nil
}
