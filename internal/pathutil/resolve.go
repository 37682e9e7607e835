package pathutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	cgerrors "github.com/PolarWolf314/confguard/internal/errors"
)

// Canonicalize returns the absolute form of path with every symlink
// resolved. When path does not exist, the longest existing prefix is
// resolved and the remaining segments are appended unchanged.
func Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err == nil {
		return resolved, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}

	parent := filepath.Dir(abs)
	if parent == abs {
		return abs, nil
	}
	canonicalParent, err := Canonicalize(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(canonicalParent, filepath.Base(abs)), nil
}

// IsWithin reports whether path equals dir or lies below it. Both paths
// are compared lexically; callers canonicalize first.
func IsWithin(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil || filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// AssertContained fails with ErrPathEscape unless child's canonical form
// lies inside ancestor's canonical form.
func AssertContained(child, ancestor string) error {
	canonicalChild, err := Canonicalize(child)
	if err != nil {
		return err
	}
	canonicalAncestor, err := Canonicalize(ancestor)
	if err != nil {
		return err
	}

	if !IsWithin(canonicalChild, canonicalAncestor) {
		return fmt.Errorf("%w: %s is not inside %s", cgerrors.ErrPathEscape, child, ancestor)
	}
	return nil
}

// ResolveLinkTarget resolves a raw link value as the kernel would when
// following the link at linkPath. The returned path is lexically cleaned
// even when the target does not exist; in that case the error wraps
// fs.ErrNotExist.
func ResolveLinkTarget(linkPath, raw string) (string, error) {
	candidate := raw
	if !filepath.IsAbs(raw) {
		linkDir, err := Canonicalize(filepath.Dir(linkPath))
		if err != nil {
			return "", err
		}
		candidate = filepath.Join(linkDir, raw)
	}

	resolved, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		return filepath.Clean(candidate), err
	}
	return resolved, nil
}

// ReadLink returns the raw value and the resolved target of the link at
// linkPath. It fails with ErrNotASymlink if linkPath is not a link.
func ReadLink(linkPath string) (raw, resolved string, err error) {
	info, err := os.Lstat(linkPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", "", fmt.Errorf("%w: %s", cgerrors.ErrFileNotFound, linkPath)
		}
		return "", "", cgerrors.IO("lstat", linkPath, err)
	}
	if info.Mode()&fs.ModeSymlink == 0 {
		return "", "", fmt.Errorf("%w: %s", cgerrors.ErrNotASymlink, linkPath)
	}

	raw, err = os.Readlink(linkPath)
	if err != nil {
		return "", "", cgerrors.IO("readlink", linkPath, err)
	}
	resolved, err = ResolveLinkTarget(linkPath, raw)
	return raw, resolved, err
}
