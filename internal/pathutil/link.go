package pathutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	cgerrors "github.com/PolarWolf314/confguard/internal/errors"
)

// ComputeLinkTarget returns the value a link at linkLocation must hold to
// point at realTarget. With absolute set the canonical target is returned,
// otherwise the shortest relative path from the link's canonical parent.
// The result is verified by resolving it from linkLocation.
func ComputeLinkTarget(linkLocation, realTarget string, absolute bool) (string, error) {
	target, err := canonicalTarget(realTarget)
	if err != nil {
		return "", err
	}

	candidate := target
	if !absolute {
		linkDir, err := Canonicalize(filepath.Dir(linkLocation))
		if err != nil {
			return "", err
		}
		candidate, err = filepath.Rel(linkDir, target)
		if err != nil {
			return "", fmt.Errorf("%w: %v", cgerrors.ErrLinkTargetMismatch, err)
		}
	}

	if err := verifyLinkTarget(linkLocation, candidate, target); err != nil {
		return "", err
	}
	return candidate, nil
}

func canonicalTarget(realTarget string) (string, error) {
	abs, err := filepath.Abs(realTarget)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", realTarget, err)
	}
	target, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: link target %s", cgerrors.ErrFileNotFound, realTarget)
		}
		return "", cgerrors.IO("resolve", realTarget, err)
	}
	return target, nil
}

func verifyLinkTarget(linkLocation, candidate, want string) error {
	got, err := ResolveLinkTarget(linkLocation, candidate)
	if err != nil || got != want {
		return fmt.Errorf("%w: %s via %q resolves to %s, want %s",
			cgerrors.ErrLinkTargetMismatch, linkLocation, candidate, got, want)
	}
	return nil
}

// CreateLink makes linkPath a symlink to realTarget, replacing any file or
// link already there. Directories are never replaced. The returned string
// is the value written into the link.
func CreateLink(realTarget, linkPath string, absolute bool) (string, error) {
	if err := os.MkdirAll(filepath.Dir(linkPath), 0755); err != nil {
		return "", cgerrors.IO("mkdir", filepath.Dir(linkPath), err)
	}

	target, err := ComputeLinkTarget(linkPath, realTarget, absolute)
	if err != nil {
		return "", err
	}

	if info, err := os.Lstat(linkPath); err == nil && info.IsDir() {
		return "", cgerrors.IO("link", linkPath, fmt.Errorf("refusing to replace a directory"))
	}

	tmp := filepath.Join(filepath.Dir(linkPath), "."+filepath.Base(linkPath)+".confguard-"+uuid.NewString()[:8])
	if err := os.Symlink(target, tmp); err != nil {
		return "", cgerrors.IO("symlink", tmp, err)
	}
	if err := os.Rename(tmp, linkPath); err != nil {
		_ = os.Remove(tmp)
		return "", cgerrors.IO("rename", linkPath, err)
	}

	if _, err := os.Stat(linkPath); err != nil {
		return "", fmt.Errorf("%w: %s does not resolve after creation: %v",
			cgerrors.ErrLinkTargetMismatch, linkPath, err)
	}
	return target, nil
}

// IsSymlink reports whether path exists and is a symbolic link.
func IsSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&fs.ModeSymlink != 0
}
