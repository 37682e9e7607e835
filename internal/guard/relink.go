package guard

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	cgerrors "github.com/PolarWolf314/confguard/internal/errors"
	"github.com/PolarWolf314/confguard/internal/pathutil"
	"github.com/PolarWolf314/confguard/internal/sentinel"
)

// RelinkResult describes the outcome of Relink.
type RelinkResult struct {
	SourceDir  string
	Link       string
	LinkTarget string
	Absolute   bool
}

// Relink recreates the entry link of the project recorded in the guard
// section of relocatedFile, pointing at relocatedFile. Whatever file or
// link is at the entry path is replaced.
func (e *Engine) Relink(relocatedFile string) (*RelinkResult, error) {
	sec, err := sentinel.ReadSection(relocatedFile)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(sec.SourceDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: source directory %s", cgerrors.ErrFileNotFound, sec.SourceDir)
		}
		return nil, cgerrors.IO("stat", sec.SourceDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", cgerrors.ErrCorruptGuardSection, sec.SourceDir)
	}

	link := filepath.Join(sec.SourceDir, sentinel.EntryFile)
	target, err := pathutil.CreateLink(relocatedFile, link, !sec.Relative)
	if err != nil {
		return nil, err
	}
	e.log.Debugf("Linked %s -> %s", link, target)
	return &RelinkResult{SourceDir: sec.SourceDir, Link: link, LinkTarget: target, Absolute: !sec.Relative}, nil
}

// ReplaceLink moves the target of the link at linkPath to linkPath,
// replacing the link. It fails with ErrNotASymlink, leaving everything as
// it was, when linkPath is not a link.
func (e *Engine) ReplaceLink(linkPath string) (string, error) {
	raw, target, err := pathutil.ReadLink(linkPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s points at missing %s", cgerrors.ErrFileNotFound, linkPath, target)
		}
		return "", err
	}

	if err := os.Remove(linkPath); err != nil {
		return "", cgerrors.IO("remove", linkPath, err)
	}
	if err := pathutil.Move(target, linkPath); err != nil {
		if restoreErr := os.Symlink(raw, linkPath); restoreErr != nil {
			e.log.Errorf("Could not restore link %s: %v", linkPath, restoreErr)
		}
		return "", err
	}
	e.log.Debugf("Moved %s to %s", target, linkPath)
	return target, nil
}
