package guard

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	cgerrors "github.com/PolarWolf314/confguard/internal/errors"
	"github.com/PolarWolf314/confguard/internal/pathutil"
)

// GuardOneResult describes the outcome of GuardOne.
type GuardOneResult struct {
	Source      string
	Destination string
	LinkTarget  string

	// AlreadyLinked is set when Source already pointed at Destination.
	AlreadyLinked bool
}

// GuardOne moves filePath into the project's sentinel at the same
// relative path and links it back. The link is always absolute, whatever
// the project's relative setting says.
//
// Containment is checked before anything else; a path outside the
// project fails with ErrPathEscape and nothing is touched.
func (e *Engine) GuardOne(projectDir, filePath string) (*GuardOneResult, error) {
	project, err := pathutil.Canonicalize(projectDir)
	if err != nil {
		return nil, err
	}
	source, err := locate(filePath)
	if err != nil {
		return nil, err
	}
	if !pathutil.IsWithin(source, project) {
		return nil, fmt.Errorf("%w: %s is not inside %s", cgerrors.ErrPathEscape, filePath, projectDir)
	}
	rel, err := filepath.Rel(project, source)
	if err != nil || rel == "." {
		return nil, fmt.Errorf("%w: %s is not a file below %s", cgerrors.ErrPathEscape, filePath, projectDir)
	}

	st, err := Inspect(project)
	if err != nil {
		return nil, err
	}
	switch {
	case st.State == Unguarded:
		return nil, fmt.Errorf("%w: %s", cgerrors.ErrNotYetGuarded, st.ProjectDir)
	case st.State == Broken:
		return nil, st.Reason
	}

	sentinelDir := filepath.Dir(st.Target)
	destination := filepath.Join(sentinelDir, rel)
	result := &GuardOneResult{Source: source, Destination: destination}

	info, err := os.Lstat(source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", cgerrors.ErrFileNotFound, filePath)
		}
		return nil, cgerrors.IO("lstat", source, err)
	}

	if info.Mode()&fs.ModeSymlink != 0 {
		raw, target, err := pathutil.ReadLink(source)
		if err == nil && pathutil.IsWithin(target, sentinelDir) {
			e.log.Infof("%s is already guarded", source)
			result.Destination = target
			result.LinkTarget = raw
			result.AlreadyLinked = true
			return result, nil
		}
		return nil, fmt.Errorf("%w: %s is a link to %s", cgerrors.ErrAlreadyGuardedConflict, source, target)
	}

	if _, err := os.Lstat(destination); err == nil {
		same, err := pathutil.SameContent(source, destination)
		if err != nil {
			return nil, err
		}
		if !same {
			return nil, fmt.Errorf("%w: %s", cgerrors.ErrTargetExists, destination)
		}
		e.log.Debugf("%s already holds identical content", destination)
		if err := os.Remove(source); err != nil {
			return nil, cgerrors.IO("remove", source, err)
		}
	} else if err := pathutil.Move(source, destination); err != nil {
		return nil, err
	}

	target, err := pathutil.CreateLink(destination, source, true)
	if err != nil {
		if moveErr := pathutil.Move(destination, source); moveErr != nil {
			e.log.Errorf("Could not move %s back to %s: %v", destination, source, moveErr)
		}
		return nil, err
	}
	result.LinkTarget = target
	e.log.Debugf("Linked %s -> %s", source, target)
	return result, nil
}

// locate returns the canonical location of path without following its
// final element, so a link is located where it is, not where it points.
func locate(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	parent, err := pathutil.Canonicalize(filepath.Dir(abs))
	if err != nil {
		return "", err
	}
	return filepath.Join(parent, filepath.Base(abs)), nil
}
