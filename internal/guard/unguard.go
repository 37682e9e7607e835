package guard

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	cgerrors "github.com/PolarWolf314/confguard/internal/errors"
	"github.com/PolarWolf314/confguard/internal/pathutil"
	"github.com/PolarWolf314/confguard/internal/section"
)

// UnguardResult describes the outcome of Unguard.
type UnguardResult struct {
	ProjectDir  string
	SentinelID  string
	SentinelDir string

	// Changed is false when the project was not guarded.
	Changed bool

	// Restored lists links below the project that were replaced by copies
	// of their sentinel targets, the entry file excluded.
	Restored []string

	// Skipped lists links into the sentinel that could not be restored.
	Skipped []string
}

// Unguard replaces the entry link with a regular file holding the
// relocated content minus its guard section, then restores every other
// link below the project that points into the sentinel. The sentinel is
// left on disk.
func (e *Engine) Unguard(projectDir string) (*UnguardResult, error) {
	st, err := Inspect(projectDir)
	if err != nil {
		return nil, err
	}
	result := &UnguardResult{ProjectDir: st.ProjectDir}

	switch {
	case st.State == Unguarded:
		e.log.Infof("%s is not guarded, nothing to do", st.ProjectDir)
		return result, nil
	case st.Dangling:
		return nil, fmt.Errorf("%w: nothing to restore from: %v", cgerrors.ErrCorruptGuardSection, st.Reason)
	case st.Section == nil:
		return nil, st.Reason
	case !st.Owned:
		return nil, st.Reason
	}

	result.SentinelID = st.Section.Sentinel
	source := st.EntryPath
	if st.Entry == EntryLink {
		source = st.Target
		result.SentinelDir = filepath.Dir(st.Target)
	} else {
		result.SentinelDir = e.store.Path(st.Section.Sentinel)
	}

	content, err := os.ReadFile(source)
	if err != nil {
		return nil, cgerrors.IO("read", source, err)
	}
	stripped, err := section.Strip(string(content))
	if err != nil {
		return nil, err
	}
	if err := pathutil.WriteFileAtomic(st.EntryPath, []byte(stripped), pathutil.FileMode(source, 0600)); err != nil {
		return nil, err
	}
	result.Changed = true
	e.log.Debugf("Restored %s from %s", st.EntryPath, source)

	if err := e.restoreLinks(result); err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) restoreLinks(result *UnguardResult) error {
	if _, err := os.Stat(result.SentinelDir); err != nil {
		e.log.Warnf("Sentinel %s is not readable, skipping guarded files: %v", result.SentinelDir, err)
		return nil
	}
	canonical, err := pathutil.Canonicalize(result.SentinelDir)
	if err != nil {
		return err
	}

	for link, err := range managedLinks(result.ProjectDir, canonical, filepath.Clean(result.SentinelDir)) {
		if err != nil {
			e.log.Warnf("Skipping unreadable path: %v", err)
			continue
		}
		if link.Dangling {
			e.log.Warnf("%s points at missing %s, leaving it in place", link.Path, link.Target)
			result.Skipped = append(result.Skipped, link.Path)
			continue
		}
		if err := materialize(link.Path, link.Target); err != nil {
			return fmt.Errorf("restoring %s: %w", link.Path, err)
		}
		e.log.Infof("Restored %s", link.Path)
		result.Restored = append(result.Restored, link.Path)
	}
	return nil
}

// materialize replaces the link at path with a copy of target.
func materialize(path, target string) error {
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".confguard-"+uuid.NewString()[:8])
	if err := pathutil.CopyTree(target, tmp); err != nil {
		_ = os.RemoveAll(tmp)
		return err
	}

	info, err := os.Stat(tmp)
	if err != nil {
		_ = os.RemoveAll(tmp)
		return cgerrors.IO("stat", tmp, err)
	}
	// A directory cannot be renamed over a link.
	if info.IsDir() {
		if err := os.Remove(path); err != nil {
			_ = os.RemoveAll(tmp)
			return cgerrors.IO("remove", path, err)
		}
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.RemoveAll(tmp)
		return cgerrors.IO("rename", path, err)
	}
	return nil
}
