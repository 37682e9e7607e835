package guard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	cgerrors "github.com/PolarWolf314/confguard/internal/errors"
	logger "github.com/PolarWolf314/confguard/internal/logging"
	"github.com/PolarWolf314/confguard/internal/pathutil"
	"github.com/PolarWolf314/confguard/internal/section"
	"github.com/PolarWolf314/confguard/internal/sentinel"
)

// Options configures an Engine.
type Options struct {
	Store  *sentinel.Store
	Logger logger.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Engine runs the structural operations against one sentinel store.
type Engine struct {
	store *sentinel.Store
	log   logger.Logger
	now   func() time.Time
}

func New(opts Options) *Engine {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{store: opts.Store, log: opts.Logger, now: now}
}

// GuardResult describes the outcome of Guard.
type GuardResult struct {
	ProjectDir  string
	SentinelID  string
	SentinelDir string

	// Link is the entry file path, LinkTarget the value written into it.
	Link       string
	LinkTarget string

	// NewSentinel is set when a sentinel was minted for this run.
	NewSentinel bool

	// Moved is false when the sentinel already held identical content.
	Moved bool

	// Recovered is set when an interrupted guard was completed.
	Recovered bool

	EnvFiles sentinel.EnvReport

	// KeptEnvFiles lists environment files with user edits that were left
	// untouched.
	KeptEnvFiles []string
}

// Guard relocates the project's entry file into its sentinel and replaces
// it with a link. A project that is already guarded is re-guarded in
// place with a fresh timestamp.
func (e *Engine) Guard(projectDir string, absolute bool) (*GuardResult, error) {
	st, err := Inspect(projectDir)
	if err != nil {
		return nil, err
	}
	e.log.Debugf("Inspected %s: state=%s entry=%s", st.ProjectDir, st.State, st.Entry)

	if st.Section != nil && !st.Owned {
		return nil, fmt.Errorf("%w: %s belongs to %s", cgerrors.ErrAlreadyGuardedConflict, st.EntryPath, st.Section.SourceDir)
	}

	switch {
	case st.State == Broken && st.Section == nil && !st.Dangling:
		return nil, st.Reason
	case st.State == Guarded:
		return e.reguard(st, absolute)
	case st.Entry == EntryRegular:
		return e.guardFile(st, absolute)
	case st.Entry == EntryMissing || st.Dangling:
		return e.recover(st, absolute)
	default:
		return nil, st.Reason
	}
}

// reguard refreshes the section of an already guarded project.
func (e *Engine) reguard(st *Status, absolute bool) (*GuardResult, error) {
	id := st.Section.Sentinel
	dir, err := e.store.ResolveOrCreate(st.ProjectDir, id)
	if err != nil {
		return nil, err
	}
	relocated := filepath.Join(dir, sentinel.RelocatedFile)

	want, err := pathutil.Canonicalize(relocated)
	if err != nil {
		return nil, err
	}
	if want != st.Target {
		return nil, fmt.Errorf("%w: %s points at %s instead of %s",
			cgerrors.ErrCorruptGuardSection, st.EntryPath, st.Target, relocated)
	}

	content, err := os.ReadFile(st.Target)
	if err != nil {
		return nil, cgerrors.IO("read", st.Target, err)
	}

	result := &GuardResult{ProjectDir: st.ProjectDir, SentinelID: id, SentinelDir: dir}
	if err := e.writeRelocated(relocated, string(content), st, id, absolute, pathutil.FileMode(st.Target, 0600)); err != nil {
		return nil, err
	}
	return e.finish(result, st, relocated, absolute)
}

// guardFile relocates a regular entry file.
func (e *Engine) guardFile(st *Status, absolute bool) (*GuardResult, error) {
	id := ""
	if st.Section != nil {
		id = st.Section.Sentinel
	} else {
		found, err := e.store.FindBySource(st.ProjectDir)
		if err != nil {
			return nil, err
		}
		if found != "" {
			e.log.Infof("Reusing sentinel %s", found)
		}
		id = found
	}

	dir, err := e.store.ResolveOrCreate(st.ProjectDir, id)
	if errors.Is(err, cgerrors.ErrSentinelMissing) {
		e.log.Warnf("Sentinel %s no longer exists, creating a new one", id)
		id = ""
		dir, err = e.store.ResolveOrCreate(st.ProjectDir, "")
	}
	if err != nil {
		return nil, err
	}
	result := &GuardResult{
		ProjectDir:  st.ProjectDir,
		SentinelID:  filepath.Base(dir),
		SentinelDir: dir,
		NewSentinel: id == "",
		Moved:       true,
	}
	relocated := filepath.Join(dir, sentinel.RelocatedFile)

	entry, err := os.ReadFile(st.EntryPath)
	if err != nil {
		return nil, cgerrors.IO("read", st.EntryPath, err)
	}

	if existing, err := os.ReadFile(relocated); err == nil {
		same, err := sameStripped(string(existing), string(entry))
		if err != nil {
			return nil, err
		}
		if same {
			result.Moved = false
		} else {
			e.log.Warnf("Replacing %s with the current content of %s", relocated, st.EntryPath)
		}
	}

	if err := e.writeRelocated(relocated, string(entry), st, result.SentinelID, absolute, pathutil.FileMode(st.EntryPath, 0600)); err != nil {
		return nil, err
	}
	return e.finish(result, st, relocated, absolute)
}

// recover completes a guard whose link was never created, or whose link
// points at a location that no longer exists.
func (e *Engine) recover(st *Status, absolute bool) (*GuardResult, error) {
	id, err := e.store.FindBySource(st.ProjectDir)
	if err != nil {
		return nil, err
	}
	if id == "" {
		if st.Dangling {
			return nil, st.Reason
		}
		return nil, fmt.Errorf("%w: %s", cgerrors.ErrMissingEntryFile, st.EntryPath)
	}

	dir := e.store.Path(id)
	relocated := filepath.Join(dir, sentinel.RelocatedFile)
	content, err := os.ReadFile(relocated)
	if err != nil {
		return nil, cgerrors.IO("read", relocated, err)
	}
	e.log.Infof("Completing interrupted guard from %s", relocated)

	result := &GuardResult{ProjectDir: st.ProjectDir, SentinelID: id, SentinelDir: dir, Recovered: true}
	if err := e.writeRelocated(relocated, string(content), st, id, absolute, pathutil.FileMode(relocated, 0600)); err != nil {
		return nil, err
	}
	return e.finish(result, st, relocated, absolute)
}

func (e *Engine) writeRelocated(relocated, content string, st *Status, id string, absolute bool, mode os.FileMode) error {
	updated, err := section.Upsert(content, section.Section{
		Relative:  !absolute,
		Version:   section.CurrentVersion,
		Sentinel:  id,
		Timestamp: e.now().UTC(),
		SourceDir: st.ProjectDir,
	}, filepath.Dir(relocated))
	if err != nil {
		return err
	}
	if updated == content {
		return nil
	}
	return pathutil.WriteFileAtomic(relocated, []byte(updated), mode)
}

// finish ensures the environment files and commits the entry link.
func (e *Engine) finish(result *GuardResult, st *Status, relocated string, absolute bool) (*GuardResult, error) {
	report, err := sentinel.EnsureEnvironments(result.SentinelDir)
	if err != nil {
		return nil, err
	}
	result.EnvFiles = report
	result.KeptEnvFiles = report.Edited
	for _, path := range report.Edited {
		e.log.Infof("Keeping edited environment file %s", path)
	}

	target, err := pathutil.CreateLink(relocated, st.EntryPath, absolute)
	if err != nil {
		return nil, err
	}
	result.Link = st.EntryPath
	result.LinkTarget = target
	e.log.Debugf("Linked %s -> %s", st.EntryPath, target)
	return result, nil
}

func sameStripped(a, b string) (bool, error) {
	left, err := section.Strip(a)
	if err != nil {
		return false, err
	}
	right, err := section.Strip(b)
	if err != nil {
		return false, err
	}
	return left == right, nil
}
