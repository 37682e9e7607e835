package guard

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	cgerrors "github.com/PolarWolf314/confguard/internal/errors"
	"github.com/PolarWolf314/confguard/internal/pathutil"
	"github.com/PolarWolf314/confguard/internal/section"
	"github.com/PolarWolf314/confguard/internal/sentinel"
)

type State int

const (
	Unguarded State = iota
	Guarded
	Broken
)

func (s State) String() string {
	switch s {
	case Unguarded:
		return "unguarded"
	case Guarded:
		return "guarded"
	case Broken:
		return "broken"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// EntryKind is the filesystem shape of the entry file.
type EntryKind int

const (
	EntryMissing EntryKind = iota
	EntryRegular
	EntryLink
)

func (k EntryKind) String() string {
	switch k {
	case EntryMissing:
		return "missing"
	case EntryRegular:
		return "file"
	case EntryLink:
		return "link"
	default:
		return fmt.Sprintf("EntryKind(%d)", int(k))
	}
}

// Status is a snapshot of a project's guard state.
type Status struct {
	State      State
	ProjectDir string
	EntryPath  string
	Entry      EntryKind

	// LinkValue and Target are set when the entry is a link. Target is the
	// resolved path, or the lexical one when Dangling.
	LinkValue string
	Target    string
	Dangling  bool

	// Section is the parsed guard section, when there is a readable one.
	Section *section.Section

	// Owned reports that Section records ProjectDir as its source.
	Owned bool

	// Reason explains a Broken state.
	Reason error
}

// Inspect computes the guard state of projectDir from the filesystem.
func Inspect(projectDir string) (*Status, error) {
	dir, err := pathutil.Canonicalize(projectDir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: project directory %s", cgerrors.ErrFileNotFound, projectDir)
		}
		return nil, cgerrors.IO("stat", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", cgerrors.ErrFileNotFound, projectDir)
	}

	st := &Status{ProjectDir: dir, EntryPath: filepath.Join(dir, sentinel.EntryFile)}

	info, err = os.Lstat(st.EntryPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			st.State = Unguarded
			return st, nil
		}
		return nil, cgerrors.IO("lstat", st.EntryPath, err)
	}

	var content []byte
	switch {
	case info.Mode()&fs.ModeSymlink != 0:
		st.Entry = EntryLink
		raw, target, err := pathutil.ReadLink(st.EntryPath)
		st.LinkValue, st.Target = raw, target
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				st.Dangling = true
				st.State = Broken
				st.Reason = fmt.Errorf("%w: %s points at missing %s", cgerrors.ErrSentinelMissing, st.EntryPath, target)
				return st, nil
			}
			return nil, err
		}
		content, err = os.ReadFile(target)
		if err != nil {
			st.State = Broken
			st.Reason = cgerrors.IO("read", target, err)
			return st, nil
		}
	case info.Mode().IsRegular():
		st.Entry = EntryRegular
		content, err = os.ReadFile(st.EntryPath)
		if err != nil {
			return nil, cgerrors.IO("read", st.EntryPath, err)
		}
		if !section.Has(string(content)) {
			st.State = Unguarded
			return st, nil
		}
	default:
		return nil, cgerrors.IO("inspect", st.EntryPath, errors.New("not a regular file or link"))
	}

	sec, err := section.Parse(string(content))
	if err != nil {
		st.State = Broken
		st.Reason = err
		return st, nil
	}
	st.Section = sec

	source, err := pathutil.Canonicalize(sec.SourceDir)
	st.Owned = err == nil && source == dir

	switch {
	case !st.Owned:
		st.State = Broken
		st.Reason = fmt.Errorf("%w: section records %s", cgerrors.ErrAlreadyGuardedConflict, sec.SourceDir)
	case st.Entry == EntryRegular:
		st.State = Broken
		st.Reason = fmt.Errorf("%w: %s carries a guard section", cgerrors.ErrNotASymlink, st.EntryPath)
	default:
		st.State = Guarded
	}
	return st, nil
}
