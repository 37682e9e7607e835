package sentinel

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	cgerrors "github.com/PolarWolf314/confguard/internal/errors"
	"github.com/PolarWolf314/confguard/internal/pathutil"
	"github.com/PolarWolf314/confguard/internal/section"
	"github.com/PolarWolf314/confguard/internal/utils"
)

const (
	// EntryFile is the file guarded in a project directory.
	EntryFile = ".envrc"

	// RelocatedFile is the name of the entry file inside a sentinel.
	RelocatedFile = "dot.envrc"

	EnvironmentsDir = "environments"
	GuardedDir      = "guarded"
)

// Store locates sentinels below a base directory.
type Store struct {
	baseDir string
}

// New returns a Store rooted at baseDir. Nothing is created until a
// sentinel is.
func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) BaseDir() string { return s.baseDir }

// Root returns the directory holding every sentinel.
func (s *Store) Root() string { return filepath.Join(s.baseDir, GuardedDir) }

// Path returns the directory of the sentinel with the given id.
func (s *Store) Path(id string) string { return filepath.Join(s.Root(), id) }

// NewID mints a sentinel id for a project directory.
func NewID(projectDir string) string {
	return utils.SanitizeName(filepath.Base(projectDir)) + "-" + uuid.NewString()
}

// ResolveOrCreate returns the sentinel directory for projectDir. With an
// existingID the directory must already exist, otherwise ErrSentinelMissing
// is returned. Without one a new id is minted and its directory created.
func (s *Store) ResolveOrCreate(projectDir, existingID string) (string, error) {
	if existingID != "" {
		if existingID != filepath.Base(existingID) || existingID == "." || existingID == ".." {
			return "", fmt.Errorf("%w: invalid sentinel id %q", cgerrors.ErrCorruptGuardSection, existingID)
		}
		dir := s.Path(existingID)
		info, err := os.Stat(dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("%w: %s", cgerrors.ErrSentinelMissing, dir)
			}
			return "", cgerrors.IO("stat", dir, err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("%w: %s is not a directory", cgerrors.ErrSentinelMissing, dir)
		}
		return dir, nil
	}

	dir := s.Path(NewID(projectDir))
	if err := os.MkdirAll(filepath.Join(dir, EnvironmentsDir), 0700); err != nil {
		return "", cgerrors.IO("mkdir", dir, err)
	}
	return dir, nil
}

// Entry describes one sentinel directory.
type Entry struct {
	ID   string
	Path string

	// Section is the guard section of the relocated entry file, nil when
	// it could not be read. Err holds the reason.
	Section *section.Section
	Err     error
}

// List returns every sentinel, sorted by id. A missing guarded directory
// yields an empty list.
func (s *Store) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.Root())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, cgerrors.IO("readdir", s.Root(), err)
	}

	var entries []Entry
	for _, d := range dirEntries {
		if !d.IsDir() {
			continue
		}
		e := Entry{ID: d.Name(), Path: s.Path(d.Name())}
		e.Section, e.Err = ReadSection(filepath.Join(e.Path, RelocatedFile))
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

// FindBySource returns the sentinel whose relocated entry file records
// projectDir as its source directory. When several do, the most recently
// guarded one wins. An empty id means none was found.
func (s *Store) FindBySource(projectDir string) (string, error) {
	want, err := pathutil.Canonicalize(projectDir)
	if err != nil {
		return "", err
	}

	entries, err := s.List()
	if err != nil {
		return "", err
	}

	var best *Entry
	for i := range entries {
		e := &entries[i]
		if e.Section == nil || e.Section.Sentinel != e.ID {
			continue
		}
		got, err := pathutil.Canonicalize(e.Section.SourceDir)
		if err != nil || got != want {
			continue
		}
		if best == nil || e.Section.Timestamp.After(best.Section.Timestamp) {
			best = e
		}
	}
	if best == nil {
		return "", nil
	}
	return best.ID, nil
}

// ReadSection parses the guard section of the file at path.
func ReadSection(path string) (*section.Section, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", cgerrors.ErrFileNotFound, path)
		}
		return nil, cgerrors.IO("read", path, err)
	}
	return section.Parse(string(data))
}
