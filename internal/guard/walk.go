package guard

import (
	"errors"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	cgerrors "github.com/PolarWolf314/confguard/internal/errors"
	"github.com/PolarWolf314/confguard/internal/pathutil"
)

// managedLink is a link below a project whose target lies in a sentinel.
type managedLink struct {
	Path   string
	Target string

	// Dangling links point into the sentinel at something that is gone.
	Dangling bool
}

// managedLinks walks root and yields every link whose resolved target lies
// inside one of dirs. Links are never followed and each directory is read
// at most once, keyed by its canonical path. Errors for single entries are
// yielded and the walk goes on.
func managedLinks(root string, dirs ...string) iter.Seq2[managedLink, error] {
	return func(yield func(managedLink, error) bool) {
		visited := make(map[string]bool)

		var walk func(dir string) bool
		walk = func(dir string) bool {
			canonical, err := filepath.EvalSymlinks(dir)
			if err != nil {
				return yield(managedLink{}, cgerrors.IO("resolve", dir, err))
			}
			if visited[canonical] {
				return true
			}
			visited[canonical] = true

			entries, err := os.ReadDir(dir)
			if err != nil {
				return yield(managedLink{}, cgerrors.IO("readdir", dir, err))
			}

			for _, d := range entries {
				path := filepath.Join(dir, d.Name())
				switch {
				case d.Type()&fs.ModeSymlink != 0:
					link, ok, err := inspectLink(path, dirs)
					if err != nil {
						if !yield(managedLink{}, err) {
							return false
						}
						continue
					}
					if ok && !yield(link, nil) {
						return false
					}
				case d.IsDir():
					if !walk(path) {
						return false
					}
				}
			}
			return true
		}

		walk(root)
	}
}

func inspectLink(path string, dirs []string) (managedLink, bool, error) {
	raw, err := os.Readlink(path)
	if err != nil {
		return managedLink{}, false, cgerrors.IO("readlink", path, err)
	}
	target, err := pathutil.ResolveLinkTarget(path, raw)
	dangling := false
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return managedLink{}, false, cgerrors.IO("resolve", path, err)
		}
		dangling = true
	}

	for _, dir := range dirs {
		if pathutil.IsWithin(target, dir) {
			return managedLink{Path: path, Target: target, Dangling: dangling}, true, nil
		}
	}
	return managedLink{}, false, nil
}
