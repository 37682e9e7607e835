package guard

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	cgerrors "github.com/PolarWolf314/confguard/internal/errors"
	"github.com/PolarWolf314/confguard/internal/sentinel"
)

func TestRelink_RecreatesEntryLink(t *testing.T) {
	tests := []struct {
		name     string
		absolute bool
	}{
		{"relative", false},
		{"absolute", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnv(t, "export FOO=bar\n")
			entry := filepath.Join(env.project, ".envrc")

			guarded, err := env.engine.Guard(env.project, tt.absolute)
			if err != nil {
				t.Fatalf("Guard failed: %v", err)
			}
			// Simulate a broken checkout: the link was replaced by a stale file.
			if err := os.Remove(entry); err != nil {
				t.Fatalf("Failed to remove link: %v", err)
			}
			writeTestFile(t, entry, "stale\n")

			relocated := filepath.Join(guarded.SentinelDir, sentinel.RelocatedFile)
			result, err := env.engine.Relink(relocated)
			if err != nil {
				t.Fatalf("Relink failed: %v", err)
			}
			if result.Link != entry {
				t.Errorf("Expected link at %s, got: %s", entry, result.Link)
			}

			raw, err := os.Readlink(entry)
			if err != nil {
				t.Fatalf("Expected %s to be a link: %v", entry, err)
			}
			if filepath.IsAbs(raw) != tt.absolute {
				t.Errorf("Expected absolute=%v, got link value %s", tt.absolute, raw)
			}

			st, err := Inspect(env.project)
			if err != nil {
				t.Fatalf("Inspect failed: %v", err)
			}
			if st.State != Guarded {
				t.Errorf("Expected guarded state, got: %s (%v)", st.State, st.Reason)
			}
		})
	}
}

func TestRelink_WithoutSection(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "dot.envrc")
	writeTestFile(t, file, "export FOO=bar\n")
	env := setupTestEnv(t, "")

	_, err := env.engine.Relink(file)
	if !errors.Is(err, cgerrors.ErrCorruptGuardSection) {
		t.Errorf("Expected ErrCorruptGuardSection, got: %v", err)
	}
}

func TestReplaceLink_NotASymlink(t *testing.T) {
	env := setupTestEnv(t, "export FOO=bar\n")
	before := snapshot(t, env.project)

	_, err := env.engine.ReplaceLink(filepath.Join(env.project, ".envrc"))
	if !errors.Is(err, cgerrors.ErrNotASymlink) {
		t.Errorf("Expected ErrNotASymlink, got: %v", err)
	}
	assertSameSnapshot(t, before, snapshot(t, env.project))
}

func TestReplaceLink_MovesTarget(t *testing.T) {
	env := setupTestEnv(t, "")
	store := t.TempDir()

	file := filepath.Join(store, "file.txt")
	writeTestFile(t, file, "file\n")
	dir := filepath.Join(store, "tree")
	writeTestFile(t, filepath.Join(dir, "nested", "leaf.txt"), "leaf\n")

	fileLink := filepath.Join(env.project, "file.txt")
	dirLink := filepath.Join(env.project, "tree")
	if err := os.Symlink(file, fileLink); err != nil {
		t.Fatalf("Failed to create link: %v", err)
	}
	if err := os.Symlink(dir, dirLink); err != nil {
		t.Fatalf("Failed to create link: %v", err)
	}

	for _, link := range []string{fileLink, dirLink} {
		if _, err := env.engine.ReplaceLink(link); err != nil {
			t.Fatalf("ReplaceLink(%s) failed: %v", link, err)
		}
		if isSymlink(t, link) {
			t.Errorf("Expected %s to be replaced", link)
		}
	}

	if got := readTestFile(t, fileLink); got != "file\n" {
		t.Errorf("Unexpected file content: %q", got)
	}
	if got := readTestFile(t, filepath.Join(dirLink, "nested", "leaf.txt")); got != "leaf\n" {
		t.Errorf("Unexpected leaf content: %q", got)
	}
	for _, stale := range []string{file, dir} {
		if _, err := os.Lstat(stale); !os.IsNotExist(err) {
			t.Errorf("Expected %s to be gone, got: %v", stale, err)
		}
	}
}

func TestReplaceLink_Dangling(t *testing.T) {
	env := setupTestEnv(t, "")
	link := filepath.Join(env.project, "gone")
	if err := os.Symlink(filepath.Join(env.project, "missing"), link); err != nil {
		t.Fatalf("Failed to create link: %v", err)
	}

	_, err := env.engine.ReplaceLink(link)
	if !errors.Is(err, cgerrors.ErrFileNotFound) {
		t.Errorf("Expected ErrFileNotFound, got: %v", err)
	}
	if !isSymlink(t, link) {
		t.Errorf("Expected dangling link to stay")
	}
}
