package guard

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	logger "github.com/PolarWolf314/confguard/internal/logging"
	"github.com/PolarWolf314/confguard/internal/sentinel"
)

// writeTestFile is a helper to write test files with 0644 permissions.
// #nosec G306 -- Test files are temporary and don't contain sensitive data.
func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create parent dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil { // #nosec G306
		t.Fatalf("Failed to create test file: %v", err)
	}
}

func readTestFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return string(data)
}

func fixedClock() func() time.Time {
	start := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	calls := 0
	return func() time.Time {
		calls++
		return start.Add(time.Duration(calls) * time.Minute)
	}
}

type testEnv struct {
	engine  *Engine
	store   *sentinel.Store
	project string
}

// setupTestEnv creates a home directory, a base directory and a project
// directory holding an .envrc with the given content.
func setupTestEnv(t *testing.T, envrc string) testEnv {
	t.Helper()

	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to resolve temp dir: %v", err)
	}
	home := filepath.Join(root, "home")
	t.Setenv("HOME", home)

	project := filepath.Join(home, "dev", "myproj")
	if err := os.MkdirAll(project, 0755); err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}
	if envrc != "" {
		writeTestFile(t, filepath.Join(project, ".envrc"), envrc)
	}

	store := sentinel.New(filepath.Join(home, ".local", "share", "confguard"))
	engine := New(Options{
		Store:  store,
		Logger: logger.Logger{Quiet: true},
		Now:    fixedClock(),
	})
	return testEnv{engine: engine, store: store, project: project}
}

// snapshot records every path below root with its type and content.
func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	files := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		switch {
		case d.Type()&fs.ModeSymlink != 0:
			raw, err := os.Readlink(path)
			if err != nil {
				return err
			}
			files[path] = "link:" + raw
		case d.IsDir():
			files[path] = "dir"
		default:
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			files[path] = "file:" + string(data)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to snapshot %s: %v", root, err)
	}
	return files
}

func assertSameSnapshot(t *testing.T, before, after map[string]string) {
	t.Helper()
	if len(before) != len(after) {
		t.Errorf("Expected %d paths, got %d", len(before), len(after))
	}
	for path, want := range before {
		if got, ok := after[path]; !ok || got != want {
			t.Errorf("Path %s changed: before %q, after %q", path, want, got)
		}
	}
}

func isSymlink(t *testing.T, path string) bool {
	t.Helper()
	info, err := os.Lstat(path)
	if err != nil {
		t.Fatalf("Failed to lstat %s: %v", path, err)
	}
	return info.Mode()&fs.ModeSymlink != 0
}
