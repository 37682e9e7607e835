package pathutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	cgerrors "github.com/PolarWolf314/confguard/internal/errors"
)

func TestComputeLinkTarget_RelativeRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		target string
		link   string
	}{
		{"same directory", "store/dot.envrc", "store/.envrc"},
		{"sibling trees", "base/guarded/app-1/dot.envrc", "dev/app/.envrc"},
		{"link deeper than target", "store/dot.envrc", "dev/a/b/c/d/.envrc"},
		{"target deeper than link", "base/guarded/app-1/config/nested/x.yml", "app/x.yml"},
		{"link inside target tree", "store/file", "store/sub/link"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			target := filepath.Join(tmpDir, tt.target)
			link := filepath.Join(tmpDir, tt.link)
			writeTestFile(t, target, "content")
			if err := os.MkdirAll(filepath.Dir(link), 0755); err != nil {
				t.Fatalf("Failed to create link dir: %v", err)
			}

			value, err := ComputeLinkTarget(link, target, false)
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if filepath.IsAbs(value) {
				t.Errorf("Expected relative target, got: %s", value)
			}

			if err := os.Symlink(value, link); err != nil {
				t.Fatalf("Failed to create link: %v", err)
			}
			if got, want := canonical(t, link), canonical(t, target); got != want {
				t.Errorf("Link resolves to %s, want %s", got, want)
			}
		})
	}
}

func TestComputeLinkTarget_ThroughLinkedDirectory(t *testing.T) {
	tmpDir := canonical(t, t.TempDir())
	target := filepath.Join(tmpDir, "store", "dot.envrc")
	writeTestFile(t, target, "content")

	realProject := filepath.Join(tmpDir, "deep", "nested", "app")
	if err := os.MkdirAll(realProject, 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	alias := filepath.Join(tmpDir, "app")
	if err := os.Symlink(realProject, alias); err != nil {
		t.Fatalf("Failed to create alias: %v", err)
	}

	link := filepath.Join(alias, ".envrc")
	value, err := ComputeLinkTarget(link, target, false)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if err := os.Symlink(value, link); err != nil {
		t.Fatalf("Failed to create link: %v", err)
	}
	if got := canonical(t, link); got != target {
		t.Errorf("Link resolves to %s, want %s", got, target)
	}
}

func TestComputeLinkTarget_Absolute(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "store", "file")
	writeTestFile(t, target, "content")

	value, err := ComputeLinkTarget(filepath.Join(tmpDir, "link"), target, true)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if value != canonical(t, target) {
		t.Errorf("Expected canonical target %s, got: %s", canonical(t, target), value)
	}
}

func TestComputeLinkTarget_MissingTarget(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := ComputeLinkTarget(filepath.Join(tmpDir, "link"), filepath.Join(tmpDir, "nope"), false)
	if !errors.Is(err, cgerrors.ErrFileNotFound) {
		t.Errorf("Expected ErrFileNotFound, got: %v", err)
	}
}

func TestCreateLink_ReplacesExistingLink(t *testing.T) {
	tmpDir := t.TempDir()
	first := filepath.Join(tmpDir, "first")
	second := filepath.Join(tmpDir, "second")
	writeTestFile(t, first, "one")
	writeTestFile(t, second, "two")
	link := filepath.Join(tmpDir, "proj", ".envrc")

	if _, err := CreateLink(first, link, false); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if _, err := CreateLink(second, link, false); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	data, err := os.ReadFile(link)
	if err != nil {
		t.Fatalf("Failed to read through link: %v", err)
	}
	if string(data) != "two" {
		t.Errorf("Expected link to point at second file, read: %q", data)
	}

	entries, err := os.ReadDir(filepath.Dir(link))
	if err != nil {
		t.Fatalf("Failed to list dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the link in the directory, got %d entries", len(entries))
	}
}

func TestCreateLink_RefusesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "file")
	writeTestFile(t, target, "x")
	dir := filepath.Join(tmpDir, "dir")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}

	_, err := CreateLink(target, dir, true)
	if !errors.Is(err, cgerrors.ErrIOFailure) {
		t.Errorf("Expected ErrIOFailure, got: %v", err)
	}
	if IsSymlink(dir) {
		t.Errorf("Directory must not be replaced")
	}
}

func TestReadLink_NotASymlink(t *testing.T) {
	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "file")
	writeTestFile(t, file, "x")

	_, _, err := ReadLink(file)
	if !errors.Is(err, cgerrors.ErrNotASymlink) {
		t.Errorf("Expected ErrNotASymlink, got: %v", err)
	}
}
