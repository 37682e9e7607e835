package pathutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMove_Directory(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "src")
	writeTestFile(t, filepath.Join(src, "a.txt"), "a")
	writeTestFile(t, filepath.Join(src, "nested", "b.txt"), "b")
	dst := filepath.Join(tmpDir, "out", "dst")

	if err := Move(src, dst); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Errorf("Expected source to be gone, got: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dst, "nested", "b.txt"))
	if err != nil || string(data) != "b" {
		t.Errorf("Expected nested file to be moved, got %q, %v", data, err)
	}
}

func TestCopyTree_PreservesInnerLinks(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "src")
	writeTestFile(t, filepath.Join(src, "real.txt"), "real")
	if err := os.Symlink("real.txt", filepath.Join(src, "alias.txt")); err != nil {
		t.Fatalf("Failed to create link: %v", err)
	}
	dst := filepath.Join(tmpDir, "dst")

	if err := CopyTree(src, dst); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	raw, err := os.Readlink(filepath.Join(dst, "alias.txt"))
	if err != nil {
		t.Fatalf("Expected alias to stay a link: %v", err)
	}
	if raw != "real.txt" {
		t.Errorf("Expected link value real.txt, got: %s", raw)
	}
	if _, err := os.Stat(filepath.Join(src, "real.txt")); err != nil {
		t.Errorf("Expected source to be kept: %v", err)
	}
}

func TestWriteFileAtomic_ReplacesLink(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "target")
	writeTestFile(t, target, "original")
	link := filepath.Join(tmpDir, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("Failed to create link: %v", err)
	}

	if err := WriteFileAtomic(link, []byte("fresh"), 0600); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if IsSymlink(link) {
		t.Errorf("Expected regular file after atomic write")
	}
	data, _ := os.ReadFile(link)
	if string(data) != "fresh" {
		t.Errorf("Expected new content, got: %q", data)
	}
	data, _ = os.ReadFile(target)
	if string(data) != "original" {
		t.Errorf("Expected link target untouched, got: %q", data)
	}
	if mode := FileMode(link, 0); mode != 0600 {
		t.Errorf("Expected mode 0600, got: %o", mode)
	}
}

func TestSameContent(t *testing.T) {
	tmpDir := t.TempDir()
	a := filepath.Join(tmpDir, "a")
	b := filepath.Join(tmpDir, "b")
	writeTestFile(t, a, "same")
	writeTestFile(t, b, "same")

	same, err := SameContent(a, b)
	if err != nil || !same {
		t.Errorf("Expected identical files, got %v, %v", same, err)
	}

	same, err = SameContent(a, filepath.Join(tmpDir, "missing"))
	if err != nil || same {
		t.Errorf("Expected missing file to compare unequal, got %v, %v", same, err)
	}
}
