package pathutil

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	cgerrors "github.com/PolarWolf314/confguard/internal/errors"
)

// Move renames src to dst, creating dst's parent directories. When the
// rename crosses filesystems the tree is copied and src removed afterwards.
func Move(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return cgerrors.IO("mkdir", filepath.Dir(dst), err)
	}

	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return cgerrors.IO("rename", src, err)
	}

	if err := CopyTree(src, dst); err != nil {
		return err
	}
	if err := os.RemoveAll(src); err != nil {
		return cgerrors.IO("remove", src, err)
	}
	return nil
}

// CopyTree copies a file or a directory tree from src to dst. Links inside
// a copied directory are recreated with the same value, not followed.
// src itself is followed when it is a link.
func CopyTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return cgerrors.IO("stat", src, err)
	}
	if !info.IsDir() {
		return copyFile(src, dst, info.Mode().Perm())
	}

	root, err := filepath.EvalSymlinks(src)
	if err != nil {
		return cgerrors.IO("resolve", src, err)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return cgerrors.IO("walk", path, err)
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return cgerrors.IO("stat", path, err)
			}
			if err := os.MkdirAll(target, info.Mode().Perm()); err != nil {
				return cgerrors.IO("mkdir", target, err)
			}
			return nil
		case d.Type()&fs.ModeSymlink != 0:
			raw, err := os.Readlink(path)
			if err != nil {
				return cgerrors.IO("readlink", path, err)
			}
			if err := os.Symlink(raw, target); err != nil {
				return cgerrors.IO("symlink", target, err)
			}
			return nil
		case d.Type().IsRegular():
			info, err := d.Info()
			if err != nil {
				return cgerrors.IO("stat", path, err)
			}
			return copyFile(path, target, info.Mode().Perm())
		default:
			// Sockets, devices and pipes are not configuration.
			return nil
		}
	})
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return cgerrors.IO("open", src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return cgerrors.IO("mkdir", filepath.Dir(dst), err)
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return cgerrors.IO("create", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return cgerrors.IO("copy", dst, err)
	}
	return cgerrors.IO("close", dst, out.Close())
}

// WriteFileAtomic replaces path with data. The content is written to a
// temporary file in the same directory and renamed into place, so path
// holds either the old or the new content. A link at path is replaced by a
// regular file.
func WriteFileAtomic(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return cgerrors.IO("create", path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return cgerrors.IO("write", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return cgerrors.IO("sync", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return cgerrors.IO("close", path, err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return cgerrors.IO("chmod", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return cgerrors.IO("rename", path, err)
	}
	return nil
}

// SameContent reports whether both regular files exist and hold identical bytes.
func SameContent(a, b string) (bool, error) {
	left, err := os.ReadFile(a)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, cgerrors.IO("read", a, err)
	}
	right, err := os.ReadFile(b)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, cgerrors.IO("read", b, err)
	}
	return bytes.Equal(left, right), nil
}

// FileMode returns the permission bits of path, or fallback when it cannot be read.
func FileMode(path string, fallback fs.FileMode) fs.FileMode {
	info, err := os.Stat(path)
	if err != nil {
		return fallback
	}
	return info.Mode().Perm()
}

// Exists reports whether path exists without following a final link.
func Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, cgerrors.IO("lstat", path, err)
}
