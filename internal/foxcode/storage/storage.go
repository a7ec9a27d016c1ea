package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/afero"
)

// Storage wraps an afero filesystem with the file primitives foxcode needs:
// symlink refusal, atomic replacement and private permissions.
type Storage struct {
	fs afero.Fs
}

// New creates a new Storage instance.
func New(fs afero.Fs) *Storage {
	return &Storage{fs: fs}
}

// FileSystem returns the underlying filesystem.
func (s *Storage) FileSystem() afero.Fs {
	return s.fs
}

// ValidatePathSafety checks that the path is not a symlink.
// It returns nil if the path doesn't exist or is a regular file/directory.
func (s *Storage) ValidatePathSafety(path string) error {
	if lstater, ok := s.fs.(afero.Lstater); ok {
		info, _, err := lstater.LstatIfPossible(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("failed to check path: %w", err)
		}

		if info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("refusing to operate on symlink: %s", path)
		}
	}
	// In-memory filesystems don't support symlinks.
	return nil
}

// CopyFile copies src over dst, replacing the destination atomically.
func (s *Storage) CopyFile(src, dst string) error {
	if err := s.ValidatePathSafety(src); err != nil {
		return fmt.Errorf("validate source: %w", err)
	}
	data, err := afero.ReadFile(s.fs, src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	return s.WriteFileAtomic(dst, data)
}

// WriteFileAtomic writes data to a temp file next to path and renames it into place.
// Parent directories are created as needed. A replaced file keeps its permission
// bits; a new file is created with 0600.
func (s *Storage) WriteFileAtomic(path string, data []byte) error {
	perm := os.FileMode(0o600)
	if info, err := s.fs.Stat(path); err == nil && info.Mode().IsRegular() {
		perm = info.Mode().Perm()
	}
	return s.writeAtomic(path, data, perm)
}

// WritePrivateFile is WriteFileAtomic that always leaves the file at 0600,
// even when the file it replaces was more permissive.
func (s *Storage) WritePrivateFile(path string, data []byte) error {
	return s.writeAtomic(path, data, 0o600)
}

func (s *Storage) writeAtomic(path string, data []byte, perm os.FileMode) error {
	if err := s.ValidatePathSafety(path); err != nil {
		return fmt.Errorf("validate destination: %w", err)
	}

	dir := filepath.Dir(path)
	if err := s.fs.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp := filepath.Join(dir, "."+filepath.Base(path)+".tmp-"+strconv.FormatInt(time.Now().UnixNano(), 36))
	dest, err := s.fs.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	_, copyErr := io.Copy(dest, bytes.NewReader(data))
	closeErr := dest.Close()

	if copyErr != nil || closeErr != nil {
		s.fs.Remove(tmp)
		if copyErr != nil {
			return fmt.Errorf("write data: %w", copyErr)
		}
		return fmt.Errorf("close temp file: %w", closeErr)
	}

	// The temp file is created 0600 and only widened once it holds the full content.
	if perm != 0o600 {
		if err := s.fs.Chmod(tmp, perm); err != nil {
			s.fs.Remove(tmp)
			return fmt.Errorf("set permissions: %w", err)
		}
	}

	// Unix rename() atomically replaces the destination
	if err := s.fs.Rename(tmp, path); err != nil {
		s.fs.Remove(tmp)
		return fmt.Errorf("atomic rename: %w", err)
	}

	return nil
}

// ReadFile reads the entire file.
func (s *Storage) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(s.fs, path)
}

// Exists checks if a path exists.
func (s *Storage) Exists(path string) (bool, error) {
	return afero.Exists(s.fs, path)
}

// Stat returns file information.
func (s *Storage) Stat(path string) (os.FileInfo, error) {
	return s.fs.Stat(path)
}

// MkdirAll creates directory with secure permissions.
func (s *Storage) MkdirAll(path string) error {
	return s.fs.MkdirAll(path, 0o700)
}

// ReadDir reads directory contents.
func (s *Storage) ReadDir(path string) ([]os.FileInfo, error) {
	return afero.ReadDir(s.fs, path)
}

// Remove deletes a file.
func (s *Storage) Remove(path string) error {
	return s.fs.Remove(path)
}

// Chtimes changes file access and modification times.
func (s *Storage) Chtimes(path string, atime, mtime time.Time) error {
	return s.fs.Chtimes(path, atime, mtime)
}
