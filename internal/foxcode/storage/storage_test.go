package storage

// Tests for atomic file operations and permissions.
//
// Focus: WriteFileAtomic (temp file + rename, parent creation), CopyFile,
// ValidatePathSafety, 0600 new files, preserved modes on replace and 0700 directories.

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestWriteFileAtomic_CreatesParentsAndFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := New(fs)

	path := "/home/test/.codex/auth.json"
	if err := storage.WriteFileAtomic(path, []byte(`{"k":"v"}`)); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}

	content, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(content) != `{"k":"v"}` {
		t.Errorf("unexpected content %q", string(content))
	}

	info, err := fs.Stat("/home/test/.codex")
	if err != nil {
		t.Fatalf("stat directory: %v", err)
	}
	if info.Mode().Perm() != 0o700 {
		t.Errorf("expected directory mode 0700, got %o", info.Mode().Perm())
	}
}

func TestWriteFileAtomic_OverwritesAndLeavesNoTempFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := New(fs)

	path := "/test/file.toml"
	if err := afero.WriteFile(fs, path, []byte("old"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := storage.WriteFileAtomic(path, []byte("new")); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}

	content, _ := afero.ReadFile(fs, path)
	if string(content) != "new" {
		t.Errorf("expected 'new', got %q", string(content))
	}

	entries, err := afero.ReadDir(fs, "/test")
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, entry := range entries {
		if strings.Contains(entry.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestWriteFileAtomic_SecurePermissions(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := New(fs)

	if err := storage.WriteFileAtomic("/test/secret.json", []byte("secret")); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}

	info, err := fs.Stat("/test/secret.json")
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("expected file mode 0600, got %o", info.Mode().Perm())
	}
}

func TestWriteFileAtomic_KeepsExistingMode(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := New(fs)

	path := "/home/test/.claude/settings.json"
	if err := afero.WriteFile(fs, path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := storage.WriteFileAtomic(path, []byte(`{"env":{}}`)); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}

	info, err := fs.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Errorf("expected replaced file to keep mode 0644, got %o", info.Mode().Perm())
	}
	content, _ := afero.ReadFile(fs, path)
	if string(content) != `{"env":{}}` {
		t.Errorf("unexpected content %q", string(content))
	}
}

func TestWritePrivateFile_TightensMode(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := New(fs)

	path := "/home/test/.config/foxcode/config.json"
	if err := afero.WriteFile(fs, path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := storage.WritePrivateFile(path, []byte(`{"profiles":[]}`)); err != nil {
		t.Fatalf("WritePrivateFile failed: %v", err)
	}

	info, err := fs.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("expected mode 0600, got %o", info.Mode().Perm())
	}
}

func TestCopyFile_OverExistingKeepsTargetMode(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := New(fs)

	if err := afero.WriteFile(fs, "/backups/b1", []byte("old"), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := afero.WriteFile(fs, "/home/test/.gemini/.env", []byte("new"), 0o640); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := storage.CopyFile("/backups/b1", "/home/test/.gemini/.env"); err != nil {
		t.Fatalf("CopyFile failed: %v", err)
	}

	info, err := fs.Stat("/home/test/.gemini/.env")
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o640 {
		t.Errorf("expected mode 0640, got %o", info.Mode().Perm())
	}
}

func TestCopyFile_Success(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := New(fs)

	src := "/test/source.json"
	dst := "/deeply/nested/dest.json"

	if err := afero.WriteFile(fs, src, []byte("content"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := storage.CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile failed: %v", err)
	}

	content, err := afero.ReadFile(fs, dst)
	if err != nil {
		t.Fatalf("read dest: %v", err)
	}
	if string(content) != "content" {
		t.Errorf("expected 'content', got %q", string(content))
	}
}

func TestCopyFile_MissingSource(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := New(fs)

	err := storage.CopyFile("/nonexistent", "/dest")
	if err == nil {
		t.Fatal("expected error for missing source")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist in chain, got: %v", err)
	}
}

func TestValidatePathSafety_NonExistentPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := New(fs)

	if err := storage.ValidatePathSafety("/nonexistent/file.json"); err != nil {
		t.Errorf("non-existent path should be safe: %v", err)
	}
}

func TestValidatePathSafety_Symlink(t *testing.T) {
	dir := t.TempDir()
	fs := afero.NewBasePathFs(afero.NewOsFs(), dir)
	storage := New(fs)

	if err := afero.WriteFile(fs, "/real.json", []byte("{}"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	linker, ok := fs.(afero.Linker)
	if !ok {
		t.Skip("filesystem does not support symlinks")
	}
	if err := linker.SymlinkIfPossible("/real.json", "/link.json"); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	if err := storage.ValidatePathSafety("/link.json"); err == nil {
		t.Error("expected symlink to be refused")
	}
	if err := storage.WriteFileAtomic("/link.json", []byte("x")); err == nil {
		t.Error("expected write through symlink to be refused")
	}
}

func TestMkdirAll_SecurePermissions(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := New(fs)

	path := "/deeply/nested/path"
	if err := storage.MkdirAll(path); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	info, err := fs.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !info.IsDir() {
		t.Error("path should be a directory")
	}
	if info.Mode().Perm() != 0o700 {
		t.Errorf("expected secure mode 0700, got %o", info.Mode().Perm())
	}
}
