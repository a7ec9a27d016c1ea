package backup

// Tests for timestamped backups.
//
// Focus: CreateBackup (naming, missing files), ListBackups (mtime ordering),
// RestoreBackup (chaining), DeleteBackup, CleanOldBackups and PruneOlderThan.

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/example/foxcode/internal/foxcode/domain"
	"github.com/example/foxcode/internal/foxcode/storage"
)

var baseTime = time.Date(2024, 3, 1, 10, 20, 30, 123_000_000, time.UTC)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestService(t *testing.T) (*Service, afero.Fs, *testClock) {
	t.Helper()
	fs := afero.NewMemMapFs()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(storage.New(fs), "/home/test/.foxcode/backups", logger)

	clock := &testClock{now: baseTime}
	svc.SetNow(clock.Now)
	counter := 0
	svc.SetSuffix(func() string {
		counter++
		return fmt.Sprintf("s%07d", counter)
	})
	return svc, fs, clock
}

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
		t.Fatalf("setup %s: %v", path, err)
	}
}

func readFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestCreateBackup_MissingFileIsNoop(t *testing.T) {
	svc, fs, _ := newTestService(t)

	path, err := svc.CreateBackup("/home/test/.claude/settings.json")
	if err != nil {
		t.Fatalf("CreateBackup should not error for missing file: %v", err)
	}
	if path != "" {
		t.Errorf("expected empty backup path, got %q", path)
	}
	if exists, _ := afero.Exists(fs, svc.BackupDir()); exists {
		t.Error("backup directory should not be created for a no-op")
	}
}

func TestCreateBackup_NamesEncodeToolAndFile(t *testing.T) {
	svc, fs, _ := newTestService(t)
	writeFile(t, fs, "/home/test/.claude/settings.json", `{"env":{}}`)

	backupPath, err := svc.CreateBackup("/home/test/.claude/settings.json")
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	want := filepath.Join(svc.BackupDir(), ".claude__settings.json__2024-03-01_10-20-30-123Z__s0000001")
	if backupPath != want {
		t.Errorf("backup path = %q, want %q", backupPath, want)
	}
	if got := readFile(t, fs, backupPath); got != `{"env":{}}` {
		t.Errorf("backup content = %q", got)
	}

	info, err := fs.Stat(backupPath)
	if err != nil {
		t.Fatalf("stat backup: %v", err)
	}
	if !info.ModTime().Equal(baseTime) {
		t.Errorf("expected mod time %v, got %v", baseTime, info.ModTime())
	}
}

func TestCreateBackup_SameMillisecondDoesNotCollide(t *testing.T) {
	svc, fs, _ := newTestService(t)
	writeFile(t, fs, "/home/test/.gemini/.env", "A=1\n")

	first, err := svc.CreateBackup("/home/test/.gemini/.env")
	if err != nil {
		t.Fatalf("first backup: %v", err)
	}
	writeFile(t, fs, "/home/test/.gemini/.env", "A=2\n")
	second, err := svc.CreateBackup("/home/test/.gemini/.env")
	if err != nil {
		t.Fatalf("second backup: %v", err)
	}

	if first == second {
		t.Fatal("backups in the same millisecond must get distinct names")
	}
	if readFile(t, fs, first) != "A=1\n" || readFile(t, fs, second) != "A=2\n" {
		t.Error("backups must keep the content they were taken from")
	}
}

func TestRandomSuffixIsAlphanumeric(t *testing.T) {
	for i := 0; i < 20; i++ {
		s := randomSuffix()
		if len(s) < 4 {
			t.Fatalf("suffix too short: %q", s)
		}
		for _, r := range s {
			if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
				t.Fatalf("suffix %q contains %q", s, r)
			}
		}
	}
}

func TestParseName(t *testing.T) {
	record, err := ParseName(".gemini__.env__2024-03-01_10-20-30-123Z__abcd1234")
	if err != nil {
		t.Fatalf("ParseName failed: %v", err)
	}
	if record.ToolDir != ".gemini" || record.FileName != ".env" || record.Suffix != "abcd1234" {
		t.Errorf("unexpected record %+v", record)
	}
	if !record.Timestamp.Equal(baseTime) {
		t.Errorf("timestamp = %v, want %v", record.Timestamp, baseTime)
	}
	if record.Name() != ".gemini__.env__2024-03-01_10-20-30-123Z__abcd1234" {
		t.Errorf("Name() did not round-trip: %q", record.Name())
	}

	odd, err := ParseName(".codex__my__file.toml__2024-03-01_10-20-30-123Z__zz99")
	if err != nil {
		t.Fatalf("ParseName with separator in file name: %v", err)
	}
	if odd.FileName != "my__file.toml" {
		t.Errorf("FileName = %q", odd.FileName)
	}

	invalid := []string{"", "settings.json", "a__b__c", ".claude__settings.json__not-a-time__abcd", "__x__2024-03-01_10-20-30-123Z__abcd"}
	for _, name := range invalid {
		if _, err := ParseName(name); !errors.Is(err, domain.ErrInvalidBackup) {
			t.Errorf("ParseName(%q) expected ErrInvalidBackup, got %v", name, err)
		}
	}
}

func TestListBackups_NewestFirst(t *testing.T) {
	svc, fs, clock := newTestService(t)
	writeFile(t, fs, "/home/test/.codex/auth.json", "{}")

	var created []string
	for i := 0; i < 3; i++ {
		p, err := svc.CreateBackup("/home/test/.codex/auth.json")
		if err != nil {
			t.Fatalf("backup %d: %v", i, err)
		}
		created = append(created, p)
		clock.Advance(time.Minute)
	}

	entries, err := svc.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, entry := range entries {
		if entry.Path != created[len(created)-1-i] {
			t.Errorf("entry %d = %s, want %s", i, entry.Path, created[len(created)-1-i])
		}
		if entry.Record == nil || entry.Record.ToolDir != ".codex" || entry.Record.FileName != "auth.json" {
			t.Errorf("entry %d record = %+v", i, entry.Record)
		}
	}
}

func TestListBackups_MissingDirectory(t *testing.T) {
	svc, _, _ := newTestService(t)

	entries, err := svc.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}

func TestRestoreBackup_RoundTripChainsABackup(t *testing.T) {
	svc, fs, clock := newTestService(t)
	target := "/home/test/.claude/settings.json"
	original := `{"env":{"ANTHROPIC_BASE_URL":"https://a.test"}}`
	writeFile(t, fs, target, original)

	backupPath, err := svc.CreateBackup(target)
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}
	writeFile(t, fs, target, `{"env":{"ANTHROPIC_BASE_URL":"https://b.test"}}`)
	clock.Advance(time.Second)

	chained, err := svc.RestoreBackup(backupPath, target)
	if err != nil {
		t.Fatalf("RestoreBackup failed: %v", err)
	}
	if got := readFile(t, fs, target); got != original {
		t.Errorf("restored content = %q, want %q", got, original)
	}
	if chained == "" {
		t.Fatal("expected a pre-restore backup")
	}
	if got := readFile(t, fs, chained); !strings.Contains(got, "b.test") {
		t.Errorf("pre-restore backup should hold the overwritten content, got %q", got)
	}

	entries, err := svc.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected original backup plus one chained backup, got %d", len(entries))
	}
	if exists, _ := afero.Exists(fs, backupPath); !exists {
		t.Error("restored backup must not be deleted")
	}
}

func TestRestoreBackup_MissingTargetCreatesIt(t *testing.T) {
	svc, fs, _ := newTestService(t)
	writeFile(t, fs, "/home/test/.codex/config.toml", "model = 'gpt-5'\n")
	backupPath, err := svc.CreateBackup("/home/test/.codex/config.toml")
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}
	if err := fs.Remove("/home/test/.codex/config.toml"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	chained, err := svc.RestoreBackup(backupPath, "/home/test/.codex/config.toml")
	if err != nil {
		t.Fatalf("RestoreBackup failed: %v", err)
	}
	if chained != "" {
		t.Errorf("no pre-restore backup expected for a missing target, got %q", chained)
	}
	if got := readFile(t, fs, "/home/test/.codex/config.toml"); got != "model = 'gpt-5'\n" {
		t.Errorf("restored content = %q", got)
	}
}

func TestRestoreBackup_MissingBackup(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.RestoreBackup(filepath.Join(svc.BackupDir(), "nope"), "/home/test/.claude/settings.json")
	if !domain.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestDeleteBackup(t *testing.T) {
	svc, fs, _ := newTestService(t)
	writeFile(t, fs, "/home/test/.claude/config.json", "{}")
	backupPath, err := svc.CreateBackup("/home/test/.claude/config.json")
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	if err := svc.DeleteBackup(backupPath); err != nil {
		t.Fatalf("DeleteBackup failed: %v", err)
	}
	if exists, _ := afero.Exists(fs, backupPath); exists {
		t.Error("backup should be gone")
	}

	if err := svc.DeleteBackup(backupPath); !domain.IsNotFound(err) {
		t.Errorf("expected NotFoundError on second delete, got %v", err)
	}
}

func TestDeleteBackup_RefusesPathsOutsideBackupDir(t *testing.T) {
	svc, fs, _ := newTestService(t)
	writeFile(t, fs, "/home/test/.claude/settings.json", "{}")

	for _, p := range []string{"/home/test/.claude/settings.json", svc.BackupDir(), filepath.Join(svc.BackupDir(), "..", "x")} {
		if err := svc.DeleteBackup(p); !errors.Is(err, domain.ErrOutsideBackups) {
			t.Errorf("DeleteBackup(%q) expected ErrOutsideBackups, got %v", p, err)
		}
	}
	if exists, _ := afero.Exists(fs, "/home/test/.claude/settings.json"); !exists {
		t.Error("file outside backup dir must not be deleted")
	}
}

func TestResolve(t *testing.T) {
	svc, _, _ := newTestService(t)

	if got := svc.Resolve("x__y__z__w"); got != filepath.Join(svc.BackupDir(), "x__y__z__w") {
		t.Errorf("Resolve(name) = %q", got)
	}
	if got := svc.Resolve("/tmp/../tmp/file"); got != "/tmp/file" {
		t.Errorf("Resolve(path) = %q", got)
	}
}

func TestCleanOldBackups_KeepsMostRecent(t *testing.T) {
	svc, fs, clock := newTestService(t)
	writeFile(t, fs, "/home/test/.gemini/settings.json", "{}")

	var created []string
	for i := 0; i < 5; i++ {
		p, err := svc.CreateBackup("/home/test/.gemini/settings.json")
		if err != nil {
			t.Fatalf("backup %d: %v", i, err)
		}
		created = append(created, p)
		clock.Advance(time.Hour)
	}

	deleted, err := svc.CleanOldBackups(2)
	if err != nil {
		t.Fatalf("CleanOldBackups failed: %v", err)
	}
	if deleted != 3 {
		t.Errorf("expected 3 deleted, got %d", deleted)
	}

	entries, err := svc.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 remaining, got %d", len(entries))
	}
	if entries[0].Path != created[4] || entries[1].Path != created[3] {
		t.Errorf("wrong backups kept: %s, %s", entries[0].Path, entries[1].Path)
	}
}

func TestCleanOldBackups_NothingToDo(t *testing.T) {
	svc, fs, _ := newTestService(t)
	writeFile(t, fs, "/home/test/.gemini/settings.json", "{}")
	if _, err := svc.CreateBackup("/home/test/.gemini/settings.json"); err != nil {
		t.Fatalf("backup: %v", err)
	}

	deleted, err := svc.CleanOldBackups(10)
	if err != nil || deleted != 0 {
		t.Errorf("expected no deletions, got %d, %v", deleted, err)
	}
	if _, err := svc.CleanOldBackups(-1); err == nil {
		t.Error("expected error for negative keep count")
	}
}

// failingRemoveFs fails Remove for one path so best-effort cleanup can be observed.
type failingRemoveFs struct {
	afero.Fs
	failPath string
}

func (f *failingRemoveFs) Remove(name string) error {
	if name == f.failPath {
		return errors.New("simulated remove failure")
	}
	return f.Fs.Remove(name)
}

func TestCleanOldBackups_SkipsFailures(t *testing.T) {
	mem := afero.NewMemMapFs()
	ffs := &failingRemoveFs{Fs: mem}
	svc := New(storage.New(ffs), "/backups", nil)
	clock := &testClock{now: baseTime}
	svc.SetNow(clock.Now)

	writeFile(t, mem, "/home/.claude/settings.json", "{}")
	var created []string
	for i := 0; i < 4; i++ {
		p, err := svc.CreateBackup("/home/.claude/settings.json")
		if err != nil {
			t.Fatalf("backup %d: %v", i, err)
		}
		created = append(created, p)
		clock.Advance(time.Minute)
	}
	ffs.failPath = created[1]

	deleted, err := svc.CleanOldBackups(1)
	if err != nil {
		t.Fatalf("CleanOldBackups should not fail on a single bad file: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 deleted, got %d", deleted)
	}
	if exists, _ := afero.Exists(mem, created[1]); !exists {
		t.Error("the failing file should still be there")
	}
}

func TestPruneOlderThan(t *testing.T) {
	svc, fs, clock := newTestService(t)
	writeFile(t, fs, "/home/test/.codex/auth.json", "{}")

	old, err := svc.CreateBackup("/home/test/.codex/auth.json")
	if err != nil {
		t.Fatalf("old backup: %v", err)
	}
	clock.Advance(40 * 24 * time.Hour)
	recent, err := svc.CreateBackup("/home/test/.codex/auth.json")
	if err != nil {
		t.Fatalf("recent backup: %v", err)
	}

	deleted, err := svc.PruneOlderThan(30 * 24 * time.Hour)
	if err != nil {
		t.Fatalf("PruneOlderThan failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}
	if exists, _ := afero.Exists(fs, old); exists {
		t.Error("old backup should be deleted")
	}
	if exists, _ := afero.Exists(fs, recent); !exists {
		t.Error("recent backup should remain")
	}
}
