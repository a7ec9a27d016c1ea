package backup

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/foxcode/internal/foxcode/domain"
	"github.com/example/foxcode/internal/foxcode/storage"
)

const (
	separator       = "__"
	timestampLayout = "2006-01-02_15-04-05.000"
	suffixLength    = 8
)

// Record is the information encoded in a backup file name.
type Record struct {
	ToolDir   string
	FileName  string
	Timestamp time.Time
	Suffix    string
}

// Name renders the record as a backup file name.
func (r Record) Name() string {
	return strings.Join([]string{r.ToolDir, r.FileName, formatTimestamp(r.Timestamp), r.Suffix}, separator)
}

// Entry describes one file in the backup directory.
type Entry struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	// Record is nil when the file name does not follow the backup naming scheme.
	Record *Record
}

// Service manages timestamped copies of tool config files.
type Service struct {
	storage   *storage.Storage
	backupDir string
	now       func() time.Time
	suffix    func() string
	logger    *slog.Logger
}

// New creates a new backup Service.
func New(storage *storage.Storage, backupDir string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		storage:   storage,
		backupDir: backupDir,
		now:       time.Now,
		suffix:    randomSuffix,
		logger:    logger,
	}
}

// SetNow allows overriding the clock for testing.
func (s *Service) SetNow(now func() time.Time) {
	if now == nil {
		s.now = time.Now
		return
	}
	s.now = now
}

// SetSuffix allows overriding the random name suffix for testing.
func (s *Service) SetSuffix(suffix func() string) {
	if suffix == nil {
		s.suffix = randomSuffix
		return
	}
	s.suffix = suffix
}

// BackupDir returns the backup directory path.
func (s *Service) BackupDir() string {
	return s.backupDir
}

// CreateBackup copies path into the backup directory and returns the backup's path.
// A missing path is not an error; the returned path is empty.
//
// Backup files are named:
//
//	<toolDir>__<fileName>__<timestamp>__<suffix>
//
// where toolDir is the base name of the file's parent directory, so a backup
// can be traced back to the tool it came from. The random suffix keeps two
// backups taken within the same millisecond apart.
func (s *Service) CreateBackup(path string) (string, error) {
	info, err := s.storage.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", &domain.FileError{Path: path, Op: "stat", Err: err}
	}
	if info.IsDir() {
		return "", &domain.FileError{Path: path, Op: "backup", Err: errors.New("is a directory")}
	}

	if err := s.storage.MkdirAll(s.backupDir); err != nil {
		return "", &domain.FileError{Path: s.backupDir, Op: "create backup directory", Err: err}
	}

	now := s.now()
	record := Record{
		ToolDir:   filepath.Base(filepath.Dir(path)),
		FileName:  filepath.Base(path),
		Timestamp: now,
		Suffix:    s.suffix(),
	}
	backupPath := filepath.Join(s.backupDir, record.Name())

	if err := s.storage.CopyFile(path, backupPath); err != nil {
		return "", &domain.FileError{Path: backupPath, Op: "backup", Err: err}
	}
	if err := s.storage.Chtimes(backupPath, now, now); err != nil {
		return "", &domain.FileError{Path: backupPath, Op: "set backup time", Err: err}
	}

	s.logger.Info("backup created",
		"path", path,
		"backup_path", backupPath)

	return backupPath, nil
}

// ListBackups returns the backup directory entries, newest modification time first.
// A missing backup directory yields an empty list.
func (s *Service) ListBackups() ([]Entry, error) {
	infos, err := s.storage.ReadDir(s.backupDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &domain.FileError{Path: s.backupDir, Op: "read backup directory", Err: err}
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		entry := Entry{
			Path:    filepath.Join(s.backupDir, info.Name()),
			Name:    info.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
		if record, err := ParseName(info.Name()); err == nil {
			entry.Record = &record
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].ModTime.Equal(entries[j].ModTime) {
			return entries[i].ModTime.After(entries[j].ModTime)
		}
		return entries[i].Name > entries[j].Name
	})
	return entries, nil
}

// Resolve turns a bare backup file name into a path inside the backup directory.
// Paths are cleaned and returned unchanged.
func (s *Service) Resolve(nameOrPath string) string {
	if strings.ContainsRune(nameOrPath, filepath.Separator) || strings.Contains(nameOrPath, "/") {
		return filepath.Clean(nameOrPath)
	}
	return filepath.Join(s.backupDir, nameOrPath)
}

// RestoreBackup copies backupPath over targetPath. An existing target is backed
// up first and the returned path is that pre-restore backup (empty when the
// target did not exist). The restored backup itself is kept.
func (s *Service) RestoreBackup(backupPath, targetPath string) (string, error) {
	exists, err := s.storage.Exists(backupPath)
	if err != nil {
		return "", &domain.FileError{Path: backupPath, Op: "stat", Err: err}
	}
	if !exists {
		return "", &domain.NotFoundError{Kind: "backup", Name: backupPath}
	}

	chained, err := s.CreateBackup(targetPath)
	if err != nil {
		return "", err
	}

	if err := s.storage.CopyFile(backupPath, targetPath); err != nil {
		return chained, &domain.FileError{Path: targetPath, Op: "restore", Err: err}
	}

	s.logger.Info("backup restored",
		"backup_path", backupPath,
		"target", targetPath,
		"pre_restore_backup", chained)

	return chained, nil
}

// DeleteBackup removes a single backup file.
func (s *Service) DeleteBackup(backupPath string) error {
	if !s.inBackupDir(backupPath) {
		return fmt.Errorf("%w: %s", domain.ErrOutsideBackups, backupPath)
	}
	exists, err := s.storage.Exists(backupPath)
	if err != nil {
		return &domain.FileError{Path: backupPath, Op: "stat", Err: err}
	}
	if !exists {
		return &domain.NotFoundError{Kind: "backup", Name: backupPath}
	}
	if err := s.storage.Remove(backupPath); err != nil {
		return &domain.FileError{Path: backupPath, Op: "delete", Err: err}
	}
	s.logger.Info("backup deleted", "backup_path", backupPath)
	return nil
}

// CleanOldBackups keeps the keepCount most recently modified backups and deletes the rest.
//
// Deletion is best-effort: a file that cannot be removed is logged and skipped
// so one bad entry does not block the cleanup. Returns the number deleted.
func (s *Service) CleanOldBackups(keepCount int) (int, error) {
	if keepCount < 0 {
		return 0, fmt.Errorf("keep count cannot be negative: %d", keepCount)
	}
	entries, err := s.ListBackups()
	if err != nil {
		return 0, err
	}
	if len(entries) <= keepCount {
		return 0, nil
	}
	return s.removeAll(entries[keepCount:]), nil
}

// PruneOlderThan deletes backups whose modification time is older than the
// given age. Like CleanOldBackups it skips files it cannot remove.
func (s *Service) PruneOlderThan(olderThan time.Duration) (int, error) {
	entries, err := s.ListBackups()
	if err != nil {
		return 0, err
	}
	cutoff := s.now().Add(-olderThan)
	var stale []Entry
	for _, entry := range entries {
		if entry.ModTime.Before(cutoff) {
			stale = append(stale, entry)
		}
	}
	return s.removeAll(stale), nil
}

func (s *Service) removeAll(entries []Entry) int {
	deleted := 0
	for _, entry := range entries {
		if err := s.storage.Remove(entry.Path); err != nil {
			s.logger.Warn("failed to delete backup",
				"backup_path", entry.Path,
				"error", err)
			continue
		}
		deleted++
	}
	return deleted
}

func (s *Service) inBackupDir(path string) bool {
	rel, err := filepath.Rel(s.backupDir, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != "." && !strings.HasPrefix(rel, "..") && !strings.ContainsRune(rel, filepath.Separator)
}

// ParseName recovers the record encoded in a backup file name.
func ParseName(name string) (Record, error) {
	parts := strings.Split(name, separator)
	if len(parts) < 4 {
		return Record{}, fmt.Errorf("%w: %s", domain.ErrInvalidBackup, name)
	}
	ts, err := parseTimestamp(parts[len(parts)-2])
	if err != nil {
		return Record{}, fmt.Errorf("%w: %s: %v", domain.ErrInvalidBackup, name, err)
	}
	record := Record{
		ToolDir:   parts[0],
		FileName:  strings.Join(parts[1:len(parts)-2], separator),
		Timestamp: ts,
		Suffix:    parts[len(parts)-1],
	}
	if record.ToolDir == "" || record.FileName == "" || record.Suffix == "" {
		return Record{}, fmt.Errorf("%w: %s", domain.ErrInvalidBackup, name)
	}
	return record, nil
}

// formatTimestamp renders t as 2006-01-02_15-04-05-000Z: UTC, millisecond
// precision, no characters that are awkward in file names.
func formatTimestamp(t time.Time) string {
	return strings.Replace(t.UTC().Format(timestampLayout), ".", "-", 1) + "Z"
}

func parseTimestamp(s string) (time.Time, error) {
	trimmed, ok := strings.CutSuffix(s, "Z")
	idx := strings.LastIndex(trimmed, "-")
	if !ok || idx < 0 {
		return time.Time{}, fmt.Errorf("malformed timestamp %q", s)
	}
	return time.Parse(timestampLayout, trimmed[:idx]+"."+trimmed[idx+1:])
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixLength]
}
