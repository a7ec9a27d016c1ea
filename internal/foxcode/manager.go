package foxcode

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/example/foxcode/internal/foxcode/backup"
	"github.com/example/foxcode/internal/foxcode/domain"
	"github.com/example/foxcode/internal/foxcode/fileformat"
	"github.com/example/foxcode/internal/foxcode/paths"
	"github.com/example/foxcode/internal/foxcode/profile"
	"github.com/example/foxcode/internal/foxcode/storage"
	"github.com/example/foxcode/internal/foxcode/tools"
	"github.com/example/foxcode/internal/foxcode/validator"
)

// DefaultKeepBackups is how many backups `backup clean` keeps when not told otherwise.
const DefaultKeepBackups = 10

// Manager coordinates profiles, tool config files and backups.
type Manager struct {
	fs       afero.Fs
	logger   *slog.Logger
	now      func() time.Time
	paths    *paths.PathBuilder
	storage  *storage.Storage
	files    *fileformat.Adapter
	backup   *backup.Service
	profiles *profile.Store
}

// NewManager constructs a Manager. Tool configs and backups live under homeDir;
// the profile store lives in configDir. A nil logger discards all output.
func NewManager(fs afero.Fs, homeDir, configDir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	pathBuilder := paths.New(homeDir, configDir)
	stor := storage.New(fs)

	return &Manager{
		fs:       fs,
		logger:   logger,
		now:      time.Now,
		paths:    pathBuilder,
		storage:  stor,
		files:    fileformat.New(stor),
		backup:   backup.New(stor, pathBuilder.BackupDir(), logger),
		profiles: profile.New(stor, pathBuilder.StorePath()),
	}
}

// SetNow overrides the clock used for profile timestamps and backups. nil restores time.Now.
func (m *Manager) SetNow(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	m.now = now
	m.backup.SetNow(now)
}

// HomeDir returns the directory the tool configs live under.
func (m *Manager) HomeDir() string { return m.paths.HomeDir() }

// ConfigDir returns the directory holding the profile store.
func (m *Manager) ConfigDir() string { return m.paths.ConfigDir() }

// StorePath returns the profile store file.
func (m *Manager) StorePath() string { return m.profiles.Path() }

// BackupDir returns the backup directory.
func (m *Manager) BackupDir() string { return m.backup.BackupDir() }

// ToolDir returns the config directory of tool.
func (m *Manager) ToolDir(tool domain.Tool) string { return m.paths.ToolDir(tool) }

// Backups exposes the backup service.
func (m *Manager) Backups() *backup.Service { return m.backup }

// Handler returns the config handler for tool.
func (m *Manager) Handler(tool domain.Tool) (tools.Handler, error) {
	return tools.New(tool, tools.Deps{Paths: m.paths, Files: m.files, Backups: m.backup})
}

// InitInfra ensures the profile store and backup directories exist.
func (m *Manager) InitInfra() error {
	if err := m.storage.MkdirAll(m.paths.ConfigDir()); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := m.storage.MkdirAll(m.backup.BackupDir()); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}
	return nil
}

// ProfileInput is the user-supplied part of a profile.
type ProfileInput struct {
	Name   string
	Tool   domain.Tool
	URL    string
	APIKey string
}

// normalize validates the input and returns it in stored form.
func (in ProfileInput) normalize() (ProfileInput, error) {
	tool, err := domain.ParseTool(string(in.Tool))
	if err != nil {
		return in, err
	}
	out := ProfileInput{
		Name:   validator.NormalizeName(in.Name),
		Tool:   tool,
		URL:    validator.NormalizeURL(strings.TrimSpace(in.URL)),
		APIKey: strings.TrimSpace(in.APIKey),
	}
	if err := validator.ValidateName(out.Name); err != nil {
		return out, err
	}
	if err := validator.ValidateURL(out.URL); err != nil {
		return out, err
	}
	if err := validator.ValidateAPIKey(out.APIKey); err != nil {
		return out, err
	}
	return out, nil
}

// CheckNewName normalizes name and verifies it is valid and not yet taken.
func (m *Manager) CheckNewName(name string) (string, error) {
	normalized := validator.NormalizeName(name)
	if err := validator.ValidateName(normalized); err != nil {
		return normalized, err
	}
	_, exists, err := m.profiles.Get(normalized)
	if err != nil {
		return normalized, err
	}
	if exists {
		return normalized, fmt.Errorf("%w: %s", domain.ErrProfileExists, normalized)
	}
	return normalized, nil
}

// CreateProfile validates and stores a new profile. Names are unique across all tools.
func (m *Manager) CreateProfile(in ProfileInput) (profile.Profile, error) {
	normalized, err := in.normalize()
	if err != nil {
		return profile.Profile{}, err
	}
	if _, err := m.CheckNewName(normalized.Name); err != nil {
		return profile.Profile{}, err
	}

	now := m.now().UTC()
	p := profile.Profile{
		Name:      normalized.Name,
		Tool:      normalized.Tool,
		URL:       normalized.URL,
		APIKey:    normalized.APIKey,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.profiles.Add(p); err != nil {
		return profile.Profile{}, err
	}
	m.logger.Info("profile created", "name", p.Name, "tool", p.Tool)
	return p, nil
}

// Profiles returns all stored profiles.
func (m *Manager) Profiles() ([]profile.Profile, error) {
	return m.profiles.All()
}

// ProfilesByTool returns the stored profiles of tool.
func (m *Manager) ProfilesByTool(tool domain.Tool) ([]profile.Profile, error) {
	return m.profiles.ByTool(tool)
}

// Profile looks up a profile. The name is normalized first.
func (m *Manager) Profile(name string) (profile.Profile, error) {
	normalized := validator.NormalizeName(name)
	p, ok, err := m.profiles.Get(normalized)
	if err != nil {
		return profile.Profile{}, err
	}
	if !ok {
		return profile.Profile{}, &domain.NotFoundError{Kind: "profile", Name: normalized}
	}
	return p, nil
}

// ListEntries returns the rows for the list command.
func (m *Manager) ListEntries() ([]profile.ListEntry, error) {
	return m.profiles.ListEntries()
}

// UpdateProfile replaces the URL and/or API key of an existing profile. Empty
// arguments keep the stored value. createdAt is preserved and updatedAt bumped.
// changed is false, and nothing is written, when the values are unchanged.
func (m *Manager) UpdateProfile(name, url, apiKey string) (updated profile.Profile, changed bool, err error) {
	existing, err := m.Profile(name)
	if err != nil {
		return profile.Profile{}, false, err
	}

	updated = existing
	if url = strings.TrimSpace(url); url != "" {
		updated.URL = validator.NormalizeURL(url)
		if err := validator.ValidateURL(updated.URL); err != nil {
			return existing, false, err
		}
	}
	if apiKey = strings.TrimSpace(apiKey); apiKey != "" {
		updated.APIKey = apiKey
		if err := validator.ValidateAPIKey(updated.APIKey); err != nil {
			return existing, false, err
		}
	}
	if updated.URL == existing.URL && updated.APIKey == existing.APIKey {
		return existing, false, nil
	}

	updated.UpdatedAt = m.now().UTC()
	if err := m.profiles.Add(updated); err != nil {
		return existing, false, err
	}
	m.logger.Info("profile updated", "name", updated.Name, "tool", updated.Tool)
	return updated, true, nil
}

// UseProfile writes the profile's credentials into its tool's config files and
// marks it current for that tool.
func (m *Manager) UseProfile(name string) (profile.Profile, error) {
	p, err := m.Profile(name)
	if err != nil {
		return profile.Profile{}, err
	}
	handler, err := m.Handler(p.Tool)
	if err != nil {
		return p, err
	}
	if err := handler.ApplyConfig(p.URL, p.APIKey); err != nil {
		return p, err
	}
	if err := m.profiles.SetCurrent(p.Tool, p.Name); err != nil {
		return p, err
	}
	m.logger.Info("profile applied", "name", p.Name, "tool", p.Tool)
	return p, nil
}

// RemoveProfile deletes a profile and clears its tool's current pointer when it was current.
func (m *Manager) RemoveProfile(name string) (removed profile.Profile, wasCurrent bool, err error) {
	p, err := m.Profile(name)
	if err != nil {
		return profile.Profile{}, false, err
	}
	current, ok, err := m.profiles.Current(p.Tool)
	if err != nil {
		return p, false, err
	}
	if _, err := m.profiles.Remove(p.Name); err != nil {
		return p, false, err
	}
	if ok && current == p.Name {
		if err := m.profiles.ClearCurrent(p.Tool); err != nil {
			return p, true, err
		}
		wasCurrent = true
	}
	m.logger.Info("profile removed", "name", p.Name, "tool", p.Tool)
	return p, wasCurrent, nil
}

// CurrentEntry is the current-pointer state of one tool.
type CurrentEntry struct {
	Tool domain.Tool
	// Name is empty when no profile is current.
	Name string
	// Profile is nil when the pointer names a profile that no longer exists.
	Profile *profile.Profile
}

// Current returns the current-pointer state of every tool.
func (m *Manager) Current() ([]CurrentEntry, error) {
	entries := make([]CurrentEntry, 0, len(domain.Tools()))
	for _, tool := range domain.Tools() {
		entry := CurrentEntry{Tool: tool}
		name, ok, err := m.profiles.Current(tool)
		if err != nil {
			return nil, err
		}
		if ok {
			entry.Name = name
			p, found, err := m.profiles.Get(name)
			if err != nil {
				return nil, err
			}
			if found {
				entry.Profile = &p
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ToolStatus summarizes one tool for the status command.
type ToolStatus struct {
	CurrentEntry
	ToolDir      string
	ProfileCount int
	Live         tools.Live
	// InspectErr is set when the tool's files could not be read.
	InspectErr error
}

// InSync reports whether the files on disk hold the current profile's credentials.
func (s ToolStatus) InSync() bool {
	return s.Profile != nil && s.InspectErr == nil && s.Live.Matches(s.Profile.URL, s.Profile.APIKey)
}

// Status returns the state of every tool. Unreadable tool files are reported
// in InspectErr rather than failing the whole call.
func (m *Manager) Status() ([]ToolStatus, error) {
	current, err := m.Current()
	if err != nil {
		return nil, err
	}
	statuses := make([]ToolStatus, 0, len(current))
	for _, entry := range current {
		profiles, err := m.profiles.ByTool(entry.Tool)
		if err != nil {
			return nil, err
		}
		status := ToolStatus{
			CurrentEntry: entry,
			ToolDir:      m.paths.ToolDir(entry.Tool),
			ProfileCount: len(profiles),
		}
		handler, err := m.Handler(entry.Tool)
		if err != nil {
			return nil, err
		}
		status.Live, status.InspectErr = handler.Inspect()
		if status.InspectErr != nil {
			m.logger.Warn("failed to inspect tool config", "tool", entry.Tool, "error", status.InspectErr)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// ListBackups returns the backups, newest first.
func (m *Manager) ListBackups() ([]backup.Entry, error) {
	return m.backup.ListBackups()
}

// RestoreTarget returns the original location of a backup, derived from its name.
func (m *Manager) RestoreTarget(nameOrPath string) (string, error) {
	record, err := backup.ParseName(filepath.Base(nameOrPath))
	if err != nil {
		return "", err
	}
	known := false
	for _, tool := range domain.Tools() {
		if filepath.Base(m.paths.ToolDir(tool)) == record.ToolDir {
			known = true
			break
		}
	}
	if !known || record.FileName != filepath.Base(record.FileName) {
		return "", fmt.Errorf("%w: %s does not belong to a managed tool", domain.ErrInvalidBackup, filepath.Base(nameOrPath))
	}
	return m.paths.RestoreTarget(record.ToolDir, record.FileName), nil
}

// RestoreBackup copies a backup back to its original location. The file it
// replaces is backed up first; that backup's path is returned as chained.
func (m *Manager) RestoreBackup(nameOrPath string) (target, chained string, err error) {
	backupPath := m.backup.Resolve(nameOrPath)
	target, err = m.RestoreTarget(backupPath)
	if err != nil {
		return "", "", err
	}
	chained, err = m.backup.RestoreBackup(backupPath, target)
	return target, chained, err
}

// DeleteBackup removes one backup.
func (m *Manager) DeleteBackup(nameOrPath string) error {
	return m.backup.DeleteBackup(m.backup.Resolve(nameOrPath))
}

// CleanBackups keeps the keep most recent backups and deletes the rest.
func (m *Manager) CleanBackups(keep int) (int, error) {
	return m.backup.CleanOldBackups(keep)
}

// PruneBackups removes backups older than the given age.
func (m *Manager) PruneBackups(olderThan time.Duration) (int, error) {
	if olderThan <= 0 {
		return 0, errors.New("retention interval must be positive")
	}
	return m.backup.PruneOlderThan(olderThan)
}
