// Package tools merges profile credentials into the config files of the
// supported AI command-line tools.
package tools

import (
	"fmt"

	"github.com/example/foxcode/internal/foxcode/backup"
	"github.com/example/foxcode/internal/foxcode/domain"
	"github.com/example/foxcode/internal/foxcode/fileformat"
	"github.com/example/foxcode/internal/foxcode/paths"
)

// Handler applies credentials to one tool's config files.
type Handler interface {
	Tool() domain.Tool
	// Files lists the config files the handler owns, in write order.
	Files() []File
	// ApplyConfig merges url and apiKey into the tool's files. Existing files are
	// backed up before they are overwritten. A failure returns *domain.ApplyError
	// and leaves files written before it in place.
	ApplyConfig(url, apiKey string) error
	// Inspect reads the credentials currently on disk.
	Inspect() (Live, error)
}

// File is one config file owned by a handler.
type File struct {
	Path   string
	Format fileformat.Format
}

// Live is what a tool's files currently say.
type Live struct {
	Tool domain.Tool
	// Present is false when the file holding the base URL does not exist.
	Present bool
	BaseURL string
	APIKey  string
}

// Matches reports whether the files on disk hold the given URL and key.
func (l Live) Matches(url, apiKey string) bool {
	return l.Present && l.BaseURL == url && l.APIKey == apiKey
}

// Deps are the collaborators shared by all handlers.
type Deps struct {
	Paths   *paths.PathBuilder
	Files   *fileformat.Adapter
	Backups *backup.Service
}

// New returns the handler for tool.
func New(tool domain.Tool, deps Deps) (Handler, error) {
	w := writer{files: deps.Files, backups: deps.Backups}
	switch tool {
	case domain.ToolClaude:
		return &claudeHandler{
			writer:   w,
			settings: File{Path: deps.Paths.ClaudeSettingsPath(), Format: fileformat.JSON},
			config:   File{Path: deps.Paths.ClaudeConfigPath(), Format: fileformat.JSON},
		}, nil
	case domain.ToolCodex:
		return &codexHandler{
			writer: w,
			config: File{Path: deps.Paths.CodexConfigPath(), Format: fileformat.TOML},
			auth:   File{Path: deps.Paths.CodexAuthPath(), Format: fileformat.JSON},
		}, nil
	case domain.ToolGemini:
		return &geminiHandler{
			writer:   w,
			env:      File{Path: deps.Paths.GeminiEnvPath(), Format: fileformat.Env},
			settings: File{Path: deps.Paths.GeminiSettingsPath(), Format: fileformat.JSON},
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownTool, tool)
	}
}

// writer is the read/backup/write plumbing the handlers share.
type writer struct {
	files   *fileformat.Adapter
	backups *backup.Service
}

// load reads f, falling back to a fresh template only when the file is absent.
func (w writer) load(f File, template func() fileformat.Document) (fileformat.Document, bool, error) {
	doc, found, err := w.files.Read(f.Path, f.Format)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return template(), false, nil
	}
	return doc, true, nil
}

// store writes doc to f, backing up the previous content when the file existed.
func (w writer) store(f File, existed bool, doc fileformat.Document) error {
	if existed {
		if _, err := w.backups.CreateBackup(f.Path); err != nil {
			return err
		}
	}
	return w.files.Write(f.Path, f.Format, doc)
}

// ensure writes the template to f when the file does not exist and leaves it untouched otherwise.
func (w writer) ensure(f File, template func() fileformat.Document) error {
	exists, err := w.files.Exists(f.Path)
	if err != nil || exists {
		return err
	}
	return w.files.Write(f.Path, f.Format, template())
}

func applyError(tool domain.Tool, err error) error {
	return &domain.ApplyError{Tool: tool.String(), Err: err}
}

func stringValue(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	switch v := m[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
