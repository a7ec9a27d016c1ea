package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"sort"
	"time"

	"github.com/example/foxcode/internal/foxcode/domain"
	"github.com/example/foxcode/internal/foxcode/storage"
	"github.com/example/foxcode/internal/foxcode/validator"
)

// Profile is a named set of credentials for one tool.
type Profile struct {
	Name      string      `json:"name"`
	Tool      domain.Tool `json:"tool"`
	URL       string      `json:"url"`
	APIKey    string      `json:"apiKey"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// document is the on-disk shape of the store file.
type document struct {
	Profiles []Profile             `json:"profiles"`
	Current  map[domain.Tool]string `json:"current"`
}

// Store handles profile persistence and the per-tool current pointer.
//
// Every call reads the store file and every mutation writes it back before
// returning, so a Store holds no state besides its path.
type Store struct {
	storage *storage.Storage
	path    string
}

// New creates a new profile Store backed by path.
func New(storage *storage.Storage, path string) *Store {
	return &Store{storage: storage, path: path}
}

// Path returns the store file location.
func (s *Store) Path() string {
	return s.path
}

// All returns every stored profile in insertion order.
func (s *Store) All() ([]Profile, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.Profiles, nil
}

// Get looks up a profile by exact name.
func (s *Store) Get(name string) (Profile, bool, error) {
	doc, err := s.load()
	if err != nil {
		return Profile{}, false, err
	}
	if i := doc.index(name); i >= 0 {
		return doc.Profiles[i], true, nil
	}
	return Profile{}, false, nil
}

// ByTool returns the profiles belonging to tool in insertion order.
func (s *Store) ByTool(tool domain.Tool) ([]Profile, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	var out []Profile
	for _, p := range doc.Profiles {
		if p.Tool == tool {
			out = append(out, p)
		}
	}
	return out, nil
}

// Add stores p. A profile with the same name is replaced in place, otherwise p is appended.
func (s *Store) Add(p Profile) error {
	doc, err := s.load()
	if err != nil {
		return err
	}
	if i := doc.index(p.Name); i >= 0 {
		doc.Profiles[i] = p
	} else {
		doc.Profiles = append(doc.Profiles, p)
	}
	return s.save(doc)
}

// Remove deletes the named profile and reports whether it existed.
// The current pointer is left alone; callers decide whether to clear it.
func (s *Store) Remove(name string) (bool, error) {
	doc, err := s.load()
	if err != nil {
		return false, err
	}
	i := doc.index(name)
	if i < 0 {
		return false, nil
	}
	doc.Profiles = append(doc.Profiles[:i], doc.Profiles[i+1:]...)
	return true, s.save(doc)
}

// Current returns the profile name marked current for tool.
func (s *Store) Current(tool domain.Tool) (string, bool, error) {
	doc, err := s.load()
	if err != nil {
		return "", false, err
	}
	name, ok := doc.Current[tool]
	if !ok || name == "" {
		return "", false, nil
	}
	return name, true, nil
}

// SetCurrent marks name as current for tool. The name is not checked against stored profiles.
func (s *Store) SetCurrent(tool domain.Tool, name string) error {
	doc, err := s.load()
	if err != nil {
		return err
	}
	doc.Current[tool] = name
	return s.save(doc)
}

// ClearCurrent removes the current pointer for tool.
func (s *Store) ClearCurrent(tool domain.Tool) error {
	doc, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := doc.Current[tool]; !ok {
		return nil
	}
	delete(doc.Current, tool)
	return s.save(doc)
}

func (d *document) index(name string) int {
	for i, p := range d.Profiles {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func (s *Store) load() (*document, error) {
	doc := &document{Profiles: []Profile{}, Current: map[domain.Tool]string{}}

	data, err := s.storage.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc, nil
		}
		return nil, &domain.FileError{Path: s.path, Op: "read", Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, &domain.FileError{Path: s.path, Op: "parse", Err: err}
	}
	if doc.Profiles == nil {
		doc.Profiles = []Profile{}
	}
	if doc.Current == nil {
		doc.Current = map[domain.Tool]string{}
	}
	return doc, nil
}

func (s *Store) save(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &domain.FileError{Path: s.path, Op: "encode", Err: err}
	}
	if err := s.storage.WritePrivateFile(s.path, append(data, '\n')); err != nil {
		return &domain.FileError{Path: s.path, Op: "write", Err: err}
	}
	return nil
}

// ListEntry describes a profile row for list output.
type ListEntry struct {
	Name       string
	Tool       domain.Tool
	URL        string
	MaskedKey  string
	Prefix     string
	Qualifiers []string
}

// ListEntries computes display rows grouped by tool in domain.Tools order.
//
// Each entry includes:
//   - Prefix: "*" for the tool's current profile, space otherwise
//   - Qualifiers: "current" on the current profile
//   - MaskedKey: the API key with its middle hidden
//
// A current pointer naming a profile that no longer exists is listed with
// prefix "!" and the qualifier "missing!".
func (s *Store) ListEntries() ([]ListEntry, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	var entries []ListEntry
	for _, tool := range domain.Tools() {
		current := doc.Current[tool]
		currentHandled := false

		var group []Profile
		for _, p := range doc.Profiles {
			if p.Tool == tool {
				group = append(group, p)
			}
		}
		sort.SliceStable(group, func(i, j int) bool { return group[i].Name < group[j].Name })

		for _, p := range group {
			entry := ListEntry{
				Name:      p.Name,
				Tool:      p.Tool,
				URL:       p.URL,
				MaskedKey: validator.MaskAPIKey(p.APIKey),
				Prefix:    " ",
			}
			if p.Name == current {
				entry.Prefix = "*"
				entry.Qualifiers = append(entry.Qualifiers, "current")
				currentHandled = true
			}
			entries = append(entries, entry)
		}

		if current != "" && !currentHandled {
			entries = append(entries, ListEntry{
				Name:       current,
				Tool:       tool,
				Prefix:     "!",
				Qualifiers: []string{"current", "missing!"},
			})
		}
	}
	return entries, nil
}
