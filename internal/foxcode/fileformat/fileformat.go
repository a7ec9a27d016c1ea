// Package fileformat reads and writes tool configuration files as generic documents.
//
// Three formats are supported: JSON objects, TOML documents and dotenv-style
// KEY=VALUE files. Read distinguishes a missing file (found == false) from a
// file that exists but holds nothing, so callers only fall back to a template
// for files that are really absent.
package fileformat

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/example/foxcode/internal/foxcode/domain"
	"github.com/example/foxcode/internal/foxcode/storage"
)

// Format names an on-disk serialization.
type Format string

const (
	JSON Format = "json"
	TOML Format = "toml"
	Env  Format = "env"
)

// Document is the generic key-value form of a config file.
// Decoded env documents hold RawValue values; callers may set plain strings.
type Document map[string]any

// RawValue is the text after '=' on an env line, exactly as it appears in the
// file (quotes, escapes and inline comments included). Encode writes it back
// unchanged. Use EnvString to get the value a dotenv loader would see.
type RawValue string

// Adapter reads and writes documents through Storage.
type Adapter struct {
	storage *storage.Storage
}

// New creates an Adapter.
func New(storage *storage.Storage) *Adapter {
	return &Adapter{storage: storage}
}

// Exists reports whether path is present.
func (a *Adapter) Exists(path string) (bool, error) {
	ok, err := a.storage.Exists(path)
	if err != nil {
		return false, &domain.FileError{Path: path, Op: "stat", Err: err}
	}
	return ok, nil
}

// ReadRaw returns the file contents. found is false when the file does not exist.
func (a *Adapter) ReadRaw(path string) (data []byte, found bool, err error) {
	data, err = a.storage.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, &domain.FileError{Path: path, Op: "read", Err: err}
	}
	return data, true, nil
}

// Read loads and parses path. found is false when the file does not exist, in which
// case doc is nil. An existing file with no content yields an empty, non-nil Document.
func (a *Adapter) Read(path string, format Format) (doc Document, found bool, err error) {
	data, found, err := a.ReadRaw(path)
	if err != nil || !found {
		return nil, found, err
	}
	doc, err = Decode(data, format)
	if err != nil {
		return nil, true, &domain.FileError{Path: path, Op: "parse", Err: err}
	}
	return doc, true, nil
}

// Write serializes doc and replaces path, creating parent directories.
// It does not take a backup; callers that overwrite existing files do that first.
func (a *Adapter) Write(path string, format Format, doc Document) error {
	data, err := Encode(doc, format)
	if err != nil {
		return &domain.FileError{Path: path, Op: "encode", Err: err}
	}
	if err := a.storage.WriteFileAtomic(path, data); err != nil {
		return &domain.FileError{Path: path, Op: "write", Err: err}
	}
	return nil
}

// Decode parses data in the given format.
func Decode(data []byte, format Format) (Document, error) {
	switch format {
	case JSON:
		return decodeJSON(data)
	case TOML:
		return decodeTOML(data)
	case Env:
		return decodeEnv(data), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// Encode serializes doc in the given format.
func Encode(doc Document, format Format) ([]byte, error) {
	if doc == nil {
		doc = Document{}
	}
	switch format {
	case JSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any(doc)); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case TOML:
		return toml.Marshal(map[string]any(doc))
	case Env:
		return encodeEnv(doc)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

func decodeJSON(data []byte) (Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Document{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.New("expected a JSON object")
	}
	return doc, nil
}

func decodeTOML(data []byte) (Document, error) {
	doc := map[string]any{}
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// decodeEnv splits each non-blank, non-comment line on its first '='. Values
// are kept as RawValue so untouched entries survive a rewrite byte for byte.
func decodeEnv(data []byte) Document {
	doc := Document{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, _ := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		doc[key] = RawValue(strings.TrimSpace(value))
	}
	return doc
}

// EnvString returns doc[key] the way a dotenv loader reads it: quotes removed,
// escapes expanded, inline comments dropped. Missing keys yield "".
func EnvString(doc Document, key string) string {
	switch v := doc[key].(type) {
	case nil:
		return ""
	case RawValue:
		return parseEnvValue(key, string(v))
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func parseEnvValue(key, raw string) string {
	parsed, err := godotenv.Unmarshal(key + "=" + raw)
	if err != nil {
		return raw
	}
	return parsed[key]
}

func encodeEnv(doc Document) ([]byte, error) {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, k := range keys {
		line, err := envLine(k, doc[k])
		if err != nil {
			return nil, err
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// envLine renders one KEY=VALUE line. Raw values are written verbatim; other
// values are written bare when a dotenv loader reads them back unchanged and
// quoted by godotenv otherwise.
func envLine(key string, value any) (string, error) {
	if raw, ok := value.(RawValue); ok {
		return key + "=" + string(raw), nil
	}
	s := ""
	if value != nil {
		s = fmt.Sprint(value)
	}
	if !strings.ContainsAny(s, "\n\r") && parseEnvValue(key, s) == s {
		return key + "=" + s, nil
	}
	line, err := godotenv.Marshal(map[string]string{key: s})
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", key, err)
	}
	return line, nil
}

// Clone returns a deep copy of doc. Nested maps and slices are copied; scalar values are shared.
func Clone(doc Document) Document {
	if doc == nil {
		return nil
	}
	return cloneValue(map[string]any(doc)).(map[string]any)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case Document:
		return Document(cloneValue(map[string]any(t)).(map[string]any))
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}

// Object returns doc[key] as a map. ok is false when the key is missing;
// err is set when the key holds something other than an object.
func Object(doc map[string]any, key string) (obj map[string]any, ok bool, err error) {
	raw, present := doc[key]
	if !present || raw == nil {
		return nil, false, nil
	}
	switch t := raw.(type) {
	case map[string]any:
		return t, true, nil
	case Document:
		return t, true, nil
	default:
		return nil, false, fmt.Errorf("%w: %q is %T, want an object", domain.ErrUnexpectedShape, key, raw)
	}
}
