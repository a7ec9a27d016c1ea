package validator

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/example/foxcode/internal/foxcode/domain"
)

// MinAPIKeyLength is the shortest API key accepted.
const MinAPIKeyLength = 10

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// IsValidName reports whether s contains only letters, digits, '_' and '-'.
func IsValidName(s string) bool {
	return namePattern.MatchString(s)
}

// NormalizeName trims whitespace and lowercases the name.
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsValidURL reports whether s parses as an absolute http or https URL.
func IsValidURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// NormalizeURL strips every trailing slash.
func NormalizeURL(s string) string {
	return strings.TrimRight(s, "/")
}

// IsValidAPIKey reports whether s is at least MinAPIKeyLength characters and has no whitespace.
func IsValidAPIKey(s string) bool {
	if utf8.RuneCountInString(s) < MinAPIKeyLength {
		return false
	}
	return strings.IndexFunc(s, unicode.IsSpace) < 0
}

// MaskAPIKey shortens long keys for display. Keys of 20 characters or fewer are returned as-is.
func MaskAPIKey(s string) string {
	r := []rune(s)
	if len(r) <= 20 {
		return s
	}
	return string(r[:10]) + "..." + string(r[len(r)-5:])
}

// ValidateName checks the trimmed name and returns a user-facing error.
func ValidateName(s string) error {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return &domain.ValidationError{Field: "name", Value: s, Message: "profile name cannot be empty"}
	}
	if !IsValidName(trimmed) {
		return &domain.ValidationError{Field: "name", Value: s, Message: "profile name may only contain letters, digits, '_' and '-'"}
	}
	return nil
}

// ValidateURL checks the trimmed URL and returns a user-facing error.
func ValidateURL(s string) error {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return &domain.ValidationError{Field: "url", Value: s, Message: "URL cannot be empty"}
	}
	if !IsValidURL(trimmed) {
		return &domain.ValidationError{Field: "url", Value: s, Message: "invalid URL, it must start with http:// or https://"}
	}
	return nil
}

// ValidateAPIKey checks the trimmed key and returns a user-facing error.
func ValidateAPIKey(s string) error {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return &domain.ValidationError{Field: "apiKey", Value: "", Message: "API key cannot be empty"}
	}
	if !IsValidAPIKey(trimmed) {
		return &domain.ValidationError{Field: "apiKey", Value: "", Message: "invalid API key (at least 10 characters, no whitespace)"}
	}
	return nil
}
