package domain

import (
	"errors"
	"fmt"
)

// Exported error variables allow callers to use errors.Is() for error checking.
var (
	ErrProfileExists   = errors.New("profile already exists")
	ErrUnknownTool     = errors.New("unknown tool")
	ErrOutsideBackups  = errors.New("path is outside the backup directory")
	ErrInvalidBackup   = errors.New("not a foxcode backup file name")
	ErrUnexpectedShape = errors.New("unexpected value type")
)

// ValidationError reports a rejected name, URL or API key.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError reports a missing profile or backup.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// FileError wraps an I/O or parse failure on a specific file.
type FileError struct {
	Path string
	Op   string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// ApplyError reports a tool handler that failed while writing its config files.
// Files written before the failure are left in place.
type ApplyError struct {
	Tool string
	Err  error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("apply %s config: %v", e.Tool, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
