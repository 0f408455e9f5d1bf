package strata

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by tree navigation and file loading.
// Match with errors.Is; most call sites wrap them with path context.
var (
	// ErrInvalidKeyPath indicates a malformed dotted key: empty input,
	// or an empty segment from a leading, trailing, or doubled dot.
	ErrInvalidKeyPath = errors.New("invalid key path")

	// ErrKeyNotFound indicates a navigation miss: a segment is absent,
	// or a non-final segment indexed into a leaf value.
	ErrKeyNotFound = errors.New("key not found")

	// ErrPathConflict indicates an attempt to create nested keys through
	// an existing leaf value.
	ErrPathConflict = errors.New("path conflict")

	// ErrFileNotFound indicates a required configuration file does not exist.
	ErrFileNotFound = errors.New("config file not found")
)

// ParseError wraps a format decoder failure for a specific file.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse config file %q: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MissingKeysError reports every mandatory key absent from the resolved
// tree. Validation runs once after all sources are folded, so the list is
// always complete rather than stopping at the first miss.
type MissingKeysError struct {
	Missing []string
}

func (e *MissingKeysError) Error() string {
	return "missing mandatory configuration keys: " + strings.Join(e.Missing, ", ")
}
