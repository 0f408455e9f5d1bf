package strata

import (
	"fmt"
	"strings"
)

// KeyPath is a parsed dotted key: a non-empty sequence of non-empty
// segments. Segments never contain the dot delimiter. Equality is
// case-sensitive segment equality.
type KeyPath []string

// ParseKeyPath splits a dotted key into segments. It fails with
// ErrInvalidKeyPath on an empty input or any empty segment (leading,
// trailing, or doubled dots).
func ParseKeyPath(dotted string) (KeyPath, error) {
	if dotted == "" {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidKeyPath)
	}

	segments := strings.Split(dotted, ".")
	for _, segment := range segments {
		if segment == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", ErrInvalidKeyPath, dotted)
		}
	}

	return KeyPath(segments), nil
}

// String returns the canonical dotted form of the path.
func (p KeyPath) String() string {
	return strings.Join(p, ".")
}

// Child returns a new path with one segment appended.
func (p KeyPath) Child(segment string) KeyPath {
	child := make(KeyPath, 0, len(p)+1)
	child = append(child, p...)
	return append(child, segment)
}

// joinPath builds a dotted key from a prefix and a segment without
// allocating a KeyPath. Used on merge hot paths for provenance keys.
func joinPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return prefix + "." + segment
}
