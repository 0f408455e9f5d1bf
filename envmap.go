package strata

import (
	"encoding/json"
	"io"
	"sort"
	"strings"
)

// MapEnv translates a flat environment-variable mapping into a partial
// tree of typed values. The reference tree is the configuration
// accumulated so far; it is consulted only to disambiguate segment
// boundaries and is never mutated.
//
// Variable names are processed in sorted order so resolution is
// deterministic: when two raw names collapse to the same key, the
// lexicographically later name wins within one pass.
//
// Per name: the prefix (normalized by trimming trailing underscores)
// must match case-insensitively and be followed by an underscore; an
// empty prefix makes every variable a candidate. The remainder is
// lowercased, remapped against the reference tree, and the value is
// coerced with ParseLiteral. The function is total: a name that cannot
// be matched to intended sections still maps, just to the key its
// plain tokenization produces.
func MapEnv(vars map[string]string, prefix string, ref *Tree) *Tree {
	if ref == nil {
		ref = NewTree()
	}
	norm := strings.TrimRight(prefix, "_")

	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	out := NewTree()
	for _, name := range names {
		rest, ok := stripEnvPrefix(name, norm)
		if !ok {
			continue
		}
		kp := remapKey(strings.ToLower(rest), ref)
		if len(kp) == 0 {
			continue
		}
		// Lenient insertion: sibling variables may disagree about
		// whether a segment is a leaf or a section, and that must
		// never abort a resolution.
		_ = out.setPath(kp, ParseLiteral(vars[name]), true)
	}
	return out
}

// stripEnvPrefix returns the candidate remainder after the prefix and
// one delimiter, or false when the name is not a candidate.
func stripEnvPrefix(name, prefix string) (string, bool) {
	if prefix == "" {
		return name, name != ""
	}
	if len(name) <= len(prefix)+1 {
		return "", false
	}
	if !strings.EqualFold(name[:len(prefix)], prefix) {
		return "", false
	}
	if name[len(prefix)] != '_' {
		return "", false
	}
	return name[len(prefix)+1:], true
}

// remapKey resolves a lowercased raw remainder into a key path. At
// each reference level the longest matching key is collapsed into one
// segment and interpretation continues one level down; once no key
// matches (or the reference bottoms out in a leaf), the remainder
// falls back to plain tokenization.
func remapKey(raw string, ref *Tree) KeyPath {
	var kp KeyPath
	rest := raw
	node := ref
	for node != nil && rest != "" {
		key, consumed := matchSegment(rest, node)
		if key == "" {
			break
		}
		kp = append(kp, key)
		rest = rest[consumed:]
		if rest == "" {
			return kp
		}
		node, _ = node.values[key].(*Tree)
	}
	return append(kp, tokenize(rest)...)
}

// matchSegment finds the longest reference key equal to the remainder,
// or prefixing it with a delimiter after. Ties at equal length resolve
// to the earlier key in insertion order. The consumed count includes
// the delimiter; a double underscore after the key is consumed whole.
// The emitted key keeps the reference tree's original spelling.
func matchSegment(rest string, node *Tree) (string, int) {
	var bestKey string
	var bestConsumed, bestLen int
	for _, key := range node.keys {
		lk := strings.ToLower(key)
		if lk == "" || len(lk) > len(rest) || len(lk) <= bestLen {
			continue
		}
		if !strings.HasPrefix(rest, lk) {
			continue
		}
		tail := rest[len(lk):]
		switch {
		case tail == "":
			bestKey, bestConsumed, bestLen = key, len(lk), len(lk)
		case strings.HasPrefix(tail, "__"):
			bestKey, bestConsumed, bestLen = key, len(lk)+2, len(lk)
		case tail[0] == '_':
			bestKey, bestConsumed, bestLen = key, len(lk)+1, len(lk)
		}
	}
	return bestKey, bestConsumed
}

// tokenize splits a lowercased remainder into segments. The scan is
// greedy-leftmost: a double underscore is a literal underscore inside
// the current segment, a lone underscore is a segment boundary. Empty
// segments are dropped.
func tokenize(s string) []string {
	var segs []string
	var buf strings.Builder
	for i := 0; i < len(s); {
		if s[i] != '_' {
			buf.WriteByte(s[i])
			i++
			continue
		}
		if i+1 < len(s) && s[i+1] == '_' {
			buf.WriteByte('_')
			i += 2
			continue
		}
		if buf.Len() > 0 {
			segs = append(segs, buf.String())
			buf.Reset()
		}
		i++
	}
	if buf.Len() > 0 {
		segs = append(segs, buf.String())
	}
	return segs
}

// ParseLiteral interprets a raw string as a JSON literal: booleans,
// numbers, null, quoted strings, arrays, and objects all coerce to
// their typed form, with integral numbers collapsing to int64 and
// objects becoming sections. Anything that fails to parse, including
// trailing garbage after a valid literal, stays a raw string.
//
// The sniffing is deliberately ambiguous: an unquoted "true" or "123"
// is never stored as a string. Callers needing a literal string of
// that shape must quote it at the source.
func ParseLiteral(s string) any {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return s
	}
	if _, err := dec.Token(); err != io.EOF {
		return s
	}
	return normalizeValue(v)
}
