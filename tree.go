package strata

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
)

// Tree is a node in the configuration tree: an ordered mapping from
// segment name to child value. A child is either a nested *Tree (a
// section) or a leaf value. Insertion order is preserved for iteration
// and dumps; it has no effect on lookup or merge semantics.
//
// A Tree returned by a Builder is owned by the caller. The mutators
// remain usable after resolution as an escape hatch; the resolution
// contracts apply only to the pipeline itself.
type Tree struct {
	keys   []string
	values map[string]any
}

// NewTree creates an empty tree node.
func NewTree() *Tree {
	return &Tree{values: make(map[string]any)}
}

// FromMap builds a tree from a plain nested mapping. Values are
// normalized to the canonical scalar model (int64/float64 numbers,
// nested maps become sections, sequences are rebuilt element-wise).
// Map keys are folded in sorted order so construction is deterministic;
// the input is never retained or mutated.
func FromMap(m map[string]any) *Tree {
	t := NewTree()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.put(k, normalizeValue(m[k]))
	}
	return t
}

// normalizeValue converts arbitrary decoder output into the canonical
// in-tree representation. Mappings become *Tree sections, json.Number
// collapses to int64 when integral, integer widths widen to int64, and
// sequences are rebuilt with their elements normalized.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case *Tree:
		return x
	case map[string]any:
		return FromMap(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalizeValue(e)
		}
		return out
	case []map[string]any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = FromMap(e)
		}
		return out
	case []byte:
		return string(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u <= math.MaxInt64 {
			return int64(u)
		}
		return float64(u)
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = normalizeValue(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			m := make(map[string]any, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				m[iter.Key().String()] = iter.Value().Interface()
			}
			return FromMap(m)
		}
	}
	return v
}

// put sets a direct child, appending the key on first insertion.
func (t *Tree) put(key string, v any) {
	if _, exists := t.values[key]; !exists {
		t.keys = append(t.keys, key)
	}
	t.values[key] = v
}

// remove deletes a direct child, preserving the order of the rest.
func (t *Tree) remove(key string) bool {
	if _, exists := t.values[key]; !exists {
		return false
	}
	delete(t.values, key)
	for i, k := range t.keys {
		if k == key {
			t.keys = append(t.keys[:i], t.keys[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of direct children.
func (t *Tree) Len() int {
	return len(t.keys)
}

// Keys returns the direct child names in insertion order.
func (t *Tree) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Has reports whether a direct child with the given name exists.
// For dotted paths use Contains.
func (t *Tree) Has(key string) bool {
	_, ok := t.values[key]
	return ok
}

// Get resolves a dotted key and returns the value at that path, which
// is a *Tree for sections and a leaf value otherwise. It fails with
// ErrKeyNotFound the moment a segment is absent or a non-final segment
// indexes into a leaf, and with ErrInvalidKeyPath on a malformed key.
func (t *Tree) Get(path string) (any, error) {
	kp, err := ParseKeyPath(path)
	if err != nil {
		return nil, err
	}

	cur := any(t)
	for _, segment := range kp {
		node, ok := cur.(*Tree)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, path)
		}
		v, ok := node.values[segment]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, path)
		}
		cur = v
	}
	return cur, nil
}

// GetDefault resolves a dotted key, returning fallback on any miss.
func (t *Tree) GetDefault(path string, fallback any) any {
	v, err := t.Get(path)
	if err != nil {
		return fallback
	}
	return v
}

// Contains reports whether a dotted key resolves to a value.
func (t *Tree) Contains(path string) bool {
	_, err := t.Get(path)
	return err == nil
}

// Set assigns a value at a dotted key, creating intermediate sections
// as needed. It never creates through a leaf: if an intermediate
// segment holds a leaf value, Set fails with ErrPathConflict. The final
// segment overwrites whatever was there.
func (t *Tree) Set(path string, value any) error {
	kp, err := ParseKeyPath(path)
	if err != nil {
		return err
	}
	return t.setPath(kp, normalizeValue(value), false)
}

// setPath walks/creates intermediate nodes and sets the final segment.
// In lenient mode a leaf intermediate is replaced by a fresh section
// instead of failing; the environment layers rely on this so colliding
// sibling variables cannot abort a resolution.
func (t *Tree) setPath(kp KeyPath, v any, lenient bool) error {
	node := t
	for i, segment := range kp[:len(kp)-1] {
		child, exists := node.values[segment]
		if !exists {
			next := NewTree()
			node.put(segment, next)
			node = next
			continue
		}
		sub, isTree := child.(*Tree)
		if !isTree {
			if !lenient {
				return fmt.Errorf("%w: %s holds a value, not a section", ErrPathConflict, kp[:i+1].String())
			}
			sub = NewTree()
			node.put(segment, sub)
		}
		node = sub
	}
	node.put(kp[len(kp)-1], v)
	return nil
}

// Delete removes the entry at a dotted key. It fails with
// ErrKeyNotFound if the path does not resolve. Emptied ancestor
// sections are kept, so the tree shape stays predictable.
func (t *Tree) Delete(path string) error {
	kp, err := ParseKeyPath(path)
	if err != nil {
		return err
	}

	node := t
	for _, segment := range kp[:len(kp)-1] {
		child, ok := node.values[segment]
		if !ok {
			return fmt.Errorf("%w: %s", ErrKeyNotFound, path)
		}
		sub, isTree := child.(*Tree)
		if !isTree {
			return fmt.Errorf("%w: %s", ErrKeyNotFound, path)
		}
		node = sub
	}
	if !node.remove(kp[len(kp)-1]) {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, path)
	}
	return nil
}

// App returns the sub-tree for a named namespace. Unlike Get, it never
// fails: an unknown name, or a name bound to a leaf, yields a fresh
// empty tree. Repeated calls for an existing namespace return the same
// node, so mutations through it are visible in the parent.
func (t *Tree) App(name string) *Tree {
	if v, ok := t.values[name]; ok {
		if sub, ok := v.(*Tree); ok {
			return sub
		}
	}
	return NewTree()
}

// Map exports the tree as a plain nested mapping for serialization
// collaborators. Sections become map[string]any recursively; leaves
// are shared as-is except sequences, which are rebuilt.
func (t *Tree) Map() map[string]any {
	out := make(map[string]any, len(t.keys))
	for _, k := range t.keys {
		out[k] = exportValue(t.values[k])
	}
	return out
}

func exportValue(v any) any {
	switch x := v.(type) {
	case *Tree:
		return x.Map()
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = exportValue(e)
		}
		return out
	default:
		return v
	}
}

// Flat returns every leaf as a dotted key to value mapping.
func (t *Tree) Flat() map[string]any {
	out := make(map[string]any)
	t.Walk(func(path string, value any) {
		out[path] = value
	})
	return out
}

// Walk visits every leaf in depth-first insertion order.
func (t *Tree) Walk(fn func(path string, value any)) {
	t.walk("", fn)
}

func (t *Tree) walk(prefix string, fn func(path string, value any)) {
	for _, k := range t.keys {
		path := joinPath(prefix, k)
		if sub, ok := t.values[k].(*Tree); ok {
			sub.walk(path, fn)
			continue
		}
		fn(path, exportValue(t.values[k]))
	}
}

// Clone returns a deep copy sharing no structure with the receiver.
func (t *Tree) Clone() *Tree {
	out := &Tree{
		keys:   make([]string, len(t.keys)),
		values: make(map[string]any, len(t.values)),
	}
	copy(out.keys, t.keys)
	for k, v := range t.values {
		out.values[k] = cloneValue(v)
	}
	return out
}

// cloneValue deep-copies sections and sequences; scalars are shared.
func cloneValue(v any) any {
	switch x := v.(type) {
	case *Tree:
		return x.Clone()
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
