package strata

import (
	"fmt"
	"strings"
)

// Entry records one write to a leaf key during resolution.
type Entry struct {
	Key    string
	Value  any
	Source string
	Order  int
}

func (e Entry) String() string {
	return fmt.Sprintf("%s = %v <- %s", e.Key, e.Value, e.Source)
}

// Ledger accumulates source attribution per leaf key as the pipeline
// folds its stages. A disabled ledger allocates nothing and every
// method is a no-op, so tracking is zero-cost when off.
type Ledger struct {
	enabled bool
	seq     int
	current map[string]Entry
	past    map[string][]Entry
}

func newLedger(enabled bool) *Ledger {
	if !enabled {
		return &Ledger{}
	}
	return &Ledger{
		enabled: true,
		current: make(map[string]Entry),
		past:    make(map[string][]Entry),
	}
}

// Enabled reports whether the ledger is recording.
func (l *Ledger) Enabled() bool {
	return l != nil && l.enabled
}

// Record appends an entry for a leaf key. The previous current entry,
// if any, moves into the key's history. Entries carry a monotonically
// increasing order across the whole ledger.
func (l *Ledger) Record(path, source string, value any) {
	if !l.Enabled() {
		return
	}
	if prev, ok := l.current[path]; ok {
		l.past[path] = append(l.past[path], prev)
	}
	l.seq++
	l.current[path] = Entry{Key: path, Value: value, Source: source, Order: l.seq}
}

// Current returns the latest entry for a key.
func (l *Ledger) Current(path string) (Entry, bool) {
	if !l.Enabled() {
		return Entry{}, false
	}
	e, ok := l.current[path]
	return e, ok
}

// History returns every entry for a key, oldest first, with the
// current entry last.
func (l *Ledger) History(path string) []Entry {
	if !l.Enabled() {
		return nil
	}
	var out []Entry
	out = append(out, l.past[path]...)
	if cur, ok := l.current[path]; ok {
		out = append(out, cur)
	}
	return out
}

// Dump maps every recorded key to its current source label.
func (l *Ledger) Dump() map[string]string {
	out := make(map[string]string)
	if !l.Enabled() {
		return out
	}
	for path, e := range l.current {
		out[path] = e.Source
	}
	return out
}

// Summary counts recorded keys per source category. The category is
// the label up to the first colon, so "file:a.toml" and
// "file:b.toml" both count as "file".
func (l *Ledger) Summary() map[string]int {
	out := make(map[string]int)
	if !l.Enabled() {
		return out
	}
	for _, e := range l.current {
		category, _, _ := strings.Cut(e.Source, ":")
		out[category]++
	}
	return out
}
