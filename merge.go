package strata

// Merge folds incoming into base under the single merge law used by
// every pipeline stage: where both sides hold a section, children
// recurse; otherwise the incoming value replaces whatever base holds,
// wholesale. Sequences replace, they never concatenate. A scalar
// replacing a section discards the section's children.
//
// Base is mutated and returned. Incoming material is deep-copied on
// attach, so the incoming tree is never shared with or mutated through
// the result.
func Merge(base, incoming *Tree) *Tree {
	mergeTrees(base, incoming, "", "", nil)
	return base
}

// mergeTrees is the tracked form of the merge law. When a ledger is
// recording, every leaf actually written is attributed to the source
// label; section-to-section merges record only their leaves, never the
// section itself. Incoming sections replacing a leaf (or filling a gap)
// recurse through a fresh node so each nested leaf is still recorded
// individually.
func mergeTrees(base, incoming *Tree, prefix, label string, led *Ledger) {
	for _, key := range incoming.keys {
		iv := incoming.values[key]
		path := joinPath(prefix, key)

		if sub, ok := iv.(*Tree); ok {
			target, ok := base.values[key].(*Tree)
			if !ok {
				target = NewTree()
				base.put(key, target)
			}
			mergeTrees(target, sub, path, label, led)
			continue
		}

		cv := cloneValue(iv)
		base.put(key, cv)
		led.Record(path, label, cv)
	}
}

// recordLeaves attributes every leaf under a freshly assigned value.
// The overrides stage assigns via Set rather than the merge walk, so
// section-valued overrides record their nested leaves here.
func recordLeaves(led *Ledger, path, label string, v any) {
	if !led.Enabled() {
		return
	}
	sub, ok := v.(*Tree)
	if !ok {
		led.Record(path, label, v)
		return
	}
	for _, key := range sub.keys {
		recordLeaves(led, joinPath(path, key), label, sub.values[key])
	}
}
