// Package ticks maps futures RICs to their minimum price increment.
package ticks

import "sort"

// Table resolves tick sizes by the first two characters of a RIC. Prefixes
// are case-sensitive.
type Table struct {
	Default  float64
	Prefixes map[string]float64
}

// New returns a table. The prefixes map is copied.
func New(def float64, prefixes map[string]float64) Table {
	t := Table{Default: def, Prefixes: make(map[string]float64, len(prefixes))}
	for p, v := range prefixes {
		t.Prefixes[p] = v
	}
	return t
}

// Lookup returns the tick size for ric. ok is false when the prefix is
// unknown and the default was used.
func (t Table) Lookup(ric string) (size float64, ok bool) {
	if len(ric) >= 2 {
		if v, found := t.Prefixes[ric[:2]]; found {
			return v, true
		}
	}
	return t.Default, false
}

// Entry is one prefix and its tick size.
type Entry struct {
	Prefix string
	Size   float64
}

// Entries returns the table sorted by prefix.
func (t Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.Prefixes))
	for p, v := range t.Prefixes {
		out = append(out, Entry{Prefix: p, Size: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Prefix < out[j].Prefix })
	return out
}
