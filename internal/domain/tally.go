// Package domain contains the core data structures and domain logic for the application.
package domain

import "sort"

// Entry is one contributor's accumulated commit count.
type Entry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Tally accumulates commit counts per contributor display name.
// Names are exact strings; no identity merging is attempted, so a
// contributor committing under two spellings shows up twice.
// Insertion order is preserved so that sorting ties stays deterministic.
type Tally struct {
	counts map[string]int
	order  []string
}

// NewTally creates an empty tally.
func NewTally() *Tally {
	return &Tally{counts: make(map[string]int)}
}

// Add credits count commits to name. A name seen for the first time is
// appended to the insertion order.
func (t *Tally) Add(name string, count int) {
	if _, ok := t.counts[name]; !ok {
		t.order = append(t.order, name)
	}
	t.counts[name] += count
}

// Merge folds other into t: additive over shared names, a plain union over
// disjoint ones. Other's names keep their relative order when new to t.
func (t *Tally) Merge(other *Tally) {
	for _, name := range other.order {
		t.Add(name, other.counts[name])
	}
}

// Count returns the accumulated count for name, zero if absent.
func (t *Tally) Count(name string) int {
	return t.counts[name]
}

// Len returns the number of distinct contributors.
func (t *Tally) Len() int {
	return len(t.order)
}

// Sum returns the total of all accumulated counts.
func (t *Tally) Sum() int {
	total := 0
	for _, count := range t.counts {
		total += count
	}
	return total
}

// Entries returns the tally in insertion order.
func (t *Tally) Entries() []Entry {
	entries := make([]Entry, 0, len(t.order))
	for _, name := range t.order {
		entries = append(entries, Entry{Name: name, Count: t.counts[name]})
	}
	return entries
}

// Sorted returns the entries ordered by count, descending unless ascending
// is set. The sort is stable: equal counts keep insertion order.
func (t *Tally) Sorted(ascending bool) []Entry {
	entries := t.Entries()
	sort.SliceStable(entries, func(i, j int) bool {
		if ascending {
			return entries[i].Count < entries[j].Count
		}
		return entries[i].Count > entries[j].Count
	})
	return entries
}
