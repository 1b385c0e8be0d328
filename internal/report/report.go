// Package report collects a running tally of which optimizations fired
// during a driver pass, for the `explain-peephole` and `bench` CLI
// subcommands. Adapted from the teacher's pkg/result.Table — the same
// mutex-guarded accumulate-then-sort shape, but the table now tracks named
// pass/pattern firings across a whole compilation unit (bytes saved has no
// meaning on this target; cycles saved does) instead of superoptimizer
// byte-sequence replacement rules.
package report

import (
	"sort"
	"sync"
)

// Entry is one aggregated firing count for a named pass or peephole pattern.
type Entry struct {
	Name        string
	Occurrences int
	CyclesSaved int64
}

// Table accumulates Entry values by name across an entire run.
type Table struct {
	mu      sync.Mutex
	byName  map[string]*Entry
	ordered []string
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{byName: make(map[string]*Entry)}
}

// Add records one firing of the named pass/pattern, saving the given
// number of cycles (0 if unknown/inapplicable).
func (t *Table) Add(name string, cyclesSaved int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.byName[name]
	if !ok {
		e = &Entry{Name: name}
		t.byName[name] = e
		t.ordered = append(t.ordered, name)
	}
	e.Occurrences++
	e.CyclesSaved += cyclesSaved
}

// Entries returns a copy of the accumulated entries, sorted by cycles saved
// descending (ties broken by occurrence count, then name) — the same
// "most impactful first" ordering the teacher's Table.Rules() applied to
// bytes/cycles saved.
func (t *Table) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, 0, len(t.ordered))
	for _, name := range t.ordered {
		out = append(out, *t.byName[name])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CyclesSaved != out[j].CyclesSaved {
			return out[i].CyclesSaved > out[j].CyclesSaved
		}
		if out[i].Occurrences != out[j].Occurrences {
			return out[i].Occurrences > out[j].Occurrences
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Len reports the number of distinct names recorded.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ordered)
}
