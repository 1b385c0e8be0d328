package peephole

import "github.com/totalspectrum/ppcc-optimizer/internal/ir"

// PatternNames returns the table's pattern names in match order, for the
// `explain-peephole` CLI subcommand.
func PatternNames() []string {
	names := make([]string, len(table))
	for i, pat := range table {
		names[i] = pat.Name
	}
	return names
}

// Run walks body once, trying every pattern in table order at each live
// instruction. Per spec.md invariant 7 ("pattern determinism"), at most one
// pattern fires per window: on a match the fixup runs, the walk resumes at
// the start instruction's successor (or, if the fixup deleted the start
// instruction, at whatever now follows its former predecessor), and the
// remaining patterns are not tried against the same start position in this
// pass. onFire, if non-nil, is
// called with the name of each pattern that actually fires — the
// `explain-peephole` CLI report's source of per-pattern counts.
func Run(body *ir.IRList, p2 bool, onFire func(name string)) (bool, error) {
	changed := false
	for i := body.Head(); i != nil; {
		if i.IsDummy() {
			i = i.Next
			continue
		}
		fired := false
		for _, pat := range table {
			st, ok := tryMatch(i, p2, pat)
			if !ok {
				continue
			}
			prevBefore, nextBefore := i.Prev, i.Next
			if pat.Fixup(body, st) {
				changed = true
				fired = true
				if onFire != nil {
					onFire(pat.Name)
				}
				if i.Prev == nil && i.Next == nil && (prevBefore != nil || nextBefore != nil) {
					// i was unlinked by its own fixup (Delete nils both
					// links); resume after its former predecessor, or from
					// the head if it had none.
					if prevBefore != nil {
						i = prevBefore.Next
					} else {
						i = body.Head()
					}
				} else {
					i = i.Next
				}
				break
			}
		}
		if !fired {
			i = i.Next
		}
	}
	return changed, nil
}
