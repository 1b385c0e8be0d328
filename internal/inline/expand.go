package inline

import (
	"fmt"

	"github.com/totalspectrum/ppcc-optimizer/internal/frontend"
	"github.com/totalspectrum/ppcc-optimizer/internal/ir"
)

// maxExpansionRounds bounds the fixed-point loop over the whole call graph:
// each round can make a newly-small caller eligible as a callee elsewhere,
// but a bound avoids runaway expansion across a pathological mutual-call
// chain.
const maxExpansionRounds = 8

// ExpandAll implements spec.md §4.5's "Expansion" over every function in
// the compilation unit: repeatedly scans every call site, inlining any
// callee that passes Eligible, until a full round makes no change.
func ExpandAll(functions []*frontend.Function, p2 bool) int {
	byName := make(map[string]*frontend.Function, len(functions))
	for _, fn := range functions {
		byName[fn.Name] = fn
		fn.Body.AssignAddresses()
	}

	total := 0
	uid := 0
	for round := 0; round < maxExpansionRounds; round++ {
		changed := false
		for _, caller := range functions {
			body := caller.Body
			for i := body.Head(); i != nil; {
				next := i.Next
				if i.IsDummy() || i.Op != ir.CALL {
					i = next
					continue
				}
				ci := ir.CalleeOf(i)
				if ci == nil {
					i = next
					continue
				}
				callee := byName[ci.Name]
				if callee == nil || callee == caller || !Eligible(callee, i, p2) {
					i = next
					continue
				}
				uid++
				if expandCallSite(caller, i, callee, uid) {
					callee.CallSites--
					if callerAllCallsGone(caller) {
						caller.IsLeaf = true
					}
					total++
					changed = true
				}
				i = next
			}
		}
		if !changed {
			break
		}
	}
	return total
}

// callerAllCallsGone reports whether caller's body now contains no CALL
// instructions at all, matching spec.md's "if all remaining calls in the
// caller disappear, the caller is re-marked as an effective leaf".
func callerAllCallsGone(caller *frontend.Function) bool {
	gone := true
	caller.Body.Walk(func(i *ir.Instruction) {
		if !i.IsDummy() && i.Op == ir.CALL {
			gone = false
		}
	})
	return gone
}

// expandCallSite clones callee's body in place of call. Labels are
// re-stamped with a uid-qualified name so two expansions of the same
// callee (or an expansion alongside the callee's own remaining copy)
// never collide; each cloned jump's aux is relinked to the corresponding
// clone. RegLocal/RegTemp operands are likewise renamed so the callee's
// locals never alias the caller's. A RET/RETA in the callee is dropped:
// the callee's own (renamed) return label, if reached by any cloned
// branch, already marks the right landing spot — execution simply falls
// through into whatever follows the splice, same as falling off the end
// of an inlined straight-line sequence.
func expandCallSite(caller *frontend.Function, call *ir.Instruction, callee *frontend.Function, uid int) bool {
	origToClone := map[*ir.Instruction]*ir.Instruction{}
	localNames := map[string]string{}
	var clones []*ir.Instruction

	renamed := func(op ir.Operand) ir.Operand {
		if op.Kind != ir.RegLocal && op.Kind != ir.RegTemp {
			return op
		}
		newName, ok := localNames[op.Name]
		if !ok {
			newName = fmt.Sprintf("%s$inl%d", op.Name, uid)
			localNames[op.Name] = newName
		}
		op.Name = newName
		return op
	}

	for orig := callee.Body.Head(); orig != nil; orig = orig.Next {
		if orig.IsDummy() {
			continue
		}
		if orig.Op == ir.RET || orig.Op == ir.RETA {
			continue
		}
		clone := &ir.Instruction{
			Op: orig.Op, Cond: orig.Cond, Eff: orig.Eff,
			Dst: renamed(orig.Dst), Src: renamed(orig.Src),
			HasSrc2:   orig.HasSrc2,
			DstEffect: orig.DstEffect, SrcEffect: orig.SrcEffect,
			Line: orig.Line, Text: orig.Text, Volatile: orig.Volatile,
		}
		if orig.HasSrc2 {
			clone.Src2 = renamed(orig.Src2)
		}
		if orig.Op == ir.LABEL {
			clone.Text = fmt.Sprintf("%s$inl%d", orig.Text, uid)
		}
		origToClone[orig] = clone
		clones = append(clones, clone)
	}
	if len(clones) == 0 {
		return false
	}

	for orig, clone := range origToClone {
		switch {
		case orig.Op == ir.LABEL:
			// orig.Aux is that label's jump-list head, not a jump target;
			// nothing to relink here — incoming jumps relink themselves
			// below when they're visited as orig.
		case orig.Op == ir.CALL:
			clone.Aux = orig.Aux // share the CalleeInfo describing the (external) callee
		default:
			if label, ok := orig.Aux.(*ir.Instruction); ok && label != nil {
				if clonedLabel, ok := origToClone[label]; ok {
					ir.LinkJump(clone, clonedLabel)
				}
				// Else: target label lives outside the cloned span (should
				// not happen once Eligible has verified every label has
				// known predecessors) — leave the jump unresolved rather
				// than dangling.
			}
		}
	}

	body := caller.Body
	for _, clone := range clones {
		body.InsertBefore(call, clone)
	}
	body.Delete(call)
	return true
}
