package dataflow

import "github.com/totalspectrum/ppcc-optimizer/internal/ir"

// SafeToReplaceForward checks whether every subsequent use of orig, starting
// after first, can be rewritten to replace without changing semantics
// (spec.md §4.2). It returns the instruction at which the rewrite search
// stopped (the last instruction it is safe to have rewritten up to,
// inclusive) and ok=true, or ok=false if no safe rewrite window exists.
//
// cond is the predicate under which the rewrite is known to be valid (the
// setter's own condition, typically); the "condition_safe" bit tracked
// below goes false once an intervening instruction modifies C or Z, so a
// setter-conditional rewrite is only applied while cond remains a subset of
// every instruction it is applied through — see spec.md §4.2.
func SafeToReplaceForward(first *ir.Instruction, orig, replace *ir.Operand, cond ir.Condition) (stop *ir.Instruction, ok bool) {
	if replace.Kind == ir.RegHw {
		return nil, false
	}
	if orig.IsSubReg() || replace.IsSubReg() {
		return nil, false
	}

	conditionSafe := true
	last := first
	visited := map[*ir.Instruction]bool{}
	cur := first.Next
	for cur != nil {
		if cur.IsDummy() {
			cur = cur.Next
			continue
		}
		if visited[cur] {
			break
		}
		visited[cur] = true

		if cur.Op == ir.LIVE {
			if nameMatches(cur, orig) || nameMatches(cur, replace) {
				return nil, false
			}
		}

		if isReturn(cur) {
			if !orig.IsLocalLike() {
				return nil, false
			}
			last = cur
			break
		}

		if cur.Op == ir.CALL {
			if callClobbers(cur, orig) || callClobbers(cur, replace) {
				return nil, false
			}
		}

		if cur.Op == ir.LABEL {
			if ir.IsLabelUsedUnknown(cur) {
				bothDeadHere := IsDeadAfter(cur, orig) && IsDeadAfter(cur, replace)
				if !bothDeadHere {
					return nil, false
				}
			}
		}

		if ir.IsBranch(cur) && cur.Op != ir.CALL {
			target, _ := cur.Aux.(*ir.Instruction)
			if target == nil && requiresTarget(cur.Op) {
				return nil, false // forward jump to unknown code that might see orig/replace alive
			}
		}

		// Flag-liveness of the rewrite's own condition.
		if conditionSafe && (cur.Eff&(ir.EffWC|ir.EffWZ) != 0) {
			if !ir.CondIsSubset(cur.Cond, cond) {
				conditionSafe = false
			}
		}

		if ir.SameRegister(&cur.Dst, replace) && ir.SetsDst(cur) {
			if cur.Cond == ir.CondAlways && IsDeadAfter(cur, orig) {
				// A fresh unconditional assignment to replace that finds
				// orig dead closes the window cleanly right here.
				last = cur
				break
			}
			return nil, false
		}

		if !conditionSafe && ir.Uses(cur, orig) {
			return nil, false
		}

		last = cur
		if IsDeadAfter(cur, orig) {
			break
		}
		cur = cur.Next
	}
	return last, true
}

func nameMatches(liveHint *ir.Instruction, op *ir.Operand) bool {
	return ir.SameRegister(&liveHint.Dst, op) || ir.SameRegister(&liveHint.Src, op)
}

func callClobbers(call *ir.Instruction, op *ir.Operand) bool {
	return !IsDeadAfter(call.Prev, op) && !deadAcrossCall(call, op) && ir.Modifies(call, op)
}

// SafeToReplaceBack performs the symmetric backward scan used to fold
// `mov a,b ... use a` into `use b` (spec.md §4.2). Returns the earliest
// instruction at which the substitution is safe, or nil.
func SafeToReplaceBack(i *ir.Instruction, orig, replace *ir.Operand) *ir.Instruction {
	cur := i.Prev
	visited := map[*ir.Instruction]bool{}
	var earliest *ir.Instruction
	for cur != nil {
		if cur.IsDummy() {
			cur = cur.Prev
			continue
		}
		if visited[cur] {
			return nil
		}
		visited[cur] = true

		if cur.Op == ir.LABEL {
			if !ir.HasKnownPredecessors(cur) {
				return nil
			}
			// Walk up through every predecessor jump; all must agree.
			var commonEarliest *ir.Instruction
			allOK := true
			ir.JumpsTo(cur, func(jump *ir.Instruction) {
				if !allOK {
					return
				}
				e := SafeToReplaceBack(jump.Next, orig, replace)
				if e == nil {
					allOK = false
					return
				}
				commonEarliest = e
			})
			if !allOK {
				return nil
			}
			earliest = commonEarliest
			break
		}

		if ir.SameRegister(&cur.Dst, replace) && ir.SetsDst(cur) {
			return nil
		}
		if ir.Uses(cur, orig) {
			return nil
		}

		earliest = cur
		cur = cur.Prev
	}
	return earliest
}
