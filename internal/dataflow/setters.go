package dataflow

import "github.com/totalspectrum/ppcc-optimizer/internal/ir"

// FindPrevSetterForReplace walks backward to the most recent unconditional
// instruction that writes op, refusing to cross labels, branches, or any
// intervening use/modification of the setter's own source operand once
// found (spec.md §4.2). Returns the setter, or nil if none is found safely.
func FindPrevSetterForReplace(i *ir.Instruction, op *ir.Operand) *ir.Instruction {
	return findPrevSetter(i, op, false)
}

// FindPrevSetterForCompare is the compare-optimization flavor: in addition
// to the FindPrevSetterForReplace rules, it also refuses to cross any
// instruction that sets flags, since the caller is about to fold a compare
// into the setter's own flag effect.
func FindPrevSetterForCompare(i *ir.Instruction, op *ir.Operand) *ir.Instruction {
	return findPrevSetter(i, op, true)
}

func findPrevSetter(i *ir.Instruction, op *ir.Operand, forCompare bool) *ir.Instruction {
	cur := i.Prev
	for cur != nil {
		if cur.IsDummy() {
			cur = cur.Prev
			continue
		}
		if cur.Op == ir.LABEL || ir.IsBranch(cur) {
			return nil
		}
		if forCompare && (cur.Eff&(ir.EffWC|ir.EffWZ) != 0) && !ir.SameRegister(&cur.Dst, op) {
			return nil
		}
		if ir.SameRegister(&cur.Dst, op) && ir.SetsDst(cur) {
			if cur.Cond != ir.CondAlways {
				return nil
			}
			if ir.Uses(cur, &cur.Src) {
				// The setter's own source must not itself have been
				// clobbered between here and i — caller is expected to
				// re-validate via SafeToReplaceForward on the setter's
				// source operand before using this result; we still
				// reject outright if anything between the setter and i
				// modifies the setter's source operand.
				if usedOrModifiedBetween(cur.Next, i, &cur.Src) {
					return nil
				}
			}
			return cur
		}
		if ir.Uses(cur, op) || ir.Modifies(cur, op) {
			return nil
		}
		cur = cur.Prev
	}
	return nil
}

func usedOrModifiedBetween(from, to *ir.Instruction, op *ir.Operand) bool {
	for cur := from; cur != nil && cur != to; cur = cur.Next {
		if cur.IsDummy() {
			continue
		}
		if ir.Uses(cur, op) || ir.Modifies(cur, op) {
			return true
		}
	}
	return false
}
