// Package dataflow implements component 3 from spec.md §2/§4.2: the
// dataflow queries every local pass is gated by — is_dead_after,
// flags_dead_after, forward/backward safe-replace, previous-setter lookup,
// and the range queries.
package dataflow

import "github.com/totalspectrum/ppcc-optimizer/internal/ir"

// MaxLoopDepth bounds the recursion/iteration depth when a forward walk
// revisits a loop header, per spec.md §4.2: "a bounded-depth stack prevents
// infinite recursion on loops (default depth 8)".
const MaxLoopDepth = 8

// IsDeadAfter walks forward from i, answering whether op is dead
// immediately after i executes (spec.md §4.2). This is the single most
// load-bearing query in the optimizer: nearly every rewrite is gated by it.
func IsDeadAfter(i *ir.Instruction, op *ir.Operand) bool {
	if op.IsSubReg() {
		// "we do not attempt partial-word liveness."
		return false
	}
	if isHardwareReg(op) {
		// "Hardware registers are never dead."
		return false
	}
	visited := make(map[*ir.Instruction]int)
	return deadAfterWalk(i.Next, op, visited, 0)
}

func isHardwareReg(op *ir.Operand) bool {
	base := ir.BaseRegister(op)
	return base != nil && base.Kind == ir.RegHw
}

func deadAfterWalk(cur *ir.Instruction, op *ir.Operand, visited map[*ir.Instruction]int, depth int) bool {
	for cur != nil {
		if cur.IsDummy() {
			cur = cur.Next
			continue
		}

		if n := visited[cur]; n > 0 {
			// "revisiting an instruction already on the stack returns true
			// for registers (loop-carried use is already accounted for)."
			return true
		}
		if depth >= MaxLoopDepth {
			return true
		}

		switch {
		case cur.Op == ir.CALL:
			if deadAcrossCall(cur, op) {
				// Still need to check whether the call instruction itself
				// uses op as an argument before declaring it dead.
				if ir.Uses(cur, op) {
					return false
				}
				cur = cur.Next
				continue
			}
			return false

		case isReturn(cur):
			// "Returns are terminal: after a return, locals and args are
			// considered dead, defined results live."
			if op.Kind == ir.RegResult {
				return false
			}
			return op.IsLocalLike()

		case cur.Op == ir.LABEL:
			if ir.IsLabelUsedUnknown(cur) {
				return false
			}
			cur = cur.Next
			continue

		case ir.IsBranch(cur):
			if ir.Uses(cur, op) {
				return false
			}
			target, _ := cur.Aux.(*ir.Instruction)
			if target == nil && requiresTarget(cur.Op) {
				// "if unknown, return false (conservative)."
				return false
			}
			unconditional := cur.Cond == ir.CondAlways && cur.Op == ir.JMP
			if target != nil {
				visited[cur]++
				targetDead := deadAfterWalk(target, op, visited, depth+1)
				visited[cur]--
				if !targetDead {
					return false
				}
				if unconditional {
					return true
				}
			}
			// Conditional branch (or DJNZ, which always also falls
			// through when the counter is nonzero): continue to the
			// fallthrough successor too.
			cur = cur.Next
			continue

		default:
			if ir.Uses(cur, op) {
				return false
			}
			if ir.Modifies(cur, op) && cur.Cond == ir.CondAlways {
				return true
			}
			cur = cur.Next
			continue
		}
	}
	// Ran off the end of the function: conservatively live (the function
	// may fall through into another, or the list is incomplete).
	return false
}

func isReturn(i *ir.Instruction) bool {
	return i.Op == ir.RET || i.Op == ir.RETA
}

func requiresTarget(op ir.Opcode) bool {
	switch op {
	case ir.JMP, ir.DJNZ, ir.TJZ, ir.TJNZ:
		return true
	}
	return false
}

// deadAcrossCall implements the call-boundary rules from spec.md §4.2:
// locals are always dead across a call; argument registers are dead iff
// the callee is known and does not consume that position (mul/div helpers
// consume muldiva/muldivb only); result registers are reset by any
// non-muldiv call.
func deadAcrossCall(call *ir.Instruction, op *ir.Operand) bool {
	if op.IsLocalLike() && op.Kind != ir.RegArg {
		return true
	}
	callee := ir.CalleeOf(call)
	switch op.Kind {
	case ir.RegArg:
		if callee == nil {
			return false // unknown callee: conservatively still live
		}
		if callee.ConsumesArg == nil {
			return false
		}
		return !callee.ConsumesArg(argPosition(op))
	case ir.RegResult:
		if callee == nil {
			return true // unknown/non-muldiv call resets results
		}
		return !callee.IsMulDivHelper
	}
	return false
}

// argPosition extracts the fast-call argument index from an arg operand's
// name convention "argN".
func argPosition(op *ir.Operand) int {
	n := 0
	for i := len(op.Name) - 1; i >= 0; i-- {
		c := op.Name[i]
		if c < '0' || c > '9' {
			break
		}
		n++
	}
	if n == 0 {
		return 0
	}
	val := 0
	mul := 1
	for i := len(op.Name) - 1; i >= len(op.Name)-n; i-- {
		val += int(op.Name[i]-'0') * mul
		mul *= 10
	}
	return val
}
