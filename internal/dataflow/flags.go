package dataflow

import "github.com/totalspectrum/ppcc-optimizer/internal/ir"

// FlagsDeadAfter answers the same shape of question as IsDeadAfter but for
// the C/Z flag bits (spec.md §4.2): any instruction whose condition reads a
// live flag keeps it live; any unconditional write clears that bit from the
// live set; reaching a label ends the walk with "dead" / true, so flag uses
// reached only through the label's other predecessors are not examined —
// less conservative than IsDeadAfter's handling of labels.
func FlagsDeadAfter(i *ir.Instruction, flags ir.FlagBit) bool {
	if flags == ir.FlagNone {
		return true
	}
	visited := make(map[*ir.Instruction]int)
	return flagsDeadWalk(i.Next, flags, visited, 0)
}

func flagsDeadWalk(cur *ir.Instruction, live ir.FlagBit, visited map[*ir.Instruction]int, depth int) bool {
	for cur != nil {
		if live == ir.FlagNone {
			return true
		}
		if cur.IsDummy() {
			cur = cur.Next
			continue
		}
		if visited[cur] > 0 || depth >= MaxLoopDepth {
			return true
		}

		if cur.Op == ir.LABEL {
			return true
		}

		used := ir.FlagsUsedByCond(cur.Cond)
		if used&live != 0 {
			return false
		}

		if ir.IsBranch(cur) {
			target, _ := cur.Aux.(*ir.Instruction)
			unconditional := cur.Op == ir.JMP && cur.Cond == ir.CondAlways
			if target != nil {
				visited[cur]++
				targetDead := flagsDeadWalk(target, live, visited, depth+1)
				visited[cur]--
				if !targetDead {
					return false
				}
				if unconditional {
					return true
				}
			} else if unconditional {
				return true // unresolved unconditional jump: nothing more to see here
			}
			cur = cur.Next
			continue
		}

		remaining := live
		if cur.Eff&ir.EffWC != 0 {
			remaining &^= ir.FlagC
		}
		if cur.Eff&ir.EffWZ != 0 {
			remaining &^= ir.FlagZ
		}
		live = remaining
		cur = cur.Next
	}
	return true
}
