package passes

import (
	"github.com/totalspectrum/ppcc-optimizer/internal/config"
	"github.com/totalspectrum/ppcc-optimizer/internal/frontend"
	"github.com/totalspectrum/ppcc-optimizer/internal/ir"
)

// JumpThread implements spec.md §4.3's "Jump threading": a jump whose target
// is itself an unconditional jump is redirected to the final target.
type JumpThread struct{}

func (JumpThread) Name() string                    { return "jump_thread" }
func (JumpThread) Flag() frontend.OptimizeFlag { return frontend.OptBranches }

func (JumpThread) Run(fn *frontend.Function, _ config.Config) (bool, error) {
	changed := false
	body := fn.Body
	for i := body.Head(); i != nil; i = i.Next {
		if i.IsDummy() || !ir.IsBranch(i) || i.Op == ir.CALL {
			continue
		}
		target, ok := i.Aux.(*ir.Instruction)
		if !ok || target == nil {
			continue
		}
		final := finalJumpTarget(target, map[*ir.Instruction]bool{})
		if final != nil && final != target {
			ir.UnlinkJump(i)
			ir.LinkJump(i, final)
			changed = true
		}
	}
	return changed, nil
}

// finalJumpTarget follows a label straight through any unconditional jump
// that immediately follows it, to the ultimate target.
func finalJumpTarget(label *ir.Instruction, seen map[*ir.Instruction]bool) *ir.Instruction {
	if label == nil || seen[label] {
		return label
	}
	seen[label] = true
	for cur := label.Next; cur != nil; cur = cur.Next {
		if cur.IsDummy() {
			continue
		}
		if cur.Op != ir.JMP || cur.Cond != ir.CondAlways {
			return label
		}
		next, ok := cur.Aux.(*ir.Instruction)
		if !ok || next == nil {
			return label
		}
		return finalJumpTarget(next, seen)
	}
	return label
}
