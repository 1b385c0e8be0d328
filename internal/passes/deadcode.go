package passes

import (
	"github.com/totalspectrum/ppcc-optimizer/internal/config"
	"github.com/totalspectrum/ppcc-optimizer/internal/dataflow"
	"github.com/totalspectrum/ppcc-optimizer/internal/frontend"
	"github.com/totalspectrum/ppcc-optimizer/internal/ir"
)

// DeadCodeElim implements spec.md §4.3's "Dead-code elimination" bullet,
// minus the loop-aware "skipped range already guarded by the inverse
// condition" sub-case, which belongs to the jump-threading pass once it has
// a block-range view (see jumpthread.go).
type DeadCodeElim struct{}

func (DeadCodeElim) Name() string                    { return "deadcode_elim" }
func (DeadCodeElim) Flag() frontend.OptimizeFlag { return frontend.OptDeadcode }

func (DeadCodeElim) Run(fn *frontend.Function, _ config.Config) (bool, error) {
	changed := false
	body := fn.Body
	for i := body.Head(); i != nil; {
		next := i.Next
		switch {
		case i.Op == ir.DUMMY:
			// already gone
		case i.IsDummy():
			body.Delete(i)
			changed = true
		case isMeaninglessArith(i):
			body.Delete(i)
			changed = true
		case hasNoEffect(i) && isSideEffectFree(i):
			body.Delete(i)
			changed = true
		case i.Op == ir.JMP && jumpsToNextLabel(i):
			body.Delete(i)
			changed = true
		case i.Op == ir.JMP && i.Cond == ir.CondAlways && isFinalJumpToReturn(fn, i):
			body.Delete(i)
			changed = true
		}
		i = next
	}
	changed = removeUnreachableAfterJump(body) || changed
	return changed, nil
}

// hasNoEffect reports that i sets no flags and either doesn't write a
// destination or writes one that's dead immediately.
func hasNoEffect(i *ir.Instruction) bool {
	if i.Eff&(ir.EffWC|ir.EffWZ) != 0 {
		return false
	}
	if !ir.SetsDst(i) {
		return true
	}
	return dataflow.IsDeadAfter(i, &i.Dst)
}

func isSideEffectFree(i *ir.Instruction) bool {
	if ir.IsMemory(i) || ir.IsHardwareTouch(i) || ir.IsBranch(i) || ir.IsCordicCommand(i) || ir.IsCordicGet(i) {
		return false
	}
	switch i.Op {
	case ir.LOCKTRY, ir.LOCKSET, ir.LOCKCLR, ir.LOCKREL, ir.LOCKRET,
		ir.HUBSET, ir.COGSTOP, ir.WAITX, ir.WAITCT, ir.WAITPEQ,
		ir.DRVH, ir.DRVL, ir.DRVC, ir.DRVNC, ir.DRVZ, ir.DRVNZ,
		ir.LABEL, ir.COMMENT, ir.LIVE:
		return false
	}
	return true
}

// isMeaninglessArith catches ADD #0 / SUB #0 / AND #-1 / OR #0 / XOR #0 /
// ZEROX #31 regardless of liveness, since they are identity ops whose only
// possible effect (flags) is unconditionally handled by hasNoEffect above.
func isMeaninglessArith(i *ir.Instruction) bool {
	if i.HasSrc2 || i.Src.Kind != ir.ImmInt || i.Eff != ir.EffNone {
		return false
	}
	switch i.Op {
	case ir.ADD, ir.SUB:
		return i.Src.Val == 0
	case ir.AND:
		return i.Src.Val == -1
	case ir.OR, ir.XOR:
		return i.Src.Val == 0
	case ir.ZEROX:
		return i.Src.Val == 31
	}
	return false
}

func jumpsToNextLabel(jump *ir.Instruction) bool {
	target, ok := jump.Aux.(*ir.Instruction)
	if !ok || target == nil {
		return false
	}
	for cur := jump.Next; cur != nil; cur = cur.Next {
		if cur.IsDummy() {
			continue
		}
		return cur == target
	}
	return false
}

// isFinalJumpToReturn reports whether jump targets the function's return
// label and nothing but dummies/labels follow it, so falling off the end
// reaches the same place (spec.md §4.3: "a final jump-to-return is removed").
func isFinalJumpToReturn(fn *frontend.Function, jump *ir.Instruction) bool {
	target, ok := jump.Aux.(*ir.Instruction)
	if !ok || target == nil || fn.ReturnLabel == nil || target != fn.ReturnLabel {
		return false
	}
	for cur := jump.Next; cur != nil; cur = cur.Next {
		if cur.IsDummy() || cur.Op == ir.LABEL {
			continue
		}
		return false
	}
	return true
}

// removeUnreachableAfterJump deletes straight-line code between an
// unconditional jump and the following label.
func removeUnreachableAfterJump(body *ir.IRList) bool {
	changed := false
	for i := body.Head(); i != nil; i = i.Next {
		if i.IsDummy() || i.Op != ir.JMP || i.Cond != ir.CondAlways {
			continue
		}
		for cur := i.Next; cur != nil; {
			after := cur.Next
			if cur.IsDummy() {
				cur = after
				continue
			}
			if cur.Op == ir.LABEL {
				break
			}
			body.Delete(cur)
			changed = true
			cur = after
		}
	}
	return changed
}
