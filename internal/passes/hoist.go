package passes

import (
	"github.com/totalspectrum/ppcc-optimizer/internal/config"
	"github.com/totalspectrum/ppcc-optimizer/internal/dataflow"
	"github.com/totalspectrum/ppcc-optimizer/internal/frontend"
	"github.com/totalspectrum/ppcc-optimizer/internal/ir"
)

// LoopPointerHoist implements spec.md §4.3's "Loop-pointer-offset hoisting":
// in a loop with a single back-edge, a constant add/sub at the top that is
// undone by the negated delta at the bottom, with the register untouched
// elsewhere in the loop, is hoisted out of the loop entirely.
type LoopPointerHoist struct{}

func (LoopPointerHoist) Name() string                    { return "loop_pointer_hoist" }
func (LoopPointerHoist) Flag() frontend.OptimizeFlag { return frontend.OptBasicRegs }

func (LoopPointerHoist) Run(fn *frontend.Function, _ config.Config) (bool, error) {
	changed := false
	body := fn.Body
	for label := body.Head(); label != nil; label = label.Next {
		if label.Op != ir.LABEL || !ir.HasKnownPredecessors(label) {
			continue
		}
		backEdge := singleBackEdge(label)
		if backEdge == nil {
			continue
		}
		top := firstLiveAfter(label)
		bottom := lastLiveBefore(backEdge)
		if top == nil || bottom == nil || top == bottom || !isAddOrSub(top.Op) || top.Src.Kind != ir.ImmInt {
			continue
		}
		if !isAddOrSub(bottom.Op) || bottom.Src.Kind != ir.ImmInt || !ir.SameRegister(&top.Dst, &bottom.Dst) {
			continue
		}
		if signedDelta(top) != -signedDelta(bottom) {
			continue
		}
		if dataflow.UsedInRange(top.Next, bottom.Prev, &top.Dst) || dataflow.ModifiedInRange(top.Next, bottom.Prev, &top.Dst) {
			continue
		}
		body.Delete(top)
		body.Delete(bottom)
		changed = true
	}
	return changed, nil
}

// singleBackEdge returns the sole unconditional-or-conditional jump whose
// target is label and which appears after it in program order, or nil if
// there isn't exactly one such predecessor.
func singleBackEdge(label *ir.Instruction) *ir.Instruction {
	var found *ir.Instruction
	count := 0
	ir.JumpsTo(label, func(jump *ir.Instruction) {
		count++
		if isAfter(jump, label) {
			found = jump
		}
	})
	if count != 1 || found == nil {
		return nil
	}
	return found
}

func isAfter(a, b *ir.Instruction) bool {
	for cur := b; cur != nil; cur = cur.Next {
		if cur == a {
			return true
		}
	}
	return false
}

func firstLiveAfter(i *ir.Instruction) *ir.Instruction {
	for cur := i.Next; cur != nil; cur = cur.Next {
		if !cur.IsDummy() {
			return cur
		}
	}
	return nil
}

func lastLiveBefore(i *ir.Instruction) *ir.Instruction {
	for cur := i.Prev; cur != nil; cur = cur.Prev {
		if !cur.IsDummy() {
			return cur
		}
	}
	return nil
}

// IncDecHoist implements spec.md §4.3's "Inc/dec hoisting": push a pointer
// increment as late as possible past instructions that neither read nor
// write the pointer and are not calls/jumps/labels/CORDIC-gets, to open a
// window for later coalescing/elimination passes.
type IncDecHoist struct{}

func (IncDecHoist) Name() string                    { return "incdec_hoist" }
func (IncDecHoist) Flag() frontend.OptimizeFlag { return frontend.OptBasicRegs }

func (IncDecHoist) Run(fn *frontend.Function, _ config.Config) (bool, error) {
	changed := false
	body := fn.Body
	for i := body.Head(); i != nil; i = i.Next {
		if i.IsDummy() || !isAddOrSub(i.Op) || i.Src.Kind != ir.ImmInt || i.HasSrc2 {
			continue
		}
		cur := i.Next
		moved := false
		for cur != nil && canHoistPast(cur, &i.Dst) {
			moved = true
			cur = cur.Next
		}
		if !moved || cur == nil || cur == i.Next {
			continue
		}
		body.MoveAfter(i, cur.Prev)
		changed = true
	}
	return changed, nil
}

func canHoistPast(cur *ir.Instruction, ptr *ir.Operand) bool {
	if cur.IsDummy() {
		return true
	}
	if cur.Op == ir.LABEL || cur.Op == ir.CALL || ir.IsBranch(cur) || ir.IsCordicGet(cur) {
		return false
	}
	return !ir.Uses(cur, ptr) && !ir.Modifies(cur, ptr)
}
