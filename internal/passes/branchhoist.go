package passes

import (
	"github.com/totalspectrum/ppcc-optimizer/internal/config"
	"github.com/totalspectrum/ppcc-optimizer/internal/frontend"
	"github.com/totalspectrum/ppcc-optimizer/internal/ir"
)

// BranchCommonOpHoist implements spec.md §4.3's "Branch common-op hoisting":
// for a conditional branch whose target label's fall-in is an unconditional
// jump from exactly one place, if the instruction above the label matches
// the instruction after the branch and neither sets flags, hoist one copy
// before the branch.
type BranchCommonOpHoist struct{}

func (BranchCommonOpHoist) Name() string                    { return "branch_common_op_hoist" }
func (BranchCommonOpHoist) Flag() frontend.OptimizeFlag { return frontend.OptBranches }

func (BranchCommonOpHoist) Run(fn *frontend.Function, _ config.Config) (bool, error) {
	changed := false
	body := fn.Body
	for i := body.Head(); i != nil; i = i.Next {
		if i.IsDummy() || i.Op != ir.JMP || i.Cond == ir.CondNever {
			continue
		}
		label, ok := i.Aux.(*ir.Instruction)
		if !ok || label == nil || label.Op != ir.LABEL {
			continue
		}
		if !singleUnconditionalFallIn(label) {
			continue
		}
		above := lastLiveBefore(label)
		after := nextLive(i)
		if above == nil || after == nil || !instructionsEqual(above, after) {
			continue
		}
		if above.Eff&(ir.EffWC|ir.EffWZ) != 0 {
			continue
		}
		clone := *above
		clone.Prev, clone.Next, clone.Aux, clone.JumpListNext = nil, nil, nil, nil
		body.InsertBefore(i, &clone)
		body.Delete(after)
		changed = true
	}
	return changed, nil
}

// singleUnconditionalFallIn reports that label is targeted by exactly one
// jump, and that jump is unconditional — spec.md's "target label's fall-in
// is an unconditional jump from exactly one place".
func singleUnconditionalFallIn(label *ir.Instruction) bool {
	count := 0
	onlyUnconditional := true
	ir.JumpsTo(label, func(j *ir.Instruction) {
		count++
		if j.Cond != ir.CondAlways {
			onlyUnconditional = false
		}
	})
	return count == 1 && onlyUnconditional
}

func instructionsEqual(a, b *ir.Instruction) bool {
	return a.Op == b.Op && a.Cond == b.Cond && a.Eff == b.Eff &&
		operandsEqual(&a.Dst, &b.Dst) && operandsEqual(&a.Src, &b.Src) &&
		a.HasSrc2 == b.HasSrc2 && (!a.HasSrc2 || operandsEqual(&a.Src2, &b.Src2))
}

func operandsEqual(a, b *ir.Operand) bool {
	if a.Kind != b.Kind || a.Val != b.Val || a.Name != b.Name || a.Size != b.Size || a.Effect != b.Effect {
		return false
	}
	if (a.Parent == nil) != (b.Parent == nil) {
		return false
	}
	if a.Parent != nil {
		return operandsEqual(a.Parent, b.Parent)
	}
	return true
}
