package passes

import (
	"github.com/totalspectrum/ppcc-optimizer/internal/config"
	"github.com/totalspectrum/ppcc-optimizer/internal/frontend"
	"github.com/totalspectrum/ppcc-optimizer/internal/ir"
)

// ShortBranchConditionalize implements spec.md §4.3's "Short-forward-branch
// conditionalization": a short forward conditional jump over a span that can
// be legally predicated is replaced by applying the inverted condition to
// each instruction in the span, and the jump is deleted.
type ShortBranchConditionalize struct{}

func (ShortBranchConditionalize) Name() string                    { return "short_branch_conditionalize" }
func (ShortBranchConditionalize) Flag() frontend.OptimizeFlag { return frontend.OptBranches }

func (ShortBranchConditionalize) Run(fn *frontend.Function, cfg config.Config) (bool, error) {
	n := 3
	if cfg.P2 {
		n = 5
	}
	changed := false
	body := fn.Body
	for i := body.Head(); i != nil; i = i.Next {
		if i.IsDummy() || i.Op != ir.JMP || i.Cond == ir.CondAlways || i.Cond == ir.CondNever {
			continue
		}
		target, ok := i.Aux.(*ir.Instruction)
		if !ok || target == nil {
			continue
		}
		span := collectSpan(i.Next, target, n)
		if span == nil {
			continue
		}
		inv := ir.InvertCond(i.Cond)
		for _, s := range span {
			s.Cond = inv
		}
		ir.UnlinkJump(i)
		body.Delete(i)
		changed = true
	}
	return changed, nil
}

// collectSpan returns the live instructions strictly between from and
// target, or nil if the span exceeds limit, contains a label/branch, a BRK,
// or a DJNZ (none of which may be predicated).
func collectSpan(from, target *ir.Instruction, limit int) []*ir.Instruction {
	var span []*ir.Instruction
	for cur := from; cur != nil; cur = cur.Next {
		if cur == target {
			return span
		}
		if cur.IsDummy() {
			continue
		}
		if cur.Op == ir.LABEL || ir.IsBranch(cur) || cur.Op == ir.BRK {
			return nil
		}
		if len(span) >= limit {
			return nil
		}
		span = append(span, cur)
	}
	return nil
}
