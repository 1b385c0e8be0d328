package passes

import (
	"github.com/totalspectrum/ppcc-optimizer/internal/config"
	"github.com/totalspectrum/ppcc-optimizer/internal/frontend"
	"github.com/totalspectrum/ppcc-optimizer/internal/ir"
)

// OptimizeLongfill implements spec.md §4.3's "Longfill lowering": a call to
// the runtime `builtin_longfill_` whose value argument is a known constant
// is replaced with the cooperative SETQ-block-fill idiom, skipping the
// runtime call entirely.
type OptimizeLongfill struct{}

func (OptimizeLongfill) Name() string                    { return "optimize_longfill" }
func (OptimizeLongfill) Flag() frontend.OptimizeFlag { return frontend.OptAggressiveMem }

func (OptimizeLongfill) Run(fn *frontend.Function, _ config.Config) (bool, error) {
	changed := false
	body := fn.Body
	for i := body.Head(); i != nil; i = i.Next {
		if i.IsDummy() || i.Op != ir.CALL {
			continue
		}
		callee := ir.CalleeOf(i)
		if callee == nil || callee.Name != "builtin_longfill_" {
			continue
		}
		cntArg := findArgSetter(i, "arg0")
		ptrArg := findArgSetter(i, "arg1")
		valArg := findArgSetter(i, "arg2")
		if cntArg == nil || ptrArg == nil || valArg == nil || valArg.Src.Kind != ir.ImmInt {
			continue
		}
		k := valArg.Src.Val
		cnt := cntArg.Dst
		ptr := ptrArg.Dst

		sub := &ir.Instruction{Op: ir.SUB, Cond: ir.CondAlways, Eff: ir.EffWC,
			Dst: cnt, Src: ir.NewImm(1), Line: i.Line}
		setq := &ir.Instruction{Op: ir.SETQ, Cond: ir.Cond_NC, Dst: cnt, Line: i.Line}
		wr := &ir.Instruction{Op: ir.WRLONG, Cond: ir.Cond_NC,
			Dst: ir.NewImm(k), Src: ptr, Line: i.Line}

		body.InsertBefore(i, sub)
		body.InsertAfter(sub, setq)
		body.InsertAfter(setq, wr)
		body.Delete(i)
		changed = true
	}
	return changed, nil
}

// findArgSetter looks immediately backward from call for the nearest
// unconditional write to the named fast-call argument register.
func findArgSetter(call *ir.Instruction, argName string) *ir.Instruction {
	for cur := call.Prev; cur != nil; cur = cur.Prev {
		if cur.IsDummy() {
			continue
		}
		if cur.Op == ir.LABEL || ir.IsBranch(cur) {
			return nil
		}
		if cur.Dst.Name == argName && ir.SetsDst(cur) && cur.Cond == ir.CondAlways {
			return cur
		}
	}
	return nil
}
