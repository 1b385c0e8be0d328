package passes

import (
	"github.com/totalspectrum/ppcc-optimizer/internal/config"
	"github.com/totalspectrum/ppcc-optimizer/internal/dataflow"
	"github.com/totalspectrum/ppcc-optimizer/internal/frontend"
	"github.com/totalspectrum/ppcc-optimizer/internal/ir"
)

// OptimizeMulDiv implements spec.md §4.8 step 1: recognize a redundant
// `mov muldiva,a; mov muldivb,b; call #mul/div` sequence that reloads
// muldiva/muldivb with the values they already hold from an identical
// immediately-preceding call, and drop the reload plus the repeat call in
// favor of reusing the previous result register.
type OptimizeMulDiv struct{}

func (OptimizeMulDiv) Name() string { return "optimize_muldiv" }

func (OptimizeMulDiv) Run(fn *frontend.Function, _ config.Config) (bool, error) {
	changed := false
	body := fn.Body
	for i := body.Head(); i != nil; i = i.Next {
		if i.IsDummy() || i.Op != ir.CALL {
			continue
		}
		callee := ir.CalleeOf(i)
		if callee == nil || !callee.IsMulDivHelper {
			continue
		}
		loadA, loadB := muldivLoads(i)
		if loadA == nil || loadB == nil {
			continue
		}
		prevCall := priorMulDivCall(loadA)
		if prevCall == nil {
			continue
		}
		prevLoadA, prevLoadB := muldivLoads(prevCall)
		if prevLoadA == nil || prevLoadB == nil {
			continue
		}
		if !operandsEqual(&loadA.Src, &prevLoadA.Src) || !operandsEqual(&loadB.Src, &prevLoadB.Src) {
			continue
		}
		if dataflow.ModifiedInRange(prevCall.Next, loadA.Prev, &loadA.Src) ||
			dataflow.ModifiedInRange(prevCall.Next, loadB.Prev, &loadB.Src) {
			continue
		}
		body.Delete(loadA)
		body.Delete(loadB)
		body.Delete(i)
		changed = true
	}
	return changed, nil
}

// muldivLoads returns the two immediately-preceding `mov muldiva,_`/
// `mov muldivb,_` setters feeding call, or nil if the shape doesn't match.
func muldivLoads(call *ir.Instruction) (a, b *ir.Instruction) {
	cur := call.Prev
	for cur != nil && cur.IsDummy() {
		cur = cur.Prev
	}
	if cur == nil || cur.Op != ir.MOV || cur.Dst.Name != "muldivb" {
		return nil, nil
	}
	b = cur
	cur = cur.Prev
	for cur != nil && cur.IsDummy() {
		cur = cur.Prev
	}
	if cur == nil || cur.Op != ir.MOV || cur.Dst.Name != "muldiva" {
		return nil, nil
	}
	a = cur
	return a, b
}

// priorMulDivCall looks backward from before to the nearest earlier CALL to
// a mul/div helper, stopping at any label or other branch.
func priorMulDivCall(before *ir.Instruction) *ir.Instruction {
	for cur := before.Prev; cur != nil; cur = cur.Prev {
		if cur.IsDummy() {
			continue
		}
		if cur.Op == ir.LABEL || ir.IsBranch(cur) {
			return nil
		}
		if cur.Op == ir.CALL {
			if callee := ir.CalleeOf(cur); callee != nil && callee.IsMulDivHelper {
				return cur
			}
			return nil
		}
	}
	return nil
}
