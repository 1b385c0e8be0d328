package passes

import (
	"github.com/totalspectrum/ppcc-optimizer/internal/config"
	"github.com/totalspectrum/ppcc-optimizer/internal/frontend"
	"github.com/totalspectrum/ppcc-optimizer/internal/ir"
)

// CogWriteFusion implements spec.md §4.3's "Cog-memory write fusion":
// `movs wrcog,#x; movd wrcog,#y; call #wrcog` collapses to `mov x,y` after
// name resolution.
type CogWriteFusion struct{}

func (CogWriteFusion) Name() string                    { return "cog_write_fusion" }
func (CogWriteFusion) Flag() frontend.OptimizeFlag { return frontend.OptBasicRegs }

func (CogWriteFusion) Run(fn *frontend.Function, _ config.Config) (bool, error) {
	changed := false
	body := fn.Body
	for i := body.Head(); i != nil; i = i.Next {
		if i.IsDummy() || i.Op != ir.MOVS || i.Src.Kind != ir.ImmCogLabel {
			continue
		}
		movd := nextLive(i)
		if movd == nil || movd.Op != ir.MOVD || movd.Src.Kind != ir.ImmCogLabel || movd.Dst.Name != "wrcog" {
			continue
		}
		if i.Dst.Name != "wrcog" {
			continue
		}
		call := nextLive(movd)
		if call == nil || call.Op != ir.CALL {
			continue
		}
		callee := ir.CalleeOf(call)
		if callee == nil || callee.Name != "wrcog" {
			continue
		}
		x := i.Src
		y := movd.Src
		i.Op = ir.MOV
		i.Dst = ir.Operand{Kind: ir.RegCogPtr, Name: x.Name, Val: x.Val}
		i.Src = ir.Operand{Kind: ir.RegCogPtr, Name: y.Name, Val: y.Val}
		body.Delete(movd)
		body.Delete(call)
		changed = true
	}
	return changed, nil
}
