package passes

import (
	"github.com/totalspectrum/ppcc-optimizer/internal/config"
	"github.com/totalspectrum/ppcc-optimizer/internal/frontend"
	"github.com/totalspectrum/ppcc-optimizer/internal/ir"
)

// ImmediateCanonicalize implements spec.md §4.3's "Immediate
// canonicalization" bullet.
type ImmediateCanonicalize struct{}

func (ImmediateCanonicalize) Name() string                    { return "immediate_canonicalize" }
func (ImmediateCanonicalize) Flag() frontend.OptimizeFlag { return frontend.OptBasicRegs }

func (ImmediateCanonicalize) Run(fn *frontend.Function, _ config.Config) (bool, error) {
	changed := false
	body := fn.Body
	for i := body.Head(); i != nil; i = i.Next {
		if i.IsDummy() || i.Src.Kind != ir.ImmInt || i.HasSrc2 {
			continue
		}
		v := i.Src.Val

		switch i.Op {
		case ir.MOV:
			if v < 0 {
				i.Op = ir.NEG
				i.Src = ir.NewImm(-v)
				changed = true
			}
		case ir.AND:
			if v < 0 {
				i.Op = ir.ANDN
				i.Src = ir.NewImm(^v)
				changed = true
			}
		case ir.ADD:
			if v < 0 {
				i.Op = ir.SUB
				i.Src = ir.NewImm(-v)
				changed = true
			}
		case ir.SUB:
			if v < 0 {
				i.Op = ir.ADD
				i.Src = ir.NewImm(-v)
				changed = true
			}
		case ir.SHL, ir.SHR, ir.SAR, ir.ROL, ir.ROR, ir.TESTB, ir.TESTBN,
			ir.BITH, ir.BITL, ir.BITC, ir.BITNC, ir.BITZ, ir.BITNZ, ir.BITNOT:
			masked := v & 31
			if masked != v {
				i.Src = ir.NewImm(masked)
				changed = true
			}
		}
	}
	return changed, nil
}
