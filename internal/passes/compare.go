package passes

import (
	"github.com/totalspectrum/ppcc-optimizer/internal/config"
	"github.com/totalspectrum/ppcc-optimizer/internal/dataflow"
	"github.com/totalspectrum/ppcc-optimizer/internal/frontend"
	"github.com/totalspectrum/ppcc-optimizer/internal/ir"
)

// CompareOptimize implements spec.md §4.3's "Compare optimization" bullet.
type CompareOptimize struct{}

func (CompareOptimize) Name() string                    { return "compare_optimize" }
func (CompareOptimize) Flag() frontend.OptimizeFlag { return frontend.OptBasicRegs }

func (CompareOptimize) Run(fn *frontend.Function, _ config.Config) (bool, error) {
	changed := false
	body := fn.Body
	for i := body.Head(); i != nil; i = i.Next {
		if i.IsDummy() {
			continue
		}
		if i.Op != ir.CMP && i.Op != ir.CMPS {
			continue
		}

		// cmp x,x wcz -> C clear, Z set, known unconditionally.
		if ir.SameRegister(&i.Dst, &i.Src) && i.Eff&ir.EffWCZ == ir.EffWCZ {
			if applyConditionAfter(i, false, true) {
				body.Delete(i)
				changed = true
			}
			continue
		}

		// cmp x,#0 wz: move WZ onto the instruction that last wrote x, if
		// it can carry WZ and does not set Z already, and delete the compare.
		if i.Src.Kind == ir.ImmInt && i.Src.Val == 0 && i.Eff == ir.EffWZ {
			if setter := dataflow.FindPrevSetterForCompare(i, &i.Dst); setter != nil &&
				setter.Eff&ir.EffWZ == 0 && canCarryWZ(setter.Op) {
				setter.Eff |= ir.EffWZ
				body.Delete(i)
				changed = true
				continue
			}
		}
	}
	return changed, nil
}

// canCarryWZ reports whether op's encoding has a WZ bit to set (every
// arithmetic/logic opcode in this IR does; only a narrow set of pseudo/fixed
// flag ops do not).
func canCarryWZ(op ir.Opcode) bool {
	switch op {
	case ir.LABEL, ir.COMMENT, ir.DUMMY, ir.JMP, ir.CALL, ir.RET, ir.RETA,
		ir.DJNZ, ir.TJZ, ir.TJNZ, ir.MOVS, ir.MOVD:
		return false
	}
	return true
}
