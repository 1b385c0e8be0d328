package passes

import (
	"github.com/totalspectrum/ppcc-optimizer/internal/config"
	"github.com/totalspectrum/ppcc-optimizer/internal/dataflow"
	"github.com/totalspectrum/ppcc-optimizer/internal/frontend"
	"github.com/totalspectrum/ppcc-optimizer/internal/ir"
)

// MoveElimination implements spec.md §4.3's "Move elimination / coalescing"
// bullet: the five shapes of redundant/forwardable mov it lists.
type MoveElimination struct{}

func (MoveElimination) Name() string                    { return "move_elimination" }
func (MoveElimination) Flag() frontend.OptimizeFlag { return frontend.OptBasicRegs }

func (MoveElimination) Run(fn *frontend.Function, _ config.Config) (bool, error) {
	changed := false
	body := fn.Body
	for i := body.Head(); i != nil; {
		next := i.Next
		if i.IsDummy() || i.Op != ir.MOV || i.HasSrc2 {
			i = next
			continue
		}

		// mov r,r -> delete.
		if ir.SameRegister(&i.Dst, &i.Src) && i.Eff == ir.EffNone {
			body.Delete(i)
			changed = true
			i = next
			continue
		}

		// mov a,b with a dead shortly after -> forward-substitute b for a.
		if stop, ok := dataflow.SafeToReplaceForward(i.Next, &i.Dst, &i.Src, i.Cond); ok {
			substituteForward(i.Next, stop, &i.Dst, &i.Src)
			body.Delete(i)
			changed = true
			i = next
			continue
		}

		// mov a,b ... mov b,a immediately reachable with nothing redefining
		// either in between -> the second is a no-op, delete it.
		if dup := findRedundantSwapBack(i); dup != nil {
			body.Delete(dup)
			changed = true
		}

		// forward through a prior move: mov a,b ; ... ; mov c,a (reg-to-reg)
		// becomes mov c,b when a carries no other live use at the second mov.
		if i.Src.IsRegister() {
			if setter := dataflow.FindPrevSetterForReplace(i, &i.Src); setter != nil &&
				setter.Op == ir.MOV && setter.Src.IsRegister() && !setter.HasSrc2 {
				if dataflow.IsDeadAfter(i, &i.Src) {
					i.Src = setter.Src
					changed = true
				}
			}
		}

		i = next
	}
	return changed, nil
}

func substituteForward(from, stop *ir.Instruction, orig, replace *ir.Operand) {
	for cur := from; cur != nil; cur = cur.Next {
		if cur.IsDummy() {
			if cur == stop {
				break
			}
			continue
		}
		if ir.SameRegister(&cur.Src, orig) && !cur.Src.IsSubReg() {
			cur.Src = *replace
		}
		if cur.HasSrc2 && ir.SameRegister(&cur.Src2, orig) && !cur.Src2.IsSubReg() {
			cur.Src2 = *replace
		}
		if cur.Dst.IsMemRef() && ir.SameRegister(cur.Dst.Parent, orig) {
			*cur.Dst.Parent = *replace
		}
		if cur == stop {
			break
		}
	}
}

// findRedundantSwapBack looks immediately backward from a `mov b,a` for a
// `mov a,b` with nothing in between that redefines a or b, reporting the
// later instruction (i itself) as dead if found — matching spec.md's "move-
// like ops ... followed later by mov b,a -> delete the second".
func findRedundantSwapBack(i *ir.Instruction) *ir.Instruction {
	for cur := i.Prev; cur != nil; cur = cur.Prev {
		if cur.IsDummy() {
			continue
		}
		if cur.Op == ir.LABEL || ir.IsBranch(cur) {
			return nil
		}
		if cur.Op == ir.MOV && !cur.HasSrc2 &&
			ir.SameRegister(&cur.Dst, &i.Src) && ir.SameRegister(&cur.Src, &i.Dst) {
			return i
		}
		if ir.Modifies(cur, &i.Dst) || ir.Modifies(cur, &i.Src) {
			return nil
		}
	}
	return nil
}
