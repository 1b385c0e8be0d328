package passes

import (
	"github.com/totalspectrum/ppcc-optimizer/internal/config"
	"github.com/totalspectrum/ppcc-optimizer/internal/frontend"
	"github.com/totalspectrum/ppcc-optimizer/internal/ir"
)

// AddSubCoalesce implements spec.md §4.3's "Add/sub coalescing": two
// consecutive ADD/SUB on the same register with constant operands and
// matching conditions collapse into one.
type AddSubCoalesce struct{}

func (AddSubCoalesce) Name() string                    { return "addsub_coalesce" }
func (AddSubCoalesce) Flag() frontend.OptimizeFlag { return frontend.OptBasicRegs }

func (AddSubCoalesce) Run(fn *frontend.Function, _ config.Config) (bool, error) {
	changed := false
	body := fn.Body
	for i := body.Head(); i != nil; i = i.Next {
		if i.IsDummy() || !isAddOrSub(i.Op) || i.Src.Kind != ir.ImmInt || i.HasSrc2 {
			continue
		}
		next := nextLive(i)
		if next == nil || !isAddOrSub(next.Op) || next.Src.Kind != ir.ImmInt || next.HasSrc2 {
			continue
		}
		if !ir.SameRegister(&i.Dst, &next.Dst) || i.Cond != next.Cond {
			continue
		}
		if i.Eff != ir.EffNone || next.Eff != ir.EffNone {
			// Coalescing across a flag-setting add/sub would change which
			// instruction's flags survive; leave those for apply_condition_after
			// to reason about instead of folding blindly here.
			continue
		}
		delta := signedDelta(i) + signedDelta(next)
		op := ir.ADD
		if delta < 0 {
			op = ir.SUB
			delta = -delta
		}
		i.Op = op
		i.Src = ir.NewImm(delta)
		body.Delete(next)
		changed = true
	}
	return changed, nil
}

func isAddOrSub(op ir.Opcode) bool { return op == ir.ADD || op == ir.SUB }

func signedDelta(i *ir.Instruction) int64 {
	if i.Op == ir.SUB {
		return -i.Src.Val
	}
	return i.Src.Val
}

// nextLive returns the next non-dummy instruction, or nil if none, stopping
// at any label/branch since those break the straight-line adjacency this
// pass requires.
func nextLive(i *ir.Instruction) *ir.Instruction {
	for cur := i.Next; cur != nil; cur = cur.Next {
		if cur.IsDummy() {
			continue
		}
		if cur.Op == ir.LABEL || ir.IsBranch(cur) {
			return nil
		}
		return cur
	}
	return nil
}
