package passes

import (
	"fmt"

	"github.com/totalspectrum/ppcc-optimizer/internal/config"
	"github.com/totalspectrum/ppcc-optimizer/internal/diag"
	"github.com/totalspectrum/ppcc-optimizer/internal/frontend"
	"github.com/totalspectrum/ppcc-optimizer/internal/ir"
)

// localRegisterCeiling is the hard slot limit spec.md §7 names under
// "Resource exhaustion": "Local-register numbering exceeds the fixed
// ceiling (150 slots)."
const localRegisterCeiling = 150

// LocalRegisterReuse implements spec.md §4.3's "Local-register renaming &
// reuse": every local-like base register touched is renamed to a localNN
// (RegLocal) or varNN slot, numbered in first-touch order. Each distinct
// register gets its own slot; slots of dead locals are not recycled. A
// RegSubReg view is renamed through its parent register, which takes a
// single slot; no contiguous run is reserved for a subregister array. Once
// the ceiling is reached, further registers keep their names and Run
// returns a ResourceExhausted error.
type LocalRegisterReuse struct{}

func (LocalRegisterReuse) Name() string                    { return "local_register_reuse" }
func (LocalRegisterReuse) Flag() frontend.OptimizeFlag { return frontend.OptLocalReuse }

func (LocalRegisterReuse) Run(fn *frontend.Function, _ config.Config) (bool, error) {
	names := map[string]string{}
	next := 0
	changed := false
	exhausted := false
	assign := func(op *ir.Operand) {
		if op == nil || !op.IsLocalLike() {
			return
		}
		if newName, ok := names[op.Name]; ok {
			if op.Name != newName {
				op.Name = newName
				changed = true
			}
			return
		}
		if next >= localRegisterCeiling {
			exhausted = true
			return // reported as ResourceExhausted once the walk is done
		}
		prefix := "var"
		if op.Kind == ir.RegLocal {
			prefix = "local"
		}
		newName := fmt.Sprintf("%s%02d", prefix, next)
		next++
		names[op.Name] = newName
		if op.Name != newName {
			op.Name = newName
			changed = true
		}
	}

	body := fn.Body
	for i := body.Head(); i != nil; i = i.Next {
		if i.IsDummy() {
			continue
		}
		assign(localBase(&i.Dst))
		assign(localBase(&i.Src))
		if i.HasSrc2 {
			assign(localBase(&i.Src2))
		}
	}

	if exhausted {
		return changed, diag.ResourceExhausted("local-register numbering exceeded %d slots", localRegisterCeiling)
	}
	return changed, nil
}

// localBase returns op itself if it's a plain local/temp, or its parent
// register if op is a RegSubReg view over one, so the whole subregister
// array is renamed together.
func localBase(op *ir.Operand) *ir.Operand {
	base := ir.BaseRegister(op)
	if base == nil || !base.IsLocalLike() {
		return nil
	}
	return base
}
