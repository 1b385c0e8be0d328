// Package emit documents the output contract the optimizer core hands to
// the text emitter (spec.md §6 "Outputs to the text emitter" and "Pseudo-
// opcodes the emitter recognizes"). It does not implement a PASM/P2ASM
// printer — that is an external collaborator (spec.md §1) — but gives the
// contract a concrete Go shape so internal/optimizer has something typed to
// hand off, and so tests can assert the contract's invariants without a
// real printer.
package emit

import "github.com/totalspectrum/ppcc-optimizer/internal/ir"

// Printer is the interface a real text emitter implements. The optimizer
// core never calls it directly; internal/optimizer.Result just exposes the
// finished IRList for whatever printer the driver wires up.
type Printer interface {
	Print(fn *FinishedFunction) (string, error)
}

// FinishedFunction is what the optimizer hands to the emitter: the same
// IRList it was given, now satisfying the output invariants from spec.md §6.
type FinishedFunction struct {
	Name string
	Body *ir.IRList
}

// CheckOutputContract verifies the invariants spec.md §6 requires of
// anything handed to the emitter:
//   - no instruction whose condition is Never (they may be left as dummies)
//   - every label either has no jump list and is marked "no jump" via
//     LabelUsedUnknown==false && Aux==nil (LABEL_NOJUMP), or is paired with
//     at least one jump whose Aux refers back to it
//   - every jump's Aux is either nil (unknown/external target) or points at
//     its label
func CheckOutputContract(body *ir.IRList) error {
	var firstErr error
	record := func(msg string) {
		if firstErr == nil {
			firstErr = contractError(msg)
		}
	}
	body.Walk(func(i *ir.Instruction) {
		if i.Op == ir.DUMMY {
			return
		}
		if i.IsDummy() {
			record("live instruction has Never condition but is not DUMMY")
		}
		if i.Op == ir.LABEL {
			if i.Aux == nil && !ir.IsLabelUsedUnknown(i) {
				// LABEL_NOJUMP: acceptable, nothing further to check.
				return
			}
			ir.JumpsTo(i, func(j *ir.Instruction) {
				if target, _ := j.Aux.(*ir.Instruction); target != i {
					record("label jump list entry does not point back at the label")
				}
			})
		}
		if ir.IsBranch(i) && i.Op != ir.CALL {
			if target, ok := i.Aux.(*ir.Instruction); ok && target.Op != ir.LABEL {
				record("jump Aux does not point at a LABEL")
			}
		}
	})
	return firstErr
}

type contractError string

func (e contractError) Error() string { return "emit: output contract violated: " + string(e) }
