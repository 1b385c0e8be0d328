package inline

import (
	"github.com/totalspectrum/ppcc-optimizer/internal/frontend"
	"github.com/totalspectrum/ppcc-optimizer/internal/ir"
)

// instrThreshold returns spec.md §4.5's instruction-count cap: "2 on P1, 4 on P2,
// scaled by parameter count, 100 for prefer_inline". This implementation
// does not track a per-function parameter count (the frontend contract in
// spec.md §6 doesn't carry one), so the scaling factor is fixed at 1;
// prefer_inline still gets the full 100-instruction allowance.
func instrThreshold(fn *frontend.Function, p2 bool) int {
	if fn.InliningFlags&frontend.InlinePreferInline != 0 {
		return 100
	}
	if p2 {
		return 4
	}
	return 2
}

// notMarkedNoInline is criterion (1): no alloca, no stack-local
// address-of, no closure capture.
func notMarkedNoInline(fn *frontend.Function) bool {
	return !fn.UsesAlloca && !fn.LocalAddrTaken && !fn.Closure
}

// everyLabelRenamable is criterion (2): every label in the function has a
// known predecessor list, so the expander can re-stamp it and update every
// referring jump's aux. Entry/return/alt-entry labels are exempt: they are
// reached externally by construction and are never themselves cloned as a
// jump target within the clone (see expand.go).
func everyLabelRenamable(fn *frontend.Function) bool {
	ok := true
	fn.Body.Walk(func(i *ir.Instruction) {
		if !ok || i.Op != ir.LABEL {
			return
		}
		if i == fn.EntryLabel || i == fn.ReturnLabel || i == fn.AltEntryLabel {
			return
		}
		if !ir.HasKnownPredecessors(i) {
			ok = false
		}
	})
	return ok
}

// fitsInstrCount is criterion (3).
func fitsInstrCount(fn *frontend.Function, p2 bool) bool {
	return fn.InlineInstrCount > 0 && fn.InlineInstrCount <= instrThreshold(fn, p2)
}

// fewCallSitesDisappearing is criterion (4): inlining its only handful of
// call sites would remove the function body entirely.
func fewCallSitesDisappearing(fn *frontend.Function) bool {
	return fn.CallSites > 0 && fn.CallSites <= 2
}

// isPure is the ALU-only half of criterion (5): every instruction reads
// only locals/args/results/immediates and performs no memory, CORDIC, or
// hardware access.
func isPure(fn *frontend.Function) bool {
	pure := true
	fn.Body.Walk(func(i *ir.Instruction) {
		if !pure || i.IsDummy() || i.Op == ir.LABEL {
			return
		}
		if ir.IsMemory(i) || ir.IsHardwareTouch(i) || ir.IsCordicCommand(i) || ir.IsCordicGet(i) ||
			ir.IsBranch(i) || i.Op == ir.CALL {
			pure = false
		}
	})
	return pure
}

// allArgsConstant checks the other half of criterion (5): at this specific
// call site, every fast-call argument register was loaded from a known
// immediate immediately before the call.
func allArgsConstant(call *ir.Instruction) bool {
	found := false
	for cur := call.Prev; cur != nil; cur = cur.Prev {
		if cur.IsDummy() {
			continue
		}
		if cur.Op == ir.LABEL || ir.IsBranch(cur) {
			break
		}
		if cur.Dst.Kind == ir.RegArg && ir.SetsDst(cur) && cur.Cond == ir.CondAlways {
			found = true
			if cur.Src.Kind != ir.ImmInt {
				return false
			}
			continue
		}
		break
	}
	return found
}

// Eligible implements spec.md §4.5's full eligibility test for inlining
// callee at this particular call site: criteria (1) and (2) are mandatory;
// at least one of (3), (4), or (5) must also hold.
func Eligible(callee *frontend.Function, call *ir.Instruction, p2 bool) bool {
	if callee.IsRecursive {
		return false
	}
	if !notMarkedNoInline(callee) || !everyLabelRenamable(callee) {
		return false
	}
	if fitsInstrCount(callee, p2) {
		return true
	}
	if fewCallSitesDisappearing(callee) {
		return true
	}
	if callee.InliningFlags&frontend.InlinePure != 0 && isPure(callee) && allArgsConstant(call) {
		return true
	}
	return false
}
