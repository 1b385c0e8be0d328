package dataflow

import "github.com/totalspectrum/ppcc-optimizer/internal/ir"

// rangeWalk calls fn for every non-dummy instruction in the closed interval
// [a, b], following Next pointers; callers are expected to only invoke this
// on a straight-line span (no intervening branch target leaves the span),
// matching spec.md §4.2's "closed intervals" framing.
func rangeWalk(a, b *ir.Instruction, fn func(*ir.Instruction) bool) {
	for cur := a; cur != nil; cur = cur.Next {
		if !cur.IsDummy() {
			if !fn(cur) {
				return
			}
		}
		if cur == b {
			return
		}
	}
}

// UsedInRange reports whether reg is read anywhere in [a, b].
func UsedInRange(a, b *ir.Instruction, reg *ir.Operand) bool {
	found := false
	rangeWalk(a, b, func(i *ir.Instruction) bool {
		if ir.Uses(i, reg) {
			found = true
			return false
		}
		return true
	})
	return found
}

// ModifiedInRange reports whether reg is written anywhere in [a, b].
func ModifiedInRange(a, b *ir.Instruction, reg *ir.Operand) bool {
	found := false
	rangeWalk(a, b, func(i *ir.Instruction) bool {
		if ir.Modifies(i, reg) {
			found = true
			return false
		}
		return true
	})
	return found
}

// FlagsChangeInRange reports whether any of the given flag bits are set
// (written) anywhere in [a, b].
func FlagsChangeInRange(a, b *ir.Instruction, flags ir.FlagBit) bool {
	found := false
	rangeWalk(a, b, func(i *ir.Instruction) bool {
		if flags&ir.FlagC != 0 && i.Eff&ir.EffWC != 0 {
			found = true
			return false
		}
		if flags&ir.FlagZ != 0 && i.Eff&ir.EffWZ != 0 {
			found = true
			return false
		}
		return true
	})
	return found
}

// ReadWriteInRange reports whether [a, b] contains any memory access at all
// (used by the CORDIC reorderer and the memory-merge pass to bound aliasing
// analysis to the spans that can possibly matter).
func ReadWriteInRange(a, b *ir.Instruction) bool {
	found := false
	rangeWalk(a, b, func(i *ir.Instruction) bool {
		if ir.IsMemory(i) {
			found = true
			return false
		}
		return true
	})
	return found
}

// WriteInRange reports whether [a, b] contains any memory write.
func WriteInRange(a, b *ir.Instruction) bool {
	found := false
	rangeWalk(a, b, func(i *ir.Instruction) bool {
		switch i.Op {
		case ir.WRBYTE, ir.WRWORD, ir.WRLONG:
			found = true
			return false
		}
		return true
	})
	return found
}

// MinCyclesInRange sums InstrMinCycles over every real instruction in
// [a, b] — used by the CORDIC pipeliner to track "cycles covered" and by
// the F-cache sizer.
func MinCyclesInRange(a, b *ir.Instruction) int {
	total := 0
	rangeWalk(a, b, func(i *ir.Instruction) bool {
		total += ir.InstrMinCycles(i)
		return true
	})
	return total
}
