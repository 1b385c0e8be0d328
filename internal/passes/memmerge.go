package passes

import (
	"github.com/totalspectrum/ppcc-optimizer/internal/config"
	"github.com/totalspectrum/ppcc-optimizer/internal/dataflow"
	"github.com/totalspectrum/ppcc-optimizer/internal/frontend"
	"github.com/totalspectrum/ppcc-optimizer/internal/ir"
)

// MemoryMerge implements the straight-line shapes of spec.md §4.3's "Memory
// read/write merging": duplicate-read collapsing, long write-then-read
// collapsing, redundant post-read masking/zero-extend removal. The
// reorder-to-avoid-stalls sub-case is left to the scheduler-free model this
// optimizer uses (spec.md §5 rules out cross-instruction scheduling outside
// of the documented passes; a stall-avoidance reorder has no grounded home
// here and is recorded as dropped scope in the design ledger).
type MemoryMerge struct{}

func (MemoryMerge) Name() string                    { return "memory_merge" }
func (MemoryMerge) Flag() frontend.OptimizeFlag { return frontend.OptAggressiveMem }

func (MemoryMerge) Run(fn *frontend.Function, _ config.Config) (bool, error) {
	changed := false
	body := fn.Body
	for i := body.Head(); i != nil; i = i.Next {
		if i.IsDummy() || !(isMemRead(i.Op) || isMemWrite(i.Op)) {
			continue
		}
		next := nextLive(i)
		if next == nil {
			continue
		}

		// Two reads of the same address -> second becomes a move from the
		// first read's destination.
		if isMemRead(next.Op) && next.Op == i.Op && sameMemAddr(&next.Src, &i.Src) {
			if i.Next == next || !dataflow.WriteInRange(i.Next, next.Prev) {
				next.Op = ir.MOV
				next.Src = i.Dst
				changed = true
				continue
			}
		}

		// A long write followed by a long read of the same address -> the
		// read becomes a move from the value that was written. Byte/word
		// reads zero-extend the stored value, so those pairs are left alone.
		if i.Op == ir.WRLONG && next.Op == ir.RDLONG && sameMemAddr(&i.Src, &next.Src) {
			next.Op = ir.MOV
			next.Src = i.Dst
			changed = true
			continue
		}

		// A narrow read followed by an AND with the read width's full mask
		// is redundant.
		if isMemRead(i.Op) && next.Op == ir.AND && ir.SameRegister(&next.Dst, &i.Dst) && next.Src.Kind == ir.ImmInt &&
			next.Src.Val == fullMaskFor(i.Op) {
			body.Delete(next)
			changed = true
			continue
		}

		// A redundant zero-extend after RDBYTE/RDWORD.
		if isMemRead(i.Op) && next.Op == ir.ZEROX && ir.SameRegister(&next.Dst, &i.Dst) && next.Src.Kind == ir.ImmInt &&
			next.Src.Val == zeroExtendBitsFor(i.Op) {
			body.Delete(next)
			changed = true
			continue
		}
	}
	return changed, nil
}

func isMemRead(op ir.Opcode) bool {
	return op == ir.RDBYTE || op == ir.RDWORD || op == ir.RDLONG
}

func isMemWrite(op ir.Opcode) bool {
	return op == ir.WRBYTE || op == ir.WRWORD || op == ir.WRLONG
}

func memOpcodeWidth(op ir.Opcode) int {
	switch op {
	case ir.RDBYTE, ir.WRBYTE:
		return 1
	case ir.RDWORD, ir.WRWORD:
		return 2
	default:
		return 4
	}
}

func sameMemAddr(a, b *ir.Operand) bool {
	if !a.IsMemRef() || !b.IsMemRef() {
		return false
	}
	return a.Val == b.Val && ir.SameRegister(a.Parent, b.Parent)
}

func fullMaskFor(readOp ir.Opcode) int64 {
	switch memOpcodeWidth(readOp) {
	case 1:
		return 0xFF
	case 2:
		return 0xFFFF
	default:
		return -1
	}
}

func zeroExtendBitsFor(readOp ir.Opcode) int64 {
	switch memOpcodeWidth(readOp) {
	case 1:
		return 7
	case 2:
		return 15
	default:
		return 31
	}
}
