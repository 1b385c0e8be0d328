package passes

import (
	"math/bits"

	"github.com/totalspectrum/ppcc-optimizer/internal/config"
	"github.com/totalspectrum/ppcc-optimizer/internal/dataflow"
	"github.com/totalspectrum/ppcc-optimizer/internal/frontend"
	"github.com/totalspectrum/ppcc-optimizer/internal/ir"
)

// P2Peephole implements the P2-specific rewrites spec.md §4.3's "P2 peephole
// opportunities" bullet names: mov+shl fused into decod, xor-of-a-single-bit
// into bitnot, and-of-an-almost-all-ones-mask into bitl, mov-of-a-low-bit-mask
// into bmask, addct1-after-add fusion, and turning a DJNZ loop whose body
// never touches the counter into a REPEAT/REPEAT_END region (spec.md §8 S6).
// Grounded on `original_source/backends/asm/asm_peep.c`'s table of small
// opcode-pair rewrites; P2-only since every opcode it introduces (DECOD,
// BITNOT, BITL, BMASK, ADDCT1, REPEAT) is a P2 instruction.
type P2Peephole struct{}

func (P2Peephole) Name() string                    { return "p2_peephole" }
func (P2Peephole) Flag() frontend.OptimizeFlag { return frontend.OptBasicRegs }

func (P2Peephole) Run(fn *frontend.Function, cfg config.Config) (bool, error) {
	if !cfg.P2 {
		return false, nil
	}
	body := fn.Body
	changed := false
	for i := body.Head(); i != nil; i = i.Next {
		if i.IsDummy() {
			continue
		}
		switch {
		case tryDecodFusion(body, i):
			changed = true
		case tryBitnotFusion(i):
			changed = true
		case tryBitlFusion(i):
			changed = true
		case tryBmaskFusion(i):
			changed = true
		case tryAddct1Fusion(body, i):
			changed = true
		case tryRepeatLoop(body, i):
			changed = true
		}
	}
	return changed, nil
}

// tryDecodFusion matches "mov r,#1 ; shl r,n" and rewrites it to "decod r,n"
// (DECOD D,{#}S sets D = 1<<S).
func tryDecodFusion(body *ir.IRList, i *ir.Instruction) bool {
	if i.Op != ir.MOV || i.Cond != ir.CondAlways || i.Src.Kind != ir.ImmInt || i.Src.Val != 1 {
		return false
	}
	next := nextLive(i)
	if next == nil || next.Op != ir.SHL || next.Cond != ir.CondAlways {
		return false
	}
	if !ir.SameRegister(&i.Dst, &next.Dst) {
		return false
	}
	i.Op = ir.DECOD
	i.Src = next.Src
	body.Delete(next)
	return true
}

// tryBitnotFusion matches "xor r,#(1<<k)" and rewrites it to "bitnot r,#k"
// (BITNOT D,{#}S toggles bit S of D).
func tryBitnotFusion(i *ir.Instruction) bool {
	if i.Op != ir.XOR || i.Cond != ir.CondAlways || i.Src.Kind != ir.ImmInt {
		return false
	}
	k, ok := singleBitIndex(i.Src.Val)
	if !ok {
		return false
	}
	i.Op = ir.BITNOT
	i.Src = ir.NewImm(k)
	return true
}

// tryBitlFusion matches "and r,#mask" where mask clears exactly one bit (all
// other bits set) and rewrites it to "bitl r,#k" (BITL D,{#}S clears bit S
// of D, leaving the rest of D unchanged).
func tryBitlFusion(i *ir.Instruction) bool {
	if i.Op != ir.AND || i.Cond != ir.CondAlways || i.Src.Kind != ir.ImmInt {
		return false
	}
	k, ok := singleBitIndex(^i.Src.Val & 0xFFFFFFFF)
	if !ok {
		return false
	}
	i.Op = ir.BITL
	i.Src = ir.NewImm(k)
	return true
}

// tryBmaskFusion matches "mov r,#mask" where mask is a run of set low bits
// (2^(k+1)-1) and rewrites it to "bmask r,#k" (BMASK D,{#}S sets D to a mask
// of its low S+1 bits).
func tryBmaskFusion(i *ir.Instruction) bool {
	if i.Op != ir.MOV || i.Cond != ir.CondAlways || i.Src.Kind != ir.ImmInt {
		return false
	}
	v := i.Src.Val
	if v <= 0 {
		return false
	}
	bitCount, ok := singleBitIndex(v + 1)
	if !ok {
		return false
	}
	i.Op = ir.BMASK
	i.Src = ir.NewImm(bitCount - 1)
	return true
}

// tryAddct1Fusion matches "add r,v ; addct1 r,#0" and rewrites it to
// "addct1 r,v", dropping the now-redundant zero-add.
func tryAddct1Fusion(body *ir.IRList, i *ir.Instruction) bool {
	if i.Op != ir.ADD || i.Cond != ir.CondAlways {
		return false
	}
	next := nextLive(i)
	if next == nil || next.Op != ir.ADDCT1 || next.Cond != ir.CondAlways {
		return false
	}
	if !ir.SameRegister(&i.Dst, &next.Dst) || next.Src.Kind != ir.ImmInt || next.Src.Val != 0 {
		return false
	}
	i.Op = ir.ADDCT1
	body.Delete(next)
	return true
}

// singleBitIndex reports whether v has exactly one bit set and, if so,
// that bit's index.
func singleBitIndex(v int64) (int64, bool) {
	if v <= 0 || v&(v-1) != 0 {
		return 0, false
	}
	return int64(bits.TrailingZeros64(uint64(v))), true
}

// tryRepeatLoop implements spec.md §8 S6: a label with a single backward
// DJNZ back-edge, whose body never touches the counter register, becomes
// "rep @end,ctr" ahead of the body plus a trailing end label, with the
// DJNZ itself removed (the counter is dead afterward — spec.md's own S6
// asserts this — since the REP hardware consumes it).
func tryRepeatLoop(body *ir.IRList, label *ir.Instruction) bool {
	if label.Op != ir.LABEL || !ir.HasKnownPredecessors(label) {
		return false
	}
	djnz := singleBackwardDjnz(label)
	if djnz == nil {
		return false
	}
	counter := djnz.Dst
	if dataflow.UsedInRange(label, djnz.Prev, &counter) || dataflow.ModifiedInRange(label, djnz.Prev, &counter) {
		return false
	}
	if !dataflow.IsDeadAfter(djnz, &counter) {
		return false
	}

	end := &ir.Instruction{Op: ir.LABEL, Text: label.Text + "_rep_end"}
	body.InsertAfter(djnz, end)
	rep := &ir.Instruction{Op: ir.REPEAT, Cond: ir.CondAlways,
		Dst: ir.Operand{Kind: ir.ImmHubLabel, Name: end.Text}, Src: counter, Aux: end}
	body.InsertBefore(label, rep)
	ir.UnlinkJump(djnz)
	body.Delete(djnz)
	return true
}

// singleBackwardDjnz returns label's sole predecessor jump if it is an
// unconditional DJNZ appearing after label in program order, or nil.
func singleBackwardDjnz(label *ir.Instruction) *ir.Instruction {
	var found *ir.Instruction
	count := 0
	ir.JumpsTo(label, func(jump *ir.Instruction) {
		count++
		if jump.Op == ir.DJNZ && jump.Cond == ir.CondAlways && isAfterInBody(label, jump) {
			found = jump
		}
	})
	if count != 1 || found == nil {
		return nil
	}
	return found
}

func isAfterInBody(from, target *ir.Instruction) bool {
	for cur := from; cur != nil; cur = cur.Next {
		if cur == target {
			return true
		}
	}
	return false
}
