package cordic

import (
	"github.com/totalspectrum/ppcc-optimizer/internal/diag"
	"github.com/totalspectrum/ppcc-optimizer/internal/ir"
)

// FoldConstants implements spec.md §4.6's constant-folding half: a CORDIC
// command whose operands are both integer immediates has its paired
// GETQX/GETQY replaced with literal moves of the precomputed result, and a
// stray command with no matching GET is deleted with a diagnostic, unless
// the user marked it volatile, in which case it is kept and nothing is
// reported. Only QMUL (32x32->64 product) and QDIV
// (64/32 quotient+remainder, dividend high word from a captured preceding
// SETQ) have a concretely specified result per spec.md §4.6; the other
// CORDIC ops (QFRAC/QROTATE/QSQRT/QVECTOR/QLOG/QEXP) are left unfolded —
// see DESIGN.md.
func FoldConstants(body *ir.IRList, sink *diag.Sink) bool {
	changed := false
	for cmd := body.Head(); cmd != nil; cmd = cmd.Next {
		if cmd.IsDummy() || !ir.IsCordicCommand(cmd.Op) {
			continue
		}
		getx, gety := pairedGets(cmd)
		if getx == nil && gety == nil {
			if !cmd.Volatile && sink != nil {
				sink.Report(diag.UserDiagnostic(cmd.Line, false,
					"stray cordic command with no matching getqx/getqy"))
			}
			if !cmd.Volatile {
				body.Delete(cmd)
				changed = true
			}
			continue
		}
		lo, hi, ok := evalConstCordic(cmd)
		if !ok {
			continue
		}
		if getx != nil {
			getx.Op = ir.MOV
			getx.HasSrc2 = false
			getx.Src = ir.NewImm(lo)
		}
		if gety != nil {
			gety.Op = ir.MOV
			gety.HasSrc2 = false
			gety.Src = ir.NewImm(hi)
		}
		body.Delete(cmd)
		changed = true
	}
	return changed
}

// pairedGets finds the nearest GETQX and/or GETQY fed by cmd, stopping at
// the next CORDIC command, branch, or label (same pairing rule as the
// pipeliner).
func pairedGets(cmd *ir.Instruction) (getx, gety *ir.Instruction) {
	for cur := cmd.Next; cur != nil; cur = cur.Next {
		if cur.IsDummy() {
			continue
		}
		if cur.Op == ir.GETQX && getx == nil {
			getx = cur
			continue
		}
		if cur.Op == ir.GETQY && gety == nil {
			gety = cur
			continue
		}
		if ir.IsCordicCommand(cur.Op) || ir.IsBranch(cur) || cur.Op == ir.LABEL {
			break
		}
	}
	return getx, gety
}

// evalConstCordic evaluates cmd if both its operands are known integer
// immediates, returning (getqx-value, getqy-value, ok).
func evalConstCordic(cmd *ir.Instruction) (lo, hi int64, ok bool) {
	if cmd.Dst.Kind != ir.ImmInt || cmd.Src.Kind != ir.ImmInt {
		return 0, 0, false
	}
	switch cmd.Op {
	case ir.QMUL:
		product := uint64(uint32(cmd.Dst.Val)) * uint64(uint32(cmd.Src.Val))
		return int64(int32(uint32(product))), int64(int32(uint32(product >> 32))), true
	case ir.QDIV:
		divisor := uint32(cmd.Src.Val)
		if divisor == 0 {
			return 0, 0, false
		}
		var dividend uint64
		if setq := precedingSetQ(cmd); setq != nil && setq.Dst.Kind == ir.ImmInt {
			dividend = uint64(uint32(setq.Dst.Val))<<32 | uint64(uint32(cmd.Dst.Val))
		} else {
			dividend = uint64(uint32(cmd.Dst.Val))
		}
		quotient := dividend / uint64(divisor)
		remainder := dividend % uint64(divisor)
		return int64(int32(uint32(quotient))), int64(int32(uint32(remainder))), true
	}
	return 0, 0, false
}

// precedingSetQ returns the SETQ immediately preceding cmd (providing the
// dividend's high 32 bits for QDIV), or nil if cmd isn't directly preceded
// by one.
func precedingSetQ(cmd *ir.Instruction) *ir.Instruction {
	for cur := cmd.Prev; cur != nil; cur = cur.Prev {
		if cur.IsDummy() {
			continue
		}
		if cur.Op == ir.SETQ {
			return cur
		}
		return nil
	}
	return nil
}
