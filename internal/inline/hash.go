package inline

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/totalspectrum/ppcc-optimizer/internal/frontend"
	"github.com/totalspectrum/ppcc-optimizer/internal/ir"
)

// HashFunction implements spec.md §4.5's duplicate-merge hash: every
// non-dummy instruction feeds its opcode, condition, flag bits, per-operand
// effect bits, and each operand's kind/value/name into the sponge; a
// jump additionally feeds the relative address of its target label so
// two functions with the same instructions but different control-flow
// shape never collide.
func HashFunction(fn *frontend.Function) [32]byte {
	h := sha256.New()
	var buf [8]byte
	writeU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	writeOperand := func(op *ir.Operand) {
		writeU64(uint64(op.Kind))
		writeU64(uint64(op.Val))
		writeU64(uint64(op.Size))
		writeU64(uint64(op.Effect))
		h.Write([]byte(op.Name))
	}

	fn.Body.Walk(func(i *ir.Instruction) {
		if i.IsDummy() {
			return
		}
		writeU64(uint64(i.Op))
		writeU64(uint64(i.Cond))
		writeU64(uint64(i.Eff))
		writeOperand(&i.Dst)
		writeOperand(&i.Src)
		if i.HasSrc2 {
			writeOperand(&i.Src2)
		}
		if label, ok := i.Aux.(*ir.Instruction); ok && label != nil && label.Op == ir.LABEL {
			writeU64(uint64(label.Address - i.Address))
		}
	})

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
