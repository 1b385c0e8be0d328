package passes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/totalspectrum/ppcc-optimizer/internal/config"
	"github.com/totalspectrum/ppcc-optimizer/internal/frontend"
	"github.com/totalspectrum/ppcc-optimizer/internal/ir"
)

func chain(irl *ir.IRList, instrs ...*ir.Instruction) {
	for _, i := range instrs {
		irl.Append(i)
	}
}

func p2Fn(body *ir.IRList) *frontend.Function {
	return &frontend.Function{Name: "f", Body: body}
}

func TestDecodFusion(t *testing.T) {
	body := ir.NewIRList()
	r := ir.NewReg(ir.RegLocal, "r")
	mov := &ir.Instruction{Op: ir.MOV, Cond: ir.CondAlways, Dst: r, Src: ir.NewImm(1)}
	shl := &ir.Instruction{Op: ir.SHL, Cond: ir.CondAlways, Dst: r, Src: ir.NewImm(5)}
	chain(body, mov, shl)

	changed, err := (P2Peephole{}).Run(p2Fn(body), config.Config{P2: true})
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, ir.DECOD, mov.Op)
	require.Equal(t, int64(5), mov.Src.Val)
	require.True(t, shl.IsDummy())
}

func TestDecodFusionSkippedOnP1(t *testing.T) {
	body := ir.NewIRList()
	r := ir.NewReg(ir.RegLocal, "r")
	mov := &ir.Instruction{Op: ir.MOV, Cond: ir.CondAlways, Dst: r, Src: ir.NewImm(1)}
	shl := &ir.Instruction{Op: ir.SHL, Cond: ir.CondAlways, Dst: r, Src: ir.NewImm(5)}
	chain(body, mov, shl)

	changed, err := (P2Peephole{}).Run(p2Fn(body), config.Config{P2: false})
	require.NoError(t, err)
	require.False(t, changed)
	require.Equal(t, ir.MOV, mov.Op)
}

func TestBmaskFusion(t *testing.T) {
	body := ir.NewIRList()
	r := ir.NewReg(ir.RegLocal, "r")
	mov := &ir.Instruction{Op: ir.MOV, Cond: ir.CondAlways, Dst: r, Src: ir.NewImm(7)} // 0b111
	chain(body, mov)

	changed, err := (P2Peephole{}).Run(p2Fn(body), config.Config{P2: true})
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, ir.BMASK, mov.Op)
	require.Equal(t, int64(2), mov.Src.Val)
}

func TestBitnotFusion(t *testing.T) {
	body := ir.NewIRList()
	r := ir.NewReg(ir.RegLocal, "r")
	xor := &ir.Instruction{Op: ir.XOR, Cond: ir.CondAlways, Dst: r, Src: ir.NewImm(1 << 3)}
	chain(body, xor)

	changed, err := (P2Peephole{}).Run(p2Fn(body), config.Config{P2: true})
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, ir.BITNOT, xor.Op)
	require.Equal(t, int64(3), xor.Src.Val)
}

func TestAddct1Fusion(t *testing.T) {
	body := ir.NewIRList()
	r := ir.NewReg(ir.RegLocal, "r")
	add := &ir.Instruction{Op: ir.ADD, Cond: ir.CondAlways, Dst: r, Src: ir.NewImm(4)}
	addct1 := &ir.Instruction{Op: ir.ADDCT1, Cond: ir.CondAlways, Dst: r, Src: ir.NewImm(0)}
	chain(body, add, addct1)

	changed, err := (P2Peephole{}).Run(p2Fn(body), config.Config{P2: true})
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, ir.ADDCT1, add.Op)
	require.Equal(t, int64(4), add.Src.Val)
	require.True(t, addct1.IsDummy())
}

// TestDjnzLoopBecomesRepeat is spec.md §8 scenario S6: a DJNZ loop whose body
// never touches the counter becomes a REPEAT region with the DJNZ dropped,
// since the counter is dead once the hardware repeat consumes it.
func TestDjnzLoopBecomesRepeat(t *testing.T) {
	body := ir.NewIRList()
	x := ir.NewReg(ir.RegLocal, "x")
	ctr := ir.NewReg(ir.RegLocal, "ctr")

	label := &ir.Instruction{Op: ir.LABEL, Text: "loop"}
	i1 := &ir.Instruction{Op: ir.ADD, Cond: ir.CondAlways, Dst: x, Src: ir.NewImm(1)}
	i2 := &ir.Instruction{Op: ir.ADD, Cond: ir.CondAlways, Dst: x, Src: ir.NewImm(2)}
	i3 := &ir.Instruction{Op: ir.ADD, Cond: ir.CondAlways, Dst: x, Src: ir.NewImm(3)}
	i4 := &ir.Instruction{Op: ir.ADD, Cond: ir.CondAlways, Dst: x, Src: ir.NewImm(4)}
	djnz := &ir.Instruction{Op: ir.DJNZ, Cond: ir.CondAlways, Dst: ctr}
	ret := &ir.Instruction{Op: ir.RET, Cond: ir.CondAlways}
	chain(body, label, i1, i2, i3, i4, djnz, ret)
	ir.LinkJump(djnz, label)

	changed, err := (P2Peephole{}).Run(p2Fn(body), config.Config{P2: true})
	require.NoError(t, err)
	require.True(t, changed)

	var ops []ir.Opcode
	body.Walk(func(i *ir.Instruction) {
		if !i.IsDummy() {
			ops = append(ops, i.Op)
		}
	})
	require.Equal(t, []ir.Opcode{ir.REPEAT, ir.LABEL, ir.ADD, ir.ADD, ir.ADD, ir.ADD, ir.LABEL, ir.RET}, ops)
	require.True(t, djnz.IsDummy())
}

func TestDjnzLoopNotConvertedWhenCounterTouched(t *testing.T) {
	body := ir.NewIRList()
	ctr := ir.NewReg(ir.RegLocal, "ctr")

	label := &ir.Instruction{Op: ir.LABEL, Text: "loop"}
	touch := &ir.Instruction{Op: ir.ADD, Cond: ir.CondAlways, Dst: ctr, Src: ir.NewImm(1)}
	djnz := &ir.Instruction{Op: ir.DJNZ, Cond: ir.CondAlways, Dst: ctr}
	ret := &ir.Instruction{Op: ir.RET, Cond: ir.CondAlways}
	chain(body, label, touch, djnz, ret)
	ir.LinkJump(djnz, label)

	changed, err := (P2Peephole{}).Run(p2Fn(body), config.Config{P2: true})
	require.NoError(t, err)
	require.False(t, changed)
	require.False(t, djnz.IsDummy())
}
