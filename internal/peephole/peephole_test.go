package peephole

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/totalspectrum/ppcc-optimizer/internal/ir"
)

func chain(irl *ir.IRList, instrs ...*ir.Instruction) {
	for _, i := range instrs {
		irl.Append(i)
	}
}

func reg(name string) ir.Operand { return ir.NewReg(ir.RegLocal, name) }

func TestZeroxFusionP2(t *testing.T) {
	irl := ir.NewIRList()
	r := reg("r1")
	shl := &ir.Instruction{Op: ir.SHL, Cond: ir.CondAlways, Dst: r, Src: ir.NewImm(24)}
	shr := &ir.Instruction{Op: ir.SHR, Cond: ir.CondAlways, Dst: r, Src: ir.NewImm(24)}
	chain(irl, shl, shr)

	changed, err := Run(irl, true, nil)
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, ir.ZEROX, shl.Op)
	require.Equal(t, int64(7), shl.Src.Val)
	require.True(t, shr.IsDummy())
}

func TestZeroxFusionSkippedOnP1(t *testing.T) {
	irl := ir.NewIRList()
	r := reg("r1")
	shl := &ir.Instruction{Op: ir.SHL, Cond: ir.CondAlways, Dst: r, Src: ir.NewImm(24)}
	shr := &ir.Instruction{Op: ir.SHR, Cond: ir.CondAlways, Dst: r, Src: ir.NewImm(24)}
	chain(irl, shl, shr)

	changed, err := Run(irl, false, nil)
	require.NoError(t, err)
	require.False(t, changed)
	require.Equal(t, ir.SHL, shl.Op)
}

func TestSignxFusionP2(t *testing.T) {
	irl := ir.NewIRList()
	r := reg("r1")
	shl := &ir.Instruction{Op: ir.SHL, Cond: ir.CondAlways, Dst: r, Src: ir.NewImm(16)}
	sar := &ir.Instruction{Op: ir.SAR, Cond: ir.CondAlways, Dst: r, Src: ir.NewImm(16)}
	chain(irl, shl, sar)

	changed, err := Run(irl, true, nil)
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, ir.SIGNX, shl.Op)
	require.Equal(t, int64(15), shl.Src.Val)
}

func TestSubxSelfAlwaysZero(t *testing.T) {
	irl := ir.NewIRList()
	r := reg("r1")
	subx := &ir.Instruction{Op: ir.SUBX, Cond: ir.CondAlways, Dst: r, Src: r}
	chain(irl, subx)

	changed, err := Run(irl, false, nil)
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, ir.MOV, subx.Op)
	require.Equal(t, ir.ImmInt, subx.Src.Kind)
	require.Equal(t, int64(0), subx.Src.Val)
}

func TestAndAfterWrcDropped(t *testing.T) {
	irl := ir.NewIRList()
	x := reg("x")
	wrc := &ir.Instruction{Op: ir.WRC, Cond: ir.CondAlways, Dst: x}
	and := &ir.Instruction{Op: ir.AND, Cond: ir.CondAlways, Dst: x, Src: ir.NewImm(1)}
	chain(irl, wrc, and)

	changed, err := Run(irl, false, nil)
	require.NoError(t, err)
	require.True(t, changed)
	require.True(t, and.IsDummy())
	require.False(t, wrc.IsDummy())
}

func TestNegAbsFusion(t *testing.T) {
	irl := ir.NewIRList()
	x := reg("x")
	neg1 := &ir.Instruction{Op: ir.NEG, Cond: ir.CondAlways, Eff: ir.EffWC, Dst: x, Src: x}
	neg2 := &ir.Instruction{Op: ir.NEG, Cond: ir.Cond_C, Dst: x, Src: x}
	chain(irl, neg1, neg2)

	changed, err := Run(irl, false, nil)
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, ir.ABS, neg1.Op)
	require.True(t, neg2.IsDummy())
}

func TestDrvhDrvlMergeToDrvc(t *testing.T) {
	irl := ir.NewIRList()
	p := reg("pin")
	h := &ir.Instruction{Op: ir.DRVH, Cond: ir.Cond_C, Dst: p}
	l := &ir.Instruction{Op: ir.DRVL, Cond: ir.Cond_NC, Dst: p}
	chain(irl, h, l)

	changed, err := Run(irl, false, nil)
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, ir.DRVC, h.Op)
	require.Equal(t, ir.CondAlways, h.Cond)
	require.True(t, l.IsDummy())
}

func TestDoubleJumpSameTargetDropsFirst(t *testing.T) {
	irl := ir.NewIRList()
	label := &ir.Instruction{Op: ir.LABEL, Cond: ir.CondAlways, Text: "L"}
	j1 := &ir.Instruction{Op: ir.JMP, Cond: ir.Cond_Z}
	j2 := &ir.Instruction{Op: ir.JMP, Cond: ir.CondAlways}
	chain(irl, j1, j2, label)
	ir.LinkJump(j1, label)
	ir.LinkJump(j2, label)

	changed, err := Run(irl, false, nil)
	require.NoError(t, err)
	require.True(t, changed)
	require.True(t, j1.IsDummy())
	require.False(t, j2.IsDummy())
}

func TestIncAfterMovConstFusion(t *testing.T) {
	irl := ir.NewIRList()
	r := reg("r1")
	mov := &ir.Instruction{Op: ir.MOV, Cond: ir.CondAlways, Dst: r, Src: ir.NewImm(41)}
	inc := &ir.Instruction{Op: ir.INC, Cond: ir.CondAlways, Dst: r}
	chain(irl, mov, inc)

	changed, err := Run(irl, false, nil)
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, ir.MOV, mov.Op)
	require.Equal(t, int64(42), mov.Src.Val)
	require.True(t, inc.IsDummy())
}

func TestDuplicateJumpDedupDropsSecond(t *testing.T) {
	irl := ir.NewIRList()
	label := &ir.Instruction{Op: ir.LABEL, Cond: ir.CondAlways, Text: "L"}
	j1 := &ir.Instruction{Op: ir.JMP, Cond: ir.CondAlways}
	j2 := &ir.Instruction{Op: ir.JMP, Cond: ir.CondAlways}
	chain(irl, j1, j2, label)
	ir.LinkJump(j1, label)
	ir.LinkJump(j2, label)

	changed, err := Run(irl, false, nil)
	require.NoError(t, err)
	require.True(t, changed)
	require.False(t, j1.IsDummy())
	require.True(t, j2.IsDummy())
}

func TestNoMatchLeavesUnrelatedCodeAlone(t *testing.T) {
	irl := ir.NewIRList()
	mov := &ir.Instruction{Op: ir.MOV, Cond: ir.CondAlways, Dst: reg("a"), Src: reg("b")}
	add := &ir.Instruction{Op: ir.ADD, Cond: ir.CondAlways, Dst: reg("c"), Src: reg("a")}
	chain(irl, mov, add)

	changed, err := Run(irl, true, nil)
	require.NoError(t, err)
	require.False(t, changed)
}
