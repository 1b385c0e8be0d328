package passes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/totalspectrum/ppcc-optimizer/internal/config"
	"github.com/totalspectrum/ppcc-optimizer/internal/ir"
)

// TestMoveEliminationDropsSelfMove is spec.md §8 scenario S1: a redundant
// mov r,r with no flag effect is pure dead code.
func TestMoveEliminationDropsSelfMove(t *testing.T) {
	body := ir.NewIRList()
	r := ir.NewReg(ir.RegLocal, "r")
	mov := &ir.Instruction{Op: ir.MOV, Cond: ir.CondAlways, Dst: r, Src: r}
	chain(body, mov)

	changed, err := (MoveElimination{}).Run(p2Fn(body), config.Config{})
	require.NoError(t, err)
	require.True(t, changed)
	require.True(t, mov.IsDummy())
}

// TestCompareOptimizeFoldsZeroCompareIntoSetter is spec.md §8 scenario S2: a
// trailing "cmp x,#0 wz" with no other flag user folds its WZ bit into the
// instruction that already computed x.
func TestCompareOptimizeFoldsZeroCompareIntoSetter(t *testing.T) {
	body := ir.NewIRList()
	x := ir.NewReg(ir.RegLocal, "x")
	y := ir.NewReg(ir.RegLocal, "y")
	add := &ir.Instruction{Op: ir.ADD, Cond: ir.CondAlways, Dst: x, Src: y}
	cmp := &ir.Instruction{Op: ir.CMP, Cond: ir.CondAlways, Dst: x, Src: ir.NewImm(0), Eff: ir.EffWZ}
	chain(body, add, cmp)

	changed, err := (CompareOptimize{}).Run(p2Fn(body), config.Config{})
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, ir.EffWZ, add.Eff&ir.EffWZ)
	require.True(t, cmp.IsDummy())
}

// TestAddSubCoalesceMergesConsecutiveImmediates is spec.md §8 scenario S3:
// two consecutive add/sub-by-constant on the same register fold into one.
func TestAddSubCoalesceMergesConsecutiveImmediates(t *testing.T) {
	body := ir.NewIRList()
	x := ir.NewReg(ir.RegLocal, "x")
	add := &ir.Instruction{Op: ir.ADD, Cond: ir.CondAlways, Dst: x, Src: ir.NewImm(5)}
	sub := &ir.Instruction{Op: ir.SUB, Cond: ir.CondAlways, Dst: x, Src: ir.NewImm(2)}
	chain(body, add, sub)

	changed, err := (AddSubCoalesce{}).Run(p2Fn(body), config.Config{})
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, ir.ADD, add.Op)
	require.Equal(t, int64(3), add.Src.Val)
	require.True(t, sub.IsDummy())
}

// TestShortBranchConditionalizeReplacesJumpWithPredication is spec.md §8
// scenario S7: a short forward conditional jump over a span that fits the
// window is replaced by predicating the span with the inverted condition.
func TestShortBranchConditionalizeReplacesJumpWithPredication(t *testing.T) {
	body := ir.NewIRList()
	x := ir.NewReg(ir.RegLocal, "x")
	jmp := &ir.Instruction{Op: ir.JMP, Cond: ir.Cond_Z}
	i1 := &ir.Instruction{Op: ir.ADD, Cond: ir.CondAlways, Dst: x, Src: ir.NewImm(1)}
	i2 := &ir.Instruction{Op: ir.ADD, Cond: ir.CondAlways, Dst: x, Src: ir.NewImm(2)}
	label := &ir.Instruction{Op: ir.LABEL, Text: "skip"}
	chain(body, jmp, i1, i2, label)
	ir.LinkJump(jmp, label)

	changed, err := (ShortBranchConditionalize{}).Run(p2Fn(body), config.Config{})
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, ir.Cond_NZ, i1.Cond)
	require.Equal(t, ir.Cond_NZ, i2.Cond)
	require.True(t, jmp.IsDummy())
}
