package cordic

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/totalspectrum/ppcc-optimizer/internal/diag"
	"github.com/totalspectrum/ppcc-optimizer/internal/ir"
)

func chain(irl *ir.IRList, instrs ...*ir.Instruction) {
	for _, i := range instrs {
		irl.Append(i)
	}
}

// TestFoldConstantsQMul is spec.md §8 scenario S5: qmul #3,#5 ; getqx r1 ;
// getqy r2 folds to mov r1,#15 ; mov r2,#0.
func TestFoldConstantsQMul(t *testing.T) {
	body := ir.NewIRList()
	r1 := ir.NewReg(ir.RegLocal, "r1")
	r2 := ir.NewReg(ir.RegLocal, "r2")
	qmul := &ir.Instruction{Op: ir.QMUL, Cond: ir.CondAlways, Dst: ir.NewImm(3), Src: ir.NewImm(5)}
	getx := &ir.Instruction{Op: ir.GETQX, Cond: ir.CondAlways, Dst: r1}
	gety := &ir.Instruction{Op: ir.GETQY, Cond: ir.CondAlways, Dst: r2}
	chain(body, qmul, getx, gety)

	changed := FoldConstants(body, diag.NewSink())
	require.True(t, changed)

	require.Equal(t, ir.MOV, getx.Op)
	require.Equal(t, int64(15), getx.Src.Val)
	require.Equal(t, ir.MOV, gety.Op)
	require.Equal(t, int64(0), gety.Src.Val)
	require.True(t, qmul.IsDummy())
}

func TestFoldConstantsQDivWithSetQ(t *testing.T) {
	body := ir.NewIRList()
	q := ir.NewReg(ir.RegLocal, "q")
	r := ir.NewReg(ir.RegLocal, "r")
	setq := &ir.Instruction{Op: ir.SETQ, Cond: ir.CondAlways, Dst: ir.NewImm(0)}
	qdiv := &ir.Instruction{Op: ir.QDIV, Cond: ir.CondAlways, Dst: ir.NewImm(100), Src: ir.NewImm(7)}
	getx := &ir.Instruction{Op: ir.GETQX, Cond: ir.CondAlways, Dst: q}
	gety := &ir.Instruction{Op: ir.GETQY, Cond: ir.CondAlways, Dst: r}
	chain(body, setq, qdiv, getx, gety)

	changed := FoldConstants(body, diag.NewSink())
	require.True(t, changed)
	require.Equal(t, int64(14), getx.Src.Val) // 100/7 = 14 remainder 2
	require.Equal(t, int64(2), gety.Src.Val)
}

func TestFoldConstantsSkipsNonImmediateOperand(t *testing.T) {
	body := ir.NewIRList()
	reg := ir.NewReg(ir.RegLocal, "x")
	r1 := ir.NewReg(ir.RegLocal, "r1")
	qmul := &ir.Instruction{Op: ir.QMUL, Cond: ir.CondAlways, Dst: reg, Src: ir.NewImm(5)}
	getx := &ir.Instruction{Op: ir.GETQX, Cond: ir.CondAlways, Dst: r1}
	chain(body, qmul, getx)

	changed := FoldConstants(body, diag.NewSink())
	require.False(t, changed)
	require.Equal(t, ir.QMUL, qmul.Op)
}

func TestFoldConstantsDeletesStrayCommand(t *testing.T) {
	body := ir.NewIRList()
	qmul := &ir.Instruction{Op: ir.QMUL, Cond: ir.CondAlways, Dst: ir.NewImm(3), Src: ir.NewImm(5)}
	after := &ir.Instruction{Op: ir.MOV, Cond: ir.CondAlways,
		Dst: ir.NewReg(ir.RegLocal, "y"), Src: ir.NewImm(1)}
	chain(body, qmul, after)

	sink := diag.NewSink()
	changed := FoldConstants(body, sink)
	require.True(t, changed)
	require.True(t, qmul.IsDummy())
	require.NotEmpty(t, sink.All())
}

func TestFoldConstantsKeepsVolatileStrayCommand(t *testing.T) {
	body := ir.NewIRList()
	qmul := &ir.Instruction{Op: ir.QMUL, Cond: ir.CondAlways, Dst: ir.NewImm(3), Src: ir.NewImm(5), Volatile: true}
	chain(body, qmul)

	changed := FoldConstants(body, diag.NewSink())
	require.False(t, changed)
	require.False(t, qmul.IsDummy())
}

// TestPipelineFillsGapFromPrecedingIndependentWork checks that an
// instruction sitting immediately before the CORDIC command, independent of
// everything downstream, gets pulled into the pipeline gap.
func TestPipelineFillsGapFromPrecedingIndependentWork(t *testing.T) {
	body := ir.NewIRList()
	x := ir.NewReg(ir.RegLocal, "x")
	y := ir.NewReg(ir.RegLocal, "y")
	unrelated := &ir.Instruction{Op: ir.ADD, Cond: ir.CondAlways, Dst: x, Src: ir.NewImm(1)}
	qmul := &ir.Instruction{Op: ir.QMUL, Cond: ir.CondAlways,
		Dst: ir.NewReg(ir.RegLocal, "a"), Src: ir.NewReg(ir.RegLocal, "b")}
	getx := &ir.Instruction{Op: ir.GETQX, Cond: ir.CondAlways, Dst: y}
	chain(body, unrelated, qmul, getx)

	changed, err := Pipeline(body, true)
	require.NoError(t, err)
	require.True(t, changed)

	// unrelated should now sit between qmul and getx.
	require.Equal(t, unrelated, qmul.Next)
	require.Equal(t, getx, unrelated.Next)
}

func TestPipelineNoOpOnP1(t *testing.T) {
	body := ir.NewIRList()
	qmul := &ir.Instruction{Op: ir.QMUL, Cond: ir.CondAlways, Dst: ir.NewImm(1), Src: ir.NewImm(2)}
	getx := &ir.Instruction{Op: ir.GETQX, Cond: ir.CondAlways, Dst: ir.NewReg(ir.RegLocal, "r")}
	chain(body, qmul, getx)

	changed, err := Pipeline(body, false)
	require.NoError(t, err)
	require.False(t, changed)
}

func TestPipelineStopsAtDependentInstruction(t *testing.T) {
	body := ir.NewIRList()
	a := ir.NewReg(ir.RegLocal, "a")
	dependent := &ir.Instruction{Op: ir.ADD, Cond: ir.CondAlways, Dst: a, Src: ir.NewImm(1)}
	qmul := &ir.Instruction{Op: ir.QMUL, Cond: ir.CondAlways, Dst: a, Src: ir.NewImm(2)}
	getx := &ir.Instruction{Op: ir.GETQX, Cond: ir.CondAlways, Dst: ir.NewReg(ir.RegLocal, "r")}
	chain(body, dependent, qmul, getx)

	changed, err := Pipeline(body, true)
	require.NoError(t, err)
	require.False(t, changed)
	require.Equal(t, dependent, qmul.Prev)
}
