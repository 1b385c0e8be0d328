package passes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/totalspectrum/ppcc-optimizer/internal/config"
	"github.com/totalspectrum/ppcc-optimizer/internal/ir"
)

// TestCompressIRMergesLongRun covers SPEC_FULL.md §9's CompressIR pass: a
// run of plain-immediate LONG data pseudo-ops collapses into one COMPRESS3
// blob.
func TestCompressIRMergesLongRun(t *testing.T) {
	body := ir.NewIRList()
	l1 := &ir.Instruction{Op: ir.LONG, Dst: ir.NewImm(1)}
	l2 := &ir.Instruction{Op: ir.LONG, Dst: ir.NewImm(2)}
	l3 := &ir.Instruction{Op: ir.LONG, Dst: ir.NewImm(3)}
	chain(body, l1, l2, l3)

	changed, err := (CompressIR{}).Run(p2Fn(body), config.Config{Compress: true})
	require.NoError(t, err)
	require.True(t, changed)

	require.Equal(t, ir.COMPRESS3, body.Head().Op)
	blob := body.Head()
	vals, ok := blob.Aux.([]int64)
	require.True(t, ok)
	require.Equal(t, []int64{1, 2, 3}, vals)
	require.True(t, l1.IsDummy())
	require.True(t, l2.IsDummy())
	require.True(t, l3.IsDummy())
}

// TestCompressIRHandlesTwoRunsInOneFunction guards against an off-by-one in
// resuming the scan after a run is spliced out: the second run must still be
// found and merged even though the first run's last node was already
// deleted (and unlinked) by the time the scan continues past it.
func TestCompressIRHandlesTwoRunsInOneFunction(t *testing.T) {
	body := ir.NewIRList()
	l1 := &ir.Instruction{Op: ir.LONG, Dst: ir.NewImm(1)}
	l2 := &ir.Instruction{Op: ir.LONG, Dst: ir.NewImm(2)}
	mid := &ir.Instruction{Op: ir.MOV, Cond: ir.CondAlways,
		Dst: ir.NewReg(ir.RegLocal, "x"), Src: ir.NewReg(ir.RegLocal, "y")}
	l3 := &ir.Instruction{Op: ir.LONG, Dst: ir.NewImm(3)}
	l4 := &ir.Instruction{Op: ir.LONG, Dst: ir.NewImm(4)}
	chain(body, l1, l2, mid, l3, l4)

	changed, err := (CompressIR{}).Run(p2Fn(body), config.Config{Compress: true})
	require.NoError(t, err)
	require.True(t, changed)

	var ops []ir.Opcode
	body.Walk(func(i *ir.Instruction) {
		if !i.IsDummy() {
			ops = append(ops, i.Op)
		}
	})
	require.Equal(t, []ir.Opcode{ir.COMPRESS3, ir.MOV, ir.COMPRESS3}, ops)
}

func TestCompressIRLeavesSingleEntryAlone(t *testing.T) {
	body := ir.NewIRList()
	l1 := &ir.Instruction{Op: ir.LONG, Dst: ir.NewImm(1)}
	chain(body, l1)

	changed, err := (CompressIR{}).Run(p2Fn(body), config.Config{Compress: true})
	require.NoError(t, err)
	require.False(t, changed)
	require.Equal(t, ir.LONG, l1.Op)
}

func TestCompressIRDisabledByDefault(t *testing.T) {
	body := ir.NewIRList()
	l1 := &ir.Instruction{Op: ir.LONG, Dst: ir.NewImm(1)}
	l2 := &ir.Instruction{Op: ir.LONG, Dst: ir.NewImm(2)}
	chain(body, l1, l2)

	changed, err := (CompressIR{}).Run(p2Fn(body), config.Config{Compress: false})
	require.NoError(t, err)
	require.False(t, changed)
}

func TestCompressIRSkippedOnP2(t *testing.T) {
	body := ir.NewIRList()
	l1 := &ir.Instruction{Op: ir.LONG, Dst: ir.NewImm(1)}
	l2 := &ir.Instruction{Op: ir.LONG, Dst: ir.NewImm(2)}
	chain(body, l1, l2)

	changed, err := (CompressIR{}).Run(p2Fn(body), config.Config{Compress: true, P2: true})
	require.NoError(t, err)
	require.False(t, changed)
}
