package fcache

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

// TestPromoteWrapsEligibleLoop checks the straightforward case: a single
// backward-branching loop that fits the window gets an FCACHE/end-label
// pair spliced around it.
func TestPromoteWrapsEligibleLoop(t *testing.T) {
	body := ir.NewIRList()
	x := ir.NewReg(ir.RegLocal, "x")
	label := &ir.Instruction{Op: ir.LABEL, Text: "loop"}
	add := &ir.Instruction{Op: ir.ADD, Cond: ir.CondAlways, Dst: x, Src: ir.NewImm(1)}
	djnz := &ir.Instruction{Op: ir.JMP, Cond: ir.CondAlways}
	chain(body, label, add, djnz)
	ir.LinkJump(djnz, label)

	changed, err := Promote(body, Options{P2: false, WindowLongs: DefaultWindowP1})
	require.NoError(t, err)
	require.True(t, changed)

	require.Equal(t, ir.FCACHE, body.Head().Op)
	fc := body.Head()
	end, ok := fc.Aux.(*ir.Instruction)
	require.True(t, ok)
	require.Equal(t, ir.LABEL, end.Op)
	require.Equal(t, end.Text, fc.Dst.Name)
	require.Equal(t, label.Text, fc.Src.Name)

	// the wrapped loop body is unchanged and still reachable between the
	// FCACHE marker and its trailing label.
	require.Equal(t, label, fc.Next)
	found := false
	for cur := label; cur != nil; cur = cur.Next {
		if cur == end {
			found = true
			break
		}
	}
	require.True(t, found)
}

// TestPromoteSkipsLoopExceedingWindow checks that a loop too large for the
// configured cache window is left alone.
func TestPromoteSkipsLoopExceedingWindow(t *testing.T) {
	body := ir.NewIRList()
	x := ir.NewReg(ir.RegLocal, "x")
	label := &ir.Instruction{Op: ir.LABEL, Text: "loop"}
	var instrs []*ir.Instruction
	instrs = append(instrs, label)
	for i := 0; i < 5; i++ {
		instrs = append(instrs, &ir.Instruction{Op: ir.ADD, Cond: ir.CondAlways, Dst: x, Src: ir.NewImm(1)})
	}
	djnz := &ir.Instruction{Op: ir.JMP, Cond: ir.CondAlways}
	instrs = append(instrs, djnz)
	chain(body, instrs...)
	ir.LinkJump(djnz, label)

	changed, err := Promote(body, Options{WindowLongs: 3})
	require.NoError(t, err)
	require.False(t, changed)
	require.Equal(t, ir.LABEL, body.Head().Op)
}

// TestPromoteSkipsLoopWithNonMulDivCall checks that a loop calling an
// arbitrary (non mul/div-helper) function is not eligible for promotion,
// since that call may itself reach outside the cache window.
func TestPromoteSkipsLoopWithNonMulDivCall(t *testing.T) {
	body := ir.NewIRList()
	label := &ir.Instruction{Op: ir.LABEL, Text: "loop"}
	call := &ir.Instruction{Op: ir.CALL, Cond: ir.CondAlways,
		Src: ir.Operand{Kind: ir.ImmHubLabel, Name: "some_func"}}
	djnz := &ir.Instruction{Op: ir.JMP, Cond: ir.CondAlways}
	chain(body, label, call, djnz)
	ir.LinkJump(djnz, label)

	changed, err := Promote(body, Options{WindowLongs: DefaultWindowP1})
	require.NoError(t, err)
	require.False(t, changed)
}

// TestPromoteMergesAdjacentLoops checks that two adjacent eligible loops
// that together still fit the window are merged into one FCACHE region
// rather than wrapped separately.
func TestPromoteMergesAdjacentLoops(t *testing.T) {
	body := ir.NewIRList()
	x := ir.NewReg(ir.RegLocal, "x")
	y := ir.NewReg(ir.RegLocal, "y")

	label1 := &ir.Instruction{Op: ir.LABEL, Text: "loop1"}
	add1 := &ir.Instruction{Op: ir.ADD, Cond: ir.CondAlways, Dst: x, Src: ir.NewImm(1)}
	djnz1 := &ir.Instruction{Op: ir.JMP, Cond: ir.CondAlways}

	label2 := &ir.Instruction{Op: ir.LABEL, Text: "loop2"}
	add2 := &ir.Instruction{Op: ir.ADD, Cond: ir.CondAlways, Dst: y, Src: ir.NewImm(1)}
	djnz2 := &ir.Instruction{Op: ir.JMP, Cond: ir.CondAlways}

	chain(body, label1, add1, djnz1, label2, add2, djnz2)
	ir.LinkJump(djnz1, label1)
	ir.LinkJump(djnz2, label2)

	changed, err := Promote(body, Options{WindowLongs: DefaultWindowP1})
	require.NoError(t, err)
	require.True(t, changed)

	fcacheCount := 0
	for cur := body.Head(); cur != nil; cur = cur.Next {
		if cur.Op == ir.FCACHE {
			fcacheCount++
		}
	}
	require.Equal(t, 1, fcacheCount)
}

func TestWindowSizeDefaults(t *testing.T) {
	require.Equal(t, DefaultWindowP1, windowSize(Options{P2: false}))
	require.Equal(t, DefaultWindowP2, windowSize(Options{P2: true}))
	require.Equal(t, 40, windowSize(Options{P2: true, WindowLongs: 40}))
}
