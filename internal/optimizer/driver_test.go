package optimizer

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/totalspectrum/ppcc-optimizer/internal/config"
	"github.com/totalspectrum/ppcc-optimizer/internal/frontend"
	"github.com/totalspectrum/ppcc-optimizer/internal/ir"
	"github.com/totalspectrum/ppcc-optimizer/internal/report"
)

func chain(irl *ir.IRList, instrs ...*ir.Instruction) {
	for _, i := range instrs {
		irl.Append(i)
	}
}

func newDriver(cfg config.Config, fns ...*frontend.Function) *Driver {
	return &Driver{Cfg: cfg, Log: zerolog.Nop(), Functions: fns, Report: report.NewTable()}
}

// TestOptimizeFunctionRunsToFixedPoint exercises the fixed-point loop itself:
// a self-move is dropped by move_elimination in round one, and the driver
// keeps going until a round changes nothing.
func TestOptimizeFunctionRunsToFixedPoint(t *testing.T) {
	body := ir.NewIRList()
	r := ir.NewReg(ir.RegLocal, "r")
	mov := &ir.Instruction{Op: ir.MOV, Cond: ir.CondAlways, Dst: r, Src: r}
	ret := &ir.Instruction{Op: ir.RET, Cond: ir.CondAlways}
	chain(body, mov, ret)
	fn := &frontend.Function{Name: "f", Body: body, OptimizeFlags: frontend.OptAll}

	d := newDriver(config.Default(), fn)
	result := d.OptimizeFunction(fn)
	require.Empty(t, result.Sink.All())
	require.True(t, mov.IsDummy())
}

// TestOptimizeFunctionConvertsDjnzLoopToRepeatOnP2 is spec.md §8 scenario S6
// driven through the whole per-function pipeline (component 4.8), not just
// the isolated pass: a P2 DJNZ loop whose body never touches the counter
// comes out the other end as a REPEAT region.
func TestOptimizeFunctionConvertsDjnzLoopToRepeatOnP2(t *testing.T) {
	body := ir.NewIRList()
	x := ir.NewReg(ir.RegLocal, "x")
	ctr := ir.NewReg(ir.RegLocal, "ctr")
	label := &ir.Instruction{Op: ir.LABEL, Text: "loop"}
	add := &ir.Instruction{Op: ir.ADD, Cond: ir.CondAlways, Dst: x, Src: ir.NewImm(1)}
	djnz := &ir.Instruction{Op: ir.DJNZ, Cond: ir.CondAlways, Dst: ctr}
	ret := &ir.Instruction{Op: ir.RET, Cond: ir.CondAlways}
	chain(body, label, add, djnz, ret)
	ir.LinkJump(djnz, label)
	fn := &frontend.Function{Name: "f", Body: body, OptimizeFlags: frontend.OptAll}

	cfg := config.Default()
	cfg.P2 = true
	d := newDriver(cfg, fn)
	d.OptimizeFunction(fn)

	sawRepeat := false
	body.Walk(func(i *ir.Instruction) {
		if !i.IsDummy() && i.Op == ir.REPEAT {
			sawRepeat = true
		}
	})
	require.True(t, sawRepeat)
	require.True(t, djnz.IsDummy())
}

// TestInlineEligibleExpandsSmallPureCallee is spec.md §8 scenario S8: a
// single-instruction pure callee inlines into its sole caller.
func TestInlineEligibleExpandsSmallPureCallee(t *testing.T) {
	calleeBody := ir.NewIRList()
	arg0 := ir.NewReg(ir.RegArg, "arg0")
	result0 := ir.NewReg(ir.RegResult, "result0")
	add := &ir.Instruction{Op: ir.ADD, Cond: ir.CondAlways, Dst: result0, Src: arg0}
	calleeRet := &ir.Instruction{Op: ir.RET, Cond: ir.CondAlways}
	chain(calleeBody, add, calleeRet)
	callee := &frontend.Function{
		Name: "plus_one", Body: calleeBody, CallSites: 1,
		InlineInstrCount: 1, IsLeaf: true,
	}

	callerBody := ir.NewIRList()
	setup := &ir.Instruction{Op: ir.MOV, Cond: ir.CondAlways, Dst: arg0, Src: ir.NewImm(41)}
	call := &ir.Instruction{Op: ir.CALL, Cond: ir.CondAlways,
		Aux: &ir.CalleeInfo{Name: callee.Name, IsLeaf: true}}
	chain(callerBody, setup, call)
	caller := &frontend.Function{Name: "caller", Body: callerBody, CallSites: 0}

	d := newDriver(config.Default(), caller, callee)
	n := d.InlineEligible()
	require.Equal(t, 1, n)

	var ops []ir.Opcode
	caller.Body.Walk(func(i *ir.Instruction) {
		if !i.IsDummy() {
			ops = append(ops, i.Op)
		}
	})
	require.Equal(t, []ir.Opcode{ir.MOV, ir.ADD}, ops)
}
