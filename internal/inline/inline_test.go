package inline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/totalspectrum/ppcc-optimizer/internal/frontend"
	"github.com/totalspectrum/ppcc-optimizer/internal/ir"
)

func chain(irl *ir.IRList, instrs ...*ir.Instruction) {
	for _, i := range instrs {
		irl.Append(i)
	}
}

func smallPureCallee() *frontend.Function {
	body := ir.NewIRList()
	arg0 := ir.NewReg(ir.RegArg, "arg0")
	result0 := ir.NewReg(ir.RegResult, "result0")
	add := &ir.Instruction{Op: ir.ADD, Cond: ir.CondAlways, Dst: result0, Src: arg0}
	ret := &ir.Instruction{Op: ir.RET, Cond: ir.CondAlways}
	chain(body, add, ret)
	return &frontend.Function{
		Name: "plus_one", Body: body, CallSites: 1,
		InlineInstrCount: 1, IsLeaf: true,
	}
}

func callerWithCall(callee *frontend.Function) (*frontend.Function, *ir.Instruction) {
	body := ir.NewIRList()
	arg0 := ir.NewReg(ir.RegArg, "arg0")
	setup := &ir.Instruction{Op: ir.MOV, Cond: ir.CondAlways, Dst: arg0, Src: ir.NewImm(41)}
	call := &ir.Instruction{Op: ir.CALL, Cond: ir.CondAlways,
		Aux: &ir.CalleeInfo{Name: callee.Name, IsLeaf: true}}
	after := &ir.Instruction{Op: ir.MOV, Cond: ir.CondAlways,
		Dst: ir.NewReg(ir.RegLocal, "x"), Src: ir.NewReg(ir.RegResult, "result0")}
	chain(body, setup, call, after)
	caller := &frontend.Function{Name: "caller", Body: body, CallSites: 0}
	return caller, call
}

func TestEligibleBySmallInstrCount(t *testing.T) {
	callee := smallPureCallee()
	caller, call := callerWithCall(callee)
	require.True(t, Eligible(callee, call, false))
	require.NotNil(t, caller)
}

func TestEligibleFailsWhenAllocaMarked(t *testing.T) {
	callee := smallPureCallee()
	callee.UsesAlloca = true
	_, call := callerWithCall(callee)
	require.False(t, Eligible(callee, call, false))
}

func TestExpandAllSplicesCalleeBody(t *testing.T) {
	callee := smallPureCallee()
	caller, call := callerWithCall(callee)
	functions := []*frontend.Function{caller, callee}

	n := ExpandAll(functions, false)
	require.Equal(t, 1, n)

	var ops []ir.Opcode
	caller.Body.Walk(func(i *ir.Instruction) {
		if !i.IsDummy() {
			ops = append(ops, i.Op)
		}
	})
	require.Equal(t, []ir.Opcode{ir.MOV, ir.ADD, ir.MOV}, ops)
	require.Equal(t, 0, callee.CallSites)
	require.True(t, caller.IsLeaf)
}

func TestMergeDuplicatesRedirectsCalls(t *testing.T) {
	bodyA := ir.NewIRList()
	chain(bodyA, &ir.Instruction{Op: ir.ADD, Cond: ir.CondAlways,
		Dst: ir.NewReg(ir.RegResult, "result0"), Src: ir.NewReg(ir.RegArg, "arg0")})
	fnA := &frontend.Function{Name: "double_a", Body: bodyA, CallSites: 1}

	bodyB := ir.NewIRList()
	chain(bodyB, &ir.Instruction{Op: ir.ADD, Cond: ir.CondAlways,
		Dst: ir.NewReg(ir.RegResult, "result0"), Src: ir.NewReg(ir.RegArg, "arg0")})
	fnB := &frontend.Function{Name: "double_b", Body: bodyB, CallSites: 2}

	callerBody := ir.NewIRList()
	call := &ir.Instruction{Op: ir.CALL, Cond: ir.CondAlways, Aux: &ir.CalleeInfo{Name: "double_b"}}
	chain(callerBody, call)
	caller := &frontend.Function{Name: "user", Body: callerBody}

	functions := []*frontend.Function{fnA, fnB, caller}
	n := MergeDuplicates(functions)
	require.Equal(t, 1, n)
	require.Equal(t, "double_a", ir.CalleeOf(call).Name)
	require.Equal(t, 3, fnA.CallSites)
	require.Equal(t, 0, fnB.CallSites)
}
