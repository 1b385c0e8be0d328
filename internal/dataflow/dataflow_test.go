package dataflow

import (
	"testing"

	"github.com/totalspectrum/ppcc-optimizer/internal/ir"
)

func chain(irl *ir.IRList, instrs ...*ir.Instruction) {
	for _, i := range instrs {
		irl.Append(i)
	}
}

func reg(name string) ir.Operand { return ir.NewReg(ir.RegLocal, name) }

func TestIsDeadAfterSimple(t *testing.T) {
	irl := ir.NewIRList()
	r1, r2, r3 := reg("r1"), reg("r2"), reg("r3")
	mov := &ir.Instruction{Op: ir.MOV, Cond: ir.CondAlways, Dst: r1, Src: r2}
	add := &ir.Instruction{Op: ir.ADD, Cond: ir.CondAlways, Dst: r3, Src: r1}
	overwrite := &ir.Instruction{Op: ir.MOV, Cond: ir.CondAlways, Dst: r1, Src: r3}
	chain(irl, mov, add, overwrite)

	if IsDeadAfter(add, &r1) != true {
		t.Fatalf("r1 should be dead after add (next write is unconditional, no intervening use)")
	}
	if IsDeadAfter(mov, &r1) != false {
		t.Fatalf("r1 should be live right after mov (used by add)")
	}
}

func TestIsDeadAfterHardwareNeverDead(t *testing.T) {
	irl := ir.NewIRList()
	hw := ir.NewReg(ir.RegHw, "ptra")
	i := &ir.Instruction{Op: ir.MOV, Cond: ir.CondAlways, Dst: reg("r1"), Src: hw}
	chain(irl, i)
	if IsDeadAfter(i, &hw) {
		t.Fatalf("hardware registers must never be reported dead")
	}
}

func TestFlagsDeadAfter(t *testing.T) {
	irl := ir.NewIRList()
	cmp := &ir.Instruction{Op: ir.CMP, Cond: ir.CondAlways, Dst: reg("r1"), Src: reg("r2"), Eff: ir.EffWZ}
	user := &ir.Instruction{Op: ir.MOV, Cond: ir.Cond_Z, Dst: reg("r3"), Src: reg("r4")}
	chain(irl, cmp, user)
	if FlagsDeadAfter(cmp, ir.FlagZ) {
		t.Fatalf("Z should be live: used by if_z instruction")
	}
}

func TestFlagsDeadAfterCleared(t *testing.T) {
	irl := ir.NewIRList()
	cmp := &ir.Instruction{Op: ir.CMP, Cond: ir.CondAlways, Dst: reg("r1"), Src: reg("r2"), Eff: ir.EffWZ}
	clobber := &ir.Instruction{Op: ir.CMP, Cond: ir.CondAlways, Dst: reg("r5"), Src: reg("r6"), Eff: ir.EffWZ}
	chain(irl, cmp, clobber)
	if !FlagsDeadAfter(cmp, ir.FlagZ) {
		t.Fatalf("Z should be dead: unconditionally re-set before any use")
	}
}

func TestFindPrevSetterForReplace(t *testing.T) {
	irl := ir.NewIRList()
	r1, r2 := reg("r1"), reg("r2")
	setter := &ir.Instruction{Op: ir.MOV, Cond: ir.CondAlways, Dst: r1, Src: r2}
	user := &ir.Instruction{Op: ir.ADD, Cond: ir.CondAlways, Dst: reg("r3"), Src: r1}
	chain(irl, setter, user)

	got := FindPrevSetterForReplace(user, &r1)
	if got != setter {
		t.Fatalf("expected to find setter")
	}
}
