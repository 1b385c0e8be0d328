package ir

import "testing"

func mkMov(dstName, srcName string) *Instruction {
	return &Instruction{
		Op:   MOV,
		Cond: CondAlways,
		Dst:  NewReg(RegLocal, dstName),
		Src:  NewReg(RegLocal, srcName),
	}
}

func TestListWellFormed(t *testing.T) {
	irl := NewIRList()
	a := mkMov("r1", "r2")
	b := mkMov("r3", "r1")
	irl.Append(a)
	irl.Append(b)
	if err := irl.CheckWellFormed(); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if irl.Head() != a || irl.Tail() != b {
		t.Fatalf("head/tail mismatch")
	}
}

func TestDeleteIdempotent(t *testing.T) {
	irl := NewIRList()
	a := mkMov("r1", "r2")
	b := mkMov("r3", "r1")
	c := mkMov("r4", "r3")
	irl.Append(a)
	irl.Append(b)
	irl.Append(c)

	irl.Delete(b)
	if err := irl.CheckWellFormed(); err != nil {
		t.Fatalf("after first delete: %v", err)
	}
	if a.Next != c || c.Prev != a {
		t.Fatalf("b not spliced out")
	}

	// Deleting again must not panic or corrupt the list.
	irl.Delete(b)
	if err := irl.CheckWellFormed(); err != nil {
		t.Fatalf("after second delete: %v", err)
	}
	if !b.IsDummy() {
		t.Fatalf("deleted instruction should be dummy")
	}
}

func TestInvertCondIdempotent(t *testing.T) {
	for c := Condition(0); c < 16; c++ {
		if InvertCond(InvertCond(c)) != c {
			t.Fatalf("invert not idempotent for %v", c)
		}
	}
}

func TestCondIsSubset(t *testing.T) {
	if !CondIsSubset(CondAlways, Cond_Z) {
		t.Fatalf("Z should be a subset of Always")
	}
	if CondIsSubset(Cond_Z, CondAlways) {
		t.Fatalf("Always should not be a subset of Z")
	}
	if !CondIsSubset(Cond_Z, CondNever) {
		t.Fatalf("Never is a subset of everything")
	}
}

func TestFlagsUsedByCond(t *testing.T) {
	if FlagsUsedByCond(Cond_Z)&FlagZ == 0 {
		t.Fatalf("if_z should use Z")
	}
	if FlagsUsedByCond(Cond_C)&FlagC == 0 {
		t.Fatalf("if_c should use C")
	}
	if FlagsUsedByCond(CondAlways) != FlagNone {
		t.Fatalf("always should use no flags")
	}
}

func TestJumpLabelLinkage(t *testing.T) {
	irl := NewIRList()
	label := &Instruction{Op: LABEL}
	jump := &Instruction{Op: JMP, Cond: CondAlways}
	irl.Append(jump)
	irl.Append(label)
	LinkJump(jump, label)

	if jump.Aux.(*Instruction) != label {
		t.Fatalf("jump.Aux should point at label")
	}
	found := false
	JumpsTo(label, func(j *Instruction) {
		if j == jump {
			found = true
		}
	})
	if !found {
		t.Fatalf("label jump list should contain jump")
	}

	UnlinkJump(jump)
	if jump.Aux != nil {
		t.Fatalf("jump.Aux should be cleared after unlink")
	}
	found = false
	JumpsTo(label, func(j *Instruction) { found = true })
	if found {
		t.Fatalf("label jump list should be empty after unlink")
	}
}

func TestReadsDstSetsDst(t *testing.T) {
	mov := &Instruction{Op: MOV, Dst: NewReg(RegLocal, "r1"), Src: NewReg(RegLocal, "r2")}
	if ReadsDst(mov) {
		t.Fatalf("mov should not read dst")
	}
	if !SetsDst(mov) {
		t.Fatalf("mov should set dst")
	}

	wrlong := &Instruction{Op: WRLONG, Dst: NewReg(RegLocal, "r1"), Src: NewReg(RegLocal, "r2")}
	if SetsDst(wrlong) {
		t.Fatalf("wrlong should not set dst")
	}

	add := &Instruction{Op: ADD, Dst: NewReg(RegLocal, "r1"), Src: NewReg(RegLocal, "r2")}
	if !ReadsDst(add) {
		t.Fatalf("add should read dst")
	}
}

func TestSameRegisterThroughSubreg(t *testing.T) {
	parent := NewReg(RegLocal, "r1")
	sub := NewSubReg(&parent, 1)
	other := NewReg(RegLocal, "r1")
	if !SameRegister(&sub, &other) {
		t.Fatalf("subregister should alias its parent's base register")
	}
}
