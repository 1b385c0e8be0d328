package ir

// Instruction is one node of the flat IR list (spec.md §3). The list is
// intrusive: Prev/Next form the doubly linked list directly on the node,
// and Aux is the overloaded back-pointer slot spec.md describes:
//   - for a jump, Aux points at the destination LABEL instruction;
//   - for a LABEL, Aux is the head of the linked list of jumps that target
//     it (chained through each jump's JumpListNext field);
//   - for a CALL, Aux holds the callee's *CalleeInfo (see callee.go), or
//     nil for an unresolved call.
//
// Per the design note in spec.md §9, production code should prefer stable
// indices into an arena over raw bidirectional pointers; this package uses
// pointers directly for clarity, since the optimizer is single-threaded and
// single-function-at-a-time (spec.md §5), but every mutation that touches
// Prev/Next/Aux goes through the IRList helpers below so an index-based
// reimplementation is a localized change.
type Instruction struct {
	Op   Opcode
	Cond Condition
	Eff  EffectBit

	Dst  Operand
	Src  Operand
	Src2 Operand // second source, for 3-operand P2 instructions
	HasSrc2 bool

	DstEffect EffectFlag
	SrcEffect EffectFlag

	// Address is monotonically assigned for range queries (used_in_range,
	// min_cycles_in_range, ...); labels and dummies do not advance it.
	Address int64

	Prev, Next *Instruction

	// Aux is the overloaded back-pointer slot described above.
	Aux any

	// JumpListNext threads this jump into its target label's Aux jump list.
	JumpListNext *Instruction

	// Line is the source-line pointer threaded through for diagnostics
	// (spec.md §7: "All diagnostics carry a source-line pointer when
	// available").
	Line int32

	// Text carries COMMENT/LITERAL/STRING payload and CONST names.
	Text string

	// Volatile marks user-written inline assembly the optimizer must not
	// silently delete (spec.md §7 "User-diagnostic").
	Volatile bool

	// LabelUsedUnknown marks a LABEL whose predecessors are not all known
	// (spec.md §3 invariant 2: "uses unknown").
	LabelUsedUnknown bool
}

// IsDummy reports whether i is a no-op for liveness purposes: a DUMMY
// pseudo-op or a real instruction whose condition can never fire (spec.md §3
// "Lifecycle"). Other pseudo-ops (labels, data, markers) carry no condition
// and are never dummies.
func (i *Instruction) IsDummy() bool {
	return i == nil || i.Op == DUMMY || (i.Cond == CondNever && !Info(i.Op).IsPseudo)
}

// IsLabel reports whether i is a LABEL pseudo-op.
func (i *Instruction) IsLabel() bool { return i.Op == LABEL }

// Delete unlinks i from its list. Idempotent: deleting an instruction that
// is already DUMMY and already unlinked is a no-op, matching spec.md §3's
// "Deletion is idempotent" invariant.
func (irl *IRList) Delete(i *Instruction) {
	if i == nil {
		return
	}
	alreadyUnlinked := i.Op == DUMMY && i != irl.head && i != irl.tail && i.Prev == nil && i.Next == nil
	i.Op = DUMMY
	i.Cond = CondNever
	if alreadyUnlinked {
		return
	}
	irl.unlink(i)
}
