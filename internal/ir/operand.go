package ir

// OperandKind tags the variant carried by Operand, mirroring spec.md §3's
// operand-kind table. Subregisters and memory references are modeled as
// explicit sum-type variants (design note in spec.md §9) rather than by
// reinterpreting a shared Name field, so alias checks are structural
// recursion instead of pointer arithmetic.
type OperandKind uint8

const (
	OperandInvalid OperandKind = iota
	ImmInt
	ImmCogLabel
	ImmHubLabel
	ImmString
	ImmPcRelative
	ImmBinary
	RegReg
	RegLocal
	RegTemp
	RegArg
	RegResult
	RegHw
	RegHubPtr
	RegCogPtr
	RegSubReg
	HubMemRef
	CogMemRef
	StringDef
)

// EffectFlag holds the per-operand "effect" bits from spec.md §3/§6: pre/post
// in/decrement, force-hub/force-absolute prefixing, immediate-offset suppression.
type EffectFlag uint16

const (
	EffectNone EffectFlag = 0
	PreInc     EffectFlag = 1 << (iota - 1)
	PreDec
	PostInc
	PostDec
	ForceHub
	ForceAbs
	NoImm
	DummyZero
)

// OffsetShift is where a packed signed [n] offset lives in the upper bits of
// an EffectFlag word, per spec.md §6 ("plus a packed signed offset ... in the
// upper bits").
const OffsetShift = 8

// Offset extracts the packed signed [n] suffix from an effect word.
func (e EffectFlag) Offset() int8 { return int8(e >> OffsetShift) }

// WithOffset returns e with its packed offset field replaced by n.
func (e EffectFlag) WithOffset(n int8) EffectFlag {
	return (e & (1<<OffsetShift - 1)) | EffectFlag(uint16(uint8(n))<<OffsetShift)
}

// Operand is a tagged value: kind, an immediate/offset payload, an optional
// symbolic name (or, for RegSubReg/HubMemRef/CogMemRef, a pointer to the
// parent/base operand), a usage refcount, and an access size in bytes.
type Operand struct {
	Kind EffectiveKind

	// Val carries the immediate value (ImmInt), the subregister long-offset
	// (RegSubReg), or the byte/long offset (HubMemRef/CogMemRef).
	Val int64

	// Name is the symbolic name for label/register-like operands.
	Name string

	// Parent points at the base operand for RegSubReg/HubMemRef/CogMemRef.
	// Nil for every other kind.
	Parent *Operand

	// Size is the access width in bytes (1, 2, or 4); meaningful for
	// HubMemRef/CogMemRef and for GetByte/Word/Nib-style accesses.
	Size uint8

	// RefCount is a usage-count hint maintained by the frontend/optimizer;
	// the optimizer only reads it (e.g. to decide whether a constant table
	// entry is still needed), never treats it as authoritative for liveness.
	RefCount int32

	Effect EffectFlag
}

// EffectiveKind is just OperandKind; named separately so callers that only
// care about the discriminant don't need to import the whole Operand shape.
type EffectiveKind = OperandKind

// NewImm builds a small integer-literal operand.
func NewImm(v int64) Operand { return Operand{Kind: ImmInt, Val: v} }

// NewReg builds a register operand of the given kind and name.
func NewReg(kind OperandKind, name string) Operand { return Operand{Kind: kind, Name: name} }

// NewSubReg builds a RegSubReg operand viewing `parent` at long index `idx`.
func NewSubReg(parent *Operand, idx int64) Operand {
	return Operand{Kind: RegSubReg, Parent: parent, Val: idx}
}

// NewMemRef builds a HubMemRef/CogMemRef operand.
func NewMemRef(hub bool, base *Operand, offset int64, size uint8) Operand {
	k := CogMemRef
	if hub {
		k = HubMemRef
	}
	return Operand{Kind: k, Parent: base, Val: offset, Size: size}
}

// IsImm reports whether op is any flavor of compile-time-known immediate.
func (op *Operand) IsImm() bool {
	switch op.Kind {
	case ImmInt, ImmCogLabel, ImmHubLabel, ImmString, ImmPcRelative, ImmBinary:
		return true
	}
	return false
}

// IsMemRef reports whether op is an indirect hub/cog memory reference.
func (op *Operand) IsMemRef() bool {
	return op.Kind == HubMemRef || op.Kind == CogMemRef
}

// IsRegister reports whether op names a virtual/physical/hardware register
// (as opposed to an immediate, memory reference, or subregister view).
// Subregisters are deliberately excluded: callers that special-case partial
// writes need to ask BaseRegister instead of treating RegSubReg as a plain
// register, matching "we do not attempt partial-word liveness" (spec.md §4.2).
func (op *Operand) IsRegister() bool {
	switch op.Kind {
	case RegReg, RegLocal, RegTemp, RegArg, RegResult, RegHw, RegHubPtr, RegCogPtr:
		return true
	}
	return false
}

// BaseRegister returns the operand this one is structurally tied to for
// aliasing purposes: itself for plain registers, the parent chased to its
// root for RegSubReg/HubMemRef/CogMemRef, or nil for immediates.
func BaseRegister(op *Operand) *Operand {
	for op != nil && (op.Kind == RegSubReg || op.IsMemRef()) {
		op = op.Parent
	}
	if op != nil && op.IsRegister() {
		return op
	}
	return nil
}

// SameRegister reports whether a and b refer to the same base register,
// looking through subregister/memory-reference wrapping — the structural
// recursion spec.md §9 calls for instead of name-string comparison.
func SameRegister(a, b *Operand) bool {
	ra, rb := BaseRegister(a), BaseRegister(b)
	if ra == nil || rb == nil {
		return false
	}
	if ra.Kind != rb.Kind {
		return false
	}
	if ra.Kind == RegHw {
		return ra.Name == rb.Name
	}
	return ra.Name == rb.Name
}

// IsSubReg reports whether op is a partial-word view into a parent register.
func (op *Operand) IsSubReg() bool { return op.Kind == RegSubReg }

// IsLocalLike reports whether op is a callee-visible local/temp/arg register
// (as opposed to a global RegReg or a hardware register), used throughout
// the dataflow queries to decide call-boundary liveness (spec.md §4.2).
func (op *Operand) IsLocalLike() bool {
	switch op.Kind {
	case RegLocal, RegTemp, RegArg:
		return true
	}
	return false
}
