package ir

// CalleeInfo is the minimal callee-side contract the dataflow queries need
// at a CALL site (spec.md §4.2): whether the callee is a known mul/div
// runtime helper (which only consumes muldiva/muldivb), which argument
// register positions it actually reads, and whether it is a leaf. A CALL
// instruction's Aux holds a *CalleeInfo — the "callee's function
// descriptor" spec.md §3 describes as one of Aux's three overloaded uses.
type CalleeInfo struct {
	Name string

	// IsMulDivHelper marks the builtin multiply/divide routines, which by
	// convention only consume the muldiva/muldivb argument registers
	// (spec.md §4.2: "mul/div helpers consume muldiva/muldivb only").
	IsMulDivHelper bool

	// ConsumesArg reports whether the callee reads the argument register
	// at the given fast-call position. A nil ConsumesArg means "unknown
	// callee" and every argument is conservatively treated as consumed.
	ConsumesArg func(pos int) bool

	// ResultDefined reports whether the callee defines (writes) its
	// fast-call result register(s). It is a plain bool, false by default;
	// the dataflow queries do not read it.
	ResultDefined bool

	IsLeaf bool
}

// calleeOf extracts the CalleeInfo from a CALL instruction's Aux, or nil
// for an unresolved/external call.
func calleeOf(i *Instruction) *CalleeInfo {
	if i.Op != CALL {
		return nil
	}
	ci, _ := i.Aux.(*CalleeInfo)
	return ci
}

// CalleeOf is the exported form used by other packages (dataflow, passes).
func CalleeOf(i *Instruction) *CalleeInfo { return calleeOf(i) }
