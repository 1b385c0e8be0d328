package ir

// LinkJump registers jump as targeting label: jump.Aux = label, and jump is
// threaded onto label's jump list via JumpListNext (spec.md §3 invariant:
// "L.aux is a linked list of jumps whose aux points back to L; no other
// jump targets L").
func LinkJump(jump, label *Instruction) {
	if label.Op != LABEL {
		panic("ir: LinkJump target is not a LABEL")
	}
	jump.Aux = label
	jump.JumpListNext, _ = label.Aux.(*Instruction)
	label.Aux = jump
}

// UnlinkJump removes jump from its target label's jump list and clears
// jump.Aux. If jump was the only entry, the label's Aux becomes nil; the
// label is then either re-marked LABEL_USED (unknown predecessors) by
// CheckLabelUsage, or left with a nil jump list if it is provably unused.
func UnlinkJump(jump *Instruction) {
	label, _ := jump.Aux.(*Instruction)
	if label == nil {
		return
	}
	var prev *Instruction
	cur, _ := label.Aux.(*Instruction)
	for cur != nil {
		next := cur.JumpListNext
		if cur == jump {
			if prev == nil {
				if next == nil {
					label.Aux = nil
				} else {
					label.Aux = next
				}
			} else {
				prev.JumpListNext = next
			}
			break
		}
		prev = cur
		cur = next
	}
	jump.Aux = nil
	jump.JumpListNext = nil
}

// JumpsTo iterates the jump list of a label, calling fn for each jump
// instruction that targets it.
func JumpsTo(label *Instruction, fn func(jump *Instruction)) {
	for cur, _ := label.Aux.(*Instruction); cur != nil; cur = cur.JumpListNext {
		fn(cur)
	}
}

// HasKnownPredecessors reports whether label's jump list is populated (as
// opposed to LABEL_USED-with-unknown-predecessors, spec.md §3 invariant 2).
func HasKnownPredecessors(label *Instruction) bool {
	_, ok := label.Aux.(*Instruction)
	return ok
}

// MarkLabelUsedUnknown records that label may be targeted from code the
// optimizer cannot see (e.g. an exported entry point): Aux is nil and
// LabelUsedUnknown is set. Dataflow queries treat this conservatively
// (spec.md §4.2: "if unknown, return false").
func MarkLabelUsedUnknown(label *Instruction) {
	label.Aux = nil
	label.LabelUsedUnknown = true
}

// IsLabelUsedUnknown reports whether label was marked via MarkLabelUsedUnknown.
func IsLabelUsedUnknown(label *Instruction) bool {
	return label.LabelUsedUnknown
}

// CheckLabelUsage re-derives each label's "used unknown" status, per spec.md
// §5: "re-computed by CheckLabelUsage at the top of each driver round". A
// label with a populated jump list (every jump already tracked via
// LinkJump/UnlinkJump) is left alone; a label with no known jump list is
// marked used-unknown if anything in the function still names it as data
// (an ImmCogLabel/ImmHubLabel operand referencing it, e.g. a function's
// address taken for a pointer), otherwise it is provably unused.
func CheckLabelUsage(body *IRList) {
	referencedAsData := map[string]bool{}
	body.Walk(func(i *Instruction) {
		if i.IsDummy() || i.Op == LABEL {
			return
		}
		recordDataRef(referencedAsData, &i.Dst)
		recordDataRef(referencedAsData, &i.Src)
		if i.HasSrc2 {
			recordDataRef(referencedAsData, &i.Src2)
		}
	})
	body.Walk(func(label *Instruction) {
		if label.Op != LABEL {
			return
		}
		if HasKnownPredecessors(label) {
			label.LabelUsedUnknown = false
			return
		}
		if referencedAsData[label.Text] {
			MarkLabelUsedUnknown(label)
		} else {
			label.LabelUsedUnknown = false
		}
	})
}

func recordDataRef(seen map[string]bool, op *Operand) {
	if op.Kind == ImmCogLabel || op.Kind == ImmHubLabel {
		seen[op.Name] = true
	}
}
