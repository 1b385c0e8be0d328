package ir

// IRList is the doubly linked instruction list a single function owns
// (spec.md §3). Condition codes are per-instruction, never carried on the
// list itself.
type IRList struct {
	head, tail *Instruction
	nextAddr   int64
}

// NewIRList returns an empty list.
func NewIRList() *IRList { return &IRList{} }

// Head returns the first instruction, or nil if the list is empty.
func (irl *IRList) Head() *Instruction { return irl.head }

// Tail returns the last instruction, or nil if the list is empty.
func (irl *IRList) Tail() *Instruction { return irl.tail }

// Append adds i at the end of the list.
func (irl *IRList) Append(i *Instruction) {
	i.Prev, i.Next = irl.tail, nil
	if irl.tail != nil {
		irl.tail.Next = i
	} else {
		irl.head = i
	}
	irl.tail = i
}

// InsertBefore splices i immediately before mark.
func (irl *IRList) InsertBefore(mark, i *Instruction) {
	i.Prev = mark.Prev
	i.Next = mark
	if mark.Prev != nil {
		mark.Prev.Next = i
	} else {
		irl.head = i
	}
	mark.Prev = i
}

// InsertAfter splices i immediately after mark.
func (irl *IRList) InsertAfter(mark, i *Instruction) {
	i.Next = mark.Next
	i.Prev = mark
	if mark.Next != nil {
		mark.Next.Prev = i
	} else {
		irl.tail = i
	}
	mark.Next = i
}

// unlink physically removes i from the list, leaving i.Prev/i.Next nil.
// Safe to call on an instruction whose neighbors have already been updated
// to skip it (a no-op in that case beyond clearing i's own pointers).
func (irl *IRList) unlink(i *Instruction) {
	if i.Prev != nil {
		i.Prev.Next = i.Next
	} else if irl.head == i {
		irl.head = i.Next
	}
	if i.Next != nil {
		i.Next.Prev = i.Prev
	} else if irl.tail == i {
		irl.tail = i.Prev
	}
	i.Prev, i.Next = nil, nil
}

// RemoveRange unlinks every instruction in the closed range [from, to]
// (both endpoints inclusive, `to` must come after `from`). Used by passes
// that delete a whole dead span (e.g. code between an unconditional jump
// and the next label, spec.md §4.3).
func (irl *IRList) RemoveRange(from, to *Instruction) {
	before, after := from.Prev, to.Next
	if before != nil {
		before.Next = after
	} else {
		irl.head = after
	}
	if after != nil {
		after.Prev = before
	} else {
		irl.tail = before
	}
	for n := from; n != nil; {
		next := n.Next
		if n == to {
			n.Prev, n.Next = nil, nil
			break
		}
		n.Prev, n.Next = nil, nil
		n = next
	}
}

// MoveAfter relocates i, which must already be linked in this list, to
// immediately after mark (which must not be i itself). Used by passes that
// slide an instruction past a dependency-free span (e.g. inc/dec hoisting,
// the CORDIC reorderer).
func (irl *IRList) MoveAfter(i, mark *Instruction) {
	irl.unlink(i)
	irl.InsertAfter(mark, i)
}

// AssignAddresses walks the list, giving each non-label non-dummy
// instruction a monotonically increasing Address (spec.md §3 invariant:
// "labels and dummies do not advance the address"). Must be re-run by the
// driver at the top of each round per spec.md §5 ("Address numbering is
// recomputed the same way" as label usage).
func (irl *IRList) AssignAddresses() {
	var addr int64
	for i := irl.head; i != nil; i = i.Next {
		i.Address = addr
		if i.Op != LABEL && i.Op != DUMMY && i.Op != COMMENT {
			addr++
		}
	}
	irl.nextAddr = addr
}

// Walk calls fn for every instruction from head to tail.
func (irl *IRList) Walk(fn func(*Instruction)) {
	for i := irl.head; i != nil; i = i.Next {
		fn(i)
	}
}

// Len returns the number of nodes currently linked (including labels/dummies).
func (irl *IRList) Len() int {
	n := 0
	for i := irl.head; i != nil; i = i.Next {
		n++
	}
	return n
}

// CheckWellFormed verifies invariant 1 from spec.md §8: prev/next
// consistency and head/tail agreement. Returns the first violation found,
// or nil.
func (irl *IRList) CheckWellFormed() error {
	if irl.head != nil && irl.head.Prev != nil {
		return errWellFormed("head.Prev != nil")
	}
	if irl.tail != nil && irl.tail.Next != nil {
		return errWellFormed("tail.Next != nil")
	}
	for i := irl.head; i != nil; i = i.Next {
		if i.Next != nil && i.Next.Prev != i {
			return errWellFormed("i.Next.Prev != i")
		}
		if i.Prev != nil && i.Prev.Next != i {
			return errWellFormed("i.Prev.Next != i")
		}
		if i.Next == nil && i != irl.tail {
			return errWellFormed("list end does not match tail")
		}
	}
	return nil
}

type wellFormedError string

func (e wellFormedError) Error() string { return "ir: list not well-formed: " + string(e) }

func errWellFormed(msg string) error { return wellFormedError(msg) }
