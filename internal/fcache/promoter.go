// Package fcache implements component 8 from spec.md §2/§4.7: identifying
// hot loops that fit in the Propeller's small on-chip F-cache region and
// wrapping them with FCACHE/trailing-label pseudo-ops so the text emitter
// can relocate them for fast execution. Grounded on the same forward
// list-walk + splice idiom internal/passes and internal/cordic use.
package fcache

import "github.com/totalspectrum/ppcc-optimizer/internal/ir"

// Default cache window sizes in longs, spec.md §4.7: "96 longs on P1, 128 on
// P2 with -O auto-fcache".
const (
	DefaultWindowP1 = 96
	DefaultWindowP2 = 128
)

// Options configures the promoter (spec.md §6 Configuration: fcache_size).
type Options struct {
	P2 bool
	// WindowLongs is the configured cache size in longs. A value <=0 selects
	// the architecture default; the driver does not call Promote at all when
	// the configured size is 0.
	WindowLongs int
}

func windowSize(opts Options) int {
	if opts.WindowLongs > 0 {
		return opts.WindowLongs
	}
	if opts.P2 {
		return DefaultWindowP2
	}
	return DefaultWindowP1
}

// Promote walks body and wraps every eligible hot loop it finds in an
// FCACHE region, merging adjacent eligible loops into a shared region when
// the combined size still fits the window (spec.md §4.7).
func Promote(body *ir.IRList, opts Options) (bool, error) {
	window := windowSize(opts)
	changed := false
	var fcacheStack []*ir.Instruction // end-label markers of regions we're currently nested inside

	for node := body.Head(); node != nil; node = node.Next {
		if node.Op == ir.FCACHE {
			if end, ok := node.Aux.(*ir.Instruction); ok {
				fcacheStack = append(fcacheStack, end)
			}
			continue
		}
		if n := len(fcacheStack); n > 0 && node == fcacheStack[n-1] {
			fcacheStack = fcacheStack[:n-1]
			continue
		}
		if len(fcacheStack) > 0 {
			continue // nested inside a region already promoted: "no nested F-cache"
		}

		if node.Op != ir.LABEL || !ir.HasKnownPredecessors(node) {
			continue
		}
		backEdge := singleBackwardJump(node)
		if backEdge == nil {
			continue
		}
		if !eligibleLoop(node, backEdge) {
			continue
		}
		if sizeLongs(node, backEdge) > window {
			continue
		}

		insertionPoint := node
		if pre := prevLive(node); pre != nil && pre.Op == ir.REPEAT {
			// "the promoter also moves the new label to before the REPEAT
			// so the counter initialization is inside the cache."
			insertionPoint = pre
		}

		end, ok := mergeOrWrap(body, insertionPoint, backEdge, window)
		if ok {
			changed = true
			fcacheStack = append(fcacheStack, end)
		}
	}
	return changed, nil
}

// singleBackwardJump returns label's sole predecessor jump if it is an
// unconditional JMP appearing after label in program order (spec.md §4.7:
// "exactly one back-edge from a backward unconditional jump"), or nil.
func singleBackwardJump(label *ir.Instruction) *ir.Instruction {
	var found *ir.Instruction
	count := 0
	ir.JumpsTo(label, func(jump *ir.Instruction) {
		count++
		if jump.Op == ir.JMP && jump.Cond == ir.CondAlways && isAfter(label, jump) {
			found = jump
		}
	})
	if count != 1 || found == nil {
		return nil
	}
	return found
}

func isAfter(from, target *ir.Instruction) bool {
	for cur := from; cur != nil; cur = cur.Next {
		if cur == target {
			return true
		}
	}
	return false
}

func within(i, start, end *ir.Instruction) bool {
	for cur := start; cur != nil; cur = cur.Next {
		if cur == i {
			return true
		}
		if cur == end {
			return false
		}
	}
	return false
}

// eligibleLoop implements spec.md §4.7's checks: no nested F-cache, no
// hub-target call except known mul/div helpers, no forward-out branches, at
// least one non-wait-class instruction.
func eligibleLoop(start, end *ir.Instruction) bool {
	ok := true
	hasReal := false
	for cur := start; cur != nil; cur = cur.Next {
		if !cur.IsDummy() && cur.Op != ir.LABEL {
			switch {
			case cur.Op == ir.FCACHE:
				ok = false
			case cur.Op == ir.CALL:
				callee := ir.CalleeOf(cur)
				if callee == nil || !callee.IsMulDivHelper {
					ok = false
				}
			case ir.IsBranch(cur) && cur != end:
				target, _ := cur.Aux.(*ir.Instruction)
				if target == nil || !within(target, start, end) {
					ok = false
				}
			}
			if !isWaitClass(cur.Op) {
				hasReal = true
			}
		}
		if cur == end {
			break
		}
	}
	return ok && hasReal
}

func isWaitClass(op ir.Opcode) bool {
	switch op {
	case ir.WAITX, ir.WAITCT, ir.WAITPEQ:
		return true
	}
	return false
}

// sizeLongs counts the loop body's size in longs: one per real instruction,
// plus one more for each operand that needs an AUGS/AUGD prefix (immediate
// outside the 9-bit range), per spec.md §4.7/§4.1.
func sizeLongs(start, end *ir.Instruction) int {
	n := 0
	for cur := start; cur != nil; cur = cur.Next {
		if !cur.IsDummy() && cur.Op != ir.LABEL && cur.Op != ir.COMMENT {
			n++
			if needsAugLong(&cur.Dst) {
				n++
			}
			if needsAugLong(&cur.Src) {
				n++
			}
			if cur.HasSrc2 && needsAugLong(&cur.Src2) {
				n++
			}
		}
		if cur == end {
			break
		}
	}
	return n
}

func needsAugLong(op *ir.Operand) bool {
	if op.Kind != ir.ImmInt {
		return false
	}
	return op.Val < -256 || op.Val > 511
}

func prevLive(i *ir.Instruction) *ir.Instruction {
	for cur := i.Prev; cur != nil; cur = cur.Prev {
		if !cur.IsDummy() {
			return cur
		}
	}
	return nil
}

// mergeOrWrap inserts start/end FCACHE markers around [insertionPoint,
// loopEnd], or — if the immediately preceding instruction is itself the
// trailing label of an existing FCACHE region and the combined size still
// fits window — extends that region instead of creating a second,
// adjacent one (spec.md §4.7: "adjacent eligible loops sharing the region
// are merged by extending the cache window"). Returns the region's
// (possibly new) trailing label.
func mergeOrWrap(body *ir.IRList, insertionPoint, loopEnd *ir.Instruction, window int) (*ir.Instruction, bool) {
	if prev := prevLive(insertionPoint); prev != nil && prev.Op == ir.LABEL {
		if fc := findOwningFcache(prev); fc != nil && sizeLongs(fc, loopEnd) <= window {
			newEnd := &ir.Instruction{Op: ir.LABEL, Text: prev.Text + "_m"}
			body.InsertAfter(loopEnd, newEnd)
			body.Delete(prev)
			fc.Dst = ir.Operand{Kind: ir.ImmHubLabel, Name: newEnd.Text}
			fc.Aux = newEnd
			return newEnd, true
		}
	}
	return wrapInFcache(body, insertionPoint, loopEnd)
}

// findOwningFcache scans backward for the FCACHE instruction whose trailing
// label is endLabel. FCACHE regions nest only via this package's own
// bookkeeping, so a plain backward scan (rather than stopping at the first
// real instruction) is needed: the region being searched for typically
// spans the entire previous loop body.
func findOwningFcache(endLabel *ir.Instruction) *ir.Instruction {
	for cur := endLabel.Prev; cur != nil; cur = cur.Prev {
		if cur.Op == ir.FCACHE {
			if end, _ := cur.Aux.(*ir.Instruction); end == endLabel {
				return cur
			}
		}
	}
	return nil
}

func wrapInFcache(body *ir.IRList, start, end *ir.Instruction) (*ir.Instruction, bool) {
	startName := start.Text
	endLabel := &ir.Instruction{Op: ir.LABEL, Text: startName + "_fcache_end"}
	body.InsertAfter(end, endLabel)

	fc := &ir.Instruction{
		Op:  ir.FCACHE,
		Src: ir.Operand{Kind: ir.ImmHubLabel, Name: startName},
		Dst: ir.Operand{Kind: ir.ImmHubLabel, Name: endLabel.Text},
		Aux: endLabel,
	}
	body.InsertBefore(start, fc)
	return endLabel, true
}
