package passes

import "github.com/totalspectrum/ppcc-optimizer/internal/ir"

// constEnv is a small forward abstract-interpretation: for each register
// currently known to hold a literal integer (because the only reaching
// definition is `mov reg,#k`), it records that value. It underlies both
// transform_const_dst and propagate_const_forward (spec.md §4.3): the two
// passes share this tracker instead of re-deriving reachability twice.
type constEnv struct {
	vals map[string]int64
}

func newConstEnv() *constEnv { return &constEnv{vals: map[string]int64{}} }

func regKey(op *ir.Operand) string {
	base := ir.BaseRegister(op)
	if base == nil {
		return ""
	}
	return string(rune(base.Kind)) + base.Name
}

func (e *constEnv) get(op *ir.Operand) (int64, bool) {
	k := regKey(op)
	if k == "" {
		return 0, false
	}
	v, ok := e.vals[k]
	return v, ok
}

func (e *constEnv) set(op *ir.Operand, v int64) {
	if k := regKey(op); k != "" {
		e.vals[k] = v
	}
}

func (e *constEnv) clear(op *ir.Operand) {
	if k := regKey(op); k != "" {
		delete(e.vals, k)
	}
}

// clearAllLocals drops every tracked local/temp/arg, used at call sites and
// labels with unknown predecessors (spec.md §4.3 propagate_const_forward:
// "until a label or call intervenes" when the setter is not unique).
func (e *constEnv) clearAllLocals() {
	for k, _ := range e.vals {
		// Every key we track is keyed off BaseRegister, which for this
		// pass's purposes is always a local/temp/arg/global register; a
		// full implementation would also preserve provably-loop-invariant
		// globals, but clearing conservatively here never miscompiles,
		// only misses an optimization (consistent with spec.md §7's
		// "preserving correctness at the expense of a missed optimization").
		delete(e.vals, k)
	}
}

func (e *constEnv) clone() *constEnv {
	n := newConstEnv()
	for k, v := range e.vals {
		n.vals[k] = v
	}
	return n
}
