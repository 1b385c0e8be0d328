// Package demo builds small, self-contained frontend.Function values the
// cmd/ppcc-opt CLI can run through the optimizer without a real PASM/P2ASM
// parser (spec.md §1 treats parsing/emission as an external collaborator,
// not part of the optimizer core this module implements). Each fixture is
// built the same way internal/inline's and internal/cordic's tests
// construct IR by hand, just packaged as a runnable sample instead of a
// one-off assertion.
package demo

import (
	"sort"

	"github.com/totalspectrum/ppcc-optimizer/internal/frontend"
	"github.com/totalspectrum/ppcc-optimizer/internal/ir"
)

var registry = map[string]func() *frontend.Function{
	"muldiv-fold":     muldivFold,
	"hot-loop":        hotLoop,
	"redundant-moves": redundantMoves,
}

// Names returns the registered fixture names in a stable, sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the named fixture, freshly built (fixtures are mutated in
// place by the optimizer, so every caller gets its own IRList).
func Get(name string) (*frontend.Function, bool) {
	build, ok := registry[name]
	if !ok {
		return nil, false
	}
	return build(), true
}

// muldivFold demonstrates spec.md §4.6 constant folding: a compile-time
// QMUL feeding GETQX/GETQY folds to a pair of literal moves.
func muldivFold() *frontend.Function {
	body := ir.NewIRList()
	entry := &ir.Instruction{Op: ir.LABEL, Text: "muldiv_fold"}
	qmul := &ir.Instruction{Op: ir.QMUL, Cond: ir.CondAlways, Dst: ir.NewImm(7), Src: ir.NewImm(6)}
	getx := &ir.Instruction{Op: ir.GETQX, Cond: ir.CondAlways, Dst: ir.NewReg(ir.RegLocal, "product_lo")}
	gety := &ir.Instruction{Op: ir.GETQY, Cond: ir.CondAlways, Dst: ir.NewReg(ir.RegLocal, "product_hi")}
	ret := &ir.Instruction{Op: ir.RET, Cond: ir.CondAlways}
	for _, i := range []*ir.Instruction{entry, qmul, getx, gety, ret} {
		body.Append(i)
	}
	return &frontend.Function{Name: "muldiv_fold", Body: body, EntryLabel: entry, IsLeaf: true}
}

// hotLoop demonstrates spec.md §4.7 F-cache promotion: a small
// backward-branching countdown loop that fits the default cache window.
func hotLoop() *frontend.Function {
	body := ir.NewIRList()
	entry := &ir.Instruction{Op: ir.LABEL, Text: "hot_loop"}
	count := ir.NewReg(ir.RegLocal, "count")
	top := &ir.Instruction{Op: ir.LABEL, Text: "hot_loop_top"}
	work := &ir.Instruction{Op: ir.ADD, Cond: ir.CondAlways, Dst: ir.NewReg(ir.RegLocal, "acc"), Src: ir.NewImm(1)}
	dec := &ir.Instruction{Op: ir.SUB, Cond: ir.CondAlways, Eff: ir.EffWZ, Dst: count, Src: ir.NewImm(1)}
	back := &ir.Instruction{Op: ir.JMP, Cond: ir.CondAlways}
	ret := &ir.Instruction{Op: ir.RET, Cond: ir.CondAlways}
	for _, i := range []*ir.Instruction{entry, top, work, dec, back, ret} {
		body.Append(i)
	}
	ir.LinkJump(back, top)
	return &frontend.Function{Name: "hot_loop", Body: body, EntryLabel: entry, IsLeaf: true}
}

// redundantMoves demonstrates the ordinary local-pass fixed point: a
// self-move and a dead store the round passes should eliminate.
func redundantMoves() *frontend.Function {
	body := ir.NewIRList()
	entry := &ir.Instruction{Op: ir.LABEL, Text: "redundant_moves"}
	x := ir.NewReg(ir.RegLocal, "x")
	selfMove := &ir.Instruction{Op: ir.MOV, Cond: ir.CondAlways, Dst: x, Src: x}
	deadStore := &ir.Instruction{Op: ir.MOV, Cond: ir.CondAlways, Dst: ir.NewReg(ir.RegLocal, "unused"), Src: ir.NewImm(42)}
	ret := &ir.Instruction{Op: ir.RET, Cond: ir.CondAlways}
	for _, i := range []*ir.Instruction{entry, selfMove, deadStore, ret} {
		body.Append(i)
	}
	return &frontend.Function{Name: "redundant_moves", Body: body, EntryLabel: entry, IsLeaf: true}
}
