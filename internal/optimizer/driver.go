// Package optimizer implements component 4.8 from spec.md: the per-function
// fixed-point pass driver that ties the dataflow queries, local passes,
// peephole engine, inliner, CORDIC pipeliner, and F-cache promoter together.
package optimizer

import (
	"github.com/rs/zerolog"

	"github.com/totalspectrum/ppcc-optimizer/internal/config"
	"github.com/totalspectrum/ppcc-optimizer/internal/cordic"
	"github.com/totalspectrum/ppcc-optimizer/internal/diag"
	"github.com/totalspectrum/ppcc-optimizer/internal/fcache"
	"github.com/totalspectrum/ppcc-optimizer/internal/frontend"
	"github.com/totalspectrum/ppcc-optimizer/internal/inline"
	"github.com/totalspectrum/ppcc-optimizer/internal/ir"
	"github.com/totalspectrum/ppcc-optimizer/internal/passes"
	"github.com/totalspectrum/ppcc-optimizer/internal/peephole"
	"github.com/totalspectrum/ppcc-optimizer/internal/report"
)

// roundPasses is the ordered list from spec.md §4.8 step 2, run every round
// until a whole round makes no change. Order matters: several passes only
// expose opportunities the next one in the list can exploit (e.g.
// move_elimination before compare_optimize).
func (d *Driver) roundPasses() []passes.Pass {
	return []passes.Pass{
		passes.DeadCodeElim{},
		passes.MemoryMerge{},
		passes.CogWriteFusion{},
		passes.SimpleAssignmentTriangle{},
		passes.MoveElimination{},
		passes.ImmediateCanonicalize{},
		passes.TransformConstDst{},
		passes.PropagateConstForward{},
		passes.CompareOptimize{},
		passes.AddSubCoalesce{},
		passes.LoopPointerHoist{},
		passes.P2Peephole{},
		PeepholeAdapter{Report: d.Report},
		passes.BranchCommonOpHoist{},
		passes.ShortBranchConditionalize{},
		passes.IncDecHoist{},
		passes.JumpThread{},
	}
}

// MemoryMergeAdapter simply embeds passes.MemoryMerge; the ordered list
// above uses passes.MemoryMerge directly. PeepholeAdapter wraps the peephole
// table as a Pass so the list reads as one flat Pass slice, and forwards each fired pattern's name to Report, when the driver has one, so
// `explain-peephole` can show per-pattern firing counts instead of the
// coarser per-round "peephole_table changed" signal the other passes report.
type MemoryMergeAdapter struct{ passes.MemoryMerge }
type PeepholeAdapter struct{ Report *report.Table }

func (PeepholeAdapter) Name() string                 { return "peephole_table" }
func (PeepholeAdapter) Flag() frontend.OptimizeFlag { return frontend.OptPeephole }
func (p PeepholeAdapter) Run(fn *frontend.Function, cfg config.Config) (bool, error) {
	var onFire func(string)
	if p.Report != nil {
		onFire = func(name string) { p.Report.Add(name, 0) }
	}
	return peephole.Run(fn.Body, cfg.P2, onFire)
}

// Result is what the driver hands back for one function: the optimized
// body (unchanged *ir.IRList, mutated in place) and any diagnostics.
type Result struct {
	Fn   *frontend.Function
	Sink *diag.Sink
}

// Driver runs the full per-function pipeline spec.md §4.8 describes. It is
// reused across every function in a compilation unit; Functions is read so
// the inliner/duplicate-merger can see every function and a callee's name
// can be resolved to its entry label.
type Driver struct {
	Cfg       config.Config
	Log       zerolog.Logger
	Functions []*frontend.Function

	// Report, if non-nil, is fed one Add per changed pass/fired peephole
	// pattern/cordic fold/fcache promotion across every function this
	// driver optimizes. Used by the `bench`/`explain-peephole` CLI
	// subcommands; left nil in ordinary use since the accounting is pure
	// overhead for a caller that just wants the optimized function back.
	Report *report.Table
}

// OptimizeFunction runs the complete driver sequence for one function.
func (d *Driver) OptimizeFunction(fn *frontend.Function) *Result {
	sink := diag.NewSink()
	log := d.Log.With().Str("fn", fn.Name).Logger()

	if gate(fn, 0) {
		if _, err := (passes.OptimizeMulDiv{}).Run(fn, d.Cfg); err != nil {
			sink.Report(diag.Internal(0, "optimize_muldiv: %v", err))
		}
	}
	if gate(fn, frontend.OptAggressiveMem) {
		if _, err := (passes.OptimizeLongfill{}).Run(fn, d.Cfg); err != nil {
			sink.Report(diag.Internal(0, "optimize_longfill: %v", err))
		}
	}

	d.runToFixedPoint(fn, sink, &log)

	if gate(fn, frontend.OptTailCalls) {
		if d.convertTailCalls(fn) {
			d.runToFixedPoint(fn, sink, &log)
		}
	}

	if gate(fn, frontend.OptCordicReorder) {
		changed, err := cordic.Pipeline(fn.Body, d.Cfg.P2)
		if err != nil {
			sink.Report(diag.Internal(0, "cordic pipeline: %v", err))
		}
		if changed {
			d.report("cordic_pipeline", 0)
			d.runToFixedPoint(fn, sink, &log)
		}
	}

	if gate(fn, frontend.OptLocalReuse) {
		if _, err := (passes.LocalRegisterReuse{}).Run(fn, d.Cfg); err != nil {
			sink.Report(diag.ResourceExhausted("%v", err))
		}
	}

	if d.Cfg.Compress {
		changed, err := (passes.CompressIR{}).Run(fn, d.Cfg)
		if err != nil {
			sink.Report(diag.Internal(0, "compress_ir: %v", err))
		}
		if changed {
			d.report("compress_ir", 0)
		}
	}

	if err := fn.Body.CheckWellFormed(); err != nil {
		sink.Report(diag.Internal(0, "post-optimize well-formedness: %v", err))
	}

	log.Debug().Int("diagnostics", len(sink.All())).Msg("function optimized")
	return &Result{Fn: fn, Sink: sink}
}

// runToFixedPoint is spec.md §4.8 step 2: recompute addresses and label
// usage, then run every enabled round pass until a full round changes
// nothing.
func (d *Driver) runToFixedPoint(fn *frontend.Function, sink *diag.Sink, log *zerolog.Logger) {
	for round := 0; ; round++ {
		fn.Body.AssignAddresses()
		ir.CheckLabelUsage(fn.Body)

		anyChanged := false
		for _, p := range d.roundPasses() {
			if !gate(fn, flagOf(p)) {
				continue
			}
			changed, err := p.Run(fn, d.Cfg)
			if err != nil {
				sink.Report(diag.Internal(0, "%s: %v", p.Name(), err))
				continue
			}
			if changed {
				anyChanged = true
				if _, isPeephole := p.(PeepholeAdapter); !isPeephole {
					d.report(p.Name(), 0)
				}
			}
		}
		if gate(fn, frontend.OptCordicReorder) && cordic.FoldConstants(fn.Body, sink) {
			anyChanged = true
			d.report("cordic_fold_constants", 0)
		}
		if d.promoteFcache(fn) {
			anyChanged = true
			d.report("fcache_promote", 0)
		}
		log.Trace().Int("round", round).Bool("changed", anyChanged).Msg("fixed-point round")
		if !anyChanged {
			return
		}
	}
}

func (d *Driver) report(name string, cyclesSaved int64) {
	if d.Report != nil {
		d.Report.Add(name, cyclesSaved)
	}
}

func (d *Driver) promoteFcache(fn *frontend.Function) bool {
	if !gate(fn, frontend.OptAutoFcache) || d.Cfg.FcacheSize == 0 {
		return false
	}
	changed, err := fcache.Promote(fn.Body, fcache.Options{P2: d.Cfg.P2, WindowLongs: d.Cfg.FcacheSize})
	if err != nil {
		return false
	}
	return changed
}

func gate(fn *frontend.Function, bit frontend.OptimizeFlag) bool {
	if bit == 0 {
		return true
	}
	return fn.OptimizeFlags&bit != 0
}

func flagOf(p passes.Pass) frontend.OptimizeFlag {
	if g, ok := p.(passes.Gated); ok {
		return g.Flag()
	}
	return 0
}

// convertTailCalls implements spec.md §4.8 step 3: a CALL f that is the
// last real instruction in a function becomes a JUMP to f's entry label.
// When f is one of this compilation unit's own functions its entry label is
// linked directly; an external callee becomes an unresolved jump (Aux=nil),
// which the output contract (internal/emit) accepts as "target unknown".
func (d *Driver) convertTailCalls(fn *frontend.Function) bool {
	changed := false
	body := fn.Body
	for i := body.Head(); i != nil; i = i.Next {
		if i.IsDummy() || i.Op != ir.CALL {
			continue
		}
		if !isLastRealInstruction(i) {
			continue
		}
		callee := ir.CalleeOf(i)
		if callee == nil {
			continue
		}
		i.Op = ir.JMP
		i.Aux = nil
		if target := d.entryLabelOf(callee.Name); target != nil {
			ir.LinkJump(i, target)
		}
		changed = true
	}
	return changed
}

func (d *Driver) entryLabelOf(name string) *ir.Instruction {
	for _, fn := range d.Functions {
		if fn.Name == name {
			return fn.EntryLabel
		}
	}
	return nil
}

func isLastRealInstruction(i *ir.Instruction) bool {
	for cur := i.Next; cur != nil; cur = cur.Next {
		if cur.IsDummy() || cur.Op == ir.LABEL {
			continue
		}
		return false
	}
	return true
}

// MergeDuplicateFunctions and Inline expose the whole-module passes that
// operate across function boundaries, grounded in spec.md §4.5.
func (d *Driver) MergeDuplicateFunctions() int {
	return inline.MergeDuplicates(d.Functions)
}

func (d *Driver) InlineEligible() int {
	return inline.ExpandAll(d.Functions, d.Cfg.P2)
}
