package passes

import (
	"github.com/totalspectrum/ppcc-optimizer/internal/config"
	"github.com/totalspectrum/ppcc-optimizer/internal/frontend"
	"github.com/totalspectrum/ppcc-optimizer/internal/ir"
)

// CompressIR implements spec.md §9's P1-only compression post-pass,
// grounded on `original_source/backends/asm/compress_ir.c`: runs of two or
// more consecutive BYTE/LONG data pseudo-ops with plain immediate operands
// are merged into a single COMPRESS3 blob the text emitter unpacks at load
// time (spec.md §6 names COMPRESS3 as a pseudo-opcode "passed to the
// emitter verbatim"). It never interprets what the data means, only its
// run-length, so it stays inside the "does not interpret semantics"
// Non-goal. Gated by the `compress` config bool rather than an
// OptimizeFlag bit, since it is a whole-unit data-layout choice rather
// than a per-function optimization; called directly from
// Driver.OptimizeFunction, the same way OptimizeMulDiv is.
type CompressIR struct{}

func (CompressIR) Name() string { return "compress_ir" }

func (CompressIR) Run(fn *frontend.Function, cfg config.Config) (bool, error) {
	if !cfg.Compress || cfg.P2 {
		return false, nil
	}
	body := fn.Body
	changed := false
	for i := body.Head(); i != nil; {
		if i.IsDummy() || (i.Op != ir.LONG && i.Op != ir.BYTE) {
			i = i.Next
			continue
		}
		run := dataRun(i)
		if len(run) < 2 {
			i = i.Next
			continue
		}
		first, last := run[0], run[len(run)-1]
		next := last.Next
		blob := &ir.Instruction{Op: ir.COMPRESS3, Text: ir.Mnemonic(first.Op), Aux: blobValues(run)}
		body.InsertBefore(first, blob)
		for _, d := range run {
			body.Delete(d)
		}
		changed = true
		i = next
	}
	return changed, nil
}

// dataRun collects a maximal run of same-opcode BYTE/LONG instructions with
// plain immediate operands starting at start, skipping over already-dummy
// nodes but stopping at anything else (a label, a non-data op, a symbolic
// operand the emitter must resolve itself rather than inline as a value).
func dataRun(start *ir.Instruction) []*ir.Instruction {
	op := start.Op
	var run []*ir.Instruction
	for cur := start; cur != nil; cur = cur.Next {
		if cur.IsDummy() {
			continue
		}
		if cur.Op != op || cur.Dst.Kind != ir.ImmInt {
			break
		}
		run = append(run, cur)
	}
	return run
}

func blobValues(run []*ir.Instruction) []int64 {
	vals := make([]int64, len(run))
	for idx, d := range run {
		vals[idx] = d.Dst.Val
	}
	return vals
}
