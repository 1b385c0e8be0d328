package passes

import (
	"github.com/totalspectrum/ppcc-optimizer/internal/config"
	"github.com/totalspectrum/ppcc-optimizer/internal/dataflow"
	"github.com/totalspectrum/ppcc-optimizer/internal/frontend"
	"github.com/totalspectrum/ppcc-optimizer/internal/ir"
)

// SimpleAssignmentTriangle implements spec.md §4.3's "Simple-assignment
// triangle": `mov T,A; op T,B; mov A,T` with T dead thereafter collapses to
// `op A,B`.
type SimpleAssignmentTriangle struct{}

func (SimpleAssignmentTriangle) Name() string                    { return "simple_assignment_triangle" }
func (SimpleAssignmentTriangle) Flag() frontend.OptimizeFlag { return frontend.OptBasicRegs }

func (SimpleAssignmentTriangle) Run(fn *frontend.Function, _ config.Config) (bool, error) {
	changed := false
	body := fn.Body
	for i := body.Head(); i != nil; i = i.Next {
		if i.IsDummy() || i.Op != ir.MOV || i.HasSrc2 {
			continue
		}
		op := nextLive(i)
		if op == nil || op.Op == ir.MOV || !ir.SameRegister(&op.Dst, &i.Dst) || op.HasSrc2 {
			continue
		}
		last := nextLive(op)
		if last == nil || last.Op != ir.MOV || last.HasSrc2 {
			continue
		}
		if !ir.SameRegister(&last.Dst, &i.Src) || !ir.SameRegister(&last.Src, &i.Dst) {
			continue
		}
		if !dataflow.IsDeadAfter(last, &i.Dst) {
			continue
		}
		op.Dst = i.Src
		body.Delete(i)
		body.Delete(last)
		changed = true
	}
	return changed, nil
}
