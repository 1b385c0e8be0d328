// Package passes implements component 4 from spec.md §2/§4.3: the local
// per-function optimization passes the driver (internal/optimizer) iterates
// to a fixed point. Each pass follows the shape grounded in the pack's
// compiler-optimizer idiom (oisee-minz pkg/optimizer: a Pass with Name()
// and Run(...) (changed bool, err error)): a pure, single-function
// transformation that reports whether it touched anything.
package passes

import (
	"github.com/totalspectrum/ppcc-optimizer/internal/config"
	"github.com/totalspectrum/ppcc-optimizer/internal/frontend"
	"github.com/totalspectrum/ppcc-optimizer/internal/ir"
)

// Pass is one local transformation.
type Pass interface {
	Name() string
	Run(fn *frontend.Function, cfg config.Config) (changed bool, err error)
}

// Flag returns the OptimizeFlag bit that gates this pass, so the driver can
// skip it per spec.md §4.8 ("Each pass is guarded by an optimization-flag
// bit set per-function"). A pass with no corresponding bit (Flag()==0) is
// unconditional (e.g. CheckLabelUsage/AssignAddresses bookkeeping).
type Gated interface {
	Flag() frontend.OptimizeFlag
}

// body is a tiny accessor shared by every pass file in this package.
func body(fn *frontend.Function) *ir.IRList { return fn.Body }
