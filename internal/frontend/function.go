// Package frontend defines the input contract the surrounding compiler
// driver is expected to populate before handing a function to the
// optimizer core (spec.md §6 "Inputs from the frontend"). It is not a
// parser: it only shapes the data the optimizer consumes.
package frontend

import "github.com/totalspectrum/ppcc-optimizer/internal/ir"

// CallConv is the calling convention a function uses.
type CallConv uint8

const (
	FastCall CallConv = iota
	StackCall
)

// InliningFlag is the small bitfield describing a function's eligibility
// hints (spec.md §6).
type InliningFlag uint8

const (
	InlineSmall InliningFlag = 1 << iota
	InlineSingleUse
	InlinePure
	InlinePreferInline
)

// OptimizeFlag is the per-pass enable bitmap from spec.md §6.
type OptimizeFlag uint32

const (
	OptBasicRegs OptimizeFlag = 1 << iota
	OptConstPropagate
	OptPeephole
	OptBranches
	OptTailCalls
	OptCordicReorder
	OptLocalReuse
	OptDeadcode
	OptExperimental
	OptAggressiveMem
	OptRemoveHubBss
	OptAutoFcache
	OptMergeDuplicates
	OptInlineSmallfuncs
	OptInlineSingleuse
	OptRemoveUnusedFuncs
	OptExtrasmall
	OptFastasm

	OptAll = OptBasicRegs | OptConstPropagate | OptPeephole | OptBranches |
		OptTailCalls | OptCordicReorder | OptLocalReuse | OptDeadcode |
		OptAggressiveMem | OptAutoFcache | OptMergeDuplicates |
		OptInlineSmallfuncs | OptInlineSingleuse | OptRemoveUnusedFuncs | OptFastasm
)

// Function is the per-function descriptor the frontend hands to the
// optimizer core: the function's IRList, a header comment list, calling
// convention, entry/return/alternate-entry operands, inlining/optimize
// flag words, the symbols it touches, the "locals used in asm" mask, and
// the leaf/recursive/alloca/closure/cog-task/used-as-ptr flags (spec.md §6).
type Function struct {
	Name string

	Body   *ir.IRList
	Header *ir.IRList

	CallConv CallConv

	EntryLabel    *ir.Instruction
	ReturnLabel   *ir.Instruction
	AltEntryLabel *ir.Instruction

	InliningFlags InliningFlag
	OptimizeFlags OptimizeFlag

	ReadSymbols  []string
	WriteSymbols []string

	// LocalsUsedInAsm is the 64-bit mask spec.md §6 names directly: which
	// of the first 64 local-register slots are referenced from inline
	// PASM the frontend could not fully track through the IR.
	LocalsUsedInAsm uint64

	IsLeaf          bool
	IsRecursive     bool
	UsesAlloca      bool
	LocalAddrTaken  bool
	Closure         bool
	CogTask         bool
	UsedAsPtr       bool
	PreferInline    bool

	CallSites int // live call-site count, decremented as the inliner expands call sites

	// InlineInstrCount is populated by the pass driver once the function
	// has been locally optimized, used to evaluate eligibility thresholds.
	InlineInstrCount int
}

// TargetInfo records whether code targets Propeller 2 — threaded from
// the module-level Config (internal/config) rather than stored per
// function, since it is a whole-compilation-unit setting (spec.md §6).
type TargetInfo struct {
	P2 bool
}
