// Package diag implements the error classification from spec.md §7:
// internal assertions, user-diagnostics, resource exhaustion, and the
// "unrecognized opcode in a helper" giving-up result. Internal assertions
// and resource exhaustion are wrapped with github.com/pkg/errors so a
// stack trace survives up to the pass driver's warning sink; the driver
// never panics on an internal assertion — spec.md §7 says the offending
// pass "returns no-change, preserving correctness at the expense of a
// missed optimization."
package diag

import (
	"fmt"

	"github.com/pkg/errors"
)

// Severity classifies a diagnostic.
type Severity int

const (
	Warning Severity = iota
	Error
)

// Diagnostic is one reported condition, with an optional source line
// (spec.md §7: "All diagnostics carry a source-line pointer when available").
type Diagnostic struct {
	Severity Severity
	Message  string
	Line     int32
	Cause    error
}

func (d *Diagnostic) Error() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", severityName(d.Severity), d.Line, d.Message)
	}
	return fmt.Sprintf("%s: %s", severityName(d.Severity), d.Message)
}

func (d *Diagnostic) Unwrap() error { return d.Cause }

func severityName(s Severity) string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Internal reports an invariant violation inside the optimizer itself
// (spec.md §7 "Internal assertion"): always a Warning, never fatal, so the
// calling pass can fall back to "no change".
func Internal(line int32, format string, args ...any) *Diagnostic {
	return &Diagnostic{
		Severity: Warning,
		Message:  fmt.Sprintf(format, args...),
		Line:     line,
		Cause:    errors.Errorf(format, args...),
	}
}

// UserDiagnostic reports user-written inline assembly the optimizer cannot
// preserve (spec.md §7 "User-diagnostic"), e.g. a stray CORDIC command with
// no matching GET. Always a Warning unless the instruction is volatile, in
// which case the caller should escalate to Error (volatile code must not be
// silently dropped).
func UserDiagnostic(line int32, volatile bool, format string, args ...any) *Diagnostic {
	sev := Warning
	if volatile {
		sev = Error
	}
	return &Diagnostic{Severity: sev, Message: fmt.Sprintf(format, args...), Line: line}
}

// ResourceExhausted reports a hard error with no recovery (spec.md §7
// "Resource exhaustion", e.g. local-register numbering exceeding its
// ceiling). Compilation must stop.
func ResourceExhausted(format string, args ...any) *Diagnostic {
	return &Diagnostic{
		Severity: Error,
		Message:  fmt.Sprintf(format, args...),
		Cause:    errors.Errorf(format, args...),
	}
}

// Sink collects diagnostics for a compilation unit. Passes append to it
// through Report; the pipeline driver halts only when Sink.HasErrors()
// becomes true (spec.md §7: "Warnings do not halt the pipeline; errors do").
type Sink struct {
	diags []*Diagnostic
}

// NewSink returns an empty diagnostic sink.
func NewSink() *Sink { return &Sink{} }

// Report appends d to the sink.
func (s *Sink) Report(d *Diagnostic) { s.diags = append(s.diags, d) }

// HasErrors reports whether any reported diagnostic is Error severity.
func (s *Sink) HasErrors() bool {
	for _, d := range s.diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// All returns every diagnostic reported so far, in report order.
func (s *Sink) All() []*Diagnostic { return s.diags }
