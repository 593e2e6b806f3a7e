// Package diagnostics implements the stable error/warning code taxonomy of
// spec §6-7: every diagnostic carries {code, severity, span, message,
// notes?}. Diagnostics accumulate across a phase rather than aborting on
// the first failure.
package diagnostics

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/vudoc/vudoc/internal/ast"
)

// Severity distinguishes a hard error from a warning.
type Severity int

const (
	SevError Severity = iota
	SevWarning
)

func (s Severity) String() string {
	if s == SevWarning {
		return "warning"
	}
	return "error"
}

// Stable diagnostic codes (§6).
const (
	E001Syntax            = "E001" // syntax error
	E002UnknownType       = "E002"
	E003UndefinedRef      = "E003"
	E004DuplicateDef      = "E004"
	E005TypeMismatch      = "E005"
	E006CannotInfer       = "E006"
	E007PurityViolation   = "E007"
	W001Deprecated        = "W001"
	W002Shadowing         = "W002"
	W003Unused            = "W003"
)

// Diagnostic is one reported issue.
type Diagnostic struct {
	Code     string
	Severity Severity
	Span     ast.Span
	Message  string
	Notes    []string
}

// Bag accumulates diagnostics across a compiler phase. Phases abort only
// at phase end if errors (not just warnings) are present (§7).
type Bag struct {
	items []Diagnostic
}

func (b *Bag) Add(d Diagnostic) { b.items = append(b.items, d) }

func (b *Bag) Errorf(code string, span ast.Span, format string, args ...interface{}) {
	b.Add(Diagnostic{Code: code, Severity: SevError, Span: span, Message: fmt.Sprintf(format, args...)})
}

func (b *Bag) Warnf(code string, span ast.Span, format string, args ...interface{}) {
	b.Add(Diagnostic{Code: code, Severity: SevWarning, Span: span, Message: fmt.Sprintf(format, args...)})
}

// HasErrors reports whether any SevError diagnostic was recorded.
func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.Severity == SevError {
			return true
		}
	}
	return false
}

// All returns every accumulated diagnostic in insertion order.
func (b *Bag) All() []Diagnostic { return b.items }

// Merge appends another bag's diagnostics onto b.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	b.items = append(b.items, other.items...)
}

var (
	red    = color.New(color.FgRed, color.Bold).SprintFunc()
	yellow = color.New(color.FgYellow, color.Bold).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
)

// Report writes every diagnostic in b to w, resolving line/column against
// src for display (never stored on the diagnostic itself).
func Report(w io.Writer, src []byte, b *Bag) {
	for _, d := range b.items {
		line, col := ast.LineCol(src, d.Span.Start)
		tag := red(d.Severity.String())
		if d.Severity == SevWarning {
			tag = yellow(d.Severity.String())
		}
		fmt.Fprintf(w, "%s: %s [%s] %s\n", cyan(fmt.Sprintf("%d:%d", line, col)), tag, d.Code, d.Message)
		for _, n := range d.Notes {
			fmt.Fprintf(w, "  note: %s\n", n)
		}
	}
}

// ExitCode implements §6's CLI exit-code contract: 0 success, 1 diagnostics
// with at least one error present, 2 reserved for internal failure by the
// caller.
func ExitCode(b *Bag) int {
	if b.HasErrors() {
		return 1
	}
	return 0
}
