package domain

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Severity represents how serious a diagnostic is.
type Severity int

const (
	// SeverityError marks a problem in the document that produced an error marker.
	SeverityError Severity = iota
	// SeverityWarning marks best-effort output, such as overflowing lines.
	SeverityWarning
)

// String returns the string representation of the Severity.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "error"
	}
}

// Span locates a diagnostic in a source file. Line and Column are 1-based;
// a zero Line means the diagnostic is not tied to a position.
type Span struct {
	File   Symbol
	Line   int
	Column int
}

// Shift moves the span down by lines, as needed when a block-relative span
// is rebased onto its file.
func (s Span) Shift(lines int) Span {
	if s.Line == 0 {
		return s
	}
	s.Line += lines
	return s
}

// Diagnostic is a structured problem report. Diagnostics never halt a
// compilation.
type Diagnostic struct {
	Severity Severity
	Span     Span
	Message  string
}

// Errorf builds an error diagnostic at span.
func Errorf(span Span, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityError, Span: span, Message: fmt.Sprintf(format, args...)}
}

// Warnf builds a warning diagnostic at span.
func Warnf(span Span, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Span: span, Message: fmt.Sprintf(format, args...)}
}

// String renders the diagnostic as "file:line:col: severity: message".
func (d Diagnostic) String() string {
	var b strings.Builder
	if f := d.Span.File.String(); f != "" {
		b.WriteString(f)
		b.WriteString(":")
	}
	if d.Span.Line > 0 {
		fmt.Fprintf(&b, "%d:%d:", d.Span.Line, d.Span.Column)
	}
	if b.Len() > 0 {
		b.WriteString(" ")
	}
	b.WriteString(d.Severity.String())
	b.WriteString(": ")
	b.WriteString(d.Message)
	return b.String()
}

func compareDiagnostics(a, b Diagnostic) int {
	return cmp.Or(
		cmp.Compare(a.Span.File.String(), b.Span.File.String()),
		cmp.Compare(a.Span.Line, b.Span.Line),
		cmp.Compare(a.Span.Column, b.Span.Column),
		cmp.Compare(a.Severity, b.Severity),
		cmp.Compare(a.Message, b.Message),
	)
}

// SortDiagnostics orders diagnostics by file, line and column and removes
// exact duplicates. The input slice is not modified.
func SortDiagnostics(diags []Diagnostic) []Diagnostic {
	out := slices.Clone(diags)
	slices.SortFunc(out, compareDiagnostics)
	return slices.Compact(out)
}

// HasErrors reports whether any diagnostic is an error.
func HasErrors(diags []Diagnostic) bool {
	return slices.ContainsFunc(diags, func(d Diagnostic) bool {
		return d.Severity == SeverityError
	})
}
