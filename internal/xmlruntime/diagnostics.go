package xmlruntime

import (
	"fmt"
	"strings"
)

// Severity classifies a diagnostic.
type Severity int

// Diagnostic severities. Only SeverityError and SeverityFatal fail a load.
const (
	SeverityWarning Severity = iota
	SeverityError
	SeverityFatal
)

// String returns the lower-case severity name.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// MarshalText encodes the severity by name, so reports read "error" rather
// than 1.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name written by MarshalText.
func (s *Severity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "warning":
		*s = SeverityWarning
	case "error":
		*s = SeverityError
	case "fatal":
		*s = SeverityFatal
	default:
		return fmt.Errorf("unknown severity %q", text)
	}
	return nil
}

// Diagnostic is a single parse or validation finding with its location.
type Diagnostic struct {
	Severity Severity `json:"severity" yaml:"severity"`

	// SystemID is the file the finding belongs to. Included documents report
	// their own path.
	SystemID string `json:"system_id" yaml:"system_id"`

	// Line and Column are 1-based; zero when unknown.
	Line   int `json:"line,omitempty" yaml:"line,omitempty"`
	Column int `json:"column,omitempty" yaml:"column,omitempty"`

	Message string `json:"message" yaml:"message"`
}

// String formats the diagnostic as "file:line:col: severity: message".
func (d Diagnostic) String() string {
	var b strings.Builder
	b.WriteString(d.SystemID)
	if d.Line > 0 {
		fmt.Fprintf(&b, ":%d", d.Line)
		if d.Column > 0 {
			fmt.Fprintf(&b, ":%d", d.Column)
		}
	}
	fmt.Fprintf(&b, ": %s: %s", d.Severity, d.Message)
	return b.String()
}

// Diagnostics collects every finding of one load pass.
//
// It is filled while a document is parsed, included and validated, then
// queried once through HasErrors before any extraction happens.
type Diagnostics struct {
	items []Diagnostic
}

// Record adds a diagnostic.
func (d *Diagnostics) Record(diag Diagnostic) {
	d.items = append(d.items, diag)
}

// Errorf records an error-level diagnostic at the position of el.
func (d *Diagnostics) Errorf(el *Element, format string, args ...any) {
	d.at(SeverityError, el, format, args...)
}

// Warnf records a warning at the position of el.
func (d *Diagnostics) Warnf(el *Element, format string, args ...any) {
	d.at(SeverityWarning, el, format, args...)
}

func (d *Diagnostics) at(sev Severity, el *Element, format string, args ...any) {
	diag := Diagnostic{Severity: sev, Message: fmt.Sprintf(format, args...)}
	if el != nil {
		diag.SystemID = el.SystemID
		diag.Line = el.Line
		diag.Column = el.Column
	}
	d.Record(diag)
}

// HasErrors reports whether any error or fatal diagnostic was recorded.
func (d *Diagnostics) HasErrors() bool {
	for _, item := range d.items {
		if item.Severity >= SeverityError {
			return true
		}
	}
	return false
}

// Len returns the number of recorded diagnostics of any severity.
func (d *Diagnostics) Len() int {
	return len(d.items)
}

// All returns a copy of every recorded diagnostic in recording order.
func (d *Diagnostics) All() []Diagnostic {
	out := make([]Diagnostic, len(d.items))
	copy(out, d.items)
	return out
}

// Errors returns the error and fatal diagnostics.
func (d *Diagnostics) Errors() []Diagnostic {
	return d.filter(func(s Severity) bool { return s >= SeverityError })
}

// Warnings returns the warnings.
func (d *Diagnostics) Warnings() []Diagnostic {
	return d.filter(func(s Severity) bool { return s == SeverityWarning })
}

func (d *Diagnostics) filter(keep func(Severity) bool) []Diagnostic {
	var out []Diagnostic
	for _, item := range d.items {
		if keep(item.Severity) {
			out = append(out, item)
		}
	}
	return out
}
