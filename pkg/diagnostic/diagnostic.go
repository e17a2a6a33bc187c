// Package diagnostic describes problems reported against a document.
package diagnostic

import (
	"fmt"

	"github.com/walteh/rstls/pkg/position"
)

// Source is attached to every diagnostic produced by the index.
const Source = "rstls"

// Severity uses the numbering of the language server protocol.
type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityInformation
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "info"
	case SeverityHint:
		return "hint"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// RelatedInformation points at another location relevant to a diagnostic.
type RelatedInformation struct {
	Location position.Location
	Message  string
}

// Diagnostic represents a single diagnostic message. The range refers to the
// document the diagnostic is published for.
type Diagnostic struct {
	Severity           Severity
	Message            string
	Range              position.Range
	Source             string
	RelatedInformation []RelatedInformation
}

// DuplicateTarget reports a second declaration of name, pointing back at the
// first one.
func DuplicateTarget(name string, at position.Range, first position.Location) Diagnostic {
	return Diagnostic{
		Severity: SeverityError,
		Message:  fmt.Sprintf("Duplicate target: %s", name),
		Range:    at,
		Source:   Source,
		RelatedInformation: []RelatedInformation{
			{Location: first, Message: "First declared here"},
		},
	}
}

// UnknownTarget reports a reference to a name nothing declares.
func UnknownTarget(name string, at position.Range) Diagnostic {
	return Diagnostic{
		Severity: SeverityError,
		Message:  fmt.Sprintf("Unknown target: %s", name),
		Range:    at,
		Source:   Source,
	}
}

// Format renders d the way compilers do: path:line:col: severity: message,
// with 1-based line and column.
func (d Diagnostic) Format(path string) string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", path, d.Range.Start.Line+1, d.Range.Start.Character+1, d.Severity, d.Message)
}

// HasErrors reports whether any diagnostic is an error.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
