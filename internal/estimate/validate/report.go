// Package validate checks parsed estimate input and, when the input is
// structurally sound, produces the canonical document. Both interchange
// formats share one report shape; neither pipeline mutates its input.
package validate

import (
	"fmt"

	"github.com/Farhaan96/CollisionOS-sub000/internal/estimate"
	"github.com/Farhaan96/CollisionOS-sub000/internal/estimate/parser"
)

// Severity grades a validation issue.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Issue is a single validation finding.
type Issue struct {
	Type     string   `json:"type"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Field    string   `json:"field,omitempty"`
	Line     int      `json:"line,omitempty"`
}

// Report is the outcome of validating one estimate file. Validity requires
// zero errors of any severity; warnings never block.
type Report struct {
	IsValid  bool    `json:"is_valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
	Summary  string  `json:"summary"`
}

func (r *Report) addError(issueType, message string, sev Severity) {
	r.Errors = append(r.Errors, Issue{Type: issueType, Message: message, Severity: sev})
}

func (r *Report) addErrorAt(issueType, message string, sev Severity, field string, line int) {
	r.Errors = append(r.Errors, Issue{Type: issueType, Message: message, Severity: sev, Field: field, Line: line})
}

func (r *Report) addWarning(issueType, message string, sev Severity) {
	r.Warnings = append(r.Warnings, Issue{Type: issueType, Message: message, Severity: sev})
}

func (r *Report) addWarningAt(issueType, message string, sev Severity, field string, line int) {
	r.Warnings = append(r.Warnings, Issue{Type: issueType, Message: message, Severity: sev, Field: field, Line: line})
}

func (r *Report) finalize(format parser.Format) {
	r.IsValid = len(r.Errors) == 0
	r.Summary = fmt.Sprintf("%s: %d error(s), %d warning(s)", format, len(r.Errors), len(r.Warnings))
}

// Run dispatches a parse result to the matching pipeline. The document is
// non-nil only when the report is valid.
func Run(res *parser.Result) (*estimate.Document, *Report) {
	switch res.Format {
	case parser.FormatBMS:
		return BMS(res.Tree)
	default:
		return EMS(res.Records)
	}
}
