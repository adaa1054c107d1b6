// Package result provides diagnostic types and formatting for mapfile
// analysis reports.
package result

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Severity of a diagnostic.
type Severity string

// Severity levels
const (
	// SeverityHard: the document likely fails to parse.
	SeverityHard Severity = "HARD"
	// SeveritySoft: stylistic, contextual or uncertain finding.
	SeveritySoft Severity = "SOFT"
)

// IssueKind classifies a diagnostic.
type IssueKind string

// Issue kinds
const (
	KindNesting        IssueKind = "NESTING"
	KindEndMismatch    IssueKind = "END_MISMATCH"
	KindMissingEnd     IssueKind = "MISSING_END"
	KindMissingQuote   IssueKind = "MISSING_QUOTE"
	KindUnknownKeyword IssueKind = "UNKNOWN_KEYWORD"
	KindContext        IssueKind = "CONTEXT"
	KindMetadataFormat IssueKind = "METADATA_FORMAT"
)

// Diagnostic is a single finding on one line.
type Diagnostic struct {
	Line        int       `json:"lineNo"`
	Col         int       `json:"col"`
	Kind        IssueKind `json:"kind"`
	Severity    Severity  `json:"severity"`
	Message     string    `json:"message"`
	Excerpt     string    `json:"excerpt"`
	Suggestions []string  `json:"suggestions,omitempty"`
}

// Stats provides summary statistics for an analyzed mapfile.
type Stats struct {
	Lines    int `json:"lines"`
	Blocks   int `json:"blocks"`
	Layers   int `json:"layers"`
	MaxDepth int `json:"max_depth"`
}

// Report is the complete analysis output for a single mapfile.
type Report struct {
	File       string       `json:"file"`
	Valid      bool         `json:"valid"`
	Hard       []Diagnostic `json:"hard"`
	Soft       []Diagnostic `json:"soft"`
	Suppressed int          `json:"suppressed"`
	Summary    string       `json:"summary"`
	Notes      []string     `json:"notes,omitempty"`
	Stats      Stats        `json:"stats"`
}

// MultiReport aggregates reports from multiple files.
type MultiReport struct {
	Reports    []Report `json:"reports"`
	TotalValid int      `json:"total_valid"`
	TotalFiles int      `json:"total_files"`
}

// NewReport creates an empty, valid report for a file.
func NewReport(file string) *Report {
	return &Report{
		File:  file,
		Valid: true,
		Hard:  []Diagnostic{},
		Soft:  []Diagnostic{},
	}
}

// AddHard records a HARD diagnostic and marks the report invalid.
func (r *Report) AddHard(d Diagnostic) {
	d.Severity = SeverityHard
	r.Hard = append(r.Hard, d)
	r.Valid = false
}

// AddSoft records a SOFT diagnostic (does not affect validity).
func (r *Report) AddSoft(d Diagnostic) {
	d.Severity = SeveritySoft
	r.Soft = append(r.Soft, d)
}

// AddNote attaches a free-text note, e.g. a heuristic that fired.
func (r *Report) AddNote(note string) {
	r.Notes = append(r.Notes, note)
}

// Summarize fills in the summary line from the current counts.
func (r *Report) Summarize() {
	s := fmt.Sprintf("%d hard issue(s), %d soft issue(s)", len(r.Hard), len(r.Soft))
	if r.Suppressed > 0 {
		s += fmt.Sprintf(", %d soft issue(s) suppressed near hard issues", r.Suppressed)
	}
	r.Summary = s
}

// All returns HARD then SOFT diagnostics.
func (r *Report) All() []Diagnostic {
	out := make([]Diagnostic, 0, len(r.Hard)+len(r.Soft))
	out = append(out, r.Hard...)
	return append(out, r.Soft...)
}

// ToJSON returns the report as formatted JSON.
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// ToText returns the report as human-readable text with colors.
func (r *Report) ToText() string {
	var sb strings.Builder

	// Header
	headerColor := color.New(color.Bold)
	headerColor.Fprintf(&sb, "mapfile-lint: %s\n", r.File)
	sb.WriteString("\n")

	if len(r.Hard) > 0 {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintln(&sb, "HARD:")
		for _, d := range r.Hard {
			sb.WriteString(formatDiagnostic(d, color.FgRed))
		}
		sb.WriteString("\n")
	}

	if len(r.Soft) > 0 {
		warnColor := color.New(color.FgYellow, color.Bold)
		warnColor.Fprintln(&sb, "SOFT:")
		for _, d := range r.Soft {
			sb.WriteString(formatDiagnostic(d, color.FgYellow))
		}
		sb.WriteString("\n")
	}

	if len(r.Notes) > 0 {
		noteColor := color.New(color.FgCyan, color.Bold)
		noteColor.Fprintln(&sb, "NOTES:")
		for _, n := range r.Notes {
			sb.WriteString(fmt.Sprintf("  %s\n", n))
		}
		sb.WriteString("\n")
	}

	// Summary
	summaryColor := color.New(color.Bold)
	summaryColor.Fprintln(&sb, "SUMMARY:")
	if r.Summary == "" {
		r.Summarize()
	}
	sb.WriteString(fmt.Sprintf("  %s\n", r.Summary))

	if r.Valid {
		validColor := color.New(color.FgGreen, color.Bold)
		sb.WriteString("  Mapfile is ")
		validColor.Fprint(&sb, "OK")
		sb.WriteString("\n")
	} else {
		invalidColor := color.New(color.FgRed, color.Bold)
		sb.WriteString("  Mapfile is ")
		invalidColor.Fprint(&sb, "BROKEN")
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatDiagnostic formats a single diagnostic for text output.
func formatDiagnostic(d Diagnostic, c color.Attribute) string {
	var sb strings.Builder
	kindColor := color.New(c)

	sb.WriteString("  ")
	kindColor.Fprint(&sb, d.Kind)
	sb.WriteString(fmt.Sprintf(" [line %d:%d] %s\n", d.Line, d.Col, d.Message))

	if d.Excerpt != "" {
		sb.WriteString(fmt.Sprintf("       | %s\n", d.Excerpt))
	}
	if len(d.Suggestions) > 0 {
		sb.WriteString(fmt.Sprintf("       did you mean: %s\n", strings.Join(d.Suggestions, ", ")))
	}

	return sb.String()
}

// NewMultiReport creates a MultiReport from individual reports.
func NewMultiReport(reports []Report) *MultiReport {
	valid := 0
	for _, r := range reports {
		if r.Valid {
			valid++
		}
	}
	return &MultiReport{
		Reports:    reports,
		TotalValid: valid,
		TotalFiles: len(reports),
	}
}

// ToJSON returns the multi-report as formatted JSON.
func (m *MultiReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// ToText returns the multi-report as human-readable text.
func (m *MultiReport) ToText() string {
	var sb strings.Builder

	for i, r := range m.Reports {
		sb.WriteString(r.ToText())
		if i < len(m.Reports)-1 {
			sb.WriteString("\n")
			sb.WriteString(strings.Repeat("-", 60))
			sb.WriteString("\n\n")
		}
	}

	// Overall summary
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")
	summaryColor := color.New(color.Bold)
	summaryColor.Fprintln(&sb, "OVERALL:")
	sb.WriteString(fmt.Sprintf("  %d/%d mapfiles OK\n", m.TotalValid, m.TotalFiles))

	return sb.String()
}

// AllValid returns true if all reports are valid.
func (m *MultiReport) AllValid() bool {
	return m.TotalValid == m.TotalFiles
}
