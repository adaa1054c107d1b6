// Package mapfile provides a public API for analyzing MapServer mapfiles:
// syntax and context checks, block balance, formatting, EXTENT
// synchronization and WFS capability.
package mapfile

import (
	"fmt"

	"github.com/Consortis-Geospatial/Mapfile-Preview/internal/checks"
	"github.com/Consortis-Geospatial/Mapfile-Preview/internal/config"
	"github.com/Consortis-Geospatial/Mapfile-Preview/internal/extent"
	"github.com/Consortis-Geospatial/Mapfile-Preview/internal/format"
	"github.com/Consortis-Geospatial/Mapfile-Preview/internal/parser"
	"github.com/Consortis-Geospatial/Mapfile-Preview/internal/result"
)

// Report is the syntax check result for a single mapfile.
type Report = result.Report

// Diagnostic is a single HARD or SOFT finding.
type Diagnostic = result.Diagnostic

// Stats is summary statistics for a checked mapfile.
type Stats = result.Stats

// BalanceResult lists unmatched ENDs and unterminated blocks.
type BalanceResult = checks.BalanceResult

// Verdict is the WFS capability of one LAYER.
type Verdict = checks.Verdict

// Extent is a bounding box tagged with its coordinate reference.
type Extent = extent.Extent

// SyncResult is the outcome of an EXTENT synchronization.
type SyncResult = extent.Result

// FormatResult is the re-indented text plus balance hints.
type FormatResult = format.Result

// Config holds the analysis settings, as read from .mapfile-lint.toml.
type Config = config.Config

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return config.Defaults()
}

// Linter runs every analysis with one configuration.
type Linter struct {
	syntaxChecker  *checks.SyntaxChecker
	balanceChecker *checks.BalanceChecker
	wfsClassifier  *checks.WFSClassifier
	config         Config
}

// New creates a Linter with the given configuration.
func New(cfg Config) *Linter {
	return &Linter{
		syntaxChecker:  checks.NewSyntaxCheckerWithConfig(cfg.SyntaxConfig()),
		balanceChecker: checks.NewBalanceCheckerWithConfig(cfg.BalanceConfig()),
		wfsClassifier:  checks.NewWFSClassifier(cfg.ExtraOpeners...),
		config:         cfg,
	}
}

// DefaultLinter creates a Linter with default settings.
func DefaultLinter() *Linter {
	return New(DefaultConfig())
}

// Check runs the syntax and context checks and returns the report.
func (l *Linter) Check(name, content string) *Report {
	r := result.NewReport(name)

	doc := parser.Parse(content, l.syntaxChecker.ScanOptions())
	l.syntaxChecker.Check(doc, r)

	if span, ok := parser.FindMapSpan(doc, l.config.Openers()); ok && span.Recovery != parser.RecoveryNone {
		r.AddNote(fmt.Sprintf("MAP block END not found by nesting; assumed at line %d (%s)", span.End+1, span.Recovery))
	}
	for _, m := range l.balanceChecker.Analyze(content).MissingEnds {
		if m.Heuristic {
			r.AddNote(fmt.Sprintf("line %d: %s treated as a block opener because it stands alone in capitals", m.Line, m.Kind))
		}
	}

	return r
}

// Balance reports unmatched ENDs and unterminated blocks.
func (l *Linter) Balance(content string) *BalanceResult {
	return l.balanceChecker.Analyze(content)
}

// Format re-indents content by nesting depth.
func (l *Linter) Format(content string) FormatResult {
	return format.FormatWith(content, l.config.FormatOptions())
}

// SyncExtent writes viewport into the MAP and LAYER EXTENTs of content. A
// viewport without a reference is taken to be in the configured one.
func (l *Linter) SyncExtent(content string, viewport Extent) SyncResult {
	if viewport.CRS == "" {
		viewport.CRS = l.config.Extent.CRS
	}
	return extent.Sync(content, viewport, l.config.ExtentOptions())
}

// ClassifyWFS judges every LAYER for WFS publication.
func (l *Linter) ClassifyWFS(content string) []Verdict {
	return l.wfsClassifier.Classify(content)
}

// CheckString checks a mapfile string with the default settings.
func CheckString(content string) *Report {
	return DefaultLinter().Check("input", content)
}

// Format re-indents a mapfile string with the default settings.
func Format(content string) string {
	return format.Format(content)
}
