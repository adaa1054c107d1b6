// Package checks provides the analyses that characterize mapfile structure:
// block balance, syntax and context, and WFS capability.
package checks

import (
	"fmt"
	"strings"

	"github.com/Consortis-Geospatial/Mapfile-Preview/internal/parser"
	"github.com/Consortis-Geospatial/Mapfile-Preview/internal/result"
)

// BalanceConfig holds the opener policy for the balance check.
type BalanceConfig struct {
	ExtraOpeners []string // added to the known block keywords
	// HeuristicOpeners treats any lone ALLCAPS word of three or more
	// characters as an opener, to catch blocks missing from the known set.
	HeuristicOpeners bool
	// AllowInlineEndWithoutOpener honors an END that is not the first token
	// even when its line did not open a block.
	AllowInlineEndWithoutOpener bool
	AllowMultilineQuotes        bool
}

// DefaultBalanceConfig returns the default balance policy.
func DefaultBalanceConfig() BalanceConfig {
	return BalanceConfig{HeuristicOpeners: true}
}

// ExtraEnd is an END that had no block to close.
type ExtraEnd struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Excerpt string `json:"excerpt"`
}

// MissingEnd is a block that was never closed.
type MissingEnd struct {
	Kind      string `json:"kind"`
	Line      int    `json:"line"`
	Col       int    `json:"col"`
	Heuristic bool   `json:"heuristic,omitempty"`
}

// BalanceResult is the outcome of a balance check.
type BalanceResult struct {
	OK          bool         `json:"ok"`
	ExtraEnds   []ExtraEnd   `json:"extraEnds"`
	MissingEnds []MissingEnd `json:"missingEnds"`
	Message     string       `json:"message"`
}

// BalanceChecker finds unmatched ENDs and unterminated blocks.
type BalanceChecker struct {
	config  BalanceConfig
	openers parser.OpenerSet
}

// NewBalanceChecker creates a BalanceChecker with the default config.
func NewBalanceChecker() *BalanceChecker {
	return NewBalanceCheckerWithConfig(DefaultBalanceConfig())
}

// NewBalanceCheckerWithConfig creates a BalanceChecker with custom config.
func NewBalanceCheckerWithConfig(config BalanceConfig) *BalanceChecker {
	return &BalanceChecker{
		config:  config,
		openers: parser.NewOpenerSet(config.ExtraOpeners...),
	}
}

// Analyze scans text and reports every END with nothing to close and every
// block left open. It never fails.
func (c *BalanceChecker) Analyze(text string) *BalanceResult {
	doc := parser.Parse(text, parser.ScanOptions{AllowMultilineQuotes: c.config.AllowMultilineQuotes})
	return c.analyzeDocument(doc)
}

func (c *BalanceChecker) analyzeDocument(doc *parser.Document) *BalanceResult {
	res := &BalanceResult{
		ExtraEnds:   []ExtraEnd{},
		MissingEnds: []MissingEnd{},
	}
	stack := parser.NewStack()

	for _, l := range doc.Lines {
		first, ok := l.First()
		if !ok {
			continue
		}

		opened := first.Kind == parser.TokenWord && c.openBlock(l, stack)

		for i, tok := range l.Tokens {
			if tok.Kind != parser.TokenWord || !isEnd(tok.Text) {
				continue
			}
			if i > 0 && !opened && !c.config.AllowInlineEndWithoutOpener {
				continue
			}
			if i == 0 {
				for _, f := range stack.Realign(l.Hint(c.openers)) {
					res.MissingEnds = append(res.MissingEnds, missing(f))
				}
			}
			if _, popped := stack.Pop(); !popped {
				res.ExtraEnds = append(res.ExtraEnds, ExtraEnd{
					Line:    l.No,
					Col:     tok.Col,
					Excerpt: l.Excerpt(),
				})
			}
		}
	}

	// innermost first
	open := stack.Open()
	for i := len(open) - 1; i >= 0; i-- {
		res.MissingEnds = append(res.MissingEnds, missing(open[i]))
	}

	res.OK = len(res.ExtraEnds) == 0 && len(res.MissingEnds) == 0
	res.Message = balanceMessage(res)
	return res
}

// openBlock pushes a frame when the line opens a block and reports whether
// it did. A line opens a block when it is a standalone opener, a heuristic
// ALLCAPS opener, or a known opener followed by arguments and an inline END
// (`PATTERN 10 10 END`).
func (c *BalanceChecker) openBlock(l parser.Line, stack *parser.Stack) bool {
	first, _ := l.First()
	rest := l.Text[first.Col-1:]

	frame := parser.Frame{Kind: l.Keyword(), Line: l.No, Col: first.Col}
	switch {
	case parser.IsStandaloneOpener(rest, c.openers):
	case c.openers.Has(first.Text) && hasInlineEnd(l):
	case c.config.HeuristicOpeners && c.heuristicAllowed(l, stack) && parser.IsHeuristicOpener(rest):
		frame.Heuristic = true
	default:
		return false
	}
	stack.Push(frame)
	return true
}

// heuristicAllowed keeps the ALLCAPS fallback away from known directives
// (`TRANSPARENT`) and from free-form content such as `AUTO` in PROJECTION.
func (c *BalanceChecker) heuristicAllowed(l parser.Line, stack *parser.Stack) bool {
	return !parser.KnownKeywords[l.Keyword()] && !parser.FreeFormContexts[stack.Parent()]
}

// AddTo records the balance findings on a report as HARD diagnostics.
func (r *BalanceResult) AddTo(rep *result.Report) {
	for _, e := range r.ExtraEnds {
		rep.AddHard(result.Diagnostic{
			Line:    e.Line,
			Col:     e.Col,
			Kind:    result.KindEndMismatch,
			Message: "END without an open block",
			Excerpt: e.Excerpt,
		})
	}
	for _, m := range r.MissingEnds {
		msg := fmt.Sprintf("%s block opened here is never closed", m.Kind)
		if m.Heuristic {
			msg += " (treated as a block because it stands alone in capitals)"
		}
		rep.AddHard(result.Diagnostic{
			Line:    m.Line,
			Col:     m.Col,
			Kind:    result.KindMissingEnd,
			Message: msg,
			Excerpt: m.Kind,
		})
	}
}

func missing(f parser.Frame) MissingEnd {
	return MissingEnd{Kind: f.Kind, Line: f.Line, Col: f.Col, Heuristic: f.Heuristic}
}

func hasInlineEnd(l parser.Line) bool {
	for _, tok := range l.Tokens[1:] {
		if tok.Kind == parser.TokenWord && isEnd(tok.Text) {
			return true
		}
	}
	return false
}

func isEnd(word string) bool {
	return strings.EqualFold(word, parser.KeywordEND)
}

func balanceMessage(r *BalanceResult) string {
	if r.OK {
		return "all blocks are balanced"
	}
	return fmt.Sprintf("%d extra END(s), %d missing END(s)", len(r.ExtraEnds), len(r.MissingEnds))
}
