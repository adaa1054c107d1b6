package checks

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/Consortis-Geospatial/Mapfile-Preview/internal/parser"
	"github.com/Consortis-Geospatial/Mapfile-Preview/internal/result"
)

// SyntaxConfig holds thresholds for the syntax and context check.
type SyntaxConfig struct {
	// SoftSuppressionLines is the window after a HARD issue in which SOFT
	// issues are counted but not listed (default: 25, negative disables).
	SoftSuppressionLines int
	MaxSuggestions       int // typo suggestions per unknown keyword (default: 3)
	ExtraOpeners         []string
	AllowMultilineQuotes bool
}

// DefaultSyntaxConfig returns the default syntax check thresholds.
func DefaultSyntaxConfig() SyntaxConfig {
	return SyntaxConfig{
		SoftSuppressionLines: 25,
		MaxSuggestions:       3,
	}
}

// SyntaxChecker validates block nesting, keyword context and quoting.
type SyntaxChecker struct {
	config  SyntaxConfig
	openers parser.OpenerSet
}

// NewSyntaxChecker creates a SyntaxChecker with default config.
func NewSyntaxChecker() *SyntaxChecker {
	return NewSyntaxCheckerWithConfig(DefaultSyntaxConfig())
}

// NewSyntaxCheckerWithConfig creates a SyntaxChecker with custom config.
func NewSyntaxCheckerWithConfig(config SyntaxConfig) *SyntaxChecker {
	return &SyntaxChecker{
		config:  config,
		openers: parser.NewOpenerSet(config.ExtraOpeners...),
	}
}

// ScanOptions returns the lexer options the checker expects its document to
// be parsed with.
func (c *SyntaxChecker) ScanOptions() parser.ScanOptions {
	return parser.ScanOptions{AllowMultilineQuotes: c.config.AllowMultilineQuotes}
}

// Detect parses text and returns a full report for it.
func (c *SyntaxChecker) Detect(name, text string) *result.Report {
	r := result.NewReport(name)
	c.Check(parser.Parse(text, c.ScanOptions()), r)
	return r
}

// Check runs the syntax and context checks over doc and records the
// findings on r.
func (c *SyntaxChecker) Check(doc *parser.Document, r *result.Report) {
	s := &syntaxScan{c: c, r: r, stack: parser.NewStack()}

	for _, l := range doc.Lines {
		s.line(l)
	}

	// Error MISSING_END: blocks still open at end of file
	if s.stack.Depth() > 0 {
		top := s.stack.Top()
		s.hard(result.Diagnostic{
			Line:    top.Line,
			Col:     top.Col,
			Kind:    result.KindMissingEnd,
			Message: fmt.Sprintf("unterminated block(s) at end of file: %s", s.stack.Chain()),
			Excerpt: doc.Lines[top.Line-1].Excerpt(),
		})
	}

	r.Stats = result.Stats{
		Lines:    countLines(doc),
		Blocks:   s.blocks,
		Layers:   s.layers,
		MaxDepth: s.maxDepth,
	}
	r.Summarize()
}

type syntaxScan struct {
	c     *SyntaxChecker
	r     *result.Report
	stack *parser.Stack

	cur           int // line being checked
	suppressing   bool
	suppressUntil int

	blocks, layers, maxDepth int
}

func (s *syntaxScan) line(l parser.Line) {
	s.cur = l.No

	// Error MISSING_QUOTE: string still open at end of line
	for _, q := range l.UnclosedQuotes {
		s.hard(result.Diagnostic{
			Line:    l.No,
			Col:     q.Col,
			Kind:    result.KindMissingQuote,
			Message: fmt.Sprintf("unterminated %c-quoted string", q.Quote),
			Excerpt: l.Excerpt(),
		})
	}

	first, ok := l.First()
	if !ok {
		return
	}
	parent := s.stack.Parent()

	if first.Kind != parser.TokenWord {
		s.checkKeyValue(l, parent)
		return
	}

	kw := l.Keyword()
	if kw == parser.KeywordEND {
		s.closeBlock(l, first)
		return
	}

	if kind, ok := l.Opener(s.c.openers); ok {
		s.checkOpener(l, kind, first, parent)
		s.stack.Push(parser.Frame{Kind: kind, Line: l.No, Col: first.Col})
		s.blocks++
		if kind == parser.KindLAYER {
			s.layers++
		}
		if d := s.stack.Depth(); d > s.maxDepth {
			s.maxDepth = d
		}
		return
	}

	s.checkKeyword(l, kw, first, parent)
}

// closeBlock handles an END line.
// Error END_MISMATCH: END with no open block
// Error MISSING_END: blocks skipped over by an END that names an outer block
func (s *syntaxScan) closeBlock(l parser.Line, end parser.Token) {
	if s.stack.Depth() == 0 {
		s.hard(result.Diagnostic{
			Line:    l.No,
			Col:     end.Col,
			Kind:    result.KindEndMismatch,
			Message: "END without an open block",
			Excerpt: l.Excerpt(),
		})
		return
	}

	hint := l.Hint(s.c.openers)
	for _, f := range s.stack.Realign(hint) {
		s.hard(result.Diagnostic{
			Line:    f.Line,
			Col:     f.Col,
			Kind:    result.KindMissingEnd,
			Message: fmt.Sprintf("%s block is not closed before END %s on line %d", f.Kind, hint, l.No),
			Excerpt: f.Kind,
		})
	}
	s.stack.Pop()
}

// checkOpener validates where a block is opened.
// Error NESTING: block kind not allowed under its parent
// Warning CONTEXT: parent context does not list the block
func (s *syntaxScan) checkOpener(l parser.Line, kind string, tok parser.Token, parent string) {
	if allowed, ok := parser.AllowedParents[kind]; ok && !slices.Contains(allowed, parent) {
		s.hard(result.Diagnostic{
			Line:    l.No,
			Col:     tok.Col,
			Kind:    result.KindNesting,
			Message: fmt.Sprintf("%s block cannot appear %s (allowed in: %s)", kind, where(parent), strings.Join(allowed, ", ")),
			Excerpt: l.Excerpt(),
		})
	}

	if set, ok := parser.AllowedFirstTokens[parent]; ok && !set[kind] {
		s.soft(result.Diagnostic{
			Line:    l.No,
			Col:     tok.Col,
			Kind:    result.KindContext,
			Message: fmt.Sprintf("%s is not expected %s", kind, where(parent)),
			Excerpt: l.Excerpt(),
		})
	}
}

// checkKeyword validates a directive line.
// Warning UNKNOWN_KEYWORD: ALLCAPS word the grammar does not know
// Warning CONTEXT: known keyword outside the contexts that accept it
func (s *syntaxScan) checkKeyword(l parser.Line, kw string, tok parser.Token, parent string) {
	if parser.FreeFormContexts[parent] {
		s.checkKeyValue(l, parent)
		return
	}
	if !isAllCaps(tok.Text) {
		return
	}

	if !parser.KnownKeywords[kw] && !s.c.openers[kw] {
		s.soft(result.Diagnostic{
			Line:        l.No,
			Col:         tok.Col,
			Kind:        result.KindUnknownKeyword,
			Message:     fmt.Sprintf("unknown keyword %s", kw),
			Excerpt:     l.Excerpt(),
			Suggestions: s.c.suggest(kw),
		})
		return
	}

	set, ok := parser.AllowedFirstTokens[parent]
	if !ok || set[kw] {
		return
	}
	msg := fmt.Sprintf("%s is not expected %s", kw, where(parent))
	if ctxs := parser.ContextsAccepting(kw); len(ctxs) > 0 {
		msg += fmt.Sprintf(" (valid in: %s)", strings.Join(ctxs, ", "))
	}
	s.soft(result.Diagnostic{
		Line:    l.No,
		Col:     tok.Col,
		Kind:    result.KindContext,
		Message: msg,
		Excerpt: l.Excerpt(),
	})
}

// checkKeyValue validates a line inside METADATA or VALIDATION.
// Warning METADATA_FORMAT: line is not a "key" "value" pair
func (s *syntaxScan) checkKeyValue(l parser.Line, parent string) {
	if !parser.KeyValueContexts[parent] || len(l.UnclosedQuotes) > 0 {
		return
	}
	if len(l.Tokens) == 2 && l.Tokens[0].Kind == parser.TokenString && l.Tokens[1].Kind == parser.TokenString {
		return
	}
	first, _ := l.First()
	s.soft(result.Diagnostic{
		Line:    l.No,
		Col:     first.Col,
		Kind:    result.KindMetadataFormat,
		Message: fmt.Sprintf(`expected a "key" "value" pair in %s`, parent),
		Excerpt: l.Excerpt(),
	})
}

func (s *syntaxScan) hard(d result.Diagnostic) {
	s.r.AddHard(d)
	if s.c.config.SoftSuppressionLines < 0 {
		return
	}
	until := max(d.Line, s.cur) + s.c.config.SoftSuppressionLines
	if !s.suppressing || until > s.suppressUntil {
		s.suppressUntil = until
	}
	s.suppressing = true
}

func (s *syntaxScan) soft(d result.Diagnostic) {
	if s.suppressing && d.Line <= s.suppressUntil {
		s.r.Suppressed++
		return
	}
	s.r.AddSoft(d)
}

type suggestion struct {
	word string
	dist int
}

// suggest returns the known keywords closest to kw by edit distance.
func (c *SyntaxChecker) suggest(kw string) []string {
	limit := 2
	if len(kw) > 5 {
		limit = 3
	}

	var found []suggestion
	seen := make(map[string]bool)
	consider := func(cand string) {
		if seen[cand] || cand == parser.KeywordEND {
			return
		}
		seen[cand] = true
		if d := levenshtein.ComputeDistance(kw, cand); d <= limit {
			found = append(found, suggestion{word: cand, dist: d})
		}
	}
	for cand := range parser.KnownKeywords {
		consider(cand)
	}
	for cand := range c.openers {
		consider(cand)
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].dist != found[j].dist {
			return found[i].dist < found[j].dist
		}
		return found[i].word < found[j].word
	})

	n := c.config.MaxSuggestions
	if n <= 0 || n > len(found) {
		n = len(found)
	}
	out := make([]string, 0, n)
	for _, f := range found[:n] {
		out = append(out, f.word)
	}
	return out
}

func where(parent string) string {
	if parent == parser.KindROOT {
		return "at top level"
	}
	return "inside " + parent
}

func isAllCaps(word string) bool {
	hasLetter := false
	for i := 0; i < len(word); i++ {
		ch := word[i]
		if ch >= 'a' && ch <= 'z' {
			return false
		}
		if ch >= 'A' && ch <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}

func countLines(doc *parser.Document) int {
	n := len(doc.Lines)
	if n > 0 && doc.Lines[n-1].Text == "" {
		n--
	}
	return n
}
