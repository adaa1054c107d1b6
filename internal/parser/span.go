package parser

import (
	"fmt"
	"slices"
	"strings"
)

// Recovery tags a result that relied on a heuristic rather than on plain
// depth tracking.
type Recovery int

const (
	RecoveryNone Recovery = iota
	// RecoveryLastEnd: the MAP block's END was taken to be the last
	// standalone END in the file because depth tracking never returned to 0.
	RecoveryLastEnd
)

func (r Recovery) String() string {
	switch r {
	case RecoveryNone:
		return "none"
	case RecoveryLastEnd:
		return "last-end"
	default:
		return "unknown"
	}
}

// MarshalText renders the tag by name in JSON output.
func (r Recovery) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText parses a tag written by MarshalText.
func (r *Recovery) UnmarshalText(text []byte) error {
	switch string(text) {
	case "none", "":
		*r = RecoveryNone
	case "last-end":
		*r = RecoveryLastEnd
	default:
		return fmt.Errorf("unknown recovery %q", text)
	}
	return nil
}

// Span is a block from its opener line to its END line (0-based indices).
type Span struct {
	Kind     string
	Start    int
	End      int
	Recovery Recovery
}

// Child is a line directly inside a span: either a nested block or a
// directive.
type Child struct {
	Kind  string // upper-case keyword, "" when the line starts with a string
	Start int
	End   int // closing END for blocks, Start for directives
	Block bool
}

// Span returns the child as a span.
func (c Child) Span() Span {
	return Span{Kind: c.Kind, Start: c.Start, End: c.End}
}

// FindBlockStart returns the index of the first line whose leading word is
// keyword, or -1.
func FindBlockStart(doc *Document, keyword string) int {
	keyword = strings.ToUpper(keyword)
	for i, l := range doc.Lines {
		if l.Keyword() == keyword {
			return i
		}
	}
	return -1
}

// FindBlockEnd walks forward from the opener at start and returns the index
// of the END that brings depth back to zero. It returns start when the file
// ends first.
func FindBlockEnd(doc *Document, start int, openers OpenerSet) int {
	depth := 1
	for i := start + 1; i < len(doc.Lines); i++ {
		l := doc.Lines[i]
		if l.IsEnd() {
			depth--
			if depth == 0 {
				return i
			}
			continue
		}
		if _, ok := l.Opener(openers); ok {
			depth++
		}
	}
	return start
}

// FindMapSpan locates the MAP block. When depth tracking cannot find its END
// the last standalone END in the file is used and the span is tagged
// RecoveryLastEnd. It reports false when no usable span exists.
func FindMapSpan(doc *Document, openers OpenerSet) (Span, bool) {
	start := FindBlockStart(doc, KindMAP)
	if start < 0 {
		return Span{}, false
	}
	span := Span{Kind: KindMAP, Start: start}

	if end := FindBlockEnd(doc, start, openers); end != start {
		span.End = end
		return span, true
	}

	last := lastStandaloneEnd(doc, openers)
	if last <= start {
		return Span{}, false
	}
	span.End = last
	span.Recovery = RecoveryLastEnd
	return span, true
}

// lastStandaloneEnd returns the index of the last line holding only END,
// optionally with a block-name hint or a comment.
func lastStandaloneEnd(doc *Document, openers OpenerSet) int {
	for i := len(doc.Lines) - 1; i >= 0; i-- {
		l := doc.Lines[i]
		if !l.IsEnd() {
			continue
		}
		if len(l.Tokens) == 1 || (len(l.Tokens) == 2 && openers.Has(l.Tokens[1].Text)) {
			return i
		}
	}
	return -1
}

// DirectChildren lists the blocks and directive lines directly inside span.
// Inline single-line blocks such as `PROJECTION "init=epsg:4326" END` are
// directives. A nested block whose END is missing is dropped.
func DirectChildren(doc *Document, span Span, openers OpenerSet) []Child {
	var out []Child
	depth := 0
	cur := -1

	for i := span.Start + 1; i < span.End && i < len(doc.Lines); i++ {
		l := doc.Lines[i]
		if len(l.Tokens) == 0 {
			continue
		}

		if l.IsEnd() {
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && cur >= 0 {
				out[cur].End = i
				cur = -1
			}
			continue
		}

		if kind, ok := l.Opener(openers); ok {
			if depth == 0 {
				out = append(out, Child{Kind: kind, Start: i, End: -1, Block: true})
				cur = len(out) - 1
			}
			depth++
			continue
		}

		if depth == 0 {
			out = append(out, Child{Kind: l.Keyword(), Start: i, End: i})
		}
	}

	if cur >= 0 {
		out = out[:cur]
	}
	return out
}

// FindBlocks returns every block of the given kind nested anywhere inside
// span, without descending into blocks whose kind is in skip.
func FindBlocks(doc *Document, span Span, kind string, openers OpenerSet, skip ...string) []Span {
	var out []Span
	for _, c := range DirectChildren(doc, span, openers) {
		if !c.Block {
			continue
		}
		if c.Kind == kind {
			out = append(out, c.Span())
			continue
		}
		if slices.Contains(skip, c.Kind) {
			continue
		}
		out = append(out, FindBlocks(doc, c.Span(), kind, openers, skip...)...)
	}
	return out
}
