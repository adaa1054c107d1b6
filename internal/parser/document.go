package parser

import (
	"strings"
)

// Line is one physical line of a mapfile together with its tokens.
type Line struct {
	No   int    // 1-based line number
	Text string // line text without the trailing newline or carriage return

	Tokens         []Token
	UnclosedQuotes []UnclosedQuote

	// Entry is the lexer state the line was scanned from. A line that starts
	// inside a block comment or a multi-line string has a non-zero Entry.
	Entry State
}

// Document is a mapfile split into scanned lines.
type Document struct {
	Lines   []Line
	Newline string // "\n" or "\r\n", whichever the input used
}

// Parse splits text into lines and scans each of them, threading the lexer
// state from one line to the next.
func Parse(text string, opts ScanOptions) *Document {
	doc := &Document{Newline: "\n"}
	if strings.Contains(text, "\r\n") {
		doc.Newline = "\r\n"
	}

	raw := strings.Split(text, "\n")
	doc.Lines = make([]Line, len(raw))

	var st State
	for i, s := range raw {
		s = strings.TrimSuffix(s, "\r")
		entry := st
		scan, next := ScanLine(s, st, opts)
		doc.Lines[i] = Line{
			No:             i + 1,
			Text:           s,
			Tokens:         scan.Tokens,
			UnclosedQuotes: scan.UnclosedQuotes,
			Entry:          entry,
		}
		st = next
	}

	return doc
}

// Join reassembles lines using the document's newline style.
func (d *Document) Join(lines []string) string {
	return strings.Join(lines, d.Newline)
}

// First returns the first token of the line.
func (l Line) First() (Token, bool) {
	if len(l.Tokens) == 0 {
		return Token{}, false
	}
	return l.Tokens[0], true
}

// Keyword returns the upper-cased first token when it is a word, or "".
func (l Line) Keyword() string {
	tok, ok := l.First()
	if !ok || tok.Kind != TokenWord {
		return ""
	}
	return strings.ToUpper(tok.Text)
}

// IsEnd reports whether the line's first token is END.
func (l Line) IsEnd() bool {
	return l.Keyword() == KeywordEND
}

// IsBlank reports whether the line holds only whitespace.
func (l Line) IsBlank() bool {
	return strings.TrimSpace(l.Text) == ""
}

// Indent returns the leading whitespace of the line.
func (l Line) Indent() string {
	return l.Text[:len(l.Text)-len(strings.TrimLeft(l.Text, " \t"))]
}

// Excerpt returns the trimmed line text, shortened for display.
func (l Line) Excerpt() string {
	s := strings.TrimSpace(l.Text)
	if r := []rune(s); len(r) > 80 {
		s = string(r[:77]) + "..."
	}
	return s
}

// Opener returns the block kind the line opens when it is a standalone
// opener for the given set.
func (l Line) Opener(openers OpenerSet) (string, bool) {
	tok, ok := l.First()
	if !ok || tok.Kind != TokenWord {
		return "", false
	}
	if !IsStandaloneOpener(l.Text[tok.Col-1:], openers) {
		return "", false
	}
	return strings.ToUpper(tok.Text), true
}

// Hint returns the block-name hint carried by an END line, or "".
func (l Line) Hint(openers OpenerSet) string {
	tok, ok := l.First()
	if !ok || !l.IsEnd() {
		return ""
	}
	return EndHint(l.Text[tok.End():], openers)
}

// Value returns the first argument of a directive line: the token after the
// keyword, unquoted.
func (l Line) Value() string {
	if len(l.Tokens) < 2 {
		return ""
	}
	return l.Tokens[1].Text
}
