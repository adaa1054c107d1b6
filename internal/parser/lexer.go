// Package parser provides the shared structural view of a mapfile: a
// line-oriented lexer, the standalone-opener classifier, the block stack and
// the span helpers used by every analysis in this module. It never rejects
// input; malformed text degrades to fewer tokens and open frames.
package parser

import "strings"

// TokenKind distinguishes word tokens from quoted strings.
type TokenKind int

const (
	TokenWord TokenKind = iota
	TokenString
)

func (k TokenKind) String() string {
	switch k {
	case TokenWord:
		return "WORD"
	case TokenString:
		return "STRING"
	default:
		return "UNKNOWN"
	}
}

// Token is a single lexical item on one physical line.
type Token struct {
	Kind   TokenKind
	Text   string // word text, or raw string content without the quotes
	Col    int    // 1-based column of the first character (the quote for strings)
	Quote  byte   // '"' or '\'' for strings, 0 for words
	Closed bool   // false for a string that ran off the end of the line
}

// End returns the 0-based byte offset just past the token in its line.
func (t Token) End() int {
	n := t.Col - 1 + len(t.Text)
	if t.Kind == TokenString {
		n++
		if t.Closed {
			n++
		}
	}
	return n
}

// State is the lexer state carried from one line to the next.
type State struct {
	InBlockComment bool
	InQuote        bool
	QuoteChar      byte
}

// ScanOptions tune the lexer.
type ScanOptions struct {
	// AllowMultilineQuotes lets an unterminated string continue on the
	// following lines instead of being reported and abandoned.
	AllowMultilineQuotes bool
}

// UnclosedQuote marks a string that was still open at end of line.
type UnclosedQuote struct {
	Col   int
	Quote byte
}

// LineScan is the lexer output for one line.
type LineScan struct {
	Tokens         []Token
	UnclosedQuotes []UnclosedQuote
}

// ScanLine tokenizes one line starting from state st and returns the tokens
// together with the state to hand to the next line.
func ScanLine(line string, st State, opts ScanOptions) (LineScan, State) {
	var out LineScan
	i := 0
	n := len(line)

	if st.InBlockComment {
		idx := indexFrom(line, "*/", 0)
		if idx < 0 {
			return out, st
		}
		i = idx + 2
		st.InBlockComment = false
	}

	if st.InQuote {
		end := closingQuote(line, 0, st.QuoteChar)
		if end < 0 {
			return out, st
		}
		i = end + 1
		st.InQuote = false
		st.QuoteChar = 0
	}

	for i < n {
		c := line[i]
		switch {
		case c == '#':
			return out, st
		case c == '/' && i+1 < n && line[i+1] == '/':
			return out, st
		case c == '/' && i+1 < n && line[i+1] == '*':
			idx := indexFrom(line, "*/", i+2)
			if idx < 0 {
				st.InBlockComment = true
				return out, st
			}
			i = idx + 2
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == '"' || c == '\'':
			end := closingQuote(line, i+1, c)
			if end < 0 {
				out.Tokens = append(out.Tokens, Token{
					Kind:  TokenString,
					Text:  line[i+1:],
					Col:   i + 1,
					Quote: c,
				})
				out.UnclosedQuotes = append(out.UnclosedQuotes, UnclosedQuote{Col: i + 1, Quote: c})
				if opts.AllowMultilineQuotes {
					st.InQuote = true
					st.QuoteChar = c
				}
				return out, st
			}
			out.Tokens = append(out.Tokens, Token{
				Kind:   TokenString,
				Text:   line[i+1 : end],
				Col:    i + 1,
				Quote:  c,
				Closed: true,
			})
			i = end + 1
		case isWordStart(c):
			j := i + 1
			for j < n && isWordChar(line[j]) {
				j++
			}
			out.Tokens = append(out.Tokens, Token{Kind: TokenWord, Text: line[i:j], Col: i + 1})
			i = j
		case c >= '0' && c <= '9':
			// 1e-5, 10px: swallow the whole literal so no word is split off it
			j := i + 1
			for j < n && (isWordChar(line[j]) || line[j] == '.') {
				j++
			}
			i = j
		default:
			// numbers, signs and punctuation carry no structure
			i++
		}
	}

	return out, st
}

// closingQuote returns the index of the first unescaped q at or after from,
// or -1 when the line ends first.
func closingQuote(line string, from int, q byte) int {
	for j := from; j < len(line); j++ {
		switch line[j] {
		case '\\':
			j++
		case q:
			return j
		}
	}
	return -1
}

func indexFrom(s, sub string, from int) int {
	if from > len(s) {
		return -1
	}
	idx := strings.Index(s[from:], sub)
	if idx < 0 {
		return -1
	}
	return from + idx
}

func isWordStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isWordChar(c byte) bool {
	return isWordStart(c) || (c >= '0' && c <= '9')
}
