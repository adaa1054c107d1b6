// Package format re-indents mapfiles by block nesting depth.
package format

import (
	"strings"

	"github.com/Consortis-Geospatial/Mapfile-Preview/internal/parser"
)

// DefaultIndentWidth is the number of spaces per nesting level.
const DefaultIndentWidth = 2

// Options configure the formatter.
type Options struct {
	IndentWidth int
	// Openers overrides the block keywords; nil means parser.DefaultOpeners.
	Openers parser.OpenerSet
	// UseHints realigns the stack on END lines that name their block.
	UseHints bool
}

// DefaultOptions returns the options used by Format.
func DefaultOptions() Options {
	return Options{IndentWidth: DefaultIndentWidth, UseHints: true}
}

// Result is the formatter output.
type Result struct {
	Text    string `json:"text"`
	Changed bool   `json:"changed"`
	// FinalDepth is the number of blocks still open at the end of the
	// document; non-zero means the input is unbalanced.
	FinalDepth int `json:"finalDepth"`
	// ExtraEnds counts END lines met with no open block.
	ExtraEnds int `json:"extraEnds"`
}

// Format re-indents text with the default options.
func Format(text string) string {
	return FormatWith(text, DefaultOptions()).Text
}

// FormatWith re-indents every line of text to IndentWidth spaces per open
// block. Only leading whitespace changes; blank lines and lines that start
// inside a multi-line comment or string are kept verbatim.
func FormatWith(text string, opts Options) Result {
	if opts.IndentWidth <= 0 {
		opts.IndentWidth = DefaultIndentWidth
	}
	openers := opts.Openers
	if openers == nil {
		openers = parser.DefaultOpeners()
	}

	doc := parser.Parse(text, parser.ScanOptions{})
	stack := parser.NewStack()
	out := make([]string, len(doc.Lines))
	res := Result{}

	for i, l := range doc.Lines {
		verbatim := l.IsBlank() || l.Entry.InBlockComment || l.Entry.InQuote

		if l.IsEnd() {
			if opts.UseHints {
				stack.Realign(l.Hint(openers))
			}
			if _, ok := stack.Pop(); !ok {
				res.ExtraEnds++
			}
		}

		if verbatim {
			out[i] = l.Text
		} else {
			out[i] = indent(l.Text, stack.Depth(), opts.IndentWidth)
		}

		if kind, ok := l.Opener(openers); ok {
			tok, _ := l.First()
			stack.Push(parser.Frame{Kind: kind, Line: l.No, Col: tok.Col})
		}
	}

	res.Text = doc.Join(out)
	res.Changed = res.Text != text
	res.FinalDepth = stack.Depth()
	return res
}

func indent(line string, depth, width int) string {
	// tabs in the old indentation are dropped together with it
	body := strings.TrimLeft(line, " \t")
	return strings.Repeat(" ", depth*width) + body
}
