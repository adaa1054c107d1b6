package extent

import (
	"fmt"
	"strings"

	"github.com/Consortis-Geospatial/Mapfile-Preview/internal/parser"
)

// Options configure Sync.
type Options struct {
	AddMissing   bool // insert EXTENT where a block has none
	UpdateMap    bool
	UpdateLayers bool

	// Projector reprojects the viewport per block. Nil leaves the viewport
	// untouched.
	Projector Projector
	// Openers overrides the block keywords; nil means parser.DefaultOpeners.
	Openers parser.OpenerSet
	// IndentWidth is used for an inserted line in a block with no children.
	IndentWidth int
}

// DefaultOptions updates MAP and every LAYER and inserts missing EXTENTs.
func DefaultOptions() Options {
	return Options{
		AddMissing:   true,
		UpdateMap:    true,
		UpdateLayers: true,
		Projector:    DefaultProjector{},
		IndentWidth:  2,
	}
}

// Change actions
const (
	ActionReplace  = "replace"
	ActionInsert   = "insert"
	ActionMetadata = "metadata"
)

// Change is one line written by Sync.
type Change struct {
	Block  string `json:"block"` // "MAP" or "LAYER <name>"
	Line   int    `json:"line"`  // 1-based, in the input text
	Action string `json:"action"`
	Extent Extent `json:"extent"`
}

// Result is the outcome of Sync.
type Result struct {
	Text     string          `json:"text"`
	Updated  bool            `json:"updated"`
	Recovery parser.Recovery `json:"recovery"`
	Changes  []Change        `json:"changes"`
	Warnings []string        `json:"warnings,omitempty"`
}

// metadata keys mirroring the EXTENT directive
var extentKeys = map[string]bool{
	"wms_extent": true,
	"wfs_extent": true,
	"ows_extent": true,
}

// Sync writes viewport into the EXTENT of the MAP block and of its LAYER
// blocks, each reprojected to the block's own coordinate reference. When no
// MAP block can be located the text is returned unchanged and Updated is
// false.
func Sync(text string, viewport Extent, opts Options) Result {
	if opts.IndentWidth <= 0 {
		opts.IndentWidth = 2
	}
	if opts.Openers == nil {
		opts.Openers = parser.DefaultOpeners()
	}
	viewport = viewport.Normalize()
	viewport.CRS = NormalizeCRS(viewport.CRS)

	doc := parser.Parse(text, parser.ScanOptions{})
	s := &syncer{
		doc:      doc,
		opts:     opts,
		viewport: viewport,
		replaced: make(map[int]string),
		inserted: make(map[int][]string),
	}

	span, ok := parser.FindMapSpan(doc, opts.Openers)
	if !ok {
		return Result{
			Text:     text,
			Changes:  []Change{},
			Warnings: []string{"MAP block not found; nothing updated"},
		}
	}
	s.res.Recovery = span.Recovery
	if span.Recovery != parser.RecoveryNone {
		s.warn("MAP END not found by depth; using the last END on line %d", span.End+1)
	}

	children := parser.DirectChildren(doc, span, opts.Openers)
	var layers []parser.Child
	for _, c := range children {
		if c.Block && c.Kind == parser.KindLAYER {
			layers = append(layers, c)
		}
	}

	mapCRS := resolveCRS(doc, children, opts.Openers)
	if mapCRS == "" && len(layers) > 0 {
		mapCRS = resolveCRS(doc, parser.DirectChildren(doc, layers[0].Span(), opts.Openers), opts.Openers)
	}
	if mapCRS == "" {
		mapCRS = DefaultCRS
	}

	if opts.UpdateMap {
		ext := s.project(parser.KindMAP, mapCRS)
		s.setExtent(parser.KindMAP, span, children, ext)
		for _, m := range parser.FindBlocks(doc, span, parser.KindMETADATA, opts.Openers, parser.KindLAYER) {
			s.rewriteMetadata(parser.KindMAP, m, ext)
		}
	}

	if opts.UpdateLayers {
		for _, l := range layers {
			lchildren := parser.DirectChildren(doc, l.Span(), opts.Openers)
			label := layerLabel(doc, l, lchildren)

			crs := resolveCRS(doc, lchildren, opts.Openers)
			if crs == "" {
				crs = mapCRS
			}
			ext := s.project(label, crs)
			s.setExtent(label, l.Span(), lchildren, ext)
			for _, m := range parser.FindBlocks(doc, l.Span(), parser.KindMETADATA, opts.Openers) {
				s.rewriteMetadata(label, m, ext)
			}
		}
	}

	s.res.Text = s.render()
	s.res.Updated = s.res.Text != text
	if s.res.Changes == nil {
		s.res.Changes = []Change{}
	}
	return s.res
}

type syncer struct {
	doc      *parser.Document
	opts     Options
	viewport Extent

	replaced map[int]string   // line index -> new text
	inserted map[int][]string // line index -> lines added after it

	res Result
}

func (s *syncer) warn(format string, args ...interface{}) {
	s.res.Warnings = append(s.res.Warnings, fmt.Sprintf(format, args...))
}

// project converts the viewport into crs. A failed or unavailable
// reprojection keeps the viewport coordinates.
func (s *syncer) project(block, crs string) Extent {
	if s.viewport.CRS == "" || s.viewport.CRS == crs {
		e := s.viewport
		e.CRS = crs
		return e
	}
	if s.opts.Projector == nil {
		s.warn("%s: no projector, writing %s coordinates unchanged", block, s.viewport.CRS)
		e := s.viewport
		e.CRS = crs
		return e
	}

	e, err := s.opts.Projector.Project(s.viewport, crs)
	if err != nil {
		s.warn("%s: %v; writing %s coordinates unchanged", block, err, s.viewport.CRS)
		e = s.viewport
	}
	e = e.Normalize()
	e.CRS = crs
	return e
}

// setExtent replaces the block's own EXTENT line or inserts one.
func (s *syncer) setExtent(block string, span parser.Span, children []parser.Child, ext Extent) {
	args := ext.Format(Decimals(ext.CRS))

	for _, c := range children {
		if c.Block || c.Kind != "EXTENT" {
			continue
		}
		l := s.doc.Lines[c.Start]
		tok, _ := l.First()
		line := l.Indent() + tok.Text + " " + args
		if comment := trailingComment(l.Text[tok.End():]); comment != "" {
			line += " " + comment
		}
		s.replaced[c.Start] = line
		s.change(block, c.Start, ActionReplace, ext)
		return
	}

	if !s.opts.AddMissing {
		return
	}

	at := insertionPoint(span, children)
	s.inserted[at] = append(s.inserted[at], innerIndent(s.doc, span, children, s.opts.IndentWidth)+"EXTENT "+args)
	s.change(block, at, ActionInsert, ext)
}

// insertionPoint returns the line after which a new EXTENT goes: after the
// PROJECTION block, else after SIZE (MAP) or NAME (LAYER), else after the
// opener.
func insertionPoint(span parser.Span, children []parser.Child) int {
	for _, c := range children {
		if c.Kind == parser.KindPROJECTION {
			return c.End
		}
	}

	anchor := "NAME"
	if span.Kind == parser.KindMAP {
		anchor = "SIZE"
	}
	for _, c := range children {
		if !c.Block && c.Kind == anchor {
			return c.Start
		}
	}
	return span.Start
}

// innerIndent is the indentation of the lines directly inside span.
func innerIndent(doc *parser.Document, span parser.Span, children []parser.Child, width int) string {
	if len(children) > 0 {
		return doc.Lines[children[0].Start].Indent()
	}
	return doc.Lines[span.Start].Indent() + strings.Repeat(" ", width)
}

// rewriteMetadata replaces the value of the extent keys found directly in a
// METADATA block, keeping the quote style and anything after the value.
func (s *syncer) rewriteMetadata(block string, span parser.Span, ext Extent) {
	args := ext.Format(Decimals(ext.CRS))

	for i := span.Start + 1; i < span.End; i++ {
		l := s.doc.Lines[i]
		if len(l.Tokens) < 2 || !extentKeys[strings.ToLower(l.Tokens[0].Text)] {
			continue
		}
		val := l.Tokens[1]
		if val.Kind != parser.TokenString || !val.Closed {
			s.warn("%s: %s on line %d has no quoted value; left unchanged", block, l.Tokens[0].Text, l.No)
			continue
		}
		// Col points at the opening quote
		s.replaced[i] = l.Text[:val.Col] + args + l.Text[val.End()-1:]
		s.change(block, i, ActionMetadata, ext)
	}
}

func (s *syncer) change(block string, idx int, action string, ext Extent) {
	s.res.Changes = append(s.res.Changes, Change{
		Block:  block,
		Line:   idx + 1,
		Action: action,
		Extent: ext,
	})
}

func (s *syncer) render() string {
	out := make([]string, 0, len(s.doc.Lines)+len(s.inserted))
	for i, l := range s.doc.Lines {
		if r, ok := s.replaced[i]; ok {
			out = append(out, r)
		} else {
			out = append(out, l.Text)
		}
		out = append(out, s.inserted[i]...)
	}
	return s.doc.Join(out)
}

func layerLabel(doc *parser.Document, layer parser.Child, children []parser.Child) string {
	for _, c := range children {
		if !c.Block && c.Kind == "NAME" {
			if name := doc.Lines[c.Start].Value(); name != "" {
				return "LAYER " + name
			}
		}
	}
	return fmt.Sprintf("LAYER@%d", layer.Start+1)
}

// trailingComment returns the comment that ends an EXTENT line, if any.
func trailingComment(rest string) string {
	idx := -1
	for _, marker := range []string{"#", "//", "/*"} {
		if i := strings.Index(rest, marker); i >= 0 && (idx < 0 || i < idx) {
			idx = i
		}
	}
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(rest[idx:])
}
