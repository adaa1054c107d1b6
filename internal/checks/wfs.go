package checks

import (
	"fmt"
	"strings"

	"github.com/Consortis-Geospatial/Mapfile-Preview/internal/parser"
)

// Verdict says whether a layer can be published through WFS.
type Verdict struct {
	Layer     string   `json:"layer"`
	Line      int      `json:"line"`
	Supported bool     `json:"supported"`
	Reasons   []string `json:"reasons"`
}

// WFSClassifier decides per LAYER whether it is safely exposable via WFS.
type WFSClassifier struct {
	openers parser.OpenerSet
}

// NewWFSClassifier creates a WFSClassifier.
func NewWFSClassifier(extraOpeners ...string) *WFSClassifier {
	return &WFSClassifier{openers: parser.NewOpenerSet(extraOpeners...)}
}

type layerInfo struct {
	name string
	line int
	typ  string
	meta map[string]string
}

// Classify returns one verdict per LAYER, in document order.
func (c *WFSClassifier) Classify(text string) []Verdict {
	doc := parser.Parse(text, parser.ScanOptions{})
	layers, web := c.collect(doc)

	out := make([]Verdict, 0, len(layers))
	for _, l := range layers {
		out = append(out, judge(l, web))
	}
	return out
}

// ClassifyMap returns the verdicts keyed by layer name.
func (c *WFSClassifier) ClassifyMap(text string) map[string]Verdict {
	out := make(map[string]Verdict)
	for _, v := range c.Classify(text) {
		out[v.Layer] = v
	}
	return out
}

// collect walks the document once, gathering each layer's TYPE, NAME and
// own METADATA plus the map-level WEB METADATA.
func (c *WFSClassifier) collect(doc *parser.Document) ([]*layerInfo, map[string]string) {
	var (
		layers []*layerInfo
		cur    *layerInfo
		meta   map[string]string // METADATA block being read, nil if ignored
	)
	web := make(map[string]string)
	stack := parser.NewStack()

	closeFrame := func(f parser.Frame) {
		switch f.Kind {
		case parser.KindLAYER:
			if cur != nil {
				layers = append(layers, cur)
				cur = nil
			}
		case parser.KindMETADATA:
			meta = nil
		}
	}

	for _, l := range doc.Lines {
		first, ok := l.First()
		if !ok {
			continue
		}

		if l.IsEnd() {
			for _, f := range stack.Realign(l.Hint(c.openers)) {
				closeFrame(f)
			}
			if f, ok := stack.Pop(); ok {
				closeFrame(f)
			}
			continue
		}

		if kind, ok := l.Opener(c.openers); ok {
			parent := stack.Parent()
			switch kind {
			case parser.KindLAYER:
				cur = &layerInfo{line: l.No, meta: make(map[string]string)}
			case parser.KindMETADATA:
				switch {
				case parent == parser.KindLAYER && cur != nil:
					meta = cur.meta
				case parent == parser.KindWEB && !stack.Contains(parser.KindLAYER):
					meta = web
				}
			}
			stack.Push(parser.Frame{Kind: kind, Line: l.No, Col: first.Col})
			continue
		}

		switch stack.Parent() {
		case parser.KindMETADATA:
			if meta != nil && len(l.Tokens) >= 2 {
				meta[strings.ToLower(l.Tokens[0].Text)] = l.Tokens[1].Text
			}
		case parser.KindLAYER:
			if cur == nil {
				break
			}
			switch l.Keyword() {
			case "NAME":
				cur.name = l.Value()
			case "TYPE":
				cur.typ = strings.ToUpper(l.Value())
			}
		}
	}

	// a LAYER left open at end of file is still judged
	if cur != nil {
		layers = append(layers, cur)
	}

	return layers, web
}

var enableKeys = []struct {
	key   string
	layer bool
}{
	{"wfs_enable_request", true},
	{"ows_enable_request", true},
	{"wfs_enable_request", false},
	{"ows_enable_request", false},
}

var disabledValues = map[string]bool{
	"":      true,
	"none":  true,
	"0":     true,
	"false": true,
	"off":   true,
}

// judge applies the WFS rules in order, stopping at the first failure.
func judge(l *layerInfo, web map[string]string) Verdict {
	v := Verdict{Layer: l.name, Line: l.line}
	if v.Layer == "" {
		v.Layer = fmt.Sprintf("layer@%d", l.line)
	}
	reason := func(format string, args ...interface{}) {
		v.Reasons = append(v.Reasons, fmt.Sprintf(format, args...))
	}

	// Rule 1: WFS is vector-only
	if l.typ == "RASTER" {
		reason("TYPE is RASTER; WFS serves vector data only")
		return v
	}
	if l.typ == "" {
		reason("TYPE not set; assuming vector data")
	} else {
		reason("TYPE %s is vector data", l.typ)
	}

	// Rule 2: an enable flag must exist
	value, source := "", ""
	found := false
	for _, k := range enableKeys {
		m, where := web, "WEB"
		if k.layer {
			m, where = l.meta, "LAYER"
		}
		if val, ok := m[k.key]; ok {
			value, source, found = val, fmt.Sprintf("%s %s", where, k.key), true
			break
		}
	}
	if !found {
		reason("no wfs_enable_request or ows_enable_request in LAYER or WEB METADATA")
		return v
	}
	reason("%s = %q", source, value)

	// Rule 3: the flag must enable GetFeature
	lv := strings.ToLower(strings.TrimSpace(value))
	switch {
	case disabledValues[lv]:
		reason("enable request value %q disables all requests", value)
		return v
	case strings.Contains(lv, "!getfeature"):
		reason("GetFeature is explicitly excluded")
		return v
	case !strings.Contains(lv, "getfeature") && !strings.Contains(lv, "*") && !strings.Contains(lv, "all"):
		reason("enable request value %q does not include GetFeature", value)
		return v
	}
	reason("GetFeature is enabled")

	// Rule 4: layer METADATA must carry a title and an SRS
	title := firstNonEmpty(l.meta, "wfs_title", "ows_title")
	srs := firstNonEmpty(l.meta, "wfs_srs", "ows_srs")
	var missingKeys []string
	if title == "" {
		missingKeys = append(missingKeys, "wfs_title (or ows_title)")
	}
	if srs == "" {
		missingKeys = append(missingKeys, "wfs_srs (or ows_srs)")
	}
	if len(missingKeys) > 0 {
		reason("LAYER METADATA is missing %s", strings.Join(missingKeys, " and "))
		return v
	}
	reason("title %q and SRS %q present", title, srs)

	v.Supported = true
	return v
}

func firstNonEmpty(m map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(m[k]); v != "" {
			return v
		}
	}
	return ""
}
