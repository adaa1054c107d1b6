package extent

import (
	"regexp"
	"strings"

	"github.com/Consortis-Geospatial/Mapfile-Preview/internal/parser"
)

// DefaultCRS is used for a MAP whose reference cannot be resolved.
const DefaultCRS = "CRS:84"

var (
	epsgPattern = regexp.MustCompile(`(?i)(?:\+?init=)?epsg:(\d+)`)
	sridPattern = regexp.MustCompile(`(?i)srid=(\d+)`)
	longlat     = regexp.MustCompile(`(?i)\+?proj=(?:longlat|latlong)\b`)
)

// metadata keys carrying a layer's reference, in lookup order
var srsKeys = []string{"wfs_srs", "wms_srs", "ows_srs"}

// NormalizeCRS upper-cases a reference identifier and folds the common
// spellings of CRS:84.
func NormalizeCRS(crs string) string {
	s := strings.ToUpper(strings.TrimSpace(crs))
	switch s {
	case "CRS84", "OGC:CRS84", "CRS:84":
		return "CRS:84"
	}
	if m := epsgPattern.FindStringSubmatch(s); m != nil && m[0] == s {
		return "EPSG:" + m[1]
	}
	return s
}

// resolveCRS finds the reference a block's coordinates are expressed in:
// PROJECTION first, then srid= in DATA or CONNECTION, then the srs METADATA
// keys. For MAP the WEB block's METADATA is read as well. It returns "" when
// nothing is found.
func resolveCRS(doc *parser.Document, children []parser.Child, openers parser.OpenerSet) string {
	for _, c := range children {
		if c.Kind == parser.KindPROJECTION {
			if crs := crsFromProjection(doc, c); crs != "" {
				return crs
			}
		}
	}

	for _, c := range children {
		if c.Block || (c.Kind != "DATA" && c.Kind != "CONNECTION") {
			continue
		}
		for _, tok := range doc.Lines[c.Start].Tokens[1:] {
			if m := sridPattern.FindStringSubmatch(tok.Text); m != nil {
				return "EPSG:" + m[1]
			}
		}
	}

	var metas []parser.Span
	for _, c := range children {
		if !c.Block {
			continue
		}
		switch c.Kind {
		case parser.KindMETADATA:
			metas = append(metas, c.Span())
		case parser.KindWEB:
			metas = append(metas, parser.FindBlocks(doc, c.Span(), parser.KindMETADATA, openers)...)
		}
	}
	for _, key := range srsKeys {
		for _, m := range metas {
			if v := metadataValue(doc, m, key); v != "" {
				// "EPSG:2100 EPSG:4326": the first entry is the native one
				return NormalizeCRS(strings.Fields(v)[0])
			}
		}
	}

	return ""
}

// crsFromProjection reads an EPSG code, or a longlat definition, from a
// PROJECTION block or an inline PROJECTION directive.
func crsFromProjection(doc *parser.Document, c parser.Child) string {
	var parts []string
	for i := c.Start; i <= c.End; i++ {
		for _, tok := range doc.Lines[i].Tokens {
			parts = append(parts, tok.Text)
		}
	}
	def := strings.Join(parts, " ")

	if m := epsgPattern.FindStringSubmatch(def); m != nil {
		return "EPSG:" + m[1]
	}
	if longlat.MatchString(def) {
		return "EPSG:4326"
	}
	return ""
}

// metadataValue returns the value of key in the METADATA block span.
func metadataValue(doc *parser.Document, span parser.Span, key string) string {
	for i := span.Start + 1; i < span.End; i++ {
		toks := doc.Lines[i].Tokens
		if len(toks) >= 2 && strings.EqualFold(toks[0].Text, key) {
			if v := strings.TrimSpace(toks[1].Text); v != "" {
				return v
			}
		}
	}
	return ""
}
