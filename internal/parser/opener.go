package parser

import (
	"regexp"
	"strings"
)

// Block kinds.
const (
	KindROOT              = "ROOT"
	KindMAP               = "MAP"
	KindLAYER             = "LAYER"
	KindCLASS             = "CLASS"
	KindSTYLE             = "STYLE"
	KindLABEL             = "LABEL"
	KindWEB               = "WEB"
	KindMETADATA          = "METADATA"
	KindVALIDATION        = "VALIDATION"
	KindPROJECTION        = "PROJECTION"
	KindOUTPUTFORMAT      = "OUTPUTFORMAT"
	KindSYMBOL            = "SYMBOL"
	KindSYMBOLSET         = "SYMBOLSET"
	KindLEGEND            = "LEGEND"
	KindSCALEBAR          = "SCALEBAR"
	KindQUERYMAP          = "QUERYMAP"
	KindREFERENCE         = "REFERENCE"
	KindCLUSTER           = "CLUSTER"
	KindGRID              = "GRID"
	KindCOMPOSITE         = "COMPOSITE"
	KindFEATURE           = "FEATURE"
	KindJOIN              = "JOIN"
	KindPATTERN           = "PATTERN"
	KindPOINTS            = "POINTS"
	KindLEADER            = "LEADER"
	KindSCALETOKEN        = "SCALETOKEN"
	KindVALUES            = "VALUES"
	KindCONNECTIONOPTIONS = "CONNECTIONOPTIONS"

	KeywordEND = "END"
)

var defaultOpeners = []string{
	KindMAP, KindLAYER, KindCLASS, KindSTYLE, KindLABEL, KindWEB,
	KindMETADATA, KindVALIDATION, KindPROJECTION, KindOUTPUTFORMAT,
	KindSYMBOL, KindSYMBOLSET, KindLEGEND, KindSCALEBAR, KindQUERYMAP,
	KindREFERENCE, KindCLUSTER, KindGRID, KindCOMPOSITE, KindFEATURE,
	KindJOIN, KindPATTERN, KindPOINTS, KindLEADER, KindSCALETOKEN,
	KindVALUES, KindCONNECTIONOPTIONS,
}

// OpenerSet is the set of upper-case keywords that open a block when they
// stand alone on a line.
type OpenerSet map[string]bool

// DefaultOpeners returns a fresh copy of the known block keywords.
func DefaultOpeners() OpenerSet {
	s := make(OpenerSet, len(defaultOpeners))
	for _, k := range defaultOpeners {
		s[k] = true
	}
	return s
}

// NewOpenerSet returns the default openers plus the given extras.
func NewOpenerSet(extra ...string) OpenerSet {
	return DefaultOpeners().With(extra...)
}

// With returns a copy of the set with the extra keywords added.
func (s OpenerSet) With(extra ...string) OpenerSet {
	out := make(OpenerSet, len(s)+len(extra))
	for k := range s {
		out[k] = true
	}
	for _, k := range extra {
		k = strings.ToUpper(strings.TrimSpace(k))
		if k != "" && k != KeywordEND {
			out[k] = true
		}
	}
	return out
}

// Has reports whether kw (any case) is in the set.
func (s OpenerSet) Has(kw string) bool {
	return s[strings.ToUpper(kw)]
}

var leadingWord = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*`)

// IsStandaloneOpener reports whether line is a block keyword on its own,
// optionally followed by a comment. "PATTERN" opens a block, "PATTERN 10 10"
// does not.
func IsStandaloneOpener(line string, openers OpenerSet) bool {
	s := strings.TrimLeft(line, " \t")
	word := leadingWord.FindString(s)
	if word == "" || !openers.Has(word) {
		return false
	}
	return isCommentOrEmpty(s[len(word):])
}

var heuristicOpener = regexp.MustCompile(`^[A-Z][A-Z0-9_]{2,}$`)

// IsHeuristicOpener reports whether line consists of a single ALLCAPS word
// of at least three characters other than END, optionally followed by a
// comment. Such a line is probably an opener for a block that is missing
// from the known set.
func IsHeuristicOpener(line string) bool {
	s := strings.TrimLeft(line, " \t")
	word := leadingWord.FindString(s)
	if word == "" || word == KeywordEND || !heuristicOpener.MatchString(word) {
		return false
	}
	return isCommentOrEmpty(s[len(word):])
}

// EndHint extracts a block-name hint from the text following an END keyword:
// "END # LAYER", "END LAYER", "END // CLASS". Only names in openers count.
func EndHint(rest string, openers OpenerSet) string {
	s := strings.TrimSpace(rest)
	for _, marker := range []string{"#", "//", "/*"} {
		if strings.HasPrefix(s, marker) {
			s = strings.TrimSpace(s[len(marker):])
			break
		}
	}
	word := strings.ToUpper(leadingWord.FindString(s))
	if word == "" || !openers[word] {
		return ""
	}
	return word
}

func isCommentOrEmpty(rest string) bool {
	rest = strings.TrimSpace(rest)
	return rest == "" ||
		strings.HasPrefix(rest, "#") ||
		strings.HasPrefix(rest, "//") ||
		strings.HasPrefix(rest, "/*")
}
