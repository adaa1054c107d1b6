package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Consortis-Geospatial/Mapfile-Preview/internal/parser"
)

func TestFormat_BalancedRoundtrip(t *testing.T) {
	in := "MAP\n  LAYER\n    NAME \"a\"\n  END\nEND\n"

	res := FormatWith(in, DefaultOptions())

	assert.Equal(t, in, res.Text)
	assert.False(t, res.Changed)
	assert.Equal(t, 0, res.FinalDepth)
}

func TestFormat_Reindents(t *testing.T) {
	in := "MAP\nNAME \"demo\"\n\t\tLAYER\n        NAME \"roads\" # keep\n   # a comment\nCLASS\nSTYLE\nCOLOR 1 2 3\nEND\nEND\n      END\n END\n"
	want := "MAP\n  NAME \"demo\"\n  LAYER\n    NAME \"roads\" # keep\n    # a comment\n    CLASS\n      STYLE\n        COLOR 1 2 3\n      END\n    END\n  END\nEND\n"

	assert.Equal(t, want, Format(in))
}

func TestFormat_IndentWidth(t *testing.T) {
	res := FormatWith("MAP\nWEB\nEND\nEND", Options{IndentWidth: 4})
	assert.Equal(t, "MAP\n    WEB\n    END\nEND", res.Text)
}

func TestFormat_NonOpenersDoNotIndent(t *testing.T) {
	in := "QUERYMAP\nSTYLE HILITE\nEND\nSTYLE\nPATTERN 10 10 END\nEND\n"
	want := "QUERYMAP\n  STYLE HILITE\nEND\nSTYLE\n  PATTERN 10 10 END\nEND\n"

	assert.Equal(t, want, Format(in))
}

func TestFormat_StandaloneOpenerWithComment(t *testing.T) {
	assert.Equal(t, "STYLE # main\n  COLOR 0 0 0\nEND\n", Format("STYLE # main\nCOLOR 0 0 0\nEND\n"))
}

func TestFormat_EndHintRealigns(t *testing.T) {
	// CLASS lacks its END; END # LAYER closes both CLASS and LAYER.
	in := "MAP\nLAYER\nCLASS\nNAME \"c\"\nEND # LAYER\nLAYER\nEND\nEND\n"
	want := "MAP\n  LAYER\n    CLASS\n      NAME \"c\"\n  END # LAYER\n  LAYER\n  END\nEND\n"

	res := FormatWith(in, DefaultOptions())
	assert.Equal(t, want, res.Text)
	assert.Equal(t, 0, res.FinalDepth)

	res = FormatWith(in, Options{IndentWidth: 2})
	assert.Equal(t, 1, res.FinalDepth, "without hints the missing END stays open")
}

func TestFormat_ExtraEndStaysAtZero(t *testing.T) {
	res := FormatWith("  END\nMAP\nEND\n", DefaultOptions())

	assert.Equal(t, "END\nMAP\nEND\n", res.Text)
	assert.Equal(t, 1, res.ExtraEnds)
}

func TestFormat_BlockCommentContinuationVerbatim(t *testing.T) {
	in := "MAP\n/* LAYER\n      not code\n*/\nEND\n"
	want := "MAP\n  /* LAYER\n      not code\n*/\nEND\n"

	assert.Equal(t, want, Format(in))
}

func TestFormat_BlankLinesPreserved(t *testing.T) {
	in := "MAP\n\n   \nEND"
	assert.Equal(t, in, Format(in))
}

func TestFormat_CRLF(t *testing.T) {
	assert.Equal(t, "MAP\r\n  NAME \"x\"\r\nEND\r\n", Format("MAP\r\nNAME \"x\"\r\nEND\r\n"))
}

func TestFormat_ExtraOpeners(t *testing.T) {
	opts := DefaultOptions()
	opts.Openers = parser.NewOpenerSet("WIDGET")

	res := FormatWith("WIDGET\nSIZE 1\nEND\n", opts)
	assert.Equal(t, "WIDGET\n  SIZE 1\nEND\n", res.Text)

	assert.Equal(t, "WIDGET\nSIZE 1\nEND\n", Format("WIDGET\nSIZE 1\nEND\n"))
}

func TestFormat_Idempotent(t *testing.T) {
	inputs := []string{
		"MAP\nLAYER\nCLASS\nSTYLE\nEND\nEND\n",
		"END\nEND\nMAP\n",
		"MAP\n/* open\nLAYER\n*/ LAYER\nNAME 'x\nEND\nEND\n",
		"\tMAP\r\n\t\tWEB\r\n  METADATA\r\n\"a\" \"b\"\r\nEND # WEB\r\nEND",
		"LAYER\nPROJECTION\n\"init=epsg:4326\"\nEND\nPATTERN 1 2 END\nEND # LAYER\n",
		"",
	}

	for _, in := range inputs {
		once := Format(in)
		require.Equal(t, once, Format(once), "input %q", in)
	}
}
