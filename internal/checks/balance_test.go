package checks

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Consortis-Geospatial/Mapfile-Preview/internal/result"
)

func TestBalanceChecker_Balanced(t *testing.T) {
	r := NewBalanceChecker().Analyze("MAP\n  LAYER\n    NAME \"a\"\n  END\nEND\n")

	assert.True(t, r.OK)
	assert.Empty(t, r.ExtraEnds)
	assert.Empty(t, r.MissingEnds)
	assert.Equal(t, "all blocks are balanced", r.Message)
}

func TestBalanceChecker_ExtraEnd(t *testing.T) {
	r := NewBalanceChecker().Analyze("MAP\nEND\n  END # stray\n")

	assert.False(t, r.OK)
	require.Len(t, r.ExtraEnds, 1)
	assert.Equal(t, ExtraEnd{Line: 3, Col: 3, Excerpt: "END # stray"}, r.ExtraEnds[0])
	assert.Empty(t, r.MissingEnds)
	assert.Equal(t, "1 extra END(s), 0 missing END(s)", r.Message)
}

func TestBalanceChecker_MissingEndsInnermostFirst(t *testing.T) {
	r := NewBalanceChecker().Analyze("MAP\n  LAYER\n    CLASS\n    END\n")

	assert.False(t, r.OK)
	require.Len(t, r.MissingEnds, 2)
	assert.Equal(t, MissingEnd{Kind: "LAYER", Line: 2, Col: 3}, r.MissingEnds[0])
	assert.Equal(t, MissingEnd{Kind: "MAP", Line: 1, Col: 1}, r.MissingEnds[1])
}

func TestBalanceChecker_SyntheticCounts(t *testing.T) {
	openers := []string{"MAP", "LAYER", "CLASS", "STYLE", "WEB", "METADATA"}

	for n := 0; n <= 4; n++ {
		for m := 0; m <= 3; m++ {
			var sb strings.Builder
			// m unmatched closes first, so no later opener can absorb them
			for i := 0; i < m; i++ {
				sb.WriteString("END\n")
			}
			// one balanced block in between
			sb.WriteString("LEGEND\n  STATUS ON\nEND\n")
			for i := 0; i < n; i++ {
				sb.WriteString(openers[i%len(openers)] + "\n  NAME \"x\"\n")
			}

			r := NewBalanceChecker().Analyze(sb.String())
			assert.Len(t, r.MissingEnds, n, "n=%d m=%d", n, m)
			assert.Len(t, r.ExtraEnds, m, "n=%d m=%d", n, m)
			assert.Equal(t, n == 0 && m == 0, r.OK)
		}
	}
}

func TestBalanceChecker_NonOpenerDirectives(t *testing.T) {
	text := "QUERYMAP\n  STYLE HILITE\nEND\nSTYLE\n  PATTERN 10 10\n  SYMBOL \"circle\"\nEND\n"

	r := NewBalanceChecker().Analyze(text)
	assert.True(t, r.OK, r.Message)
}

func TestBalanceChecker_InlineBlocks(t *testing.T) {
	text := "LAYER\n  PROJECTION \"init=epsg:4326\" END\n  CLASS\n    STYLE\n      PATTERN 5 5 END\n    END\n  END\nEND\n"

	r := NewBalanceChecker().Analyze(text)
	assert.True(t, r.OK, r.Message)
}

func TestBalanceChecker_InlineEndWithoutOpener(t *testing.T) {
	text := "MAP\n  LAYER\n    NAME \"a\" END\nEND\n"

	// Default: the inline END is ignored, LAYER stays open.
	r := NewBalanceChecker().Analyze(text)
	require.Len(t, r.MissingEnds, 1)
	assert.Equal(t, "MAP", r.MissingEnds[0].Kind)

	cfg := DefaultBalanceConfig()
	cfg.AllowInlineEndWithoutOpener = true
	r = NewBalanceCheckerWithConfig(cfg).Analyze(text)
	assert.True(t, r.OK, r.Message)
}

func TestBalanceChecker_HeuristicOpeners(t *testing.T) {
	text := "MAP\n  WIDGET\n    SIZE 1\n  END\nEND\n"

	r := NewBalanceChecker().Analyze(text)
	assert.True(t, r.OK, "WIDGET is taken as a block so both ENDs match")

	cfg := DefaultBalanceConfig()
	cfg.HeuristicOpeners = false
	r = NewBalanceCheckerWithConfig(cfg).Analyze(text)
	require.Len(t, r.ExtraEnds, 1)
	assert.Equal(t, 5, r.ExtraEnds[0].Line)

	r = NewBalanceChecker().Analyze("MAP\nEND\nWIDGET\n")
	require.Len(t, r.MissingEnds, 1)
	assert.True(t, r.MissingEnds[0].Heuristic)
	assert.Equal(t, "WIDGET", r.MissingEnds[0].Kind)
}

func TestBalanceChecker_HeuristicSkipsFreeFormAndKnownDirectives(t *testing.T) {
	text := "LAYER\n  PROJECTION\n    AUTO\n  END\n  TRANSFORM\nEND\n"

	r := NewBalanceChecker().Analyze(text)
	assert.True(t, r.OK, r.Message)

	// a lone capital word in METADATA is content, so its END closes METADATA
	r = NewBalanceChecker().Analyze("MAP\n  WEB\n    METADATA\n      WIDGET\n    END\n  END\nEND\n")
	assert.True(t, r.OK, r.Message)

	r = NewBalanceChecker().Analyze("MAP\n  METADATA\n    WIDGET\n    END\n  END\nEND\n")
	require.Len(t, r.ExtraEnds, 1)
	assert.Equal(t, 6, r.ExtraEnds[0].Line)
	assert.Empty(t, r.MissingEnds)
}

func TestBalanceChecker_ExtraOpeners(t *testing.T) {
	cfg := DefaultBalanceConfig()
	cfg.HeuristicOpeners = false
	cfg.ExtraOpeners = []string{"widget"}

	r := NewBalanceCheckerWithConfig(cfg).Analyze("Widget\nEND\n")
	assert.True(t, r.OK)
}

func TestBalanceChecker_HintRecordsSkippedFrames(t *testing.T) {
	text := "MAP\n  LAYER\n    CLASS\n  END # LAYER\nEND\n"

	r := NewBalanceChecker().Analyze(text)
	assert.Empty(t, r.ExtraEnds)
	require.Len(t, r.MissingEnds, 1)
	assert.Equal(t, MissingEnd{Kind: "CLASS", Line: 3, Col: 5}, r.MissingEnds[0])
}

func TestBalanceChecker_CommentsAndStringsIgnored(t *testing.T) {
	text := "MAP\n  # END\n  /* LAYER\n  END */\n  NAME \"END\"\nEND\n"

	r := NewBalanceChecker().Analyze(text)
	assert.True(t, r.OK, r.Message)
}

func TestBalanceResult_AddTo(t *testing.T) {
	r := NewBalanceChecker().Analyze("END\nMAP\n")
	rep := result.NewReport("x.map")

	r.AddTo(rep)

	assert.False(t, rep.Valid)
	require.Len(t, rep.Hard, 2)
	assert.Equal(t, result.KindEndMismatch, rep.Hard[0].Kind)
	assert.Equal(t, result.KindMissingEnd, rep.Hard[1].Kind)
	assert.Equal(t, fmt.Sprintf("%s block opened here is never closed", "MAP"), rep.Hard[1].Message)
}
