package result

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func TestNewReport(t *testing.T) {
	r := NewReport("test.map")

	assert.Equal(t, "test.map", r.File)
	assert.True(t, r.Valid)
	assert.Empty(t, r.Hard)
	assert.Empty(t, r.Soft)
	assert.Zero(t, r.Suppressed)
}

func TestReport_AddHard(t *testing.T) {
	r := NewReport("test.map")

	r.AddHard(Diagnostic{Line: 3, Col: 1, Kind: KindEndMismatch, Message: "END without open block", Excerpt: "END"})

	assert.False(t, r.Valid)
	require.Len(t, r.Hard, 1)
	assert.Equal(t, KindEndMismatch, r.Hard[0].Kind)
	assert.Equal(t, SeverityHard, r.Hard[0].Severity)
	assert.Equal(t, 3, r.Hard[0].Line)
}

func TestReport_AddSoft(t *testing.T) {
	r := NewReport("test.map")

	r.AddSoft(Diagnostic{Line: 4, Col: 5, Kind: KindUnknownKeyword, Message: "unknown keyword NAM", Suggestions: []string{"NAME"}})

	// Soft issues don't affect validity
	assert.True(t, r.Valid)
	require.Len(t, r.Soft, 1)
	assert.Equal(t, SeveritySoft, r.Soft[0].Severity)
}

func TestReport_Summarize(t *testing.T) {
	r := NewReport("test.map")
	r.AddHard(Diagnostic{Kind: KindNesting})
	r.AddSoft(Diagnostic{Kind: KindContext})
	r.Suppressed = 4

	r.Summarize()

	assert.Equal(t, "1 hard issue(s), 1 soft issue(s), 4 soft issue(s) suppressed near hard issues", r.Summary)
}

func TestReport_All_HardFirst(t *testing.T) {
	r := NewReport("test.map")
	r.AddSoft(Diagnostic{Line: 1, Kind: KindContext})
	r.AddHard(Diagnostic{Line: 9, Kind: KindMissingEnd})

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, KindMissingEnd, all[0].Kind)
	assert.Equal(t, KindContext, all[1].Kind)
}

func TestReport_ToJSON(t *testing.T) {
	r := NewReport("test.map")
	r.AddHard(Diagnostic{Line: 2, Col: 3, Kind: KindMissingQuote, Message: "unterminated string", Excerpt: `NAME "a`})
	r.Stats = Stats{Lines: 5, Blocks: 2, Layers: 1, MaxDepth: 2}

	jsonBytes, err := r.ToJSON()
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(jsonBytes, &parsed))

	assert.Equal(t, "test.map", parsed["file"])
	assert.Equal(t, false, parsed["valid"])

	hard := parsed["hard"].([]interface{})
	require.Len(t, hard, 1)
	d := hard[0].(map[string]interface{})
	assert.Equal(t, float64(2), d["lineNo"])
	assert.Equal(t, float64(3), d["col"])
	assert.Equal(t, "MISSING_QUOTE", d["kind"])
	assert.Equal(t, "HARD", d["severity"])
	assert.Equal(t, `NAME "a`, d["excerpt"])

	assert.Contains(t, string(jsonBytes), `"max_depth": 2`)
}

func TestReport_ToText(t *testing.T) {
	r := NewReport("test.map")
	r.AddHard(Diagnostic{Line: 1, Col: 1, Kind: KindNesting, Message: "CLASS cannot appear at top level", Excerpt: "CLASS"})
	r.AddSoft(Diagnostic{Line: 7, Col: 3, Kind: KindUnknownKeyword, Message: "unknown keyword STATU", Suggestions: []string{"STATUS"}})
	r.AddNote("MAP end located by last-END fallback")

	text := r.ToText()

	assert.Contains(t, text, "mapfile-lint: test.map")
	assert.Contains(t, text, "HARD:")
	assert.Contains(t, text, "NESTING [line 1:1] CLASS cannot appear at top level")
	assert.Contains(t, text, "| CLASS")
	assert.Contains(t, text, "SOFT:")
	assert.Contains(t, text, "did you mean: STATUS")
	assert.Contains(t, text, "NOTES:")
	assert.Contains(t, text, "BROKEN")
}

func TestReport_ToText_Valid(t *testing.T) {
	r := NewReport("valid.map")

	text := r.ToText()

	assert.Contains(t, text, "mapfile-lint: valid.map")
	assert.Contains(t, text, "0 hard issue(s), 0 soft issue(s)")
	assert.Contains(t, text, "Mapfile is OK")
	assert.NotContains(t, text, "BROKEN")
	assert.NotContains(t, text, "HARD:")
	assert.NotContains(t, text, "SOFT:")
}

func TestReport_ToText_OnlySoft(t *testing.T) {
	r := NewReport("test.map")
	r.AddSoft(Diagnostic{Kind: KindContext, Message: "soft"})

	text := r.ToText()

	assert.NotContains(t, text, "HARD:")
	assert.Contains(t, text, "SOFT:")
	assert.Contains(t, text, "Mapfile is OK")
}

func TestNewMultiReport(t *testing.T) {
	r1 := NewReport("valid.map")
	r2 := NewReport("invalid.map")
	r2.AddHard(Diagnostic{Kind: KindMissingEnd})

	m := NewMultiReport([]Report{*r1, *r2})

	assert.Equal(t, 2, m.TotalFiles)
	assert.Equal(t, 1, m.TotalValid)
	assert.False(t, m.AllValid())
}

func TestMultiReport_AllValid(t *testing.T) {
	m := NewMultiReport([]Report{*NewReport("a.map"), *NewReport("b.map")})

	assert.True(t, m.AllValid())
}

func TestMultiReport_ToJSON(t *testing.T) {
	r2 := NewReport("test2.map")
	r2.AddHard(Diagnostic{Kind: KindNesting})

	m := NewMultiReport([]Report{*NewReport("test1.map"), *r2})

	jsonBytes, err := m.ToJSON()
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(jsonBytes, &parsed))

	assert.Equal(t, float64(2), parsed["total_files"])
	assert.Equal(t, float64(1), parsed["total_valid"])
}

func TestMultiReport_ToText(t *testing.T) {
	r2 := NewReport("test2.map")
	r2.AddHard(Diagnostic{Kind: KindNesting})

	m := NewMultiReport([]Report{*NewReport("test1.map"), *r2})

	text := m.ToText()

	assert.Contains(t, text, "test1.map")
	assert.Contains(t, text, "test2.map")
	assert.Contains(t, text, "OVERALL:")
	assert.Contains(t, text, "1/2 mapfiles OK")
	// Should have separator between reports
	assert.True(t, strings.Contains(text, "----"))
}
