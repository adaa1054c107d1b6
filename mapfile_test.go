package mapfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `MAP
  NAME "sample"
  SIZE 400 300
  LAYER
    NAME "roads"
    TYPE LINE
    METADATA
      "wfs_enable_request" "*"
      "wfs_title" "Roads"
      "wfs_srs" "EPSG:4326"
    END
  END
END
`

func TestCheckString(t *testing.T) {
	r := CheckString(sample)

	assert.True(t, r.Valid)
	assert.Equal(t, "input", r.File)
	assert.Equal(t, 1, r.Stats.Layers)
	assert.Empty(t, r.Notes)
}

func TestLinter_CheckNotes(t *testing.T) {
	r := DefaultLinter().Check("broken.map", "MAP\n  LAYER\n    NAME \"a\"\nEND # MAP\nWIDGET\n")

	assert.False(t, r.Valid)
	require.Len(t, r.Notes, 2)
	assert.Contains(t, r.Notes[0], "assumed at line 4 (last-end)")
	assert.Contains(t, r.Notes[1], "line 5: WIDGET")
}

func TestLinter_Balance(t *testing.T) {
	b := DefaultLinter().Balance(sample)
	assert.True(t, b.OK)
}

func TestLinter_FormatUsesConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IndentWidth = 4

	res := New(cfg).Format("MAP\nLAYER\nEND\nEND\n")

	assert.Equal(t, "MAP\n    LAYER\n    END\nEND\n", res.Text)
	assert.True(t, res.Changed)
	assert.Equal(t, sample, Format(sample))
}

func TestLinter_SyncExtent(t *testing.T) {
	res := DefaultLinter().SyncExtent(sample, Extent{MinX: 1, MinY: 2, MaxX: 3, MaxY: 4})

	assert.True(t, res.Updated)
	assert.Contains(t, res.Text, "  SIZE 400 300\n  EXTENT 1.000000 2.000000 3.000000 4.000000\n")
	assert.Contains(t, res.Text, "    NAME \"roads\"\n    EXTENT 1.000000 2.000000 3.000000 4.000000\n")
}

func TestLinter_ClassifyWFS(t *testing.T) {
	v := DefaultLinter().ClassifyWFS(sample)

	require.Len(t, v, 1)
	assert.Equal(t, "roads", v[0].Layer)
	assert.True(t, v[0].Supported)
}
