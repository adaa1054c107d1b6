package checks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wfsMapfile = `MAP
  WEB
    METADATA
      "wfs_enable_request" "*"
    END
  END
  LAYER
    NAME "roads"
    TYPE LINE
    METADATA
      "wfs_title" "Roads"
      "wfs_srs" "EPSG:4326"
    END
  END
  LAYER
    NAME "dem"
    TYPE RASTER
    METADATA
      "wfs_title" "DEM"
      "wfs_srs" "EPSG:4326"
    END
  END
  LAYER
    NAME "hidden"
    TYPE POLYGON
    METADATA
      "wfs_enable_request" "!GetFeature"
      "wfs_title" "Hidden"
      "wfs_srs" "EPSG:4326"
    END
  END
  LAYER
    TYPE POINT
    METADATA
      "ows_enable_request" "GetCapabilities GetFeature"
    END
    CLASS
      METADATA
        "wfs_title" "not a layer title"
      END
    END
  END
END
`

func TestWFSClassifier_Classify(t *testing.T) {
	verdicts := NewWFSClassifier().Classify(wfsMapfile)

	require.Len(t, verdicts, 4)
	assert.Equal(t, []string{"roads", "dem", "hidden", "layer@32"},
		[]string{verdicts[0].Layer, verdicts[1].Layer, verdicts[2].Layer, verdicts[3].Layer})

	roads := verdicts[0]
	assert.True(t, roads.Supported)
	assert.Equal(t, 7, roads.Line)
	assert.Contains(t, roads.Reasons, `WEB wfs_enable_request = "*"`)

	dem := verdicts[1]
	assert.False(t, dem.Supported)
	assert.Equal(t, []string{"TYPE is RASTER; WFS serves vector data only"}, dem.Reasons)

	hidden := verdicts[2]
	assert.False(t, hidden.Supported)
	assert.Equal(t, "GetFeature is explicitly excluded", hidden.Reasons[len(hidden.Reasons)-1])

	unnamed := verdicts[3]
	assert.False(t, unnamed.Supported)
	assert.Contains(t, unnamed.Reasons, `LAYER ows_enable_request = "GetCapabilities GetFeature"`)
	assert.Equal(t, "LAYER METADATA is missing wfs_title (or ows_title) and wfs_srs (or ows_srs)",
		unnamed.Reasons[len(unnamed.Reasons)-1])
}

func TestWFSClassifier_LayerFlagOverridesWeb(t *testing.T) {
	text := `MAP
  WEB
    METADATA
      "ows_enable_request" "*"
    END
  END
  LAYER
    NAME "parcels"
    METADATA
      "wfs_enable_request" "none"
      "ows_title" "Parcels"
      "ows_srs" "EPSG:2100"
    END
  END
END
`
	v := NewWFSClassifier().ClassifyMap(text)

	require.Contains(t, v, "parcels")
	assert.False(t, v["parcels"].Supported)
	assert.Contains(t, v["parcels"].Reasons, `enable request value "none" disables all requests`)
}

func TestWFSClassifier_NoFlag(t *testing.T) {
	text := "MAP\n  LAYER\n    NAME \"a\"\n    TYPE POLYGON\n  END\nEND\n"

	v := NewWFSClassifier().Classify(text)

	require.Len(t, v, 1)
	assert.False(t, v[0].Supported)
	assert.Equal(t, "no wfs_enable_request or ows_enable_request in LAYER or WEB METADATA",
		v[0].Reasons[len(v[0].Reasons)-1])
}

func TestWFSClassifier_EnableValues(t *testing.T) {
	tests := []struct {
		value     string
		supported bool
	}{
		{"*", true},
		{"all", true},
		{"GetCapabilities GetFeature DescribeFeatureType", true},
		{"GetMap", false},
		{"", false},
		{"0", false},
		{"off", false},
		{"* !GetFeature", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			text := "LAYER\n  NAME \"x\"\n  TYPE LINE\n  METADATA\n" +
				"    \"wfs_enable_request\" \"" + tt.value + "\"\n" +
				"    \"wfs_title\" \"X\"\n    \"wfs_srs\" \"EPSG:4326\"\n  END\nEND\n"

			v := NewWFSClassifier().Classify(text)
			require.Len(t, v, 1)
			assert.Equal(t, tt.supported, v[0].Supported, v[0].Reasons)
		})
	}
}

func TestWFSClassifier_OpenLayerAtEOF(t *testing.T) {
	v := NewWFSClassifier().Classify("MAP\n  LAYER\n    NAME \"open\"\n    TYPE RASTER\n")

	require.Len(t, v, 1)
	assert.Equal(t, "open", v[0].Layer)
	assert.False(t, v[0].Supported)
}
