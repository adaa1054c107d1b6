package extent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Normalizes(t *testing.T) {
	e := New(10, 50, -5, 40, "epsg:4326")

	assert.Equal(t, Extent{MinX: -5, MinY: 40, MaxX: 10, MaxY: 50, CRS: "EPSG:4326"}, e)
}

func TestExtent_Format(t *testing.T) {
	e := New(-0.0001, 1.5, 2, 3.25, "EPSG:2100")

	assert.Equal(t, "0.000 1.500 2.000 3.250", e.Format(Decimals(e.CRS)))
	assert.Equal(t, "-0.000100 1.500000 2.000000 3.250000", e.Format(6))
	assert.Equal(t, "0.000 1.500 2.000 3.250 (EPSG:2100)", e.String())
}

func TestDecimals(t *testing.T) {
	for crs, want := range map[string]int{
		"EPSG:4326":      6,
		"epsg:4258":      6,
		"CRS:84":         6,
		"CRS84":          6,
		"EPSG:3857":      3,
		"EPSG:2100":      3,
		"":               3,
		"init=epsg:4326": 6,
	} {
		assert.Equal(t, want, Decimals(crs), crs)
	}
}

func TestNormalizeCRS(t *testing.T) {
	tests := map[string]string{
		"epsg:2100":       "EPSG:2100",
		" EPSG:4326 ":     "EPSG:4326",
		"init=epsg:3857":  "EPSG:3857",
		"+init=EPSG:3857": "EPSG:3857",
		"ogc:crs84":       "CRS:84",
		"crs:84":          "CRS:84",
		"AUTO:42001":      "AUTO:42001",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeCRS(in), in)
	}
}

func TestParseBBox(t *testing.T) {
	e, err := ParseBBox("21,36, 20 35", "EPSG:4326")
	require.NoError(t, err)
	assert.Equal(t, New(20, 35, 21, 36, "EPSG:4326"), e)

	_, err = ParseBBox("1,2,3", "EPSG:4326")
	assert.Error(t, err)

	_, err = ParseBBox("1,2,3,x", "EPSG:4326")
	assert.Error(t, err)
}
