// Package extent rewrites the EXTENT directives of a mapfile from a viewport
// bounding box, reprojecting it into each block's coordinate reference.
package extent

import (
	"fmt"
	"strconv"
	"strings"
)

// Extent is a bounding box tagged with its coordinate reference. Values built
// with New are always normalized.
type Extent struct {
	MinX float64 `json:"minx"`
	MinY float64 `json:"miny"`
	MaxX float64 `json:"maxx"`
	MaxY float64 `json:"maxy"`
	CRS  string  `json:"crs"`
}

// New builds a normalized extent from two corners in any order.
func New(x1, y1, x2, y2 float64, crs string) Extent {
	return Extent{MinX: x1, MinY: y1, MaxX: x2, MaxY: y2, CRS: NormalizeCRS(crs)}.Normalize()
}

// Normalize returns e with min <= max on both axes.
func (e Extent) Normalize() Extent {
	if e.MinX > e.MaxX {
		e.MinX, e.MaxX = e.MaxX, e.MinX
	}
	if e.MinY > e.MaxY {
		e.MinY, e.MaxY = e.MaxY, e.MinY
	}
	return e
}

// Format renders the four coordinates as an EXTENT argument list.
func (e Extent) Format(decimals int) string {
	parts := make([]string, 0, 4)
	for _, v := range []float64{e.MinX, e.MinY, e.MaxX, e.MaxY} {
		parts = append(parts, formatCoord(v, decimals))
	}
	return strings.Join(parts, " ")
}

func (e Extent) String() string {
	return fmt.Sprintf("%s (%s)", e.Format(Decimals(e.CRS)), e.CRS)
}

// ParseBBox reads "minx,miny,maxx,maxy" (commas or spaces) into an extent.
func ParseBBox(s, crs string) (Extent, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) != 4 {
		return Extent{}, fmt.Errorf("bbox %q: expected 4 numbers, got %d", s, len(fields))
	}

	var v [4]float64
	for i, f := range fields {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Extent{}, fmt.Errorf("bbox %q: %w", s, err)
		}
		v[i] = n
	}
	return New(v[0], v[1], v[2], v[3], crs), nil
}

// Decimals returns the number of decimal digits written for crs: 6 for
// degree-based references, 3 otherwise.
func Decimals(crs string) int {
	if IsGeographic(crs) {
		return 6
	}
	return 3
}

func formatCoord(v float64, decimals int) string {
	s := strconv.FormatFloat(v, 'f', decimals, 64)
	// "-0.000" after rounding
	if strings.HasPrefix(s, "-") && strings.Trim(s, "-0.") == "" {
		s = s[1:]
	}
	return s
}
