package extent

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnsupportedCRS is returned by a Projector that cannot convert between
// the requested references.
var ErrUnsupportedCRS = errors.New("unsupported coordinate reference")

// Projector reprojects an extent into another coordinate reference.
type Projector interface {
	Project(e Extent, to string) (Extent, error)
}

// ProjectorFunc adapts a function to the Projector interface.
type ProjectorFunc func(e Extent, to string) (Extent, error)

// Project calls f.
func (f ProjectorFunc) Project(e Extent, to string) (Extent, error) {
	return f(e, to)
}

// earth radius of the spherical mercator projection, in meters
const mercatorRadius = 6378137.0

// latitude at which spherical mercator reaches a square world
const mercatorMaxLat = 85.0511287798066

var geographicCRS = map[string]bool{
	"EPSG:4326": true,
	"EPSG:4258": true,
	"CRS:84":    true,
}

var mercatorCRS = map[string]bool{
	"EPSG:3857":   true,
	"EPSG:900913": true,
	"EPSG:3785":   true,
	"EPSG:102100": true,
	"EPSG:102113": true,
}

// IsGeographic reports whether crs is expressed in degrees.
func IsGeographic(crs string) bool {
	return geographicCRS[NormalizeCRS(crs)]
}

// DefaultProjector converts between geographic references and spherical
// mercator. Any other pair yields ErrUnsupportedCRS.
type DefaultProjector struct{}

// Project implements Projector.
func (DefaultProjector) Project(e Extent, to string) (Extent, error) {
	from, to := NormalizeCRS(e.CRS), NormalizeCRS(to)

	switch {
	case from == to:
		return e, nil
	case geographicCRS[from] && geographicCRS[to]:
		e.CRS = to
		return e, nil
	case mercatorCRS[from] && mercatorCRS[to]:
		e.CRS = to
		return e, nil
	case geographicCRS[from] && mercatorCRS[to]:
		x1, y1 := toMercator(e.MinX, e.MinY)
		x2, y2 := toMercator(e.MaxX, e.MaxY)
		return New(x1, y1, x2, y2, to), nil
	case mercatorCRS[from] && geographicCRS[to]:
		x1, y1 := fromMercator(e.MinX, e.MinY)
		x2, y2 := fromMercator(e.MaxX, e.MaxY)
		return New(x1, y1, x2, y2, to), nil
	}
	return e, fmt.Errorf("%w: %s to %s", ErrUnsupportedCRS, from, to)
}

func toMercator(lon, lat float64) (float64, float64) {
	lat = math.Max(-mercatorMaxLat, math.Min(mercatorMaxLat, lat))
	x := mercatorRadius * lon * math.Pi / 180
	y := mercatorRadius * math.Log(math.Tan(math.Pi/4+lat*math.Pi/360))
	return x, y
}

func fromMercator(x, y float64) (float64, float64) {
	lon := x / mercatorRadius * 180 / math.Pi
	lat := (2*math.Atan(math.Exp(y/mercatorRadius)) - math.Pi/2) * 180 / math.Pi
	return lon, lat
}
