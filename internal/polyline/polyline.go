// Package polyline adapts the Google encoded-polyline format to the geo.Coord
// type used throughout the service. Encoded strings cross the system boundary
// (Strava segments and Google directions both use this format), so the codec
// must stay wire-compatible; precision is the standard 1e-5 degrees.
package polyline

import (
	"fmt"

	gpolyline "github.com/twpayne/go-polyline"

	"github.com/stridemaps/service-routes/internal/geo"
)

// Encode encodes an ordered coordinate sequence into a polyline string.
func Encode(path []geo.Coord) string {
	coords := make([][]float64, len(path))
	for i, p := range path {
		coords[i] = []float64{p.Lat, p.Lng}
	}
	return string(gpolyline.EncodeCoords(coords))
}

// Decode decodes a polyline string into an ordered coordinate sequence.
func Decode(encoded string) ([]geo.Coord, error) {
	if encoded == "" {
		return nil, nil
	}

	coords, remaining, err := gpolyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to decode polyline: %w", err)
	}
	if len(remaining) > 0 {
		return nil, fmt.Errorf("trailing bytes after polyline: %q", remaining)
	}

	path := make([]geo.Coord, len(coords))
	for i, c := range coords {
		path[i] = geo.Coord{Lat: c[0], Lng: c[1]}
	}
	return path, nil
}
