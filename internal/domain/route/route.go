package route

import (
	"fmt"

	"github.com/stridemaps/service-routes/internal/geo"
	"github.com/stridemaps/service-routes/internal/polyline"
)

// Route is an immutable value representing a path and its true length. The
// path is stored in encoded polyline form; LengthKm is the distance the path
// represents as reported by its source (a provider's walking distance or a
// catalog segment length), which may differ slightly from the recomputed
// geodesic length of the decoded points.
type Route struct {
	Polyline string         `json:"polyline"`
	LengthKm float64        `json:"length_km"`
	Details  map[string]any `json:"details,omitempty"`
}

// New creates a Route from an encoded polyline and its reported length.
func New(encoded string, lengthKm float64, details map[string]any) Route {
	return Route{Polyline: encoded, LengthKm: lengthKm, Details: details}
}

// Path decodes the route's polyline into its coordinate sequence.
func (r Route) Path() ([]geo.Coord, error) {
	return polyline.Decode(r.Polyline)
}

// LastPoint returns the final coordinate of the route's path.
func (r Route) LastPoint() (geo.Coord, error) {
	path, err := r.Path()
	if err != nil {
		return geo.Coord{}, err
	}
	if len(path) == 0 {
		return geo.Coord{}, fmt.Errorf("route has an empty path")
	}
	return path[len(path)-1], nil
}

// Combine concatenates two routes by joining their decoded paths in order and
// summing their lengths. Details are not carried over: a combined route is no
// longer a single catalog segment.
func Combine(a, b Route) (Route, error) {
	pathA, err := a.Path()
	if err != nil {
		return Route{}, fmt.Errorf("first route: %w", err)
	}
	pathB, err := b.Path()
	if err != nil {
		return Route{}, fmt.Errorf("second route: %w", err)
	}

	joined := make([]geo.Coord, 0, len(pathA)+len(pathB))
	joined = append(joined, pathA...)
	joined = append(joined, pathB...)

	return Route{
		Polyline: polyline.Encode(joined),
		LengthKm: a.LengthKm + b.LengthKm,
	}, nil
}

// Trim walks path accumulating geodesic distance between consecutive points
// until the running total reaches targetKm, and returns the points consumed
// together with the accumulated distance. The point that makes the total cross
// the threshold is kept, so the returned distance may slightly exceed
// targetKm. If the whole path is shorter than targetKm it is returned intact.
func Trim(path []geo.Coord, targetKm float64) ([]geo.Coord, float64) {
	if len(path) == 0 {
		return nil, 0
	}

	total := 0.0
	i := 0
	for total < targetKm && i < len(path)-1 {
		total += geo.HaversineKm(path[i], path[i+1])
		i++
	}
	return path[:i+1], total
}

// Mirror appends the reverse of path to itself, producing an out-and-back
// loop. The turnaround point appears twice, matching the encoded form the
// presentation layer expects.
func Mirror(path []geo.Coord) []geo.Coord {
	mirrored := make([]geo.Coord, 0, len(path)*2)
	mirrored = append(mirrored, path...)
	for i := len(path) - 1; i >= 0; i-- {
		mirrored = append(mirrored, path[i])
	}
	return mirrored
}
