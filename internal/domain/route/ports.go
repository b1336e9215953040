package route

import (
	"context"

	"github.com/stridemaps/service-routes/internal/geo"
)

// Segment is a raw catalog record for a curated route segment as returned by
// the discovery provider.
type Segment struct {
	ID       int64
	Name     string
	Start    geo.Coord
	Polyline string
	LengthKm float64
	Details  map[string]any
}

// SegmentCatalog defines the discovery contract with the segment provider.
type SegmentCatalog interface {
	// Explore returns segments within a bounding box of the given diagonal
	// centered on center. An empty slice means the provider found nothing
	// in that box; it is not an error.
	Explore(ctx context.Context, center geo.Coord, diagKm float64) ([]Segment, error)
}

// DistanceService defines the external walking distance and directions
// contract.
type DistanceService interface {
	// WalkingDistance returns the walking distance in kilometers between two
	// coordinates. Returns ErrNoRoute if the provider cannot compute one.
	WalkingDistance(ctx context.Context, from, to geo.Coord) (float64, error)

	// WalkingRoute returns the walking path between two coordinates as a
	// Route. Returns ErrNoRoute if the provider cannot compute one.
	WalkingRoute(ctx context.Context, from, to geo.Coord) (Route, error)
}
