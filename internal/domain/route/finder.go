package route

import (
	"context"

	"go.uber.org/zap"

	"github.com/stridemaps/service-routes/internal/geo"
	"github.com/stridemaps/service-routes/internal/polyline"
)

// FinderConfig holds the tuning knobs for a route-assembly run. The two caps
// exist to guarantee termination: discovery stops doubling its bounding box
// after MaxBoxDoublings empty responses, and the outer search loop aborts
// after MaxIterations extensions even if the target was not reached.
type FinderConfig struct {
	InitialBoxKm    float64
	TopK            int
	DownsampleRatio int
	MaxBoxDoublings int
	MaxIterations   int
}

func (c FinderConfig) withDefaults() FinderConfig {
	if c.InitialBoxKm <= 0 {
		c.InitialBoxKm = 30
	}
	if c.TopK < 1 {
		c.TopK = 3
	}
	if c.DownsampleRatio < 1 {
		c.DownsampleRatio = 1
	}
	if c.MaxBoxDoublings < 1 {
		c.MaxBoxDoublings = 6
	}
	if c.MaxIterations < 1 {
		c.MaxIterations = 25
	}
	return c
}

// Finder assembles a running route of a target one-way length: it repeatedly
// discovers catalog segments near the cursor, ranks them, splices the access
// route and the winning segment onto the result, and once the accumulated
// length reaches the target, trims the result and mirrors it into an
// out-and-back loop.
//
// A Finder is scoped to a single recommendation run and is not safe for
// concurrent use. It is discarded after Run returns.
type Finder struct {
	catalogSvc SegmentCatalog
	distances  DistanceService
	ranker     *Ranker
	cfg        FinderConfig
	logger     *zap.Logger

	origin   geo.Coord
	cursor   geo.Coord
	targetKm float64
	catalog  []Segment
	result   *Route
	state    FinderState
	iters    int
}

// NewFinder creates a Finder for one run. targetKm is the one-way distance,
// half of the ideal round trip.
func NewFinder(
	catalog SegmentCatalog,
	distances DistanceService,
	cfg FinderConfig,
	origin geo.Coord,
	targetKm float64,
	logger *zap.Logger,
) *Finder {
	cfg = cfg.withDefaults()
	return &Finder{
		catalogSvc: catalog,
		distances:  distances,
		ranker:     NewRanker(distances, cfg.TopK, cfg.DownsampleRatio, logger),
		cfg:        cfg,
		logger:     logger,
		origin:     origin,
		cursor:     origin,
		targetKm:   targetKm,
		state:      StateSearching,
	}
}

// State returns the finder's current state.
func (f *Finder) State() FinderState { return f.state }

// Iterations returns how many searching/extending cycles the run performed.
func (f *Finder) Iterations() int { return f.iters }

// Run executes the assembly loop and returns the finalized loop route. Any
// gateway failure aborts the run; there is no partial-result fallback.
func (f *Finder) Run(ctx context.Context) (Route, error) {
	if f.targetKm <= 0 {
		return Route{}, NewValidationError("target distance must be positive")
	}

	for f.state == StateSearching {
		if f.iters >= f.cfg.MaxIterations {
			return Route{}, &IterationLimitError{
				Limit:     f.cfg.MaxIterations,
				ReachedKm: f.resultLengthKm(),
				TargetKm:  f.targetKm,
			}
		}
		f.iters++

		if err := f.search(ctx); err != nil {
			return Route{}, err
		}
	}

	return f.trimAndClose()
}

// search runs one searching+extending cycle: discover, rank, splice, advance.
func (f *Finder) search(ctx context.Context) error {
	if err := f.discover(ctx); err != nil {
		return err
	}

	winner, _, err := f.ranker.Rank(ctx, f.cursor, f.catalog)
	if err != nil {
		return err
	}

	// A chosen segment is single-use within this discovery batch. A later
	// discovery call recentered on the new cursor may still resurface the
	// same physical segment; that overlap is accepted.
	f.removeFromCatalog(winner.Segment.ID)

	if err := f.transitionTo(StateExtending); err != nil {
		return err
	}

	access, err := f.distances.WalkingRoute(ctx, f.cursor, winner.ClosestPoint)
	if err != nil {
		return err
	}

	chunk, err := Combine(access, winner.Route)
	if err != nil {
		return err
	}

	if f.result == nil {
		f.result = &chunk
	} else {
		combined, err := Combine(*f.result, chunk)
		if err != nil {
			return err
		}
		f.result = &combined
	}

	cursor, err := f.result.LastPoint()
	if err != nil {
		return err
	}
	f.cursor = cursor

	f.logger.Debug("extended result route",
		zap.Int("iteration", f.iters),
		zap.Int64("segment_id", winner.Segment.ID),
		zap.Float64("access_km", access.LengthKm),
		zap.Float64("accumulated_km", f.result.LengthKm),
		zap.Float64("target_km", f.targetKm),
	)

	if f.result.LengthKm < f.targetKm {
		return f.transitionTo(StateSearching)
	}
	return f.transitionTo(StateTrimming)
}

// discover queries the catalog around the cursor, doubling the bounding-box
// diagonal on each empty response up to the configured cap.
func (f *Finder) discover(ctx context.Context) error {
	diag := f.cfg.InitialBoxKm
	for attempt := 0; attempt <= f.cfg.MaxBoxDoublings; attempt++ {
		segments, err := f.catalogSvc.Explore(ctx, f.cursor, diag)
		if err != nil {
			return err
		}
		if len(segments) > 0 {
			f.catalog = segments
			return nil
		}

		f.logger.Debug("discovery returned no segments, doubling bounding box",
			zap.Float64("diag_km", diag),
		)
		diag *= 2
	}
	return &DiscoveryExhaustedError{Doublings: f.cfg.MaxBoxDoublings, LastDiagKm: diag / 2}
}

func (f *Finder) removeFromCatalog(segmentID int64) {
	for i, seg := range f.catalog {
		if seg.ID == segmentID {
			f.catalog = append(f.catalog[:i], f.catalog[i+1:]...)
			return
		}
	}
}

// trimAndClose truncates the accumulated path at the target distance and
// mirrors it into an out-and-back loop. The final length is twice the trimmed
// distance.
func (f *Finder) trimAndClose() (Route, error) {
	path, err := f.result.Path()
	if err != nil {
		return Route{}, err
	}

	trimmed, trimmedKm := Trim(path, f.targetKm)
	mirrored := Mirror(trimmed)

	final := Route{
		Polyline: polyline.Encode(mirrored),
		LengthKm: 2 * trimmedKm,
	}

	if err := f.transitionTo(StateComplete); err != nil {
		return Route{}, err
	}

	f.logger.Debug("finalized loop route",
		zap.Float64("trimmed_km", trimmedKm),
		zap.Float64("final_km", final.LengthKm),
		zap.Int("points", len(mirrored)),
	)
	return final, nil
}

func (f *Finder) resultLengthKm() float64 {
	if f.result == nil {
		return 0
	}
	return f.result.LengthKm
}
