package route

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/stridemaps/service-routes/internal/geo"
)

// Candidate is a catalog segment under consideration, together with the
// approach data computed while ranking it against the current cursor. The
// fields are filled in stages: StartDistanceKm during the cheap screen,
// ClosestPoint after the nearest-point scan, WalkingKm after the provider
// lookup. Candidates that fail the lookup never reach the final ranking, so a
// returned Candidate always has all fields populated. StartDistanceKm is the
// geodesic distance from the cursor to the segment's declared start, not to
// ClosestPoint; only the screen uses it.
type Candidate struct {
	Segment         Segment
	Route           Route
	ClosestPoint    geo.Coord
	StartDistanceKm float64
	WalkingKm       float64
}

// Ranker selects the best catalog segment to approach from a given cursor:
// a cheap straight-line screen keeps the top k segments by distance to their
// declared start, then each survivor is refined with a nearest-point scan and
// a true walking-distance lookup.
type Ranker struct {
	distances  DistanceService
	topK       int
	downsample int
	logger     *zap.Logger
}

// NewRanker creates a Ranker. downsample controls the nearest-point scan
// stride (1 means no subsampling).
func NewRanker(distances DistanceService, topK, downsample int, logger *zap.Logger) *Ranker {
	if topK < 1 {
		topK = 1
	}
	if downsample < 1 {
		downsample = 1
	}
	return &Ranker{
		distances:  distances,
		topK:       topK,
		downsample: downsample,
		logger:     logger,
	}
}

// Rank returns the candidate with the smallest walking distance from cursor
// to its closest approach point, plus the full refined candidate list. Ties in
// the straight-line screen are broken by catalog order. Candidates whose
// walking-distance lookup fails are dropped; if none survive, Rank fails with
// NoViableCandidateError.
func (r *Ranker) Rank(ctx context.Context, cursor geo.Coord, catalog []Segment) (*Candidate, []Candidate, error) {
	if len(catalog) == 0 {
		return nil, nil, &NoViableCandidateError{Candidates: 0}
	}

	screened := make([]Candidate, len(catalog))
	for i, seg := range catalog {
		screened[i] = Candidate{
			Segment:         seg,
			Route:           New(seg.Polyline, seg.LengthKm, seg.Details),
			StartDistanceKm: geo.HaversineKm(cursor, seg.Start),
		}
	}
	sort.SliceStable(screened, func(i, j int) bool {
		return screened[i].StartDistanceKm < screened[j].StartDistanceKm
	})
	if len(screened) > r.topK {
		screened = screened[:r.topK]
	}

	refined := make([]Candidate, 0, len(screened))
	for _, cand := range screened {
		path, err := cand.Route.Path()
		if err != nil {
			r.logger.Warn("skipping candidate with undecodable polyline",
				zap.Int64("segment_id", cand.Segment.ID),
				zap.Error(err),
			)
			continue
		}

		closest, _ := geo.NearestPointOnPath(path, cursor, r.downsample)
		cand.ClosestPoint = closest

		walkingKm, err := r.distances.WalkingDistance(ctx, cursor, closest)
		if err != nil {
			if errors.Is(err, ErrNoRoute) {
				r.logger.Warn("no walking route to candidate, skipping",
					zap.Int64("segment_id", cand.Segment.ID),
				)
				continue
			}
			r.logger.Warn("walking-distance lookup failed for candidate, skipping",
				zap.Int64("segment_id", cand.Segment.ID),
				zap.Error(err),
			)
			continue
		}
		cand.WalkingKm = walkingKm
		refined = append(refined, cand)
	}

	if len(refined) == 0 {
		return nil, nil, &NoViableCandidateError{Candidates: len(screened)}
	}

	winner := &refined[0]
	for i := range refined {
		if refined[i].WalkingKm < winner.WalkingKm {
			winner = &refined[i]
		}
	}

	w := *winner
	return &w, refined, nil
}
