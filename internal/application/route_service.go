package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stridemaps/service-routes/internal/domain/route"
	"github.com/stridemaps/service-routes/internal/events"
	"github.com/stridemaps/service-routes/internal/geo"
)

// RecommendRouteRequest holds the data needed to request a recommendation.
// DistanceKm is the ideal full round-trip length.
type RecommendRouteRequest struct {
	Latitude   float64 `json:"latitude" binding:"gte=-90,lte=90"`
	Longitude  float64 `json:"longitude" binding:"gte=-180,lte=180"`
	DistanceKm float64 `json:"distance_km" binding:"required,gt=0"`
}

// RouteDTO is the response representation of a recommended route.
type RouteDTO struct {
	RequestID   uuid.UUID `json:"request_id"`
	Origin      geo.Coord `json:"origin"`
	Polyline    string    `json:"polyline"`
	LengthKm    float64   `json:"length_km"`
	RequestedKm float64   `json:"requested_km"`
	Iterations  int       `json:"iterations"`
	CreatedAt   time.Time `json:"created_at"`
}

// EventPublisher publishes domain events after a run completes.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event events.CloudEvent) error
}

// RouteService is the application service orchestrating recommendation runs.
// Each request gets its own Finder; nothing about a run outlives the request.
type RouteService struct {
	catalog   route.SegmentCatalog
	distances route.DistanceService
	producer  EventPublisher
	finderCfg route.FinderConfig
	logger    *zap.Logger
}

// NewRouteService creates a new RouteService.
func NewRouteService(
	catalog route.SegmentCatalog,
	distances route.DistanceService,
	producer EventPublisher,
	finderCfg route.FinderConfig,
	logger *zap.Logger,
) *RouteService {
	return &RouteService{
		catalog:   catalog,
		distances: distances,
		producer:  producer,
		finderCfg: finderCfg,
		logger:    logger,
	}
}

// Recommend assembles a loop route of roughly the requested round-trip
// distance starting at the given coordinate.
func (s *RouteService) Recommend(ctx context.Context, userID uuid.UUID, req RecommendRouteRequest) (*RouteDTO, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	origin := geo.Coord{Lat: req.Latitude, Lng: req.Longitude}
	requestID := uuid.New()

	// The assembler works toward half the round trip; mirroring doubles it
	// back at the end.
	finder := route.NewFinder(s.catalog, s.distances, s.finderCfg, origin, req.DistanceKm/2, s.logger)

	result, err := finder.Run(ctx)
	if err != nil {
		s.logger.Warn("recommendation run failed",
			zap.String("request_id", requestID.String()),
			zap.Float64("requested_km", req.DistanceKm),
			zap.Error(err),
		)
		return nil, err
	}

	s.publishRouteRecommended(ctx, requestID, userID, origin, req.DistanceKm, result, finder.Iterations())

	return &RouteDTO{
		RequestID:   requestID,
		Origin:      origin,
		Polyline:    result.Polyline,
		LengthKm:    result.LengthKm,
		RequestedKm: req.DistanceKm,
		Iterations:  finder.Iterations(),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

func validateRequest(req RecommendRouteRequest) error {
	if req.Latitude < -90 || req.Latitude > 90 {
		return route.NewValidationError("latitude must be between -90 and 90")
	}
	if req.Longitude < -180 || req.Longitude > 180 {
		return route.NewValidationError("longitude must be between -180 and 180")
	}
	if req.DistanceKm < 1 || req.DistanceKm > 100 {
		return route.NewValidationError("distance_km must be between 1 and 100")
	}
	return nil
}

// publishRouteRecommended emits the completion event. Publish failures are
// logged and never fail the request.
func (s *RouteService) publishRouteRecommended(
	ctx context.Context,
	requestID, userID uuid.UUID,
	origin geo.Coord,
	requestedKm float64,
	result route.Route,
	iterations int,
) {
	if s.producer == nil {
		return
	}

	evt := events.RouteRecommendedEvent{
		RequestID:   requestID,
		UserID:      userID,
		Origin:      origin,
		RequestedKm: requestedKm,
		FinalKm:     result.LengthKm,
		Iterations:  iterations,
		OccurredAt:  time.Now().UTC(),
	}
	ce, err := events.NewCloudEvent("service-routes", events.RouteRecommended, evt)
	if err != nil {
		s.logger.Error("failed to build route.recommended event", zap.Error(err))
		return
	}

	if err := s.producer.PublishEvent(ctx, events.TopicRouteEvents, requestID.String(), ce); err != nil {
		s.logger.Error("failed to publish route.recommended event",
			zap.String("request_id", requestID.String()),
			zap.Error(err),
		)
	}
}
