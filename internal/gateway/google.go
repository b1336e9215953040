package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/stridemaps/service-routes/internal/domain/route"
	"github.com/stridemaps/service-routes/internal/geo"
)

const (
	defaultDistanceMatrixURL = "https://maps.googleapis.com/maps/api/distancematrix/json"
	defaultDirectionsURL     = "https://maps.googleapis.com/maps/api/directions/json"
)

// GoogleConfig holds the API key and endpoints for the Google Maps distance
// matrix and directions APIs. URLs default to the public endpoints when empty.
type GoogleConfig struct {
	APIKey            string
	DistanceMatrixURL string
	DirectionsURL     string
}

// GoogleDistances implements route.DistanceService against the Google Maps
// web APIs, always in walking mode.
type GoogleDistances struct {
	cfg        GoogleConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewGoogleDistances creates a GoogleDistances. A nil httpClient falls back to
// a client with a 10s timeout.
func NewGoogleDistances(cfg GoogleConfig, httpClient *http.Client, logger *zap.Logger) *GoogleDistances {
	if cfg.DistanceMatrixURL == "" {
		cfg.DistanceMatrixURL = defaultDistanceMatrixURL
	}
	if cfg.DirectionsURL == "" {
		cfg.DirectionsURL = defaultDirectionsURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &GoogleDistances{cfg: cfg, httpClient: httpClient, logger: logger}
}

// WalkingDistance returns the walking distance in kilometers between two
// coordinates via the distance matrix API. Returns route.ErrNoRoute when the
// provider reports no result for the pair.
func (g *GoogleDistances) WalkingDistance(ctx context.Context, from, to geo.Coord) (float64, error) {
	params := url.Values{}
	params.Set("origins", fmt.Sprintf("%f,%f", from.Lat, from.Lng))
	params.Set("destinations", fmt.Sprintf("%f,%f", to.Lat, to.Lng))
	params.Set("mode", "walking")
	params.Set("key", g.cfg.APIKey)

	var data struct {
		Status string `json:"status"`
		Rows   []struct {
			Elements []struct {
				Status   string `json:"status"`
				Distance struct {
					Value float64 `json:"value"`
				} `json:"distance"`
			} `json:"elements"`
		} `json:"rows"`
	}
	if err := g.get(ctx, "google distance matrix", g.cfg.DistanceMatrixURL, params, &data); err != nil {
		return 0, err
	}

	if data.Status != "OK" || len(data.Rows) == 0 || len(data.Rows[0].Elements) == 0 {
		return 0, route.NewGatewayError("google distance matrix",
			fmt.Errorf("unexpected response status %q", data.Status))
	}

	element := data.Rows[0].Elements[0]
	if element.Status != "OK" {
		return 0, route.ErrNoRoute
	}
	return element.Distance.Value / 1000, nil
}

// WalkingRoute returns the walking path between two coordinates via the
// directions API, as a Route whose polyline is the overview polyline and whose
// length is the leg distance. Returns route.ErrNoRoute when the provider
// cannot route the pair.
func (g *GoogleDistances) WalkingRoute(ctx context.Context, from, to geo.Coord) (route.Route, error) {
	params := url.Values{}
	params.Set("origin", fmt.Sprintf("%f,%f", from.Lat, from.Lng))
	params.Set("destination", fmt.Sprintf("%f,%f", to.Lat, to.Lng))
	params.Set("mode", "walking")
	params.Set("key", g.cfg.APIKey)

	var data struct {
		Status string `json:"status"`
		Routes []struct {
			OverviewPolyline struct {
				Points string `json:"points"`
			} `json:"overview_polyline"`
			Legs []struct {
				Distance struct {
					Value float64 `json:"value"`
				} `json:"distance"`
			} `json:"legs"`
		} `json:"routes"`
	}
	if err := g.get(ctx, "google directions", g.cfg.DirectionsURL, params, &data); err != nil {
		return route.Route{}, err
	}

	if data.Status == "ZERO_RESULTS" || (data.Status == "OK" && len(data.Routes) == 0) {
		return route.Route{}, route.ErrNoRoute
	}
	if data.Status != "OK" {
		return route.Route{}, route.NewGatewayError("google directions",
			fmt.Errorf("unexpected response status %q", data.Status))
	}

	r := data.Routes[0]
	if len(r.Legs) == 0 {
		return route.Route{}, route.NewGatewayError("google directions",
			fmt.Errorf("route has no legs"))
	}

	return route.New(r.OverviewPolyline.Points, r.Legs[0].Distance.Value/1000, nil), nil
}

func (g *GoogleDistances) get(ctx context.Context, op, baseURL string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return route.NewGatewayError(op, err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return route.NewGatewayError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return route.NewGatewayError(op, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return route.NewGatewayError(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
