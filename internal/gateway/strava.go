package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/stridemaps/service-routes/internal/domain/route"
	"github.com/stridemaps/service-routes/internal/geo"
)

const (
	defaultStravaBaseURL  = "https://www.strava.com/api/v3"
	defaultStravaTokenURL = "https://www.strava.com/oauth/token"

	// tokenExpirySlack refreshes the access token slightly before the
	// provider-reported expiry to avoid racing it.
	tokenExpirySlack = 60 * time.Second
)

// StravaConfig holds credentials and endpoints for the Strava segment catalog.
// BaseURL and TokenURL default to the public API when empty; tests point them
// at local stubs.
type StravaConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	BaseURL      string
	TokenURL     string
}

// StravaCatalog implements route.SegmentCatalog against the Strava segment
// explore API, refreshing its OAuth access token from the configured refresh
// token as needed. One instance is shared across requests; the token cache is
// guarded by a mutex so concurrent Explore calls refresh at most once.
type StravaCatalog struct {
	cfg        StravaConfig
	httpClient *http.Client
	logger     *zap.Logger

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

// NewStravaCatalog creates a StravaCatalog. A nil httpClient falls back to a
// client with a 10s timeout.
func NewStravaCatalog(cfg StravaConfig, httpClient *http.Client, logger *zap.Logger) *StravaCatalog {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultStravaBaseURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultStravaTokenURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &StravaCatalog{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Explore returns running segments inside a bounding box centered on center
// with the given diagonal. The box corners are the geodesic destinations at
// bearings 225 and 45, half a diagonal away. An empty result is returned as an
// empty slice, not an error.
func (c *StravaCatalog) Explore(ctx context.Context, center geo.Coord, diagKm float64) ([]route.Segment, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	bottomLeft := geo.Destination(center, 225, diagKm/2)
	upperRight := geo.Destination(center, 45, diagKm/2)

	params := url.Values{}
	params.Set("activity_type", "running")
	params.Set("bounds", fmt.Sprintf("%f,%f,%f,%f",
		bottomLeft.Lat, bottomLeft.Lng, upperRight.Lat, upperRight.Lng))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+"/segments/explore?"+params.Encode(), nil)
	if err != nil {
		return nil, route.NewGatewayError("strava segment explore", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, route.NewGatewayError("strava segment explore", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, route.NewAuthError(fmt.Errorf("segment explore returned %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, route.NewGatewayError("strava segment explore",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var data struct {
		Segments []struct {
			ID            int64      `json:"id"`
			Name          string     `json:"name"`
			StartLatLng   [2]float64 `json:"start_latlng"`
			EndLatLng     [2]float64 `json:"end_latlng"`
			Points        string     `json:"points"`
			Distance      float64    `json:"distance"`
			ElevDiff      float64    `json:"elev_difference"`
			AvgGrade      float64    `json:"avg_grade"`
			ClimbCategory int        `json:"climb_category"`
		} `json:"segments"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, route.NewGatewayError("strava segment explore", fmt.Errorf("decode response: %w", err))
	}

	segments := make([]route.Segment, 0, len(data.Segments))
	for _, s := range data.Segments {
		segments = append(segments, route.Segment{
			ID:       s.ID,
			Name:     s.Name,
			Start:    geo.Coord{Lat: s.StartLatLng[0], Lng: s.StartLatLng[1]},
			Polyline: s.Points,
			LengthKm: s.Distance / 1000,
			Details: map[string]any{
				"id":              s.ID,
				"name":            s.Name,
				"start_latlng":    s.StartLatLng,
				"end_latlng":      s.EndLatLng,
				"elev_difference": s.ElevDiff,
				"avg_grade":       s.AvgGrade,
				"climb_category":  s.ClimbCategory,
			},
		})
	}

	c.logger.Debug("segment explore completed",
		zap.Float64("diag_km", diagKm),
		zap.Int("segments", len(segments)),
	)
	return segments, nil
}

// ensureToken returns a valid access token, refreshing it through the OAuth
// refresh-token grant when missing or close to expiry.
func (c *StravaCatalog) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.expiresAt.Add(-tokenExpirySlack)) {
		return c.accessToken, nil
	}

	payload := url.Values{}
	payload.Set("client_id", c.cfg.ClientID)
	payload.Set("client_secret", c.cfg.ClientSecret)
	payload.Set("refresh_token", c.cfg.RefreshToken)
	payload.Set("grant_type", "refresh_token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL,
		strings.NewReader(payload.Encode()))
	if err != nil {
		return "", route.NewAuthError(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", route.NewAuthError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", route.NewAuthError(fmt.Errorf("token refresh returned %d", resp.StatusCode))
	}

	var data struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   int64  `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", route.NewAuthError(fmt.Errorf("decode token response: %w", err))
	}
	if data.AccessToken == "" {
		return "", route.NewAuthError(fmt.Errorf("token refresh returned an empty access token"))
	}

	c.accessToken = data.AccessToken
	c.expiresAt = time.Unix(data.ExpiresAt, 0)

	c.logger.Debug("refreshed catalog access token",
		zap.Time("expires_at", c.expiresAt),
	)
	return c.accessToken, nil
}
