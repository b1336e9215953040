//go:build integration

package main_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"go.uber.org/zap"

	"github.com/stridemaps/service-routes/internal/application"
	"github.com/stridemaps/service-routes/internal/auth"
	"github.com/stridemaps/service-routes/internal/domain/route"
	"github.com/stridemaps/service-routes/internal/events"
	"github.com/stridemaps/service-routes/internal/gateway"
	"github.com/stridemaps/service-routes/internal/geo"
	"github.com/stridemaps/service-routes/internal/handler"
	"github.com/stridemaps/service-routes/internal/polyline"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	KafkaBrokers []string
	Cleanup      func()
}

// routeStack holds a fully wired service behind an in-process gin router.
type routeStack struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
	Cleanup    func()
}

// setupKafka starts a Kafka testcontainer and pre-creates the event topic.
func setupKafka(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	// confluent-local supports KRaft natively, no zookeeper needed.
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, brokers, events.TopicRouteEvents)

	cleanup := func() {
		if err := testcontainers.TerminateContainer(kafkaContainer); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
	}

	return &testInfra{KafkaBrokers: brokers, Cleanup: cleanup}
}

// startStravaStub serves the OAuth token endpoint and a segment explore
// endpoint that always returns one running segment near the test origin.
func startStravaStub(t *testing.T, segments ...stubSegment) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "refresh_token", r.FormValue("grant_type"))
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "integration-token",
			"expires_at":   time.Now().Add(6 * time.Hour).Unix(),
		})
	})

	mux.HandleFunc("/api/v3/segments/explore", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer integration-token", r.Header.Get("Authorization"))
		out := make([]map[string]any, 0, len(segments))
		for _, s := range segments {
			out = append(out, map[string]any{
				"id":           s.ID,
				"name":         s.Name,
				"start_latlng": [2]float64{s.Path[0].Lat, s.Path[0].Lng},
				"end_latlng":   [2]float64{s.Path[len(s.Path)-1].Lat, s.Path[len(s.Path)-1].Lng},
				"points":       polyline.Encode(s.Path),
				"distance":     geo.PathLengthKm(s.Path) * 1000,
			})
		}
		json.NewEncoder(w).Encode(map[string]any{"segments": out})
	})

	return httptest.NewServer(mux)
}

type stubSegment struct {
	ID   int64
	Name string
	Path []geo.Coord
}

// startGoogleStub serves distance matrix and directions endpoints that answer
// with the straight-line walking distance between the requested coordinates.
func startGoogleStub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	parseCoord := func(raw string) geo.Coord {
		var c geo.Coord
		_, err := fmt.Sscanf(raw, "%f,%f", &c.Lat, &c.Lng)
		require.NoError(t, err)
		return c
	}

	mux.HandleFunc("/maps/api/distancematrix/json", func(w http.ResponseWriter, r *http.Request) {
		from := parseCoord(r.URL.Query().Get("origins"))
		to := parseCoord(r.URL.Query().Get("destinations"))
		json.NewEncoder(w).Encode(map[string]any{
			"status": "OK",
			"rows": []map[string]any{{
				"elements": []map[string]any{{
					"status":   "OK",
					"distance": map[string]any{"value": geo.HaversineKm(from, to) * 1000},
				}},
			}},
		})
	})

	mux.HandleFunc("/maps/api/directions/json", func(w http.ResponseWriter, r *http.Request) {
		from := parseCoord(r.URL.Query().Get("origin"))
		to := parseCoord(r.URL.Query().Get("destination"))
		json.NewEncoder(w).Encode(map[string]any{
			"status": "OK",
			"routes": []map[string]any{{
				"overview_polyline": map[string]any{"points": polyline.Encode([]geo.Coord{from, to})},
				"legs": []map[string]any{{
					"distance": map[string]any{"value": geo.HaversineKm(from, to) * 1000},
				}},
			}},
		})
	})

	return httptest.NewServer(mux)
}

// setupRouteStack wires the full service against the stub providers and a real
// Kafka producer.
func setupRouteStack(t *testing.T, brokers []string, stravaURL, googleURL string) *routeStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	catalog := gateway.NewStravaCatalog(gateway.StravaConfig{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		RefreshToken: "test-refresh",
		BaseURL:      stravaURL + "/api/v3",
		TokenURL:     stravaURL + "/oauth/token",
	}, nil, logger)

	distances := gateway.NewGoogleDistances(gateway.GoogleConfig{
		APIKey:            "test-key",
		DistanceMatrixURL: googleURL + "/maps/api/distancematrix/json",
		DirectionsURL:     googleURL + "/maps/api/directions/json",
	}, nil, logger)

	producer := events.NewProducer(brokers, logger)

	svc := application.NewRouteService(catalog, distances, producer, route.FinderConfig{
		InitialBoxKm:    30,
		TopK:            3,
		DownsampleRatio: 2,
		MaxBoxDoublings: 3,
		MaxIterations:   25,
	}, logger)

	jwtManager := auth.NewJWTManager("integration-secret", time.Hour)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler.NewRouteHandler(svc).RegisterRoutes(&r.RouterGroup, jwtManager)

	return &routeStack{
		Router:     r,
		JWTManager: jwtManager,
		Cleanup:    func() { _ = producer.Close() },
	}
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the
// expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) events.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		var ce events.CloudEvent
		if err := json.Unmarshal(msg.Value, &ce); err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so the producer doesn't fail with
// "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
