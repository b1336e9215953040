package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stridemaps/service-routes/internal/application"
	"github.com/stridemaps/service-routes/internal/auth"
	"github.com/stridemaps/service-routes/internal/config"
	"github.com/stridemaps/service-routes/internal/domain/route"
	"github.com/stridemaps/service-routes/internal/events"
	"github.com/stridemaps/service-routes/internal/gateway"
	"github.com/stridemaps/service-routes/internal/handler"
	"github.com/stridemaps/service-routes/internal/logger"
	"github.com/stridemaps/service-routes/internal/middleware"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-routes")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-routes",
		zap.String("port", cfg.Port),
	)

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, 15*time.Minute)

	// Initialize Kafka producer
	producer := events.NewProducer(cfg.KafkaBrokers, log)
	defer func() { _ = producer.Close() }()

	// Initialize external gateways
	catalog := gateway.NewStravaCatalog(gateway.StravaConfig{
		ClientID:     cfg.Strava.ClientID,
		ClientSecret: cfg.Strava.ClientSecret,
		RefreshToken: cfg.Strava.RefreshToken,
	}, nil, log)
	distances := gateway.NewGoogleDistances(gateway.GoogleConfig{
		APIKey: cfg.Google.APIKey,
	}, nil, log)

	// Initialize application service
	routeService := application.NewRouteService(
		catalog,
		distances,
		producer,
		route.FinderConfig{
			InitialBoxKm:    cfg.Finder.InitialBoxKm,
			TopK:            cfg.Finder.TopK,
			DownsampleRatio: cfg.Finder.DownsampleRatio,
			MaxBoxDoublings: cfg.Finder.MaxBoxDoublings,
			MaxIterations:   cfg.Finder.MaxIterations,
		},
		log,
	)

	// Initialize HTTP handlers
	routeHandler := handler.NewRouteHandler(routeService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := handler.NewHealthHandler("service-routes")
	healthHandler.RegisterRoutes(router)

	// Register routes
	routeHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-routes...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-routes stopped")
}
