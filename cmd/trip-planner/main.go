package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/draymaster/trip-planner/internal/api"
	"github.com/draymaster/trip-planner/internal/config"
	"github.com/draymaster/trip-planner/internal/kafka"
	"github.com/draymaster/trip-planner/internal/logger"
	"github.com/draymaster/trip-planner/internal/route"
	"github.com/draymaster/trip-planner/internal/service"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.Service.Name, cfg.Service.Environment, cfg.Service.LogLevel)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Infow("Starting service",
		"service", cfg.Service.Name,
		"version", Version,
		"build_time", BuildTime,
		"environment", cfg.Service.Environment,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Redis geocode cache (optional)
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warnw("Redis unavailable, geocode caching disabled", "error", err)
			redisClient = nil
		} else {
			log.Info("Connected to Redis")
			defer redisClient.Close()
		}
	}

	// Initialize Kafka producer (optional)
	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, log)
		defer producer.Close()
		log.Info("Kafka producer initialized")
	}

	// Initialize collaborators and service
	geocoder := route.NewGeocoder(cfg.Routing, redisClient, log)
	router := route.NewRouter(cfg.Routing, log)
	tripService := service.NewTripService(geocoder, router, cfg.Rules, producer, log)

	// Initialize HTTP server
	mux := http.NewServeMux()
	handler := api.NewHandler(tripService, log)
	handler.Register(mux)

	var root http.Handler = mux
	root = api.LoggingMiddleware(log)(root)
	root = api.RecoveryMiddleware(log)(root)
	root = api.RequestIDMiddleware(root)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      root,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Infow("HTTP server starting", "port", cfg.Server.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", "error", err)
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Graceful shutdown failed", "error", err)
	}

	log.Info("Service stopped")
}
