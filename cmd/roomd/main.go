package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/joho/godotenv"

	"room-reservation-backend/config"
	"room-reservation-backend/internal/api"
	"room-reservation-backend/internal/auth"
	"room-reservation-backend/internal/db"
	"room-reservation-backend/internal/mq"
	"room-reservation-backend/internal/notification"
	"room-reservation-backend/internal/obs"
	"room-reservation-backend/internal/policy"
	"room-reservation-backend/internal/reservation"
	"room-reservation-backend/internal/store"
)

func main() {
	logger := log.New(os.Stdout, "roomd ", log.LstdFlags)

	// A .env file is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Printf("[WARN] failed to read .env: %v", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	if cfg.Auth.JWTSecret == "" {
		logger.Fatalf("auth.jwt_secret must be configured")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := obs.InitTracer(ctx, cfg.Tracing)
	if err != nil {
		logger.Fatalf("failed to initialize tracing: %v", err)
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	appStore := store.NewGormStore(gormDB)

	publisher, err := mq.New(cfg.Events)
	if err != nil {
		logger.Fatalf("failed to connect to the event broker: %v", err)
	}

	opts := []reservation.Option{
		reservation.WithPublisher(publisher),
		reservation.WithSearchLimits(cfg.Booking.SearchLimit, cfg.Booking.MaxSearchLimit),
	}

	var webpushOptions *webpush.Options
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, webpushOptions)
		pool.Start(ctx)
		opts = append(opts, reservation.WithNotifier(pool))
		logger.Printf("push notifications enabled with %d workers", cfg.WorkerPool.Size)
	} else {
		logger.Println("[WARN] VAPID keys are not configured, push notifications are disabled")
	}

	svc := reservation.NewService(appStore, policy.FromConfig(cfg.Booking), opts...)
	verifier := auth.NewVerifier(cfg.Auth.JWTSecret)

	router := api.NewRouter(svc, appStore, webpushOptions, verifier, cfg.Server)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP server Shutdown: %v", err)
	}
	cancel()

	if err := publisher.Close(); err != nil {
		logger.Printf("[WARN] failed to close event publisher: %v", err)
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Printf("[WARN] failed to flush traces: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
