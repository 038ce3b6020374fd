package main

import (
	"context"   // Shutdown deadline and Redis ping
	"errors"    // http.ErrServerClosed check
	"net/http"  // HTTP server
	"os"        // Signals
	"os/signal" // Graceful shutdown
	"syscall"   // SIGTERM
	"time"      // Timeouts

	"wallet_ledger/internal/api"    // HTTP handlers and router
	"wallet_ledger/internal/config" // Configuration
	"wallet_ledger/internal/db"     // Database lifecycle and migrations
	"wallet_ledger/internal/ledger" // Ledger service
	"wallet_ledger/internal/store"  // Storage layer

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration
	log := setupLogger(cfg)    // Setup logger

	// Connect to the database
	gdb, err := db.Open(cfg, log)
	if err != nil {
		log.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			log.WithError(err).Error("Failed to close database")
		}
	}()

	// Migrate the schema on start unless disabled
	if cfg.RunMigrations {
		if err := db.Migrate(gdb, log); err != nil {
			log.Fatalf("failed to migrate DB: %v", err)
		}
	}

	// Setup Redis client, caching and idempotency are skipped without it
	var rdb redis.Cmdable
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		defer client.Close()
		// Test Redis connection
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.WithError(err).Warn("Redis unreachable, caching disabled")
		} else {
			rdb = client
		}
	}

	// Wire the ledger
	st := store.New(gdb)
	opts := []ledger.Option{ledger.WithLogger(log)}
	if rdb != nil {
		opts = append(opts, ledger.WithCache(rdb))
	}
	svc := ledger.NewService(st, store.NewTxManager(gdb, log), opts...)

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}
	r := api.NewRouter(api.Deps{
		Service:          svc,
		DB:               gdb,
		Redis:            rdb,
		CacheTTL:         cfg.CacheTTL,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
		Log:              log,
	})
	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		log.Fatalf("failed to set trusted proxies: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("port", cfg.AppPort).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	// Wait for an interrupt, then drain in-flight requests
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Forced shutdown")
	}
}

// setupLogger configures the standard logrus logger: text in dev, JSON in production
func setupLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.StandardLogger()
	if cfg.IsProd {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}
