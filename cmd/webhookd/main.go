package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/bizlink-systems/bizlink-webhooks/internal/config"
	"github.com/bizlink-systems/bizlink-webhooks/internal/dispatch"
	"github.com/bizlink-systems/bizlink-webhooks/internal/handlers"
	"github.com/bizlink-systems/bizlink-webhooks/internal/logging"
	"github.com/bizlink-systems/bizlink-webhooks/internal/models"
	"github.com/bizlink-systems/bizlink-webhooks/internal/pipeline"
	"github.com/bizlink-systems/bizlink-webhooks/internal/ratelimit"
	"github.com/bizlink-systems/bizlink-webhooks/internal/server"
	"github.com/bizlink-systems/bizlink-webhooks/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("webhookd"))
	logging.SetDefault(logger)

	slog.Info("Starting webhook ingestion service",
		slog.Int("port", cfg.Server.Port),
		slog.String("store_backend", cfg.Store.Backend),
		slog.String("log_level", cfg.Logging.Level),
	)

	// Envelope store
	var envelopeStore store.Store
	switch cfg.Store.Backend {
	case "postgres":
		connString := cfg.Store.Postgres.ConnString()

		log.Println("Running database migrations...")
		m, err := migrate.New("file://migrations", connString)
		if err != nil {
			log.Fatalf("Failed to initialize migrations: %v", err)
		}
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		log.Println("Database migrations completed")

		pg, err := store.NewPostgresStore(context.Background(), connString)
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		envelopeStore = pg
	case "memory":
		log.Println("WARNING: memory store selected, envelopes will not survive a restart")
		envelopeStore = store.NewMemoryStore()
	default:
		log.Fatalf("Unknown store backend: %s (supported: postgres, memory)", cfg.Store.Backend)
	}
	defer envelopeStore.Close()

	// Downstream handler
	var handler pipeline.Handler
	if cfg.Dispatch.Enabled {
		pub, err := dispatch.NewPublisher(dispatch.Config{
			URL:           cfg.Dispatch.NatsURL,
			Name:          "webhookd-dispatcher",
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
			Timeout:       5 * time.Second,
			FlushTimeout:  cfg.Dispatch.FlushTimeout,
		})
		if err != nil {
			log.Fatalf("Failed to connect dispatcher to NATS: %v", err)
		}
		defer pub.Close()
		handler = pub.Handle
		log.Printf("Dispatcher enabled (nats: %s)", cfg.Dispatch.NatsURL)
	} else {
		// No consumer wired; log and accept so the pipeline stays exercisable
		// in development.
		handler = func(ctx context.Context, env *models.Envelope) error {
			slog.InfoContext(ctx, "event dispatched (no-op handler)",
				logging.EventID(env.ID),
				logging.Source(env.Source),
				logging.Category(env.Category),
			)
			return nil
		}
		log.Println("Dispatch disabled - using logging no-op handler")
	}

	// Pipeline
	pipe, err := pipeline.New(envelopeStore, handler, pipeline.Config{
		MaxRetries:      cfg.Pipeline.MaxRetries,
		MonitorInterval: cfg.Pipeline.MonitorInterval,
	})
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	// Recover unfinished work before accepting new traffic
	recovered, err := pipe.Recover(context.Background())
	if err != nil {
		log.Fatalf("Failed to recover unfinished envelopes: %v", err)
	}
	log.Printf("Recovery complete: %d envelope(s) re-queued", recovered)

	pipe.StartMonitor()
	defer pipe.Stop()

	// Background janitor
	if cfg.Retention.Interval > 0 {
		retention := time.Duration(cfg.Retention.Hours) * time.Hour
		janitorCtx, janitorCancel := context.WithCancel(context.Background())
		defer janitorCancel()
		go func() {
			ticker := time.NewTicker(cfg.Retention.Interval)
			defer ticker.Stop()
			for {
				select {
				case <-janitorCtx.Done():
					return
				case <-ticker.C:
					if _, err := pipe.Cleanup(janitorCtx, retention); err != nil {
						slog.Error("janitor cleanup failed", logging.Error(err))
					}
				}
			}
		}()
		log.Printf("Retention janitor enabled (every %s, retention %dh)", cfg.Retention.Interval, cfg.Retention.Hours)
	}

	// Rate limiter
	var limiter ratelimit.RateLimiter
	if cfg.RateLimit.Enabled {
		rl, err := ratelimit.NewRedisRateLimiter(cfg.RateLimit.RedisURL, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		if err != nil {
			log.Printf("WARNING: Failed to initialize Redis rate limiter: %v", err)
			log.Println("Continuing without rate limiting")
			limiter = &ratelimit.NoOpRateLimiter{}
		} else {
			limiter = rl
			log.Printf("Rate limiting enabled: %d requests per %s", cfg.RateLimit.Requests, cfg.RateLimit.Window)
		}
	} else {
		limiter = &ratelimit.NoOpRateLimiter{}
		log.Println("Rate limiting disabled in configuration")
	}
	defer limiter.Close()

	// HTTP surface
	webhookHandler := handlers.NewWebhookHandler(pipe, limiter, cfg.Retention.Hours)
	router := server.NewRouter(webhookHandler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("Webhook service listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
