package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aditya/go-carpool/internal/cache"
	"github.com/aditya/go-carpool/internal/config"
	"github.com/aditya/go-carpool/internal/database"
	apperrors "github.com/aditya/go-carpool/internal/errors"
	"github.com/aditya/go-carpool/internal/events"
	"github.com/aditya/go-carpool/internal/handler"
	"github.com/aditya/go-carpool/internal/middleware"
	"github.com/aditya/go-carpool/internal/repository"
	"github.com/aditya/go-carpool/internal/service"
	"github.com/aditya/go-carpool/pkg/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type healthCheck func(ctx context.Context) error

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, app.cfg, app.logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	nrApp := newRelicApp(cfg, logger)
	if nrApp != nil {
		defer nrApp.Shutdown(5 * time.Second)
	}

	checks := map[string]healthCheck{}

	// Storage
	var store repository.Store
	if cfg.UseMemoryStorage() {
		logger.Warn("using in-memory storage; data is lost on restart")
		store = repository.NewMemoryStore()
	} else {
		db, err := database.NewPostgres(ctx, postgresOptions(cfg))
		if err != nil {
			return err
		}
		defer db.Close()
		logger.Info("connected to PostgreSQL")

		if cfg.RunMigrations {
			if err := migrate(ctx, db, logger); err != nil {
				return err
			}
		}
		store = repository.NewPostgresStore(db.DB)
		checks["database"] = db.Health
	}

	// Redis backs the active trip cache, rate limiting and idempotency keys.
	var (
		redisDB     *database.RedisDB
		activeTrips cache.ActiveTripCache
	)
	if cfg.RedisURL != "" {
		var err error
		redisDB, err = database.NewRedis(cfg.RedisURL, cfg.RedisPassword)
		if err != nil {
			return err
		}
		defer redisDB.Close()
		logger.Info("connected to Redis")

		activeTrips = cache.NewActiveTripCache(redisDB.Client, cfg.ActiveTripTTL)
		checks["redis"] = redisDB.Health
	} else {
		activeTrips = cache.NewMemoryActiveTripCache(cfg.ActiveTripTTL)
	}

	// Lifecycle events
	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		logger.Info("publishing lifecycle events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}

	coordinator := service.NewTripCoordinator(store, publisher, activeTrips, logger.Named("coordinator"), service.CoordinatorConfig{
		LegacyRefusal: cfg.LegacyRefusal,
	})

	tripHandler := handler.NewTripHandler(coordinator)
	personHandler := handler.NewPersonHandler(store, logger)
	auth := middleware.NewAuthMiddleware(cfg.JWTSecret, store, logger)

	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger.Named("http")))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.IdempotencyHeader},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if nrApp != nil {
		r.Use(middleware.NewRelicMiddleware(nrApp))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.Error(w, apperrors.NotFound("route"))
	})

	r.Get("/health", healthHandler(checks))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(auth.Handler)
		if redisDB != nil {
			r.Use(middleware.NewRateLimiter(redisDB.Client, cfg.RateLimitRequests, cfg.RateLimitWindow, logger).Handler)
			r.Use(middleware.NewIdempotencyMiddleware(redisDB.Client, logger).Handler)
		}

		tripHandler.RegisterRoutes(r)
		personHandler.RegisterRoutes(r)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped gracefully")
	return nil
}

func newRelicApp(cfg *config.Config, logger *zap.Logger) *newrelic.Application {
	if !cfg.NewRelicEnabled || cfg.NewRelicLicenseKey == "" {
		return nil
	}

	nrApp, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.NewRelicAppName),
		newrelic.ConfigLicense(cfg.NewRelicLicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		newrelic.ConfigAppLogForwardingEnabled(true),
		newrelic.ConfigInfoLogger(os.Stdout),
	)
	if err != nil {
		logger.Warn("failed to initialize New Relic", zap.Error(err))
		return nil
	}

	if err := nrApp.WaitForConnection(10 * time.Second); err != nil {
		logger.Warn("New Relic connection timeout", zap.Error(err))
	} else {
		logger.Info("New Relic connected")
	}
	return nrApp
}

func healthHandler(checks map[string]healthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		services := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				services[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			services[name] = "up"
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":   overall,
			"services": services,
		})
	}
}
