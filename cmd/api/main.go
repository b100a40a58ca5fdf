package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/providerdirectory/internal/adapters/cache"
	"github.com/zatekoja/providerdirectory/internal/adapters/database"
	"github.com/zatekoja/providerdirectory/internal/adapters/directorysource"
	"github.com/zatekoja/providerdirectory/internal/adapters/events"
	"github.com/zatekoja/providerdirectory/internal/adapters/providers/geolocation"
	"github.com/zatekoja/providerdirectory/internal/api/handlers"
	"github.com/zatekoja/providerdirectory/internal/api/middleware"
	"github.com/zatekoja/providerdirectory/internal/api/routes"
	"github.com/zatekoja/providerdirectory/internal/application/services"
	"github.com/zatekoja/providerdirectory/internal/domain/providers"
	"github.com/zatekoja/providerdirectory/internal/infrastructure/clients/redis"
	"github.com/zatekoja/providerdirectory/internal/infrastructure/observability"
	"github.com/zatekoja/providerdirectory/pkg/config"
)

func main() {

	// Load configuration

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env, cfg.Server.LogLevel)

	// Set up context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Directory sources
	source, err := directorysource.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("source", cfg.Directory.Source).Msg("failed to open directory source")
	}
	defer source.Close()

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		// Continue without Redis - every request reads the source directly
		log.Warn().Err(err).Msg("failed to initialize Redis client; caching disabled")
	} else {
		defer redisClient.Close()
	}

	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
	}

	doctors, clinics, specialties, cities := source.Doctors, source.Clinics, source.Specialties, source.Cities

	// Wrap with caching if Redis is available
	if cacheProvider != nil {
		dc := database.NewDirectoryCache(cacheProvider, cfg.Directory.CacheTTL, metrics)
		doctors = dc.Doctors(doctors)
		clinics = dc.Clinics(clinics)
		specialties = dc.Specialties(specialties)
		cities = dc.Cities(cities)
		log.Info().Dur("ttl", cfg.Directory.CacheTTL).Msg("directory repositories wrapped with caching layer")
	}

	// Initialize cache invalidation service
	var invalidation *services.CacheInvalidationService
	if cacheProvider != nil && eventBus != nil {
		invalidation = services.NewCacheInvalidationService(cacheProvider, eventBus)
		if err := invalidation.Start(); err != nil {
			log.Warn().Err(err).Msg("failed to start cache invalidation service")
			invalidation = nil
		}
	}

	// Start cache warming from the uncached sources
	if cacheProvider != nil && cfg.Directory.WarmInterval > 0 {
		warming := services.NewCacheWarmingService(
			source.Doctors, source.Clinics, source.Specialties, source.Cities,
			cacheProvider, cfg.Directory.CacheTTL,
		)
		go warming.StartPeriodicWarming(ctx, cfg.Directory.WarmInterval)
	}

	var geolocationProvider providers.GeolocationProvider
	switch cfg.Geolocation.Provider {
	case "google":
		if cfg.Geolocation.APIKey == "" {
			log.Warn().Msg("GEOLOCATION_API_KEY is not set; using mock geolocation provider")
			geolocationProvider = geolocation.NewMockGeolocationProvider()
		} else {
			geolocationProvider = geolocation.NewGoogleGeolocationProvider(cfg.Geolocation.APIKey, cacheProvider,
				geolocation.GoogleOptions{Region: cfg.Geolocation.Region})
		}
	default:
		geolocationProvider = geolocation.NewMockGeolocationProvider()
	}

	// Initialize services

	directoryService := services.NewDirectoryService(doctors, clinics, specialties, cities, services.DirectoryOptions{
		Locale:          cfg.Directory.Locale,
		SessionTTL:      cfg.Directory.SessionTTL,
		LocationTimeout: cfg.Geolocation.Timeout,
		Metrics:         metrics,
	})

	// Initialize handlers and middleware

	opts := routes.Options{
		Metrics:        metrics,
		AllowedOrigins: middleware.ParseAllowedOrigins(cfg.Server.AllowedOrigins),
	}
	if cacheProvider != nil {
		opts.CacheMiddleware = middleware.NewCacheMiddleware(cacheProvider, map[string]int{
			"/api/specialties": 300,
			"/api/cities":      300,
		})
	}
	if cfg.RateLimit.RPS > 0 {
		opts.RateLimiter = middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}

	router := routes.NewRouter(
		handlers.NewDirectoryHandler(directoryService),
		handlers.NewSessionHandler(directoryService.Doctors, geolocationProvider),
		handlers.NewSessionHandler(directoryService.Clinics, geolocationProvider),
		handlers.NewGeolocationHandler(geolocationProvider),
		opts,
	)

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Geolocation.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", serverAddr).Str("source", cfg.Directory.Source).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("server shutting down")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	if invalidation != nil {
		invalidation.Stop()
	}
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("error closing event bus")
		}
	}

	log.Info().Msg("server stopped")
}
