package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/providerdirectory/internal/adapters/directorysource"
	"github.com/zatekoja/providerdirectory/internal/adapters/events"
	"github.com/zatekoja/providerdirectory/internal/adapters/search"
	"github.com/zatekoja/providerdirectory/internal/domain/entities"
	"github.com/zatekoja/providerdirectory/internal/domain/providers"
	"github.com/zatekoja/providerdirectory/internal/infrastructure/clients/redis"
	"github.com/zatekoja/providerdirectory/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/providerdirectory/internal/infrastructure/observability"
	"github.com/zatekoja/providerdirectory/pkg/config"
)

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete existing Typesense collections before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-indexer", cfg.Server.Env, cfg.Server.LogLevel)

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatal().Err(err).Str("interval", intervalValue).Msg("invalid interval")
		}
		if interval <= 0 {
			log.Fatal().Msg("interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, cfg, reset || os.Getenv("RESET_TYPESENSE") == "true"); err != nil {
			log.Error().Err(err).Msg("reindex failed")
		}

		if interval <= 0 {
			break
		}

		reset = false
		log.Info().Dur("next_run_in", interval).Msg("reindex complete")

		select {
		case <-ctx.Done():
			log.Info().Msg("reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, cfg *config.Config, reset bool) error {
	source, err := directorysource.Open(cfg)
	if err != nil {
		return err
	}
	defer source.Close()

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		return err
	}

	if reset {
		for _, name := range []string{search.DoctorsCollection, search.ClinicsCollection} {
			log.Info().Str("collection", name).Msg("deleting collection before reindex")
			if _, err := tsClient.Client().Collection(name).Delete(ctx); err != nil {
				log.Warn().Err(err).Str("collection", name).Msg("failed to delete collection")
			}
		}
	}

	adapter := search.NewTypesenseAdapter(tsClient)
	if err := adapter.InitSchema(ctx); err != nil {
		return err
	}

	doctors, err := source.Doctors.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list doctors: %w", err)
	}
	indexedDoctors, err := adapter.IndexDoctors(ctx, doctors)
	if err != nil {
		log.Warn().Err(err).Int("indexed", indexedDoctors).Int("total", len(doctors)).Msg("some doctors failed to index")
	}

	clinics, err := source.Clinics.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list clinics: %w", err)
	}
	indexedClinics, err := adapter.IndexClinics(ctx, clinics)
	if err != nil {
		log.Warn().Err(err).Int("indexed", indexedClinics).Int("total", len(clinics)).Msg("some clinics failed to index")
	}

	log.Info().Int("doctors", indexedDoctors).Int("clinics", indexedClinics).Msg("directory indexed")

	notifyUpdated(ctx, cfg)
	return nil
}

// notifyUpdated tells running API instances to drop their cached collections.
func notifyUpdated(ctx context.Context, cfg *config.Config) {
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable; skipping directory update events")
		return
	}
	defer redisClient.Close()

	bus := events.NewRedisEventBus(redisClient)
	defer bus.Close()

	for _, t := range []entities.DirectoryEventType{
		entities.DirectoryEventDoctorsUpdated,
		entities.DirectoryEventClinicsUpdated,
	} {
		if err := bus.Publish(ctx, providers.EventChannelDirectoryUpdates, entities.NewDirectoryEvent(t, "indexer")); err != nil {
			log.Warn().Err(err).Str("event_type", string(t)).Msg("failed to publish directory event")
		}
	}
}
