package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/providerdirectory/internal/domain/providers"
	"github.com/zatekoja/providerdirectory/internal/domain/repositories"
)

// CacheWarmingService refreshes the cached directory collections from the source
// repositories, so session creation rarely pays for a cold fetch.
type CacheWarmingService struct {
	doctorRepo    repositories.DoctorRepository
	clinicRepo    repositories.ClinicRepository
	specialtyRepo repositories.SpecialtyRepository
	cityRepo      repositories.CityRepository
	cache         providers.CacheProvider
	ttlSeconds    int
}

// NewCacheWarmingService creates a new cache warming service. The repositories
// must be the uncached sources.
func NewCacheWarmingService(
	doctorRepo repositories.DoctorRepository,
	clinicRepo repositories.ClinicRepository,
	specialtyRepo repositories.SpecialtyRepository,
	cityRepo repositories.CityRepository,
	cache providers.CacheProvider,
	ttl time.Duration,
) *CacheWarmingService {
	return &CacheWarmingService{
		doctorRepo:    doctorRepo,
		clinicRepo:    clinicRepo,
		specialtyRepo: specialtyRepo,
		cityRepo:      cityRepo,
		cache:         cache,
		ttlSeconds:    int(ttl.Seconds()),
	}
}

// WarmCache reloads every collection. A failing collection does not stop the
// others; all failures are returned together.
func (s *CacheWarmingService) WarmCache(ctx context.Context) error {
	start := time.Now()

	errs := []error{
		s.warm(ctx, providers.CacheKeySpecialties, func(ctx context.Context) (interface{}, int, error) {
			v, err := s.specialtyRepo.ListTree(ctx)
			return v, len(v), err
		}),
		s.warm(ctx, providers.CacheKeyCities, func(ctx context.Context) (interface{}, int, error) {
			v, err := s.cityRepo.List(ctx)
			return v, len(v), err
		}),
		s.warm(ctx, providers.CacheKeyDoctors, func(ctx context.Context) (interface{}, int, error) {
			v, err := s.doctorRepo.List(ctx)
			return v, len(v), err
		}),
		s.warm(ctx, providers.CacheKeyClinics, func(ctx context.Context) (interface{}, int, error) {
			v, err := s.clinicRepo.List(ctx)
			return v, len(v), err
		}),
	}

	err := errors.Join(errs...)
	log.Debug().Dur("took", time.Since(start)).Bool("ok", err == nil).Msg("cache warming completed")
	return err
}

func (s *CacheWarmingService) warm(ctx context.Context, key string, load func(context.Context) (interface{}, int, error)) error {
	items, n, err := load(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", key, err)
	}
	if n == 0 {
		// Cache an empty array, not null.
		items = []struct{}{}
	}

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := s.cache.Set(ctx, key, data, s.ttlSeconds); err != nil {
		return fmt.Errorf("failed to cache %s: %w", key, err)
	}

	log.Debug().Str("key", key).Int("items", n).Msg("warmed cache")
	return nil
}

// StartPeriodicWarming warms the cache now and then every interval until ctx is done
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	if err := s.WarmCache(ctx); err != nil {
		log.Warn().Err(err).Msg("initial cache warming failed")
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("stopping cache warming service")
				return
			case <-ticker.C:
				if err := s.WarmCache(ctx); err != nil {
					log.Warn().Err(err).Msg("periodic cache warming failed")
				}
			}
		}
	}()
	log.Info().Dur("interval", interval).Msg("started periodic cache warming")
}
