package database

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/providerdirectory/internal/domain/entities"
	"github.com/zatekoja/providerdirectory/internal/domain/providers"
	"github.com/zatekoja/providerdirectory/internal/domain/repositories"
	"github.com/zatekoja/providerdirectory/internal/infrastructure/observability"
)

// DirectoryCache wraps the directory repositories with a read-through cache of
// whole collections. Entries are dropped by CacheInvalidationService when a
// directory event arrives, and by TTL otherwise.
type DirectoryCache struct {
	cache      providers.CacheProvider
	ttlSeconds int
	metrics    *observability.Metrics
}

// NewDirectoryCache creates a collection cache. metrics may be nil.
func NewDirectoryCache(cache providers.CacheProvider, ttl time.Duration, metrics *observability.Metrics) *DirectoryCache {
	return &DirectoryCache{
		cache:      cache,
		ttlSeconds: int(ttl.Seconds()),
		metrics:    metrics,
	}
}

// Doctors wraps a doctor repository
func (c *DirectoryCache) Doctors(repo repositories.DoctorRepository) repositories.DoctorRepository {
	return &cachedDoctorRepository{DoctorRepository: repo, cache: c}
}

// Clinics wraps a clinic repository
func (c *DirectoryCache) Clinics(repo repositories.ClinicRepository) repositories.ClinicRepository {
	return &cachedClinicRepository{repo: repo, cache: c}
}

// Specialties wraps a specialty repository
func (c *DirectoryCache) Specialties(repo repositories.SpecialtyRepository) repositories.SpecialtyRepository {
	return &cachedSpecialtyRepository{repo: repo, cache: c}
}

// Cities wraps a city repository
func (c *DirectoryCache) Cities(repo repositories.CityRepository) repositories.CityRepository {
	return &cachedCityRepository{repo: repo, cache: c}
}

// cachedDoctorRepository caches List; GetByIDs goes straight to the source.
type cachedDoctorRepository struct {
	repositories.DoctorRepository
	cache *DirectoryCache
}

func (r *cachedDoctorRepository) List(ctx context.Context) ([]entities.Doctor, error) {
	return readThrough(ctx, r.cache, providers.CacheKeyDoctors, r.DoctorRepository.List)
}

type cachedClinicRepository struct {
	repo  repositories.ClinicRepository
	cache *DirectoryCache
}

func (r *cachedClinicRepository) List(ctx context.Context) ([]entities.Clinic, error) {
	return readThrough(ctx, r.cache, providers.CacheKeyClinics, r.repo.List)
}

type cachedSpecialtyRepository struct {
	repo  repositories.SpecialtyRepository
	cache *DirectoryCache
}

func (r *cachedSpecialtyRepository) ListTree(ctx context.Context) ([]entities.Specialty, error) {
	return readThrough(ctx, r.cache, providers.CacheKeySpecialties, r.repo.ListTree)
}

type cachedCityRepository struct {
	repo  repositories.CityRepository
	cache *DirectoryCache
}

func (r *cachedCityRepository) List(ctx context.Context) ([]entities.City, error) {
	return readThrough(ctx, r.cache, providers.CacheKeyCities, r.repo.List)
}

// readThrough serves key from the cache, falling back to load on a miss or an
// unreadable entry. A cache outage never fails the request.
func readThrough[T any](ctx context.Context, c *DirectoryCache, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	cached, err := c.cache.Get(ctx, key)
	if err == nil {
		var items []T
		if err := json.Unmarshal(cached, &items); err == nil {
			c.recordHit(ctx, key)
			return items, nil
		}
		log.Warn().Str("key", key).Err(err).Msg("failed to unmarshal cached collection")
	} else if !errors.Is(err, providers.ErrCacheMiss) {
		log.Warn().Str("key", key).Err(err).Msg("cache read failed")
	}
	c.recordMiss(ctx, key)

	items, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}

	if err := c.store(ctx, key, items); err != nil {
		log.Warn().Str("key", key).Err(err).Msg("failed to cache collection")
	}

	return items, nil
}

func (c *DirectoryCache) store(ctx context.Context, key string, items interface{}) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return c.cache.Set(ctx, key, data, c.ttlSeconds)
}

func (c *DirectoryCache) recordHit(ctx context.Context, key string) {
	if c.metrics != nil {
		observability.RecordCacheHit(ctx, c.metrics, key)
	}
}

func (c *DirectoryCache) recordMiss(ctx context.Context, key string) {
	if c.metrics != nil {
		observability.RecordCacheMiss(ctx, c.metrics, key)
	}
}
