package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/providerdirectory/internal/domain/entities"
	"github.com/zatekoja/providerdirectory/internal/domain/providers"
)

// CacheInvalidationService drops cached directory collections when a directory
// event announces that the source changed. Live search sessions keep the
// collection they were created with.
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start begins listening for events and invalidating cache
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelDirectoryUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to directory updates: %w", err)
	}

	go s.processEvents(eventChan)
	log.Info().Msg("cache invalidation service started")
	return nil
}

// Stop stops the cache invalidation service and waits for it to finish
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	<-s.done
	log.Info().Msg("cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.DirectoryEvent) {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.HandleEvent(event)
		}
	}
}

// HandleEvent invalidates the collection named by one event along with every
// cached API response. Unknown event types invalidate the whole directory namespace.
func (s *CacheInvalidationService) HandleEvent(event *entities.DirectoryEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger := log.With().Str("event_id", event.ID).Str("event_type", string(event.EventType)).Logger()

	var err error
	if keys := cacheKeysForEvent(event.EventType); len(keys) > 0 {
		err = s.cache.Delete(ctx, keys...)
		if err == nil {
			// Cached API responses are built from the collections.
			err = s.cache.DeletePattern(ctx, providers.CacheKeyPatternHTTPResponses)
		}
	} else {
		err = s.cache.DeletePattern(ctx, providers.CacheKeyPatternDirectory)
	}
	if err != nil {
		logger.Warn().Err(err).Msg("failed to invalidate directory cache")
		return
	}

	logger.Debug().Msg("invalidated directory cache")
}

// InvalidateAll drops every cached directory collection
func (s *CacheInvalidationService) InvalidateAll(ctx context.Context) error {
	if err := s.cache.DeletePattern(ctx, providers.CacheKeyPatternDirectory); err != nil {
		return fmt.Errorf("failed to invalidate directory cache: %w", err)
	}
	return nil
}

func cacheKeysForEvent(t entities.DirectoryEventType) []string {
	switch t {
	case entities.DirectoryEventDoctorsUpdated:
		// Clinics embed their doctors, so both go stale.
		return []string{providers.CacheKeyDoctors, providers.CacheKeyClinics}
	case entities.DirectoryEventClinicsUpdated:
		return []string{providers.CacheKeyClinics}
	case entities.DirectoryEventSpecialtiesUpdated:
		return []string{providers.CacheKeySpecialties}
	case entities.DirectoryEventCitiesUpdated:
		return []string{providers.CacheKeyCities}
	}
	return nil
}
