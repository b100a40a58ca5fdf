package services

import (
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	apperrors "github.com/zatekoja/providerdirectory/pkg/errors"
)

// SessionStore keeps search sessions in memory with a sliding TTL.
type SessionStore[T any] struct {
	kind  string
	ttl   time.Duration
	cache *gocache.Cache
}

// NewSessionStore creates a store whose sessions expire after ttl without access.
func NewSessionStore[T any](kind string, ttl time.Duration) *SessionStore[T] {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionStore[T]{
		kind:  kind,
		ttl:   ttl,
		cache: gocache.New(ttl, ttl/2),
	}
}

// NewID returns a fresh session id.
func (s *SessionStore[T]) NewID() string {
	return uuid.New().String()
}

// Put stores a session under its id.
func (s *SessionStore[T]) Put(session *SearchSession[T]) {
	s.cache.Set(session.ID(), session, gocache.DefaultExpiration)
}

// Get returns the session and renews its TTL.
func (s *SessionStore[T]) Get(id string) (*SearchSession[T], error) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, apperrors.NewNotFoundError(s.kind + " search session " + id + " not found")
	}
	session := v.(*SearchSession[T])
	s.cache.Set(id, session, gocache.DefaultExpiration)
	return session, nil
}

// Delete removes a session. Deleting an unknown id is a not-found error.
func (s *SessionStore[T]) Delete(id string) error {
	if _, ok := s.cache.Get(id); !ok {
		return apperrors.NewNotFoundError(s.kind + " search session " + id + " not found")
	}
	s.cache.Delete(id)
	return nil
}

// OnEvicted registers fn to run when a session is deleted or expires.
func (s *SessionStore[T]) OnEvicted(fn func(id string)) {
	s.cache.OnEvicted(func(id string, _ interface{}) { fn(id) })
}

// Len returns the number of live sessions.
func (s *SessionStore[T]) Len() int {
	return s.cache.ItemCount()
}
