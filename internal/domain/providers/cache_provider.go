package providers

import (
	"context"
	"errors"
)

// ErrCacheMiss is returned by Get when the key is absent or expired
var ErrCacheMiss = errors.New("cache miss")

// CacheProvider defines the interface for caching operations
type CacheProvider interface {
	// Get retrieves a value from cache, returning ErrCacheMiss when absent
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration
	Set(ctx context.Context, key string, value []byte, expirationSeconds int) error

	// Delete removes values from cache
	Delete(ctx context.Context, keys ...string) error

	// DeletePattern removes every key matching a glob pattern
	DeletePattern(ctx context.Context, pattern string) error

	// Exists checks if a key exists in cache
	Exists(ctx context.Context, key string) (bool, error)
}

// Cache keys of the directory collections
const (
	CacheKeyDoctors     = "directory:doctors"
	CacheKeyClinics     = "directory:clinics"
	CacheKeySpecialties = "directory:specialties"
	CacheKeyCities      = "directory:cities"

	// CacheKeyPatternDirectory matches every directory collection key
	CacheKeyPatternDirectory = "directory:*"

	// CacheKeyPrefixHTTP namespaces cached API responses built from the collections
	CacheKeyPrefixHTTP           = "directory:http:"
	CacheKeyPatternHTTPResponses = CacheKeyPrefixHTTP + "*"
)
