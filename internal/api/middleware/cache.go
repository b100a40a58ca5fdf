package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/providerdirectory/internal/domain/providers"
)

// cacheKeyPrefix places cached responses under the directory namespace so a
// directory invalidation drops them too.
const cacheKeyPrefix = providers.CacheKeyPrefixHTTP

// CacheMiddleware caches successful GET responses of selected routes
type CacheMiddleware struct {
	cache  providers.CacheProvider
	routes map[string]int
}

// NewCacheMiddleware caches the given paths (exact match) for their TTL in seconds
func NewCacheMiddleware(cache providers.CacheProvider, routes map[string]int) *CacheMiddleware {
	return &CacheMiddleware{cache: cache, routes: routes}
}

// Middleware returns the cache middleware handler
func (m *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ttl, ok := m.routes[r.URL.Path]
		if r.Method != http.MethodGet || m.cache == nil || !ok {
			next.ServeHTTP(w, r)
			return
		}

		key := cacheKey(r.URL)
		if cached, err := m.cache.Get(r.Context(), key); err == nil {
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(cached)
			return
		}

		w.Header().Set("X-Cache", "MISS")
		recorder := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(recorder, r)

		if recorder.statusCode == http.StatusOK && recorder.body.Len() > 0 {
			if err := m.cache.Set(r.Context(), key, recorder.body.Bytes(), ttl); err != nil {
				log.Ctx(r.Context()).Warn().Err(err).Str("path", r.URL.Path).Msg("failed to cache response")
			}
		}
	})
}

// cacheKey hashes the path and the normalized query.
func cacheKey(u *url.URL) string {
	key := u.Path
	if q := u.Query(); len(q) > 0 {
		key += "?" + q.Encode()
	}
	hash := sha256.Sum256([]byte(key))
	return cacheKeyPrefix + hex.EncodeToString(hash[:])
}

// responseRecorder tees the response body for caching
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
	written    bool
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	if !r.written {
		r.statusCode = statusCode
		r.ResponseWriter.WriteHeader(statusCode)
		r.written = true
	}
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if !r.written {
		r.WriteHeader(http.StatusOK)
	}
	r.body.Write(data)
	return r.ResponseWriter.Write(data)
}
