package middleware

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/providerdirectory/internal/domain/providers"
	"github.com/zatekoja/providerdirectory/internal/infrastructure/observability"
)

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	return nil, providers.ErrCacheMiss
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memoryCache) Delete(context.Context, ...string) error { return nil }

func (c *memoryCache) DeletePattern(context.Context, string) error { return nil }

func (c *memoryCache) Exists(context.Context, string) (bool, error) { return false, nil }

func jsonHandler(calls *atomic.Int32, status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

func TestCacheMiddleware(t *testing.T) {
	var calls atomic.Int32
	cache := &memoryCache{data: map[string][]byte{}}
	handler := NewCacheMiddleware(cache, map[string]int{"/api/cities": 60}).
		Middleware(jsonHandler(&calls, http.StatusOK, `[{"id":1,"name":"Sarajevo"}]`))

	for i, want := range []string{"MISS", "HIT"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cities", nil))
		assert.Equal(t, want, rec.Header().Get("X-Cache"), "request %d", i)
		assert.JSONEq(t, `[{"id":1,"name":"Sarajevo"}]`, rec.Body.String())
	}
	assert.Equal(t, int32(1), calls.Load())

	for key := range cache.data {
		assert.Contains(t, key, cacheKeyPrefix)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/doctors/search", nil))
	assert.Empty(t, rec.Header().Get("X-Cache"), "unlisted routes pass through")
}

func TestCacheMiddleware_SkipsErrors(t *testing.T) {
	var calls atomic.Int32
	handler := NewCacheMiddleware(&memoryCache{data: map[string][]byte{}}, map[string]int{"/api/cities": 60}).
		Middleware(jsonHandler(&calls, http.StatusBadGateway, `{"error":"upstream"}`))

	for i := 0; i < 2; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/cities", nil))
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestCacheKey_NormalizesQueryOrder(t *testing.T) {
	a := httptest.NewRequest(http.MethodGet, "/api/doctors/search?city=Mostar&q=em", nil)
	b := httptest.NewRequest(http.MethodGet, "/api/doctors/search?q=em&city=Mostar", nil)
	assert.Equal(t, cacheKey(a.URL), cacheKey(b.URL))
}

func TestCORSMiddleware(t *testing.T) {
	var calls atomic.Int32
	handler := CORSMiddleware(ParseAllowedOrigins("https://a.example, https://b.example"))(jsonHandler(&calls, http.StatusOK, `{}`))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://b.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "https://b.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/doctors/sessions", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
	assert.Equal(t, int32(1), calls.Load(), "preflight does not reach the handler")

	assert.Equal(t, []string{"*"}, ParseAllowedOrigins(" , "))
}

func TestRateLimiter(t *testing.T) {
	var calls atomic.Int32
	handler := NewRateLimiter(0.001, 2).Limit(jsonHandler(&calls, http.StatusOK, `{}`))

	codes := []int{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/cities", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	req := httptest.NewRequest(http.MethodGet, "/api/cities", nil)
	req.RemoteAddr = "10.0.0.2:5000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "budgets are per client")
}

func TestResponseOptimization(t *testing.T) {
	var calls atomic.Int32
	handler := ResponseOptimization(jsonHandler(&calls, http.StatusOK, `{"specialties":[]}`))

	req := httptest.NewRequest(http.MethodGet, "/api/specialties", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	assert.Contains(t, rec.Header().Get("Cache-Control"), "max-age=300")
	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.JSONEq(t, `{"specialties":[]}`, string(body))

	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	req = httptest.NewRequest(http.MethodGet, "/api/specialties", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/doctors/sessions/abc", nil))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestObservabilityAndLogging(t *testing.T) {
	metrics, err := observability.InitMetrics()
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/{kind}/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	handler := ObservabilityMiddleware(mux, metrics)(LoggingMiddleware(mux))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/doctors/sessions/abc", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	ObservabilityMiddleware(nil, nil)(mux).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
