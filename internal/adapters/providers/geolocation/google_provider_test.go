package geolocation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/providerdirectory/internal/domain/providers"
)

const sarajevoResponse = `{
	"status": "OK",
	"results": [{
		"formatted_address": "Ferhadija 12, Sarajevo 71000, Bosnia and Herzegovina",
		"address_components": [
			{"long_name": "12", "types": ["street_number"]},
			{"long_name": "Ferhadija", "types": ["route"]},
			{"long_name": "Sarajevo", "types": ["locality", "political"]},
			{"long_name": "Bosnia and Herzegovina", "types": ["country", "political"]}
		],
		"geometry": {"location": {"lat": 43.8590, "lng": 18.4240}}
	}]
}`

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache { return &memoryCache{data: map[string][]byte{}} }

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

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *memoryCache) DeletePattern(context.Context, string) error { return nil }

func (c *memoryCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

func TestGoogleGeolocationProvider_Geocode(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "Ferhadija 12, Sarajevo", r.URL.Query().Get("address"))
		assert.Equal(t, "ba", r.URL.Query().Get("region"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sarajevoResponse))
	}))
	defer server.Close()

	provider := NewGoogleGeolocationProvider("test-key", newMemoryCache(), GoogleOptions{BaseURL: server.URL, Region: "ba"})

	addr, err := provider.Geocode(context.Background(), "  Ferhadija 12, Sarajevo ")
	require.NoError(t, err)
	assert.Equal(t, "Sarajevo", addr.City)
	assert.Equal(t, "Ferhadija 12", addr.Street)
	assert.Equal(t, "Bosnia and Herzegovina", addr.Country)
	assert.InDelta(t, 43.8590, addr.Coordinates.Latitude, 1e-9)

	again, err := provider.Geocode(context.Background(), "ferhadija 12, sarajevo")
	require.NoError(t, err)
	assert.Equal(t, addr, again)
	assert.Equal(t, int32(1), calls.Load(), "second lookup must come from cache")
}

func TestGoogleGeolocationProvider_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"denied", http.StatusOK, `{"status":"REQUEST_DENIED","error_message":"bad key"}`},
		{"http error", http.StatusInternalServerError, `oops`},
		{"zero results", http.StatusOK, `{"status":"ZERO_RESULTS","results":[]}`},
		{"malformed", http.StatusOK, `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			provider := NewGoogleGeolocationProvider("k", nil, GoogleOptions{BaseURL: server.URL})
			_, err := provider.Geocode(context.Background(), "Sarajevo")
			assert.Error(t, err)
		})
	}
}

func TestGoogleGeolocationProvider_RequiresKeyAndAddress(t *testing.T) {
	provider := NewGoogleGeolocationProvider("", nil, GoogleOptions{BaseURL: "http://127.0.0.1:0"})

	_, err := provider.Geocode(context.Background(), "   ")
	assert.EqualError(t, err, "address is required")

	_, err = provider.Geocode(context.Background(), "Sarajevo")
	assert.EqualError(t, err, "google maps api key is required")
}

func TestGoogleGeolocationProvider_ReverseGeocode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "43.859000,18.424000", r.URL.Query().Get("latlng"))
		_, _ = w.Write([]byte(sarajevoResponse))
	}))
	defer server.Close()

	provider := NewGoogleGeolocationProvider("k", nil, GoogleOptions{BaseURL: server.URL})
	addr, err := provider.ReverseGeocode(context.Background(), 43.859, 18.424)

	require.NoError(t, err)
	assert.Equal(t, "Sarajevo", addr.City)
}
