package geolocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/providerdirectory/internal/domain/providers"
)

const (
	googleGeocodeURL   = "https://maps.googleapis.com/maps/api/geocode/json"
	geocodeCacheTTL    = 60 * 60 * 24 * 30
	defaultHTTPTimeout = 8 * time.Second
)

// GoogleGeolocationProvider implements the GeolocationProvider using the Google Geocoding API.
type GoogleGeolocationProvider struct {
	apiKey     string
	region     string
	httpClient *http.Client
	cache      providers.CacheProvider
	baseURL    string
}

// GoogleOptions overrides the endpoint and HTTP client (used for tests).
type GoogleOptions struct {
	BaseURL    string
	Region     string
	HTTPClient *http.Client
}

// NewGoogleGeolocationProvider creates a new Google geolocation provider. The
// cache may be nil.
func NewGoogleGeolocationProvider(apiKey string, cache providers.CacheProvider, opts GoogleOptions) *GoogleGeolocationProvider {
	if strings.TrimSpace(opts.BaseURL) == "" {
		opts.BaseURL = googleGeocodeURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &GoogleGeolocationProvider{
		apiKey:     apiKey,
		region:     opts.Region,
		httpClient: opts.HTTPClient,
		cache:      cache,
		baseURL:    opts.BaseURL,
	}
}

// Geocode converts an address to a geocoded address.
func (g *GoogleGeolocationProvider) Geocode(ctx context.Context, address string) (*providers.GeocodedAddress, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return nil, fmt.Errorf("address is required")
	}

	params := url.Values{"address": []string{trimmed}}
	if g.region != "" {
		params.Set("region", g.region)
	}
	return g.lookup(ctx, "geo:v1:geocode:"+hashKey(strings.ToLower(trimmed)), params)
}

// ReverseGeocode converts coordinates to an address.
func (g *GoogleGeolocationProvider) ReverseGeocode(ctx context.Context, lat, lon float64) (*providers.GeocodedAddress, error) {
	return g.lookup(ctx,
		"geo:v1:reverse:"+hashKey(fmt.Sprintf("%.5f,%.5f", lat, lon)),
		url.Values{"latlng": []string{fmt.Sprintf("%f,%f", lat, lon)}},
	)
}

func (g *GoogleGeolocationProvider) lookup(ctx context.Context, cacheKey string, params url.Values) (*providers.GeocodedAddress, error) {
	if addr, ok := g.cached(ctx, cacheKey); ok {
		return addr, nil
	}

	resp, err := g.doGeocodeRequest(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("no geocoding results")
	}

	result := resp.Results[0]
	addr := &providers.GeocodedAddress{
		FormattedAddress: result.FormattedAddress,
		Street:           buildStreet(result.AddressComponents),
		City:             component(result.AddressComponents, "locality", "postal_town", "administrative_area_level_2"),
		Country:          component(result.AddressComponents, "country"),
		Coordinates: providers.Coordinates{
			Latitude:  result.Geometry.Location.Lat,
			Longitude: result.Geometry.Location.Lng,
		},
	}

	if g.cache != nil {
		if payload, err := json.Marshal(addr); err == nil {
			if err := g.cache.Set(ctx, cacheKey, payload, geocodeCacheTTL); err != nil {
				log.Debug().Err(err).Str("key", cacheKey).Msg("failed to cache geocoding result")
			}
		}
	}
	return addr, nil
}

func (g *GoogleGeolocationProvider) cached(ctx context.Context, key string) (*providers.GeocodedAddress, bool) {
	if g.cache == nil {
		return nil, false
	}
	data, err := g.cache.Get(ctx, key)
	if err != nil || len(data) == 0 {
		return nil, false
	}
	var addr providers.GeocodedAddress
	if err := json.Unmarshal(data, &addr); err != nil {
		return nil, false
	}
	if addr.Coordinates.Latitude == 0 && addr.Coordinates.Longitude == 0 {
		return nil, false
	}
	return &addr, true
}

func (g *GoogleGeolocationProvider) doGeocodeRequest(ctx context.Context, params url.Values) (*googleGeocodeResponse, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("google maps api key is required")
	}

	params.Set("key", g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocode request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("geocode request returned status %d", resp.StatusCode)
	}

	var payload googleGeocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode geocode response: %w", err)
	}

	switch payload.Status {
	case "OK", "ZERO_RESULTS":
		return &payload, nil
	}
	if payload.ErrorMessage != "" {
		return nil, fmt.Errorf("geocode request failed: %s - %s", payload.Status, payload.ErrorMessage)
	}
	return nil, fmt.Errorf("geocode request failed: %s", payload.Status)
}

func hashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// component returns the long name of the first component carrying one of the
// types, in order of preference.
func component(components []googleAddressComponent, types ...string) string {
	for _, want := range types {
		for _, comp := range components {
			for _, t := range comp.Types {
				if t == want {
					return comp.LongName
				}
			}
		}
	}
	return ""
}

func buildStreet(components []googleAddressComponent) string {
	route := component(components, "route")
	number := component(components, "street_number")
	switch {
	case route != "" && number != "":
		return route + " " + number
	case route != "":
		return route
	}
	return number
}

type googleGeocodeResponse struct {
	Status       string                `json:"status"`
	ErrorMessage string                `json:"error_message,omitempty"`
	Results      []googleGeocodeResult `json:"results"`
}

type googleGeocodeResult struct {
	FormattedAddress  string                   `json:"formatted_address"`
	AddressComponents []googleAddressComponent `json:"address_components"`
	Geometry          struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

type googleAddressComponent struct {
	LongName string   `json:"long_name"`
	Types    []string `json:"types"`
}
