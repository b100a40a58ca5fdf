package geolocation

import (
	"context"
	"fmt"
	"strings"

	"github.com/zatekoja/providerdirectory/internal/domain/providers"
)

type knownPlace struct {
	city    string
	country string
	coords  providers.Coordinates
}

var knownPlaces = []knownPlace{
	{"Sarajevo", "Bosnia and Herzegovina", providers.Coordinates{Latitude: 43.8563, Longitude: 18.4131}},
	{"Mostar", "Bosnia and Herzegovina", providers.Coordinates{Latitude: 43.3438, Longitude: 17.8078}},
	{"Banja Luka", "Bosnia and Herzegovina", providers.Coordinates{Latitude: 44.7722, Longitude: 17.1910}},
	{"Tuzla", "Bosnia and Herzegovina", providers.Coordinates{Latitude: 44.5384, Longitude: 18.6671}},
	{"Zenica", "Bosnia and Herzegovina", providers.Coordinates{Latitude: 44.2034, Longitude: 17.9077}},
	{"Zagreb", "Croatia", providers.Coordinates{Latitude: 45.8150, Longitude: 15.9819}},
	{"Beograd", "Serbia", providers.Coordinates{Latitude: 44.7866, Longitude: 20.4489}},
}

// MockGeolocationProvider resolves a fixed set of city names, for development
// and tests.
type MockGeolocationProvider struct{}

// NewMockGeolocationProvider creates a new mock geolocation provider
func NewMockGeolocationProvider() *MockGeolocationProvider {
	return &MockGeolocationProvider{}
}

// Geocode returns the first known city mentioned in the address
func (m *MockGeolocationProvider) Geocode(ctx context.Context, address string) (*providers.GeocodedAddress, error) {
	folded := strings.ToLower(address)
	for _, p := range knownPlaces {
		if strings.Contains(folded, strings.ToLower(p.city)) {
			return &providers.GeocodedAddress{
				FormattedAddress: p.city + ", " + p.country,
				City:             p.city,
				Country:          p.country,
				Coordinates:      p.coords,
			}, nil
		}
	}
	return nil, fmt.Errorf("no geocoding results for %q", address)
}

// ReverseGeocode echoes the coordinates back as an address
func (m *MockGeolocationProvider) ReverseGeocode(ctx context.Context, lat, lon float64) (*providers.GeocodedAddress, error) {
	return &providers.GeocodedAddress{
		FormattedAddress: fmt.Sprintf("%f, %f", lat, lon),
		Coordinates:      providers.Coordinates{Latitude: lat, Longitude: lon},
	}, nil
}
