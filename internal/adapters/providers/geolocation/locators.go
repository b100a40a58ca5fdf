package geolocation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zatekoja/providerdirectory/internal/domain/providers"
)

// Failure reasons a client may report instead of coordinates.
const (
	ReasonDenied      = "denied"
	ReasonUnsupported = "unsupported"
	ReasonTimeout     = "timeout"
)

// ReportedLocator answers with a position (or failure) the client already
// obtained from the device.
type ReportedLocator struct {
	coords *providers.Coordinates
	err    error
}

// NewReportedLocator answers with the given coordinates.
func NewReportedLocator(lat, lng float64) *ReportedLocator {
	return &ReportedLocator{coords: &providers.Coordinates{Latitude: lat, Longitude: lng}}
}

// NewReportedFailure answers with the failure class named by reason.
func NewReportedFailure(reason string) *ReportedLocator {
	return &ReportedLocator{err: ReasonError(reason)}
}

// ReasonError maps a client-reported reason to a location failure class.
// Unknown reasons mean the position is unavailable.
func ReasonError(reason string) error {
	switch strings.ToLower(strings.TrimSpace(reason)) {
	case ReasonDenied:
		return providers.ErrLocationDenied
	case ReasonUnsupported:
		return providers.ErrLocationUnsupported
	case ReasonTimeout:
		return providers.ErrLocationTimeout
	}
	return providers.ErrLocationUnavailable
}

func (r *ReportedLocator) RequestOnce(ctx context.Context) (*providers.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.err != nil {
		return nil, r.err
	}
	c := *r.coords
	return &c, nil
}

// GeocodingLocator resolves a typed address to a position.
type GeocodingLocator struct {
	geocoder providers.GeolocationProvider
	address  string
}

func NewGeocodingLocator(geocoder providers.GeolocationProvider, address string) *GeocodingLocator {
	return &GeocodingLocator{geocoder: geocoder, address: address}
}

func (l *GeocodingLocator) RequestOnce(ctx context.Context) (*providers.Coordinates, error) {
	if l.geocoder == nil {
		return nil, providers.ErrLocationUnsupported
	}

	addr, err := l.geocoder.Geocode(ctx, l.address)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", providers.ErrLocationUnavailable, err)
	}

	c := addr.Coordinates
	return &c, nil
}
