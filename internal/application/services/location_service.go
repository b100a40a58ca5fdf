package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/providerdirectory/internal/domain/entities"
	"github.com/zatekoja/providerdirectory/internal/domain/providers"
)

// Messages shown to the user when a location request fails.
const (
	msgLocationDenied      = "Location access was denied. Allow location access to sort by distance."
	msgLocationUnsupported = "Your browser does not support location services."
	msgLocationTimeout     = "Your location could not be determined in time. Please try again."
	msgLocationUnavailable = "Your location could not be determined."
)

// LocationService performs one-shot location requests against an injected provider.
type LocationService struct {
	timeout time.Duration
}

// NewLocationService creates a location service. A non-positive timeout means
// the request is bounded only by the caller's context.
func NewLocationService(timeout time.Duration) *LocationService {
	return &LocationService{timeout: timeout}
}

// LocationError is a failed location request with the message for the user.
type LocationError struct {
	Message string
	Err     error
}

func (e *LocationError) Error() string { return e.Message + ": " + e.Err.Error() }
func (e *LocationError) Unwrap() error { return e.Err }

// Acquire issues exactly one request to the provider. Failures come back as a
// *LocationError wrapping one of the providers.ErrLocation* classes.
func (s *LocationService) Acquire(ctx context.Context, provider providers.LocationProvider) (*entities.Location, error) {
	if provider == nil {
		return nil, newLocationError(providers.ErrLocationUnsupported)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	coords, err := provider.RequestOnce(ctx)
	if err == nil && coords == nil {
		err = providers.ErrLocationUnavailable
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = errors.Join(providers.ErrLocationTimeout, err)
		}
		log.Debug().Err(err).Msg("location request failed")
		return nil, newLocationError(err)
	}

	return &entities.Location{Latitude: coords.Latitude, Longitude: coords.Longitude}, nil
}

func newLocationError(err error) *LocationError {
	msg := msgLocationUnavailable
	switch {
	case errors.Is(err, providers.ErrLocationDenied):
		msg = msgLocationDenied
	case errors.Is(err, providers.ErrLocationUnsupported):
		msg = msgLocationUnsupported
	case errors.Is(err, providers.ErrLocationTimeout):
		msg = msgLocationTimeout
	}
	return &LocationError{Message: msg, Err: err}
}
