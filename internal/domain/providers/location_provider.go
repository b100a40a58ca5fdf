package providers

import (
	"context"
	"errors"
)

// Failure classes of a location request. Adapters return (or wrap) one of these
// so the session can report a precise message to the user.
var (
	ErrLocationDenied      = errors.New("location permission denied")
	ErrLocationUnsupported = errors.New("location is not supported")
	ErrLocationTimeout     = errors.New("location request timed out")
	ErrLocationUnavailable = errors.New("location unavailable")
)

// LocationProvider yields the user's current position once per call.
// It is never polled; each toggle issues exactly one request.
type LocationProvider interface {
	RequestOnce(ctx context.Context) (*Coordinates, error)
}
