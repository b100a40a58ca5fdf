package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/zatekoja/providerdirectory/internal/adapters/providers/geolocation"
	"github.com/zatekoja/providerdirectory/internal/application/services"
	"github.com/zatekoja/providerdirectory/internal/domain/entities"
	"github.com/zatekoja/providerdirectory/internal/domain/providers"
	apperrors "github.com/zatekoja/providerdirectory/pkg/errors"
)

// SessionHandler serves the search sessions of one provider kind
type SessionHandler[T any] struct {
	directory *services.ProviderDirectory[T]
	geocoder  providers.GeolocationProvider
}

// NewSessionHandler creates a session handler. The geocoder resolves typed
// addresses and may be nil.
func NewSessionHandler[T any](directory *services.ProviderDirectory[T], geocoder providers.GeolocationProvider) *SessionHandler[T] {
	return &SessionHandler[T]{directory: directory, geocoder: geocoder}
}

// LocationRequest turns location on from exactly one source: coordinates the
// device reported, a typed address, or the reason the device gave no position.
type LocationRequest struct {
	Latitude  *float64 `json:"lat,omitempty" validate:"required_with=Longitude,omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"lng,omitempty" validate:"required_with=Latitude,omitempty,gte=-180,lte=180"`
	Address   string   `json:"address,omitempty" validate:"omitempty,max=300"`
	Error     string   `json:"error,omitempty" validate:"omitempty,oneof=denied unsupported timeout unavailable"`
}

type sessionResponse[T any] struct {
	ID        string                 `json:"id"`
	Kind      string                 `json:"kind"`
	CreatedAt time.Time              `json:"created_at"`
	Filter    entities.FilterState   `json:"filter"`
	Location  entities.LocationState `json:"location"`
	View      services.Projection[T] `json:"view"`
}

// Create handles POST /api/{kind}/sessions. The query string seeds the filter.
func (h *SessionHandler[T]) Create(w http.ResponseWriter, r *http.Request) {
	session, err := h.directory.CreateSession(r.Context(), r.URL.Query())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.Header().Set("Location", r.URL.Path+"/"+session.ID())
	h.respond(w, r, http.StatusCreated, session)
}

// Get handles GET /api/{kind}/sessions/{id}
func (h *SessionHandler[T]) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.directory.Session(r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, session)
}

// UpdateFilter handles PATCH /api/{kind}/sessions/{id}/filter
func (h *SessionHandler[T]) UpdateFilter(w http.ResponseWriter, r *http.Request) {
	session, err := h.directory.Session(r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	var patch services.FilterPatch
	if err := decodeAndValidate(w, r, &patch); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if err := session.Apply(patch); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, session)
}

// EnableLocation handles POST /api/{kind}/sessions/{id}/location. A failed
// location request is not an HTTP error; the session reports it.
func (h *SessionHandler[T]) EnableLocation(w http.ResponseWriter, r *http.Request) {
	var req LocationRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	locator, err := h.locator(req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	session, _, err := h.directory.EnableLocation(r.Context(), r.PathValue("id"), locator)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, session)
}

// DisableLocation handles DELETE /api/{kind}/sessions/{id}/location
func (h *SessionHandler[T]) DisableLocation(w http.ResponseWriter, r *http.Request) {
	session, err := h.directory.DisableLocation(r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, session)
}

// Delete handles DELETE /api/{kind}/sessions/{id}
func (h *SessionHandler[T]) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.directory.DeleteSession(r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler[T]) locator(req LocationRequest) (providers.LocationProvider, error) {
	address := strings.TrimSpace(req.Address)

	sources := 0
	if req.Latitude != nil {
		sources++
	}
	if address != "" {
		sources++
	}
	if req.Error != "" {
		sources++
	}
	if sources != 1 {
		return nil, apperrors.NewValidationError("exactly one of lat/lng, address or error is required")
	}

	switch {
	case req.Error != "":
		return geolocation.NewReportedFailure(req.Error), nil
	case address != "":
		return geolocation.NewGeocodingLocator(h.geocoder, address), nil
	default:
		return geolocation.NewReportedLocator(*req.Latitude, *req.Longitude), nil
	}
}

func (h *SessionHandler[T]) respond(w http.ResponseWriter, r *http.Request, status int, session *services.SearchSession[T]) {
	respondWithJSON(w, status, sessionResponse[T]{
		ID:        session.ID(),
		Kind:      h.directory.Kind(),
		CreatedAt: session.CreatedAt(),
		Filter:    session.State(),
		Location:  session.Location(),
		View:      session.View(services.ParseViewMode(r.URL.Query().Get("view"))),
	})
}
