package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/zatekoja/providerdirectory/internal/domain/providers"
	apperrors "github.com/zatekoja/providerdirectory/pkg/errors"
)

// GeolocationHandler handles geocoding lookups for the location controls
type GeolocationHandler struct {
	provider providers.GeolocationProvider
}

// NewGeolocationHandler creates a new geolocation handler
func NewGeolocationHandler(provider providers.GeolocationProvider) *GeolocationHandler {
	return &GeolocationHandler{provider: provider}
}

// Geocode handles GET /api/geocode?address=...
func (h *GeolocationHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		respondWithError(w, http.StatusBadRequest, "address parameter is required")
		return
	}

	addr, err := h.provider.Geocode(r.Context(), address)
	if err != nil {
		respondWithAppError(w, r, apperrors.NewExternalError("failed to geocode address", err))
		return
	}

	respondWithJSON(w, http.StatusOK, addr)
}

// ReverseGeocode handles GET /api/reverse-geocode?lat=...&lng=...
func (h *GeolocationHandler) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(r.URL.Query().Get("lat")), 64)
	if err != nil || lat < -90 || lat > 90 {
		respondWithError(w, http.StatusBadRequest, "invalid lat parameter")
		return
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(r.URL.Query().Get("lng")), 64)
	if err != nil || lng < -180 || lng > 180 {
		respondWithError(w, http.StatusBadRequest, "invalid lng parameter")
		return
	}

	addr, err := h.provider.ReverseGeocode(r.Context(), lat, lng)
	if err != nil {
		respondWithAppError(w, r, apperrors.NewExternalError("failed to reverse geocode", err))
		return
	}

	respondWithJSON(w, http.StatusOK, addr)
}
