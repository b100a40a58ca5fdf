package handlers

import (
	"net/http"

	"github.com/zatekoja/providerdirectory/internal/application/services"
	"github.com/zatekoja/providerdirectory/internal/domain/entities"
)

// DirectoryHandler serves reference data and one-shot searches
type DirectoryHandler struct {
	service *services.DirectoryService
}

// NewDirectoryHandler creates a new directory handler
func NewDirectoryHandler(service *services.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{service: service}
}

type searchResponse[T any] struct {
	Filter entities.FilterState   `json:"filter"`
	View   services.Projection[T] `json:"view"`
}

// ListSpecialties handles GET /api/specialties
func (h *DirectoryHandler) ListSpecialties(w http.ResponseWriter, r *http.Request) {
	specialties, err := h.service.Specialties(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"specialties": specialties,
	})
}

// ListCities handles GET /api/cities
func (h *DirectoryHandler) ListCities(w http.ResponseWriter, r *http.Request) {
	cities, err := h.service.Cities(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"cities": cities,
	})
}

// SearchDoctors handles GET /api/doctors/search
func (h *DirectoryHandler) SearchDoctors(w http.ResponseWriter, r *http.Request) {
	search(w, r, h.service.Doctors)
}

// SearchClinics handles GET /api/clinics/search
func (h *DirectoryHandler) SearchClinics(w http.ResponseWriter, r *http.Request) {
	search(w, r, h.service.Clinics)
}

func search[T any](w http.ResponseWriter, r *http.Request, directory *services.ProviderDirectory[T]) {
	query := r.URL.Query()
	res, err := directory.Search(r.Context(), query)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	mode := services.ParseViewMode(query.Get("view"))
	respondWithJSON(w, http.StatusOK, searchResponse[T]{
		Filter: res.State,
		View:   services.Project(directory.Accessor(), mode, res.Results, res.State.UserLocation),
	})
}
