package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/providerdirectory/internal/adapters/providers/geolocation"
	"github.com/zatekoja/providerdirectory/internal/api/handlers"
	"github.com/zatekoja/providerdirectory/internal/api/middleware"
	"github.com/zatekoja/providerdirectory/internal/application/services"
	"github.com/zatekoja/providerdirectory/internal/domain/entities"
)

type doctorRepo struct{}

func (doctorRepo) List(context.Context) ([]entities.Doctor, error) {
	return []entities.Doctor{
		{ID: 1, FirstName: "Amra", LastName: "Hodžić", City: "Sarajevo", Rating: 4.5},
		{ID: 2, FirstName: "Emir", LastName: "Begić", City: "Mostar", Rating: 4.8},
	}, nil
}

func (doctorRepo) GetByIDs(context.Context, []int) ([]entities.Doctor, error) { return nil, nil }

type clinicRepo struct{}

func (clinicRepo) List(context.Context) ([]entities.Clinic, error) {
	return []entities.Clinic{{ID: 100, Name: "Dom zdravlja Mostar", City: "Mostar"}}, nil
}

type specialtyRepo struct{}

func (specialtyRepo) ListTree(context.Context) ([]entities.Specialty, error) {
	return []entities.Specialty{{ID: 1, Name: "Pedijatrija", Slug: "pedijatrija"}}, nil
}

type cityRepo struct{}

func (cityRepo) List(context.Context) ([]entities.City, error) {
	return []entities.City{{ID: 1, Name: "Mostar"}}, nil
}

func newTestRouter(opts Options) http.Handler {
	svc := services.NewDirectoryService(doctorRepo{}, clinicRepo{}, specialtyRepo{}, cityRepo{},
		services.DirectoryOptions{SessionTTL: time.Minute})
	geocoder := geolocation.NewMockGeolocationProvider()

	return NewRouter(
		handlers.NewDirectoryHandler(svc),
		handlers.NewSessionHandler(svc.Doctors, geocoder),
		handlers.NewSessionHandler(svc.Clinics, geocoder),
		handlers.NewGeolocationHandler(geocoder),
		opts,
	).SetupRoutes()
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Origin", "https://doktori.ba")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Routes(t *testing.T) {
	h := newTestRouter(Options{AllowedOrigins: []string{"*"}})

	tests := []struct {
		method string
		target string
		status int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/specialties", http.StatusOK},
		{http.MethodGet, "/api/cities", http.StatusOK},
		{http.MethodGet, "/api/doctors/search?sort=rating", http.StatusOK},
		{http.MethodGet, "/api/clinics/search?city=Mostar", http.StatusOK},
		{http.MethodPost, "/api/clinics/sessions", http.StatusCreated},
		{http.MethodGet, "/api/doctors/sessions/unknown", http.StatusNotFound},
		{http.MethodGet, "/api/geocode?address=Tuzla", http.StatusOK},
		{http.MethodGet, "/api/prices", http.StatusNotFound},
		{http.MethodPut, "/api/cities", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := do(h, tt.method, tt.target, "")
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestRouter_SessionFlow(t *testing.T) {
	h := newTestRouter(Options{})

	rec := do(h, http.MethodPost, "/api/doctors/sessions?sort=rating", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	base := "/api/doctors/sessions/" + created.ID

	rec = do(h, http.MethodPatch, base+"/filter", `{"city":"Mostar"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"city":"Mostar"`)

	rec = do(h, http.MethodPost, base+"/location", `{"address":"Mostar"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"active"`)

	rec = do(h, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	rec = do(h, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRouter_Preflight(t *testing.T) {
	h := newTestRouter(Options{AllowedOrigins: []string{"https://doktori.ba"}})

	rec := do(h, http.MethodOptions, "/api/doctors/sessions", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://doktori.ba", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_RateLimited(t *testing.T) {
	h := newTestRouter(Options{RateLimiter: middleware.NewRateLimiter(1, 1)})

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/cities", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(h, http.MethodGet, "/api/cities", "").Code)
}
