package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/providerdirectory/internal/adapters/providers/geolocation"
	"github.com/zatekoja/providerdirectory/internal/application/services"
	"github.com/zatekoja/providerdirectory/internal/domain/entities"
)

type stubDoctors struct {
	doctors []entities.Doctor
	err     error
}

func (s stubDoctors) List(context.Context) ([]entities.Doctor, error) { return s.doctors, s.err }

func (s stubDoctors) GetByIDs(_ context.Context, ids []int) ([]entities.Doctor, error) {
	var out []entities.Doctor
	for _, d := range s.doctors {
		for _, id := range ids {
			if d.ID == id {
				out = append(out, d)
			}
		}
	}
	return out, s.err
}

type stubClinics struct{ clinics []entities.Clinic }

func (s stubClinics) List(context.Context) ([]entities.Clinic, error) { return s.clinics, nil }

type stubSpecialties struct{ specialties []entities.Specialty }

func (s stubSpecialties) ListTree(context.Context) ([]entities.Specialty, error) {
	return s.specialties, nil
}

type stubCities struct{ cities []entities.City }

func (s stubCities) List(context.Context) ([]entities.City, error) { return s.cities, nil }

func ptr[T any](v T) *T { return &v }

func fixtureDoctors() []entities.Doctor {
	return []entities.Doctor{
		{ID: 1, FirstName: "Amra", LastName: "Hodžić", City: "Sarajevo", SpecialtyID: ptr(10), Rating: 4.5,
			Latitude: ptr(43.8563), Longitude: ptr(18.4131)},
		{ID: 2, FirstName: "Emir", LastName: "Begić", City: "Mostar", SpecialtyID: ptr(11), Rating: 4.8,
			Latitude: ptr(43.3438), Longitude: ptr(17.8078)},
		{ID: 3, FirstName: "Lejla", LastName: "Čolić", City: "Sarajevo", SpecialtyID: ptr(1), Rating: 3.9},
	}
}

func fixtureSpecialties() []entities.Specialty {
	return []entities.Specialty{{
		ID: 1, Name: "Interna medicina", Slug: "interna-medicina",
		Children: []entities.Specialty{
			{ID: 10, Name: "Kardiologija", Slug: "kardiologija", ParentID: ptr(1)},
			{ID: 11, Name: "Gastroenterologija", Slug: "gastroenterologija", ParentID: ptr(1)},
		},
	}}
}

func newTestService(doctorErr error) *services.DirectoryService {
	doctors := fixtureDoctors()
	return services.NewDirectoryService(
		stubDoctors{doctors: doctors, err: doctorErr},
		stubClinics{clinics: []entities.Clinic{
			{ID: 100, Name: "Poliklinika Bašćaršija", City: "Sarajevo", Rating: 4.2,
				Latitude: ptr(43.8590), Longitude: ptr(18.4290), Doctors: doctors[:1]},
		}},
		stubSpecialties{specialties: fixtureSpecialties()},
		stubCities{cities: []entities.City{{ID: 1, Name: "Mostar"}, {ID: 2, Name: "Sarajevo"}}},
		services.DirectoryOptions{SessionTTL: time.Minute, LocationTimeout: time.Second},
	)
}

type doctorSession struct {
	ID        string                               `json:"id"`
	Kind      string                               `json:"kind"`
	CreatedAt time.Time                            `json:"created_at"`
	Filter    entities.FilterState                 `json:"filter"`
	Location  entities.LocationState               `json:"location"`
	View      services.Projection[entities.Doctor] `json:"view"`
}

func doctorIDs(view services.Projection[entities.Doctor]) []int {
	out := make([]int, len(view.List))
	for i, r := range view.List {
		out[i] = r.Provider.ID
	}
	return out
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestDirectoryHandler_ReferenceData(t *testing.T) {
	h := NewDirectoryHandler(newTestService(nil))

	rec := httptest.NewRecorder()
	h.ListSpecialties(rec, httptest.NewRequest(http.MethodGet, "/api/specialties", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	specialties := decode[map[string][]entities.Specialty](t, rec)["specialties"]
	require.Len(t, specialties, 1)
	assert.Len(t, specialties[0].Children, 2)

	rec = httptest.NewRecorder()
	h.ListCities(rec, httptest.NewRequest(http.MethodGet, "/api/cities", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]entities.City](t, rec)["cities"], 2)
}

func TestDirectoryHandler_SearchDoctors(t *testing.T) {
	h := NewDirectoryHandler(newTestService(nil))

	rec := httptest.NewRecorder()
	h.SearchDoctors(rec, httptest.NewRequest(http.MethodGet, "/api/doctors/search?city=Sarajevo&sort=rating", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[searchResponse[entities.Doctor]](t, rec)
	assert.Equal(t, entities.SortByRating, resp.Filter.SortKey)
	assert.Equal(t, []int{1, 3}, doctorIDs(resp.View))
}

func TestDirectoryHandler_SearchWithLocationSortsByDistance(t *testing.T) {
	h := NewDirectoryHandler(newTestService(nil))

	rec := httptest.NewRecorder()
	h.SearchDoctors(rec, httptest.NewRequest(http.MethodGet, "/api/doctors/search?lat=43.34&lng=17.80&sort=distance&view=split", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[searchResponse[entities.Doctor]](t, rec)
	assert.Equal(t, services.ViewSplit, resp.View.Mode)
	assert.Equal(t, []int{2, 1, 3}, doctorIDs(resp.View))
	require.NotNil(t, resp.View.Map)
	assert.Len(t, resp.View.Map.Markers, 2)
}

func TestDirectoryHandler_SearchClinics(t *testing.T) {
	h := NewDirectoryHandler(newTestService(nil))

	rec := httptest.NewRecorder()
	h.SearchClinics(rec, httptest.NewRequest(http.MethodGet, "/api/clinics/search?specialty=kardiologija", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[searchResponse[entities.Clinic]](t, rec)
	require.Len(t, resp.View.List, 1)
	assert.Equal(t, 100, resp.View.List[0].Provider.ID)
}

func TestDirectoryHandler_UpstreamFailure(t *testing.T) {
	h := NewDirectoryHandler(newTestService(errors.New("connection refused")))

	rec := httptest.NewRecorder()
	h.SearchDoctors(rec, httptest.NewRequest(http.MethodGet, "/api/doctors/search", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func newSessionMux(svc *services.DirectoryService) *http.ServeMux {
	h := NewSessionHandler(svc.Doctors, geolocation.NewMockGeolocationProvider())
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/doctors/sessions", h.Create)
	mux.HandleFunc("GET /api/doctors/sessions/{id}", h.Get)
	mux.HandleFunc("PATCH /api/doctors/sessions/{id}/filter", h.UpdateFilter)
	mux.HandleFunc("POST /api/doctors/sessions/{id}/location", h.EnableLocation)
	mux.HandleFunc("DELETE /api/doctors/sessions/{id}/location", h.DisableLocation)
	mux.HandleFunc("DELETE /api/doctors/sessions/{id}", h.Delete)
	return mux
}

func serve(mux http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func createSession(t *testing.T, mux http.Handler, query string) doctorSession {
	t.Helper()
	rec := serve(mux, http.MethodPost, "/api/doctors/sessions"+query, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	session := decode[doctorSession](t, rec)
	assert.Equal(t, "/api/doctors/sessions/"+session.ID, rec.Header().Get("Location"))
	return session
}

func TestSessionHandler_Lifecycle(t *testing.T) {
	mux := newSessionMux(newTestService(nil))

	session := createSession(t, mux, "?specialty=interna-medicina&sort=rating")
	assert.Equal(t, "doctors", session.Kind)
	assert.Equal(t, "1", session.Filter.ParentSpecialtyID)
	assert.Equal(t, entities.LocationInactive, session.Location.Status)
	assert.Equal(t, []int{2, 1, 3}, doctorIDs(session.View))

	rec := serve(mux, http.MethodPatch, "/api/doctors/sessions/"+session.ID+"/filter", `{"sub_specialty_ids":["10"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []int{1}, doctorIDs(decode[doctorSession](t, rec).View))

	rec = serve(mux, http.MethodGet, "/api/doctors/sessions/"+session.ID+"?view=map", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[doctorSession](t, rec)
	assert.Equal(t, services.ViewMap, got.View.Mode)
	require.NotNil(t, got.View.Map)
	assert.Len(t, got.View.Map.Markers, 1)

	rec = serve(mux, http.MethodDelete, "/api/doctors/sessions/"+session.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(mux, http.MethodGet, "/api/doctors/sessions/"+session.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionHandler_UpdateFilterValidation(t *testing.T) {
	mux := newSessionMux(newTestService(nil))
	session := createSession(t, mux, "")
	target := "/api/doctors/sessions/" + session.ID + "/filter"

	tests := []struct {
		name string
		body string
	}{
		{"unknown sort key", `{"sort_key":"price"}`},
		{"distance without location", `{"sort_key":"distance"}`},
		{"sub without parent", `{"sub_specialty_ids":["10"]}`},
		{"unknown field", `{"radius":5}`},
		{"empty body", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(mux, http.MethodPatch, target, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestSessionHandler_EnableLocationFromCoordinates(t *testing.T) {
	mux := newSessionMux(newTestService(nil))
	session := createSession(t, mux, "")

	rec := serve(mux, http.MethodPost, "/api/doctors/sessions/"+session.ID+"/location", `{"lat":43.34,"lng":17.80}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[doctorSession](t, rec)
	assert.Equal(t, entities.LocationActive, got.Location.Status)
	assert.Equal(t, entities.SortByDistance, got.Filter.SortKey)
	assert.Equal(t, []int{2, 1, 3}, doctorIDs(got.View))
	require.NotNil(t, got.View.List[0].DistanceKm)
	assert.Nil(t, got.View.List[2].DistanceKm)

	rec = serve(mux, http.MethodDelete, "/api/doctors/sessions/"+session.ID+"/location", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got = decode[doctorSession](t, rec)
	assert.Equal(t, entities.LocationInactive, got.Location.Status)
	assert.Equal(t, entities.SortByName, got.Filter.SortKey)
	assert.Nil(t, got.Filter.UserLocation)
}

func TestSessionHandler_EnableLocationFromAddress(t *testing.T) {
	mux := newSessionMux(newTestService(nil))
	session := createSession(t, mux, "")

	rec := serve(mux, http.MethodPost, "/api/doctors/sessions/"+session.ID+"/location", `{"address":"Mostar"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[doctorSession](t, rec)
	assert.Equal(t, entities.LocationActive, got.Location.Status)
	assert.Equal(t, 2, got.View.List[0].Provider.ID)
}

func TestSessionHandler_EnableLocationReportedFailure(t *testing.T) {
	mux := newSessionMux(newTestService(nil))
	session := createSession(t, mux, "?sort=rating")

	rec := serve(mux, http.MethodPost, "/api/doctors/sessions/"+session.ID+"/location", `{"error":"denied"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[doctorSession](t, rec)
	assert.Equal(t, entities.LocationInactive, got.Location.Status)
	assert.NotEmpty(t, got.Location.LastError)
	assert.Equal(t, entities.SortByRating, got.Filter.SortKey)
}

func TestSessionHandler_EnableLocationValidation(t *testing.T) {
	mux := newSessionMux(newTestService(nil))
	session := createSession(t, mux, "")
	target := "/api/doctors/sessions/" + session.ID + "/location"

	tests := []struct {
		name string
		body string
	}{
		{"no source", `{}`},
		{"two sources", `{"lat":43.3,"lng":17.8,"address":"Mostar"}`},
		{"latitude only", `{"lat":43.3}`},
		{"latitude out of range", `{"lat":95,"lng":17.8}`},
		{"unknown reason", `{"error":"busy"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(mux, http.MethodPost, target, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestSessionHandler_UnknownSession(t *testing.T) {
	mux := newSessionMux(newTestService(nil))

	for _, rec := range []*httptest.ResponseRecorder{
		serve(mux, http.MethodGet, "/api/doctors/sessions/missing", ""),
		serve(mux, http.MethodPatch, "/api/doctors/sessions/missing/filter", `{"q":"x"}`),
		serve(mux, http.MethodPost, "/api/doctors/sessions/missing/location", `{"lat":1,"lng":1}`),
		serve(mux, http.MethodDelete, "/api/doctors/sessions/missing/location", ""),
		serve(mux, http.MethodDelete, "/api/doctors/sessions/missing", ""),
	} {
		assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
	}
}

func TestGeolocationHandler(t *testing.T) {
	h := NewGeolocationHandler(geolocation.NewMockGeolocationProvider())

	rec := httptest.NewRecorder()
	h.Geocode(rec, httptest.NewRequest(http.MethodGet, "/api/geocode?address=sarajevo", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sarajevo")

	rec = httptest.NewRecorder()
	h.Geocode(rec, httptest.NewRequest(http.MethodGet, "/api/geocode", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.Geocode(rec, httptest.NewRequest(http.MethodGet, "/api/geocode?address=Atlantis", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = httptest.NewRecorder()
	h.ReverseGeocode(rec, httptest.NewRequest(http.MethodGet, "/api/reverse-geocode?lat=43.85&lng=18.41", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ReverseGeocode(rec, httptest.NewRequest(http.MethodGet, "/api/reverse-geocode?lat=abc&lng=18.41", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
