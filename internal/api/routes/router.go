package routes

import (
	"net/http"

	"github.com/zatekoja/providerdirectory/internal/api/handlers"
	"github.com/zatekoja/providerdirectory/internal/api/middleware"
	"github.com/zatekoja/providerdirectory/internal/domain/entities"
	"github.com/zatekoja/providerdirectory/internal/infrastructure/observability"
)

// Options holds the optional parts of the middleware chain

type Options struct {
	CacheMiddleware *middleware.CacheMiddleware
	RateLimiter     *middleware.RateLimiter
	Metrics         *observability.Metrics

	AllowedOrigins []string
}

// Router holds all route handlers

type Router struct {
	mux *http.ServeMux

	directoryHandler *handlers.DirectoryHandler

	doctorSessions *handlers.SessionHandler[entities.Doctor]
	clinicSessions *handlers.SessionHandler[entities.Clinic]

	geolocationHandler *handlers.GeolocationHandler

	opts Options
}

// NewRouter creates a new router

func NewRouter(
	directoryHandler *handlers.DirectoryHandler,
	doctorSessions *handlers.SessionHandler[entities.Doctor],
	clinicSessions *handlers.SessionHandler[entities.Clinic],
	geolocationHandler *handlers.GeolocationHandler,
	opts Options,
) *Router {

	return &Router{
		mux: http.NewServeMux(),

		directoryHandler: directoryHandler,

		doctorSessions: doctorSessions,
		clinicSessions: clinicSessions,

		geolocationHandler: geolocationHandler,

		opts: opts,
	}

}

// SetupRoutes configures all application routes

func (r *Router) SetupRoutes() http.Handler {

	// Health check endpoint

	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {

		w.WriteHeader(http.StatusOK)

		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}

	})

	// Reference data for the filter controls

	r.mux.HandleFunc("GET /api/specialties", r.directoryHandler.ListSpecialties)
	r.mux.HandleFunc("GET /api/cities", r.directoryHandler.ListCities)

	// One-shot searches

	r.mux.HandleFunc("GET /api/doctors/search", r.directoryHandler.SearchDoctors)
	r.mux.HandleFunc("GET /api/clinics/search", r.directoryHandler.SearchClinics)

	// Search sessions

	registerSessions(r.mux, "doctors", r.doctorSessions)
	registerSessions(r.mux, "clinics", r.clinicSessions)

	// Geolocation endpoints

	if r.geolocationHandler != nil {
		r.mux.HandleFunc("GET /api/geocode", r.geolocationHandler.Geocode)
		r.mux.HandleFunc("GET /api/reverse-geocode", r.geolocationHandler.ReverseGeocode)
	}

	// Apply middleware in reverse order (last middleware wraps first)

	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	// Apply cache middleware if available
	if r.opts.CacheMiddleware != nil {
		handler = r.opts.CacheMiddleware.Middleware(handler)
	}

	if r.opts.RateLimiter != nil {
		handler = r.opts.RateLimiter.Limit(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.mux, r.opts.Metrics)(handler)

	// Apply HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(r.opts.AllowedOrigins)(handler)

	return handler
}

func registerSessions[T any](mux *http.ServeMux, kind string, h *handlers.SessionHandler[T]) {
	if h == nil {
		return
	}
	base := "/api/" + kind + "/sessions"
	mux.HandleFunc("POST "+base, h.Create)
	mux.HandleFunc("GET "+base+"/{id}", h.Get)
	mux.HandleFunc("DELETE "+base+"/{id}", h.Delete)
	mux.HandleFunc("PATCH "+base+"/{id}/filter", h.UpdateFilter)
	mux.HandleFunc("POST "+base+"/{id}/location", h.EnableLocation)
	mux.HandleFunc("DELETE "+base+"/{id}/location", h.DisableLocation)
}
