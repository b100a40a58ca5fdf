package services

import (
	"context"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/providerdirectory/internal/domain/entities"
	"github.com/zatekoja/providerdirectory/internal/domain/providers"
	"github.com/zatekoja/providerdirectory/internal/domain/repositories"
	"github.com/zatekoja/providerdirectory/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/providerdirectory/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// Provider kinds, as used in routes and log fields.
const (
	KindDoctors = "doctors"
	KindClinics = "clinics"
)

// DirectoryOptions configures the directory service.
type DirectoryOptions struct {
	// Locale is the BCP 47 tag used to collate provider names.
	Locale          string
	SessionTTL      time.Duration
	LocationTimeout time.Duration

	// Metrics is optional.
	Metrics *observability.Metrics
}

// DirectoryService exposes the provider directory: reference data for the filter
// controls, one-shot searches and search sessions for doctors and clinics.
type DirectoryService struct {
	specialtyRepo repositories.SpecialtyRepository
	cityRepo      repositories.CityRepository

	Doctors *ProviderDirectory[entities.Doctor]
	Clinics *ProviderDirectory[entities.Clinic]
}

// NewDirectoryService creates a new directory service
func NewDirectoryService(
	doctorRepo repositories.DoctorRepository,
	clinicRepo repositories.ClinicRepository,
	specialtyRepo repositories.SpecialtyRepository,
	cityRepo repositories.CityRepository,
	opts DirectoryOptions,
) *DirectoryService {
	if opts.Locale == "" {
		opts.Locale = "bs"
	}

	s := &DirectoryService{
		specialtyRepo: specialtyRepo,
		cityRepo:      cityRepo,
	}
	locator := NewLocationService(opts.LocationTimeout)

	s.Doctors = &ProviderDirectory[entities.Doctor]{
		kind:        KindDoctors,
		load:        doctorRepo.List,
		accessor:    DoctorAccessor{},
		specialties: s.SpecialtyIndex,
		locale:      opts.Locale,
		locator:     locator,
		sessions:    NewSessionStore[entities.Doctor](KindDoctors, opts.SessionTTL),
		metrics:     opts.Metrics,
	}
	s.Clinics = &ProviderDirectory[entities.Clinic]{
		kind:        KindClinics,
		load:        clinicRepo.List,
		accessor:    ClinicAccessor{},
		specialties: s.SpecialtyIndex,
		locale:      opts.Locale,
		locator:     locator,
		sessions:    NewSessionStore[entities.Clinic](KindClinics, opts.SessionTTL),
		metrics:     opts.Metrics,
	}
	s.Doctors.trackSessions()
	s.Clinics.trackSessions()

	return s
}

// Specialties returns the specialty tree for the parent and sub-specialty selectors.
func (s *DirectoryService) Specialties(ctx context.Context) ([]entities.Specialty, error) {
	ix, err := s.SpecialtyIndex(ctx)
	if err != nil {
		return nil, err
	}
	return ix.Parents(), nil
}

// SpecialtyIndex fetches the taxonomy and indexes it.
func (s *DirectoryService) SpecialtyIndex(ctx context.Context) (*SpecialtyIndex, error) {
	specialties, err := s.specialtyRepo.ListTree(ctx)
	if err != nil {
		return nil, fetchError("specialties", err)
	}
	return NewSpecialtyIndex(specialties), nil
}

// Cities returns the canonical city list used for autocomplete.
func (s *DirectoryService) Cities(ctx context.Context) ([]entities.City, error) {
	cities, err := s.cityRepo.List(ctx)
	if err != nil {
		return nil, fetchError("cities", err)
	}
	if cities == nil {
		cities = []entities.City{}
	}
	return cities, nil
}

// SearchResult is the outcome of a one-shot search.
type SearchResult[T any] struct {
	State   entities.FilterState
	Results []entities.RankedProvider[T]
}

// ProviderDirectory serves one provider kind.
type ProviderDirectory[T any] struct {
	kind        string
	load        func(ctx context.Context) ([]T, error)
	accessor    ProviderAccessor[T]
	specialties func(ctx context.Context) (*SpecialtyIndex, error)
	locale      string
	locator     *LocationService
	sessions    *SessionStore[T]
	metrics     *observability.Metrics
}

// Kind returns the provider kind served, e.g. "doctors".
func (d *ProviderDirectory[T]) Kind() string { return d.kind }

// Accessor returns the accessor for this kind.
func (d *ProviderDirectory[T]) Accessor() ProviderAccessor[T] { return d.accessor }

// Search runs the pipeline once over a freshly fetched collection, with the filter
// hydrated from URL query values. lat/lng in the query act as an active location.
func (d *ProviderDirectory[T]) Search(ctx context.Context, values url.Values) (*SearchResult[T], error) {
	ctx, span := observability.StartSpan(ctx, "directory.search")
	defer span.End()
	span.SetAttributes(attribute.String("directory.kind", d.kind))

	engine, collection, err := d.prepare(ctx)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	state := HydrateFilterState(values, engine.filter.specialties)
	start := time.Now()
	results := engine.Run(collection, state)
	if d.metrics != nil {
		observability.RecordSearch(ctx, d.metrics, d.kind, len(results), time.Since(start))
	}
	span.SetAttributes(
		attribute.Int("directory.source_count", len(collection)),
		attribute.Int("directory.result_count", len(results)),
	)

	return &SearchResult[T]{State: state, Results: results}, nil
}

// CreateSession fetches the collection once and opens a session over it. Location
// from the query is ignored; it is only ever enabled through the session.
func (d *ProviderDirectory[T]) CreateSession(ctx context.Context, values url.Values) (*SearchSession[T], error) {
	ctx, span := observability.StartSpan(ctx, "directory.create_session")
	defer span.End()
	span.SetAttributes(attribute.String("directory.kind", d.kind))

	engine, collection, err := d.prepare(ctx)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	session := NewSearchSession(d.sessions.NewID(), collection, engine, d.locator, HydrateFilterState(values, engine.filter.specialties))
	d.sessions.Put(session)
	if d.metrics != nil {
		observability.RecordSessions(ctx, d.metrics, d.kind, 1)
	}

	log.Ctx(ctx).Debug().
		Str("kind", d.kind).
		Str("session_id", session.ID()).
		Int("providers", len(collection)).
		Msg("search session created")

	return session, nil
}

// Session returns a live session.
func (d *ProviderDirectory[T]) Session(id string) (*SearchSession[T], error) {
	return d.sessions.Get(id)
}

// DeleteSession discards a session.
func (d *ProviderDirectory[T]) DeleteSession(id string) error {
	return d.sessions.Delete(id)
}

// EnableLocation looks up the session and performs its one location request.
// A failed request is reported in the returned state, not as an error.
func (d *ProviderDirectory[T]) EnableLocation(ctx context.Context, id string, provider providers.LocationProvider) (*SearchSession[T], entities.LocationState, error) {
	ctx, span := observability.StartSpan(ctx, "directory.enable_location")
	defer span.End()
	span.SetAttributes(attribute.String("directory.kind", d.kind))

	session, err := d.sessions.Get(id)
	if err != nil {
		return nil, entities.LocationState{}, err
	}

	state, err := session.EnableLocation(ctx, provider)
	if err != nil {
		observability.RecordError(span, err)
		return session, state, err
	}

	outcome := "failed"
	if state.Active() {
		outcome = "active"
	}
	span.SetAttributes(attribute.String("directory.location_outcome", outcome))
	if d.metrics != nil {
		observability.RecordLocationRequest(ctx, d.metrics, d.kind, outcome)
	}
	return session, state, nil
}

// DisableLocation looks up the session and turns its location off.
func (d *ProviderDirectory[T]) DisableLocation(id string) (*SearchSession[T], error) {
	session, err := d.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	session.DisableLocation()
	return session, nil
}

// SessionCount returns the number of live sessions.
func (d *ProviderDirectory[T]) SessionCount() int {
	return d.sessions.Len()
}

func (d *ProviderDirectory[T]) trackSessions() {
	if d.metrics == nil {
		return
	}
	d.sessions.OnEvicted(func(string) {
		observability.RecordSessions(context.Background(), d.metrics, d.kind, -1)
	})
}

func (d *ProviderDirectory[T]) prepare(ctx context.Context) (*SearchEngine[T], []T, error) {
	ix, err := d.specialties(ctx)
	if err != nil {
		return nil, nil, err
	}

	collection, err := d.load(ctx)
	if err != nil {
		return nil, nil, fetchError(d.kind, err)
	}
	if collection == nil {
		collection = []T{}
	}

	return NewSearchEngine(d.accessor, ix, d.locale), collection, nil
}

// fetchError keeps AppErrors from the repositories and marks anything else as an
// upstream failure.
func fetchError(what string, err error) error {
	if _, ok := apperrors.As(err); ok {
		return err
	}
	return apperrors.NewExternalError("failed to load "+what, err)
}
