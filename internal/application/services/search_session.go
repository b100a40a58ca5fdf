package services

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/providerdirectory/internal/domain/entities"
	"github.com/zatekoja/providerdirectory/internal/domain/providers"
	apperrors "github.com/zatekoja/providerdirectory/pkg/errors"
)

// FilterPatch is a partial update of a session's filter. Nil fields are left as they are.
type FilterPatch struct {
	SearchText        *string           `json:"search_text,omitempty"`
	City              *string           `json:"city,omitempty"`
	ParentSpecialtyID *string           `json:"parent_specialty_id,omitempty"`
	SubSpecialtyIDs   *[]string         `json:"sub_specialty_ids,omitempty"`
	SortKey           *entities.SortKey `json:"sort_key,omitempty" validate:"omitempty,oneof=name rating distance"`
}

// SearchSession is the server-side counterpart of one search page: it owns the
// fetched collection, the filter state and the location state, and recomputes the
// results after every change. All methods are safe for concurrent use.
type SearchSession[T any] struct {
	id        string
	createdAt time.Time
	providers []T
	engine    *SearchEngine[T]
	locator   *LocationService

	mu       sync.Mutex
	state    entities.FilterState
	location entities.LocationState
	results  []entities.RankedProvider[T]
	// requestSeq identifies the in-flight location request; toggling off bumps it
	// so a late answer is discarded.
	requestSeq uint64
}

// NewSearchSession creates a session over a fetched collection. Location always
// starts inactive, so an initial distance sort falls back to name.
func NewSearchSession[T any](id string, providers []T, engine *SearchEngine[T], locator *LocationService, initial entities.FilterState) *SearchSession[T] {
	state := initial.Clone()
	state.UserLocation = nil
	if !state.SortKey.Valid() || state.SortKey == entities.SortByDistance {
		state.SortKey = entities.SortByName
	}
	if providers == nil {
		providers = []T{}
	}

	s := &SearchSession[T]{
		id:        id,
		createdAt: time.Now().UTC(),
		providers: providers,
		engine:    engine,
		locator:   locator,
		state:     state,
		location:  entities.LocationState{Status: entities.LocationInactive},
	}
	s.recompute()
	return s
}

// ID returns the session id.
func (s *SearchSession[T]) ID() string { return s.id }

// CreatedAt returns when the session was created.
func (s *SearchSession[T]) CreatedAt() time.Time { return s.createdAt }

// Accessor returns the accessor used to read the session's providers.
func (s *SearchSession[T]) Accessor() ProviderAccessor[T] { return s.engine.Accessor() }

// State returns a copy of the current filter state.
func (s *SearchSession[T]) State() entities.FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Location returns the current location state.
func (s *SearchSession[T]) Location() entities.LocationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locationSnapshot()
}

// Results returns the current filtered and sorted results.
func (s *SearchSession[T]) Results() []entities.RankedProvider[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.results)
}

// View projects the current results for the given mode.
func (s *SearchSession[T]) View(mode ViewMode) Projection[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Project(s.engine.Accessor(), mode, s.results, s.state.UserLocation)
}

// SetSearchText replaces the free-text search.
func (s *SearchSession[T]) SetSearchText(text string) error {
	return s.Apply(FilterPatch{SearchText: &text})
}

// SetCity replaces the city filter; empty clears it.
func (s *SearchSession[T]) SetCity(city string) error {
	return s.Apply(FilterPatch{City: &city})
}

// SelectParentSpecialty selects a parent specialty and clears any sub-selection;
// empty clears the specialty filter.
func (s *SearchSession[T]) SelectParentSpecialty(parentID string) error {
	return s.Apply(FilterPatch{ParentSpecialtyID: &parentID})
}

// ToggleSubSpecialty adds or removes one sub-specialty under the selected parent.
func (s *SearchSession[T]) ToggleSubSpecialty(subID string) error {
	s.mu.Lock()
	subs := slices.Clone(s.state.SubSpecialtyIDs)
	s.mu.Unlock()

	if i := slices.Index(subs, subID); i >= 0 {
		subs = slices.Delete(subs, i, i+1)
	} else {
		subs = append(subs, subID)
	}
	return s.Apply(FilterPatch{SubSpecialtyIDs: &subs})
}

// SetSubSpecialties replaces the whole sub-selection.
func (s *SearchSession[T]) SetSubSpecialties(subIDs []string) error {
	return s.Apply(FilterPatch{SubSpecialtyIDs: &subIDs})
}

// SetSortKey changes the ordering. Sorting by distance requires an active location.
func (s *SearchSession[T]) SetSortKey(key entities.SortKey) error {
	return s.Apply(FilterPatch{SortKey: &key})
}

// Apply validates and applies a patch atomically, then recomputes the results.
// Changing the parent specialty resets the sub-selection unless the patch sets it too.
func (s *SearchSession[T]) Apply(patch FilterPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	if patch.SearchText != nil {
		next.SearchText = *patch.SearchText
	}
	if patch.City != nil {
		next.City = *patch.City
	}
	if patch.ParentSpecialtyID != nil {
		parent := strings.TrimSpace(*patch.ParentSpecialtyID)
		if parent != next.ParentSpecialtyID {
			next.SubSpecialtyIDs = []string{}
		}
		next.ParentSpecialtyID = parent
	}
	if patch.SubSpecialtyIDs != nil {
		next.SubSpecialtyIDs = dedupe(*patch.SubSpecialtyIDs)
	}
	if patch.SortKey != nil {
		next.SortKey = *patch.SortKey
	}

	if len(next.SubSpecialtyIDs) > 0 && next.ParentSpecialtyID == "" {
		return apperrors.NewValidationError("sub-specialties require a parent specialty")
	}
	if !next.SortKey.Valid() {
		return apperrors.NewValidationError("unknown sort key " + string(next.SortKey))
	}
	if next.SortKey == entities.SortByDistance && !s.location.Active() {
		return apperrors.NewValidationError("sorting by distance requires an active location")
	}

	s.state = next
	s.recompute()
	return nil
}

// EnableLocation toggles location on by issuing one request to provider. The
// session lock is not held while waiting, so filter changes keep working.
//
// On success the location becomes active and the sort switches to distance. On
// failure the location returns to inactive, LastError explains why and the sort
// key is left alone. A failed request is reported through the returned state, not
// as an error; the error is only set when a request is already in flight.
func (s *SearchSession[T]) EnableLocation(ctx context.Context, provider providers.LocationProvider) (entities.LocationState, error) {
	s.mu.Lock()
	switch s.location.Status {
	case entities.LocationRequesting:
		s.mu.Unlock()
		return s.Location(), apperrors.NewConflictError("a location request is already in progress")
	case entities.LocationActive:
		defer s.mu.Unlock()
		return s.locationSnapshot(), nil
	}
	s.requestSeq++
	seq := s.requestSeq
	s.location = entities.LocationState{Status: entities.LocationRequesting}
	s.mu.Unlock()

	coords, err := s.locator.Acquire(ctx, provider)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.requestSeq != seq || s.location.Status != entities.LocationRequesting {
		// Toggled off while waiting.
		return s.locationSnapshot(), nil
	}

	if err != nil {
		msg := err.Error()
		var locErr *LocationError
		if errors.As(err, &locErr) {
			msg = locErr.Message
		}
		s.location = entities.LocationState{Status: entities.LocationInactive, LastError: msg}
		log.Info().Str("session_id", s.id).Err(err).Msg("location request failed")
		return s.locationSnapshot(), nil
	}

	s.location = entities.LocationState{Status: entities.LocationActive, Coordinates: coords}
	loc := *coords
	s.state.UserLocation = &loc
	s.state.SortKey = entities.SortByDistance
	s.recompute()
	return s.locationSnapshot(), nil
}

// DisableLocation toggles location off. Distances are dropped and, if location was
// active, the sort returns to name. A pending request is abandoned.
func (s *SearchSession[T]) DisableLocation() entities.LocationState {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasActive := s.location.Active()
	s.requestSeq++
	s.location = entities.LocationState{Status: entities.LocationInactive}
	s.state.UserLocation = nil
	if wasActive || s.state.SortKey == entities.SortByDistance {
		s.state.SortKey = entities.SortByName
	}
	s.recompute()
	return s.locationSnapshot()
}

// recompute runs the pipeline from the full collection. Callers hold s.mu.
func (s *SearchSession[T]) recompute() {
	state := s.state
	if !s.location.Active() {
		state.UserLocation = nil
	}
	s.results = s.engine.Run(s.providers, state)
}

func (s *SearchSession[T]) locationSnapshot() entities.LocationState {
	out := s.location
	if out.Coordinates != nil {
		c := *out.Coordinates
		out.Coordinates = &c
	}
	return out
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}
