package entities

// Location represents geographical coordinates
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SortKey selects the ordering applied after filtering.
type SortKey string

const (
	SortByName     SortKey = "name"
	SortByRating   SortKey = "rating"
	SortByDistance SortKey = "distance"
)

// Valid reports whether k is one of the supported sort keys.
func (k SortKey) Valid() bool {
	switch k {
	case SortByName, SortByRating, SortByDistance:
		return true
	}
	return false
}

// FilterState is the per-session input to the filter pipeline.
// Specialty ids are kept as strings because they arrive from URL and form inputs.
type FilterState struct {
	SearchText        string    `json:"search_text"`
	City              string    `json:"city"`
	ParentSpecialtyID string    `json:"parent_specialty_id"`
	SubSpecialtyIDs   []string  `json:"sub_specialty_ids"`
	UserLocation      *Location `json:"user_location,omitempty"`
	SortKey           SortKey   `json:"sort_key"`
}

// DefaultFilterState returns an inactive filter sorted by name.
func DefaultFilterState() FilterState {
	return FilterState{
		SubSpecialtyIDs: []string{},
		SortKey:         SortByName,
	}
}

// Clone returns a copy that shares no slices or pointers with s.
func (s FilterState) Clone() FilterState {
	out := s
	out.SubSpecialtyIDs = append([]string{}, s.SubSpecialtyIDs...)
	if s.UserLocation != nil {
		loc := *s.UserLocation
		out.UserLocation = &loc
	}
	return out
}

// RankedProvider is a provider paired with its transient distance from the
// active user location. The wrapped provider record is never modified.
type RankedProvider[T any] struct {
	Provider   T        `json:"provider"`
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// LocationStatus is the state of the one-shot location request.
type LocationStatus string

const (
	LocationInactive   LocationStatus = "inactive"
	LocationRequesting LocationStatus = "requesting"
	LocationActive     LocationStatus = "active"
)

// LocationState is what the presentation layer sees of location acquisition.
type LocationState struct {
	Status      LocationStatus `json:"status"`
	Coordinates *Location      `json:"coordinates,omitempty"`
	LastError   string         `json:"last_error,omitempty"`
}

// Active reports whether distances are being computed.
func (s LocationState) Active() bool {
	return s.Status == LocationActive
}
