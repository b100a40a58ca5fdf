package services

import (
	"github.com/zatekoja/providerdirectory/internal/domain/entities"
)

// ViewMode selects how results are presented.
type ViewMode string

const (
	ViewList  ViewMode = "list"
	ViewMap   ViewMode = "map"
	ViewSplit ViewMode = "split"
)

// ParseViewMode returns the mode for s, defaulting to list.
func ParseViewMode(s string) ViewMode {
	switch ViewMode(s) {
	case ViewMap, ViewSplit:
		return ViewMode(s)
	}
	return ViewList
}

// MapMarker is one provider pinned on the map.
type MapMarker struct {
	ID         int      `json:"id"`
	Name       string   `json:"name"`
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	Rating     float64  `json:"rating"`
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// MapBounds is the bounding box of the markers.
type MapBounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// MapView holds the markers, their bounds and the user position when known.
type MapView struct {
	Markers      []MapMarker        `json:"markers"`
	Bounds       *MapBounds         `json:"bounds,omitempty"`
	UserLocation *entities.Location `json:"user_location,omitempty"`
}

// Projection is a read-only presentation of one result array. List and Map are
// populated according to the mode; split fills both from the same array.
type Projection[T any] struct {
	Mode  ViewMode                     `json:"mode"`
	Count int                          `json:"count"`
	List  []entities.RankedProvider[T] `json:"list,omitempty"`
	Map   *MapView                     `json:"map,omitempty"`
}

// ProjectList returns the card list: every result, in order.
func ProjectList[T any](results []entities.RankedProvider[T]) []entities.RankedProvider[T] {
	if results == nil {
		return []entities.RankedProvider[T]{}
	}
	return results
}

// ProjectMap pins the results that have both coordinates, keeping their order.
// Results without coordinates are left out of the map but stay in the list.
func ProjectMap[T any](accessor ProviderAccessor[T], results []entities.RankedProvider[T], user *entities.Location) *MapView {
	view := &MapView{Markers: make([]MapMarker, 0, len(results)), UserLocation: user}

	for _, r := range results {
		loc, ok := accessor.Location(r.Provider)
		if !ok {
			continue
		}
		view.Markers = append(view.Markers, MapMarker{
			ID:         accessor.ID(r.Provider),
			Name:       accessor.DisplayName(r.Provider),
			Latitude:   loc.Latitude,
			Longitude:  loc.Longitude,
			Rating:     accessor.Rating(r.Provider),
			DistanceKm: r.DistanceKm,
		})
		view.Bounds = extend(view.Bounds, loc)
	}

	return view
}

// ProjectSplit returns the list and the map of the same results.
func ProjectSplit[T any](accessor ProviderAccessor[T], results []entities.RankedProvider[T], user *entities.Location) ([]entities.RankedProvider[T], *MapView) {
	return ProjectList(results), ProjectMap(accessor, results, user)
}

// Project builds the projection for mode from results.
func Project[T any](accessor ProviderAccessor[T], mode ViewMode, results []entities.RankedProvider[T], user *entities.Location) Projection[T] {
	p := Projection[T]{Mode: mode, Count: len(results)}
	switch mode {
	case ViewMap:
		p.Map = ProjectMap(accessor, results, user)
	case ViewSplit:
		p.List, p.Map = ProjectSplit(accessor, results, user)
	default:
		p.Mode = ViewList
		p.List = ProjectList(results)
	}
	return p
}

func extend(b *MapBounds, loc entities.Location) *MapBounds {
	if b == nil {
		return &MapBounds{North: loc.Latitude, South: loc.Latitude, East: loc.Longitude, West: loc.Longitude}
	}
	b.North = max(b.North, loc.Latitude)
	b.South = min(b.South, loc.Latitude)
	b.East = max(b.East, loc.Longitude)
	b.West = min(b.West, loc.Longitude)
	return b
}
