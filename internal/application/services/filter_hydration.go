package services

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/zatekoja/providerdirectory/internal/domain/entities"
)

// HydrateFilterState builds the initial filter from URL query values:
//
//	q          free-text search
//	city       exact city name
//	specialty  parent or child specialty, by id or slug
//	sub        sub-specialty id, repeated or comma separated
//	sort       name | rating | distance
//	lat, lng   user location, both required
//
// Unknown specialties are kept as given and match nothing. An invalid sort key, or
// a distance sort without a location, falls back to name.
func HydrateFilterState(values url.Values, specialties *SpecialtyIndex) entities.FilterState {
	state := entities.DefaultFilterState()
	state.SearchText = values.Get("q")
	state.City = values.Get("city")

	if raw := strings.TrimSpace(values.Get("specialty")); raw != "" {
		parent, sub := resolveSpecialty(raw, specialties)
		state.ParentSpecialtyID = parent
		if sub != "" {
			state.SubSpecialtyIDs = append(state.SubSpecialtyIDs, sub)
		}
	}

	if state.ParentSpecialtyID != "" {
		var subs []string
		for _, v := range values["sub"] {
			subs = append(subs, strings.Split(v, ",")...)
		}
		state.SubSpecialtyIDs = dedupe(append(state.SubSpecialtyIDs, subs...))
	}

	if loc, ok := parseLocation(values); ok {
		state.UserLocation = &loc
	}

	state.SortKey = entities.SortKey(values.Get("sort"))
	if !state.SortKey.Valid() || (state.SortKey == entities.SortByDistance && state.UserLocation == nil) {
		state.SortKey = entities.SortByName
	}

	return state
}

func resolveSpecialty(raw string, specialties *SpecialtyIndex) (parent, sub string) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		if p, s, ok := specialties.ResolveSlug(raw); ok {
			return p, s
		}
		return raw, ""
	}

	if specialties.ResolveParent(id) != nil {
		return raw, ""
	}
	for _, p := range specialties.Parents() {
		for _, c := range p.Children {
			if c.ID == id {
				return strconv.Itoa(p.ID), raw
			}
		}
	}
	return raw, ""
}

func parseLocation(values url.Values) (entities.Location, bool) {
	latRaw, lngRaw := values.Get("lat"), values.Get("lng")
	if latRaw == "" || lngRaw == "" {
		return entities.Location{}, false
	}
	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil || lat < -90 || lat > 90 {
		return entities.Location{}, false
	}
	lng, err := strconv.ParseFloat(lngRaw, 64)
	if err != nil || lng < -180 || lng > 180 {
		return entities.Location{}, false
	}
	return entities.Location{Latitude: lat, Longitude: lng}, true
}
