package entities

import "strings"

// Doctor represents an individual practitioner listed in the directory
type Doctor struct {
	ID          int      `json:"id" db:"id"`
	FirstName   string   `json:"first_name" db:"first_name"`
	LastName    string   `json:"last_name" db:"last_name"`
	Title       string   `json:"title,omitempty" db:"title"`
	Slug        string   `json:"slug" db:"slug"`
	City        string   `json:"city" db:"city"`
	Address     string   `json:"address,omitempty" db:"address"`
	SpecialtyID *int     `json:"specialty_id,omitempty" db:"specialty_id"`
	Rating      float64  `json:"rating" db:"rating"`
	Latitude    *float64 `json:"latitude,omitempty" db:"latitude"`
	Longitude   *float64 `json:"longitude,omitempty" db:"longitude"`
}

// DisplayName composes the name shown on cards and map markers.
func (d Doctor) DisplayName() string {
	name := d.SortName()
	if d.Title != "" {
		return d.Title + " " + name
	}
	return name
}

// SortName is the given and family name without the title; name ordering uses it.
func (d Doctor) SortName() string {
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}

// Coordinates returns the doctor's location when both coordinates are present.
func (d Doctor) Coordinates() (Location, bool) {
	return coordinates(d.Latitude, d.Longitude)
}

func coordinates(lat, lng *float64) (Location, bool) {
	if lat == nil || lng == nil {
		return Location{}, false
	}
	return Location{Latitude: *lat, Longitude: *lng}, true
}
