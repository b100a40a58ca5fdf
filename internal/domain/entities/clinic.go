package entities

// Clinic represents an organisation that groups affiliated doctors
type Clinic struct {
	ID          int      `json:"id" db:"id"`
	Name        string   `json:"name" db:"name"`
	Slug        string   `json:"slug" db:"slug"`
	City        string   `json:"city" db:"city"`
	Address     string   `json:"address,omitempty" db:"address"`
	Description string   `json:"description,omitempty" db:"description"`
	Rating      float64  `json:"rating" db:"rating"`
	Latitude    *float64 `json:"latitude,omitempty" db:"latitude"`
	Longitude   *float64 `json:"longitude,omitempty" db:"longitude"`
	DoctorIDs   []int    `json:"doctor_ids,omitempty" db:"-"`
	Doctors     []Doctor `json:"doctors,omitempty" db:"-"`
}

// Coordinates returns the clinic's location when both coordinates are present.
func (c Clinic) Coordinates() (Location, bool) {
	return coordinates(c.Latitude, c.Longitude)
}

// SpecialtyIDs returns the distinct specialty ids of the affiliated doctors,
// in the order the doctors are listed. Doctors without a specialty contribute nothing.
func (c Clinic) SpecialtyIDs() []int {
	ids := make([]int, 0, len(c.Doctors))
	seen := make(map[int]struct{}, len(c.Doctors))
	for _, d := range c.Doctors {
		if d.SpecialtyID == nil {
			continue
		}
		if _, ok := seen[*d.SpecialtyID]; ok {
			continue
		}
		seen[*d.SpecialtyID] = struct{}{}
		ids = append(ids, *d.SpecialtyID)
	}
	return ids
}
