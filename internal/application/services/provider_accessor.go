package services

import (
	"strings"

	"github.com/zatekoja/providerdirectory/internal/domain/entities"
)

// ProviderAccessor exposes the fields the search engine needs from one kind of
// provider, so a single engine serves doctors and clinics.
type ProviderAccessor[T any] interface {
	ID(p T) int
	DisplayName(p T) string
	// SortName is the key of the name sort.
	SortName(p T) string
	City(p T) string
	// SpecialtyIDs returns every id the specialty filter is matched against;
	// a provider matches when any of them does.
	SpecialtyIDs(p T) []int
	SearchableText(p T) string
	Rating(p T) float64
	Location(p T) (entities.Location, bool)
}

// DoctorAccessor reads doctors. A doctor matches the specialty filter directly.
type DoctorAccessor struct{}

var _ ProviderAccessor[entities.Doctor] = DoctorAccessor{}

func (DoctorAccessor) ID(d entities.Doctor) int { return d.ID }
func (DoctorAccessor) DisplayName(d entities.Doctor) string { return d.DisplayName() }
func (DoctorAccessor) SortName(d entities.Doctor) string { return d.SortName() }
func (DoctorAccessor) City(d entities.Doctor) string { return d.City }
func (DoctorAccessor) Rating(d entities.Doctor) float64 { return d.Rating }
func (DoctorAccessor) SearchableText(d entities.Doctor) string {
	return d.FirstName + " " + d.LastName
}

func (DoctorAccessor) SpecialtyIDs(d entities.Doctor) []int {
	if d.SpecialtyID == nil {
		return nil
	}
	return []int{*d.SpecialtyID}
}

func (DoctorAccessor) Location(d entities.Doctor) (entities.Location, bool) {
	return d.Coordinates()
}

// ClinicAccessor reads clinics. A clinic matches the specialty filter when any of
// its affiliated doctors does, and its search text includes address and description.
type ClinicAccessor struct{}

var _ ProviderAccessor[entities.Clinic] = ClinicAccessor{}

func (ClinicAccessor) ID(c entities.Clinic) int { return c.ID }
func (ClinicAccessor) DisplayName(c entities.Clinic) string { return c.Name }
func (ClinicAccessor) SortName(c entities.Clinic) string { return c.Name }
func (ClinicAccessor) City(c entities.Clinic) string { return c.City }
func (ClinicAccessor) Rating(c entities.Clinic) float64 { return c.Rating }
func (ClinicAccessor) SpecialtyIDs(c entities.Clinic) []int { return c.SpecialtyIDs() }

func (ClinicAccessor) SearchableText(c entities.Clinic) string {
	return strings.Join([]string{c.Name, c.Address, c.Description}, " ")
}

func (ClinicAccessor) Location(c entities.Clinic) (entities.Location, bool) {
	return c.Coordinates()
}
