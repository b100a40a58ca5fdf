package repositories

import (
	"context"

	"github.com/zatekoja/providerdirectory/internal/domain/entities"
)

// Every List method returns the whole collection; the search engine filters in memory.
// Implementations return an empty slice, never nil, when there is nothing to return.

// DoctorRepository defines read access to the doctor collection
type DoctorRepository interface {
	// List retrieves every listed doctor
	List(ctx context.Context) ([]entities.Doctor, error)

	// GetByIDs retrieves the doctors with the given ids, in no particular order
	GetByIDs(ctx context.Context, ids []int) ([]entities.Doctor, error)
}

// ClinicRepository defines read access to the clinic collection
type ClinicRepository interface {
	// List retrieves every clinic with its affiliated doctors populated
	List(ctx context.Context) ([]entities.Clinic, error)
}

// SpecialtyRepository defines read access to the specialty taxonomy
type SpecialtyRepository interface {
	// ListTree retrieves top-level specialties with their children embedded
	ListTree(ctx context.Context) ([]entities.Specialty, error)
}

// CityRepository defines read access to the canonical city list
type CityRepository interface {
	// List retrieves every known city
	List(ctx context.Context) ([]entities.City, error)
}

// DirectoryIndexRepository mirrors the directory into an external search index (e.g. Typesense)
type DirectoryIndexRepository interface {
	// InitSchema ensures the index collections exist
	InitSchema(ctx context.Context) error

	// IndexDoctors upserts doctors into the index
	IndexDoctors(ctx context.Context, doctors []entities.Doctor) (int, error)

	// IndexClinics upserts clinics into the index
	IndexClinics(ctx context.Context, clinics []entities.Clinic) (int, error)
}
