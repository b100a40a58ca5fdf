package directoryapi

import (
	"context"
	"errors"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/providerdirectory/internal/domain/entities"
	"github.com/zatekoja/providerdirectory/internal/domain/repositories"
	"github.com/zatekoja/providerdirectory/internal/infrastructure/clients/providerapi"
)

// DoctorAdapter implements DoctorRepository over the directory API
type DoctorAdapter struct {
	client providerapi.Client
}

// NewDoctorAdapter creates a new doctor adapter
func NewDoctorAdapter(client providerapi.Client) repositories.DoctorRepository {
	return &DoctorAdapter{client: client}
}

func (a *DoctorAdapter) List(ctx context.Context) ([]entities.Doctor, error) {
	return a.client.ListDoctors(ctx)
}

func (a *DoctorAdapter) GetByIDs(ctx context.Context, ids []int) ([]entities.Doctor, error) {
	return a.client.GetDoctorsByIDs(ctx, ids)
}

// ClinicAdapter implements ClinicRepository over the directory API. The API
// lists clinics with doctor ids only; the doctors are resolved in batches.
type ClinicAdapter struct {
	client  providerapi.Client
	doctors repositories.DoctorRepository
}

// NewClinicAdapter creates a new clinic adapter
func NewClinicAdapter(client providerapi.Client, doctors repositories.DoctorRepository) repositories.ClinicRepository {
	return &ClinicAdapter{client: client, doctors: doctors}
}

// List returns every clinic with its affiliated doctors in listed order.
// Doctor ids the upstream does not know are skipped.
func (a *ClinicAdapter) List(ctx context.Context) ([]entities.Clinic, error) {
	clinics, err := a.client.ListClinics(ctx)
	if err != nil {
		return nil, err
	}

	loader := newDoctorLoader(a.doctors)
	thunks := make([]dataloader.ThunkMany[entities.Doctor], len(clinics))
	for i, c := range clinics {
		thunks[i] = loader.LoadMany(ctx, c.DoctorIDs)
	}

	for i, thunk := range thunks {
		loaded, errs := thunk()
		doctors := make([]entities.Doctor, 0, len(loaded))
		for j, d := range loaded {
			if j < len(errs) && errs[j] != nil {
				if !errors.Is(errs[j], errDoctorNotFound) {
					return nil, errs[j]
				}
				log.Debug().Int("clinic_id", clinics[i].ID).Err(errs[j]).Msg("skipping unknown affiliated doctor")
				continue
			}
			doctors = append(doctors, d)
		}
		clinics[i].Doctors = doctors
	}

	return clinics, nil
}

// SpecialtyAdapter implements SpecialtyRepository over the directory API
type SpecialtyAdapter struct {
	client providerapi.Client
}

func NewSpecialtyAdapter(client providerapi.Client) repositories.SpecialtyRepository {
	return &SpecialtyAdapter{client: client}
}

func (a *SpecialtyAdapter) ListTree(ctx context.Context) ([]entities.Specialty, error) {
	return a.client.ListSpecialties(ctx)
}

// CityAdapter implements CityRepository over the directory API
type CityAdapter struct {
	client providerapi.Client
}

func NewCityAdapter(client providerapi.Client) repositories.CityRepository {
	return &CityAdapter{client: client}
}

func (a *CityAdapter) List(ctx context.Context) ([]entities.City, error) {
	return a.client.ListCities(ctx)
}
