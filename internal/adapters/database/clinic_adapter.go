package database

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	"github.com/zatekoja/providerdirectory/internal/domain/entities"
	"github.com/zatekoja/providerdirectory/internal/domain/repositories"
	"github.com/zatekoja/providerdirectory/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/providerdirectory/pkg/errors"
)

// ClinicAdapter implements ClinicRepository. Affiliated doctors come from the
// clinic_doctors join table and are resolved through the doctor repository.
type ClinicAdapter struct {
	client  *postgres.Client
	db      *goqu.Database
	doctors repositories.DoctorRepository
}

// NewClinicAdapter creates a new clinic adapter
func NewClinicAdapter(client *postgres.Client, doctors repositories.DoctorRepository) repositories.ClinicRepository {
	return &ClinicAdapter{
		client:  client,
		db:      goqu.New("postgres", client.DB()),
		doctors: doctors,
	}
}

// List retrieves every active clinic with its affiliated doctors
func (a *ClinicAdapter) List(ctx context.Context) ([]entities.Clinic, error) {
	clinics, err := a.listClinics(ctx)
	if err != nil {
		return nil, err
	}
	if len(clinics) == 0 {
		return clinics, nil
	}

	affiliations, err := a.listAffiliations(ctx)
	if err != nil {
		return nil, err
	}

	var doctorIDs []int
	seen := make(map[int]struct{})
	for i := range clinics {
		clinics[i].DoctorIDs = affiliations[clinics[i].ID]
		for _, id := range clinics[i].DoctorIDs {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				doctorIDs = append(doctorIDs, id)
			}
		}
	}

	doctors, err := a.doctors.GetByIDs(ctx, doctorIDs)
	if err != nil {
		return nil, err
	}

	return AttachDoctors(clinics, doctors), nil
}

func (a *ClinicAdapter) listClinics(ctx context.Context) ([]entities.Clinic, error) {
	query, args, err := a.db.Select(
		"id", "name", "slug", "city", "address", "description",
		"rating", "latitude", "longitude",
	).From("clinics").
		Where(goqu.Ex{"is_active": true}).
		Order(goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list clinics", err)
	}
	defer rows.Close()

	clinics := []entities.Clinic{}
	for rows.Next() {
		var c entities.Clinic
		var address, description sql.NullString
		var rating, latitude, longitude sql.NullFloat64

		err := rows.Scan(
			&c.ID,
			&c.Name,
			&c.Slug,
			&c.City,
			&address,
			&description,
			&rating,
			&latitude,
			&longitude,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan clinic", err)
		}

		c.Address = address.String
		c.Description = description.String
		c.Rating = rating.Float64
		c.Latitude = nullFloatPtr(latitude)
		c.Longitude = nullFloatPtr(longitude)
		clinics = append(clinics, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate clinics", err)
	}

	return clinics, nil
}

// listAffiliations returns doctor ids per clinic id, in join-table order.
func (a *ClinicAdapter) listAffiliations(ctx context.Context) (map[int][]int, error) {
	query, args, err := a.db.Select("clinic_id", "doctor_id").
		From("clinic_doctors").
		Order(goqu.I("clinic_id").Asc(), goqu.I("position").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list clinic doctors", err)
	}
	defer rows.Close()

	out := make(map[int][]int)
	for rows.Next() {
		var clinicID, doctorID int
		if err := rows.Scan(&clinicID, &doctorID); err != nil {
			return nil, apperrors.NewInternalError("failed to scan clinic doctor", err)
		}
		out[clinicID] = append(out[clinicID], doctorID)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate clinic doctors", err)
	}

	return out, nil
}

// AttachDoctors fills each clinic's Doctors from its DoctorIDs, keeping the id
// order. Ids with no matching doctor (inactive or removed) are skipped.
func AttachDoctors(clinics []entities.Clinic, doctors []entities.Doctor) []entities.Clinic {
	byID := make(map[int]entities.Doctor, len(doctors))
	for _, d := range doctors {
		byID[d.ID] = d
	}

	for i := range clinics {
		clinics[i].Doctors = make([]entities.Doctor, 0, len(clinics[i].DoctorIDs))
		for _, id := range clinics[i].DoctorIDs {
			if d, ok := byID[id]; ok {
				clinics[i].Doctors = append(clinics[i].Doctors, d)
			}
		}
	}
	return clinics
}
