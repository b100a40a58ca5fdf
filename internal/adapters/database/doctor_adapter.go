package database

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/zatekoja/providerdirectory/internal/domain/entities"
	"github.com/zatekoja/providerdirectory/internal/domain/repositories"
	"github.com/zatekoja/providerdirectory/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/providerdirectory/pkg/errors"
)

var doctorColumns = []interface{}{
	"id", "first_name", "last_name", "title", "slug", "city", "address",
	"specialty_id", "rating", "latitude", "longitude",
}

// DoctorAdapter implements DoctorRepository
type DoctorAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewDoctorAdapter creates a new doctor adapter
func NewDoctorAdapter(client *postgres.Client) repositories.DoctorRepository {
	return &DoctorAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// List retrieves every active doctor ordered by id
func (a *DoctorAdapter) List(ctx context.Context) ([]entities.Doctor, error) {
	query, args, err := a.db.Select(doctorColumns...).
		From("doctors").
		Where(goqu.Ex{"is_active": true}).
		Order(goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return a.query(ctx, query, args)
}

// GetByIDs retrieves the active doctors with the given ids
func (a *DoctorAdapter) GetByIDs(ctx context.Context, ids []int) ([]entities.Doctor, error) {
	if len(ids) == 0 {
		return []entities.Doctor{}, nil
	}

	query, args, err := a.db.Select(doctorColumns...).
		From("doctors").
		Where(goqu.Ex{"id": ids, "is_active": true}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return a.query(ctx, query, args)
}

func (a *DoctorAdapter) query(ctx context.Context, query string, args []interface{}) ([]entities.Doctor, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list doctors", err)
	}
	defer rows.Close()

	doctors := []entities.Doctor{}
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan doctor", err)
		}
		doctors = append(doctors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate doctors", err)
	}

	return doctors, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDoctor(row rowScanner) (entities.Doctor, error) {
	var d entities.Doctor
	var title, address sql.NullString
	var specialtyID sql.NullInt64
	var rating, latitude, longitude sql.NullFloat64

	err := row.Scan(
		&d.ID,
		&d.FirstName,
		&d.LastName,
		&title,
		&d.Slug,
		&d.City,
		&address,
		&specialtyID,
		&rating,
		&latitude,
		&longitude,
	)
	if err != nil {
		return entities.Doctor{}, err
	}

	d.Title = title.String
	d.Address = address.String
	d.Rating = rating.Float64
	d.SpecialtyID = nullIntPtr(specialtyID)
	d.Latitude = nullFloatPtr(latitude)
	d.Longitude = nullFloatPtr(longitude)

	return d, nil
}

func nullIntPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func nullFloatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
