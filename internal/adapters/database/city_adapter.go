package database

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/zatekoja/providerdirectory/internal/domain/entities"
	"github.com/zatekoja/providerdirectory/internal/domain/repositories"
	"github.com/zatekoja/providerdirectory/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/providerdirectory/pkg/errors"
)

// CityAdapter implements CityRepository
type CityAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewCityAdapter creates a new city adapter
func NewCityAdapter(client *postgres.Client) repositories.CityRepository {
	return &CityAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// List retrieves all cities ordered by name
func (a *CityAdapter) List(ctx context.Context) ([]entities.City, error) {
	query, args, err := a.db.Select("id", "name").
		From("cities").
		Order(goqu.I("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list cities", err)
	}
	defer rows.Close()

	cities := []entities.City{}
	for rows.Next() {
		var c entities.City
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, apperrors.NewInternalError("failed to scan city", err)
		}
		cities = append(cities, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate cities", err)
	}

	return cities, nil
}
