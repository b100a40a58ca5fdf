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

// SpecialtyAdapter implements SpecialtyRepository over a flat specialties table
type SpecialtyAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewSpecialtyAdapter creates a new specialty adapter
func NewSpecialtyAdapter(client *postgres.Client) repositories.SpecialtyRepository {
	return &SpecialtyAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// ListTree retrieves the specialties and nests children under their parents
func (a *SpecialtyAdapter) ListTree(ctx context.Context) ([]entities.Specialty, error) {
	query, args, err := a.db.Select("id", "name", "slug", "parent_id").
		From("specialties").
		Order(goqu.I("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list specialties", err)
	}
	defer rows.Close()

	var flat []entities.Specialty
	for rows.Next() {
		var s entities.Specialty
		var parentID sql.NullInt64
		if err := rows.Scan(&s.ID, &s.Name, &s.Slug, &parentID); err != nil {
			return nil, apperrors.NewInternalError("failed to scan specialty", err)
		}
		s.ParentID = nullIntPtr(parentID)
		flat = append(flat, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate specialties", err)
	}

	return BuildSpecialtyTree(flat), nil
}

// BuildSpecialtyTree nests a flat two-level list. Children whose parent is missing
// are dropped, as are grandchildren.
func BuildSpecialtyTree(flat []entities.Specialty) []entities.Specialty {
	index := make(map[int]int)
	tree := []entities.Specialty{}
	for _, s := range flat {
		if s.ParentID == nil {
			s.Children = []entities.Specialty{}
			index[s.ID] = len(tree)
			tree = append(tree, s)
		}
	}

	for _, s := range flat {
		if s.ParentID == nil {
			continue
		}
		if i, ok := index[*s.ParentID]; ok {
			s.Children = []entities.Specialty{}
			tree[i].Children = append(tree[i].Children, s)
		}
	}

	return tree
}
