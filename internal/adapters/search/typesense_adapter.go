package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
	"github.com/zatekoja/providerdirectory/internal/domain/entities"
	"github.com/zatekoja/providerdirectory/internal/domain/repositories"
)

// Collection names in the search index
const (
	DoctorsCollection = "doctors"
	ClinicsCollection = "clinics"
)

// documentIndexer is the part of the Typesense client the adapter needs.
type documentIndexer interface {
	EnsureCollection(ctx context.Context, schema *api.CollectionSchema) error
	Upsert(ctx context.Context, collection string, document map[string]interface{}) error
}

// TypesenseAdapter exports the directory to Typesense for site-wide search
type TypesenseAdapter struct {
	client documentIndexer
}

// Ensure TypesenseAdapter implements DirectoryIndexRepository
var _ repositories.DirectoryIndexRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client documentIndexer) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// InitSchema ensures both collections exist
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	for _, schema := range []*api.CollectionSchema{doctorsSchema(), clinicsSchema()} {
		if err := a.client.EnsureCollection(ctx, schema); err != nil {
			return err
		}
	}
	return nil
}

// IndexDoctors upserts every doctor and returns how many were indexed
func (a *TypesenseAdapter) IndexDoctors(ctx context.Context, doctors []entities.Doctor) (int, error) {
	docs := make([]map[string]interface{}, 0, len(doctors))
	for _, d := range doctors {
		docs = append(docs, doctorDocument(d))
	}
	return a.upsertAll(ctx, DoctorsCollection, docs)
}

// IndexClinics upserts every clinic and returns how many were indexed
func (a *TypesenseAdapter) IndexClinics(ctx context.Context, clinics []entities.Clinic) (int, error) {
	docs := make([]map[string]interface{}, 0, len(clinics))
	for _, c := range clinics {
		docs = append(docs, clinicDocument(c))
	}
	return a.upsertAll(ctx, ClinicsCollection, docs)
}

func (a *TypesenseAdapter) upsertAll(ctx context.Context, collection string, docs []map[string]interface{}) (int, error) {
	var errs []error
	indexed := 0
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := a.client.Upsert(ctx, collection, doc); err != nil {
			errs = append(errs, fmt.Errorf("failed to index %s/%v: %w", collection, doc["id"], err))
			continue
		}
		indexed++
	}

	log.Info().Str("collection", collection).Int("indexed", indexed).Int("failed", len(docs)-indexed).Msg("typesense export finished")
	return indexed, errors.Join(errs...)
}

func doctorsSchema() *api.CollectionSchema {
	return &api.CollectionSchema{
		Name: DoctorsCollection,
		Fields: []api.Field{
			{Name: "name", Type: "string"},
			{Name: "slug", Type: "string", Optional: pointer.True()},
			{Name: "city", Type: "string", Facet: pointer.True()},
			{Name: "specialty_id", Type: "int32", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "rating", Type: "float"},
			{Name: "location", Type: "geopoint", Optional: pointer.True()},
			{Name: "tags", Type: "string[]", Optional: pointer.True()},
		},
		DefaultSortingField: pointer.String("rating"),
	}
}

func clinicsSchema() *api.CollectionSchema {
	return &api.CollectionSchema{
		Name: ClinicsCollection,
		Fields: []api.Field{
			{Name: "name", Type: "string"},
			{Name: "slug", Type: "string", Optional: pointer.True()},
			{Name: "city", Type: "string", Facet: pointer.True()},
			{Name: "specialty_ids", Type: "int32[]", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "doctor_names", Type: "string[]", Optional: pointer.True()},
			{Name: "rating", Type: "float"},
			{Name: "location", Type: "geopoint", Optional: pointer.True()},
			{Name: "tags", Type: "string[]", Optional: pointer.True()},
		},
		DefaultSortingField: pointer.String("rating"),
	}
}

func doctorDocument(d entities.Doctor) map[string]interface{} {
	doc := map[string]interface{}{
		"id":     strconv.Itoa(d.ID),
		"name":   d.DisplayName(),
		"slug":   d.Slug,
		"city":   d.City,
		"rating": d.Rating,
		"tags":   buildTags(d.FirstName, d.LastName, d.Title, d.City),
	}
	if d.SpecialtyID != nil {
		doc["specialty_id"] = *d.SpecialtyID
	}
	if loc, ok := d.Coordinates(); ok {
		doc["location"] = []float64{loc.Latitude, loc.Longitude}
	}
	return doc
}

func clinicDocument(c entities.Clinic) map[string]interface{} {
	names := make([]string, 0, len(c.Doctors))
	for _, d := range c.Doctors {
		names = append(names, d.DisplayName())
	}

	doc := map[string]interface{}{
		"id":            strconv.Itoa(c.ID),
		"name":          c.Name,
		"slug":          c.Slug,
		"city":          c.City,
		"rating":        c.Rating,
		"specialty_ids": c.SpecialtyIDs(),
		"doctor_names":  names,
		"tags":          buildTags(append([]string{c.Name, c.City}, names...)...),
	}
	if loc, ok := c.Coordinates(); ok {
		doc["location"] = []float64{loc.Latitude, loc.Longitude}
	}
	return doc
}
