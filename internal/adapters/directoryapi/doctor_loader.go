package directoryapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/zatekoja/providerdirectory/internal/domain/entities"
	"github.com/zatekoja/providerdirectory/internal/domain/repositories"
)

// errDoctorNotFound marks an id the upstream did not return.
var errDoctorNotFound = errors.New("doctor not found")

const (
	doctorBatchCapacity = 100
	doctorBatchWait     = 2 * time.Millisecond
)

// newDoctorLoader batches individual doctor lookups into GetByIDs calls. A
// loader caches for its whole lifetime, so callers create one per listing.
func newDoctorLoader(repo repositories.DoctorRepository) *dataloader.Loader[int, entities.Doctor] {
	batch := func(ctx context.Context, keys []int) []*dataloader.Result[entities.Doctor] {
		results := make([]*dataloader.Result[entities.Doctor], len(keys))

		doctors, err := repo.GetByIDs(ctx, keys)
		byID := make(map[int]entities.Doctor, len(doctors))
		if err == nil {
			for _, d := range doctors {
				byID[d.ID] = d
			}
		}

		for i, key := range keys {
			switch d, ok := byID[key]; {
			case err != nil:
				results[i] = &dataloader.Result[entities.Doctor]{Error: err}
			case ok:
				results[i] = &dataloader.Result[entities.Doctor]{Data: d}
			default:
				results[i] = &dataloader.Result[entities.Doctor]{Error: fmt.Errorf("%w: %d", errDoctorNotFound, key)}
			}
		}
		return results
	}

	return dataloader.NewBatchedLoader(batch,
		dataloader.WithBatchCapacity[int, entities.Doctor](doctorBatchCapacity),
		dataloader.WithWait[int, entities.Doctor](doctorBatchWait),
	)
}
