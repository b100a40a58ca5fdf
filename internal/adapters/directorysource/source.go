// Package directorysource opens the repositories behind the directory, either
// the PostgreSQL tables or the upstream directory REST API.
package directorysource

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/providerdirectory/internal/adapters/database"
	"github.com/zatekoja/providerdirectory/internal/adapters/directoryapi"
	"github.com/zatekoja/providerdirectory/internal/domain/repositories"
	"github.com/zatekoja/providerdirectory/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/providerdirectory/internal/infrastructure/clients/providerapi"
	"github.com/zatekoja/providerdirectory/pkg/config"
)

// Repositories are the uncached directory sources.
type Repositories struct {
	Doctors     repositories.DoctorRepository
	Clinics     repositories.ClinicRepository
	Specialties repositories.SpecialtyRepository
	Cities      repositories.CityRepository

	close func() error
}

// Close releases the underlying connection, if any.
func (r *Repositories) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}

// Open builds the repositories for cfg.Directory.Source.
func Open(cfg *config.Config) (*Repositories, error) {
	switch cfg.Directory.Source {
	case "postgres":
		pgClient, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL client: %w", err)
		}
		return FromPostgres(pgClient), nil
	case "api":
		log.Info().Str("url", cfg.Directory.APIURL).Msg("using directory API as source")
		return FromAPI(providerapi.NewClient(cfg.Directory.APIURL)), nil
	}
	return nil, fmt.Errorf("unsupported directory source %q", cfg.Directory.Source)
}

// FromPostgres reads the directory tables.
func FromPostgres(client *postgres.Client) *Repositories {
	doctors := database.NewDoctorAdapter(client)
	return &Repositories{
		Doctors:     doctors,
		Clinics:     database.NewClinicAdapter(client, doctors),
		Specialties: database.NewSpecialtyAdapter(client),
		Cities:      database.NewCityAdapter(client),
		close:       client.Close,
	}
}

// FromAPI reads the upstream directory API.
func FromAPI(client providerapi.Client) *Repositories {
	doctors := directoryapi.NewDoctorAdapter(client)
	return &Repositories{
		Doctors:     doctors,
		Clinics:     directoryapi.NewClinicAdapter(client, doctors),
		Specialties: directoryapi.NewSpecialtyAdapter(client),
		Cities:      directoryapi.NewCityAdapter(client),
	}
}
