package services

import (
	"context"
	"sync"

	"github.com/zatekoja/providerdirectory/internal/domain/entities"
	"github.com/zatekoja/providerdirectory/internal/domain/providers"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func testSpecialties() []entities.Specialty {
	return []entities.Specialty{
		{
			ID: 1, Name: "Interna medicina", Slug: "interna-medicina",
			Children: []entities.Specialty{
				{ID: 10, Name: "Kardiologija", Slug: "kardiologija", ParentID: intPtr(1)},
				{ID: 11, Name: "Gastroenterologija", Slug: "gastroenterologija", ParentID: intPtr(1)},
			},
		},
		{
			ID: 2, Name: "Pedijatrija", Slug: "pedijatrija",
			Children: []entities.Specialty{
				{ID: 20, Name: "Neonatologija", Slug: "neonatologija", ParentID: intPtr(2)},
			},
		},
	}
}

func testIndex() *SpecialtyIndex {
	return NewSpecialtyIndex(testSpecialties())
}

// testDoctors returns a small directory around Sarajevo and Mostar.
// Doctor 4 has no coordinates, doctor 5 has no specialty.
func testDoctors() []entities.Doctor {
	return []entities.Doctor{
		{ID: 1, FirstName: "Amra", LastName: "Hodžić", City: "Sarajevo", SpecialtyID: intPtr(10), Rating: 4.5,
			Latitude: floatPtr(43.8563), Longitude: floatPtr(18.4131)},
		{ID: 2, FirstName: "Emir", LastName: "Begić", City: "Mostar", SpecialtyID: intPtr(11), Rating: 4.8,
			Latitude: floatPtr(43.3438), Longitude: floatPtr(17.8078)},
		{ID: 3, FirstName: "Lejla", LastName: "Čolić", City: "Sarajevo", SpecialtyID: intPtr(1), Rating: 3.9,
			Latitude: floatPtr(43.8600), Longitude: floatPtr(18.4200)},
		{ID: 4, FirstName: "Zoran", LastName: "Šarić", City: "Banja Luka", SpecialtyID: intPtr(20)},
		{ID: 5, FirstName: "Ćamil", LastName: "Alić", City: "Sarajevo", Rating: 4.1,
			Latitude: floatPtr(43.8500), Longitude: floatPtr(18.3900)},
	}
}

func testClinics() []entities.Clinic {
	doctors := testDoctors()
	return []entities.Clinic{
		{ID: 100, Name: "Poliklinika Bašćaršija", City: "Sarajevo", Address: "Ferhadija 12",
			Description: "Kardiologija i pedijatrija", Rating: 4.2,
			Latitude: floatPtr(43.8590), Longitude: floatPtr(18.4290),
			Doctors: []entities.Doctor{doctors[0], doctors[3]}},
		{ID: 101, Name: "Dom zdravlja Mostar", City: "Mostar", Address: "Maršala Tita 53", Rating: 3.5,
			Doctors: []entities.Doctor{doctors[1]}},
		{ID: 102, Name: "Ambulanta Ilidža", City: "Sarajevo", Rating: 4.9,
			Latitude: floatPtr(43.8300), Longitude: floatPtr(18.3100)},
	}
}

func ids[T any](accessor ProviderAccessor[T], ranked []entities.RankedProvider[T]) []int {
	out := make([]int, len(ranked))
	for i, r := range ranked {
		out[i] = accessor.ID(r.Provider)
	}
	return out
}

func doctorIDs(doctors []entities.Doctor) []int {
	out := make([]int, len(doctors))
	for i, d := range doctors {
		out[i] = d.ID
	}
	return out
}

// locatorFunc adapts a function to providers.LocationProvider.
type locatorFunc func(ctx context.Context) (*providers.Coordinates, error)

func (f locatorFunc) RequestOnce(ctx context.Context) (*providers.Coordinates, error) {
	return f(ctx)
}

func fixedLocator(lat, lng float64) providers.LocationProvider {
	return locatorFunc(func(context.Context) (*providers.Coordinates, error) {
		return &providers.Coordinates{Latitude: lat, Longitude: lng}, nil
	})
}

func failingLocator(err error) providers.LocationProvider {
	return locatorFunc(func(context.Context) (*providers.Coordinates, error) {
		return nil, err
	})
}

// gatedLocator blocks until release is closed, then answers with the given point.
type gatedLocator struct {
	release chan struct{}
	lat     float64
	lng     float64

	mu    sync.Mutex
	calls int
}

func newGatedLocator(lat, lng float64) *gatedLocator {
	return &gatedLocator{release: make(chan struct{}), lat: lat, lng: lng}
}

func (g *gatedLocator) RequestOnce(ctx context.Context) (*providers.Coordinates, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()

	select {
	case <-g.release:
		return &providers.Coordinates{Latitude: g.lat, Longitude: g.lng}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gatedLocator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func newDoctorSession(initial entities.FilterState) *SearchSession[entities.Doctor] {
	engine := NewSearchEngine[entities.Doctor](DoctorAccessor{}, testIndex(), "bs")
	return NewSearchSession("s-1", testDoctors(), engine, NewLocationService(0), initial)
}
