package services

import (
	"cmp"
	"math"
	"slices"

	"github.com/zatekoja/providerdirectory/internal/domain/entities"
	"github.com/zatekoja/providerdirectory/pkg/geo"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// RankingService attaches distances and orders filtered providers.
type RankingService[T any] struct {
	accessor ProviderAccessor[T]
	locale   language.Tag
}

// NewRankingService creates a ranking stage that collates names for the given locale
// (a BCP 47 tag such as "bs" or "hr"). An unparseable locale falls back to language.Und.
func NewRankingService[T any](accessor ProviderAccessor[T], locale string) *RankingService[T] {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Und
	}
	return &RankingService[T]{accessor: accessor, locale: tag}
}

// Rank wraps providers for sorting. When origin is set, providers with both
// coordinates get their great-circle distance from it; the rest keep a nil distance.
func (s *RankingService[T]) Rank(providers []T, origin *entities.Location) []entities.RankedProvider[T] {
	ranked := make([]entities.RankedProvider[T], len(providers))
	for i, p := range providers {
		ranked[i] = entities.RankedProvider[T]{Provider: p}
		if origin == nil {
			continue
		}
		if loc, ok := s.accessor.Location(p); ok {
			d := geo.Distance(
				geo.Point{Latitude: origin.Latitude, Longitude: origin.Longitude},
				geo.Point{Latitude: loc.Latitude, Longitude: loc.Longitude},
			)
			ranked[i].DistanceKm = &d
		}
	}
	return ranked
}

// Sort returns a new, stably ordered slice; the input is left untouched.
//
// name sorts by locale collation of the display name, rating sorts descending,
// distance sorts ascending with unknown distances last. When locationActive is
// false every distance is unknown, so a distance sort keeps the input order.
// Unknown keys sort by name.
func (s *RankingService[T]) Sort(ranked []entities.RankedProvider[T], key entities.SortKey, locationActive bool) []entities.RankedProvider[T] {
	out := slices.Clone(ranked)
	if out == nil {
		out = []entities.RankedProvider[T]{}
	}

	switch key {
	case entities.SortByRating:
		slices.SortStableFunc(out, func(a, b entities.RankedProvider[T]) int {
			return cmp.Compare(s.accessor.Rating(b.Provider), s.accessor.Rating(a.Provider))
		})
	case entities.SortByDistance:
		slices.SortStableFunc(out, func(a, b entities.RankedProvider[T]) int {
			return cmp.Compare(sortDistance(a, locationActive), sortDistance(b, locationActive))
		})
	default:
		// Collators hold scratch buffers; one per call keeps Sort safe for concurrent sessions.
		col := collate.New(s.locale)
		slices.SortStableFunc(out, func(a, b entities.RankedProvider[T]) int {
			return col.CompareString(s.accessor.SortName(a.Provider), s.accessor.SortName(b.Provider))
		})
	}

	return out
}

// sortDistance is the distance sort key: unknown distances are larger than any real one.
func sortDistance[T any](r entities.RankedProvider[T], locationActive bool) float64 {
	if !locationActive || r.DistanceKm == nil {
		return math.Inf(1)
	}
	return *r.DistanceKm
}
