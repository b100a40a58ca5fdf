package services

import (
	"github.com/zatekoja/providerdirectory/internal/domain/entities"
)

// SearchEngine composes the pipeline for one provider kind:
// filter, then attach distances if a user location is set, then sort.
type SearchEngine[T any] struct {
	accessor ProviderAccessor[T]
	filter   *FilterService[T]
	ranking  *RankingService[T]
}

// NewSearchEngine creates an engine over the given taxonomy, collating names for locale.
func NewSearchEngine[T any](accessor ProviderAccessor[T], specialties *SpecialtyIndex, locale string) *SearchEngine[T] {
	return &SearchEngine[T]{
		accessor: accessor,
		filter:   NewFilterService(accessor, specialties),
		ranking:  NewRankingService(accessor, locale),
	}
}

// Accessor returns the accessor the engine reads providers with.
func (e *SearchEngine[T]) Accessor() ProviderAccessor[T] {
	return e.accessor
}

// Run executes one full pass over the source collection. A non-nil
// state.UserLocation means location is active.
func (e *SearchEngine[T]) Run(providers []T, state entities.FilterState) []entities.RankedProvider[T] {
	filtered := e.filter.Filter(providers, state)
	ranked := e.ranking.Rank(filtered, state.UserLocation)
	return e.ranking.Sort(ranked, state.SortKey, state.UserLocation != nil)
}
