package services

import (
	"strings"

	"github.com/zatekoja/providerdirectory/internal/domain/entities"
	"golang.org/x/text/cases"
)

// FilterService applies the provider filter pipeline: text search, city, specialty.
type FilterService[T any] struct {
	accessor    ProviderAccessor[T]
	specialties *SpecialtyIndex
}

// NewFilterService creates a filter pipeline for one provider kind.
func NewFilterService[T any](accessor ProviderAccessor[T], specialties *SpecialtyIndex) *FilterService[T] {
	if specialties == nil {
		specialties = NewSpecialtyIndex(nil)
	}
	return &FilterService[T]{accessor: accessor, specialties: specialties}
}

type filterStage[T any] func(p T) bool

// Filter returns the providers satisfying every active stage, in their original order.
// It always works from the full collection passed in and never mutates it.
func (s *FilterService[T]) Filter(providers []T, state entities.FilterState) []T {
	stages := s.stages(state)

	out := make([]T, 0, len(providers))
	for _, p := range providers {
		if passes(p, stages) {
			out = append(out, p)
		}
	}
	return out
}

// stages returns only the active predicates, cheapest first.
func (s *FilterService[T]) stages(state entities.FilterState) []filterStage[T] {
	var stages []filterStage[T]

	if needle := strings.TrimSpace(state.SearchText); needle != "" {
		// Casers keep internal state, so each pass gets its own.
		fold := cases.Fold()
		needle = fold.String(needle)
		stages = append(stages, func(p T) bool {
			return strings.Contains(fold.String(s.accessor.SearchableText(p)), needle)
		})
	}

	if city := state.City; city != "" {
		stages = append(stages, func(p T) bool {
			return s.accessor.City(p) == city
		})
	}

	if strings.TrimSpace(state.ParentSpecialtyID) != "" {
		match := s.specialties.Matcher(state.ParentSpecialtyID, state.SubSpecialtyIDs)
		stages = append(stages, func(p T) bool {
			return match(s.accessor.SpecialtyIDs(p))
		})
	}

	return stages
}

func passes[T any](p T, stages []filterStage[T]) bool {
	for _, stage := range stages {
		if !stage(p) {
			return false
		}
	}
	return true
}
