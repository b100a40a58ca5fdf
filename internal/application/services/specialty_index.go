package services

import (
	"strconv"
	"strings"

	"github.com/zatekoja/providerdirectory/internal/domain/entities"
)

// SpecialtyIndex answers "does this provider match the selected specialty filter"
// over the two-level taxonomy returned by the backend.
type SpecialtyIndex struct {
	parents []entities.Specialty
}

// NewSpecialtyIndex builds an index from the backend's specialty list. Parents are
// expected to embed their children; records that carry a ParentID are not top-level
// nodes and are skipped. A nil Children field is treated as empty.
func NewSpecialtyIndex(specialties []entities.Specialty) *SpecialtyIndex {
	parents := make([]entities.Specialty, 0, len(specialties))
	for _, s := range specialties {
		if !s.IsTopLevel() {
			continue
		}
		if s.Children == nil {
			s.Children = []entities.Specialty{}
		}
		parents = append(parents, s)
	}
	return &SpecialtyIndex{parents: parents}
}

// Parents returns the top-level specialties.
func (ix *SpecialtyIndex) Parents() []entities.Specialty {
	return ix.parents
}

// ResolveParent returns the top-level specialty with the given id, or nil.
// The taxonomy is small, so this is a linear scan.
func (ix *SpecialtyIndex) ResolveParent(id int) *entities.Specialty {
	for i := range ix.parents {
		if ix.parents[i].ID == id {
			return &ix.parents[i]
		}
	}
	return nil
}

// Children returns the sub-specialties of a parent, or nil if the parent is unknown.
func (ix *SpecialtyIndex) Children(parentID int) []entities.Specialty {
	if p := ix.ResolveParent(parentID); p != nil {
		return p.Children
	}
	return nil
}

// ResolveSlug maps a specialty slug to filter ids. A parent slug yields the parent's
// id and no sub id; a child slug yields its parent's id and its own id.
func (ix *SpecialtyIndex) ResolveSlug(slug string) (parentID, subID string, ok bool) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return "", "", false
	}
	for _, p := range ix.parents {
		if strings.EqualFold(p.Slug, slug) {
			return strconv.Itoa(p.ID), "", true
		}
		for _, c := range p.Children {
			if strings.EqualFold(c.Slug, slug) {
				return strconv.Itoa(p.ID), strconv.Itoa(c.ID), true
			}
		}
	}
	return "", "", false
}

// SpecialtyMatcher tests a provider's specialty ids against one filter selection.
type SpecialtyMatcher func(ids []int) bool

// Matcher builds the predicate for a selection once, so a pipeline pass does not
// rescan the taxonomy per provider.
//
//   - no parent selected: everything matches
//   - sub ids selected: a provider matches iff one of its ids is a selected sub id
//   - otherwise: a provider matches iff one of its ids is the parent or one of its children
//
// A provider without specialty ids never matches an active filter, and ids that
// cannot be parsed match nothing.
func (ix *SpecialtyIndex) Matcher(parentID string, subIDs []string) SpecialtyMatcher {
	parentID = strings.TrimSpace(parentID)
	if parentID == "" {
		return func([]int) bool { return true }
	}

	accepted := make(map[int]struct{})
	if len(subIDs) > 0 {
		for _, raw := range subIDs {
			if id, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
				accepted[id] = struct{}{}
			}
		}
	} else if id, err := strconv.Atoi(parentID); err == nil {
		accepted[id] = struct{}{}
		for _, c := range ix.Children(id) {
			accepted[c.ID] = struct{}{}
		}
	}

	return func(ids []int) bool {
		for _, id := range ids {
			if _, ok := accepted[id]; ok {
				return true
			}
		}
		return false
	}
}

// Matches is the single-shot form of Matcher.
func (ix *SpecialtyIndex) Matches(ids []int, parentID string, subIDs []string) bool {
	return ix.Matcher(parentID, subIDs)(ids)
}
