package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zatekoja/providerdirectory/internal/domain/entities"
)

func TestFilter_EmptyStateKeepsEverythingInOrder(t *testing.T) {
	svc := NewFilterService[entities.Doctor](DoctorAccessor{}, testIndex())

	got := svc.Filter(testDoctors(), entities.DefaultFilterState())

	assert.Equal(t, []int{1, 2, 3, 4, 5}, doctorIDs(got))
}

func TestFilter_CityAndParentSpecialty(t *testing.T) {
	svc := NewFilterService[entities.Doctor](DoctorAccessor{}, testIndex())
	state := entities.DefaultFilterState()
	state.City = "Sarajevo"
	state.ParentSpecialtyID = "1"

	got := svc.Filter(testDoctors(), state)

	// Doctor 5 is in Sarajevo but has no specialty.
	assert.Equal(t, []int{1, 3}, doctorIDs(got))
}

func TestFilter_SubSpecialtyNarrowsToSelection(t *testing.T) {
	svc := NewFilterService[entities.Doctor](DoctorAccessor{}, testIndex())
	state := entities.DefaultFilterState()
	state.ParentSpecialtyID = "1"
	state.SubSpecialtyIDs = []string{"10"}

	got := svc.Filter(testDoctors(), state)

	assert.Equal(t, []int{1}, doctorIDs(got))
}

func TestFilter_TextSearchIsCaseInsensitive(t *testing.T) {
	svc := NewFilterService[entities.Doctor](DoctorAccessor{}, testIndex())

	for _, q := range []string{"hodž", "HODŽIĆ", "  amra  ", "Amra Hod"} {
		state := entities.DefaultFilterState()
		state.SearchText = q
		assert.Equal(t, []int{1}, doctorIDs(svc.Filter(testDoctors(), state)), q)
	}

	state := entities.DefaultFilterState()
	state.SearchText = "Sarajevo"
	assert.Empty(t, svc.Filter(testDoctors(), state), "doctor search covers names only")
}

func TestFilter_CityIsExact(t *testing.T) {
	svc := NewFilterService[entities.Doctor](DoctorAccessor{}, testIndex())
	state := entities.DefaultFilterState()
	state.City = "sarajevo"

	got := svc.Filter(testDoctors(), state)

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilter_DoesNotMutateSource(t *testing.T) {
	svc := NewFilterService[entities.Doctor](DoctorAccessor{}, testIndex())
	source := testDoctors()
	state := entities.DefaultFilterState()
	state.City = "Mostar"

	_ = svc.Filter(source, state)

	assert.Equal(t, testDoctors(), source)
}

func TestFilter_IsIdempotent(t *testing.T) {
	svc := NewFilterService[entities.Doctor](DoctorAccessor{}, testIndex())
	state := entities.DefaultFilterState()
	state.ParentSpecialtyID = "1"

	once := svc.Filter(testDoctors(), state)
	twice := svc.Filter(once, state)

	assert.Equal(t, once, twice)
}

func TestFilter_Clinics(t *testing.T) {
	svc := NewFilterService[entities.Clinic](ClinicAccessor{}, testIndex())
	accessor := ClinicAccessor{}
	clinicIDs := func(cs []entities.Clinic) []int {
		out := make([]int, len(cs))
		for i, c := range cs {
			out[i] = accessor.ID(c)
		}
		return out
	}

	t.Run("specialty via affiliated doctors", func(t *testing.T) {
		state := entities.DefaultFilterState()
		state.ParentSpecialtyID = "2"
		assert.Equal(t, []int{100}, clinicIDs(svc.Filter(testClinics(), state)))

		state.ParentSpecialtyID = "1"
		assert.Equal(t, []int{100, 101}, clinicIDs(svc.Filter(testClinics(), state)))
	})

	t.Run("clinic without doctors never matches a specialty", func(t *testing.T) {
		state := entities.DefaultFilterState()
		state.City = "Sarajevo"
		state.ParentSpecialtyID = "1"
		assert.Equal(t, []int{100}, clinicIDs(svc.Filter(testClinics(), state)))
	})

	t.Run("text covers address and description", func(t *testing.T) {
		state := entities.DefaultFilterState()
		state.SearchText = "maršala"
		assert.Equal(t, []int{101}, clinicIDs(svc.Filter(testClinics(), state)))

		state.SearchText = "kardio"
		assert.Equal(t, []int{100}, clinicIDs(svc.Filter(testClinics(), state)))
	})
}

func TestNewFilterService_NilIndex(t *testing.T) {
	svc := NewFilterService[entities.Doctor](DoctorAccessor{}, nil)
	state := entities.DefaultFilterState()
	state.ParentSpecialtyID = "1"

	// Without a taxonomy only the parent id itself is accepted.
	assert.Equal(t, []int{3}, doctorIDs(svc.Filter(testDoctors(), state)))
}

// filterCombinations enumerates every filter state over the fixture values.
func filterCombinations() []entities.FilterState {
	subsByParent := map[string][][]string{
		"":  {nil},
		"1": {nil, {"10"}, {"11"}, {"10", "11"}},
		"2": {nil, {"20"}},
	}

	var out []entities.FilterState
	for _, text := range []string{"", "ić", "amra", "ILIDŽA", "nobody"} {
		for _, city := range []string{"", "Sarajevo", "Mostar", "Banja Luka"} {
			for _, parent := range []string{"", "1", "2"} {
				for _, subs := range subsByParent[parent] {
					state := entities.DefaultFilterState()
					state.SearchText = text
					state.City = city
					state.ParentSpecialtyID = parent
					if subs != nil {
						state.SubSpecialtyIDs = subs
					}
					out = append(out, state)
				}
			}
		}
	}
	return out
}

// relaxations returns each state obtained by dropping one active filter.
func relaxations(state entities.FilterState) map[string]entities.FilterState {
	out := make(map[string]entities.FilterState)
	if state.SearchText != "" {
		next := state.Clone()
		next.SearchText = ""
		out["text"] = next
	}
	if state.City != "" {
		next := state.Clone()
		next.City = ""
		out["city"] = next
	}
	if state.ParentSpecialtyID != "" {
		next := state.Clone()
		next.ParentSpecialtyID = ""
		next.SubSpecialtyIDs = []string{}
		out["specialty"] = next
	}
	if len(state.SubSpecialtyIDs) > 0 {
		next := state.Clone()
		next.SubSpecialtyIDs = []string{}
		out["sub-specialties"] = next
	}
	return out
}

func assertFilterMonotonic[T any](t *testing.T, accessor ProviderAccessor[T], items []T) {
	t.Helper()
	svc := NewFilterService[T](accessor, testIndex())
	idsOf := func(items []T) []int {
		out := make([]int, len(items))
		for i, p := range items {
			out[i] = accessor.ID(p)
		}
		return out
	}

	for _, state := range filterCombinations() {
		narrow := idsOf(svc.Filter(items, state))
		for dropped, relaxed := range relaxations(state) {
			wide := idsOf(svc.Filter(items, relaxed))
			assert.Subset(t, wide, narrow, "dropping %s from %+v", dropped, state)
		}
	}
}

func TestFilter_RemovingAFilterOnlyAddsProviders(t *testing.T) {
	t.Run("doctors", func(t *testing.T) {
		assertFilterMonotonic[entities.Doctor](t, DoctorAccessor{}, testDoctors())
	})
	t.Run("clinics", func(t *testing.T) {
		assertFilterMonotonic[entities.Clinic](t, ClinicAccessor{}, testClinics())
	})
}

func TestFilter_SubSelectionWithinParentOnly(t *testing.T) {
	svc := NewFilterService[entities.Doctor](DoctorAccessor{}, testIndex())

	for _, state := range filterCombinations() {
		if len(state.SubSpecialtyIDs) == 0 {
			continue
		}
		parentOnly := state.Clone()
		parentOnly.SubSpecialtyIDs = []string{}

		assert.Subset(t,
			doctorIDs(svc.Filter(testDoctors(), parentOnly)),
			doctorIDs(svc.Filter(testDoctors(), state)),
			"%+v", state)
	}
}
