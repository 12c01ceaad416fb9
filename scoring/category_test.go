package scoring

import (
	"scorehub/repository"
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	genderFemale = 1
	genderMale   = 2

	divisionRecurve  = 1
	divisionCompound = 2
)

func testCategories() []*repository.Category {
	u14 := &repository.AgeClass{Id: 1, Code: "U14", PolicyYear: 2025, MinBirthYear: 2012, MaxBirthYear: 2025}
	open := &repository.AgeClass{Id: 2, Code: "Open", PolicyYear: 2025, MinBirthYear: 1956, MaxBirthYear: 2011}
	return []*repository.Category{
		{Id: 1, PolicyYear: 2025, AgeClassId: u14.Id, GenderId: genderFemale, DivisionId: divisionRecurve, AgeClass: u14},
		{Id: 2, PolicyYear: 2025, AgeClassId: open.Id, GenderId: genderFemale, DivisionId: divisionRecurve, AgeClass: open},
		{Id: 3, PolicyYear: 2025, AgeClassId: open.Id, GenderId: genderMale, DivisionId: divisionCompound, AgeClass: open},
	}
}

func TestResolveCategory(t *testing.T) {
	index := NewCategoryIndex(testCategories())

	category, err := index.Resolve(2015, genderFemale, divisionRecurve, 2025)
	assert.NoError(t, err)
	assert.Equal(t, 1, category.Id)

	category, err = index.Resolve(1990, genderFemale, divisionRecurve, 2025)
	assert.NoError(t, err)
	assert.Equal(t, 2, category.Id)
}

func TestResolveCategoryNoMatch(t *testing.T) {
	index := NewCategoryIndex(testCategories())

	// birth year outside every configured age class
	_, err := index.Resolve(1900, genderFemale, divisionRecurve, 2025)
	assert.ErrorIs(t, err, ErrNoMatchingCategory)

	// division not offered for this gender
	_, err = index.Resolve(1990, genderMale, divisionRecurve, 2025)
	assert.ErrorIs(t, err, ErrNoMatchingCategory)

	// no categories configured for the policy year at all
	_, err = index.Resolve(1990, genderFemale, divisionRecurve, 2024)
	assert.ErrorIs(t, err, ErrNoMatchingCategory)
}

func TestResolveCategoryAmbiguous(t *testing.T) {
	overlapping := testCategories()
	badClass := &repository.AgeClass{Id: 3, Code: "U18", PolicyYear: 2025, MinBirthYear: 2008, MaxBirthYear: 2025}
	overlapping = append(overlapping, &repository.Category{
		Id: 4, PolicyYear: 2025, AgeClassId: badClass.Id,
		GenderId: genderFemale, DivisionId: divisionRecurve, AgeClass: badClass,
	})
	index := NewCategoryIndex(overlapping)

	_, err := index.Resolve(2015, genderFemale, divisionRecurve, 2025)
	assert.ErrorIs(t, err, ErrAmbiguousCategory)
}

func TestResolveMember(t *testing.T) {
	index := NewCategoryIndex(testCategories())
	division := divisionRecurve
	member := &repository.Member{Id: 7, BirthYear: 2015, GenderId: genderFemale, DivisionId: &division}

	category, err := index.ResolveMember(member, 2025)
	assert.NoError(t, err)
	assert.Equal(t, 1, category.Id)
}

func TestResolveMemberWithoutDivision(t *testing.T) {
	index := NewCategoryIndex(testCategories())
	recorder := &repository.Member{Id: 8, BirthYear: 1980, GenderId: genderMale, IsRecorder: true}

	_, err := index.ResolveMember(recorder, 2025)
	assert.ErrorIs(t, err, ErrNoMatchingCategory)
}
