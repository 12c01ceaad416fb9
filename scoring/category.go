package scoring

import (
	"errors"
	"fmt"
	"scorehub/repository"
)

// ErrNoMatchingCategory is a configuration or data defect: the member's birth
// year, gender and division are not covered by any category for the policy
// year. It is surfaced to an administrator, never silently defaulted.
var ErrNoMatchingCategory = errors.New("no matching category")

// ErrAmbiguousCategory means the age class ranges for a policy year overlap.
// Well formed age class definitions partition birth years, so hitting this is
// an invariant violation, not a normal error path.
var ErrAmbiguousCategory = errors.New("ambiguous category configuration")

type categoryKey struct {
	PolicyYear int
	GenderId   int
	DivisionId int
}

// CategoryIndex is an in-memory lookup over the category table for resolving
// archers into their competitive bracket without ad hoc joins. Categories must
// have their age class loaded.
type CategoryIndex struct {
	categories map[categoryKey][]*repository.Category
}

func NewCategoryIndex(categories []*repository.Category) *CategoryIndex {
	index := &CategoryIndex{categories: make(map[categoryKey][]*repository.Category)}
	for _, category := range categories {
		key := categoryKey{
			PolicyYear: category.PolicyYear,
			GenderId:   category.GenderId,
			DivisionId: category.DivisionId,
		}
		index.categories[key] = append(index.categories[key], category)
	}
	return index
}

// Resolve returns the single category whose age class covers the birth year
// and whose gender and division match exactly.
func (index *CategoryIndex) Resolve(birthYear int, genderId int, divisionId int, policyYear int) (*repository.Category, error) {
	key := categoryKey{PolicyYear: policyYear, GenderId: genderId, DivisionId: divisionId}
	var match *repository.Category
	for _, category := range index.categories[key] {
		if category.AgeClass == nil {
			continue
		}
		if birthYear < category.AgeClass.MinBirthYear || birthYear > category.AgeClass.MaxBirthYear {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("%w: birth year %d matches both %s and %s for policy year %d",
				ErrAmbiguousCategory, birthYear, match.Label(), category.Label(), policyYear)
		}
		match = category
	}
	if match == nil {
		return nil, fmt.Errorf("%w: birth year %d, gender %d, division %d, policy year %d",
			ErrNoMatchingCategory, birthYear, genderId, divisionId, policyYear)
	}
	return match, nil
}

// ResolveMember resolves a competing member. Recorders and members without a
// division do not compete and cannot be resolved.
func (index *CategoryIndex) ResolveMember(member *repository.Member, policyYear int) (*repository.Category, error) {
	if member.DivisionId == nil {
		return nil, fmt.Errorf("%w: member %d has no division", ErrNoMatchingCategory, member.Id)
	}
	return index.Resolve(member.BirthYear, member.GenderId, *member.DivisionId, policyYear)
}
