package service

import (
	"scorehub/repository"
	"scorehub/scoring"
	"sync"

	"gorm.io/gorm"
)

// CategoryService fronts the category table with an in-memory index that is
// rebuilt on demand. Category configuration is administrative data that
// changes a few times a year, so a coarse invalidation is enough.
type CategoryService struct {
	categoryRepository *repository.CategoryRepository

	mu      sync.Mutex
	indexes map[int]*scoring.CategoryIndex
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{
		categoryRepository: repository.NewCategoryRepository(db),
		indexes:            make(map[int]*scoring.CategoryIndex),
	}
}

func (s *CategoryService) GetCategoriesForYear(policyYear int) ([]*repository.Category, error) {
	return s.categoryRepository.GetCategoriesForYear(policyYear)
}

func (s *CategoryService) GetCategoryById(categoryId int) (*repository.Category, error) {
	return s.categoryRepository.GetCategoryById(categoryId)
}

func (s *CategoryService) GetIndex(policyYear int) (*scoring.CategoryIndex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index, ok := s.indexes[policyYear]; ok {
		return index, nil
	}
	categories, err := s.categoryRepository.GetCategoriesForYear(policyYear)
	if err != nil {
		return nil, err
	}
	index := scoring.NewCategoryIndex(categories)
	s.indexes[policyYear] = index
	return index, nil
}

func (s *CategoryService) ResolveCategory(birthYear int, genderId int, divisionId int, policyYear int) (*repository.Category, error) {
	index, err := s.GetIndex(policyYear)
	if err != nil {
		return nil, err
	}
	return index.Resolve(birthYear, genderId, divisionId, policyYear)
}

func (s *CategoryService) ResolveMember(member *repository.Member, policyYear int) (*repository.Category, error) {
	index, err := s.GetIndex(policyYear)
	if err != nil {
		return nil, err
	}
	return index.ResolveMember(member, policyYear)
}

func (s *CategoryService) GetGenders() ([]*repository.Gender, error) {
	return s.categoryRepository.GetGenders()
}

func (s *CategoryService) GetActiveDivisions() ([]*repository.Division, error) {
	return s.categoryRepository.GetActiveDivisions()
}

func (s *CategoryService) GetAgeClassesForYear(policyYear int) ([]*repository.AgeClass, error) {
	return s.categoryRepository.GetAgeClassesForYear(policyYear)
}

func (s *CategoryService) SaveCategory(category *repository.Category) (*repository.Category, error) {
	saved, err := s.categoryRepository.Save(category)
	if err != nil {
		return nil, err
	}
	s.invalidate(category.PolicyYear)
	return saved, nil
}

func (s *CategoryService) DeleteCategory(categoryId int) error {
	category, err := s.categoryRepository.GetCategoryById(categoryId)
	if err != nil {
		return err
	}
	if err := s.categoryRepository.Delete(categoryId); err != nil {
		return err
	}
	s.invalidate(category.PolicyYear)
	return nil
}

func (s *CategoryService) invalidate(policyYear int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.indexes, policyYear)
}
