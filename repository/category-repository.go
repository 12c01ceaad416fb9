package repository

import (
	"fmt"

	"gorm.io/gorm"
)

type Gender struct {
	Id   int    `gorm:"primaryKey"`
	Code string `gorm:"not null;unique"`
	Name string `gorm:"not null"`
}

type Division struct {
	Id          int    `gorm:"primaryKey"`
	BowTypeCode string `gorm:"not null;unique"`
	Name        string `gorm:"not null"`
	IsActive    bool   `gorm:"not null;default:true"`
}

// AgeClass bounds are birth years, tied to a policy year so that the same
// archer can re-derive into a different class each season.
type AgeClass struct {
	Id           int    `gorm:"primaryKey"`
	Code         string `gorm:"not null"`
	PolicyYear   int    `gorm:"not null;index"`
	MinBirthYear int    `gorm:"not null"`
	MaxBirthYear int    `gorm:"not null"`
}

type Category struct {
	Id         int `gorm:"primaryKey"`
	PolicyYear int `gorm:"not null;index"`
	AgeClassId int `gorm:"not null;references:age_classes(id)"`
	GenderId   int `gorm:"not null;references:genders(id)"`
	DivisionId int `gorm:"not null;references:divisions(id)"`

	AgeClass *AgeClass `gorm:"foreignKey:AgeClassId"`
	Gender   *Gender   `gorm:"foreignKey:GenderId"`
	Division *Division `gorm:"foreignKey:DivisionId"`
}

func (c *Category) Label() string {
	if c.AgeClass == nil || c.Gender == nil || c.Division == nil {
		return fmt.Sprintf("category-%d", c.Id)
	}
	return fmt.Sprintf("%s %s %s", c.Division.Name, c.AgeClass.Code, c.Gender.Name)
}

type CategoryRepository struct {
	DB *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{DB: db}
}

func (r *CategoryRepository) GetCategoriesForYear(policyYear int) ([]*Category, error) {
	var categories []*Category
	result := r.DB.Preload("AgeClass").Preload("Gender").Preload("Division").
		Find(&categories, "policy_year = ?", policyYear)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find categories for year %d: %v", policyYear, result.Error)
	}
	return categories, nil
}

func (r *CategoryRepository) GetCategoryById(categoryId int) (*Category, error) {
	var category Category
	result := r.DB.Preload("AgeClass").Preload("Gender").Preload("Division").
		First(&category, categoryId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &category, nil
}

func (r *CategoryRepository) Save(category *Category) (*Category, error) {
	result := r.DB.Save(category)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to save category: %v", result.Error)
	}
	return category, nil
}

func (r *CategoryRepository) Delete(categoryId int) error {
	return r.DB.Delete(&Category{}, categoryId).Error
}

func (r *CategoryRepository) GetGenders() ([]*Gender, error) {
	var genders []*Gender
	result := r.DB.Find(&genders)
	if result.Error != nil {
		return nil, result.Error
	}
	return genders, nil
}

func (r *CategoryRepository) GetActiveDivisions() ([]*Division, error) {
	var divisions []*Division
	result := r.DB.Find(&divisions, "is_active = ?", true)
	if result.Error != nil {
		return nil, result.Error
	}
	return divisions, nil
}

func (r *CategoryRepository) GetAgeClassesForYear(policyYear int) ([]*AgeClass, error) {
	var ageClasses []*AgeClass
	result := r.DB.Find(&ageClasses, "policy_year = ?", policyYear)
	if result.Error != nil {
		return nil, result.Error
	}
	return ageClasses, nil
}
