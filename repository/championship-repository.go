package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Championship is a long running, category scoped event: each member's best
// BestN confirmed totals on eligible rounds within the date window count
// towards their championship score.
type Championship struct {
	Id         int       `gorm:"primaryKey"`
	Name       string    `gorm:"not null"`
	PolicyYear int       `gorm:"not null;index"`
	StartDate  time.Time `gorm:"not null"`
	EndDate    time.Time `gorm:"not null"`
	BestN      int       `gorm:"not null;default:3"`

	EligibleRounds []*Round `gorm:"many2many:championship_rounds;"`
}

type ChampionshipRepository struct {
	DB *gorm.DB
}

func NewChampionshipRepository(db *gorm.DB) *ChampionshipRepository {
	return &ChampionshipRepository{DB: db}
}

func (r *ChampionshipRepository) GetChampionshipById(championshipId int) (*Championship, error) {
	var championship Championship
	result := r.DB.Preload("EligibleRounds").First(&championship, championshipId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &championship, nil
}

func (r *ChampionshipRepository) FindAll() ([]*Championship, error) {
	var championships []*Championship
	result := r.DB.Preload("EligibleRounds").Order("start_date DESC").Find(&championships)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find championships: %v", result.Error)
	}
	return championships, nil
}

func (r *ChampionshipRepository) Save(championship *Championship) (*Championship, error) {
	result := r.DB.Save(championship)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to save championship: %v", result.Error)
	}
	return championship, nil
}
