package repository

import (
	"fmt"

	"gorm.io/gorm"
)

type Round struct {
	Id        int    `gorm:"primaryKey"`
	RoundName string `gorm:"not null;unique"`

	Ranges []*RoundRange `gorm:"foreignKey:RoundId;constraint:OnDelete:CASCADE"`
}

// RoundRange is one distance/face segment of a round. Ranges are ordered by
// SeqNo and immutable once sessions reference them.
type RoundRange struct {
	Id           int `gorm:"primaryKey"`
	RoundId      int `gorm:"not null;references:rounds(id)"`
	SeqNo        int `gorm:"not null"`
	DistanceM    int `gorm:"not null"`
	FaceSizeCm   int `gorm:"not null"`
	EndsPerRange int `gorm:"not null"`
	ArrowsPerEnd int `gorm:"not null;default:6"`
}

func (r *Round) TotalEnds() int {
	total := 0
	for _, rr := range r.Ranges {
		total += rr.EndsPerRange
	}
	return total
}

type RoundRepository struct {
	DB *gorm.DB
}

func NewRoundRepository(db *gorm.DB) *RoundRepository {
	return &RoundRepository{DB: db}
}

func (r *RoundRepository) GetRoundById(roundId int) (*Round, error) {
	var round Round
	result := r.DB.Preload("Ranges", func(db *gorm.DB) *gorm.DB {
		return db.Order("round_ranges.seq_no")
	}).First(&round, roundId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &round, nil
}

func (r *RoundRepository) FindAll() ([]*Round, error) {
	var rounds []*Round
	result := r.DB.Preload("Ranges", func(db *gorm.DB) *gorm.DB {
		return db.Order("round_ranges.seq_no")
	}).Order("round_name").Find(&rounds)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find rounds: %v", result.Error)
	}
	return rounds, nil
}

func (r *RoundRepository) Save(round *Round) (*Round, error) {
	result := r.DB.Save(round)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to save round: %v", result.Error)
	}
	return round, nil
}

func (r *RoundRepository) HasSessions(roundId int) (bool, error) {
	var count int64
	result := r.DB.Model(&Session{}).Where("round_id = ?", roundId).Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}
