package repository

import (
	"fmt"

	"gorm.io/gorm"
)

type Member struct {
	Id         int    `gorm:"primaryKey"`
	FullName   string `gorm:"not null"`
	BirthYear  int    `gorm:"not null"`
	GenderId   int    `gorm:"not null;references:genders(id)"`
	DivisionId *int   `gorm:"null;references:divisions(id)"`
	IsRecorder bool   `gorm:"not null;default:false"`
	// Club-issued number, e.g. VIC042. Competitors always have one, recorders never do.
	AvNumber *string `gorm:"null;unique"`

	Gender   *Gender   `gorm:"foreignKey:GenderId"`
	Division *Division `gorm:"foreignKey:DivisionId"`
}

type MemberRepository struct {
	DB *gorm.DB
}

func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{DB: db}
}

func (r *MemberRepository) GetMemberById(memberId int, preloads ...string) (*Member, error) {
	var member Member
	query := r.DB
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	result := query.First(&member, memberId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &member, nil
}

func (r *MemberRepository) GetMemberByAvNumber(avNumber string) (*Member, error) {
	var member Member
	result := r.DB.Preload("Division").Preload("Gender").First(&member, "av_number = ?", avNumber)
	if result.Error != nil {
		return nil, result.Error
	}
	return &member, nil
}

func (r *MemberRepository) AvNumberExists(avNumber string) (bool, error) {
	var count int64
	result := r.DB.Model(&Member{}).Where("av_number = ?", avNumber).Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

func (r *MemberRepository) Save(member *Member) (*Member, error) {
	result := r.DB.Save(member)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to save member: %v", result.Error)
	}
	return member, nil
}

func (r *MemberRepository) FindAll(preloads ...string) ([]*Member, error) {
	var members []*Member
	query := r.DB
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	result := query.Order("full_name").Find(&members)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find members: %v", result.Error)
	}
	return members, nil
}
