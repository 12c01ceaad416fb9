package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type Competition struct {
	Id        int       `gorm:"primaryKey"`
	Name      string    `gorm:"not null"`
	StartDate time.Time `gorm:"not null"`
	EndDate   time.Time `gorm:"not null"`
	// Optional base round shot at this competition.
	RoundId *int `gorm:"null;references:rounds(id)"`

	Round   *Round              `gorm:"foreignKey:RoundId"`
	Entries []*CompetitionEntry `gorm:"foreignKey:CompetitionId;constraint:OnDelete:CASCADE"`
}

// CompetitionEntry links one session to one competition under a resolved
// category. FinalTotal and XCount are frozen at finalization time; Rank stays
// null until the category has been ranked.
type CompetitionEntry struct {
	Id            int  `gorm:"primaryKey"`
	CompetitionId int  `gorm:"not null;index;references:competitions(id)"`
	SessionId     int  `gorm:"not null;unique;references:sessions(id)"`
	CategoryId    int  `gorm:"not null;references:categories(id)"`
	FinalTotal    *int `gorm:"null"`
	XCount        int  `gorm:"not null;default:0"`
	Rank          *int `gorm:"null"`
	// Set when total and x-count alone could not order this entry.
	TieBreakRequired bool `gorm:"not null;default:false"`

	Session  *Session  `gorm:"foreignKey:SessionId"`
	Category *Category `gorm:"foreignKey:CategoryId"`
}

type CompetitionRepository struct {
	DB *gorm.DB
}

func NewCompetitionRepository(db *gorm.DB) *CompetitionRepository {
	return &CompetitionRepository{DB: db}
}

func (r *CompetitionRepository) GetCompetitionById(competitionId int, preloads ...string) (*Competition, error) {
	var competition Competition
	query := r.DB
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	result := query.First(&competition, competitionId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &competition, nil
}

func (r *CompetitionRepository) FindAll() ([]*Competition, error) {
	var competitions []*Competition
	result := r.DB.Preload("Round").Order("start_date DESC").Find(&competitions)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find competitions: %v", result.Error)
	}
	return competitions, nil
}

func (r *CompetitionRepository) Save(competition *Competition) (*Competition, error) {
	result := r.DB.Save(competition)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to save competition: %v", result.Error)
	}
	return competition, nil
}

func (r *CompetitionRepository) SaveEntry(entry *CompetitionEntry) (*CompetitionEntry, error) {
	result := r.DB.Save(entry)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to save competition entry: %v", result.Error)
	}
	return entry, nil
}

func (r *CompetitionRepository) GetEntryBySessionId(sessionId int) (*CompetitionEntry, error) {
	var entry CompetitionEntry
	result := r.DB.First(&entry, "session_id = ?", sessionId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &entry, nil
}

func (r *CompetitionRepository) GetEntries(competitionId int) ([]*CompetitionEntry, error) {
	var entries []*CompetitionEntry
	result := r.DB.
		Preload("Session").Preload("Session.Member").Preload("Session.Ends").Preload("Session.Ends.Arrows").
		Preload("Category").Preload("Category.AgeClass").Preload("Category.Gender").Preload("Category.Division").
		Find(&entries, "competition_id = ?", competitionId)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find entries for competition %d: %v", competitionId, result.Error)
	}
	return entries, nil
}

// SaveEntryResults persists frozen totals and ranks for a whole competition in
// one transaction, so a half-ranked category is never observable.
func (r *CompetitionRepository) SaveEntryResults(entries []*CompetitionEntry) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		for _, entry := range entries {
			result := tx.Model(&CompetitionEntry{}).Where("id = ?", entry.Id).
				Updates(map[string]interface{}{
					"final_total":        entry.FinalTotal,
					"x_count":            entry.XCount,
					"rank":               entry.Rank,
					"tie_break_required": entry.TieBreakRequired,
				})
			if result.Error != nil {
				return result.Error
			}
		}
		return nil
	})
}
