package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type SessionStatus = string

const (
	StatusPreliminary SessionStatus = "Preliminary"
	StatusFinal       SessionStatus = "Final"
	StatusConfirmed   SessionStatus = "Confirmed"
	StatusRejected    SessionStatus = "Rejected"
)

type ArrowValue = string

const (
	ArrowMiss     ArrowValue = "M"
	ArrowInnerTen ArrowValue = "X"
)

type Session struct {
	Id        int           `gorm:"primaryKey"`
	MemberId  int           `gorm:"not null;references:members(id)"`
	RoundId   int           `gorm:"not null;references:rounds(id)"`
	ShootDate time.Time     `gorm:"not null"`
	Status    SessionStatus `gorm:"not null;type:archery.session_status;default:'Preliminary'"`

	Member *Member `gorm:"foreignKey:MemberId"`
	Round  *Round  `gorm:"foreignKey:RoundId"`
	Ends   []*End  `gorm:"foreignKey:SessionId;constraint:OnDelete:CASCADE"`
}

type End struct {
	Id           int `gorm:"primaryKey"`
	SessionId    int `gorm:"not null;index;references:sessions(id)"`
	RoundRangeId int `gorm:"not null;references:round_ranges(id)"`
	EndNo        int `gorm:"not null"`

	Arrows []*Arrow `gorm:"foreignKey:EndId;constraint:OnDelete:CASCADE"`
}

type Arrow struct {
	Id      int        `gorm:"primaryKey"`
	EndId   int        `gorm:"not null;index;references:ends(id)"`
	ArrowNo int        `gorm:"not null"`
	Value   ArrowValue `gorm:"not null;type:archery.arrow_value"`
}

// SessionAudit records every recorder-driven status transition.
type SessionAudit struct {
	Id          int           `gorm:"primaryKey"`
	SessionId   int           `gorm:"not null;index;references:sessions(id)"`
	OldStatus   SessionStatus `gorm:"not null;type:archery.session_status"`
	NewStatus   SessionStatus `gorm:"not null;type:archery.session_status"`
	ChangedById int           `gorm:"not null;references:members(id)"`
	ChangedAt   time.Time     `gorm:"not null;autoCreateTime"`
}

type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

func (r *SessionRepository) GetSessionById(sessionId int, preloads ...string) (*Session, error) {
	var session Session
	query := r.DB.Preload("Ends", func(db *gorm.DB) *gorm.DB {
		return db.Order("ends.round_range_id, ends.end_no")
	}).Preload("Ends.Arrows", func(db *gorm.DB) *gorm.DB {
		return db.Order("arrows.arrow_no")
	})
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	result := query.First(&session, sessionId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &session, nil
}

func (r *SessionRepository) GetSessionsForMember(memberId int) ([]*Session, error) {
	var sessions []*Session
	result := r.DB.Preload("Round").Preload("Round.Ranges").Preload("Ends").
		Order("shoot_date DESC").Find(&sessions, "member_id = ?", memberId)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find sessions for member %d: %v", memberId, result.Error)
	}
	return sessions, nil
}

func (r *SessionRepository) GetPendingSessions() ([]*Session, error) {
	var sessions []*Session
	result := r.DB.Preload("Member").Preload("Round").
		Order("shoot_date").
		Find(&sessions, "status IN ?", []SessionStatus{StatusPreliminary, StatusFinal})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find pending sessions: %v", result.Error)
	}
	return sessions, nil
}

// GetConfirmedSessions returns confirmed sessions for the given rounds within
// the date window, with ends and arrows loaded for aggregation.
func (r *SessionRepository) GetConfirmedSessions(roundIds []int, from time.Time, to time.Time) ([]*Session, error) {
	var sessions []*Session
	result := r.DB.Preload("Member").Preload("Ends").Preload("Ends.Arrows").
		Where("status = ?", StatusConfirmed).
		Where("round_id IN ?", roundIds).
		Where("shoot_date BETWEEN ? AND ?", from, to).
		Find(&sessions)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find confirmed sessions: %v", result.Error)
	}
	return sessions, nil
}

func (r *SessionRepository) Save(session *Session) (*Session, error) {
	result := r.DB.Save(session)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to save session: %v", result.Error)
	}
	return session, nil
}

// SaveEnd inserts an end with its arrows in a single transaction.
func (r *SessionRepository) SaveEnd(end *End) (*End, error) {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(end).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save end: %v", err)
	}
	return end, nil
}

func (r *SessionRepository) GetEndById(endId int) (*End, error) {
	var end End
	result := r.DB.Preload("Arrows", func(db *gorm.DB) *gorm.DB {
		return db.Order("arrows.arrow_no")
	}).First(&end, endId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &end, nil
}

func (r *SessionRepository) UpdateArrows(arrows []*Arrow) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		for _, arrow := range arrows {
			if err := tx.Save(arrow).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateStatus applies a status transition and writes the audit row atomically.
func (r *SessionRepository) UpdateStatus(sessionId int, oldStatus SessionStatus, newStatus SessionStatus, changedById int) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Session{}).Where("id = ? AND status = ?", sessionId, oldStatus).
			Update("status", newStatus)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("session %d is no longer in status %s", sessionId, oldStatus)
		}
		return tx.Create(&SessionAudit{
			SessionId:   sessionId,
			OldStatus:   oldStatus,
			NewStatus:   newStatus,
			ChangedById: changedById,
		}).Error
	})
}

func (r *SessionRepository) GetAuditTrail(sessionId int) ([]*SessionAudit, error) {
	var audits []*SessionAudit
	result := r.DB.Order("changed_at").Find(&audits, "session_id = ?", sessionId)
	if result.Error != nil {
		return nil, result.Error
	}
	return audits, nil
}
