package service

import (
	"fmt"
	"scorehub/repository"
	"scorehub/scoring"

	"gorm.io/gorm"
)

type CompetitionService struct {
	competitionRepository *repository.CompetitionRepository
	sessionRepository     *repository.SessionRepository
	memberRepository      *repository.MemberRepository
	categoryService       *CategoryService
	scoreService          *scoring.ScoreService
}

func NewCompetitionService(db *gorm.DB) *CompetitionService {
	return &CompetitionService{
		competitionRepository: repository.NewCompetitionRepository(db),
		sessionRepository:     repository.NewSessionRepository(db),
		memberRepository:      repository.NewMemberRepository(db),
		categoryService:       NewCategoryService(db),
		scoreService:          scoring.NewScoreService(db),
	}
}

func (s *CompetitionService) GetAllCompetitions() ([]*repository.Competition, error) {
	return s.competitionRepository.FindAll()
}

func (s *CompetitionService) GetCompetitionById(competitionId int, preloads ...string) (*repository.Competition, error) {
	return s.competitionRepository.GetCompetitionById(competitionId, preloads...)
}

func (s *CompetitionService) CreateCompetition(competition *repository.Competition) (*repository.Competition, error) {
	if competition.EndDate.Before(competition.StartDate) {
		return nil, fmt.Errorf("competition ends before it starts")
	}
	return s.competitionRepository.Save(competition)
}

// AddEntry links a session to a competition under the archer's resolved
// category. The category is resolved against the competition year's policy
// tables and frozen on the entry; totals and ranks follow at finalization.
func (s *CompetitionService) AddEntry(competitionId int, sessionId int) (*repository.CompetitionEntry, error) {
	competition, err := s.competitionRepository.GetCompetitionById(competitionId)
	if err != nil {
		return nil, err
	}
	session, err := s.sessionRepository.GetSessionById(sessionId)
	if err != nil {
		return nil, err
	}
	if session.ShootDate.Before(competition.StartDate) || session.ShootDate.After(competition.EndDate) {
		return nil, fmt.Errorf("session %d was shot outside the competition window", sessionId)
	}
	if competition.RoundId != nil && session.RoundId != *competition.RoundId {
		return nil, fmt.Errorf("session %d was not shot on the competition round", sessionId)
	}
	member, err := s.memberRepository.GetMemberById(session.MemberId)
	if err != nil {
		return nil, err
	}
	category, err := s.categoryService.ResolveMember(member, competition.StartDate.Year())
	if err != nil {
		return nil, err
	}
	entry := &repository.CompetitionEntry{
		CompetitionId: competitionId,
		SessionId:     sessionId,
		CategoryId:    category.Id,
	}
	return s.competitionRepository.SaveEntry(entry)
}

// GetResults recomputes and returns the ranked results per category.
func (s *CompetitionService) GetResults(competitionId int) ([]*scoring.Result, error) {
	return s.scoreService.ComputeCompetitionResults(competitionId)
}
