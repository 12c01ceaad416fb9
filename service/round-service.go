package service

import (
	"fmt"
	"scorehub/repository"

	"gorm.io/gorm"
)

type RoundService struct {
	roundRepository *repository.RoundRepository
}

func NewRoundService(db *gorm.DB) *RoundService {
	return &RoundService{roundRepository: repository.NewRoundRepository(db)}
}

func (s *RoundService) GetAllRounds() ([]*repository.Round, error) {
	return s.roundRepository.FindAll()
}

func (s *RoundService) GetRoundById(roundId int) (*repository.Round, error) {
	return s.roundRepository.GetRoundById(roundId)
}

func (s *RoundService) CreateRound(round *repository.Round) (*repository.Round, error) {
	if len(round.Ranges) == 0 {
		return nil, fmt.Errorf("a round needs at least one range")
	}
	for i, roundRange := range round.Ranges {
		if roundRange.SeqNo == 0 {
			roundRange.SeqNo = i + 1
		}
		if roundRange.ArrowsPerEnd == 0 {
			roundRange.ArrowsPerEnd = 6
		}
		if roundRange.EndsPerRange == 0 {
			return nil, fmt.Errorf("range %d has no ends configured", roundRange.SeqNo)
		}
	}
	return s.roundRepository.Save(round)
}

// UpdateRound only renames. Ranges are immutable once any session references
// the round; historic arrows are scored against them.
func (s *RoundService) UpdateRound(roundId int, update *repository.Round) (*repository.Round, error) {
	round, err := s.roundRepository.GetRoundById(roundId)
	if err != nil {
		return nil, err
	}
	if len(update.Ranges) > 0 {
		hasSessions, err := s.roundRepository.HasSessions(roundId)
		if err != nil {
			return nil, err
		}
		if hasSessions {
			return nil, fmt.Errorf("round %d has recorded sessions, its ranges cannot be changed", roundId)
		}
		round.Ranges = update.Ranges
	}
	if update.RoundName != "" {
		round.RoundName = update.RoundName
	}
	return s.roundRepository.Save(round)
}
