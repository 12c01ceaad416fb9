package service

import (
	"fmt"
	"scorehub/config"
	"scorehub/metrics"
	"scorehub/repository"
	"scorehub/scoring"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type ChampionshipService struct {
	championshipRepository *repository.ChampionshipRepository
	roundRepository        *repository.RoundRepository
	scoreService           *scoring.ScoreService
}

func NewChampionshipService(db *gorm.DB) *ChampionshipService {
	return &ChampionshipService{
		championshipRepository: repository.NewChampionshipRepository(db),
		roundRepository:        repository.NewRoundRepository(db),
		scoreService:           scoring.NewScoreService(db),
	}
}

func (s *ChampionshipService) GetAllChampionships() ([]*repository.Championship, error) {
	return s.championshipRepository.FindAll()
}

func (s *ChampionshipService) GetChampionshipById(championshipId int) (*repository.Championship, error) {
	return s.championshipRepository.GetChampionshipById(championshipId)
}

func (s *ChampionshipService) CreateChampionship(championship *repository.Championship, eligibleRoundIds []int) (*repository.Championship, error) {
	if championship.EndDate.Before(championship.StartDate) {
		return nil, fmt.Errorf("championship ends before it starts")
	}
	if championship.BestN == 0 {
		championship.BestN = config.Env().ChampionshipBestN
	}
	for _, roundId := range eligibleRoundIds {
		round, err := s.roundRepository.GetRoundById(roundId)
		if err != nil {
			return nil, err
		}
		championship.EligibleRounds = append(championship.EligibleRounds, round)
	}
	return s.championshipRepository.Save(championship)
}

func (s *ChampionshipService) GetStandings(championshipId int) ([]*scoring.Standing, error) {
	timer := prometheus.NewTimer(metrics.StandingsComputationDuration)
	defer timer.ObserveDuration()
	return s.scoreService.ComputeChampionshipStandings(championshipId)
}
