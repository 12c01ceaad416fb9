// should be in service package, but would lead to circular imports

package scoring

import (
	"fmt"
	"log"
	"scorehub/repository"
	"scorehub/utils"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var resultComputationDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "result_computation_duration_s",
	Help: "Duration of the competition result computation steps",
}, []string{"step"})

func (r *Result) Identifier() string {
	return "E-" + strconv.Itoa(r.EntryId)
}

type Difftype string

const (
	Added     Difftype = "Added"
	Removed   Difftype = "Removed"
	Changed   Difftype = "Changed"
	Unchanged Difftype = "Unchanged"
)

type ResultDifference struct {
	Result    *Result
	FieldDiff []string
	DiffType  Difftype
}

type ResultMap map[string]*ResultDifference

type ScoreService struct {
	mu            sync.Mutex
	latestResults map[int]ResultMap
	calculating   map[int]chan ResultMap

	db                     *gorm.DB
	sessionRepository      *repository.SessionRepository
	competitionRepository  *repository.CompetitionRepository
	championshipRepository *repository.ChampionshipRepository
	categoryRepository     *repository.CategoryRepository
}

func NewScoreService(db *gorm.DB) *ScoreService {
	return &ScoreService{
		db:                     db,
		sessionRepository:      repository.NewSessionRepository(db),
		competitionRepository:  repository.NewCompetitionRepository(db),
		championshipRepository: repository.NewChampionshipRepository(db),
		categoryRepository:     repository.NewCategoryRepository(db),
		latestResults:          make(map[int]ResultMap),
		calculating:            make(map[int]chan ResultMap),
	}
}

// LatestResultMap returns the last computed result state for a competition, or
// nil when none has been computed yet.
func (s *ScoreService) LatestResultMap(competitionId int) ResultMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latestResults[competitionId]
}

func GetResultDifference(prevDiff *ResultDifference, next *Result) *ResultDifference {
	if prevDiff == nil {
		return &ResultDifference{Result: next, DiffType: Added}
	}
	prev := prevDiff.Result
	fieldDiff := make([]string, 0)
	if prev.Total != next.Total {
		fieldDiff = append(fieldDiff, "Total")
	}
	if prev.XCount != next.XCount {
		fieldDiff = append(fieldDiff, "XCount")
	}
	if prev.Rank != next.Rank {
		fieldDiff = append(fieldDiff, "Rank")
	}
	if prev.TieBreakRequired != next.TieBreakRequired {
		fieldDiff = append(fieldDiff, "TieBreakRequired")
	}
	if len(fieldDiff) == 0 {
		return &ResultDifference{Result: next, DiffType: Unchanged}
	}
	return &ResultDifference{Result: next, FieldDiff: fieldDiff, DiffType: Changed}
}

func Diff(resultMap ResultMap, results []*Result) (ResultMap, ResultMap) {
	newMap := make(ResultMap)
	diffMap := make(ResultMap)
	for _, result := range results {
		id := result.Identifier()
		difference := GetResultDifference(resultMap[id], result)
		newMap[id] = difference
		if difference.DiffType != Unchanged {
			diffMap[id] = difference
		}
	}
	for id, oldResult := range resultMap {
		if _, ok := newMap[id]; !ok {
			diffMap[id] = &ResultDifference{Result: oldResult.Result, DiffType: Removed}
		}
	}
	return newMap, diffMap
}

// GetNewDiff recomputes a competition's results and returns only what changed
// since the previous computation.
func (s *ScoreService) GetNewDiff(competitionId int) (ResultMap, error) {
	// Check if a computation is already in progress for this competition
	s.mu.Lock()
	if resultChan, exists := s.calculating[competitionId]; exists {
		// Computation is in progress, wait for its result
		s.mu.Unlock()
		result := <-resultChan
		return result, nil
	}

	resultChan := make(chan ResultMap, 1)
	defer close(resultChan)
	s.calculating[competitionId] = resultChan
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.calculating, competitionId)
		s.mu.Unlock()
	}()

	t := time.Now()
	results, err := s.ComputeCompetitionResults(competitionId)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	oldResults := s.latestResults[competitionId]
	newResultMap, diff := Diff(oldResults, results)
	s.latestResults[competitionId] = newResultMap
	s.mu.Unlock()
	log.Printf("Computed results for competition %d in %d milliseconds", competitionId, time.Since(t).Milliseconds())
	if len(diff) == 0 {
		return nil, fmt.Errorf("no changes in results")
	}
	// Hand the result to any goroutine that was waiting on this computation
	resultChan <- diff
	return diff, nil
}

// ComputeCompetitionResults freezes totals for every confirmed entry, ranks
// each category and persists the outcome. Entries whose session is still
// pending or rejected keep a null final total and are not ranked.
func (s *ScoreService) ComputeCompetitionResults(competitionId int) ([]*Result, error) {
	totalTime := time.Now()
	entries, err := s.competitionRepository.GetEntries(competitionId)
	if err != nil {
		return nil, err
	}

	t := time.Now()
	resultsByEntry := make(map[int]*Result)
	for _, entry := range entries {
		if entry.Session == nil || entry.Session.Status != repository.StatusConfirmed {
			entry.FinalTotal = nil
			entry.Rank = nil
			continue
		}
		score := AggregateSession(entry.Session)
		total := score.Total
		entry.FinalTotal = &total
		entry.XCount = score.XCount
		result := &Result{
			EntryId:    entry.Id,
			MemberId:   entry.Session.MemberId,
			CategoryId: entry.CategoryId,
			Total:      score.Total,
			XCount:     score.XCount,
		}
		if entry.Session.Member != nil {
			result.MemberName = entry.Session.Member.FullName
		}
		if entry.Category != nil {
			result.CategoryLabel = entry.Category.Label()
		}
		resultsByEntry[entry.Id] = result
	}
	resultComputationDuration.WithLabelValues("aggregation").Set(time.Since(t).Seconds())

	t = time.Now()
	results := make([]*Result, 0, len(resultsByEntry))
	for _, categoryResults := range utils.GroupBy(utils.Values(resultsByEntry), func(r *Result) int { return r.CategoryId }) {
		for _, result := range RankResults(categoryResults) {
			entry := entryById(entries, result.EntryId)
			rank := result.Rank
			entry.Rank = &rank
			entry.TieBreakRequired = result.TieBreakRequired
			results = append(results, result)
		}
	}
	resultComputationDuration.WithLabelValues("ranking").Set(time.Since(t).Seconds())

	err = s.competitionRepository.SaveEntryResults(entries)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].CategoryLabel != results[j].CategoryLabel {
			return results[i].CategoryLabel < results[j].CategoryLabel
		}
		return results[i].Rank < results[j].Rank
	})
	resultComputationDuration.WithLabelValues("total").Set(time.Since(totalTime).Seconds())
	return results, nil
}

func entryById(entries []*repository.CompetitionEntry, entryId int) *repository.CompetitionEntry {
	for _, entry := range entries {
		if entry.Id == entryId {
			return entry
		}
	}
	return nil
}

// ComputeChampionshipStandings builds the best-N ladder per category from all
// confirmed sessions on the championship's eligible rounds within its window.
// A member that cannot be resolved into a category is a data defect and fails
// the computation so an administrator can correct the registry.
func (s *ScoreService) ComputeChampionshipStandings(championshipId int) ([]*Standing, error) {
	championship, err := s.championshipRepository.GetChampionshipById(championshipId)
	if err != nil {
		return nil, err
	}
	roundIds := utils.Map(championship.EligibleRounds, func(round *repository.Round) int { return round.Id })
	if len(roundIds) == 0 {
		return []*Standing{}, nil
	}
	sessions, err := s.sessionRepository.GetConfirmedSessions(roundIds, championship.StartDate, championship.EndDate)
	if err != nil {
		return nil, err
	}
	categories, err := s.categoryRepository.GetCategoriesForYear(championship.PolicyYear)
	if err != nil {
		return nil, err
	}
	index := NewCategoryIndex(categories)

	standings := make([]*Standing, 0)
	for memberId, memberSessions := range utils.GroupBy(sessions, func(session *repository.Session) int { return session.MemberId }) {
		member := memberSessions[0].Member
		if member == nil {
			return nil, fmt.Errorf("member %d not loaded for championship %d", memberId, championshipId)
		}
		category, err := index.ResolveMember(member, championship.PolicyYear)
		if err != nil {
			return nil, fmt.Errorf("championship %d: member %d (%s): %w", championshipId, member.Id, member.FullName, err)
		}
		qualifying := utils.Map(memberSessions, func(session *repository.Session) QualifyingScore {
			return QualifyingScore{
				SessionId: session.Id,
				Total:     AggregateSession(session).Total,
				ShootDate: session.ShootDate,
			}
		})
		score, counted := ChampionshipScore(qualifying, championship.BestN)
		standings = append(standings, &Standing{
			MemberId:      member.Id,
			MemberName:    member.FullName,
			CategoryId:    category.Id,
			CategoryLabel: category.Label(),
			Score:         score,
			Counted:       counted,
		})
	}

	ranked := make([]*Standing, 0, len(standings))
	for _, categoryStandings := range utils.GroupBy(standings, func(standing *Standing) int { return standing.CategoryId }) {
		ranked = append(ranked, RankStandings(categoryStandings)...)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].CategoryLabel != ranked[j].CategoryLabel {
			return ranked[i].CategoryLabel < ranked[j].CategoryLabel
		}
		return ranked[i].Rank < ranked[j].Rank
	})
	return ranked, nil
}
