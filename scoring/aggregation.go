package scoring

import (
	"fmt"
	"scorehub/repository"
	"sort"
	"strconv"
)

var (
	ErrInvalidArrowCount = fmt.Errorf("arrow count does not match the range configuration")
	ErrInvalidArrowValue = fmt.Errorf("arrow value is not a valid score token")
)

// PointValue maps an arrow token to its point value. X and 10 both score ten,
// M scores zero. Unknown tokens score zero; they are rejected at the write
// boundary, never here.
func PointValue(value repository.ArrowValue) int {
	switch value {
	case repository.ArrowInnerTen:
		return 10
	case repository.ArrowMiss:
		return 0
	default:
		points, err := strconv.Atoi(value)
		if err != nil {
			return 0
		}
		return points
	}
}

func IsInnerTen(value repository.ArrowValue) bool {
	return value == repository.ArrowInnerTen
}

// ValidateArrows rejects writes whose arrow sequence does not match the
// range's configured arrow count, or that carry unknown score tokens.
func ValidateArrows(values []repository.ArrowValue, arrowsPerEnd int) error {
	if len(values) != arrowsPerEnd {
		return fmt.Errorf("%w: got %d arrows, range is configured for %d", ErrInvalidArrowCount, len(values), arrowsPerEnd)
	}
	for _, value := range values {
		if value == repository.ArrowMiss || value == repository.ArrowInnerTen {
			continue
		}
		points, err := strconv.Atoi(value)
		if err != nil || points < 1 || points > 10 {
			return fmt.Errorf("%w: %q", ErrInvalidArrowValue, value)
		}
	}
	return nil
}

type EndScore struct {
	EndNo  int
	Total  int
	XCount int
	Arrows int
}

type RangeScore struct {
	RoundRangeId int
	Total        int
	XCount       int
	Ends         []EndScore
}

type SessionScore struct {
	SessionId int
	Total     int
	XCount    int
	Ranges    []RangeScore
}

// AggregateEnd sums one end. A partial end is valid: absent arrows contribute
// nothing, they are not misses.
func AggregateEnd(end *repository.End) EndScore {
	score := EndScore{EndNo: end.EndNo, Arrows: len(end.Arrows)}
	for _, arrow := range end.Arrows {
		score.Total += PointValue(arrow.Value)
		if IsInnerTen(arrow.Value) {
			score.XCount++
		}
	}
	return score
}

// AggregateSession rolls a session's ends up into range totals and a grand
// total. It is total over any well formed input: sessions with no ends score
// zero and no error is ever raised for incomplete data. Recomputing from the
// same arrows always yields the same result.
func AggregateSession(session *repository.Session) SessionScore {
	score := SessionScore{SessionId: session.Id}
	endsByRange := make(map[int][]*repository.End)
	for _, end := range session.Ends {
		endsByRange[end.RoundRangeId] = append(endsByRange[end.RoundRangeId], end)
	}

	rangeIds := rangeOrder(session, endsByRange)
	for _, rangeId := range rangeIds {
		rangeScore := RangeScore{RoundRangeId: rangeId}
		for _, end := range endsByRange[rangeId] {
			endScore := AggregateEnd(end)
			rangeScore.Total += endScore.Total
			rangeScore.XCount += endScore.XCount
			rangeScore.Ends = append(rangeScore.Ends, endScore)
		}
		score.Total += rangeScore.Total
		score.XCount += rangeScore.XCount
		score.Ranges = append(score.Ranges, rangeScore)
	}
	return score
}

// rangeOrder follows the round's configured range order when the round is
// loaded, falling back to range id order for bare sessions.
func rangeOrder(session *repository.Session, endsByRange map[int][]*repository.End) []int {
	if session.Round != nil && len(session.Round.Ranges) > 0 {
		rangeIds := make([]int, 0, len(session.Round.Ranges))
		for _, roundRange := range session.Round.Ranges {
			rangeIds = append(rangeIds, roundRange.Id)
		}
		return rangeIds
	}
	rangeIds := make([]int, 0, len(endsByRange))
	for rangeId := range endsByRange {
		rangeIds = append(rangeIds, rangeId)
	}
	sort.Ints(rangeIds)
	return rangeIds
}
