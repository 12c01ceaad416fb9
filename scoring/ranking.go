package scoring

import (
	"sort"
	"time"
)

// Result is one competition entry's outcome within its category.
type Result struct {
	EntryId          int
	MemberId         int
	MemberName       string
	CategoryId       int
	CategoryLabel    string
	Total            int
	XCount           int
	Rank             int
	TieBreakRequired bool
}

// RankResults orders a category's results by total descending, breaking ties
// by X count descending, and assigns dense ranks. Entries that still tie after
// the X count tie-break share a rank and are flagged for a manual tie-break.
// Input order does not affect the outcome: residual ties are ordered by member
// id so reranking is deterministic.
func RankResults(results []*Result) []*Result {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Total != results[j].Total {
			return results[i].Total > results[j].Total
		}
		if results[i].XCount != results[j].XCount {
			return results[i].XCount > results[j].XCount
		}
		return results[i].MemberId < results[j].MemberId
	})
	rank := 0
	for i, result := range results {
		if i > 0 && result.Total == results[i-1].Total && result.XCount == results[i-1].XCount {
			result.Rank = results[i-1].Rank
			result.TieBreakRequired = true
			results[i-1].TieBreakRequired = true
			continue
		}
		rank++
		result.Rank = rank
	}
	return results
}

// QualifyingScore is one confirmed session total eligible for a championship.
type QualifyingScore struct {
	SessionId int
	Total     int
	ShootDate time.Time
}

// ChampionshipScore picks the best n totals and sums them. Members with fewer
// than n qualifying sessions count whatever they have; there is no zero
// padding. The counted scores are returned highest first.
func ChampionshipScore(scores []QualifyingScore, bestN int) (int, []QualifyingScore) {
	sorted := make([]QualifyingScore, len(scores))
	copy(sorted, scores)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Total != sorted[j].Total {
			return sorted[i].Total > sorted[j].Total
		}
		return sorted[i].ShootDate.Before(sorted[j].ShootDate)
	})
	if len(sorted) > bestN {
		sorted = sorted[:bestN]
	}
	total := 0
	for _, score := range sorted {
		total += score.Total
	}
	return total, sorted
}

// Standing is one member's position in a championship category ladder.
type Standing struct {
	MemberId         int
	MemberName       string
	CategoryId       int
	CategoryLabel    string
	Score            int
	Counted          []QualifyingScore
	Rank             int
	TieBreakRequired bool
}

// RankStandings orders a category's standings by championship score. The
// source rules define no secondary tie-break for standings, so equal scores
// share a rank and are flagged, with member id keeping the order stable.
func RankStandings(standings []*Standing) []*Standing {
	sort.Slice(standings, func(i, j int) bool {
		if standings[i].Score != standings[j].Score {
			return standings[i].Score > standings[j].Score
		}
		return standings[i].MemberId < standings[j].MemberId
	})
	rank := 0
	for i, standing := range standings {
		if i > 0 && standing.Score == standings[i-1].Score {
			standing.Rank = standings[i-1].Rank
			standing.TieBreakRequired = true
			standings[i-1].TieBreakRequired = true
			continue
		}
		rank++
		standing.Rank = rank
	}
	return standings
}
