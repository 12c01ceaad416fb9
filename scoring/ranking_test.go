package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRankResults(t *testing.T) {
	results := []*Result{
		{EntryId: 2, MemberId: 2, Total: 395, XCount: 8},
		{EntryId: 1, MemberId: 1, Total: 410, XCount: 12},
		{EntryId: 3, MemberId: 3, Total: 385, XCount: 4},
	}

	ranked := RankResults(results)

	assert.Equal(t, []int{410, 395, 385}, totals(ranked))
	assert.Equal(t, []int{1, 2, 3}, ranks(ranked))
	for _, result := range ranked {
		assert.False(t, result.TieBreakRequired)
	}
}

func TestRankResultsAfterNewEntry(t *testing.T) {
	results := []*Result{
		{EntryId: 1, MemberId: 1, Total: 410, XCount: 12},
		{EntryId: 2, MemberId: 2, Total: 395, XCount: 8},
		{EntryId: 3, MemberId: 3, Total: 385, XCount: 4},
		{EntryId: 4, MemberId: 4, Total: 400, XCount: 9},
	}

	ranked := RankResults(results)

	assert.Equal(t, []int{410, 400, 395, 385}, totals(ranked))
	assert.Equal(t, []int{1, 2, 3, 4}, ranks(ranked))
}

func TestRankResultsXCountTieBreak(t *testing.T) {
	results := []*Result{
		{EntryId: 1, MemberId: 1, Total: 400, XCount: 5},
		{EntryId: 2, MemberId: 2, Total: 400, XCount: 11},
	}

	ranked := RankResults(results)

	assert.Equal(t, 2, ranked[0].EntryId)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, 1, ranked[1].EntryId)
	assert.Equal(t, 2, ranked[1].Rank)
	assert.False(t, ranked[0].TieBreakRequired)
	assert.False(t, ranked[1].TieBreakRequired)
}

func TestRankResultsResidualTie(t *testing.T) {
	results := []*Result{
		{EntryId: 1, MemberId: 1, Total: 400, XCount: 7},
		{EntryId: 2, MemberId: 2, Total: 400, XCount: 7},
		{EntryId: 3, MemberId: 3, Total: 390, XCount: 9},
	}

	ranked := RankResults(results)

	// equal total and x-count share the rank and are flagged for manual tie-break
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, 1, ranked[1].Rank)
	assert.True(t, ranked[0].TieBreakRequired)
	assert.True(t, ranked[1].TieBreakRequired)
	// the next distinct score takes the dense successor rank
	assert.Equal(t, 2, ranked[2].Rank)
	assert.False(t, ranked[2].TieBreakRequired)
}

func TestRankResultsDeterministicUnderReordering(t *testing.T) {
	a := []*Result{
		{EntryId: 1, MemberId: 1, Total: 400, XCount: 7},
		{EntryId: 2, MemberId: 2, Total: 400, XCount: 7},
	}
	b := []*Result{
		{EntryId: 2, MemberId: 2, Total: 400, XCount: 7},
		{EntryId: 1, MemberId: 1, Total: 400, XCount: 7},
	}

	rankedA := RankResults(a)
	rankedB := RankResults(b)

	assert.Equal(t, rankedA[0].EntryId, rankedB[0].EntryId)
	assert.Equal(t, rankedA[1].EntryId, rankedB[1].EntryId)
}

func TestChampionshipScoreBestTwoOfThree(t *testing.T) {
	day := 24 * time.Hour
	now := time.Now()
	scores := []QualifyingScore{
		{SessionId: 1, Total: 1245, ShootDate: now.Add(-3 * day)},
		{SessionId: 2, Total: 1190, ShootDate: now.Add(-2 * day)},
		{SessionId: 3, Total: 1280, ShootDate: now.Add(-day)},
	}

	total, counted := ChampionshipScore(scores, 2)

	assert.Equal(t, 2525, total)
	assert.Len(t, counted, 2)
	assert.Equal(t, 1280, counted[0].Total)
	assert.Equal(t, 1245, counted[1].Total)
}

func TestChampionshipScoreFewerThanBestN(t *testing.T) {
	scores := []QualifyingScore{
		{SessionId: 1, Total: 830, ShootDate: time.Now()},
	}

	total, counted := ChampionshipScore(scores, 3)

	// no zero padding: members count whatever they have
	assert.Equal(t, 830, total)
	assert.Len(t, counted, 1)
}

func TestChampionshipScoreDoesNotMutateInput(t *testing.T) {
	scores := []QualifyingScore{
		{SessionId: 1, Total: 500},
		{SessionId: 2, Total: 700},
	}

	_, _ = ChampionshipScore(scores, 1)

	assert.Equal(t, 500, scores[0].Total)
	assert.Equal(t, 700, scores[1].Total)
}

func TestRankStandings(t *testing.T) {
	standings := []*Standing{
		{MemberId: 1, Score: 2525},
		{MemberId: 2, Score: 2610},
		{MemberId: 3, Score: 2525},
		{MemberId: 4, Score: 2400},
	}

	ranked := RankStandings(standings)

	assert.Equal(t, 2, ranked[0].MemberId)
	assert.Equal(t, 1, ranked[0].Rank)
	// standings have no secondary tie-break: equal scores share a rank
	assert.Equal(t, 2, ranked[1].Rank)
	assert.Equal(t, 2, ranked[2].Rank)
	assert.True(t, ranked[1].TieBreakRequired)
	assert.True(t, ranked[2].TieBreakRequired)
	assert.Equal(t, 3, ranked[3].Rank)
}

func totals(results []*Result) []int {
	out := make([]int, len(results))
	for i, result := range results {
		out[i] = result.Total
	}
	return out
}

func ranks(results []*Result) []int {
	out := make([]int, len(results))
	for i, result := range results {
		out[i] = result.Rank
	}
	return out
}
