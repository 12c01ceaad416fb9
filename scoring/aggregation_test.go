package scoring

import (
	"scorehub/repository"
	"testing"

	"github.com/stretchr/testify/assert"
)

func makeEnd(endNo int, values ...repository.ArrowValue) *repository.End {
	end := &repository.End{EndNo: endNo, RoundRangeId: 1}
	for i, value := range values {
		end.Arrows = append(end.Arrows, &repository.Arrow{ArrowNo: i + 1, Value: value})
	}
	return end
}

func TestAggregateEnd(t *testing.T) {
	end := makeEnd(1, "X", "10", "9", "9", "8", "8")

	score := AggregateEnd(end)

	assert.Equal(t, 54, score.Total)
	assert.Equal(t, 1, score.XCount)
	assert.Equal(t, 6, score.Arrows)
}

func TestAggregateEndMissScoresZero(t *testing.T) {
	end := makeEnd(1, "M", "M", "1", "10", "X", "M")

	score := AggregateEnd(end)

	assert.Equal(t, 21, score.Total)
	assert.Equal(t, 1, score.XCount)
}

func TestAggregatePartialEnd(t *testing.T) {
	// absent arrows contribute nothing, they are not misses
	end := makeEnd(1, "9", "7")

	score := AggregateEnd(end)

	assert.Equal(t, 16, score.Total)
	assert.Equal(t, 0, score.XCount)
	assert.Equal(t, 2, score.Arrows)
}

func TestAggregateSessionWithoutEnds(t *testing.T) {
	session := &repository.Session{Id: 1}

	score := AggregateSession(session)

	assert.Equal(t, 0, score.Total)
	assert.Equal(t, 0, score.XCount)
	assert.Empty(t, score.Ranges)
}

func TestAggregateSessionSingleEndOfFive(t *testing.T) {
	round := &repository.Round{
		Id: 1,
		Ranges: []*repository.RoundRange{
			{Id: 1, RoundId: 1, SeqNo: 1, EndsPerRange: 5, ArrowsPerEnd: 6},
		},
	}
	session := &repository.Session{
		Id:    1,
		Round: round,
		Ends:  []*repository.End{makeEnd(1, "X", "10", "9", "9", "8", "8")},
	}

	score := AggregateSession(session)

	assert.Equal(t, 54, score.Total)
	assert.Equal(t, 1, score.XCount)
	assert.Len(t, score.Ranges, 1)
	assert.Equal(t, 54, score.Ranges[0].Total)
}

func TestAggregateSessionRollsUpRanges(t *testing.T) {
	round := &repository.Round{
		Id: 1,
		Ranges: []*repository.RoundRange{
			{Id: 1, RoundId: 1, SeqNo: 1, EndsPerRange: 2, ArrowsPerEnd: 6},
			{Id: 2, RoundId: 1, SeqNo: 2, EndsPerRange: 2, ArrowsPerEnd: 6},
		},
	}
	farEnd1 := makeEnd(1, "X", "X", "10", "9", "9", "8")
	farEnd2 := makeEnd(2, "10", "9", "9", "8", "7", "M")
	nearEnd := makeEnd(1, "X", "10", "10", "10", "9", "9")
	nearEnd.RoundRangeId = 2
	session := &repository.Session{Id: 1, Round: round, Ends: []*repository.End{farEnd1, farEnd2, nearEnd}}

	score := AggregateSession(session)

	assert.Len(t, score.Ranges, 2)
	assert.Equal(t, 99, score.Ranges[0].Total)
	assert.Equal(t, 2, score.Ranges[0].XCount)
	assert.Equal(t, 58, score.Ranges[1].Total)
	assert.Equal(t, 1, score.Ranges[1].XCount)
	assert.Equal(t, 157, score.Total)
	assert.Equal(t, 3, score.XCount)
}

func TestAggregateSessionIsDeterministic(t *testing.T) {
	session := &repository.Session{
		Id: 1,
		Ends: []*repository.End{
			makeEnd(1, "X", "10", "9", "9", "8", "8"),
			makeEnd(2, "9", "9", "8", "7", "7", "M"),
		},
	}

	first := AggregateSession(session)
	second := AggregateSession(session)

	assert.Equal(t, first, second)
}

func TestPointValue(t *testing.T) {
	assert.Equal(t, 10, PointValue("X"))
	assert.Equal(t, 10, PointValue("10"))
	assert.Equal(t, 7, PointValue("7"))
	assert.Equal(t, 1, PointValue("1"))
	assert.Equal(t, 0, PointValue("M"))
}

func TestValidateArrows(t *testing.T) {
	valid := []repository.ArrowValue{"X", "10", "9", "9", "8", "M"}
	assert.NoError(t, ValidateArrows(valid, 6))

	short := []repository.ArrowValue{"X", "10", "9"}
	assert.ErrorIs(t, ValidateArrows(short, 6), ErrInvalidArrowCount)

	long := []repository.ArrowValue{"X", "10", "9", "9", "8", "M", "7"}
	assert.ErrorIs(t, ValidateArrows(long, 6), ErrInvalidArrowCount)

	garbage := []repository.ArrowValue{"X", "10", "9", "9", "8", "eleven"}
	assert.ErrorIs(t, ValidateArrows(garbage, 6), ErrInvalidArrowValue)

	outOfRange := []repository.ArrowValue{"X", "10", "9", "9", "8", "11"}
	assert.ErrorIs(t, ValidateArrows(outOfRange, 6), ErrInvalidArrowValue)

	zero := []repository.ArrowValue{"X", "10", "9", "9", "8", "0"}
	assert.ErrorIs(t, ValidateArrows(zero, 6), ErrInvalidArrowValue)
}
