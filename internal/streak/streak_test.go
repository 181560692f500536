package streak

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizstreak/internal/quiz"
)

func correctAt(t time.Time) quiz.Attempt {
	return quiz.Attempt{IsCorrect: true, AnsweredAt: t}
}

func TestCompute(t *testing.T) {
	loc := time.UTC
	day := func(d, h int) time.Time { return time.Date(2026, 3, d, h, 0, 0, 0, loc) }

	tests := []struct {
		name     string
		attempts []quiz.Attempt
		asOf     time.Time
		want     int
	}{
		{"no attempts", nil, day(10, 12), 0},
		{"only today", []quiz.Attempt{correctAt(day(10, 9))}, day(10, 12), 1},
		{"several today count once", []quiz.Attempt{correctAt(day(10, 8)), correctAt(day(10, 9))}, day(10, 12), 1},
		{"yesterday only", []quiz.Attempt{correctAt(day(9, 9))}, day(10, 12), 0},
		{
			"three consecutive days",
			[]quiz.Attempt{correctAt(day(8, 9)), correctAt(day(9, 23)), correctAt(day(10, 0))},
			day(10, 12),
			3,
		},
		{
			"gap resets",
			[]quiz.Attempt{correctAt(day(6, 9)), correctAt(day(7, 9)), correctAt(day(9, 9))},
			day(9, 12),
			1,
		},
		{
			"incorrect ignored",
			[]quiz.Attempt{correctAt(day(9, 9)), {IsCorrect: false, AnsweredAt: day(10, 9)}},
			day(10, 12),
			0,
		},
		{
			"future attempts ignored",
			[]quiz.Attempt{correctAt(day(9, 9)), correctAt(day(10, 13))},
			day(10, 12),
			0,
		},
		{
			"crosses month boundary",
			[]quiz.Attempt{correctAt(time.Date(2026, 2, 28, 9, 0, 0, 0, loc)), correctAt(day(1, 9))},
			day(1, 12),
			2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compute(tt.attempts, tt.asOf, loc))
		})
	}
}

func TestCompute_UsesLocalCalendarDays(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// Both attempts and asOf fall on the 10th in Tokyo.
	attempts := []quiz.Attempt{
		correctAt(time.Date(2026, 3, 9, 16, 0, 0, 0, time.UTC)),
		correctAt(time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC)),
	}
	asOf := time.Date(2026, 3, 9, 21, 0, 0, 0, time.UTC)

	assert.Equal(t, 1, Compute(attempts, asOf, tokyo))

	// 23:30 on the 9th and 00:30 on the 10th are 30 minutes apart but on
	// consecutive days.
	attempts = []quiz.Attempt{
		correctAt(time.Date(2026, 3, 9, 23, 30, 0, 0, time.UTC)),
		correctAt(time.Date(2026, 3, 10, 0, 30, 0, 0, time.UTC)),
	}
	assert.Equal(t, 2, Compute(attempts, time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC), time.UTC))
}

func TestCompute_AcrossDSTChange(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// Clocks moved forward on 2026-03-08 in New York.
	attempts := []quiz.Attempt{
		correctAt(time.Date(2026, 3, 7, 23, 30, 0, 0, ny)),
		correctAt(time.Date(2026, 3, 8, 0, 30, 0, 0, ny)),
		correctAt(time.Date(2026, 3, 9, 22, 0, 0, 0, ny)),
	}
	assert.Equal(t, 3, Compute(attempts, time.Date(2026, 3, 9, 23, 0, 0, 0, ny), ny))
}

type fakeSource struct {
	attempts []quiz.Attempt
	err      error
}

func (f fakeSource) CountedCorrectAttempts(context.Context, int) ([]quiz.Attempt, error) {
	return f.attempts, f.err
}

func TestCalculator_CurrentStreak(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	src := fakeSource{attempts: []quiz.Attempt{
		correctAt(now.Add(-time.Hour)),
		correctAt(now.AddDate(0, 0, -1)),
	}}

	c := NewCalculator(src, time.UTC)
	n, err := c.CurrentStreak(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, time.UTC, c.Location())
}

func TestCalculator_SourceError(t *testing.T) {
	c := NewCalculator(fakeSource{err: errors.New("disk gone")}, time.UTC)
	_, err := c.CurrentStreak(context.Background(), time.Now())
	assert.ErrorContains(t, err, "disk gone")
}
