// Package streak derives the practice streak from recorded attempts.
package streak

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/quizstreak/internal/quiz"
)

// AttemptSource supplies the attempts that count toward the streak: the
// first attempt of each question, when it was correct.
type AttemptSource interface {
	CountedCorrectAttempts(ctx context.Context, limit int) ([]quiz.Attempt, error)
}

// Calculator computes the streak from the attempt history on every call.
// No counter is stored.
type Calculator struct {
	src AttemptSource
	loc *time.Location
}

// NewCalculator creates a Calculator that compares days in loc. A nil loc
// means time.Local.
func NewCalculator(src AttemptSource, loc *time.Location) *Calculator {
	if loc == nil {
		loc = time.Local
	}
	return &Calculator{src: src, loc: loc}
}

// Location returns the time zone days are compared in.
func (c *Calculator) Location() *time.Location {
	return c.loc
}

// CurrentStreak returns the number of consecutive calendar days, ending on
// the day of asOf, with at least one counted correct attempt.
func (c *Calculator) CurrentStreak(ctx context.Context, asOf time.Time) (int, error) {
	attempts, err := c.src.CountedCorrectAttempts(ctx, 0)
	if err != nil {
		return 0, fmt.Errorf("load attempts: %w", err)
	}
	return Compute(attempts, asOf, c.loc), nil
}

// day is a calendar date in a specific location.
type day struct {
	year  int
	month time.Month
	dom   int
}

func dayOf(t time.Time, loc *time.Location) day {
	y, m, d := t.In(loc).Date()
	return day{y, m, d}
}

func (d day) prev(loc *time.Location) day {
	// Noon keeps AddDate clear of DST transitions.
	t := time.Date(d.year, d.month, d.dom, 12, 0, 0, 0, loc).AddDate(0, 0, -1)
	return dayOf(t, loc)
}

// Compute is the pure streak function. Incorrect attempts and attempts
// after asOf are ignored. The streak is 0 when the day of asOf has no
// correct attempt.
func Compute(attempts []quiz.Attempt, asOf time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}

	days := make(map[day]bool, len(attempts))
	for _, a := range attempts {
		if !a.IsCorrect || a.AnsweredAt.After(asOf) {
			continue
		}
		days[dayOf(a.AnsweredAt, loc)] = true
	}

	n := 0
	for d := dayOf(asOf, loc); days[d]; d = d.prev(loc) {
		n++
	}
	return n
}
