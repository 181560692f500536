// Package schedule triggers a job once a day at a fixed local time.
package schedule

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Job is the work triggered by the schedule.
type Job func(ctx context.Context) error

// ParseClock parses "HH:MM" (24-hour).
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q, want HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}

// Daily fires a job once per day at a wall-clock time in a location.
type Daily struct {
	hour, minute int
	loc          *time.Location
	job          Job
	logger       *log.Logger

	now   func() time.Time
	after func(d time.Duration) <-chan time.Time
}

// NewDaily creates a Daily schedule for at ("HH:MM") in loc. A nil loc
// means time.Local.
func NewDaily(at string, loc *time.Location, job Job, logger *log.Logger) (*Daily, error) {
	h, m, err := ParseClock(at)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Daily{
		hour:   h,
		minute: m,
		loc:    loc,
		job:    job,
		logger: logger,
		now:    time.Now,
		after:  time.After,
	}, nil
}

// Next returns the first fire time strictly after t.
func (d *Daily) Next(t time.Time) time.Time {
	local := t.In(d.loc)
	y, mo, day := local.Date()
	next := time.Date(y, mo, day, d.hour, d.minute, 0, 0, d.loc)
	if !next.After(local) {
		next = time.Date(y, mo, day+1, d.hour, d.minute, 0, 0, d.loc)
	}
	return next
}

// Run blocks until ctx is cancelled, invoking the job at every fire time.
// Job errors are logged; the schedule keeps going.
func (d *Daily) Run(ctx context.Context) error {
	for {
		next := d.Next(d.now())
		d.logger.Printf("schedule: next run at %s", next.Format(time.RFC3339))

		select {
		case <-ctx.Done():
			return nil
		case <-d.after(next.Sub(d.now())):
		}

		if err := d.job(ctx); err != nil {
			d.logger.Printf("schedule: run failed: %v", err)
		}
	}
}
