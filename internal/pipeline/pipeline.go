// Package pipeline runs the batch: fetch candidates, generate questions,
// persist, archive and deliver them.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/abhisek/quizstreak/internal/catalog"
	"github.com/abhisek/quizstreak/internal/delivery"
	"github.com/abhisek/quizstreak/internal/quiz"
	"github.com/abhisek/quizstreak/internal/synth"
)

// ErrRunInProgress is returned when Run is called while another run is
// still going.
var ErrRunInProgress = errors.New("a batch run is already in progress")

// QuestionStore persists generated questions.
type QuestionStore interface {
	CreateQuestion(ctx context.Context, q *quiz.Question) error
}

// Archiver keeps a side copy of every generated question.
type Archiver interface {
	Append(q *quiz.Question) error
}

// Deliverer sends a stored question to the user.
type Deliverer interface {
	Deliver(ctx context.Context, q *quiz.Question) (delivery.MessageRef, error)
}

// Config configures a Runner.
type Config struct {
	Filter catalog.Filter

	// Count is how many candidates are sampled per run. Values below 1
	// mean 1.
	Count int
}

// Report summarizes one run.
type Report struct {
	Fetched   int
	Selected  int
	Generated int
	Stored    int
	Archived  int
	Delivered int
	Failed    int
	Duration  time.Duration
}

func (r Report) String() string {
	return fmt.Sprintf("fetched=%d selected=%d generated=%d stored=%d delivered=%d failed=%d in %s",
		r.Fetched, r.Selected, r.Generated, r.Stored, r.Delivered, r.Failed, r.Duration.Round(time.Millisecond))
}

// Runner executes batch runs. Only one run executes at a time.
type Runner struct {
	source    catalog.Source
	synth     synth.Synthesizer
	store     QuestionStore
	archive   Archiver
	deliverer Deliverer
	cfg       Config
	logger    *log.Logger
	rng       *rand.Rand
	now       func() time.Time

	running sync.Mutex
}

// Option configures a Runner.
type Option func(*Runner)

// WithRand fixes the sampling source.
func WithRand(rng *rand.Rand) Option {
	return func(r *Runner) { r.rng = rng }
}

// WithClock overrides the clock used for durations.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// New creates a Runner. archive and deliverer may be nil, in which case
// those steps are skipped.
func New(source catalog.Source, s synth.Synthesizer, st QuestionStore, archive Archiver, deliverer Deliverer, cfg Config, logger *log.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	r := &Runner{
		source:    source,
		synth:     s,
		store:     st,
		archive:   archive,
		deliverer: deliverer,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run performs one batch. Only a source failure is returned as an error;
// per-candidate failures are logged and counted in the report.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	if !r.running.TryLock() {
		return Report{}, ErrRunInProgress
	}
	defer r.running.Unlock()

	start := r.now()
	var rep Report

	cands, err := r.source.Fetch(ctx)
	if err != nil {
		var sfe *catalog.SourceFetchError
		if !errors.As(err, &sfe) {
			err = &catalog.SourceFetchError{Source: "candidates", Err: err}
		}
		return rep, err
	}
	rep.Fetched = len(cands)

	selected := catalog.Select(cands, r.cfg.Filter, r.cfg.Count, r.rng)
	rep.Selected = len(selected)
	if len(selected) == 0 {
		r.logger.Printf("pipeline: no eligible candidates among %d", len(cands))
	}

	for _, c := range selected {
		if err := ctx.Err(); err != nil {
			rep.Duration = r.now().Sub(start)
			return rep, err
		}
		r.process(ctx, c, &rep)
	}

	rep.Duration = r.now().Sub(start)
	r.logger.Printf("pipeline: %s", rep)
	return rep, nil
}

func (r *Runner) process(ctx context.Context, c catalog.Candidate, rep *Report) {
	q, err := r.synth.Synthesize(ctx, synth.Input{ID: c.ID, Name: c.Name, Tags: c.Tags})
	if err != nil {
		rep.Failed++
		r.logger.Printf("pipeline: skip %q: %v", c.Name, err)
		return
	}
	rep.Generated++

	if r.archive != nil {
		if err := r.archive.Append(q); err != nil {
			r.logger.Printf("pipeline: archive %s: %v", q.ID, err)
		} else {
			rep.Archived++
		}
	}

	if err := r.store.CreateQuestion(ctx, q); err != nil {
		rep.Failed++
		r.logger.Printf("pipeline: store question for %q: %v", c.Name, err)
		return
	}
	rep.Stored++

	if r.deliverer == nil {
		return
	}
	if _, err := r.deliverer.Deliver(ctx, q); err != nil {
		rep.Failed++
		r.logger.Printf("pipeline: %v", err)
		return
	}
	rep.Delivered++
}
