// Package correlator matches inbound answer actions back to their
// questions and records the attempt.
package correlator

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/abhisek/quizstreak/internal/delivery"
	"github.com/abhisek/quizstreak/internal/quiz"
	"github.com/abhisek/quizstreak/internal/store"
)

// AttemptRecorder is the store operation the correlator needs.
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, questionID, selectedLabel string) (*store.AttemptResult, error)
}

// StreakSource computes the current streak.
type StreakSource interface {
	CurrentStreak(ctx context.Context, asOf time.Time) (int, error)
}

// Responder is the chat surface replies go through. *delivery.Channel
// implements it.
type Responder interface {
	Acknowledge(ctx context.Context, actionID string) error
	Edit(ctx context.Context, ref delivery.MessageRef, text string) error
	Notify(ctx context.Context, text string) error
}

// Outcome classifies how an inbound action was handled.
type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
	OutcomeRepeat    Outcome = "repeat"
	OutcomeNotFound  Outcome = "not_found"
	OutcomeFailed    Outcome = "failed"
	OutcomeMalformed Outcome = "malformed"
)

// Result describes a handled action.
type Result struct {
	Outcome Outcome

	// Attempt is set when an attempt was recorded.
	Attempt *store.AttemptResult

	// Streak is set for a correct first answer.
	Streak int

	// Reply is the text sent back to the user, if any.
	Reply string

	Err error
}

// Correlator handles inbound answer actions. It holds no per-question state
// and is safe for concurrent use.
type Correlator struct {
	attempts  AttemptRecorder
	streak    StreakSource
	responder Responder
	logger    *log.Logger
	now       func() time.Time
}

// Option configures a Correlator.
type Option func(*Correlator)

// WithClock overrides the clock used as the streak's reference time.
func WithClock(now func() time.Time) Option {
	return func(c *Correlator) { c.now = now }
}

// New creates a Correlator.
func New(attempts AttemptRecorder, streak StreakSource, responder Responder, logger *log.Logger, opts ...Option) *Correlator {
	if logger == nil {
		logger = log.Default()
	}
	c := &Correlator{
		attempts:  attempts,
		streak:    streak,
		responder: responder,
		logger:    logger,
		now:       time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// HandleInboundAction acknowledges the action, records the attempt and
// replies. It never panics; every failure ends up in the returned Result
// and the log.
func (c *Correlator) HandleInboundAction(ctx context.Context, action delivery.InboundAction) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Printf("correlator: recovered from panic handling %q: %v", action.Payload, r)
			res = Result{Outcome: OutcomeFailed, Err: errors.New("panic while handling action")}
		}
	}()

	// The acknowledgement is independent of what follows.
	if action.ID != "" {
		if err := c.responder.Acknowledge(ctx, action.ID); err != nil {
			c.logger.Printf("correlator: acknowledge %s: %v", action.ID, err)
		}
	}

	a, err := quiz.DecodeAction(action.Payload)
	if err != nil {
		c.logger.Printf("correlator: dropping action: %v", err)
		return Result{Outcome: OutcomeMalformed, Err: err}
	}

	if action.Message.MessageID != "" {
		text := delivery.AppendSelection(action.MessageText, a.SelectedLabel)
		if err := c.responder.Edit(ctx, action.Message, text); err != nil {
			c.logger.Printf("correlator: edit message %s: %v", action.Message.MessageID, err)
		}
	}

	ar, err := c.attempts.RecordAttempt(ctx, a.QuestionID, a.SelectedLabel)
	if err != nil {
		if errors.Is(err, store.ErrQuestionNotFound) {
			c.logger.Printf("correlator: answer for unknown question %s", a.QuestionID)
			return c.reply(ctx, Result{Outcome: OutcomeNotFound, Err: err}, delivery.MsgNotRecorded)
		}
		c.logger.Printf("correlator: record attempt for %s: %v", a.QuestionID, err)
		return c.reply(ctx, Result{Outcome: OutcomeFailed, Err: err}, delivery.MsgFailure)
	}

	res = Result{Attempt: ar}
	switch {
	case !ar.FirstAttempt:
		res.Outcome = OutcomeRepeat
		return c.reply(ctx, res, delivery.RenderRepeat(ar.Attempt.IsCorrect))
	case !ar.Attempt.IsCorrect:
		res.Outcome = OutcomeIncorrect
		return c.reply(ctx, res, delivery.RenderIncorrect(ar.Question, ar.Attempt.SelectedLabel))
	}

	res.Outcome = OutcomeCorrect
	n, err := c.streak.CurrentStreak(ctx, c.now())
	if err != nil {
		c.logger.Printf("correlator: compute streak: %v", err)
		return c.reply(ctx, res, delivery.MsgCorrect)
	}
	res.Streak = n
	return c.reply(ctx, res, delivery.RenderCorrect(n))
}

func (c *Correlator) reply(ctx context.Context, res Result, text string) Result {
	res.Reply = text
	if err := c.responder.Notify(ctx, text); err != nil {
		c.logger.Printf("correlator: send reply: %v", err)
	}
	return res
}
