package delivery

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/abhisek/quizstreak/internal/quiz"
	"github.com/abhisek/quizstreak/internal/store"
)

// DefaultMessageDelay separates the prompt from the question.
const DefaultMessageDelay = 500 * time.Millisecond

// DeliveryError reports a transport failure while delivering a question.
// The question stays persisted but undelivered.
type DeliveryError struct {
	QuestionID string
	Stage      string // "prompt", "question" or "render"
	Err        error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver question %s (%s): %v", e.QuestionID, e.Stage, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// DeliveryRecorder persists successful deliveries.
type DeliveryRecorder interface {
	RecordDelivery(ctx context.Context, d store.Delivery) (int64, error)
}

// Config configures a Channel.
type Config struct {
	ChatID int64

	// MessageDelay is waited between the prompt and the question.
	MessageDelay time.Duration

	// SendTimeout bounds each transport call. Zero means no bound.
	SendTimeout time.Duration
}

// Channel delivers questions to a single chat. It keeps no per-question
// state.
type Channel struct {
	transport Transport
	recorder  DeliveryRecorder
	cfg       Config
	logger    *log.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewChannel creates a Channel. recorder may be nil.
func NewChannel(t Transport, recorder DeliveryRecorder, cfg Config, logger *log.Logger) *Channel {
	if logger == nil {
		logger = log.Default()
	}
	return &Channel{
		transport: t,
		recorder:  recorder,
		cfg:       cfg,
		logger:    logger,
		sleep:     sleepCtx,
	}
}

// ChatID returns the chat this channel delivers to.
func (c *Channel) ChatID() int64 {
	return c.cfg.ChatID
}

// Deliver sends the prompt, waits, then sends the question with one button
// per option. Transport failures come back as *DeliveryError; a failed
// delivery record is only logged.
func (c *Channel) Deliver(ctx context.Context, q *quiz.Question) (MessageRef, error) {
	buttons, err := Buttons(q)
	if err != nil {
		return MessageRef{}, &DeliveryError{QuestionID: q.ID, Stage: "render", Err: err}
	}

	if _, err := c.send(ctx, RenderPrompt(q), nil); err != nil {
		return MessageRef{}, &DeliveryError{QuestionID: q.ID, Stage: "prompt", Err: err}
	}

	if err := c.sleep(ctx, c.cfg.MessageDelay); err != nil {
		return MessageRef{}, &DeliveryError{QuestionID: q.ID, Stage: "question", Err: err}
	}

	ref, err := c.send(ctx, RenderQuestion(q), buttons)
	if err != nil {
		return MessageRef{}, &DeliveryError{QuestionID: q.ID, Stage: "question", Err: err}
	}

	if c.recorder != nil {
		_, err := c.recorder.RecordDelivery(ctx, store.Delivery{
			QuestionID: q.ID,
			ChatID:     ref.ChatID,
			MessageID:  ref.MessageID,
		})
		if err != nil {
			c.logger.Printf("delivery: record delivery of %s: %v", q.ID, err)
		}
	}
	return ref, nil
}

// Notify sends a plain text message to the channel's chat.
func (c *Channel) Notify(ctx context.Context, text string) error {
	_, err := c.send(ctx, text, nil)
	return err
}

// Edit replaces the text of a delivered message.
func (c *Channel) Edit(ctx context.Context, ref MessageRef, text string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.transport.EditMessage(ctx, ref, text)
}

// Acknowledge acknowledges an inbound action.
func (c *Channel) Acknowledge(ctx context.Context, actionID string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.transport.AcknowledgeAction(ctx, actionID)
}

func (c *Channel) send(ctx context.Context, text string, buttons [][]Button) (MessageRef, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.transport.SendMessage(ctx, c.cfg.ChatID, text, buttons)
}

func (c *Channel) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.SendTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.cfg.SendTimeout)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
