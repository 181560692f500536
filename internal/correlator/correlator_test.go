package correlator

import (
	"context"
	"errors"
	"io"
	"log"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizstreak/internal/delivery"
	"github.com/abhisek/quizstreak/internal/quiz"
	"github.com/abhisek/quizstreak/internal/store"
	"github.com/abhisek/quizstreak/internal/streak"
)

type harness struct {
	store     *store.Store
	transport *delivery.RecordingTransport
	corr      *Correlator
	now       time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		transport: &delivery.RecordingTransport{},
		now:       time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return h.now }

	s, err := store.Open(store.FileDSN(filepath.Join(t.TempDir(), "quiz.db")), store.WithClock(clock))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	h.store = s

	logger := log.New(io.Discard, "", 0)
	ch := delivery.NewChannel(h.transport, s, delivery.Config{ChatID: 42}, logger)
	h.corr = New(s, streak.NewCalculator(s, time.UTC), ch, logger, WithClock(clock))
	return h
}

func (h *harness) addQuestion(t *testing.T, id string) *quiz.Question {
	t.Helper()
	opts, err := quiz.NewOptions([]string{"Nested loops", "Hash map", "Sorting", "Recursion"}, 1)
	require.NoError(t, err)
	q := &quiz.Question{
		ID:              id,
		SourceReference: "Two Sum",
		Prompt:          "Return indices of the two numbers that add up to target.",
		QuestionText:    "Which structure gives a linear-time solution?",
		Options:         opts,
		Explanation:     "Look up each complement in O(1).",
	}
	require.NoError(t, h.store.CreateQuestion(context.Background(), q))
	return q
}

func action(id, payload string) delivery.InboundAction {
	return delivery.InboundAction{
		ID:          id,
		Payload:     payload,
		Message:     delivery.MessageRef{ChatID: 42, MessageID: "7"},
		MessageText: "Which structure gives a linear-time solution?",
	}
}

func TestHandle_CorrectAnswer(t *testing.T) {
	h := newHarness(t)
	h.addQuestion(t, "Q1")

	res := h.corr.HandleInboundAction(context.Background(), action("cb1", "answer:B:Q1"))

	assert.Equal(t, OutcomeCorrect, res.Outcome)
	assert.Equal(t, 1, res.Streak)
	assert.True(t, res.Attempt.Attempt.IsCorrect)

	assert.Equal(t, []string{"cb1"}, h.transport.Acks)
	require.Len(t, h.transport.Edits, 1)
	assert.Equal(t, "Which structure gives a linear-time solution?\n\nYou selected: B", h.transport.Edits[0].Text)

	last, ok := h.transport.Last()
	require.True(t, ok)
	assert.Equal(t, "Correct! Your streak is 1 day.", last.Text)
}

func TestHandle_IncorrectAnswerExplains(t *testing.T) {
	h := newHarness(t)
	h.addQuestion(t, "Q1")

	res := h.corr.HandleInboundAction(context.Background(), action("cb1", "answer:C:Q1"))

	assert.Equal(t, OutcomeIncorrect, res.Outcome)
	last, _ := h.transport.Last()
	assert.Contains(t, last.Text, "Which structure gives a linear-time solution?")
	assert.Contains(t, last.Text, "Your answer: C) Sorting")
	assert.Contains(t, last.Text, "Correct answer: B) Hash map")
	assert.Contains(t, last.Text, "Look up each complement")
}

func TestHandle_LowercaseLabel(t *testing.T) {
	h := newHarness(t)
	h.addQuestion(t, "Q1")

	res := h.corr.HandleInboundAction(context.Background(), action("cb1", "answer:b:Q1"))
	assert.Equal(t, OutcomeCorrect, res.Outcome)
}

func TestHandle_UnknownQuestion(t *testing.T) {
	h := newHarness(t)
	h.addQuestion(t, "Q1")

	res := h.corr.HandleInboundAction(context.Background(), action("cb1", "answer:A:Q999"))

	assert.Equal(t, OutcomeNotFound, res.Outcome)
	assert.Equal(t, []string{"cb1"}, h.transport.Acks)
	last, _ := h.transport.Last()
	assert.Equal(t, delivery.MsgNotRecorded, last.Text)

	attempts, err := h.store.RecentAttempts(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, attempts)
}

func TestHandle_MalformedPayloadDropped(t *testing.T) {
	h := newHarness(t)
	h.addQuestion(t, "Q1")

	for _, p := range []string{"", "answer", "answer:B", "vote:B:Q1", "answer:BB:Q1", "answer:B:Q1:x"} {
		res := h.corr.HandleInboundAction(context.Background(), action("cb", p))
		assert.Equal(t, OutcomeMalformed, res.Outcome, p)
	}

	assert.Len(t, h.transport.Acks, 6)
	assert.Empty(t, h.transport.Edits)
	assert.Empty(t, h.transport.Messages())

	attempts, err := h.store.RecentAttempts(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, attempts)
}

func TestHandle_RepeatAnswerDoesNotCount(t *testing.T) {
	h := newHarness(t)
	h.addQuestion(t, "Q1")
	ctx := context.Background()

	first := h.corr.HandleInboundAction(ctx, action("cb1", "answer:C:Q1"))
	assert.Equal(t, OutcomeIncorrect, first.Outcome)

	second := h.corr.HandleInboundAction(ctx, action("cb2", "answer:B:Q1"))
	assert.Equal(t, OutcomeRepeat, second.Outcome)
	assert.True(t, second.Attempt.Attempt.IsCorrect)

	last, _ := h.transport.Last()
	assert.Contains(t, last.Text, "already answered")

	attempts, err := h.store.ListAttempts(ctx, "Q1")
	require.NoError(t, err)
	assert.Len(t, attempts, 2)

	n, err := streak.NewCalculator(h.store, time.UTC).CurrentStreak(ctx, h.now)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestHandle_StreakAcrossDays(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	start := h.now

	answer := func(day int, id string) Result {
		h.now = start.AddDate(0, 0, day)
		h.addQuestion(t, id)
		return h.corr.HandleInboundAction(ctx, action("cb-"+id, "answer:B:"+id))
	}

	assert.Equal(t, 1, answer(0, "D0").Streak)
	assert.Equal(t, 2, answer(1, "D1").Streak)
	// Day 2 is skipped.
	assert.Equal(t, 1, answer(3, "D3").Streak)
}

func TestHandle_ConcurrentDuplicates(t *testing.T) {
	h := newHarness(t)
	h.addQuestion(t, "Q1")

	const n = 8
	results := make([]Result, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = h.corr.HandleInboundAction(context.Background(), action("cb", "answer:B:Q1"))
		}()
	}
	wg.Wait()

	counts := map[Outcome]int{}
	for _, r := range results {
		counts[r.Outcome]++
	}
	assert.Equal(t, 1, counts[OutcomeCorrect])
	assert.Equal(t, n-1, counts[OutcomeRepeat])
}

type failingRecorder struct{}

func (failingRecorder) RecordAttempt(context.Context, string, string) (*store.AttemptResult, error) {
	return nil, &store.StoreError{Op: "insert attempt", Err: errors.New("disk I/O error")}
}

func TestHandle_StoreFailureNotifiesGenerically(t *testing.T) {
	tr := &delivery.RecordingTransport{}
	logger := log.New(io.Discard, "", 0)
	ch := delivery.NewChannel(tr, nil, delivery.Config{ChatID: 1}, logger)
	c := New(failingRecorder{}, nil, ch, logger)

	res := c.HandleInboundAction(context.Background(), action("cb1", "answer:A:Q1"))

	assert.Equal(t, OutcomeFailed, res.Outcome)
	last, _ := tr.Last()
	assert.Equal(t, delivery.MsgFailure, last.Text)
	assert.NotContains(t, last.Text, "disk")
}

type panickingRecorder struct{}

func (panickingRecorder) RecordAttempt(context.Context, string, string) (*store.AttemptResult, error) {
	panic("boom")
}

func TestHandle_RecoversFromPanic(t *testing.T) {
	tr := &delivery.RecordingTransport{}
	logger := log.New(io.Discard, "", 0)
	c := New(panickingRecorder{}, nil, delivery.NewChannel(tr, nil, delivery.Config{}, logger), logger)

	var res Result
	assert.NotPanics(t, func() {
		res = c.HandleInboundAction(context.Background(), action("cb1", "answer:A:Q1"))
	})
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, []string{"cb1"}, tr.Acks)
}

type failingAckTransport struct {
	delivery.RecordingTransport
}

func (f *failingAckTransport) AcknowledgeAction(context.Context, string) error {
	return errors.New("query is too old")
}

func TestHandle_AcknowledgeFailureDoesNotBlockRecording(t *testing.T) {
	h := newHarness(t)
	h.addQuestion(t, "Q1")

	tr := &failingAckTransport{}
	logger := log.New(io.Discard, "", 0)
	c := New(h.store, streak.NewCalculator(h.store, time.UTC),
		delivery.NewChannel(tr, nil, delivery.Config{}, logger), logger)

	res := c.HandleInboundAction(context.Background(), action("cb1", "answer:B:Q1"))
	assert.Equal(t, OutcomeCorrect, res.Outcome)
}
