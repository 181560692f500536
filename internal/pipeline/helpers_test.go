package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizstreak/internal/archive"
	"github.com/abhisek/quizstreak/internal/catalog"
	"github.com/abhisek/quizstreak/internal/delivery"
	"github.com/abhisek/quizstreak/internal/llm"
	"github.com/abhisek/quizstreak/internal/store"
	"github.com/abhisek/quizstreak/internal/synth"
)

// mcqResponse builds a model response whose option at correct is flagged.
func mcqResponse(name string, correct int) llm.MockResponse {
	contents := []string{
		"Sort and binary search each complement",
		"One pass with a hash map of seen values",
		"Check every pair with two nested loops",
		"Two pointers on the unsorted array",
	}
	opts := make([]map[string]any, len(contents))
	for i, c := range contents {
		opts[i] = map[string]any{"content": c, "is_correct": i == correct}
	}
	body, _ := json.Marshal(map[string]any{
		"question":          fmt.Sprintf("Which approach solves %s in linear time?", name),
		"original_question": fmt.Sprintf("%s: given an array and a target, return the matching indices.", name),
		"options":           opts,
		"explanation":       "A hash map from value to index finds each complement in O(1).",
	})
	return llm.MockResponse{Content: body}
}

type staticSource struct {
	cands []catalog.Candidate
	err   error

	// started is closed when Fetch is first entered; Fetch then waits on
	// block.
	started chan struct{}
	block   chan struct{}
	once    sync.Once
}

func (s *staticSource) Fetch(ctx context.Context) ([]catalog.Candidate, error) {
	if s.started != nil {
		s.once.Do(func() { close(s.started) })
	}
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.cands, s.err
}

func medium(name string, tags ...string) catalog.Candidate {
	return catalog.Candidate{ID: name, Name: name, Tags: tags, Difficulty: "Medium", RecentlyAttempted: true}
}

// sequentialIDs returns Q1, Q2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("Q%d", n)
	}
}

// env is a fully wired batch over an on-disk store and a recording
// transport.
type env struct {
	store     *store.Store
	transport *delivery.RecordingTransport
	channel   *delivery.Channel
	provider  *llm.MockProvider
	source    *staticSource
	archive   *archive.Log
	runner    *Runner
	logger    *log.Logger
	now       time.Time
}

func newEnv(tb testing.TB, count int) *env {
	tb.Helper()
	e, err := buildEnv(tb.TempDir(), count)
	require.NoError(tb, err)
	tb.Cleanup(func() { e.store.Close() })
	return e
}

// buildEnv wires an env rooted at dir. The caller closes e.store.
func buildEnv(dir string, count int) (*env, error) {
	e := &env{
		transport: &delivery.RecordingTransport{},
		provider:  llm.NewMockProvider(),
		source:    &staticSource{},
		logger:    log.New(io.Discard, "", 0),
		now:       time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return e.now }

	s, err := store.Open(store.FileDSN(filepath.Join(dir, "quiz.db")), store.WithClock(clock))
	if err != nil {
		return nil, err
	}
	e.store = s

	e.archive = archive.New(filepath.Join(dir, "questions.jsonl"))
	e.channel = delivery.NewChannel(e.transport, s, delivery.Config{ChatID: 42}, e.logger)
	sy := synth.New(e.provider, synth.DefaultConfig(), synth.WithIDFunc(sequentialIDs()), synth.WithClock(clock))
	e.runner = New(e.source, sy, s, e.archive, e.channel, Config{Filter: catalog.DefaultFilter(), Count: count}, e.logger, WithClock(clock))
	return e, nil
}

func payloads(buttons [][]delivery.Button) []string {
	var out []string
	for _, row := range buttons {
		for _, b := range row {
			out = append(out, b.Payload)
		}
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
