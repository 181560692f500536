package history

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizstreak/internal/quiz"
	"github.com/abhisek/quizstreak/internal/store"
)

type fakeAttempts struct {
	recs []store.AttemptRecord
	err  error
}

func (f fakeAttempts) RecentAttempts(context.Context, int) ([]store.AttemptRecord, error) {
	return f.recs, f.err
}

func record(name, label string, correct, first bool, at time.Time) store.AttemptRecord {
	return store.AttemptRecord{
		Attempt:         quiz.Attempt{QuestionID: "id-" + name, SelectedLabel: label, IsCorrect: correct, AnsweredAt: at},
		SourceReference: name,
		FirstAttempt:    first,
	}
}

func loaded(t *testing.T, f fakeAttempts) *Screen {
	t.Helper()
	s := New(f, time.UTC)
	s.Update(loadedMsg{records: f.recs, err: f.err})
	return s
}

func typeText(s *Screen, text string) {
	for _, r := range text {
		s.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
}

func sample() fakeAttempts {
	at := time.Date(2026, 4, 2, 8, 30, 0, 0, time.UTC)
	return fakeAttempts{recs: []store.AttemptRecord{
		record("Two Sum", "B", true, true, at),
		record("Merge Intervals", "A", false, true, at.Add(-24*time.Hour)),
		record("Two Sum", "C", false, false, at.Add(-48*time.Hour)),
	}}
}

func TestHistory_ListsAttempts(t *testing.T) {
	s := loaded(t, sample())

	view := s.View(100, 30)
	for _, want := range []string{"2026-04-02 08:30", "Two Sum", "Merge Intervals", "(repeat)", "3 of 3 answers"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestHistory_FilterNarrowsList(t *testing.T) {
	s := loaded(t, sample())

	typeText(s, "two")

	if got := len(s.Visible()); got != 2 {
		t.Fatalf("visible = %d, want 2", got)
	}
	for _, r := range s.Visible() {
		if r.SourceReference != "Two Sum" {
			t.Errorf("unexpected record %q", r.SourceReference)
		}
	}

	typeText(s, "x")
	if got := len(s.Visible()); got != 0 {
		t.Fatalf("visible = %d, want 0", got)
	}
	if !strings.Contains(s.View(100, 30), "Nothing matches") {
		t.Error("expected empty-filter message")
	}
}

func TestHistory_ShowsLocalDates(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	f := sample()
	s := New(f, tokyo)
	s.Update(loadedMsg{records: f.recs})

	if !strings.Contains(s.View(100, 30), "2026-04-02 17:30") {
		t.Error("expected time rendered in the configured zone")
	}
}

func TestHistory_Navigation(t *testing.T) {
	s := loaded(t, sample())

	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if s.selected != 2 {
		t.Errorf("selected = %d, want 2", s.selected)
	}
	s.Update(tea.KeyPressMsg{Code: tea.KeyUp})
	if s.selected != 1 {
		t.Errorf("selected = %d, want 1", s.selected)
	}
}

func TestHistory_Empty(t *testing.T) {
	s := loaded(t, fakeAttempts{})
	if !strings.Contains(s.View(100, 30), "No answers recorded yet.") {
		t.Error("expected empty message")
	}
}

func TestHistory_LoadError(t *testing.T) {
	s := loaded(t, fakeAttempts{err: errors.New("database is locked")})
	if !strings.Contains(s.View(100, 30), "database is locked") {
		t.Error("expected error in view")
	}
}

func TestHistory_LoadsFromStore(t *testing.T) {
	clock := time.Date(2026, 4, 2, 8, 30, 0, 0, time.UTC)
	st, err := store.Open(store.FileDSN(filepath.Join(t.TempDir(), "quiz.db")),
		store.WithClock(func() time.Time { return clock }))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	opts, err := quiz.NewOptions([]string{"O(n^2)", "O(n)", "O(log n)", "O(1)"}, 1)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := st.CreateQuestion(ctx, &quiz.Question{
		ID:              "Q1",
		SourceReference: "Two Sum",
		Prompt:          "Find two numbers adding up to target.",
		QuestionText:    "What is the time complexity of the hash map approach?",
		Options:         opts,
		Explanation:     "One pass with O(1) lookups.",
	}); err != nil {
		t.Fatalf("create question: %v", err)
	}
	for _, label := range []string{"b", "C"} {
		if _, err := st.RecordAttempt(ctx, "Q1", label); err != nil {
			t.Fatalf("record attempt: %v", err)
		}
	}

	s := New(st, time.UTC)
	s.Update(s.load())

	if s.errMsg != "" {
		t.Fatalf("load error: %s", s.errMsg)
	}
	if got := len(s.Visible()); got != 2 {
		t.Fatalf("visible = %d, want 2", got)
	}
	view := s.View(100, 30)
	for _, want := range []string{"2026-04-02 08:30", "Two Sum", "(repeat)", "2 of 2 answers"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
