package components

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizstreak/internal/quiz"
)

func testOptions(t *testing.T) []quiz.Option {
	t.Helper()
	opts, err := quiz.NewOptions([]string{"BFS", "DFS", "Dijkstra", "Union-Find"}, 2)
	if err != nil {
		t.Fatal(err)
	}
	return opts
}

func TestMultiChoice_LabelJump(t *testing.T) {
	m := NewMultiChoice("Shortest path with weights?", testOptions(t))

	m, _ = m.Update(tea.KeyPressMsg{Code: 'd', Text: "d"})
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})

	if !m.Submitted || m.Chosen != "D" {
		t.Fatalf("submitted=%v chosen=%q, want D", m.Submitted, m.Chosen)
	}
}

func TestMultiChoice_IgnoresKeysAfterSubmit(t *testing.T) {
	m := NewMultiChoice("q", testOptions(t))
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyDown})

	if m.Chosen != "A" || m.Selected != 0 {
		t.Errorf("chosen=%q selected=%d", m.Chosen, m.Selected)
	}
}

func TestMultiChoice_BoundedCursor(t *testing.T) {
	m := NewMultiChoice("q", testOptions(t))
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyUp})
	if m.Selected != 0 {
		t.Errorf("selected = %d after up at top", m.Selected)
	}
	for range 10 {
		m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	}
	if m.Selected != 3 {
		t.Errorf("selected = %d after many downs", m.Selected)
	}
}

func TestMultiChoice_ViewListsOptions(t *testing.T) {
	m := NewMultiChoice("Shortest path with weights?", testOptions(t))
	m.Reveal("C")
	view := m.View()
	for _, want := range []string{"Shortest path with weights?", "A)  BFS", "C)  Dijkstra"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestFilterInput_Matches(t *testing.T) {
	f := NewFilterInput("", 0)
	if !f.Matches("anything") {
		t.Error("empty filter should match")
	}
	f.SetValue("sum")
	if !f.Matches("Two Sum") || f.Matches("Merge Intervals") {
		t.Error("filter should match case-insensitively on substrings")
	}
}
