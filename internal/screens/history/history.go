// Package history lists recorded attempts, newest first, with a filter on
// the problem name.
package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizstreak/internal/quiz"
	"github.com/abhisek/quizstreak/internal/screen"
	"github.com/abhisek/quizstreak/internal/store"
	"github.com/abhisek/quizstreak/internal/ui/components"
	"github.com/abhisek/quizstreak/internal/ui/layout"
	"github.com/abhisek/quizstreak/internal/ui/theme"
)

// DefaultLimit is how many attempts are loaded.
const DefaultLimit = 200

// AttemptLister is the store query the screen needs.
type AttemptLister interface {
	RecentAttempts(ctx context.Context, limit int) ([]store.AttemptRecord, error)
}

type loadedMsg struct {
	records []store.AttemptRecord
	err     error
}

type Screen struct {
	attempts AttemptLister
	loc      *time.Location
	limit    int

	records  []store.AttemptRecord
	visible  []store.AttemptRecord
	filter   components.FilterInput
	selected int
	offset   int
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates the screen. Dates are shown in loc.
func New(attempts AttemptLister, loc *time.Location) *Screen {
	if loc == nil {
		loc = time.Local
	}
	return &Screen{
		attempts: attempts,
		loc:      loc,
		limit:    DefaultLimit,
		filter:   components.NewFilterInput("filter by problem", 64),
	}
}

func (s *Screen) Init() tea.Cmd {
	return tea.Batch(s.load, s.filter.Init())
}

func (s *Screen) load() tea.Msg {
	recs, err := s.attempts.RecentAttempts(context.Background(), s.limit)
	return loadedMsg{records: recs, err: err}
}

func (s *Screen) Title() string {
	return "History"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "type", Description: "Filter"},
		{Key: "↑↓", Description: "Scroll"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		s.loaded = true
		if msg.err != nil {
			s.errMsg = msg.err.Error()
			return s, nil
		}
		s.records = msg.records
		s.applyFilter()
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up":
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case "down":
			if s.selected < len(s.visible)-1 {
				s.selected++
			}
			return s, nil
		}
	}

	before := s.filter.Value()
	var cmd tea.Cmd
	s.filter, cmd = s.filter.Update(msg)
	if s.filter.Value() != before {
		s.applyFilter()
	}
	return s, cmd
}

func (s *Screen) applyFilter() {
	s.visible = s.visible[:0]
	for _, r := range s.records {
		if s.filter.Matches(quiz.SourceName(r.SourceReference)) {
			s.visible = append(s.visible, r)
		}
	}
	s.selected = 0
	s.offset = 0
}

// Visible returns the records passing the filter.
func (s *Screen) Visible() []store.AttemptRecord {
	return s.visible
}

func (s *Screen) View(width, height int) string {
	var b strings.Builder
	b.WriteString(s.filter.View())
	b.WriteString("\n\n")

	switch {
	case s.errMsg != "":
		b.WriteString(theme.Incorrect.Render("Could not load history: " + s.errMsg))
		return b.String()
	case !s.loaded:
		b.WriteString(theme.Hint.Render("Loading..."))
		return b.String()
	case len(s.records) == 0:
		b.WriteString(theme.Hint.Render("No answers recorded yet."))
		return b.String()
	case len(s.visible) == 0:
		b.WriteString(theme.Hint.Render("Nothing matches the filter."))
		return b.String()
	}

	rows := height - 4
	if rows < 1 {
		rows = 1
	}
	if s.selected < s.offset {
		s.offset = s.selected
	}
	if s.selected >= s.offset+rows {
		s.offset = s.selected - rows + 1
	}

	end := min(s.offset+rows, len(s.visible))
	for i := s.offset; i < end; i++ {
		line := s.row(s.visible[i], width-4)
		if i == s.selected {
			b.WriteString(theme.Selected.Render("▸ " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString(theme.Hint.Render(fmt.Sprintf("%d of %d answers", len(s.visible), len(s.records))))
	return b.String()
}

func (s *Screen) row(r store.AttemptRecord, width int) string {
	mark := theme.Correct.Render("✓")
	if !r.IsCorrect {
		mark = theme.Incorrect.Render("✗")
	}
	name := quiz.SourceName(r.SourceReference)
	if name == "" {
		name = r.QuestionID
	}
	repeat := ""
	if !r.FirstAttempt {
		repeat = theme.Dimmed.Render(" (repeat)")
	}

	nameWidth := width - 26
	if nameWidth < 10 {
		nameWidth = 10
	}
	if len([]rune(name)) > nameWidth {
		name = string([]rune(name)[:nameWidth-1]) + "…"
	}
	return fmt.Sprintf("%s  %-*s  %s  %s%s",
		r.AnsweredAt.In(s.loc).Format("2006-01-02 15:04"), nameWidth, name, r.SelectedLabel, mark, repeat)
}
