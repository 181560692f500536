// Package home is the landing screen of the terminal app.
package home

import (
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizstreak/internal/router"
	"github.com/abhisek/quizstreak/internal/screen"
	"github.com/abhisek/quizstreak/internal/ui/components"
	"github.com/abhisek/quizstreak/internal/ui/theme"
)

// Factory builds a screen on demand so each visit starts fresh.
type Factory func() screen.Screen

type Screen struct {
	menu components.Menu
}

var _ screen.Screen = (*Screen)(nil)

// New creates the home menu. A nil factory leaves its entry out.
func New(practice, history Factory) *Screen {
	var items []components.MenuItem
	if practice != nil {
		items = append(items, components.MenuItem{Label: "Practice", Hint: "answer pending questions", Action: push(practice)})
	}
	if history != nil {
		items = append(items, components.MenuItem{Label: "History", Hint: "past answers", Action: push(history)})
	}
	items = append(items, components.MenuItem{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }})
	return &Screen{menu: components.NewMenu(items)}
}

func push(f Factory) func() tea.Cmd {
	return func() tea.Cmd {
		return func() tea.Msg { return router.PushScreenMsg{Screen: f()} }
	}
}

func (s *Screen) Init() tea.Cmd {
	return nil
}

func (s *Screen) Title() string {
	return "Home"
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *Screen) View(width, height int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("Daily coding quiz"))
	b.WriteString("\n")
	b.WriteString(theme.Hint.Render("Answer one question a day to keep the streak going."))
	b.WriteString("\n\n")
	b.WriteString(s.menu.View())
	return b.String()
}
