// Package app is the root Bubble Tea model for the terminal surfaces.
package app

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizstreak/internal/router"
	"github.com/abhisek/quizstreak/internal/screen"
	"github.com/abhisek/quizstreak/internal/ui/layout"
)

// StreakSource computes the streak shown in the header.
type StreakSource interface {
	CurrentStreak(ctx context.Context, asOf time.Time) (int, error)
}

type Options struct {
	// Initial is the bottom screen. Esc on it quits.
	Initial screen.Screen

	// Streak, when set, fills the header. A failure hides the counter.
	Streak StreakSource
}

// Model is the root model: a router plus the surrounding frame.
type Model struct {
	router *router.Router
	streak StreakSource
	days   int
	width  int
	height int
}

func New(opts Options) Model {
	return Model{
		router: router.New(opts.Initial),
		streak: opts.Streak,
		days:   -1,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.router.Active().Init(), RefreshStreak(m.streak))
}

// RefreshStreak recomputes the streak and reports it as a
// screen.StreakChangedMsg.
func RefreshStreak(src StreakSource) tea.Cmd {
	if src == nil {
		return nil
	}
	return func() tea.Msg {
		n, err := src.CurrentStreak(context.Background(), time.Now())
		if err != nil {
			return screen.StreakChangedMsg{Days: -1}
		}
		return screen.StreakChangedMsg{Days: n}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case screen.StreakChangedMsg:
		m.days = msg.Days
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.router.Depth() == 1 {
				return m, tea.Quit
			}
			return m, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}

	return m, m.router.Update(msg)
}

func (m Model) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}
	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	header := layout.RenderHeader(active.Title(), m.days, m.width)

	hints := []layout.KeyHint{{Key: "Esc", Description: "Back"}, {Key: "Ctrl+C", Description: "Quit"}}
	if p, ok := active.(screen.KeyHintProvider); ok {
		hints = p.KeyHints()
	}
	footer := layout.RenderFooter(hints, m.width)

	contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 0 {
		contentHeight = 0
	}
	v.SetContent(layout.RenderFrame(header, m.router.View(m.width, contentHeight), footer, m.width, m.height))
	return v
}

// Run starts the program and blocks until the user quits.
func Run(opts Options) error {
	_, err := tea.NewProgram(New(opts)).Run()
	return err
}
