// Package screen defines the contract between terminal screens and the
// router that stacks them.
package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizstreak/internal/ui/layout"
)

// Screen is one full-frame view.
type Screen interface {
	Init() tea.Cmd

	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the content area, excluding header and footer.
	View(width, height int) string

	// Title is shown in the header.
	Title() string
}

// KeyHintProvider is implemented by screens with their own footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// StreakChangedMsg tells the root model the streak shown in the header
// changed.
type StreakChangedMsg struct {
	Days int
}
