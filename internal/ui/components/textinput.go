package components

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizstreak/internal/ui/theme"
)

// FilterInput is a single-line text input used to narrow a list.
type FilterInput struct {
	Model textinput.Model
}

func NewFilterInput(placeholder string, limit int) FilterInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "/ "
	if limit > 0 {
		ti.CharLimit = limit
	}
	ti.Focus()
	return FilterInput{Model: ti}
}

func (f FilterInput) Init() tea.Cmd {
	return f.Model.Focus()
}

func (f FilterInput) Update(msg tea.Msg) (FilterInput, tea.Cmd) {
	var cmd tea.Cmd
	f.Model, cmd = f.Model.Update(msg)
	return f, cmd
}

func (f FilterInput) View() string {
	return theme.Body.Render(f.Model.View())
}

// Matches reports whether s contains the filter text, ignoring case. An
// empty filter matches everything.
func (f FilterInput) Matches(s string) bool {
	q := strings.TrimSpace(f.Model.Value())
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(q))
}

func (f FilterInput) Value() string {
	return f.Model.Value()
}

func (f *FilterInput) SetValue(s string) {
	f.Model.SetValue(s)
}
