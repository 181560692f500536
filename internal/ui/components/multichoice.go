package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizstreak/internal/quiz"
	"github.com/abhisek/quizstreak/internal/ui/theme"
)

// MultiChoice selects one labelled option. It does not know the answer:
// once submitted it waits for Reveal to color the options.
type MultiChoice struct {
	Question string
	Options  []quiz.Option
	Selected int

	Submitted bool
	Chosen    string

	revealed bool
	correct  string
}

func NewMultiChoice(question string, options []quiz.Option) MultiChoice {
	return MultiChoice{Question: question, Options: options}
}

// Update moves the cursor with the arrow keys, or jumps to an option by
// typing its label. Enter submits.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	if m.Submitted {
		return m, nil
	}
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
	case "down", "j":
		if m.Selected < len(m.Options)-1 {
			m.Selected++
		}
	case "enter":
		if len(m.Options) > 0 {
			m.Submitted = true
			m.Chosen = m.Options[m.Selected].Label
		}
	default:
		for i, o := range m.Options {
			if strings.EqualFold(key, o.Label) {
				m.Selected = i
			}
		}
	}
	return m, nil
}

// Reveal marks correctLabel as the answer.
func (m *MultiChoice) Reveal(correctLabel string) {
	m.revealed = true
	m.correct = correctLabel
}

func (m MultiChoice) View() string {
	var b strings.Builder
	b.WriteString(theme.Body.Bold(true).Render(m.Question))
	b.WriteString("\n\n")

	for i, o := range m.Options {
		prefix := "  "
		if i == m.Selected && !m.Submitted {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%s)  %s", prefix, o.Label, o.Content)

		style := theme.Unselected
		switch {
		case m.revealed && o.Label == m.correct:
			style = theme.Correct
		case m.Submitted && o.Label == m.Chosen:
			style = theme.Incorrect
			if !m.revealed {
				style = theme.Selected
			}
		case m.Submitted:
			style = theme.Dimmed
		case i == m.Selected:
			style = theme.Selected
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
