// Package practice answers pending questions in the terminal. Answers go
// through the correlator, so recording, streak and feedback behave exactly
// as they do for chat answers.
package practice

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizstreak/internal/correlator"
	"github.com/abhisek/quizstreak/internal/delivery"
	"github.com/abhisek/quizstreak/internal/quiz"
	"github.com/abhisek/quizstreak/internal/screen"
	"github.com/abhisek/quizstreak/internal/ui/components"
	"github.com/abhisek/quizstreak/internal/ui/layout"
	"github.com/abhisek/quizstreak/internal/ui/theme"
)

// PendingLister returns questions that have no attempt yet.
type PendingLister interface {
	ListPending(ctx context.Context, limit int) ([]*quiz.Question, error)
}

// ActionHandler is implemented by *correlator.Correlator.
type ActionHandler interface {
	HandleInboundAction(ctx context.Context, action delivery.InboundAction) correlator.Result
}

type loadedMsg struct {
	questions []*quiz.Question
	err       error
}

type answeredMsg struct {
	result correlator.Result
}

type Screen struct {
	pending PendingLister
	handler ActionHandler
	limit   int

	questions []*quiz.Question
	index     int
	choice    components.MultiChoice
	answered  bool
	result    correlator.Result

	correct int
	done    int
	loaded  bool
	errMsg  string
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates the screen. limit caps how many pending questions are
// loaded; zero loads all.
func New(pending PendingLister, handler ActionHandler, limit int) *Screen {
	return &Screen{pending: pending, handler: handler, limit: limit}
}

func (s *Screen) Init() tea.Cmd {
	return func() tea.Msg {
		qs, err := s.pending.ListPending(context.Background(), s.limit)
		return loadedMsg{questions: qs, err: err}
	}
}

func (s *Screen) Title() string {
	return "Practice"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	if s.answered {
		return []layout.KeyHint{{Key: "Enter", Description: "Next"}, {Key: "Esc", Description: "Back"}}
	}
	return []layout.KeyHint{
		{Key: "↑↓/A-D", Description: "Choose"},
		{Key: "Enter", Description: "Answer"},
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
		s.questions = msg.questions
		s.show(0)
		return s, nil

	case answeredMsg:
		s.answered = true
		s.result = msg.result
		s.done++
		if msg.result.Outcome == correlator.OutcomeCorrect {
			s.correct++
		}
		if a := msg.result.Attempt; a != nil && a.Question != nil {
			if opt, ok := a.Question.CorrectOption(); ok {
				s.choice.Reveal(opt.Label)
			}
		}
		if msg.result.Outcome == correlator.OutcomeCorrect {
			days := msg.result.Streak
			return s, func() tea.Msg { return screen.StreakChangedMsg{Days: days} }
		}
		return s, nil

	case tea.KeyMsg:
		if s.finished() {
			return s, nil
		}
		if s.answered {
			if msg.String() == "enter" {
				s.show(s.index + 1)
			}
			return s, nil
		}
		s.choice, _ = s.choice.Update(msg)
		if s.choice.Submitted {
			return s, s.answer(s.questions[s.index], s.choice.Chosen)
		}
		return s, nil
	}
	return s, nil
}

func (s *Screen) show(i int) {
	s.index = i
	s.answered = false
	s.result = correlator.Result{}
	if i < len(s.questions) {
		q := s.questions[i]
		s.choice = components.NewMultiChoice(q.QuestionText, q.Options)
	}
}

func (s *Screen) finished() bool {
	return s.loaded && s.index >= len(s.questions)
}

// answer submits the selection the same way a chat button press arrives.
func (s *Screen) answer(q *quiz.Question, label string) tea.Cmd {
	handler := s.handler
	return func() tea.Msg {
		payload, err := quiz.EncodeAnswer(label, q.ID)
		if err != nil {
			return answeredMsg{result: correlator.Result{Outcome: correlator.OutcomeMalformed, Err: err}}
		}
		res := handler.HandleInboundAction(context.Background(), delivery.InboundAction{Payload: payload})
		return answeredMsg{result: res}
	}
}

func (s *Screen) View(width, height int) string {
	switch {
	case s.errMsg != "":
		return theme.Incorrect.Render("Could not load questions: " + s.errMsg)
	case !s.loaded:
		return theme.Hint.Render("Loading...")
	case len(s.questions) == 0:
		return theme.Hint.Render("No pending questions. Run `quizstreak run` to generate some.")
	case s.finished():
		return theme.Title.Render("Done") + "\n\n" +
			theme.Body.Render(fmt.Sprintf("%d of %d answered correctly.", s.correct, s.done))
	}

	q := s.questions[s.index]
	var b strings.Builder
	header := fmt.Sprintf("Question %d of %d", s.index+1, len(s.questions))
	if name := quiz.SourceName(q.SourceReference); name != "" {
		header += " · " + name
	}
	b.WriteString(theme.Hint.Render(header))
	b.WriteString("\n\n")
	b.WriteString(theme.Card.Width(max(width-4, 20)).Render(delivery.RenderPrompt(q)))
	b.WriteString("\n\n")
	b.WriteString(s.choice.View())

	if s.answered && s.result.Reply != "" {
		style := theme.Body
		switch s.result.Outcome {
		case correlator.OutcomeCorrect:
			style = theme.Correct
		case correlator.OutcomeIncorrect:
			style = theme.Incorrect
		}
		b.WriteString("\n")
		b.WriteString(style.Render(s.result.Reply))
	}
	return b.String()
}
