package delivery

import (
	"fmt"
	"strings"

	"github.com/abhisek/quizstreak/internal/quiz"
)

// RenderPrompt returns the text of the first message: the problem context
// and nothing else.
func RenderPrompt(q *quiz.Question) string {
	return q.Prompt
}

// RenderQuestion returns the question stem followed by labelled options.
// Correctness is never rendered.
func RenderQuestion(q *quiz.Question) string {
	var b strings.Builder
	b.WriteString(q.QuestionText)
	b.WriteString("\n")
	for _, o := range q.Options {
		fmt.Fprintf(&b, "\n%s) %s", o.Label, o.Content)
	}
	return b.String()
}

// Buttons builds one row with a button per option. Each payload carries
// the question id and the option label.
func Buttons(q *quiz.Question) ([][]Button, error) {
	row := make([]Button, 0, len(q.Options))
	for _, o := range q.Options {
		payload, err := quiz.EncodeAnswer(o.Label, q.ID)
		if err != nil {
			return nil, err
		}
		row = append(row, Button{Text: o.Label, Payload: payload})
	}
	return [][]Button{row}, nil
}

// AppendSelection appends the user's choice to the question text.
func AppendSelection(text, label string) string {
	return fmt.Sprintf("%s\n\nYou selected: %s", text, label)
}

// RenderCorrect is the congratulation sent after a correct first answer.
func RenderCorrect(streak int) string {
	days := "days"
	if streak == 1 {
		days = "day"
	}
	return fmt.Sprintf("Correct! Your streak is %d %s.", streak, days)
}

// RenderIncorrect explains a wrong answer.
func RenderIncorrect(q *quiz.Question, selected string) string {
	var b strings.Builder
	b.WriteString("Not quite.\n\n")
	fmt.Fprintf(&b, "Question: %s\n", q.QuestionText)
	fmt.Fprintf(&b, "Your answer: %s\n", optionText(q, selected))
	if correct, ok := q.CorrectOption(); ok {
		fmt.Fprintf(&b, "Correct answer: %s\n", optionText(q, correct.Label))
	}
	if q.Explanation != "" {
		fmt.Fprintf(&b, "\n%s", q.Explanation)
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderRepeat tells the user an answer was already recorded.
func RenderRepeat(correct bool) string {
	verdict := "incorrect"
	if correct {
		verdict = "correct"
	}
	return fmt.Sprintf("You already answered this question. This answer was %s and does not change your streak.", verdict)
}

// MsgCorrect is sent when the answer is correct but the streak could not
// be computed.
const MsgCorrect = "Correct!"

// Failure notices. Raw error detail is never shown to the user.
const (
	MsgNotRecorded = "Sorry, that answer could not be recorded. The question was not found."
	MsgFailure     = "Sorry, something went wrong while recording your answer."
)

func optionText(q *quiz.Question, label string) string {
	if o, ok := q.OptionByLabel(label); ok {
		return fmt.Sprintf("%s) %s", o.Label, o.Content)
	}
	return label
}
