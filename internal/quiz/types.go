package quiz

import (
	"fmt"
	"strings"
	"time"
)

// MaxOptions is the number of positional labels available ('A'..'Z').
const MaxOptions = 26

// Option is one selectable answer of a multiple-choice question.
type Option struct {
	// Label is the positional label ("A", "B", ...). Assigned once by
	// NewOptions and stored with the question.
	Label string `json:"label"`

	// Content is the text shown to the user.
	Content string `json:"content"`

	// IsCorrect marks the single correct option.
	IsCorrect bool `json:"is_correct"`
}

// Question is a generated multiple-choice question. It is immutable once
// persisted.
type Question struct {
	// ID is the globally unique correlation key shared by delivery and
	// answer events. Must not contain a colon.
	ID string

	// SourceReference identifies the originating candidate item as built
	// by SourceRef, e.g. "Two Sum (1)". May be empty.
	SourceReference string

	// Prompt is the underlying concept description shown before the question.
	Prompt string

	// QuestionText is the MCQ stem.
	QuestionText string

	// Options in display order.
	Options []Option

	// Explanation is shown only after an answer is recorded.
	Explanation string

	CreatedAt time.Time
}

// Attempt is one recorded response to a question. Attempts are append-only.
type Attempt struct {
	ID            int64
	QuestionID    string
	SelectedLabel string
	IsCorrect     bool
	AnsweredAt    time.Time
}

// LabelFor returns the label for the option at position i.
func LabelFor(i int) (string, error) {
	if i < 0 || i >= MaxOptions {
		return "", fmt.Errorf("option index %d out of range", i)
	}
	return string(rune('A' + i)), nil
}

// NewOptions builds labelled options from contents in the given order.
// correctIndex selects the correct option.
func NewOptions(contents []string, correctIndex int) ([]Option, error) {
	if len(contents) == 0 {
		return nil, fmt.Errorf("no options")
	}
	if correctIndex < 0 || correctIndex >= len(contents) {
		return nil, fmt.Errorf("correct index %d out of range for %d options", correctIndex, len(contents))
	}
	out := make([]Option, len(contents))
	for i, c := range contents {
		label, err := LabelFor(i)
		if err != nil {
			return nil, err
		}
		out[i] = Option{Label: label, Content: c, IsCorrect: i == correctIndex}
	}
	return out, nil
}

// CorrectOption returns the option flagged as correct.
func (q *Question) CorrectOption() (Option, bool) {
	for _, o := range q.Options {
		if o.IsCorrect {
			return o, true
		}
	}
	return Option{}, false
}

// OptionByLabel looks up an option by label, ignoring case.
func (q *Question) OptionByLabel(label string) (Option, bool) {
	label = strings.TrimSpace(label)
	for _, o := range q.Options {
		if strings.EqualFold(o.Label, label) {
			return o, true
		}
	}
	return Option{}, false
}

// IsCorrectLabel reports whether label selects the correct option.
// Comparison is case-insensitive.
func (q *Question) IsCorrectLabel(label string) bool {
	correct, ok := q.CorrectOption()
	if !ok {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(label), correct.Label)
}

// Validate checks the structural rules of a question: a usable id,
// positional labels and exactly one correct option.
func (q *Question) Validate() error {
	if strings.TrimSpace(q.ID) == "" {
		return fmt.Errorf("question id is empty")
	}
	if strings.Contains(q.ID, PayloadSeparator) {
		return fmt.Errorf("question id %q contains %q", q.ID, PayloadSeparator)
	}
	if len(q.Options) == 0 {
		return fmt.Errorf("question %s has no options", q.ID)
	}
	if len(q.Options) > MaxOptions {
		return fmt.Errorf("question %s has %d options, max %d", q.ID, len(q.Options), MaxOptions)
	}
	correct := 0
	for i, o := range q.Options {
		want, _ := LabelFor(i)
		if o.Label != want {
			return fmt.Errorf("option %d has label %q, want %q", i, o.Label, want)
		}
		if o.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		return fmt.Errorf("question %s has %d correct options, want exactly 1", q.ID, correct)
	}
	return nil
}

// SourceRef builds a Question.SourceReference from a candidate's display
// name and tracker id: "name (id)", or just the name when id is empty or
// the same as the name.
func SourceRef(name, id string) string {
	name, id = strings.TrimSpace(name), strings.TrimSpace(id)
	if id == "" || id == name {
		return name
	}
	if name == "" {
		return id
	}
	return name + " (" + id + ")"
}

// SourceName returns the display name of a reference built by SourceRef.
func SourceName(ref string) string {
	if !strings.HasSuffix(ref, ")") {
		return ref
	}
	if i := strings.LastIndex(ref, " ("); i > 0 {
		return ref[:i]
	}
	return ref
}
