// Package synth turns a candidate problem into a validated multiple-choice
// question using an LLM with structured output.
package synth

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhisek/quizstreak/internal/quiz"
)

// Input is the candidate a question is generated from.
type Input struct {
	// ID is the tracker's identifier for the candidate. Optional.
	ID string

	// Name is the problem title, e.g. "Two Sum".
	Name string

	// Tags are topic labels, e.g. ["Array", "Hash Table"].
	Tags []string
}

// TagsString returns the tags comma-joined, as sent to the model.
func (in Input) TagsString() string {
	return strings.Join(in.Tags, ", ")
}

// Synthesizer produces a question for one candidate.
type Synthesizer interface {
	Synthesize(ctx context.Context, in Input) (*quiz.Question, error)
}

// GenerationError reports that no question could be produced for a
// candidate. The candidate is skipped; callers do not retry.
type GenerationError struct {
	Candidate string
	Stage     string // "llm", "parse" or "validate"
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate question for %q (%s): %v", e.Candidate, e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// mcqOption is one option as returned by the model.
type mcqOption struct {
	Content   string `json:"content"`
	IsCorrect bool   `json:"is_correct"`
}

// mcqOutput is the raw model response before validation.
type mcqOutput struct {
	Question         string      `json:"question"`
	OriginalQuestion string      `json:"original_question"`
	Options          []mcqOption `json:"options"`
	Explanation      string      `json:"explanation"`
}

func (o *mcqOutput) correctIndex() int {
	idx := -1
	for i, opt := range o.Options {
		if opt.IsCorrect {
			if idx >= 0 {
				return -1
			}
			idx = i
		}
	}
	return idx
}
