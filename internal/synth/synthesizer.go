package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/quizstreak/internal/llm"
	"github.com/abhisek/quizstreak/internal/quiz"
)

// Purpose labels LLM request events emitted by the synthesizer.
const Purpose = "quiz-gen"

// LLMSynthesizer implements Synthesizer using an LLM provider.
type LLMSynthesizer struct {
	provider llm.Provider
	config   Config
	newID    func() string
	now      func() time.Time
}

// Option configures an LLMSynthesizer.
type Option func(*LLMSynthesizer)

// WithIDFunc overrides question id generation.
func WithIDFunc(fn func() string) Option {
	return func(s *LLMSynthesizer) { s.newID = fn }
}

// WithClock overrides the creation timestamp source.
func WithClock(fn func() time.Time) Option {
	return func(s *LLMSynthesizer) { s.now = fn }
}

// New creates a new LLMSynthesizer.
func New(provider llm.Provider, cfg Config, opts ...Option) *LLMSynthesizer {
	s := &LLMSynthesizer{
		provider: provider,
		config:   cfg,
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize generates one question for in. Any failure is returned as a
// *GenerationError and no partial question is produced.
func (s *LLMSynthesizer) Synthesize(ctx context.Context, in Input) (*quiz.Question, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, &GenerationError{Candidate: in.Name, Stage: "input", Err: fmt.Errorf("candidate name is empty")}
	}

	ctx = llm.WithPurpose(ctx, Purpose)
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	resp, err := s.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildUserMessage(in)}},
		Schema:      MCQSchema,
		MaxTokens:   s.config.MaxTokens,
		Temperature: s.config.Temperature,
	})
	if err != nil {
		return nil, &GenerationError{Candidate: name, Stage: "llm", Err: err}
	}

	var out mcqOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, &GenerationError{Candidate: name, Stage: "parse", Err: err}
	}

	for _, v := range s.config.Validators {
		if verr := v.Validate(&out); verr != nil {
			return nil, &GenerationError{Candidate: name, Stage: "validate", Err: verr}
		}
	}

	contents := make([]string, len(out.Options))
	for i, o := range out.Options {
		contents[i] = strings.TrimSpace(o.Content)
	}
	options, err := quiz.NewOptions(contents, out.correctIndex())
	if err != nil {
		return nil, &GenerationError{Candidate: name, Stage: "validate", Err: err}
	}

	q := &quiz.Question{
		ID:              s.newID(),
		SourceReference: quiz.SourceRef(name, in.ID),
		Prompt:          strings.TrimSpace(out.OriginalQuestion),
		QuestionText:    strings.TrimSpace(out.Question),
		Options:         options,
		Explanation:     strings.TrimSpace(out.Explanation),
		CreatedAt:       s.now().UTC(),
	}
	if err := q.Validate(); err != nil {
		return nil, &GenerationError{Candidate: name, Stage: "validate", Err: err}
	}
	return q, nil
}
