package synth

import (
	"fmt"
	"strings"
)

// Validator checks a generated question before it is accepted.
// Implementations should be stateless and safe for concurrent use.
type Validator interface {
	// Name returns a short identifier used in error messages.
	Name() string

	// Validate returns nil if the output passes.
	Validate(out *mcqOutput) *ValidationError
}

// ValidationError describes why a generated question was rejected.
type ValidationError struct {
	Validator string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

// StructuralValidator checks that fields are present and within length
// limits, and that there are exactly four non-empty options.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(out *mcqOutput) *ValidationError {
	fail := func(format string, args ...any) *ValidationError {
		return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf(format, args...)}
	}

	switch {
	case strings.TrimSpace(out.Question) == "":
		return fail("question is empty")
	case len(out.Question) > 1000:
		return fail("question exceeds 1000 characters")
	case strings.TrimSpace(out.OriginalQuestion) == "":
		return fail("original_question is empty")
	case len(out.OriginalQuestion) > 3000:
		return fail("original_question exceeds 3000 characters")
	case strings.TrimSpace(out.Explanation) == "":
		return fail("explanation is empty")
	case len(out.Explanation) > 2000:
		return fail("explanation exceeds 2000 characters")
	case len(out.Options) != OptionCount:
		return fail("got %d options, want %d", len(out.Options), OptionCount)
	}
	for i, o := range out.Options {
		if strings.TrimSpace(o.Content) == "" {
			return fail("option %d is empty", i)
		}
		if len(o.Content) > 300 {
			return fail("option %d exceeds 300 characters", i)
		}
	}
	return nil
}

// SingleCorrectValidator requires exactly one option flagged correct.
type SingleCorrectValidator struct{}

func (v *SingleCorrectValidator) Name() string { return "single-correct" }

func (v *SingleCorrectValidator) Validate(out *mcqOutput) *ValidationError {
	n := 0
	for _, o := range out.Options {
		if o.IsCorrect {
			n++
		}
	}
	if n != 1 {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("%d options marked correct, want exactly 1", n),
		}
	}
	return nil
}

// DistinctOptionsValidator rejects options that repeat after
// normalization.
type DistinctOptionsValidator struct{}

func (v *DistinctOptionsValidator) Name() string { return "distinct" }

func (v *DistinctOptionsValidator) Validate(out *mcqOutput) *ValidationError {
	seen := make(map[string]int, len(out.Options))
	for i, o := range out.Options {
		key := normalize(o.Content)
		if j, ok := seen[key]; ok {
			return &ValidationError{
				Validator: v.Name(),
				Message:   fmt.Sprintf("options %d and %d are the same", j, i),
			}
		}
		seen[key] = i
	}
	return nil
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
