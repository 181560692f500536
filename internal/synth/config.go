package synth

import "time"

// Config controls the behavior of the LLMSynthesizer.
type Config struct {
	// Validators run in order; the first failure rejects the question.
	Validators []Validator

	// MaxTokens is the token budget for the LLM response.
	MaxTokens int

	// Temperature controls LLM output randomness (0.0-1.0).
	Temperature float64

	// Timeout bounds a single synthesis call. Zero means no extra bound
	// beyond the caller's context.
	Timeout time.Duration
}

// DefaultConfig returns a Config with the standard validator chain.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&StructuralValidator{},
			&SingleCorrectValidator{},
			&DistinctOptionsValidator{},
		},
		MaxTokens:   1024,
		Temperature: 0.7,
		Timeout:     60 * time.Second,
	}
}
