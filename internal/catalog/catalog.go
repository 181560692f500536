// Package catalog fetches the candidate problems questions are generated
// from and selects the ones to quiz on.
package catalog

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
)

// DefaultDifficulty is the difficulty kept when a Filter leaves it empty.
const DefaultDifficulty = "Medium"

// Candidate is one previously solved problem from the tracker.
type Candidate struct {
	ID                string   `json:"id" yaml:"id"`
	Name              string   `json:"name" yaml:"name"`
	Tags              []string `json:"tags" yaml:"tags"`
	Difficulty        string   `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
	RecentlyAttempted bool     `json:"recently_attempted" yaml:"recently_attempted"`
}

// TagsString returns the tags comma-joined.
func (c Candidate) TagsString() string {
	return strings.Join(c.Tags, ", ")
}

// Source fetches candidates.
type Source interface {
	Fetch(ctx context.Context) ([]Candidate, error)
}

// SourceFetchError reports that the candidate source could not be read.
// It aborts the batch.
type SourceFetchError struct {
	Source string
	Err    error
}

func (e *SourceFetchError) Error() string {
	return fmt.Sprintf("fetch candidates from %s: %v", e.Source, e.Err)
}

func (e *SourceFetchError) Unwrap() error {
	return e.Err
}

// Filter selects which candidates are eligible.
type Filter struct {
	// Difficulty must match exactly (case-insensitive). Empty means
	// DefaultDifficulty.
	Difficulty string

	// RequireRecent keeps only candidates flagged recently attempted.
	RequireRecent bool
}

// DefaultFilter keeps recently attempted Medium problems.
func DefaultFilter() Filter {
	return Filter{Difficulty: DefaultDifficulty, RequireRecent: true}
}

// Matches reports whether c passes the filter. A candidate without a
// difficulty never matches.
func (f Filter) Matches(c Candidate) bool {
	want := f.Difficulty
	if want == "" {
		want = DefaultDifficulty
	}
	if c.Difficulty == "" || !strings.EqualFold(strings.TrimSpace(c.Difficulty), want) {
		return false
	}
	if f.RequireRecent && !c.RecentlyAttempted {
		return false
	}
	return strings.TrimSpace(c.Name) != ""
}

// Select filters cands and draws up to n of them uniformly at random
// without replacement. n <= 0 is treated as 1. rng may be nil.
func Select(cands []Candidate, f Filter, n int, rng *rand.Rand) []Candidate {
	if n <= 0 {
		n = 1
	}

	eligible := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if f.Matches(c) {
			eligible = append(eligible, c)
		}
	}

	shuffle := rand.Shuffle
	if rng != nil {
		shuffle = rng.Shuffle
	}
	shuffle(len(eligible), func(i, j int) {
		eligible[i], eligible[j] = eligible[j], eligible[i]
	})

	if len(eligible) > n {
		eligible = eligible[:n]
	}
	return eligible
}
