package synth

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizstreak/internal/llm"
)

func twoSumInput() Input {
	return Input{Name: "Two Sum", Tags: []string{"Array", "Hash Table"}}
}

func mcq(options string) json.RawMessage {
	return json.RawMessage(`{
		"question": "Which approach solves Two Sum in linear time?",
		"original_question": "Given an array of integers nums and an integer target, return indices of the two numbers that add up to target.",
		"options": ` + options + `,
		"explanation": "A hash map from value to index finds each complement in O(1)."
	}`)
}

const goodOptions = `[
	{"content": "Sort and binary search each complement", "is_correct": false},
	{"content": "One pass with a hash map of seen values", "is_correct": true},
	{"content": "Check every pair with two nested loops", "is_correct": false},
	{"content": "Two pointers on the unsorted array", "is_correct": false}
]`

func fixedSynth(mock *llm.MockProvider) *LLMSynthesizer {
	return New(mock, DefaultConfig(),
		WithIDFunc(func() string { return "Q1" }),
		WithClock(func() time.Time { return time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC) }),
	)
}

func TestSynthesize_KeepsTrackerID(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: mcq(goodOptions)})
	in := twoSumInput()
	in.ID = "1"

	q, err := fixedSynth(mock).Synthesize(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "Two Sum (1)", q.SourceReference)
	assert.NotContains(t, mock.Calls[0].Messages[0].Content, "(1)")
}

func TestSynthesize_TagsRequestPurpose(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: mcq(goodOptions)})

	_, err := fixedSynth(mock).Synthesize(context.Background(), twoSumInput())
	require.NoError(t, err)
	assert.Equal(t, []string{Purpose}, mock.Purposes)
	assert.Same(t, MCQSchema, mock.Calls[0].Schema)
}

func TestSynthesize_StrictProviderRejectsShortOptions(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: mcq(`[
		{"content": "a", "is_correct": true},
		{"content": "b", "is_correct": false},
		{"content": "c", "is_correct": false}]`)})
	mock.StrictSchema = true

	q, err := fixedSynth(mock).Synthesize(context.Background(), twoSumInput())
	assert.Nil(t, q)

	var gerr *GenerationError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, "llm", gerr.Stage)
	var invalid *llm.ErrInvalidResponse
	assert.True(t, errors.As(err, &invalid))
}

func TestSynthesize_TwoSum(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: mcq(goodOptions)})
	s := fixedSynth(mock)

	q, err := s.Synthesize(context.Background(), twoSumInput())
	require.NoError(t, err)

	assert.Equal(t, "Q1", q.ID)
	assert.Equal(t, "Two Sum", q.SourceReference)
	assert.True(t, strings.HasPrefix(q.Prompt, "Given an array"))
	assert.Equal(t, "Which approach solves Two Sum in linear time?", q.QuestionText)
	require.Len(t, q.Options, 4)
	for i, want := range []string{"A", "B", "C", "D"} {
		assert.Equal(t, want, q.Options[i].Label)
	}
	correct, ok := q.CorrectOption()
	require.True(t, ok)
	assert.Equal(t, "B", correct.Label)
	assert.Equal(t, time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC), q.CreatedAt)
	assert.NoError(t, q.Validate())
}

func TestSynthesize_RequestShape(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: mcq(goodOptions)})
	_, err := fixedSynth(mock).Synthesize(context.Background(), twoSumInput())
	require.NoError(t, err)

	require.Equal(t, 1, mock.CallCount())
	req := mock.Calls[0]
	assert.Equal(t, MCQSchema, req.Schema)
	assert.Equal(t, "leetcode-mcq", req.Schema.Name)
	require.Len(t, req.Messages, 1)
	assert.Contains(t, req.Messages[0].Content, "Problem: Two Sum")
	assert.Contains(t, req.Messages[0].Content, "Tags: Array, Hash Table")
	assert.NotEmpty(t, req.System)
}

func TestSynthesize_DefaultIDsAreUniqueAndColonFree(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: mcq(goodOptions)},
		llm.MockResponse{Content: mcq(goodOptions)},
	)
	s := New(mock, DefaultConfig())

	q1, err := s.Synthesize(context.Background(), twoSumInput())
	require.NoError(t, err)
	q2, err := s.Synthesize(context.Background(), twoSumInput())
	require.NoError(t, err)

	assert.NotEqual(t, q1.ID, q2.ID)
	assert.NotContains(t, q1.ID, ":")
}

func TestSynthesize_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		resp      llm.MockResponse
		stage     string
		validator string
	}{
		{
			name:  "provider failure",
			resp:  llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}},
			stage: "llm",
		},
		{
			name:  "unparseable",
			resp:  llm.MockResponse{Content: json.RawMessage(`{"question": 5}`)},
			stage: "parse",
		},
		{
			name: "two correct",
			resp: llm.MockResponse{Content: mcq(`[
				{"content": "a", "is_correct": true},
				{"content": "b", "is_correct": true},
				{"content": "c", "is_correct": false},
				{"content": "d", "is_correct": false}]`)},
			stage:     "validate",
			validator: "single-correct",
		},
		{
			name: "none correct",
			resp: llm.MockResponse{Content: mcq(`[
				{"content": "a", "is_correct": false},
				{"content": "b", "is_correct": false},
				{"content": "c", "is_correct": false},
				{"content": "d", "is_correct": false}]`)},
			stage:     "validate",
			validator: "single-correct",
		},
		{
			name: "three options",
			resp: llm.MockResponse{Content: mcq(`[
				{"content": "a", "is_correct": true},
				{"content": "b", "is_correct": false},
				{"content": "c", "is_correct": false}]`)},
			stage:     "validate",
			validator: "structural",
		},
		{
			name: "duplicate options",
			resp: llm.MockResponse{Content: mcq(`[
				{"content": "Hash map", "is_correct": true},
				{"content": "hash  MAP", "is_correct": false},
				{"content": "c", "is_correct": false},
				{"content": "d", "is_correct": false}]`)},
			stage:     "validate",
			validator: "distinct",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := llm.NewMockProvider(tt.resp)
			q, err := fixedSynth(mock).Synthesize(context.Background(), twoSumInput())
			assert.Nil(t, q)

			var gerr *GenerationError
			require.True(t, errors.As(err, &gerr), "got %T: %v", err, err)
			assert.Equal(t, tt.stage, gerr.Stage)
			assert.Equal(t, "Two Sum", gerr.Candidate)
			if tt.validator != "" {
				var verr *ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Equal(t, tt.validator, verr.Validator)
			}
		})
	}
}

func TestSynthesize_EmptyName(t *testing.T) {
	mock := llm.NewMockProvider()
	_, err := fixedSynth(mock).Synthesize(context.Background(), Input{Name: "  "})

	var gerr *GenerationError
	require.True(t, errors.As(err, &gerr))
	assert.Zero(t, mock.CallCount())
}

func TestSynthesize_TimeoutBoundsCall(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeout = 10 * time.Millisecond
	s := New(slowProvider{}, cfg)

	_, err := s.Synthesize(context.Background(), twoSumInput())
	var gerr *GenerationError
	require.True(t, errors.As(err, &gerr))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type slowProvider struct{}

func (slowProvider) Generate(ctx context.Context, _ llm.Request) (*llm.Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (slowProvider) ModelID() string { return "slow" }

func TestBuildUserMessage_NoTags(t *testing.T) {
	msg := buildUserMessage(Input{Name: " LRU Cache "})
	assert.Contains(t, msg, "Problem: LRU Cache\n")
	assert.Contains(t, msg, "Tags: none")
}
