package synth

import "github.com/abhisek/quizstreak/internal/llm"

// OptionCount is the number of options every generated question has.
const OptionCount = 4

// MCQSchema defines the JSON schema for question generation responses.
var MCQSchema = &llm.Schema{
	Name:        "leetcode-mcq",
	Description: "A multiple-choice question testing understanding of a coding problem's solution",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question": map[string]any{
				"type":        "string",
				"description": "The multiple-choice question stem about the optimal approach",
			},
			"original_question": map[string]any{
				"type":        "string",
				"description": "A concise restatement of the original problem, shown before the question",
			},
			"options": map[string]any{
				"type":     "array",
				"minItems": OptionCount,
				"maxItems": OptionCount,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"content": map[string]any{
							"type":        "string",
							"description": "Option text",
						},
						"is_correct": map[string]any{
							"type":        "boolean",
							"description": "True for the single correct option",
						},
					},
					"required":             []any{"content", "is_correct"},
					"additionalProperties": false,
				},
				"description": "Exactly 4 options, exactly one correct",
			},
			"explanation": map[string]any{
				"type":        "string",
				"description": "Why the correct option is right and the others are not",
			},
		},
		"required":             []any{"question", "original_question", "options", "explanation"},
		"additionalProperties": false,
	},
}
