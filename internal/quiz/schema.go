package quiz

import "github.com/abhisek/tutorgate/internal/llm"

// quizBatchSchema checks the envelope of a generated batch. Items are
// checked one by one against quizItemSchema, so a single bad item does not
// sink the batch.
var quizBatchSchema = &llm.Schema{
	Name: "quiz-batch",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "object"},
			},
		},
		"required": []any{"questions"},
	},
}

var quizItemSchema = &llm.Schema{
	Name: "quiz-item",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questionText": map[string]any{
				"type":      "string",
				"minLength": 1,
			},
			"options": map[string]any{
				"type":     "array",
				"items":    map[string]any{"type": "string", "minLength": 1},
				"minItems": OptionCount,
				"maxItems": OptionCount,
			},
			"correctIndex": map[string]any{
				"type":    "integer",
				"minimum": 0,
				"maximum": OptionCount - 1,
			},
			"explanation": map[string]any{
				"type": "string",
			},
			"difficulty": map[string]any{
				"type": "string",
				"enum": []any{string(Easy), string(Medium), string(Hard)},
			},
		},
		"required":             []any{"questionText", "options", "correctIndex", "explanation", "difficulty"},
		"additionalProperties": false,
	},
}
