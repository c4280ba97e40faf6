package quiz

import (
	"errors"
	"fmt"

	"github.com/abhisek/tutorgate/internal/llm"
)

// Failures reported to callers. Each maps to its own HTTP status.
var (
	ErrSessionNotFound   = errors.New("quiz session not found")
	ErrForbidden         = errors.New("quiz session belongs to another user")
	ErrAlreadyCompleted  = errors.New("quiz session is already completed")
	ErrQuestionMismatch  = errors.New("question does not belong to this quiz session")
	ErrNoQuestions       = errors.New("no questions available for this topic")
	ErrInvalidDifficulty = errors.New("difficulty must be easy, medium or hard")
	ErrMissingUser       = errors.New("user id is required")
	ErrMissingTopic      = errors.New("topic is required")
	ErrAIUnavailable     = errors.New("AI question generation is not configured")
)

// GenerationError is returned when AI question generation produced nothing
// usable. Kind and Message come from the gateway result when the provider
// chain failed.
type GenerationError struct {
	Kind    llm.ErrorKind
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generate quiz: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("generate quiz: %s: %s", e.Kind, e.Message)
}

func (e *GenerationError) Unwrap() error { return e.Err }
