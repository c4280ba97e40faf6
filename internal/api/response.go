package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/tutorgate/internal/llm"
	"github.com/abhisek/tutorgate/internal/mastery"
	"github.com/abhisek/tutorgate/internal/quiz"
	"github.com/abhisek/tutorgate/internal/tutor"
)

// APIError is the body of every failed response.
type APIError struct {
	Message  string         `json:"message"`
	Code     string         `json:"code,omitempty"`
	Provider llm.ProviderID `json:"provider,omitempty"`
}

// ErrorEnvelope wraps APIError as {"error": {...}}. Attempts is set for
// failed gateway calls.
type ErrorEnvelope struct {
	Error    APIError      `json:"error"`
	Attempts []llm.Attempt `json:"attempts,omitempty"`
}

func respondError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

func respondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// respondGatewayFailure reports a failed gateway call. A rejected or
// missing key is the caller's problem; everything else is upstream.
func respondGatewayFailure(c *gin.Context, res llm.Result) {
	status := http.StatusBadGateway
	switch res.ErrorKind {
	case llm.KindInvalidKey:
		status = http.StatusUnauthorized
	case llm.KindTimeout:
		status = http.StatusGatewayTimeout
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message:  res.ErrorMessage,
			Code:     string(res.ErrorKind),
			Provider: res.Provider,
		},
		Attempts: res.Attempts,
	})
}

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{quiz.ErrSessionNotFound, http.StatusNotFound, "session_not_found"},
	{quiz.ErrForbidden, http.StatusForbidden, "forbidden"},
	{quiz.ErrAlreadyCompleted, http.StatusConflict, "already_completed"},
	{quiz.ErrQuestionMismatch, http.StatusBadRequest, "question_mismatch"},
	{quiz.ErrNoQuestions, http.StatusNotFound, "no_questions"},
	{quiz.ErrInvalidDifficulty, http.StatusBadRequest, "invalid_difficulty"},
	{quiz.ErrMissingUser, http.StatusBadRequest, "missing_user"},
	{quiz.ErrMissingTopic, http.StatusBadRequest, "missing_topic"},
	{quiz.ErrAIUnavailable, http.StatusServiceUnavailable, "ai_unavailable"},
	{mastery.ErrMissingUser, http.StatusBadRequest, "missing_user"},
	{mastery.ErrMissingTopic, http.StatusBadRequest, "missing_topic"},
	{mastery.ErrStudyTooShort, http.StatusBadRequest, "study_too_short"},
	{tutor.ErrEmptyMessage, http.StatusBadRequest, "empty_message"},
	{tutor.ErrMessageTooLong, http.StatusBadRequest, "message_too_long"},
}

// respondErr maps a domain error to its status and code. Anything not
// recognized is logged and reported as an internal error without detail.
func (s *Server) respondErr(c *gin.Context, err error) {
	var genErr *quiz.GenerationError
	if errors.As(err, &genErr) {
		c.AbortWithStatusJSON(http.StatusBadGateway, ErrorEnvelope{Error: APIError{
			Message: genErr.Message,
			Code:    "generation_failed",
		}})
		return
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			respondError(c, m.status, m.code, m.err.Error())
			return
		}
	}
	s.log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	respondError(c, http.StatusInternalServerError, "internal", "internal server error")
}
