package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/tutorgate/internal/llm"
	"github.com/abhisek/tutorgate/internal/mastery"
	"github.com/abhisek/tutorgate/internal/quiz"
	"github.com/abhisek/tutorgate/internal/store"
)

type startQuizRequest struct {
	UserID        string           `json:"userId"`
	CourseID      string           `json:"courseId"`
	Topic         string           `json:"topic"`
	Difficulty    string           `json:"difficulty"`
	QuestionCount int              `json:"questionCount"`
	UseAI         bool             `json:"useAI"`
	APIKeys       []llm.Credential `json:"apiKeys"`
}

// POST /api/quiz/start
func (s *Server) startQuiz(c *gin.Context) {
	var req startQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}

	keys := req.APIKeys
	if req.UseAI && len(keys) == 0 && s.vault != nil {
		if sid := sessionID(c); sid != "" {
			cached, err := s.vault.Keys(sid)
			if err != nil {
				s.log.Warn("read vault keys", "session_id", sid, "error", err)
			}
			keys = cached
		}
	}

	res, err := s.quiz.Create(c.Request.Context(), quiz.StartInput{
		UserID:        req.UserID,
		CourseID:      req.CourseID,
		Topic:         req.Topic,
		Difficulty:    req.Difficulty,
		QuestionCount: req.QuestionCount,
		UseAI:         req.UseAI,
		Keys:          keys,
	})
	if err != nil {
		s.respondErr(c, err)
		return
	}
	respondOK(c, res)
}

type answerQuizRequest struct {
	SessionID     string `json:"sessionId"`
	UserID        string `json:"userId"`
	QuestionID    string `json:"questionId"`
	SelectedIndex *int   `json:"selectedIndex"`
}

// POST /api/quiz/answer
func (s *Server) answerQuiz(c *gin.Context) {
	var req answerQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}
	res, err := s.quiz.Submit(c.Request.Context(), quiz.AnswerInput{
		SessionID:     req.SessionID,
		UserID:        req.UserID,
		QuestionID:    req.QuestionID,
		SelectedIndex: req.SelectedIndex,
	})
	if err != nil {
		s.respondErr(c, err)
		return
	}
	respondOK(c, res)
}

type finishQuizRequest struct {
	SessionID        string `json:"sessionId"`
	UserID           string `json:"userId"`
	TimeSpentSeconds int    `json:"timeSpentSeconds"`
}

// POST /api/quiz/finish
func (s *Server) finishQuiz(c *gin.Context) {
	var req finishQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}
	res, err := s.quiz.Finalize(c.Request.Context(), req.SessionID, req.UserID, req.TimeSpentSeconds)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	respondOK(c, res)
}

// GET /api/quiz/history?userId=
func (s *Server) quizHistory(c *gin.Context) {
	entries, err := s.quiz.History(c.Request.Context(), strings.TrimSpace(c.Query("userId")))
	if err != nil {
		s.respondErr(c, err)
		return
	}
	if entries == nil {
		entries = []store.QuizHistoryEntryData{}
	}
	respondOK(c, gin.H{"history": entries})
}

// GET /api/quiz/topics
func (s *Server) quizTopics(c *gin.Context) {
	respondOK(c, gin.H{"topics": s.quiz.Topics()})
}

type studySessionRequest struct {
	UserID          string `json:"userId"`
	Topic           string `json:"topic"`
	DurationSeconds int    `json:"durationSeconds"`
}

// POST /api/study/session credits a timed study session.
func (s *Server) studySession(c *gin.Context) {
	var req studySessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}
	m, err := s.mastery.RecordStudySession(c.Request.Context(), req.UserID, req.Topic,
		time.Duration(req.DurationSeconds)*time.Second)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	respondOK(c, masteryView(m))
}

type topicMasteryView struct {
	store.TopicMasteryData
	State mastery.MasteryState `json:"state"`
}

func masteryView(m store.TopicMasteryData) topicMasteryView {
	return topicMasteryView{TopicMasteryData: m, State: mastery.ResolveState(m.Mastery, m.SessionsCount)}
}

// GET /api/mastery?userId=
func (s *Server) listMastery(c *gin.Context) {
	all, err := s.mastery.List(c.Request.Context(), strings.TrimSpace(c.Query("userId")))
	if err != nil {
		s.respondErr(c, err)
		return
	}
	out := make([]topicMasteryView, len(all))
	for i, m := range all {
		out[i] = masteryView(m)
	}
	respondOK(c, gin.H{"mastery": out})
}
