package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/tutorgate/internal/llm"
	"github.com/abhisek/tutorgate/internal/tutor"
)

type chatRequest struct {
	Message  string           `json:"message"`
	CourseID string           `json:"courseId"`
	Topic    string           `json:"topic"`
	History  []llm.Message    `json:"history"`
	APIKeys  []llm.Credential `json:"apiKeys"`
}

type chatResponse struct {
	Success   bool           `json:"success"`
	Content   string         `json:"content"`
	Provider  llm.ProviderID `json:"provider"`
	Model     string         `json:"model"`
	Sanitized bool           `json:"sanitized"`
	Attempts  []llm.Attempt  `json:"attempts"`
}

// POST /api/chat
func (s *Server) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}

	res, err := s.tutor.Ask(c.Request.Context(), sessionID(c), tutor.AskInput{
		CourseID: req.CourseID,
		Topic:    req.Topic,
		Message:  req.Message,
		History:  req.History,
		Keys:     req.APIKeys,
	})
	if err != nil {
		s.respondErr(c, err)
		return
	}
	if !res.Success {
		respondGatewayFailure(c, res)
		return
	}
	respondOK(c, chatResponse{
		Success:   true,
		Content:   res.Content,
		Provider:  res.Provider,
		Model:     res.Model,
		Sanitized: res.Sanitized,
		Attempts:  res.Attempts,
	})
}

type keysRequest struct {
	APIKeys []llm.Credential `json:"apiKeys"`
}

type keyCheck struct {
	Provider llm.ProviderID `json:"provider"`
	Valid    bool           `json:"valid"`
	Masked   string         `json:"masked"`
}

// POST /api/keys/validate checks key shapes without calling any provider.
func (s *Server) validateKeys(c *gin.Context) {
	var req keysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}
	out := make([]keyCheck, len(req.APIKeys))
	for i, k := range req.APIKeys {
		r := k.Resolve()
		out[i] = keyCheck{Provider: r.Provider, Valid: r.Valid(), Masked: llm.Mask(k.Key)}
	}
	respondOK(c, gin.H{"results": out})
}

// PUT /api/keys caches keys for the session in the vault.
func (s *Server) storeKeys(c *gin.Context) {
	sid, ok := s.requireSession(c)
	if !ok {
		return
	}
	var req keysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}
	n, err := s.vault.Put(sid, req.APIKeys)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	if n == 0 {
		respondError(c, http.StatusBadRequest, string(llm.KindInvalidKey), "none of the supplied keys is well formed")
		return
	}
	respondOK(c, gin.H{"stored": n})
}

// DELETE /api/keys forgets the session's cached keys.
func (s *Server) clearKeys(c *gin.Context) {
	sid, ok := s.requireSession(c)
	if !ok {
		return
	}
	s.vault.Clear(sid)
	c.Status(http.StatusNoContent)
}

func sessionID(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(SessionHeader))
}

func (s *Server) requireSession(c *gin.Context) (string, bool) {
	sid := sessionID(c)
	if sid == "" {
		respondError(c, http.StatusBadRequest, "missing_session", SessionHeader+" header is required")
		return "", false
	}
	if s.vault == nil {
		respondError(c, http.StatusServiceUnavailable, "vault_unavailable", "key vault is not configured")
		return "", false
	}
	return sid, true
}
