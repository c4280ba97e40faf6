// Package tutor answers student questions through the provider gateway.
package tutor

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/abhisek/tutorgate/internal/keyvault"
	"github.com/abhisek/tutorgate/internal/llm"
	"github.com/abhisek/tutorgate/internal/logging"
)

// MaxMessageLength bounds a single student message, in characters.
const MaxMessageLength = 4000

var (
	ErrEmptyMessage   = errors.New("message is required")
	ErrMessageTooLong = errors.New("message is too long")
)

// Gateway is the part of llm.Gateway the tutor needs.
type Gateway interface {
	Call(ctx context.Context, req llm.Request, creds []llm.Credential) llm.Result
}

// AskInput is one tutoring question.
type AskInput struct {
	CourseID string
	Topic    string
	Message  string
	History  []llm.Message

	// Keys are used when present. Otherwise the session's vault keys are.
	Keys []llm.Credential
}

// Service routes tutoring chat through the gateway.
type Service struct {
	gateway Gateway
	vault   *keyvault.Vault
	timeout time.Duration
	log     *logging.Logger
}

// NewService creates a Service. vault may be nil.
func NewService(gw Gateway, vault *keyvault.Vault, timeout time.Duration, log *logging.Logger) *Service {
	if log == nil {
		log = logging.Nop()
	}
	return &Service{gateway: gw, vault: vault, timeout: timeout, log: log}
}

// Ask answers in.Message. Validation failures return an error; provider
// failures are reported inside the Result.
func (s *Service) Ask(ctx context.Context, sessionID string, in AskInput) (llm.Result, error) {
	msg := strings.TrimSpace(in.Message)
	if msg == "" {
		return llm.Result{}, ErrEmptyMessage
	}
	if utf8.RuneCountInString(msg) > MaxMessageLength {
		return llm.Result{}, ErrMessageTooLong
	}

	creds := in.Keys
	fromVault := false
	if len(creds) == 0 && s.vault != nil && sessionID != "" {
		cached, err := s.vault.Keys(sessionID)
		if err != nil {
			s.log.Error("read vault keys", "session_id", sessionID, "error", err)
		}
		creds = cached
		fromVault = len(cached) > 0
	}

	res := s.gateway.Call(ctx, llm.Request{
		System:  SystemPrompt(in.CourseID, in.Topic),
		History: in.History,
		Message: msg,
		Timeout: s.timeout,
		Purpose: llm.PurposeChat,
	}, creds)

	if fromVault {
		s.vault.Report(sessionID, creds, res.Attempts)
	}

	if !res.Success {
		s.log.Warn("tutor answer failed", "session_id", sessionID, "kind", res.ErrorKind, "attempts", len(res.Attempts))
	}
	return res, nil
}
