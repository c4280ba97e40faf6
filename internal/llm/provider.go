package llm

import (
	"context"
	"time"
)

// ProviderID identifies an LLM vendor. The set is closed.
type ProviderID string

const (
	ProviderGemini     ProviderID = "gemini"
	ProviderGroq       ProviderID = "groq"
	ProviderCerebras   ProviderID = "cerebras"
	ProviderOpenRouter ProviderID = "openrouter"
	ProviderUnknown    ProviderID = "unknown"
)

// PriorityOrder is the fixed fallback chain walked by the gateway.
// It encodes a cost/quality preference and is not caller-configurable.
var PriorityOrder = [...]ProviderID{
	ProviderGemini,
	ProviderGroq,
	ProviderCerebras,
	ProviderOpenRouter,
}

// ParseProviderID maps a caller-supplied name onto the closed enum.
// Anything unrecognized becomes ProviderUnknown.
func ParseProviderID(s string) ProviderID {
	switch ProviderID(s) {
	case ProviderGemini, ProviderGroq, ProviderCerebras, ProviderOpenRouter:
		return ProviderID(s)
	}
	return ProviderUnknown
}

// DisplayName returns the vendor name used in caller-facing messages.
func (p ProviderID) DisplayName() string {
	switch p {
	case ProviderGemini:
		return "Gemini"
	case ProviderGroq:
		return "Groq"
	case ProviderCerebras:
		return "Cerebras"
	case ProviderOpenRouter:
		return "OpenRouter"
	}
	return "Unknown provider"
}

// Provider is one vendor adapter bound to a single API key.
// Implementations translate the canonical Request into the vendor's wire
// call and return the raw model text.
type Provider interface {
	// Generate sends the conversation to the model. Errors are returned
	// as-is; classification happens in the gateway.
	Generate(ctx context.Context, req Request) (*Completion, error)

	// ID returns the vendor this adapter talks to.
	ID() ProviderID

	// ModelID returns the model identifier this adapter is configured to use.
	ModelID() string
}

// MaxHistory is the number of most recent history turns sent to a provider.
const MaxHistory = 6

// Request is the canonical, provider-independent chat request.
type Request struct {
	// System is the system prompt. Always sent first.
	System string

	// History is the prior conversation, oldest first. Only the last
	// MaxHistory entries are forwarded.
	History []Message

	// Message is the new user message.
	Message string

	// Timeout bounds a single provider call. Zero means the gateway default.
	Timeout time.Duration

	// Purpose labels the call for event logging, e.g. "chat" or "quiz-gen".
	Purpose string
}

// Conversation returns the trimmed history followed by the new user message.
func (r Request) Conversation() []Message {
	hist := r.History
	if len(hist) > MaxHistory {
		hist = hist[len(hist)-MaxHistory:]
	}
	out := make([]Message, 0, len(hist)+1)
	for _, m := range hist {
		if m.Role != RoleAssistant {
			m.Role = RoleUser
		}
		out = append(out, m)
	}
	out = append(out, Message{Role: RoleUser, Content: r.Message})
	return out
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Completion is the raw output of an adapter before sanitization.
type Completion struct {
	Text  string
	Model string
	Usage Usage
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Result is what the gateway hands back to callers. Exactly one of Content
// (on success) or ErrorKind (on failure) is meaningful.
type Result struct {
	Success      bool       `json:"success"`
	Content      string     `json:"content,omitempty"`
	Provider     ProviderID `json:"provider,omitempty"`
	Model        string     `json:"model,omitempty"`
	ErrorKind    ErrorKind  `json:"errorKind,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	Sanitized    bool       `json:"sanitized"`
	Attempts     []Attempt  `json:"attempts,omitempty"`
}

// Attempt records one adapter invocation. It never carries the key itself.
type Attempt struct {
	Provider  ProviderID `json:"provider"`
	KeyIndex  int        `json:"keyIndex"`
	ErrorKind ErrorKind  `json:"errorKind,omitempty"`
	Message   string     `json:"message,omitempty"`
	LatencyMs int64      `json:"latencyMs"`
}

// Succeeded reports whether this attempt produced the returned content.
func (a Attempt) Succeeded() bool { return a.ErrorKind == "" }
