package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// ErrorKind is the closed taxonomy every provider failure is mapped onto.
type ErrorKind string

const (
	KindInvalidKey        ErrorKind = "INVALID_KEY"
	KindQuotaExceeded     ErrorKind = "QUOTA_EXCEEDED"
	KindRateLimit         ErrorKind = "RATE_LIMIT"
	KindTimeout           ErrorKind = "TIMEOUT"
	KindNetworkError      ErrorKind = "NETWORK_ERROR"
	KindUnsupportedModel  ErrorKind = "UNSUPPORTED_MODEL"
	KindInvalidRequest    ErrorKind = "INVALID_REQUEST"
	KindConcurrentRequest ErrorKind = "CONCURRENT_REQUEST"
	KindUnknown           ErrorKind = "UNKNOWN_ERROR"
)

// Permanent reports whether retrying the same provider with another key is
// pointless. Only a rejected key stops the walk over a provider's keys.
func (k ErrorKind) Permanent() bool {
	return k == KindInvalidKey
}

// ErrTimeout is returned when a provider call loses the race against its
// per-call deadline.
var ErrTimeout = errors.New("provider call timed out")

// ProviderError is a vendor failure normalized by an adapter. Status is the
// HTTP status when one was observed. Kind is set only when the adapter could
// tell the category from a vendor error code.
type ProviderError struct {
	Provider ProviderID
	Status   int
	Kind     ErrorKind
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s", e.Provider, msg)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Classify maps a raw provider failure onto the taxonomy.
// First match wins: timeout, network, adapter-assigned kind, then HTTP
// status and message heuristics.
func Classify(err error) ErrorKind {
	if err == nil {
		return ""
	}

	if isTimeout(err) {
		return KindTimeout
	}
	if isNetwork(err) {
		return KindNetworkError
	}

	var status int
	var pe *ProviderError
	if errors.As(err, &pe) {
		if pe.Kind != "" {
			return pe.Kind
		}
		status = pe.Status
	}
	msg := strings.ToLower(err.Error())

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden ||
		strings.Contains(msg, "invalid") || strings.Contains(msg, "unauthorized"):
		return KindInvalidKey
	case status == http.StatusTooManyRequests ||
		strings.Contains(msg, "rate limit") || strings.Contains(msg, "quota"):
		return KindQuotaExceeded
	case status == http.StatusBadRequest ||
		strings.Contains(msg, "model") || strings.Contains(msg, "not found"):
		return KindInvalidRequest
	case status == http.StatusConflict || strings.Contains(msg, "concurrent"):
		return KindConcurrentRequest
	}
	return KindUnknown
}

func isTimeout(err error) bool {
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isNetwork(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}

// CallerMessage is the actionable, key-free message shown for a failed call.
func CallerMessage(kind ErrorKind, provider ProviderID) string {
	name := provider.DisplayName()
	switch kind {
	case KindInvalidKey:
		return fmt.Sprintf("%s rejected the API key. Check the key in settings.", name)
	case KindQuotaExceeded:
		return fmt.Sprintf("%s quota is exhausted for this key. Try another key or wait for the quota to reset.", name)
	case KindRateLimit:
		return fmt.Sprintf("%s is rate limiting this key. Wait a moment and try again.", name)
	case KindTimeout:
		return fmt.Sprintf("%s did not answer in time.", name)
	case KindNetworkError:
		return fmt.Sprintf("Could not reach %s.", name)
	case KindUnsupportedModel:
		return fmt.Sprintf("%s does not offer the configured model.", name)
	case KindInvalidRequest:
		return fmt.Sprintf("%s refused the request.", name)
	case KindConcurrentRequest:
		return fmt.Sprintf("%s is already handling a request for this key.", name)
	}
	return fmt.Sprintf("%s failed with an unexpected error.", name)
}

// Caller-facing messages for the gateway-level outcomes.
const (
	msgNoValidKeys = "No valid API key was supplied. Add a Gemini, Groq, Cerebras or OpenRouter key and try again."
	msgExhausted   = "All AI providers failed. Check your API keys and quota, then try again."
	msgCancelled   = "The request was cancelled before a provider answered."
)
