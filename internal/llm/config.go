package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all gateway and adapter configuration.
type Config struct {
	Gemini     ProviderSettings
	Groq       ProviderSettings
	Cerebras   ProviderSettings
	OpenRouter ProviderSettings

	// ChatTimeout bounds a single provider call for tutoring chat. Default: 30s.
	ChatTimeout time.Duration

	// QuizTimeout bounds a single provider call for quiz generation. Default: 45s.
	QuizTimeout time.Duration
}

// ProviderSettings configures one adapter. Sampling parameters are fixed
// per provider to keep the tutoring tone consistent.
type ProviderSettings struct {
	Model       string
	BaseURL     string // Optional for gemini. Required for OpenAI-compatible providers.
	Temperature float32
	MaxTokens   int
}

const (
	defaultGroqBaseURL       = "https://api.groq.com/openai/v1"
	defaultCerebrasBaseURL   = "https://api.cerebras.ai/v1"
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Gemini: ProviderSettings{
			Model:       "gemini-flash",
			Temperature: 0.7,
			MaxTokens:   2048,
		},
		Groq: ProviderSettings{
			Model:       "llama-3.3-70b-versatile",
			BaseURL:     defaultGroqBaseURL,
			Temperature: 0.7,
			MaxTokens:   2048,
		},
		Cerebras: ProviderSettings{
			Model:       "llama-3.3-70b",
			BaseURL:     defaultCerebrasBaseURL,
			Temperature: 0.7,
			MaxTokens:   2048,
		},
		OpenRouter: ProviderSettings{
			Model:       "meta-llama/llama-3.3-70b-instruct:free",
			BaseURL:     defaultOpenRouterBaseURL,
			Temperature: 0.7,
			MaxTokens:   2048,
		},
		ChatTimeout: 30 * time.Second,
		QuizTimeout: 45 * time.Second,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	envSettings("GEMINI", &cfg.Gemini)
	envSettings("GROQ", &cfg.Groq)
	envSettings("CEREBRAS", &cfg.Cerebras)
	envSettings("OPENROUTER", &cfg.OpenRouter)

	if d, ok := envDuration("TUTOR_CHAT_TIMEOUT"); ok {
		cfg.ChatTimeout = d
	}
	if d, ok := envDuration("TUTOR_QUIZ_TIMEOUT"); ok {
		cfg.QuizTimeout = d
	}
	return cfg
}

func envSettings(prefix string, s *ProviderSettings) {
	if m := os.Getenv("TUTOR_" + prefix + "_MODEL"); m != "" {
		s.Model = m
	}
	if u := os.Getenv("TUTOR_" + prefix + "_BASE_URL"); u != "" {
		s.BaseURL = u
	}
}

func envDuration(name string) (time.Duration, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}

// Settings returns the adapter settings for a provider.
func (c Config) Settings(p ProviderID) (ProviderSettings, bool) {
	switch p {
	case ProviderGemini:
		return c.Gemini, true
	case ProviderGroq:
		return c.Groq, true
	case ProviderCerebras:
		return c.Cerebras, true
	case ProviderOpenRouter:
		return c.OpenRouter, true
	}
	return ProviderSettings{}, false
}

// Validate checks that every provider has a model and that the
// OpenAI-compatible providers have an endpoint.
func (c Config) Validate() error {
	for _, p := range PriorityOrder {
		s, _ := c.Settings(p)
		if s.Model == "" {
			return fmt.Errorf("%s model is required", p)
		}
		if s.MaxTokens <= 0 {
			return fmt.Errorf("%s max tokens must be positive", p)
		}
		if p != ProviderGemini && s.BaseURL == "" {
			return fmt.Errorf("%s base URL is required", p)
		}
	}
	if c.ChatTimeout <= 0 || c.QuizTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}

// CredentialsFromEnv collects provider keys from the standard vendor
// environment variables, in priority order.
func CredentialsFromEnv() []Credential {
	vars := map[ProviderID]string{
		ProviderGemini:     "GEMINI_API_KEY",
		ProviderGroq:       "GROQ_API_KEY",
		ProviderCerebras:   "CEREBRAS_API_KEY",
		ProviderOpenRouter: "OPENROUTER_API_KEY",
	}
	var creds []Credential
	for _, p := range PriorityOrder {
		for _, k := range strings.Split(os.Getenv(vars[p]), ",") {
			if k = strings.TrimSpace(k); k != "" {
				creds = append(creds, Credential{Key: k, Provider: p})
			}
		}
	}
	return creds
}
