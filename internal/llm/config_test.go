package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Valid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Groq.BaseURL = ""
	assert.ErrorContains(t, cfg.Validate(), "groq base URL")

	cfg = DefaultConfig()
	cfg.Cerebras.Model = ""
	assert.ErrorContains(t, cfg.Validate(), "cerebras model")

	cfg = DefaultConfig()
	cfg.QuizTimeout = 0
	assert.Error(t, cfg.Validate())
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("TUTOR_GROQ_MODEL", "llama-3.1-8b-instant")
	t.Setenv("TUTOR_OPENROUTER_BASE_URL", "http://localhost:9999/v1")
	t.Setenv("TUTOR_CHAT_TIMEOUT", "10s")
	t.Setenv("TUTOR_QUIZ_TIMEOUT", "garbage")

	cfg := ConfigFromEnv()

	assert.Equal(t, "llama-3.1-8b-instant", cfg.Groq.Model)
	assert.Equal(t, "http://localhost:9999/v1", cfg.OpenRouter.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.ChatTimeout)
	assert.Equal(t, 45*time.Second, cfg.QuizTimeout, "unparseable values keep the default")
}

func TestCredentialsFromEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("CEREBRAS_API_KEY", "")
	t.Setenv("GROQ_API_KEY", testGroqKey+", "+testGroqKey2)
	t.Setenv("OPENROUTER_API_KEY", testOpenRouterKey)

	creds := CredentialsFromEnv()

	require.Len(t, creds, 3)
	assert.Equal(t, Credential{Key: testGroqKey, Provider: ProviderGroq}, creds[0])
	assert.Equal(t, Credential{Key: testGroqKey2, Provider: ProviderGroq}, creds[1])
	assert.Equal(t, ProviderOpenRouter, creds[2].Provider)
}
