package tutor

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tutorgate/internal/keyvault"
	"github.com/abhisek/tutorgate/internal/llm"
)

var (
	geminiKey = "AIzaSyD" + strings.Repeat("a", 32)
	groqKey   = "gsk_" + strings.Repeat("b", 32)
)

func newTestService(t *testing.T, mocks ...*llm.MockProvider) (*Service, *keyvault.Vault) {
	t.Helper()
	reg := llm.Registry{}
	for _, m := range mocks {
		reg[m.ID()] = m.Factory()
	}
	vault, err := keyvault.New(keyvault.Config{Secret: []byte("s")}, nil)
	require.NoError(t, err)
	return NewService(llm.NewGateway(reg, time.Second, nil), vault, time.Second, nil), vault
}

func TestSystemPrompt(t *testing.T) {
	p := SystemPrompt("cs101", "Linked Lists")
	assert.Contains(t, p, `"Linked Lists"`)
	assert.Contains(t, p, `"cs101"`)
	assert.Contains(t, p, "Never output HTML")

	assert.Equal(t, persona, SystemPrompt("", " "))
}

func TestAsk_UsesSuppliedKeys(t *testing.T) {
	gemini := llm.NewMockProvider(llm.ProviderGemini, llm.MockResponse{Text: "Arrays are contiguous."})
	svc, _ := newTestService(t, gemini)

	res, err := svc.Ask(context.Background(), "", AskInput{
		Topic:   "Arrays",
		Message: "  what is an array? ",
		Keys:    []llm.Credential{{Key: geminiKey}},
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, "Arrays are contiguous.", res.Content)

	require.Equal(t, 1, gemini.CallCount())
	req := gemini.Calls[0]
	assert.Equal(t, "what is an array?", req.Message)
	assert.Equal(t, llm.PurposeChat, req.Purpose)
	assert.Contains(t, req.System, "Arrays")
}

func TestAsk_FallsBackToVault(t *testing.T) {
	groq := llm.NewMockProvider(llm.ProviderGroq, llm.MockResponse{Text: "from vault key"})
	svc, vault := newTestService(t, groq)
	_, err := vault.Put("sess", []llm.Credential{{Key: groqKey}})
	require.NoError(t, err)

	res, err := svc.Ask(context.Background(), "sess", AskInput{Message: "hi"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{groqKey}, groq.Keys)
}

func TestAsk_VaultDropsFailingKey(t *testing.T) {
	fail := llm.MockResponse{Err: &llm.ProviderError{Provider: llm.ProviderGroq, Status: 429}}
	groq := llm.NewMockProvider(llm.ProviderGroq, fail, fail, fail)
	svc, vault := newTestService(t, groq)
	_, err := vault.Put("sess", []llm.Credential{{Key: groqKey}})
	require.NoError(t, err)

	for i := 0; i < keyvault.DefaultMaxFailures; i++ {
		res, err := svc.Ask(context.Background(), "sess", AskInput{Message: "hi"})
		require.NoError(t, err)
		assert.False(t, res.Success)
	}

	keys, err := vault.Keys("sess")
	require.NoError(t, err)
	assert.Empty(t, keys)

	res, err := svc.Ask(context.Background(), "sess", AskInput{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, llm.KindInvalidKey, res.ErrorKind, "no keys left means no valid keys")
}

func TestAsk_Validation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Ask(context.Background(), "", AskInput{Message: "   "})
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = svc.Ask(context.Background(), "", AskInput{Message: strings.Repeat("x", MaxMessageLength+1)})
	assert.ErrorIs(t, err, ErrMessageTooLong)
}
