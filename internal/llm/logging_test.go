package llm

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tutorgate/internal/store"
)

type recordingEventRepo struct {
	mu     sync.Mutex
	events []store.LLMRequestEventData
}

func (r *recordingEventRepo) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, data)
	return nil
}

func TestLoggingProvider_RecordsSuccess(t *testing.T) {
	repo := &recordingEventRepo{}
	p := WithLogging(NewMockProvider(ProviderCerebras, MockResponse{
		Text:  "answer",
		Usage: Usage{InputTokens: 12, OutputTokens: 7},
	}), repo)

	ctx := WithPurpose(context.Background(), PurposeChat)
	_, err := p.Generate(ctx, Request{System: "sys", Message: "question"})
	require.NoError(t, err)

	require.Len(t, repo.events, 1)
	e := repo.events[0]
	assert.Equal(t, "cerebras", e.Provider)
	assert.Equal(t, "mock", e.Model)
	assert.Equal(t, PurposeChat, e.Purpose)
	assert.True(t, e.Success)
	assert.Equal(t, 12, e.InputTokens)
	assert.Contains(t, e.RequestBody, "[system]\nsys")
	assert.Contains(t, e.RequestBody, "[user]\nquestion")
	assert.Equal(t, "answer", e.ResponseBody)
}

func TestLoggingProvider_RecordsClassifiedFailure(t *testing.T) {
	repo := &recordingEventRepo{}
	p := WithLogging(NewMockProvider(ProviderGroq, MockResponse{
		Err: &ProviderError{Provider: ProviderGroq, Status: 401, Message: "bad key " + testGroqKey},
	}), repo)

	_, err := p.Generate(context.Background(), Request{Message: "q"})
	require.Error(t, err)

	require.Len(t, repo.events, 1)
	e := repo.events[0]
	assert.False(t, e.Success)
	assert.Equal(t, string(KindInvalidKey), e.ErrorKind)
	assert.NotContains(t, e.ErrorMessage, testGroqKey)
	assert.Equal(t, "unknown", e.Purpose)
}

func TestRegistryWithLogging(t *testing.T) {
	repo := &recordingEventRepo{}
	mock := NewMockProvider(ProviderGemini, MockResponse{Text: "ok"})
	gw := NewGateway(Registry{ProviderGemini: mock.Factory()}.WithLogging(repo), 0, nil)

	res := gw.Call(context.Background(), Request{Message: "hi", Purpose: PurposeAsk}, []Credential{{Key: testGeminiKey}})

	require.True(t, res.Success)
	require.Len(t, repo.events, 1)
	assert.Equal(t, PurposeAsk, repo.events[0].Purpose)
}

func TestDefaultRegistry_CoversPriorityOrder(t *testing.T) {
	reg := DefaultRegistry(DefaultConfig(), nil)
	for _, id := range PriorityOrder {
		if _, ok := reg[id]; !ok {
			t.Errorf("no factory for %s", id)
		}
	}
}
