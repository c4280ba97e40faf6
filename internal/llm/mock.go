package llm

import (
	"context"
	"errors"
	"sync"
)

// MockResponse is a canned response for the MockProvider.
type MockResponse struct {
	Text  string
	Usage Usage
	Err   error
	// Delay holds the response back, honouring context cancellation.
	Delay func(ctx context.Context) error
}

// ErrMockExhausted is returned once a MockProvider has no canned responses left.
var ErrMockExhausted = errors.New("mock provider: no canned responses left")

// MockProvider is a deterministic Provider for testing.
// It returns canned responses in FIFO order and records all requests.
type MockProvider struct {
	id ProviderID

	mu        sync.Mutex
	responses []MockResponse
	Calls     []Request
	Keys      []string
}

// NewMockProvider creates a MockProvider with the given canned responses.
func NewMockProvider(id ProviderID, responses ...MockResponse) *MockProvider {
	return &MockProvider{id: id, responses: responses}
}

// Factory returns a Factory that hands out this mock for every key and
// records which key it was built for.
func (m *MockProvider) Factory() Factory {
	return func(_ context.Context, key string) (Provider, error) {
		m.mu.Lock()
		m.Keys = append(m.Keys, key)
		m.mu.Unlock()
		return m, nil
	}
}

// Generate returns the next canned response or ErrMockExhausted if the
// queue is empty.
func (m *MockProvider) Generate(ctx context.Context, req Request) (*Completion, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	if len(m.responses) == 0 {
		m.mu.Unlock()
		return nil, ErrMockExhausted
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	m.mu.Unlock()

	if resp.Delay != nil {
		if err := resp.Delay(ctx); err != nil {
			return nil, err
		}
	}
	if resp.Err != nil {
		return nil, resp.Err
	}

	return &Completion{
		Text:  resp.Text,
		Usage: resp.Usage,
		Model: "mock",
	}, nil
}

func (m *MockProvider) ID() ProviderID { return m.id }

// ModelID returns "mock".
func (m *MockProvider) ModelID() string {
	return "mock"
}

// AddResponse appends a canned response to the queue.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns the number of Generate calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// BlockUntilDone is a Delay that waits for the context to end.
func BlockUntilDone(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}
