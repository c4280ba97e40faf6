package llm

import (
	"context"

	"github.com/abhisek/tutorgate/internal/store"
)

// Factory builds an adapter bound to one API key.
type Factory func(ctx context.Context, apiKey string) (Provider, error)

// Registry is the lookup table from provider to adapter factory.
type Registry map[ProviderID]Factory

// DefaultRegistry returns factories for every supported provider using the
// adapter settings in cfg. When events is non-nil every adapter is wrapped
// so each call is recorded as an LLM request event.
func DefaultRegistry(cfg Config, events store.EventRepo) Registry {
	reg := Registry{
		ProviderGemini: func(ctx context.Context, key string) (Provider, error) {
			p, err := NewGeminiProvider(ctx, key, cfg.Gemini)
			if err != nil {
				return nil, err
			}
			return p, nil
		},
		ProviderGroq:       openAICompatFactory(NewGroqProvider, cfg.Groq),
		ProviderCerebras:   openAICompatFactory(NewCerebrasProvider, cfg.Cerebras),
		ProviderOpenRouter: openAICompatFactory(NewOpenRouterProvider, cfg.OpenRouter),
	}
	if events != nil {
		reg = reg.WithLogging(events)
	}
	return reg
}

func openAICompatFactory(
	build func(string, ProviderSettings) (*OpenAICompatProvider, error),
	s ProviderSettings,
) Factory {
	return func(_ context.Context, key string) (Provider, error) {
		p, err := build(key, s)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

// WithLogging returns a copy of r whose adapters record every call in repo.
func (r Registry) WithLogging(repo store.EventRepo) Registry {
	out := make(Registry, len(r))
	for id, f := range r {
		f := f
		out[id] = func(ctx context.Context, key string) (Provider, error) {
			p, err := f(ctx, key)
			if err != nil {
				return nil, err
			}
			return WithLogging(p, repo), nil
		}
	}
	return out
}
