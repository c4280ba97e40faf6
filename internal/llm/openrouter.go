package llm

// NewOpenRouterProvider creates an adapter targeting the OpenRouter API.
// OpenRouter exposes an OpenAI-compatible API, so the underlying SDK is reused.
func NewOpenRouterProvider(apiKey string, s ProviderSettings) (*OpenAICompatProvider, error) {
	if s.BaseURL == "" {
		s.BaseURL = defaultOpenRouterBaseURL
	}
	return newOpenAICompatProvider(ProviderOpenRouter, apiKey, s)
}
