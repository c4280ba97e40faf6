package llm

// NewCerebrasProvider creates an adapter for the Cerebras inference API.
func NewCerebrasProvider(apiKey string, s ProviderSettings) (*OpenAICompatProvider, error) {
	if s.BaseURL == "" {
		s.BaseURL = defaultCerebrasBaseURL
	}
	return newOpenAICompatProvider(ProviderCerebras, apiKey, s)
}
