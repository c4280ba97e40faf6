package llm

// NewGroqProvider creates an adapter for Groq's OpenAI-compatible endpoint.
func NewGroqProvider(apiKey string, s ProviderSettings) (*OpenAICompatProvider, error) {
	if s.BaseURL == "" {
		s.BaseURL = defaultGroqBaseURL
	}
	return newOpenAICompatProvider(ProviderGroq, apiKey, s)
}
