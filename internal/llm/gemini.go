package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// geminiModels maps friendly names to Gemini model IDs.
var geminiModels = map[string]string{
	"gemini-flash": "gemini-2.0-flash",
	"gemini-pro":   "gemini-2.5-pro",
}

// GeminiProvider implements Provider using the Google Gemini SDK.
type GeminiProvider struct {
	client   *genai.Client
	model    string
	settings ProviderSettings
}

// NewGeminiProvider creates a Gemini adapter bound to one API key.
func NewGeminiProvider(ctx context.Context, apiKey string, s ProviderSettings) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if s.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: s.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client:   client,
		model:    resolveModel(s.Model, geminiModels),
		settings: s,
	}, nil
}

func (p *GeminiProvider) Generate(ctx context.Context, req Request) (*Completion, error) {
	temp := p.settings.Temperature
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(p.settings.MaxTokens),
		Temperature:     &temp,
	}

	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}

	contents := buildGeminiContents(req.Conversation())

	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return nil, mapGeminiError(err)
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return nil, &ProviderError{Provider: ProviderGemini, Message: "empty response from model"}
	}

	out := &Completion{Text: text, Model: p.model}
	if result.UsageMetadata != nil {
		out.Usage = Usage{
			InputTokens:  int(result.UsageMetadata.PromptTokenCount),
			OutputTokens: int(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int(result.UsageMetadata.TotalTokenCount),
		}
	}
	return out, nil
}

func (p *GeminiProvider) ID() ProviderID { return ProviderGemini }

func (p *GeminiProvider) ModelID() string {
	return p.model
}

func buildGeminiContents(msgs []Message) []*genai.Content {
	out := make([]*genai.Content, len(msgs))
	for i, m := range msgs {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		out[i] = &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		}
	}
	return out
}

func mapGeminiError(err error) error {
	code, status, msg, ok := geminiAPIError(err)
	if !ok {
		return err
	}

	pe := &ProviderError{Provider: ProviderGemini, Status: code, Message: msg, Err: err}
	lower := strings.ToLower(msg)
	switch {
	// Gemini reports a bad key as 400 INVALID_ARGUMENT.
	case code == http.StatusBadRequest && strings.Contains(lower, "api key"):
		pe.Kind = KindInvalidKey
	case code == http.StatusNotFound && strings.Contains(lower, "model"):
		pe.Kind = KindUnsupportedModel
	case code == http.StatusTooManyRequests && status == "RESOURCE_EXHAUSTED":
		pe.Kind = KindQuotaExceeded
	}
	return pe
}

// geminiAPIError extracts the server error. The SDK returns APIError by
// value; the pointer form is accepted too.
func geminiAPIError(err error) (code int, status, msg string, ok bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, apiErr.Status, apiErr.Message, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, apiErrPtr.Status, apiErrPtr.Message, true
	}
	return 0, "", "", false
}

// resolveModel maps a friendly model name to a provider model ID.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	// If not in the map, use as-is (allows direct model IDs).
	return name
}
