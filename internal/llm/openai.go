package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAICompatProvider implements Provider for vendors that expose an
// OpenAI-compatible chat completions API (Groq, Cerebras, OpenRouter).
type OpenAICompatProvider struct {
	id       ProviderID
	client   *openai.Client
	model    string
	settings ProviderSettings
}

// newOpenAICompatProvider creates an adapter for one key against the
// endpoint in s.BaseURL.
func newOpenAICompatProvider(id ProviderID, apiKey string, s ProviderSettings) (*OpenAICompatProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s API key is required", id)
	}
	if s.BaseURL == "" {
		return nil, fmt.Errorf("%s base URL is required", id)
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = s.BaseURL

	return &OpenAICompatProvider{
		id:       id,
		client:   openai.NewClientWithConfig(config),
		model:    s.Model,
		settings: s,
	}, nil
}

func (p *OpenAICompatProvider) Generate(ctx context.Context, req Request) (*Completion, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    buildOpenAIMessages(req),
		MaxTokens:   p.settings.MaxTokens,
		Temperature: p.settings.Temperature,
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, mapOpenAIError(p.id, err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, &ProviderError{Provider: p.id, Message: "no content in completion response"}
	}

	model := resp.Model
	if model == "" {
		model = p.model
	}

	return &Completion{
		Text:  resp.Choices[0].Message.Content,
		Model: model,
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
	}, nil
}

func (p *OpenAICompatProvider) ID() ProviderID { return p.id }

func (p *OpenAICompatProvider) ModelID() string {
	return p.model
}

func buildOpenAIMessages(req Request) []openai.ChatCompletionMessage {
	var messages []openai.ChatCompletionMessage

	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}

	for _, m := range req.Conversation() {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		})
	}

	return messages
}

// openAIErrorKinds maps vendor error codes that identify the category
// unambiguously.
var openAIErrorKinds = map[string]ErrorKind{
	"invalid_api_key":     KindInvalidKey,
	"rate_limit_exceeded": KindRateLimit,
	"insufficient_quota":  KindQuotaExceeded,
	"model_not_found":     KindUnsupportedModel,
}

func mapOpenAIError(id ProviderID, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		pe := &ProviderError{
			Provider: id,
			Status:   apiErr.HTTPStatusCode,
			Message:  apiErr.Message,
			Err:      err,
		}
		if apiErr.Code != nil {
			pe.Kind = openAIErrorKinds[fmt.Sprint(apiErr.Code)]
		}
		return pe
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &ProviderError{
			Provider: id,
			Status:   reqErr.HTTPStatusCode,
			Err:      err,
		}
	}

	return err
}
