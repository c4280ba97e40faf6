package quiz

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/tutorgate/internal/llm"
	"github.com/abhisek/tutorgate/internal/logging"
)

// Gateway is the part of llm.Gateway the generator needs.
type Gateway interface {
	Call(ctx context.Context, req llm.Request, creds []llm.Credential) llm.Result
}

// GenerateInput describes one AI-generated batch.
type GenerateInput struct {
	Topic      string
	TopicKey   string
	Count      int
	Difficulty Difficulty
	Keys       []llm.Credential
}

// Generator produces quiz questions through the provider gateway.
type Generator struct {
	gateway Gateway
	timeout time.Duration
	log     *logging.Logger
	newID   func() string
}

// NewGenerator creates a Generator. timeout bounds each provider call.
func NewGenerator(gw Gateway, timeout time.Duration, log *logging.Logger) *Generator {
	if log == nil {
		log = logging.Nop()
	}
	return &Generator{
		gateway: gw,
		timeout: timeout,
		log:     log,
		newID:   func() string { return AIIDPrefix + uuid.NewString() },
	}
}

type generatedBatch struct {
	Questions []json.RawMessage `json:"questions"`
}

type generatedItem struct {
	QuestionText string   `json:"questionText"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Explanation  string   `json:"explanation"`
	Difficulty   string   `json:"difficulty"`
}

// Generate asks for in.Count questions. When the first batch comes back
// short, exactly one top-up request asks for the remainder. The returned
// slice may still hold fewer than in.Count questions; it is never empty on
// a nil error.
func (g *Generator) Generate(ctx context.Context, in GenerateInput) ([]Question, error) {
	if in.Count <= 0 {
		return nil, nil
	}

	seen := make(map[string]bool)
	var out []Question

	first, err := g.batch(ctx, in, in.Count, nil, seen)
	if err != nil {
		return nil, err
	}
	out = append(out, first...)

	if missing := in.Count - len(out); missing > 0 {
		prior := make([]string, len(out))
		for i, q := range out {
			prior[i] = q.Text
		}
		more, err := g.batch(ctx, in, missing, prior, seen)
		if err != nil {
			// The first batch stands on its own.
			g.log.Warn("quiz top-up failed", "topic", in.TopicKey, "have", len(out), "want", in.Count, "error", err)
		}
		out = append(out, more...)
	}

	if len(out) == 0 {
		return nil, &GenerationError{
			Kind:    llm.KindUnknown,
			Message: "The AI provider returned no usable questions. Try again or use the question bank.",
		}
	}
	if len(out) > in.Count {
		out = out[:in.Count]
	}
	return out, nil
}

// batch runs one gateway call and returns the usable questions. A failed
// call is a GenerationError; unusable items are dropped silently.
func (g *Generator) batch(ctx context.Context, in GenerateInput, count int, prior []string, seen map[string]bool) ([]Question, error) {
	res := g.gateway.Call(ctx, llm.Request{
		System:  generatorSystemPrompt,
		Message: buildGeneratorMessage(in.Topic, count, in.Difficulty, prior),
		Timeout: g.timeout,
		Purpose: llm.PurposeQuizGen,
	}, in.Keys)
	if !res.Success {
		return nil, &GenerationError{Kind: res.ErrorKind, Message: res.ErrorMessage}
	}

	var b generatedBatch
	if err := llm.DecodeJSON(quizBatchSchema, res.Content, &b); err != nil {
		g.log.Warn("quiz batch rejected", "topic", in.TopicKey, "provider", res.Provider, "error", err)
		return nil, nil
	}

	var out []Question
	dropped := 0
	for _, raw := range b.Questions {
		q, ok := g.parseItem(raw, in.TopicKey)
		if !ok {
			dropped++
			continue
		}
		norm := strings.ToLower(strings.Join(strings.Fields(q.Text), " "))
		if seen[norm] {
			dropped++
			continue
		}
		seen[norm] = true
		out = append(out, q)
	}
	if dropped > 0 {
		g.log.Debug("dropped generated questions", "topic", in.TopicKey, "dropped", dropped, "kept", len(out))
	}
	return out, nil
}

func (g *Generator) parseItem(raw json.RawMessage, topicKey string) (Question, bool) {
	if err := llm.ValidateJSON(quizItemSchema, raw); err != nil {
		return Question{}, false
	}
	var it generatedItem
	if err := json.Unmarshal(raw, &it); err != nil {
		return Question{}, false
	}
	q := Question{
		ID:           g.newID(),
		TopicKey:     topicKey,
		Difficulty:   Difficulty(it.Difficulty),
		Text:         strings.TrimSpace(it.QuestionText),
		Options:      it.Options,
		CorrectIndex: it.CorrectIndex,
		Explanation:  strings.TrimSpace(it.Explanation),
	}
	if q.Validate() != nil {
		return Question{}, false
	}
	return q, true
}
