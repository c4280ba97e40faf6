package llm

import "context"

// Purpose labels recorded on LLM request events.
const (
	PurposeChat    = "chat"
	PurposeQuizGen = "quiz-gen"
	PurposeAsk     = "cli-ask"
)

type ctxKey struct{}

// WithPurpose attaches a purpose label to the context. The gateway does this
// for every Request that carries a Purpose.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, ctxKey{}, purpose)
}

// PurposeFrom extracts the purpose label from the context.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok && v != "" {
		return v
	}
	return "unknown"
}
