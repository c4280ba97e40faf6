package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/tutorgate/internal/logging"
)

// DefaultTimeout bounds a provider call when neither the request nor the
// gateway sets one.
const DefaultTimeout = 30 * time.Second

// Gateway walks the fixed provider priority order with the caller's keys and
// returns the first successful, sanitized answer.
type Gateway struct {
	registry Registry
	timeout  time.Duration
	log      *logging.Logger
}

// NewGateway creates a Gateway. A zero timeout selects DefaultTimeout and a
// nil logger discards output.
func NewGateway(registry Registry, timeout time.Duration, log *logging.Logger) *Gateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Gateway{registry: registry, timeout: timeout, log: log}
}

// Call sends req using creds. Calls are strictly sequential: providers in
// PriorityOrder, and within a provider the keys in the order supplied.
// A rejected key skips the rest of that provider's keys; any other failure
// moves on to the next key. Failures never surface as Go errors.
func (g *Gateway) Call(ctx context.Context, req Request, creds []Credential) Result {
	groups := groupValid(creds)
	if len(groups) == 0 {
		return Result{
			Provider:     ProviderUnknown,
			ErrorKind:    KindInvalidKey,
			ErrorMessage: msgNoValidKeys,
		}
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = g.timeout
	}
	if req.Purpose != "" {
		ctx = WithPurpose(ctx, req.Purpose)
	}

	var attempts []Attempt
	last := ProviderUnknown

	for _, id := range PriorityOrder {
		keys := groups[id]
		if len(keys) == 0 {
			continue
		}
		factory, ok := g.registry[id]
		if !ok {
			g.log.Warn("no adapter registered", "provider", id)
			continue
		}
		last = id

		for _, cred := range keys {
			start := time.Now()
			comp, err := invoke(ctx, factory, cred.Key, req, timeout)
			att := Attempt{
				Provider:  id,
				KeyIndex:  cred.index,
				LatencyMs: time.Since(start).Milliseconds(),
			}

			if err == nil {
				attempts = append(attempts, att)
				content, sanitized := Sanitize(comp.Text)
				if sanitized {
					g.log.Info("model output sanitized", "provider", id, "purpose", req.Purpose)
				}
				return Result{
					Success:   true,
					Content:   content,
					Provider:  id,
					Model:     comp.Model,
					Sanitized: sanitized,
					Attempts:  attempts,
				}
			}

			kind := Classify(err)
			att.ErrorKind = kind
			att.Message = CallerMessage(kind, id)
			attempts = append(attempts, att)

			g.log.Warn("provider call failed",
				"provider", id,
				"index", cred.index,
				"kind", kind,
				"latency_ms", att.LatencyMs,
				"error", Redact(err.Error(), cred.Key),
			)

			// The caller gave up; no other key or provider is tried.
			if cerr := ctx.Err(); cerr != nil {
				res := Result{
					Provider:     id,
					ErrorKind:    KindTimeout,
					ErrorMessage: CallerMessage(KindTimeout, id),
					Attempts:     attempts,
				}
				if errors.Is(cerr, context.Canceled) {
					res.ErrorKind = KindUnknown
					res.ErrorMessage = msgCancelled
				}
				return res
			}
			if kind.Permanent() {
				break
			}
		}
	}

	return Result{
		Provider:     last,
		ErrorKind:    KindUnknown,
		ErrorMessage: msgExhausted,
		Attempts:     attempts,
	}
}

type invokeResult struct {
	comp *Completion
	err  error
}

// invoke builds the adapter for key and races its call against timeout.
func invoke(ctx context.Context, factory Factory, key string, req Request, timeout time.Duration) (*Completion, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan invokeResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- invokeResult{err: fmt.Errorf("adapter panic: %v", r)}
			}
		}()
		p, err := factory(ctx, key)
		if err != nil {
			done <- invokeResult{err: err}
			return
		}
		comp, err := p.Generate(ctx, req)
		done <- invokeResult{comp: comp, err: err}
	}()

	select {
	case r := <-done:
		if r.err == nil && r.comp == nil {
			return nil, fmt.Errorf("adapter returned no completion")
		}
		return r.comp, r.err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrTimeout
		}
		return nil, ctx.Err()
	}
}
