package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"movewell-assistant/internal/ai"
	"movewell-assistant/internal/logger"
	"movewell-assistant/internal/telemetry"
	"movewell-assistant/models"
	"movewell-assistant/utils"
)

// Replies shown instead of a model answer. They are the only strings
// Respond returns when the provider fails.
const (
	RateLimitedReply     = "We're handling a high volume of requests right now. Please try again in a moment."
	ProviderErrorReply   = "Hmm, something went wrong while reaching our assistant. Please try again shortly."
	UnexpectedErrorReply = "Oops, an unexpected error occurred. Please try again or contact support."
)

// Responder forwards a bounded conversation window to the completion
// provider and always returns display-ready text.
type Responder struct {
	completer ai.Completer
	window    int
	timeout   time.Duration
	metrics   *telemetry.Metrics
}

func NewResponder(completer ai.Completer, window int, timeout time.Duration, metrics *telemetry.Metrics) *Responder {
	return &Responder{
		completer: completer,
		window:    window,
		timeout:   timeout,
		metrics:   metrics,
	}
}

// BuildWindow assembles the outbound message list: every system message of
// history, then the last n non-system messages of history, then newMessages.
// Older non-system messages are dropped. history is not modified.
func BuildWindow(history []models.ChatMessage, n int, newMessages []models.ChatMessage) []models.ChatMessage {
	var system, recent []models.ChatMessage
	for _, m := range history {
		if m.Role == models.RoleSystem {
			system = append(system, m)
		} else {
			recent = append(recent, m)
		}
	}
	if n < 0 {
		n = 0
	}
	if len(recent) > n {
		recent = recent[len(recent)-n:]
	}

	out := make([]models.ChatMessage, 0, len(system)+len(recent)+len(newMessages))
	out = append(out, system...)
	out = append(out, recent...)
	out = append(out, newMessages...)
	return out
}

// FallbackReply maps a provider failure to its user-facing text.
func FallbackReply(err error) string {
	switch ai.KindOf(err) {
	case ai.KindRateLimited:
		return RateLimitedReply
	case ai.KindProvider:
		return ProviderErrorReply
	default:
		return UnexpectedErrorReply
	}
}

// Respond answers newMessages in the context of history. It never panics and
// never returns an error; failures become one of the fixed replies above.
func (r *Responder) Respond(ctx context.Context, history, newMessages []models.ChatMessage) (reply string) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("Responder recovered from panic", "panic", fmt.Sprint(rec))
			r.metrics.RecordProviderFailure(ctx, "complete", string(ai.KindUnexpected))
			reply = UnexpectedErrorReply
		}
	}()

	messages := BuildWindow(history, r.window, newMessages)

	complete := func() (string, error) {
		callCtx, cancel := utils.WithCustomTimeout(ctx, r.timeout)
		defer cancel()

		text, err := r.completer.Complete(callCtx, messages)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(text) == "" {
			return "", &ai.ProviderError{Op: "complete", Err: fmt.Errorf("empty reply")}
		}
		return text, nil
	}

	degrade := func(err error) string {
		kind := ai.KindOf(err)
		if kind == ai.KindRateLimited {
			logger.Warn("Completion rate limited", "error", err)
		} else {
			logger.Error("Completion failed", "error", err, "kind", string(kind))
		}
		r.metrics.RecordProviderFailure(ctx, "complete", string(kind))
		return FallbackReply(err)
	}

	return withFallback(complete, degrade)
}
