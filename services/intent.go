package services

import (
	"context"
	"strings"
	"time"

	"movewell-assistant/internal/ai"
	"movewell-assistant/internal/logger"
	"movewell-assistant/internal/telemetry"
	"movewell-assistant/models"
	"movewell-assistant/utils"
)

// Intent is the closed label set the chat flow branches on.
type Intent string

const (
	IntentHandoff Intent = "handoff"
	IntentGeneral Intent = "general"
	IntentOther   Intent = "other"
)

// handoffKeywords trigger a handoff when the classifier model is unavailable.
var handoffKeywords = []string{
	"speak", "talk", "call", "consultant", "real person", "human", "live chat", "contact someone",
}

// withFallback runs primary and, if it fails, derives the value from the
// error with fallback. It is the only place a failed call is turned into a
// usable value.
func withFallback[T any](primary func() (T, error), fallback func(error) T) T {
	v, err := primary()
	if err != nil {
		return fallback(err)
	}
	return v
}

// ParseIntent normalises raw model output. Case, surrounding whitespace,
// quotes and trailing punctuation are ignored; anything outside the label set
// becomes IntentOther.
func ParseIntent(raw string) Intent {
	label := strings.ToLower(strings.TrimSpace(raw))
	label = strings.Trim(label, " \t\r\n'\"`.!,;:")
	switch Intent(label) {
	case IntentHandoff, IntentGeneral, IntentOther:
		return Intent(label)
	default:
		return IntentOther
	}
}

// KeywordIntent is the offline classifier: handoff when the message mentions
// a keyword, general otherwise.
func KeywordIntent(message string) Intent {
	lowered := strings.ToLower(message)
	for _, kw := range handoffKeywords {
		if strings.Contains(lowered, kw) {
			return IntentHandoff
		}
	}
	return IntentGeneral
}

// IntentClassifier labels a user message with a single model call and falls
// back to keyword matching when the provider fails.
type IntentClassifier struct {
	completer ai.Completer
	timeout   time.Duration
	metrics   *telemetry.Metrics
}

func NewIntentClassifier(completer ai.Completer, timeout time.Duration, metrics *telemetry.Metrics) *IntentClassifier {
	return &IntentClassifier{
		completer: completer,
		timeout:   timeout,
		metrics:   metrics,
	}
}

// Classify never fails.
func (ic *IntentClassifier) Classify(ctx context.Context, message string) Intent {
	fromModel := func() (Intent, error) {
		callCtx, cancel := utils.WithCustomTimeout(ctx, ic.timeout)
		defer cancel()

		raw, err := ic.completer.Complete(callCtx, []models.ChatMessage{
			models.SystemMessage(classifierSystemPrompt),
			models.UserMessage(classifierUserPrompt(message)),
		})
		if err != nil {
			return "", err
		}
		intent := ParseIntent(raw)
		ic.metrics.RecordIntent(ctx, string(intent), false)
		return intent, nil
	}

	fromKeywords := func(err error) Intent {
		kind := ai.KindOf(err)
		logger.Warn("Intent classification fell back to keywords", "error", err, "kind", string(kind))
		ic.metrics.RecordProviderFailure(ctx, "classify", string(kind))

		intent := KeywordIntent(message)
		ic.metrics.RecordIntent(ctx, string(intent), true)
		return intent
	}

	return withFallback(fromModel, fromKeywords)
}
