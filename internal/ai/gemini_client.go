package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"movewell-assistant/internal/config"
	"movewell-assistant/internal/logger"
	"movewell-assistant/internal/telemetry"
	"movewell-assistant/models"

	genai "github.com/google/generative-ai-go/genai"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
)

// GeminiClient is the Embedder and Completer backed by the Gemini API.
type GeminiClient struct {
	client         *genai.Client
	breaker        *gobreaker.CircuitBreaker
	rateLimiter    *rate.Limiter
	chatModel      string
	embeddingModel string
	temperature    float32
}

// RateLimits holds the per-tier request budget enforced before each call.
type RateLimits struct {
	RPM int // Requests per minute
}

func NewGeminiClient(ctx context.Context, cfg *config.Config, metrics *telemetry.Metrics) (*GeminiClient, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, err
	}

	limits := getRateLimits(cfg.GeminiTier)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			metrics.RecordCircuitBreakerState(name, to.String())
		},
	})

	// RPM limit with some buffer
	burst := limits.RPM / 10
	if burst < 1 {
		burst = 1
	}
	rateLimiter := rate.NewLimiter(rate.Limit(float64(limits.RPM)*0.9/60.0), burst)

	return &GeminiClient{
		client:         client,
		breaker:        breaker,
		rateLimiter:    rateLimiter,
		chatModel:      cfg.GeminiChatModel,
		embeddingModel: cfg.GoogleEmbeddingsModel,
		temperature:    0,
	}, nil
}

func getRateLimits(tier string) RateLimits {
	switch tier {
	case "tier1":
		return RateLimits{RPM: 1000}
	case "tier2":
		return RateLimits{RPM: 2000}
	default:
		return RateLimits{RPM: 10}
	}
}

// Complete sends the conversation to the chat model. System messages become
// the system instruction, the last non-system message is sent as the new
// turn and everything in between is chat history.
func (gc *GeminiClient) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.complete")
	defer span.End()

	system, history, last, err := splitConversation(messages)
	if err != nil {
		return "", err
	}
	span.SetAttributes(
		attribute.String("gemini.model", gc.chatModel),
		attribute.Int("gemini.history_len", len(history)),
	)

	// Rate limiter wait; fails fast when the wait would outlive ctx
	if err := gc.rateLimiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("gemini.rate_limited", true))
		return "", &ProviderError{Op: "complete", Err: fmt.Errorf("%w: %v", ErrRateLimited, err)}
	}

	result, err := gc.breaker.Execute(func() (interface{}, error) {
		model := gc.client.GenerativeModel(gc.chatModel)
		model.SetTemperature(gc.temperature)
		if system != "" {
			model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
		}

		cs := model.StartChat()
		cs.History = history

		resp, err := cs.SendMessage(ctx, genai.Text(last))
		if err != nil {
			return nil, err
		}
		return extractResponseText(resp)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			span.SetAttributes(attribute.Bool("gemini.circuit_breaker_open", true))
		}
		span.SetAttributes(attribute.Bool("gemini.error", true), attribute.String("gemini.error_message", err.Error()))
		return "", wrapError("complete", err)
	}

	span.SetAttributes(attribute.Bool("gemini.success", true))
	return result.(string), nil
}

// splitConversation maps provider-agnostic messages onto Gemini's chat shape.
func splitConversation(messages []models.ChatMessage) (string, []*genai.Content, string, error) {
	var system []string
	var turns []models.ChatMessage
	for _, m := range messages {
		if m.Role == models.RoleSystem {
			system = append(system, strings.TrimSpace(m.Content))
			continue
		}
		turns = append(turns, m)
	}
	if len(turns) == 0 {
		return "", nil, "", fmt.Errorf("%w: no user message to send", ErrInvalidInput)
	}

	// Gemini chat history has to open with a user turn and alternate roles.
	prior := turns[:len(turns)-1]
	for len(prior) > 0 && prior[0].Role == models.RoleAssistant {
		prior = prior[1:]
	}

	var history []*genai.Content
	var texts []string
	for _, m := range prior {
		role := "user"
		if m.Role == models.RoleAssistant {
			role = "model"
		}
		if n := len(history); n > 0 && history[n-1].Role == role {
			texts[n-1] += "\n\n" + m.Content
			history[n-1].Parts = []genai.Part{genai.Text(texts[n-1])}
			continue
		}
		texts = append(texts, m.Content)
		history = append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}

	last := turns[len(turns)-1].Content
	if n := len(history); n > 0 && history[n-1].Role == "user" {
		last = texts[n-1] + "\n\n" + last
		history = history[:n-1]
	}

	return strings.Join(system, "\n\n"), history, last, nil
}

func extractResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return "", &ProviderError{Op: "complete", Err: errors.New("gemini: response has no candidates")}
	}

	var reply strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			reply.WriteString(string(txt))
		}
	}

	text := strings.TrimSpace(reply.String())
	if text == "" {
		return "", &ProviderError{Op: "complete", Err: errors.New("gemini: empty response text")}
	}
	return text, nil
}

// Close the client
func (gc *GeminiClient) Close() error {
	if gc.client != nil {
		return gc.client.Close()
	}
	return nil
}
