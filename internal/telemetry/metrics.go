package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics. A nil *Metrics is valid and records
// nothing, so components can be built without telemetry in tests.
type Metrics struct {
	RequestCounter      metric.Int64Counter
	RequestDuration     metric.Float64Histogram
	IntentsClassified   metric.Int64Counter
	Handoffs            metric.Int64Counter
	ConsultantOffers    metric.Int64Counter
	ProviderFailures    metric.Int64Counter
	ActivityLogFailures metric.Int64Counter
	CircuitBreakerState metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(ServiceName)

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	intents, err := meter.Int64Counter(
		"chat.intents.classified",
		metric.WithDescription("User messages classified, by intent label"),
	)
	if err != nil {
		return nil, err
	}

	handoffs, err := meter.Int64Counter(
		"chat.handoffs.total",
		metric.WithDescription("Turns routed to a human instead of the assistant"),
	)
	if err != nil {
		return nil, err
	}

	offers, err := meter.Int64Counter(
		"chat.consultant_offers.total",
		metric.WithDescription("One-time consultant call-to-action shown"),
	)
	if err != nil {
		return nil, err
	}

	providerFailures, err := meter.Int64Counter(
		"provider.failures.total",
		metric.WithDescription("Model provider failures, by operation and kind"),
	)
	if err != nil {
		return nil, err
	}

	activityLogFailures, err := meter.Int64Counter(
		"activity_log.failures.total",
		metric.WithDescription("Activity log rows that could not be appended"),
	)
	if err != nil {
		return nil, err
	}

	circuitBreakerState, err := meter.Int64Counter(
		"circuit_breaker.state_changes",
		metric.WithDescription("Circuit breaker state changes"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:      requestCounter,
		RequestDuration:     requestDuration,
		IntentsClassified:   intents,
		Handoffs:            handoffs,
		ConsultantOffers:    offers,
		ProviderFailures:    providerFailures,
		ActivityLogFailures: activityLogFailures,
		CircuitBreakerState: circuitBreakerState,
	}, nil
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	)

	m.RequestCounter.Add(context.Background(), 1, attrs)
	m.RequestDuration.Record(context.Background(), duration, attrs)
}

func (m *Metrics) RecordIntent(ctx context.Context, intent string, fallback bool) {
	if m == nil {
		return
	}
	m.IntentsClassified.Add(ctx, 1, metric.WithAttributes(
		attribute.String("intent", intent),
		attribute.Bool("fallback", fallback),
	))
}

func (m *Metrics) RecordHandoff(ctx context.Context) {
	if m == nil {
		return
	}
	m.Handoffs.Add(ctx, 1)
}

func (m *Metrics) RecordConsultantOffer(ctx context.Context) {
	if m == nil {
		return
	}
	m.ConsultantOffers.Add(ctx, 1)
}

// RecordProviderFailure records a failed embedding or completion call.
func (m *Metrics) RecordProviderFailure(ctx context.Context, operation, kind string) {
	if m == nil {
		return
	}
	m.ProviderFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("kind", kind),
	))
}

func (m *Metrics) RecordActivityLogFailure(ctx context.Context, sink string) {
	if m == nil {
		return
	}
	m.ActivityLogFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("sink", sink)))
}

// RecordCircuitBreakerState records circuit breaker state changes
func (m *Metrics) RecordCircuitBreakerState(service, state string) {
	if m == nil {
		return
	}
	m.CircuitBreakerState.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("state", state),
	))
}
