package services

import (
	"context"
	"errors"
	"time"

	"movewell-assistant/internal/logger"
	"movewell-assistant/internal/telemetry"
	"movewell-assistant/models"
	"movewell-assistant/utils"
)

// ActivitySink persists activity-log rows somewhere outside the process.
type ActivitySink interface {
	Name() string
	Append(ctx context.Context, row models.LogRow) error
}

// ActivityLogger fans each row out to its sinks. Sink failures are logged
// and counted, never returned: logging must not break a chat turn.
type ActivityLogger struct {
	sinks   []ActivitySink
	timeout time.Duration
	metrics *telemetry.Metrics
	now     func() time.Time
}

func NewActivityLogger(timeout time.Duration, metrics *telemetry.Metrics, sinks ...ActivitySink) *ActivityLogger {
	return &ActivityLogger{
		sinks:   sinks,
		timeout: timeout,
		metrics: metrics,
		now:     time.Now,
	}
}

// Log stamps row with the current time when it has none and appends it to
// every sink, each bounded by the logger's timeout. It reports whether all
// sinks accepted the row.
func (l *ActivityLogger) Log(ctx context.Context, row models.LogRow) bool {
	if l == nil {
		return false
	}
	if row.Timestamp.IsZero() {
		row.Timestamp = l.now()
	}

	// The row is still written when the HTTP client has gone away.
	ctx = context.WithoutCancel(ctx)

	ok := true
	for _, sink := range l.sinks {
		if err := l.appendTo(ctx, sink, row); err != nil {
			ok = false
			logger.Error("Activity log append failed",
				"sink", sink.Name(),
				"session_id", row.SessionID,
				"error", err,
			)
			l.metrics.RecordActivityLogFailure(ctx, sink.Name())
		}
	}
	return ok
}

func (l *ActivityLogger) appendTo(ctx context.Context, sink ActivitySink, row models.LogRow) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.New("sink panicked")
		}
	}()

	sinkCtx, cancel := utils.WithCustomTimeout(ctx, l.timeout)
	defer cancel()
	return sink.Append(sinkCtx, row)
}

// SlogSink writes rows to the structured application log. It is always
// wired so that every interaction leaves a local trace.
type SlogSink struct{}

func (SlogSink) Name() string { return "log" }

func (SlogSink) Append(_ context.Context, row models.LogRow) error {
	logger.Info("Activity",
		"timestamp", row.Timestamp.Format(models.TimestampLayout),
		"session_id", row.SessionID,
		"email", row.Email,
		"question", row.Question,
		"intent", row.Intent,
		"cta_triggered", row.CTATriggered,
		"message_number", row.MessageNumber,
	)
	return nil
}
