package utils

import (
	"context"
	"time"
)

const (
	// DefaultTimeout bounds session store and database operations
	DefaultTimeout = 10 * time.Second

	// ShortTimeout is for health checks and cache pings
	ShortTimeout = 2 * time.Second
)

// WithTimeout creates a context with default timeout
func WithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultTimeout)
}

// WithShortTimeout creates a context with short timeout for quick operations
func WithShortTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, ShortTimeout)
}

// WithCustomTimeout creates a context bounded by duration. A non-positive
// duration means no deadline beyond the parent's.
func WithCustomTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, duration)
}
