package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	genai "github.com/google/generative-ai-go/genai"
	"github.com/sony/gobreaker"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrInvalidInput is returned for empty or blank text.
	ErrInvalidInput = errors.New("ai: invalid input")
	// ErrRateLimited marks quota and throttling failures, local or remote.
	ErrRateLimited = errors.New("ai: rate limited")
)

// ProviderError wraps a transport, auth or API failure of a model provider.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("ai: %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ErrorKind is the closed set of failure categories callers branch on.
type ErrorKind string

const (
	KindNone         ErrorKind = ""
	KindInvalidInput ErrorKind = "invalid_input"
	KindRateLimited  ErrorKind = "rate_limited"
	KindProvider     ErrorKind = "provider_error"
	KindUnexpected   ErrorKind = "unexpected"
)

// KindOf classifies err. Anything that is not a known provider failure is
// KindUnexpected.
func KindOf(err error) ErrorKind {
	var perr *ProviderError
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.As(err, &perr):
		return KindProvider
	default:
		return KindUnexpected
	}
}

// wrapError maps SDK, transport and breaker errors onto the ai error kinds.
// Errors it does not recognise are returned unchanged.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrRateLimited) {
		return err
	}
	var perr *ProviderError
	if errors.As(err, &perr) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &ProviderError{Op: op, Err: err}
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &ProviderError{Op: op, Err: err}
	}

	// Safety blocks are a provider outcome, not a client bug.
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return &ProviderError{Op: op, Err: err}
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == http.StatusTooManyRequests {
			return &ProviderError{Op: op, Err: fmt.Errorf("%w: %v", ErrRateLimited, err)}
		}
		return &ProviderError{Op: op, Err: err}
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.OK && st.Code() != codes.Unknown {
		if st.Code() == codes.ResourceExhausted {
			return &ProviderError{Op: op, Err: fmt.Errorf("%w: %v", ErrRateLimited, err)}
		}
		return &ProviderError{Op: op, Err: err}
	}

	return err
}
