package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"

	genai "github.com/google/generative-ai-go/genai"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestWrapError_Kinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindNone},
		{"invalid input", fmt.Errorf("embed: %w", ErrInvalidInput), KindInvalidInput},
		{"http 429", &googleapi.Error{Code: 429, Message: "quota"}, KindRateLimited},
		{"http 500", &googleapi.Error{Code: 500}, KindProvider},
		{"http 401", &googleapi.Error{Code: 401}, KindProvider},
		{"grpc exhausted", status.Error(codes.ResourceExhausted, "slow down"), KindRateLimited},
		{"grpc unavailable", status.Error(codes.Unavailable, "down"), KindProvider},
		{"deadline", context.DeadlineExceeded, KindProvider},
		{"breaker open", gobreaker.ErrOpenState, KindProvider},
		{"safety block", &genai.BlockedError{Candidate: &genai.Candidate{FinishReason: genai.FinishReasonSafety}}, KindProvider},
		{"other", errors.New("boom"), KindUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(wrapError("complete", tt.err)))
		})
	}
}

func TestProviderError_Unwrap(t *testing.T) {
	err := wrapError("complete", &googleapi.Error{Code: 429})

	var perr *ProviderError
	assert.True(t, errors.As(err, &perr))
	assert.Equal(t, "complete", perr.Op)
	assert.ErrorIs(t, err, ErrRateLimited)
}
