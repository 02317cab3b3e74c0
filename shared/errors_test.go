package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceErrorFormatAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewServiceError(ErrorCategoryNetwork, "REQUEST_FAILED", "dial failed", "http", "FetchJSON", true, cause)

	assert.Equal(t, "[network:REQUEST_FAILED] dial failed", err.Error())
	assert.True(t, errors.Is(err, cause))
	assert.True(t, IsRetryableError(err))
	assert.Equal(t, ErrorCategoryNetwork, CategoryOf(fmt.Errorf("wrapped: %w", err)))
}

func TestWrapErrorKeepsInnerCategory(t *testing.T) {
	inner := NewServiceError(ErrorCategoryHTTP, "HTTP_404", "unexpected status", "http", "FetchJSON", false, nil)

	wrapped := WrapError(inner, ErrorCategoryNetwork, "FETCH_FAILED", "LotusSource", "FetchGames", true)
	require.NotNil(t, wrapped)
	assert.Equal(t, ErrorCategoryHTTP, wrapped.Category)
	assert.Equal(t, "LotusSource", wrapped.ServiceName)
	assert.False(t, wrapped.Retryable)

	plain := WrapError(errors.New("boom"), ErrorCategoryPayload, "DECODE_FAILED", "svc", "op", false)
	assert.Equal(t, ErrorCategoryPayload, plain.Category)
	assert.Nil(t, WrapError(nil, ErrorCategoryPayload, "X", "svc", "op", false))
}

func TestIsRetryableErrorPatterns(t *testing.T) {
	assert.False(t, IsRetryableError(nil))
	assert.True(t, IsRetryableError(errors.New("i/o timeout")))
	assert.True(t, IsRetryableError(errors.New("503 Service Unavailable")))
	assert.False(t, IsRetryableError(errors.New("invalid character")))
	assert.Equal(t, ErrorCategory(""), CategoryOf(errors.New("plain")))
}

func TestBatchProcessingSummary(t *testing.T) {
	sample := []error{errors.New("a"), errors.New("b"), errors.New("c"), errors.New("d")}
	summary := BuildBatchProcessingErrorSummary(2, 5, sample)

	assert.Contains(t, summary, "2 successes and 5 failures")
	assert.Contains(t, summary, "; a; b; c")
	assert.NotContains(t, summary, "; d")
	assert.Contains(t, summary, "and 2 additional errors")

	result := BatchProcessingResult{Succeeded: 3, TotalProcessed: 4}
	assert.InDelta(t, 0.75, result.SuccessRate(), 0.0001)
	assert.Zero(t, BatchProcessingResult{}.SuccessRate())
}
