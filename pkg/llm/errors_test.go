package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Error_IncludesContext(t *testing.T) {
	err := &Error{
		Type:       ErrorTypeEndpoint,
		Message:    "server error",
		StatusCode: 503,
		Model:      "gpt-4o",
		Endpoint:   "https://api.openai.com/v1",
		Cause:      errors.New("upstream"),
	}

	msg := err.Error()
	assert.Contains(t, msg, "HTTP 503")
	assert.Contains(t, msg, "model=gpt-4o")
	assert.Contains(t, msg, "endpoint=api.openai.com")
	assert.NotContains(t, msg, "/v1")
	assert.Contains(t, msg, "server error: upstream")
}

func TestError_Error_MinimalContext(t *testing.T) {
	err := NewError(ErrorTypeUnknown, "llm error", false, nil)
	assert.Equal(t, "unknown llm error", err.Error())
}

func TestError_WithContextCopies(t *testing.T) {
	base := NewError(ErrorTypeAuth, "authentication failed", false, nil)
	annotated := base.WithContext("gpt-4o", "https://api.openai.com/v1")

	assert.Equal(t, "gpt-4o", annotated.Model)
	assert.Empty(t, base.Model)
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantType  ErrorType
		retryable bool
		status    int
	}{
		{"unauthorized", errors.New("status 401: Unauthorized"), ErrorTypeAuth, false, 401},
		{"bad key", errors.New("Incorrect API key provided: invalid api key"), ErrorTypeAuth, false, 0},
		{"model missing", errors.New("The model `gpt-9` does not exist"), ErrorTypeModel, false, 0},
		{"endpoint 404", errors.New("HTTP 404 page not found"), ErrorTypeEndpoint, false, 404},
		{"rate limited", errors.New("HTTP 429 Too Many Requests"), ErrorTypeRateLimited, true, 429},
		{"refused", errors.New("dial tcp 127.0.0.1:8080: connect: connection refused"), ErrorTypeEndpoint, true, 0},
		{"timeout", errors.New("net/http: request timeout awaiting headers"), ErrorTypeEndpoint, true, 0},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), ErrorTypeEndpoint, true, 0},
		{"server", errors.New("status code: 502, bad gateway"), ErrorTypeEndpoint, true, 502},
		{"overloaded", errors.New("overloaded_error: Overloaded"), ErrorTypeEndpoint, true, 0},
		{"cancelled", context.Canceled, ErrorTypeEndpoint, false, 0},
		{"unknown", errors.New("something odd"), ErrorTypeUnknown, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.retryable, got.Retryable)
			assert.Equal(t, tt.status, got.StatusCode)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestClassifyError_OpenAIAPIError(t *testing.T) {
	apiErr := &openai.APIError{HTTPStatusCode: 503, Message: "The engine is currently overloaded"}
	got := ClassifyError(fmt.Errorf("create chat completion: %w", apiErr))

	assert.Equal(t, 503, got.StatusCode)
	assert.True(t, got.Retryable)
}

func TestClassifyError_PreservesExistingError(t *testing.T) {
	original := NewError(ErrorTypeModel, "model not found", false, nil)
	assert.Same(t, original, ClassifyError(fmt.Errorf("wrapped: %w", original)))
	assert.Nil(t, ClassifyError(nil))
}

func TestExtractStatusCode(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"HTTP 503 Service Unavailable", 503},
		{"status 429 rate limited", 429},
		{"Status: 404 Not Found", 404},
		{"error, status code: 529, message: overloaded", 529},
		{"processed 503 records", 0},
		{"port 5432 connection failed", 0},
		{"error after 429 seconds", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractStatusCode(tt.in), tt.in)
	}
}

func TestIsRetryableAndType(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewError(ErrorTypeRateLimited, "rate limited", true, nil))
	assert.True(t, IsRetryable(err))
	assert.Equal(t, ErrorTypeRateLimited, GetErrorType(err))

	assert.False(t, IsRetryable(errors.New("plain")))
	assert.Equal(t, ErrorTypeUnknown, GetErrorType(errors.New("plain")))
}
