package ai

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProviderErrorPayload_Retryable(t *testing.T) {
	code := func(s string) *string { return &s }

	assert.True(t, ProviderErrorPayload{Code: code("rate_limit_exceeded")}.Retryable())
	assert.False(t, ProviderErrorPayload{Code: code("invalid_api_key")}.Retryable())
	assert.False(t, ProviderErrorPayload{Code: code("")}.Retryable())
	assert.False(t, ProviderErrorPayload{}.Retryable())
}

func TestProviderError(t *testing.T) {
	t.Run("rate limit unwraps to sentinel", func(t *testing.T) {
		err := NewRateLimitError(429, []byte(`{"error":{"code":"rate_limit_exceeded"}}`))

		assert.True(t, err.Retryable())
		assert.ErrorIs(t, err, ErrRateLimited)
		assert.Equal(t, `failed to fetch embedding: {"error":{"code":"rate_limit_exceeded"}}`, err.Error())
	})

	t.Run("exhausted marker", func(t *testing.T) {
		err := NewRateLimitError(429, nil)
		err.Exhausted = true

		assert.Equal(t, "failed to fetch embedding (retries exhausted)", err.Error())
	})

	t.Run("message without body", func(t *testing.T) {
		err := &ProviderError{StatusCode: 401, Payload: ProviderErrorPayload{Message: "bad key"}}

		assert.False(t, err.Retryable())
		assert.Equal(t, "failed to fetch embedding: bad key", err.Error())
		assert.Nil(t, err.Unwrap())
	})

	t.Run("wrapped cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := &ProviderError{Err: cause}

		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestAsProviderError(t *testing.T) {
	perr := NewRateLimitError(429, nil)
	wrapped := errors.Join(errors.New("context"), perr)

	assert.Same(t, perr, AsProviderError(wrapped))

	plain := errors.New("boom")
	converted := AsProviderError(plain)
	assert.False(t, converted.Retryable())
	assert.ErrorIs(t, converted, plain)
}
