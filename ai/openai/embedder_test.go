package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/vecfill/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEmbedder(t *testing.T, handler http.HandlerFunc) *Embedder {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	e, err := newEmbedder(ai.NewConfig(
		ai.WithBaseURL(server.URL),
		ai.WithAPIKey("test-key"),
	))
	require.NoError(t, err)
	return e
}

func TestEmbed_Success(t *testing.T) {
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello world", req["input"])
		assert.Equal(t, "text-embedding-ada-002", req["model"])
		assert.Equal(t, "float", req["encoding_format"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.25,-0.5,1]}]}`))
	})

	vec, err := e.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, -0.5, 1}, vec)
}

func TestEmbed_RateLimitPayload(t *testing.T) {
	body := `{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`
	var calls atomic.Int32
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(body))
	})

	_, err := e.Embed(context.Background(), "x")

	var perr *ai.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusTooManyRequests, perr.StatusCode)
	assert.True(t, perr.Retryable())
	require.NotNil(t, perr.Payload.Code)
	assert.Equal(t, "rate_limit_exceeded", *perr.Payload.Code)
	assert.Equal(t, "requests", perr.Payload.Type)
	assert.Equal(t, "Rate limit reached", perr.Payload.Message)
	assert.Contains(t, string(perr.Body), "rate_limit_exceeded")
	assert.ErrorIs(t, err, ai.ErrRateLimited)

	// The SDK does not retry on its own.
	assert.Equal(t, int32(1), calls.Load())
}

func TestEmbed_OtherErrorsAreNotRetryable(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"invalid key", http.StatusUnauthorized, `{"error":{"message":"Incorrect API key","type":"invalid_request_error","code":"invalid_api_key"}}`, "Incorrect API key"},
		{"null code", http.StatusBadRequest, `{"error":{"message":"bad input","type":"invalid_request_error","code":null}}`, "bad input"},
		{"rate limit status without code", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, "slow down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := e.Embed(context.Background(), "x")

			var perr *ai.ProviderError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.status, perr.StatusCode)
			assert.False(t, perr.Retryable())
			assert.Equal(t, tt.message, perr.Payload.Message)
			assert.Contains(t, err.Error(), tt.message)
		})
	}

	t.Run("not json", func(t *testing.T) {
		e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`<html>bad gateway</html>`))
		})

		_, err := e.Embed(context.Background(), "x")

		var perr *ai.ProviderError
		require.ErrorAs(t, err, &perr)
		assert.False(t, perr.Retryable())
		assert.NotErrorIs(t, err, ai.ErrRateLimited)
	})
}

func TestEmbed_MalformedSuccess(t *testing.T) {
	for _, body := range []string{`{"data":[]}`, `{"data":[{"embedding":[]}]}`} {
		e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(body))
		})

		_, err := e.Embed(context.Background(), "x")

		assert.ErrorIs(t, err, ai.ErrMalformedResponse, "body %q", body)
	}
}

func TestEmbed_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	e, err := newEmbedder(ai.NewConfig(ai.WithBaseURL(url)))
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "x")

	var perr *ai.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 0, perr.StatusCode)
	assert.False(t, perr.Retryable())
}

func TestEmbed_ThroughClientRetries(t *testing.T) {
	var calls atomic.Int32
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"code":"rate_limit_exceeded"}}`))
			return
		}
		w.Write([]byte(`{"data":[{"embedding":[1,2,3]}]}`))
	})

	client, err := ai.NewClient(e, ai.NewConfig(ai.WithRetryDelay(time.Millisecond), ai.WithPacing(0)))
	require.NoError(t, err)

	vec, err := client.Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Len(t, vec, 3)
	assert.Equal(t, int32(3), calls.Load())
}

func TestWithHTTPClient(t *testing.T) {
	var used atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"embedding":[1]}]}`))
	}))
	t.Cleanup(server.Close)

	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		used.Store(true)
		return http.DefaultTransport.RoundTrip(r)
	})}
	e, err := newEmbedder(ai.NewConfig(ai.WithBaseURL(server.URL)), WithHTTPClient(client))
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.True(t, used.Load())
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestNewEmbedder_InvalidConfig(t *testing.T) {
	_, err := NewEmbedder(&ai.Config{})
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ai.ErrRateLimited))
}
