package openai

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/poiesic/vecfill/ai"
)

// Embedder implements ai.Embedder against the OpenAI embeddings endpoint.
type Embedder struct {
	client  openai.Client
	model   string
	options []option.RequestOption
	logger  *slog.Logger
}

// Option customizes an Embedder.
type Option func(*Embedder)

// WithHTTPClient replaces the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Embedder) {
		e.options = append(e.options, option.WithHTTPClient(client))
	}
}

// newEmbedder is an internal constructor that returns the concrete type.
func newEmbedder(config *ai.Config, opts ...Option) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	e := &Embedder{
		model:  config.Model,
		logger: slog.Default().With("component", "openai-embedder"),
		options: []option.RequestOption{
			option.WithBaseURL(config.BaseURL),
			option.WithMaxRetries(0),
		},
	}
	if config.APIKey != "" {
		e.options = append(e.options, option.WithAPIKey(config.APIKey))
	}
	if config.Timeout > 0 {
		e.options = append(e.options, option.WithRequestTimeout(config.Timeout))
	}
	for _, opt := range opts {
		opt(e)
	}
	e.client = openai.NewClient(e.options...)
	return e, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config, opts ...Option) (ai.Embedder, error) {
	return newEmbedder(config, opts...)
}

// Embed requests the embedding of text and returns the first vector of the
// response. Any failure is a *ai.ProviderError; API errors keep their
// status, parsed payload and raw body.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("requesting embedding", "length", len(text))
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:          openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model:          openai.EmbeddingModel(e.model),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		perr := providerError(err)
		e.logger.Debug("embedding request failed", "status", perr.StatusCode, "retryable", perr.Retryable())
		return nil, perr
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, &ai.ProviderError{StatusCode: http.StatusOK, Err: ai.ErrMalformedResponse}
	}

	vec := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

// providerError maps an SDK error onto ai.ProviderError. An empty code
// means the body carried none.
func providerError(err error) *ai.ProviderError {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return &ai.ProviderError{Err: err}
	}

	perr := &ai.ProviderError{
		StatusCode: apiErr.StatusCode,
		Payload: ai.ProviderErrorPayload{
			Type:    apiErr.Type,
			Message: apiErr.Message,
		},
		Body: []byte(apiErr.RawJSON()),
	}
	if apiErr.Code != "" {
		code := apiErr.Code
		perr.Payload.Code = &code
	}
	return perr
}
