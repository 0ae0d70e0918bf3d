package ai

import "context"

// Embedder generates a vector embedding for a single text through a remote
// embedding service. Implementations must be thread-safe for concurrent use.
//
// A failed call should return a *ProviderError so that the caller can decide
// whether the failure is transient. Any other error is treated as fatal.
type Embedder interface {
	// Embed returns the embedding of the first (and only) input.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbedderFunc adapts a function to the Embedder interface.
type EmbedderFunc func(ctx context.Context, text string) ([]float32, error)

// Embed calls f(ctx, text).
func (f EmbedderFunc) Embed(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}
