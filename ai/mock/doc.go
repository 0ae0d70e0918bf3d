// Package mock provides a test double for ai.Embedder.
//
// The mock allows tests to run without a remote embedding service and makes
// failures reproducible.
//
// # Usage in Tests
//
//	// Deterministic vectors derived from the text
//	embedder := mock.NewMockEmbedder()
//
//	// Two rate limits, then success
//	embedder := mock.NewMockEmbedder().WithRateLimits(2)
//
//	// Custom behavior injection
//	embedder := mock.NewMockEmbedder().
//	    WithEmbedFunc(func(ctx context.Context, text string) ([]float32, error) {
//	        return []float32{0.1, 0.2, 0.3}, nil
//	    })
//
//	// Check call counts
//	count := embedder.CallCount()
package mock
