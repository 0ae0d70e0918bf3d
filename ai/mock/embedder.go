package mock

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/poiesic/vecfill/ai"
)

// DefaultDimensions is the length of the vectors produced by the default behavior.
const DefaultDimensions = 16

// MockEmbedder is a test double for ai.Embedder.
// It allows custom behavior injection via function fields.
type MockEmbedder struct {
	// EmbedFunc is called by Embed if set.
	// If nil, uses default deterministic behavior.
	EmbedFunc func(ctx context.Context, text string) ([]float32, error)

	// Dimensions is the length of default vectors. Zero means DefaultDimensions.
	Dimensions int

	mu        sync.Mutex
	callCount int
	texts     []string
	script    []error
}

// NewMockEmbedder creates a mock embedder with default deterministic behavior.
// Note: Returns concrete type to allow test assertions via CallCount().
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

// WithEmbedFunc sets custom behavior for Embed.
func (m *MockEmbedder) WithEmbedFunc(fn func(ctx context.Context, text string) ([]float32, error)) *MockEmbedder {
	m.EmbedFunc = fn
	return m
}

// WithScript makes the next calls fail with errs, in order. A nil entry
// lets that call through to the normal behavior.
func (m *MockEmbedder) WithScript(errs ...error) *MockEmbedder {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, errs...)
	return m
}

// WithRateLimits makes the next n calls fail with a rate-limit error.
func (m *MockEmbedder) WithRateLimits(n int) *MockEmbedder {
	errs := make([]error, n)
	for i := range errs {
		errs[i] = ai.NewRateLimitError(429, []byte(`{"error":{"code":"rate_limit_exceeded"}}`))
	}
	return m.WithScript(errs...)
}

// Embed generates a deterministic embedding based on the text hash.
func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.callCount++
	m.texts = append(m.texts, text)
	var scripted error
	if len(m.script) > 0 {
		scripted = m.script[0]
		m.script = m.script[1:]
	}
	m.mu.Unlock()

	if scripted != nil {
		return nil, scripted
	}
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, text)
	}

	dim := m.Dimensions
	if dim == 0 {
		dim = DefaultDimensions
	}
	return Vector(text, dim), nil
}

// CallCount returns the number of times Embed was called.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Texts returns the inputs Embed was called with, in order.
func (m *MockEmbedder) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

// Reset clears the call count, the recorded inputs and any pending script.
func (m *MockEmbedder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.texts = nil
	m.script = nil
	m.EmbedFunc = nil
}

// Vector creates a deterministic embedding vector from text.
// It uses FNV hash to ensure the same text always produces the same vector.
func Vector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000) / 1000.0
	}
	return vector
}

var _ ai.Embedder = (*MockEmbedder)(nil)
