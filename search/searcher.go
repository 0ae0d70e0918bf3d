package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/vecfill/core"
	"github.com/poiesic/vecfill/storage"
)

// Embedder embeds query text. *ai.Client implements it.
type Embedder interface {
	Embed(ctx context.Context, text string) (core.Vector, error)
}

// Config bounds a similarity query.
type Config struct {
	MaxHits    int // Results returned at most
	Candidates int // Nearest neighbors fetched before deduplication
}

// DefaultConfig returns the default query bounds.
func DefaultConfig() *Config {
	return &Config{
		MaxHits:    10,
		Candidates: 100,
	}
}

// Validate checks the bounds.
func (c *Config) Validate() error {
	if c.MaxHits <= 0 {
		return fmt.Errorf("%w: MaxHits must be positive, got %d", ErrInvalidConfig, c.MaxHits)
	}
	if c.Candidates <= 0 {
		return fmt.Errorf("%w: Candidates must be positive, got %d", ErrInvalidConfig, c.Candidates)
	}
	return nil
}

// Searcher answers similarity queries.
type Searcher struct {
	connector storage.Connector
	embedder  Embedder
	config    *Config
	logger    *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher. A nil config uses DefaultConfig.
func NewSearcher(connector storage.Connector, embedder Embedder, config *Config, opts ...Option) (*Searcher, error) {
	if connector == nil {
		return nil, storage.ErrConnectorRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Searcher{
		connector: connector,
		embedder:  embedder,
		config:    config,
		logger:    slog.Default().With("component", "searcher"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search returns up to MaxHits records similar to query, one per subject.
func (s *Searcher) Search(ctx context.Context, query string) ([]*core.SimilarityHit, error) {
	return s.SearchWithMonitor(ctx, query, nil)
}

// SearchWithMonitor is Search with callbacks at each stage.
// On error no hits are returned. Embedding failures surface as
// *ai.ProviderError and store failures as *storage.StoreError.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, monitor SearchMonitor) ([]*core.SimilarityHit, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	start := time.Now()
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}
	monitor.AfterEmbedding(vector, time.Since(start))

	neighbors, elapsed, err := s.nearest(ctx, vector)
	if err != nil {
		s.logger.Error("error querying for similar records", "err", err)
		return nil, err
	}
	monitor.AfterNeighborQuery(neighbors, elapsed)

	kept := Deduplicate(neighbors)
	monitor.AfterDeduplicate(kept)

	hits := Rank(kept, s.config.MaxHits)
	monitor.Finish(hits)

	s.logger.Debug("search finished", "candidates", len(neighbors), "subjects", len(kept), "hits", len(hits))
	return hits, nil
}

// nearest holds a store connection for the duration of one neighbor query.
func (s *Searcher) nearest(ctx context.Context, vector core.Vector) ([]core.Neighbor, time.Duration, error) {
	store, err := s.connector.Connect(ctx)
	if err != nil {
		return nil, 0, storage.Wrap("connect", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			s.logger.Warn("failed to close store", "err", err)
		}
	}()

	start := time.Now()
	neighbors, err := store.NearestNeighbors(ctx, vector, s.config.Candidates)
	if err != nil {
		return nil, 0, storage.Wrap("neighbors", err)
	}
	return neighbors, time.Since(start), nil
}
