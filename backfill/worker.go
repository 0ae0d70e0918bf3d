// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package backfill

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/vecfill/core"
	"github.com/poiesic/vecfill/storage"
)

// Embedder produces the embedding of a row's content. *ai.Client implements it.
type Embedder interface {
	Embed(ctx context.Context, text string) (core.Vector, error)
}

// Stats summarizes one instance's run.
type Stats struct {
	Instance int
	Total    int
	Rounds   int
	Updated  int
	Failed   int
	Elapsed  time.Duration

	// Errors holds the first row failures, up to Config.MaxRecordedErrors.
	Errors []*RowError
}

// Worker fills in the embeddings of pending rows for one instance at a time.
// A Worker holds no per-run state, so one Worker can serve several
// concurrent runs with different instance indexes.
type Worker struct {
	connector storage.Connector
	embedder  Embedder
	config    *Config
	out       io.Writer
	progress  io.Writer
	logger    *slog.Logger
}

// Option configures a Worker.
type Option func(*Worker)

// WithOutput sets where the per-row lines are written. Default is io.Discard.
func WithOutput(w io.Writer) Option {
	return func(wk *Worker) {
		wk.out = w
	}
}

// WithProgress sets where per-round progress is written. Default is io.Discard.
func WithProgress(w io.Writer) Option {
	return func(wk *Worker) {
		wk.progress = w
	}
}

// NewWorker creates a worker.
func NewWorker(connector storage.Connector, embedder Embedder, config *Config, opts ...Option) (*Worker, error) {
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

	w := &Worker{
		connector: connector,
		embedder:  embedder,
		config:    config,
		out:       io.Discard,
		progress:  io.Discard,
		logger:    slog.Default().With("component", "backfill-worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run processes every window of instance instanceIndex out of
// totalInstances until a window comes back empty.
//
// A failing row is reported and skipped; the round goes on. Failing to
// connect, to fetch a page, or a cancelled context ends the run with an
// error. The store connection is released on every path.
func (w *Worker) Run(ctx context.Context, instanceIndex, totalInstances int) (*Stats, error) {
	shard := core.Shard{Index: instanceIndex, Total: totalInstances}
	scanner, err := NewScanner(shard, w.config.PageSize, w.config.Partition)
	if err != nil {
		return nil, err
	}

	logger := w.logger.With("instance", instanceIndex, "total", totalInstances)
	stats := &Stats{Instance: instanceIndex, Total: totalInstances}
	start := time.Now()
	defer func() { stats.Elapsed = time.Since(start) }()

	store, err := w.connector.Connect(ctx)
	if err != nil {
		return stats, fmt.Errorf("connect: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close store", "err", err)
		}
	}()

	tracker := NewProgressTracker(w.progress, fmt.Sprintf("instance %d/%d", instanceIndex, totalInstances))
	tracker.Start()
	defer tracker.Finish()

	dimensions := w.config.Dimensions
	logger.Info("starting backfill", "pageSize", w.config.PageSize, "partition", w.config.Partition)

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		window := scanner.Window()
		page, err := store.PendingRecords(ctx, window)
		if err != nil {
			return stats, fmt.Errorf("fetch page at round %d: %w", scanner.Round(), err)
		}
		if len(page) == 0 {
			break
		}
		logger.Debug("fetched page", "round", scanner.Round(), "offset", window.Offset, "after", window.After, "rows", len(page))

		updated, failed := 0, 0
		for _, record := range page {
			if err := w.processRow(ctx, store, record, &dimensions); err == nil {
				updated++
			} else {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return stats, ctxErr
				}
				failed++
				fmt.Fprintf(w.out, "An error occurred while updating row with Message-ID %s: %v\n", record.ID, err)
				logger.Warn("row failed", "id", record.ID, "err", err)
				if len(stats.Errors) < w.config.MaxRecordedErrors {
					stats.Errors = append(stats.Errors, &RowError{ID: record.ID, Err: err})
				}
			}

			// The pause follows every row, failed ones included.
			if err := pause(ctx, w.config.RowDelay); err != nil {
				return stats, err
			}
		}

		scanner.Advance(page)
		stats.Rounds = scanner.Round()
		stats.Updated += updated
		stats.Failed += failed
		tracker.Round(updated, failed)
	}

	logger.Info("backfill finished", "rounds", stats.Rounds, "updated", stats.Updated, "failed", stats.Failed)
	return stats, nil
}

// processRow embeds one record and writes the embedding back.
func (w *Worker) processRow(ctx context.Context, store storage.Store, record *core.Record, dimensions *int) error {
	vector, err := w.embedder.Embed(ctx, record.Content)
	if err != nil {
		return err
	}
	if err := core.ValidateVector(vector, *dimensions); err != nil {
		return err
	}
	if *dimensions == 0 {
		*dimensions = len(vector)
	}
	fmt.Fprintf(w.out, "Embedding: %s\n", vector.Preview())

	if err := store.UpdateEmbedding(ctx, record.ID, vector); err != nil {
		return err
	}
	fmt.Fprintf(w.out, "Updated embedding for row with Message-ID %s\n", record.ID)
	return nil
}

// pause waits for d or until ctx is done.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
