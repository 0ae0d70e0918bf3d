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


package vecfill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/vecfill/ai"
	"github.com/poiesic/vecfill/ai/compat"
	"github.com/poiesic/vecfill/ai/openai"
	"github.com/poiesic/vecfill/backfill"
	"github.com/poiesic/vecfill/core"
	"github.com/poiesic/vecfill/search"
	"github.com/poiesic/vecfill/storage"
	"github.com/poiesic/vecfill/storage/badger"
	"github.com/poiesic/vecfill/storage/postgres"
)

// Provider names accepted by WithProvider.
const (
	ProviderOpenAI = "openai"
	ProviderCompat = "compat"
)

// ErrSeedUnsupported is returned by Seed when the store cannot be loaded locally.
var ErrSeedUnsupported = errors.New("store does not support seeding")

// Database ties a store connector to an embedding client and builds the
// backfill and query components on top of them.
type Database struct {
	connector storage.Connector
	backend   *badger.Backend // nil unless the store is embedded
	client    *ai.Client
	logger    *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	provider string
	embedder ai.Embedder
}

// WithAIConfig sets the provider and retry configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithProvider selects the embedding provider implementation:
// ProviderOpenAI (default) or ProviderCompat.
func WithProvider(name string) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = name
	}
}

// WithEmbedder uses embedder instead of building a provider.
func WithEmbedder(embedder ai.Embedder) DatabaseOption {
	return func(o *databaseOptions) {
		o.embedder = embedder
	}
}

// OpenBadger opens an embedded store at filePath. An empty filePath keeps
// the store in memory.
func OpenBadger(filePath string, opts ...DatabaseOption) (*Database, error) {
	backend, err := badger.OpenBackend(filePath, filePath == "")
	if err != nil {
		return nil, err
	}

	client, err := newClient(opts...)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Database{
		connector: badger.NewConnector(backend),
		backend:   backend,
		client:    client,
		logger:    slog.Default().With("component", "database"),
	}, nil
}

// OpenPostgres prepares a database on a PostgreSQL table. No connection is
// made until a worker or searcher needs one.
func OpenPostgres(config *postgres.Config, opts ...DatabaseOption) (*Database, error) {
	connector, err := postgres.NewConnector(config)
	if err != nil {
		return nil, err
	}

	client, err := newClient(opts...)
	if err != nil {
		return nil, err
	}

	return &Database{
		connector: connector,
		client:    client,
		logger:    slog.Default().With("component", "database"),
	}, nil
}

func newClient(opts ...DatabaseOption) (*ai.Client, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
		provider: ProviderOpenAI,
	}
	for _, opt := range opts {
		opt(options)
	}

	embedder := options.embedder
	if embedder == nil {
		var err error
		switch options.provider {
		case ProviderOpenAI:
			embedder, err = openai.NewEmbedder(options.aiConfig)
		case ProviderCompat:
			embedder, err = compat.NewEmbedder(options.aiConfig)
		default:
			err = fmt.Errorf("unknown provider %q", options.provider)
		}
		if err != nil {
			return nil, err
		}
	}

	return ai.NewClient(embedder, options.aiConfig)
}

// Close releases the embedded store, if any.
func (db *Database) Close() error {
	if db.backend == nil {
		return nil
	}
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Connector returns the store connector.
func (db *Database) Connector() storage.Connector {
	return db.connector
}

// Client returns the retrying embedding client.
func (db *Database) Client() *ai.Client {
	return db.client
}

// Seed adds records to an embedded store.
func (db *Database) Seed(ctx context.Context, records ...*core.Record) error {
	if db.backend == nil {
		return ErrSeedUnsupported
	}
	return badger.NewStore(db.backend).AddRecords(ctx, records...)
}

func (db *Database) NewWorker(config *backfill.Config, opts ...backfill.Option) (*backfill.Worker, error) {
	return backfill.NewWorker(db.connector, db.client, config, opts...)
}

func (db *Database) NewFleet(config *backfill.Config, opts ...backfill.Option) (*backfill.Fleet, error) {
	worker, err := db.NewWorker(config, opts...)
	if err != nil {
		return nil, err
	}
	return backfill.NewFleet(worker)
}

func (db *Database) NewSearcher(config *search.Config, opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.connector, db.client, config, opts...)
}
