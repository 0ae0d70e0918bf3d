package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lib/pq"
	"github.com/poiesic/vecfill/core"
	"github.com/poiesic/vecfill/storage"
)

// Store implements storage.Store on a PostgreSQL table with a pgvector column.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	offsetQuery    string
	hashQuery      string
	updateQuery    string
	neighborsQuery string

	closeOnce sync.Once
	closeErr  error
}

var _ storage.Store = (*Store)(nil)

// NewStore wraps an open database handle. Close closes db.
func NewStore(db *sql.DB, config *Config) (*Store, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		table     = pq.QuoteIdentifier(config.Table)
		id        = pq.QuoteIdentifier(config.IDColumn)
		content   = pq.QuoteIdentifier(config.ContentColumn)
		embedding = pq.QuoteIdentifier(config.EmbeddingColumn)
		subject   = pq.QuoteIdentifier(config.SubjectColumn)
		date      = pq.QuoteIdentifier(config.DateColumn)
	)

	return &Store{
		db:     db,
		logger: slog.Default().With("component", "postgres-store"),

		offsetQuery: fmt.Sprintf(
			`SELECT %s, %s FROM %s WHERE %s IS NULL ORDER BY %s LIMIT $1 OFFSET $2`,
			id, content, table, embedding, id),

		// Shards are hashtext(id) mod total, not core.ShardOf: postgres has no
		// BLAKE2b. hashtext is int4; shifting it into [0, 2^32) keeps mod
		// non-negative.
		// The cursor compares and orders bytewise so it matches the keys
		// handed back to the scanner regardless of the column collation.
		hashQuery: fmt.Sprintf(
			`SELECT %s, %s FROM %s WHERE %s IS NULL AND %s COLLATE "C" > $1 AND mod(hashtext(%s)::bigint + 2147483648, $2) = $3 ORDER BY %s COLLATE "C" LIMIT $4`,
			id, content, table, embedding, id, id, id),

		updateQuery: fmt.Sprintf(
			`UPDATE %s SET %s = $1::vector WHERE %s = $2`,
			table, embedding, id),

		neighborsQuery: fmt.Sprintf(
			`SELECT %s, %s, %s, %s, %s <-> $1::vector AS distance FROM %s WHERE %s IS NOT NULL ORDER BY distance LIMIT $2`,
			id, subject, date, content, embedding, table, embedding),
	}, nil
}

// PendingRecords returns (id, content) of pending rows in window.
func (s *Store) PendingRecords(ctx context.Context, window core.Window) ([]*core.Record, error) {
	if window.Limit <= 0 || window.Offset < 0 {
		return nil, storage.Wrap("pending", fmt.Errorf("%w: limit %d offset %d", storage.ErrInvalidQuery, window.Limit, window.Offset))
	}

	var (
		rows *sql.Rows
		err  error
	)
	if window.Shard != nil {
		rows, err = s.db.QueryContext(ctx, s.hashQuery,
			string(window.After), window.Shard.Total, window.Shard.Index, window.Limit)
	} else {
		rows, err = s.db.QueryContext(ctx, s.offsetQuery, window.Limit, window.Offset)
	}
	if err != nil {
		return nil, storage.Wrap("pending", err)
	}
	defer rows.Close()

	var records []*core.Record
	for rows.Next() {
		var (
			id      string
			content sql.NullString
		)
		if err := rows.Scan(&id, &content); err != nil {
			return nil, storage.Wrap("pending", err)
		}
		records = append(records, &core.Record{ID: core.ID(id), Content: content.String})
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Wrap("pending", err)
	}
	return records, nil
}

// UpdateEmbedding writes vector into the embedding column of the row.
func (s *Store) UpdateEmbedding(ctx context.Context, id core.ID, vector core.Vector) error {
	if err := core.ValidateVector(vector, 0); err != nil {
		return storage.Wrap("update", err)
	}

	result, err := s.db.ExecContext(ctx, s.updateQuery, formatVector(vector), string(id))
	if err != nil {
		return storage.Wrap("update", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return storage.Wrap("update", err)
	}
	if n == 0 {
		return storage.Wrap("update", fmt.Errorf("%w: %s", storage.ErrNotFound, id))
	}
	return nil
}

// NearestNeighbors returns up to n embedded rows ordered by L2 distance.
func (s *Store) NearestNeighbors(ctx context.Context, vector core.Vector, n int) ([]core.Neighbor, error) {
	if n <= 0 {
		return nil, storage.Wrap("neighbors", fmt.Errorf("%w: n must be positive, got %d", storage.ErrInvalidQuery, n))
	}
	if err := core.ValidateVector(vector, 0); err != nil {
		return nil, storage.Wrap("neighbors", err)
	}

	rows, err := s.db.QueryContext(ctx, s.neighborsQuery, formatVector(vector), n)
	if err != nil {
		return nil, storage.Wrap("neighbors", err)
	}
	defer rows.Close()

	var neighbors []core.Neighbor
	for rows.Next() {
		var (
			id       string
			subject  sql.NullString
			date     dateValue
			content  sql.NullString
			distance float64
		)
		if err := rows.Scan(&id, &subject, &date, &content, &distance); err != nil {
			return nil, storage.Wrap("neighbors", err)
		}
		neighbors = append(neighbors, core.Neighbor{
			Record: &core.Record{
				ID:      core.ID(id),
				Subject: subject.String,
				Date:    date.Time,
				Content: content.String,
			},
			Distance: distance,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Wrap("neighbors", err)
	}
	s.logger.Debug("nearest neighbors", "candidates", len(neighbors))
	return neighbors, nil
}

// Close closes the database handle. Later calls return the first result.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = storage.Wrap("close", s.db.Close())
	})
	return s.closeErr
}

// Connector opens one single-connection database handle per Connect.
type Connector struct {
	config *Config
	open   func(driverName, dsn string) (*sql.DB, error)
}

var _ storage.Connector = (*Connector)(nil)

// NewConnector creates a connector for config.
func NewConnector(config *Config) (*Connector, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Connector{config: config, open: sql.Open}, nil
}

// Connect opens and pings a new connection.
func (c *Connector) Connect(ctx context.Context) (storage.Store, error) {
	db, err := c.open("postgres", c.config.DSN())
	if err != nil {
		return nil, storage.Wrap("connect", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, storage.Wrap("connect", err)
	}

	store, err := NewStore(db, c.config)
	if err != nil {
		db.Close()
		return nil, storage.Wrap("connect", err)
	}
	return store, nil
}
