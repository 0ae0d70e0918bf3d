package badger

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/vecfill/core"
	"github.com/poiesic/vecfill/storage"
)

// Store implements storage.Store for BadgerDB.
// Each Store is a handle on a shared Backend; closing it does not close the
// Backend.
type Store struct {
	backend *Backend
	closed  atomic.Bool
	logger  *slog.Logger
}

var (
	_ storage.Store  = (*Store)(nil)
	_ storage.Seeder = (*Store)(nil)
)

// NewStore creates a new Store handle on backend.
func NewStore(backend *Backend) *Store {
	return &Store{
		backend: backend,
		logger:  slog.Default().With("component", "badger-store"),
	}
}

// Connector hands out Store handles on a shared Backend.
type Connector struct {
	backend *Backend
}

var _ storage.Connector = (*Connector)(nil)

// NewConnector creates a connector that opens handles on backend.
func NewConnector(backend *Backend) *Connector {
	return &Connector{backend: backend}
}

// Connect returns a new Store handle.
func (c *Connector) Connect(ctx context.Context) (storage.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, storage.Wrap("connect", err)
	}
	if c.backend.IsClosed() {
		return nil, storage.Wrap("connect", storage.ErrStoreClosed)
	}
	return NewStore(c.backend), nil
}

// Close releases the handle. The Backend stays open.
func (s *Store) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *Store) checkOpen(op string) error {
	if s.closed.Load() || s.backend.IsClosed() {
		return storage.Wrap(op, storage.ErrStoreClosed)
	}
	return nil
}

// PendingRecords returns pending records in window. Records are scanned in
// ID order; offset windows skip Offset pending records first.
func (s *Store) PendingRecords(ctx context.Context, window core.Window) ([]*core.Record, error) {
	if err := s.checkOpen("pending"); err != nil {
		return nil, err
	}
	if window.Limit <= 0 || window.Offset < 0 {
		return nil, storage.Wrap("pending", fmt.Errorf("%w: limit %d offset %d", storage.ErrInvalidQuery, window.Limit, window.Offset))
	}

	var result []*core.Record
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(recordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		var afterKey []byte
		if window.Shard != nil && window.After != "" {
			afterKey = makeRecordKey(window.After)
			iter.Seek(afterKey)
		} else {
			iter.Rewind()
		}

		skipped := 0
		for ; iter.Valid() && len(result) < window.Limit; iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := iter.Item()
			if afterKey != nil && bytes.Equal(item.Key(), afterKey) {
				continue
			}
			if window.Shard != nil && !window.Shard.Owns(idFromKey(item.Key())) {
				continue
			}

			record, err := readItem(item)
			if err != nil {
				return err
			}
			if !record.Pending() {
				continue
			}
			if window.Shard == nil && skipped < window.Offset {
				skipped++
				continue
			}
			result = append(result, record)
		}
		return nil
	}, false)
	if err != nil {
		return nil, storage.Wrap("pending", err)
	}
	return result, nil
}

// UpdateEmbedding sets the embedding of a record.
func (s *Store) UpdateEmbedding(ctx context.Context, id core.ID, vector core.Vector) error {
	if err := s.checkOpen("update"); err != nil {
		return err
	}
	if err := core.ValidateVector(vector, 0); err != nil {
		return storage.Wrap("update", err)
	}

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeRecordKey(id)
		record, err := readRecord(tx, key)
		if err != nil {
			return err
		}
		if record == nil {
			return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
		}
		record.Embedding = slices.Clone(vector)
		if err := tx.Set(key, storage.MarshalRecord(record)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	return storage.Wrap("update", err)
}

// NearestNeighbors scans every embedded record and returns the n closest to
// vector by L2 distance. Ties are broken by ID.
func (s *Store) NearestNeighbors(ctx context.Context, vector core.Vector, n int) ([]core.Neighbor, error) {
	if err := s.checkOpen("neighbors"); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, storage.Wrap("neighbors", fmt.Errorf("%w: n must be positive, got %d", storage.ErrInvalidQuery, n))
	}
	if err := core.ValidateVector(vector, 0); err != nil {
		return nil, storage.Wrap("neighbors", err)
	}

	var results []core.Neighbor
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(recordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			record, err := readItem(iter.Item())
			if err != nil {
				return err
			}
			if record.Pending() {
				continue
			}
			if len(record.Embedding) != len(vector) {
				return fmt.Errorf("%w: record %s has %d dimensions, query has %d",
					core.ErrDimensionMismatch, record.ID, len(record.Embedding), len(vector))
			}
			results = append(results, core.Neighbor{
				Record:   record,
				Distance: l2Distance(vector, record.Embedding),
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, storage.Wrap("neighbors", err)
	}

	slices.SortFunc(results, func(a, b core.Neighbor) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.Record.ID, b.Record.ID)
	})

	if len(results) > n {
		results = results[:n]
	}
	s.logger.Debug("nearest neighbors", "candidates", len(results))
	return results, nil
}

// AddRecords stores records, replacing any with the same ID.
func (s *Store) AddRecords(ctx context.Context, records ...*core.Record) error {
	if err := s.checkOpen("seed"); err != nil {
		return err
	}
	for _, record := range records {
		if err := core.ValidateRecord(record); err != nil {
			return storage.Wrap("seed", err)
		}
	}

	err := s.backend.WriteBatch(func(wb *badger.WriteBatch) error {
		for _, record := range records {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := wb.Set(makeRecordKey(record.ID), storage.MarshalRecord(record)); err != nil {
				return err
			}
		}
		return nil
	})
	return storage.Wrap("seed", err)
}

// GetRecord retrieves a single record by ID.
// Returns ErrNotFound if the record doesn't exist.
func (s *Store) GetRecord(ctx context.Context, id core.ID) (*core.Record, error) {
	if err := s.checkOpen("get"); err != nil {
		return nil, err
	}
	var result *core.Record
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readRecord(tx, makeRecordKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	if err != nil {
		return nil, storage.Wrap("get", err)
	}
	return result, nil
}

// readRecord reads a record from the transaction.
// Returns nil without error if the key doesn't exist.
func readRecord(tx *badger.Txn, key []byte) (*core.Record, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}
	return readItem(item)
}

func readItem(item *badger.Item) (*core.Record, error) {
	var record *core.Record
	err := item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalRecord(val)
		return unmarshalErr
	})
	return record, err
}

// l2Distance is the Euclidean distance between two vectors of equal length.
func l2Distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
