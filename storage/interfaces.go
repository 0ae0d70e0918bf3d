package storage

import (
	"context"

	"github.com/poiesic/vecfill/core"
)

// Store is the capability set the backfill and the similarity query need
// from the table holding the records. A Store is owned by a single worker or
// query invocation and is not shared.
type Store interface {
	// PendingRecords returns the records in window whose embedding is null.
	//
	// For an offset window the pending set is ordered by the store's stable
	// scan order and Offset/Limit are applied to it. For a hash window only
	// records owned by window.Shard with an ID greater than window.After are
	// returned, ordered by ID, at most Limit of them.
	//
	// Only ID and Content are guaranteed to be populated.
	PendingRecords(ctx context.Context, window core.Window) ([]*core.Record, error)

	// UpdateEmbedding sets the embedding of the record with the given ID.
	// Writing the same vector twice is harmless.
	// Returns ErrNotFound if no record has that ID.
	UpdateEmbedding(ctx context.Context, id core.ID, vector core.Vector) error

	// NearestNeighbors returns up to n records with a non-null embedding,
	// ordered by ascending L2 distance to vector.
	NearestNeighbors(ctx context.Context, vector core.Vector, n int) ([]core.Neighbor, error)

	// Close releases the connection. Close is safe to call more than once.
	Close() error
}

// Connector opens a Store for one worker or query invocation.
type Connector interface {
	Connect(ctx context.Context) (Store, error)
}

// ConnectorFunc adapts a function to the Connector interface.
type ConnectorFunc func(ctx context.Context) (Store, error)

// Connect calls f(ctx).
func (f ConnectorFunc) Connect(ctx context.Context) (Store, error) {
	return f(ctx)
}

// Seeder loads records into a store. Only local stores implement it.
type Seeder interface {
	AddRecords(ctx context.Context, records ...*core.Record) error
}
