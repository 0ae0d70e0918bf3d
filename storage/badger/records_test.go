package badger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/vecfill/core"
	"github.com/poiesic/vecfill/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pending(id, content string) *core.Record {
	return &core.Record{ID: core.ID(id), Content: content, Subject: "s-" + id, Date: time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func embedded(id, subject string, vec ...float32) *core.Record {
	return &core.Record{ID: core.ID(id), Content: "content " + id, Subject: subject, Date: time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC), Embedding: vec}
}

func openStore(t *testing.T, records ...*core.Record) *Store {
	t.Helper()
	connector, backend, err := NewMemoryStore(context.Background(), records...)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	store, err := connector.Connect(context.Background())
	require.NoError(t, err)
	return store.(*Store)
}

func ids(records []*core.Record) []core.ID {
	out := make([]core.ID, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestPendingRecords_OffsetWindow(t *testing.T) {
	ctx := context.Background()
	store := openStore(t,
		pending("a", "A"), embedded("b", "x", 1), pending("c", "C"),
		pending("d", "D"), embedded("e", "x", 1), pending("f", "F"),
	)

	tests := []struct {
		limit, offset int
		want          []core.ID
	}{
		{2, 0, []core.ID{"a", "c"}},
		{2, 2, []core.ID{"d", "f"}},
		{10, 0, []core.ID{"a", "c", "d", "f"}},
		{1, 3, []core.ID{"f"}},
		{5, 4, nil},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("limit=%d/offset=%d", tt.limit, tt.offset), func(t *testing.T) {
			page, err := store.PendingRecords(ctx, core.Window{Limit: tt.limit, Offset: tt.offset})
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, page)
				return
			}
			assert.Equal(t, tt.want, ids(page))
		})
	}
}

func TestPendingRecords_PopulatesContent(t *testing.T) {
	store := openStore(t, pending("a", "hello"))

	page, err := store.PendingRecords(context.Background(), core.Window{Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "hello", page[0].Content)
	assert.True(t, page[0].Pending())
}

func TestPendingRecords_HashWindow(t *testing.T) {
	ctx := context.Background()
	var records []*core.Record
	for i := 0; i < 40; i++ {
		records = append(records, pending(fmt.Sprintf("<%02d@thyme>", i), "body"))
	}
	store := openStore(t, records...)

	const total = 3
	seen := map[core.ID]int{}
	for index := 0; index < total; index++ {
		shard := &core.Shard{Index: index, Total: total}
		var after core.ID
		for {
			page, err := store.PendingRecords(ctx, core.Window{Limit: 4, Shard: shard, After: after})
			require.NoError(t, err)
			if len(page) == 0 {
				break
			}
			for i, r := range page {
				assert.True(t, shard.Owns(r.ID))
				if i > 0 {
					assert.Less(t, page[i-1].ID, r.ID)
				}
				if after != "" {
					assert.Greater(t, r.ID, after)
				}
				seen[r.ID]++
			}
			after = page[len(page)-1].ID
		}
	}

	assert.Len(t, seen, len(records))
	for id, c := range seen {
		assert.Equal(t, 1, c, "record %s", id)
	}
}

func TestPendingRecords_InvalidWindow(t *testing.T) {
	store := openStore(t)

	_, err := store.PendingRecords(context.Background(), core.Window{Limit: 0})
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)

	_, err = store.PendingRecords(context.Background(), core.Window{Limit: 1, Offset: -1})
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestUpdateEmbedding(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, pending("a", "A"), pending("b", "B"))

	vec := core.Vector{0.1, -0.25, 3.5, 1e-6}
	require.NoError(t, store.UpdateEmbedding(ctx, "a", vec))

	record, err := store.GetRecord(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, vec, record.Embedding)
	assert.Equal(t, "A", record.Content)
	assert.Equal(t, "s-a", record.Subject)

	// Overwrite with the same vector is idempotent.
	require.NoError(t, store.UpdateEmbedding(ctx, "a", vec))

	page, err := store.PendingRecords(ctx, core.Window{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []core.ID{"b"}, ids(page))
}

func TestUpdateEmbedding_Errors(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, pending("a", "A"))

	err := store.UpdateEmbedding(ctx, "missing", core.Vector{1})
	assert.ErrorIs(t, err, storage.ErrNotFound)
	var serr *storage.StoreError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "update", serr.Op)

	err = store.UpdateEmbedding(ctx, "a", nil)
	assert.ErrorIs(t, err, core.ErrInvalidVector)
}

func TestNearestNeighbors(t *testing.T) {
	ctx := context.Background()
	store := openStore(t,
		embedded("far", "x", 0, 0, 10),
		embedded("near", "x", 1, 0, 0),
		embedded("mid", "x", 1, 1, 0),
		embedded("tie", "x", 1, 0, 0),
		pending("p", "P"),
	)

	results, err := store.NearestNeighbors(ctx, core.Vector{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, core.ID("near"), results[0].Record.ID)
	assert.Equal(t, core.ID("tie"), results[1].Record.ID)
	assert.Equal(t, core.ID("mid"), results[2].Record.ID)
	assert.Equal(t, core.ID("far"), results[3].Record.ID)
	assert.InDelta(t, 0.0, results[0].Distance, 1e-9)
	assert.InDelta(t, 1.0, results[2].Distance, 1e-9)

	limited, err := store.NearestNeighbors(ctx, core.Vector{1, 0, 0}, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestNearestNeighbors_DimensionMismatch(t *testing.T) {
	store := openStore(t, embedded("a", "x", 1, 2, 3))

	_, err := store.NearestNeighbors(context.Background(), core.Vector{1, 2}, 10)
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
}

func TestClosedStore(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, pending("a", "A"))
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	_, err := store.PendingRecords(ctx, core.Window{Limit: 1})
	assert.ErrorIs(t, err, storage.ErrStoreClosed)
	assert.ErrorIs(t, store.UpdateEmbedding(ctx, "a", core.Vector{1}), storage.ErrStoreClosed)
	_, err = store.NearestNeighbors(ctx, core.Vector{1}, 1)
	assert.ErrorIs(t, err, storage.ErrStoreClosed)
}

func TestConnector_ClosedBackend(t *testing.T) {
	connector, backend, err := NewMemoryStore(context.Background())
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	_, err = connector.Connect(context.Background())
	assert.ErrorIs(t, err, storage.ErrStoreClosed)
}

func TestConnector_HandlesAreIndependent(t *testing.T) {
	ctx := context.Background()
	connector, backend, err := NewMemoryStore(ctx, pending("a", "A"))
	require.NoError(t, err)
	defer backend.Close()

	first, err := connector.Connect(ctx)
	require.NoError(t, err)
	second, err := connector.Connect(ctx)
	require.NoError(t, err)

	require.NoError(t, first.Close())

	page, err := second.PendingRecords(ctx, core.Window{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestAddRecords_Validates(t *testing.T) {
	store := openStore(t)

	err := store.AddRecords(context.Background(), &core.Record{Content: "no id"})
	assert.ErrorIs(t, err, core.ErrEmptyID)
}
