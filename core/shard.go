package core

import (
	"encoding/binary"
	"fmt"

	"github.com/go-crypt/x/blake2b"
)

// PartitionStrategy selects how pending rows are divided between instances.
type PartitionStrategy int

const (
	// PartitionOffset pages through the pending rows with LIMIT/OFFSET windows.
	// Each instance skips the windows claimed by its peers. This is only sound
	// while the scan order of the pending set is stable; rows written during
	// the run shrink the pending set and shift later windows.
	PartitionOffset PartitionStrategy = iota

	// PartitionHash assigns each row to hash(id) mod total and pages through an
	// instance's own rows with a keyset cursor. Writes never shift the windows
	// of other instances. The hash belongs to the store: badger uses ShardOf,
	// postgres uses its built-in hashtext. Every instance of a fleet must read
	// the same store.
	PartitionHash
)

// String returns the flag name of the strategy.
func (p PartitionStrategy) String() string {
	switch p {
	case PartitionOffset:
		return "offset"
	case PartitionHash:
		return "hash"
	default:
		return fmt.Sprintf("PartitionStrategy(%d)", int(p))
	}
}

// ParsePartitionStrategy parses a strategy name as accepted on the command line.
func ParsePartitionStrategy(name string) (PartitionStrategy, error) {
	switch name {
	case "", "offset":
		return PartitionOffset, nil
	case "hash":
		return PartitionHash, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPartitionStrategy, name)
	}
}

// Shard identifies one worker instance out of Total.
type Shard struct {
	Index int
	Total int
}

// Validate checks that Total >= 1 and 0 <= Index < Total.
func (s Shard) Validate() error {
	if s.Total < 1 {
		return fmt.Errorf("%w: total instances must be at least 1, got %d", ErrInvalidShard, s.Total)
	}
	if s.Index < 0 || s.Index >= s.Total {
		return fmt.Errorf("%w: instance %d not in [0, %d)", ErrInvalidShard, s.Index, s.Total)
	}
	return nil
}

// Owns reports whether the record key falls into this shard under hash
// partitioning. Stores that hash on the server side ignore it.
func (s Shard) Owns(id ID) bool {
	return ShardOf(id, s.Total) == s.Index
}

// ShardOf maps a record key onto one of total shards using a 64-bit BLAKE2b digest.
// The mapping depends only on the key, never on scan order.
func ShardOf(id ID, total int) int {
	if total <= 1 {
		return 0
	}
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(id))
	sum := binary.LittleEndian.Uint64(h.Sum(nil))
	return int(sum % uint64(total))
}

// Window bounds one page of a pending-rows scan.
//
// With offset partitioning only Limit and Offset are set. With hash
// partitioning Shard is set, Offset is zero, and After holds the last key of
// the previous page (empty on the first page). Which rows a Shard owns is
// decided by the store, so shards are only disjoint within one store.
type Window struct {
	Limit  int
	Offset int
	Shard  *Shard
	After  ID
}

// NextWindow computes the offset window for an instance in a given round.
//
//	offset = instanceIndex*pageSize + round*totalInstances*pageSize
//
// For fixed totalInstances and pageSize the windows of distinct instances
// never overlap, and each round moves an instance forward by
// totalInstances*pageSize rows.
func NextWindow(instanceIndex, totalInstances, pageSize, round int) Window {
	return Window{
		Limit:  pageSize,
		Offset: instanceIndex*pageSize + round*totalInstances*pageSize,
	}
}
