package backfill

import (
	"fmt"

	"github.com/poiesic/vecfill/core"
)

// Scanner produces the sequence of windows one instance reads.
//
// With offset partitioning the window of round r is
// (pageSize, index*pageSize + r*total*pageSize). The windows of different
// instances never overlap, but they are positions in the pending set, and
// every row written during the run leaves that set. Later windows then skip
// rows that no instance ever reads. Runs are repeated until a run finds
// nothing left to do.
//
// With hash partitioning an instance reads only the rows it owns, in the
// store's key order, resuming after the last ID of the previous page. The
// cursor is taken from the page as returned, so it follows whatever order the
// store compares keys in.
type Scanner struct {
	shard    core.Shard
	pageSize int
	strategy core.PartitionStrategy
	round    int
	after    core.ID
}

// NewScanner creates a scanner for one instance.
func NewScanner(shard core.Shard, pageSize int, strategy core.PartitionStrategy) (*Scanner, error) {
	if err := shard.Validate(); err != nil {
		return nil, err
	}
	if pageSize <= 0 {
		return nil, fmt.Errorf("%w: %d", core.ErrInvalidPageSize, pageSize)
	}
	if strategy != core.PartitionOffset && strategy != core.PartitionHash {
		return nil, fmt.Errorf("%w: %v", core.ErrUnknownPartitionStrategy, strategy)
	}
	return &Scanner{shard: shard, pageSize: pageSize, strategy: strategy}, nil
}

// Window returns the window of the current round.
func (s *Scanner) Window() core.Window {
	if s.strategy == core.PartitionHash {
		shard := s.shard
		return core.Window{Limit: s.pageSize, Shard: &shard, After: s.after}
	}
	return core.NextWindow(s.shard.Index, s.shard.Total, s.pageSize, s.round)
}

// Advance moves to the next round once page has been processed, whatever the
// outcome of its rows.
func (s *Scanner) Advance(page []*core.Record) {
	s.round++
	if len(page) > 0 {
		s.after = page[len(page)-1].ID
	}
}

// Round returns the number of completed rounds.
func (s *Scanner) Round() int {
	return s.round
}

// Shard returns the instance this scanner reads for.
func (s *Scanner) Shard() core.Shard {
	return s.shard
}
