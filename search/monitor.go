package search

import (
	"time"

	"github.com/poiesic/vecfill/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to time the stages of a query or to inspect
// intermediate results.
type SearchMonitor interface {
	Start(query string)
	AfterEmbedding(vector core.Vector, elapsed time.Duration)
	AfterNeighborQuery(neighbors []core.Neighbor, elapsed time.Duration)
	AfterDeduplicate(kept []core.Neighbor)
	Finish(hits []*core.SimilarityHit)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                        {}
func (n *noopMonitor) AfterEmbedding(_ core.Vector, _ time.Duration)         {}
func (n *noopMonitor) AfterNeighborQuery(_ []core.Neighbor, _ time.Duration) {}
func (n *noopMonitor) AfterDeduplicate(_ []core.Neighbor)                    {}
func (n *noopMonitor) Finish(_ []*core.SimilarityHit)                        {}
