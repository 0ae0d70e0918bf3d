package search

import (
	"cmp"
	"slices"

	"github.com/poiesic/vecfill/core"
)

// Deduplicate keeps one candidate per subject: the one with the latest Date,
// and among equal dates the one with the smallest ID. Distance plays no part,
// so a closer candidate loses to a more recent one with the same subject.
// Kept candidates appear in the order their subject was first seen.
func Deduplicate(candidates []core.Neighbor) []core.Neighbor {
	index := make(map[string]int, len(candidates))
	kept := make([]core.Neighbor, 0, len(candidates))

	for _, c := range candidates {
		if c.Record == nil {
			continue
		}
		i, seen := index[c.Record.Subject]
		if !seen {
			index[c.Record.Subject] = len(kept)
			kept = append(kept, c)
			continue
		}
		if supersedes(c.Record, kept[i].Record) {
			kept[i] = c
		}
	}
	return kept
}

// supersedes reports whether a should replace b as the representative of
// their shared subject.
func supersedes(a, b *core.Record) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.After(b.Date)
	}
	return a.ID < b.ID
}

// Rank orders candidates by subject ascending, date descending and ID
// ascending, keeps the first maxHits, and numbers them from 1.
func Rank(candidates []core.Neighbor, maxHits int) []*core.SimilarityHit {
	sorted := slices.Clone(candidates)
	slices.SortStableFunc(sorted, func(a, b core.Neighbor) int {
		if c := cmp.Compare(a.Record.Subject, b.Record.Subject); c != 0 {
			return c
		}
		if c := b.Record.Date.Compare(a.Record.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.Record.ID, b.Record.ID)
	})
	if maxHits >= 0 && len(sorted) > maxHits {
		sorted = sorted[:maxHits]
	}

	hits := make([]*core.SimilarityHit, len(sorted))
	for i, n := range sorted {
		hits[i] = &core.SimilarityHit{
			ID:       n.Record.ID,
			Subject:  n.Record.Subject,
			Date:     n.Record.Date,
			Content:  n.Record.Content,
			Rank:     i + 1,
			Distance: n.Distance,
		}
	}
	return hits
}
