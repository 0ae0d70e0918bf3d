package core

import (
	"time"
)

// ID is the stable unique key of a record (the Message-ID of an email).
// IDs order lexicographically.
type ID string

// Vector is a fixed-dimension embedding. A nil Vector means the embedding
// has not been computed yet.
type Vector []float32

// Record is a single row of the embedded table.
// Only Embedding is ever written by this module; every other field is owned
// by whoever loads the table.
type Record struct {
	ID        ID
	Content   string
	Subject   string
	Date      time.Time // When the message was sent
	Embedding Vector    // nil until the backfill writes it
}

// Pending reports whether the record still needs an embedding.
func (r *Record) Pending() bool {
	return r.Embedding == nil
}

// Neighbor is a record returned by a nearest-neighbor scan together with its
// distance to the query vector. Smaller is closer.
type Neighbor struct {
	Record   *Record
	Distance float64
}

// SimilarityHit is a single ranked result of a similarity query.
type SimilarityHit struct {
	ID       ID
	Subject  string
	Date     time.Time
	Content  string
	Rank     int     // 1-based position in the returned result set
	Distance float64 // Distance reported by the store for this record
}
