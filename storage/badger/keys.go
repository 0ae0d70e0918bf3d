package badger

import (
	"github.com/poiesic/vecfill/core"
)

// Records are stored under prefix:ID, so a prefix scan visits them in
// lexicographic ID order.
const recordPrefix = "rec:"

// makeRecordKey generates a key for a record by ID.
func makeRecordKey(id core.ID) []byte {
	buf := make([]byte, 0, len(recordPrefix)+len(id))
	buf = append(buf, recordPrefix...)
	return append(buf, id...)
}

// idFromKey extracts the record ID from a record key.
func idFromKey(key []byte) core.ID {
	return core.ID(key[len(recordPrefix):])
}
