package badger

import (
	"encoding/binary"

	"github.com/poiesic/scrubdex/core"
)

// Key prefixes for different data types
const (
	documentRecordPrefix = "docrec"
	vectorRecordPrefix   = "vecrec"
	vectorIDSeq          = "vecseq"
	vectorDimensionKey   = "vecmeta:dim"
)

// makeDocumentRecordKey generates a key for a manifest record by document ID.
// Format: prefix:id
func makeDocumentRecordKey(id core.ID) []byte {
	return makeUint64Key(documentRecordPrefix, uint64(id))
}

// makeVectorKey generates a key for a stored vector by insertion sequence.
// Format: prefix:seq
func makeVectorKey(seq uint64) []byte {
	return makeUint64Key(vectorRecordPrefix, seq)
}

// makeUint64Key appends n to prefix in BigEndian order so lexicographic
// iteration follows numeric order.
func makeUint64Key(prefix string, n uint64) []byte {
	prefixBytes := []byte(prefix + ":")
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], n)
	return buf
}

// prefixOf returns the iteration prefix for keys built by makeUint64Key.
func prefixOf(prefix string) []byte {
	return []byte(prefix + ":")
}
