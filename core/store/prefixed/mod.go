// Package prefixed implements stores that isolate the keys of a component
// inside its own keyspace.
//
// Each key is hashed together with the prefix so that two prefixes cannot
// produce the same key.
package prefixed

import (
	"encoding/binary"
	"hash"

	"go.dedis.ch/coursemarket/core/store"
	"go.dedis.ch/coursemarket/crypto"
)

// readable is a readable store that transforms the keys before reading.
//
// - implements store.Readable
type readable struct {
	store.Readable
	prefix []byte
}

// NewReadable creates a readable store inside the keyspace of the prefix.
func NewReadable(prefix string, r store.Readable) store.Readable {
	return readable{
		Readable: r,
		prefix:   []byte(prefix),
	}
}

// Get implements store.Readable. It reads the value of the prefixed key.
func (r readable) Get(key []byte) ([]byte, error) {
	return r.Readable.Get(NewKey(r.prefix, key))
}

// snapshot is a snapshot that transforms the keys before any read or write.
//
// - implements store.Snapshot
type snapshot struct {
	readable
	writable store.Writable
}

// NewSnapshot creates a snapshot inside the keyspace of the prefix.
func NewSnapshot(prefix string, snap store.Snapshot) store.Snapshot {
	return snapshot{
		readable: readable{Readable: snap, prefix: []byte(prefix)},
		writable: snap,
	}
}

// Set implements store.Writable. It writes the value at the prefixed key.
func (s snapshot) Set(key, value []byte) error {
	return s.writable.Set(NewKey(s.prefix, key), value)
}

// Delete implements store.Writable. It deletes the prefixed key.
func (s snapshot) Delete(key []byte) error {
	return s.writable.Delete(NewKey(s.prefix, key))
}

// NewKey returns the 32-byte key of the given key inside the keyspace of the
// prefix. Both are length-delimited before being hashed.
func NewKey(prefix, key []byte) []byte {
	h := crypto.NewSha256Factory().New()

	writeChunk(h, prefix)
	writeChunk(h, key)

	return h.Sum(nil)
}

func writeChunk(h hash.Hash, chunk []byte) {
	length := make([]byte, 2)
	binary.LittleEndian.PutUint16(length, uint16(len(chunk)))

	h.Write(length)
	h.Write(chunk)
}
