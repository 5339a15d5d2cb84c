// Package kv is the persistent storage of a node.
//
// The database is a bbolt file (https://github.com/etcd-io/bbolt) with one
// bucket per concern: the ordering service keeps its index in one bucket and
// the state of the contracts in another. The state bucket is exposed to the
// rest of the node as a store.Readable between transactions and as a
// store.Snapshot while a transaction is being committed.
package kv

import "go.dedis.ch/coursemarket/core/store"

// Bucket is a set of keys of the database. The values it returns remain valid
// after the transaction is done.
type Bucket interface {
	Get(key []byte) []byte
	Set(key, value []byte) error
	Delete(key []byte) error
}

// ReadableTx is a read-only transaction.
type ReadableTx interface {
	// GetBucket returns the bucket or nil when it has never been written.
	GetBucket(name []byte) Bucket
}

// WritableTx is a transaction that is committed when the update returns
// without an error, or rolled back otherwise.
type WritableTx interface {
	store.Transaction
	ReadableTx

	GetBucketOrCreate(name []byte) (Bucket, error)
}

// DB is the database of a node. A single update runs at a time.
type DB interface {
	View(fn func(ReadableTx) error) error
	Update(fn func(WritableTx) error) error
	Close() error
}
