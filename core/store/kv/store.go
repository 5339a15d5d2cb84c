package kv

import (
	"go.dedis.ch/coursemarket/core/store"
)

// bucketReader is a readable store backed by a bucket of the database. Each
// read opens its own read-only transaction.
//
// - implements store.Readable
type bucketReader struct {
	db     DB
	bucket []byte
}

// NewReadable returns a readable store over the bucket of the database. A
// missing bucket is read as empty.
func NewReadable(db DB, bucket []byte) store.Readable {
	return bucketReader{
		db:     db,
		bucket: bucket,
	}
}

// Get implements store.Readable. It returns the value of the key in the bucket,
// or nil if either the bucket or the key does not exist.
func (r bucketReader) Get(key []byte) ([]byte, error) {
	var value []byte

	err := r.db.View(func(tx ReadableTx) error {
		bucket := tx.GetBucket(r.bucket)
		if bucket != nil {
			value = bucket.Get(key)
		}

		return nil
	})

	return value, err
}

// bucketSnapshot is a snapshot backed by a bucket of an ongoing writable
// transaction. The writes are committed with the transaction.
//
// - implements store.Snapshot
type bucketSnapshot struct {
	bucket Bucket
}

// NewSnapshot returns a snapshot that reads and writes the bucket. It must not
// be used after the transaction of the bucket is done.
func NewSnapshot(bucket Bucket) store.Snapshot {
	return bucketSnapshot{bucket: bucket}
}

// Get implements store.Readable. It returns the value of the key, or nil if
// it does not exist.
func (s bucketSnapshot) Get(key []byte) ([]byte, error) {
	return s.bucket.Get(key), nil
}

// Set implements store.Writable. It sets the value of the key.
func (s bucketSnapshot) Set(key, value []byte) error {
	return s.bucket.Set(key, value)
}

// Delete implements store.Writable. It deletes the key.
func (s bucketSnapshot) Delete(key []byte) error {
	return s.bucket.Delete(key)
}
