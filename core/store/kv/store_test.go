package kv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBucketSnapshot_Get_Set_Delete(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	defer db.Close()

	err = db.Update(func(txn WritableTx) error {
		bucket, err := txn.GetBucketOrCreate([]byte("bucket"))
		require.NoError(t, err)

		snap := NewSnapshot(bucket)

		require.NoError(t, snap.Set([]byte("A"), []byte("B")))
		require.NoError(t, snap.Set([]byte("C"), []byte("D")))
		require.NoError(t, snap.Delete([]byte("C")))

		value, err := snap.Get([]byte("A"))
		require.NoError(t, err)
		require.Equal(t, []byte("B"), value)

		return nil
	})
	require.NoError(t, err)

	reader := NewReadable(db, []byte("bucket"))

	value, err := reader.Get([]byte("A"))
	require.NoError(t, err)
	require.Equal(t, []byte("B"), value)

	value, err = reader.Get([]byte("C"))
	require.NoError(t, err)
	require.Nil(t, value)
}

func TestBucketReader_Get(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	reader := NewReadable(db, []byte("bucket"))

	value, err := reader.Get([]byte("A"))
	require.NoError(t, err)
	require.Nil(t, value)

	err = db.Update(func(txn WritableTx) error {
		b, err := txn.GetBucketOrCreate([]byte("bucket"))
		require.NoError(t, err)

		return b.Set([]byte("A"), []byte("B"))
	})
	require.NoError(t, err)

	value, err = reader.Get([]byte("A"))
	require.NoError(t, err)
	require.Equal(t, []byte("B"), value)

	require.NoError(t, db.Close())

	_, err = reader.Get([]byte("A"))
	require.EqualError(t, err, "database not open")
}
