package kv

import (
	"fmt"
	"os"
	"path/filepath"
)

func ExampleDB_Update() {
	dir, err := os.MkdirTemp(os.TempDir(), "example")
	if err != nil {
		panic("failed to create folder: " + err.Error())
	}

	defer os.RemoveAll(dir)

	db, err := New(filepath.Join(dir, "example.db"))
	if err != nil {
		panic("failed to open db: " + err.Error())
	}

	defer db.Close()

	err = db.Update(func(txn WritableTx) error {
		bucket, err := txn.GetBucketOrCreate([]byte("courses"))
		if err != nil {
			return err
		}

		return bucket.Set([]byte("count"), []byte("1"))
	})
	if err != nil {
		panic("failed to update: " + err.Error())
	}

	value, err := NewReadable(db, []byte("courses")).Get([]byte("count"))
	if err != nil {
		panic("failed to read: " + err.Error())
	}

	fmt.Println(string(value))

	// Output: 1
}
