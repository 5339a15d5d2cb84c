// Package mem implements an in-memory staging snapshot.
//
// A staging snapshot keeps the updates in an internal map and only reads from
// its parent when a key has not been touched. The updates are applied to a
// writable store on demand, which makes a sequence of writes atomic: either
// every update is applied, or the snapshot is dropped and nothing is.
package mem

import (
	"sort"
	"sync"

	"go.dedis.ch/coursemarket/core/store"
	"golang.org/x/xerrors"
)

// item is an update of a key. A deleted key is kept as a tombstone so that the
// parent value is hidden.
type item struct {
	value   []byte
	deleted bool
}

// Snapshot is a staging snapshot over a readable parent.
//
// - implements store.Snapshot
type Snapshot struct {
	sync.Mutex

	parent  store.Readable
	updates map[string]item
}

// NewSnapshot returns a new empty staging snapshot. The parent can be nil, in
// which case untouched keys are empty.
func NewSnapshot(parent store.Readable) *Snapshot {
	return &Snapshot{
		parent:  parent,
		updates: make(map[string]item),
	}
}

// Get implements store.Readable. It returns the staged value if the key has
// been updated, otherwise the value of the parent.
func (s *Snapshot) Get(key []byte) ([]byte, error) {
	s.Lock()
	it, found := s.updates[string(key)]
	s.Unlock()

	if found {
		if it.deleted {
			return nil, nil
		}

		return append([]byte{}, it.value...), nil
	}

	if s.parent == nil {
		return nil, nil
	}

	value, err := s.parent.Get(key)
	if err != nil {
		return nil, xerrors.Errorf("parent: %v", err)
	}

	return value, nil
}

// Set implements store.Writable. It stages the value for the key.
func (s *Snapshot) Set(key, value []byte) error {
	s.Lock()
	s.updates[string(key)] = item{value: append([]byte{}, value...)}
	s.Unlock()

	return nil
}

// Delete implements store.Writable. It stages the deletion of the key.
func (s *Snapshot) Delete(key []byte) error {
	s.Lock()
	s.updates[string(key)] = item{deleted: true}
	s.Unlock()

	return nil
}

// Len returns the number of staged updates.
func (s *Snapshot) Len() int {
	s.Lock()
	defer s.Unlock()

	return len(s.updates)
}

// Apply writes the staged updates to the store in the lexicographic order of
// the keys. It stops at the first error.
func (s *Snapshot) Apply(w store.Writable) error {
	s.Lock()
	defer s.Unlock()

	keys := make([]string, 0, len(s.updates))
	for key := range s.updates {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		it := s.updates[key]

		var err error
		if it.deleted {
			err = w.Delete([]byte(key))
		} else {
			err = w.Set([]byte(key), it.value)
		}

		if err != nil {
			return xerrors.Errorf("failed to apply key '%x': %v", key, err)
		}
	}

	return nil
}
