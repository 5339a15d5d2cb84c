package course

import (
	"go.dedis.ch/coursemarket/core/store"
	"go.dedis.ch/coursemarket/core/store/prefixed"
	"go.dedis.ch/coursemarket/crypto"
	"golang.org/x/xerrors"
)

// ErrNotFound is returned by the reader when a course does not exist.
var ErrNotFound = xerrors.New("course not found")

// Reader provides the views of the contract over a readable store. Reading
// does not require a transaction.
type Reader struct {
	store  store.Readable
	access AccessService
}

// NewReader returns a reader of the contract state.
func NewReader(r store.Readable, srvc AccessService) Reader {
	return Reader{
		store:  r,
		access: srvc,
	}
}

// GetCourseByHash returns the record of the purchase, or ErrNotFound.
func (r Reader) GetCourseByHash(hash Hash) (Course, error) {
	course, found, err := readCourse(r.state(), hash)
	if err != nil {
		return Course{}, err
	}

	if !found {
		return Course{}, ErrNotFound
	}

	return course, nil
}

// GetCourseHashAtIndex returns the hash of the i-th purchase, or ErrNotFound.
func (r Reader) GetCourseHashAtIndex(index uint64) (Hash, error) {
	data, err := r.state().Get(indexKey(index))
	if err != nil {
		return Hash{}, xerrors.Errorf("failed to read index: %v", err)
	}

	if data == nil {
		return Hash{}, ErrNotFound
	}

	hash, err := NewHash(data)
	if err != nil {
		return Hash{}, xerrors.Errorf("corrupted index: %v", err)
	}

	return hash, nil
}

// GetCourseCount returns the number of purchases.
func (r Reader) GetCourseCount() (uint64, error) {
	return readCount(r.state())
}

// GetContractOwner returns the address of the owner of the contract.
func (r Reader) GetContractOwner() (crypto.Address, error) {
	owner, err := r.access.GetOwner(r.store, NewCreds("read"))
	if err != nil {
		return crypto.Address{}, xerrors.Errorf("access: %v", err)
	}

	return owner, nil
}

func (r Reader) state() store.Readable {
	return prefixed.NewReadable(ContractName, r.store)
}
