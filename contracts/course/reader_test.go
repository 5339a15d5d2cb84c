package course

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/coursemarket/core/access/owner"
	"go.dedis.ch/coursemarket/core/store/prefixed"
	"go.dedis.ch/coursemarket/internal/testing/fake"
)

func TestReader_GetCourseByHash(t *testing.T) {
	contract, snap := makeDeployed(t)
	reader := NewReader(snap, owner.NewService())

	hash := HashOf(courseID, buyer.Address())

	_, err := reader.GetCourseByHash(hash)
	require.Equal(t, ErrNotFound, err)

	require.NoError(t, contract.purchase(snap, makePurchase(t, buyer, courseID, "1")))

	course, err := reader.GetCourseByHash(hash)
	require.NoError(t, err)
	require.Equal(t, buyer.Address(), course.Owner)

	err = prefixed.NewSnapshot(ContractName, snap).Set(courseKey(hash), []byte{1})
	require.NoError(t, err)

	_, err = reader.GetCourseByHash(hash)
	require.EqualError(t, err, "corrupted course: invalid record length 1 != 85")

	_, err = NewReader(fake.NewBadSnapshot(), owner.NewService()).GetCourseByHash(hash)
	require.EqualError(t, err, fake.Err("failed to read course"))
}

func TestReader_GetCourseHashAtIndex(t *testing.T) {
	contract, snap := makeDeployed(t)
	reader := NewReader(snap, owner.NewService())

	_, err := reader.GetCourseHashAtIndex(0)
	require.Equal(t, ErrNotFound, err)

	require.NoError(t, contract.purchase(snap, makePurchase(t, buyer, courseID, "1")))
	require.NoError(t, contract.purchase(snap, makePurchase(t, buyer, mustParseID("20"), "1")))

	hash, err := reader.GetCourseHashAtIndex(1)
	require.NoError(t, err)
	require.Equal(t, HashOf(mustParseID("20"), buyer.Address()), hash)

	_, err = reader.GetCourseHashAtIndex(2)
	require.Equal(t, ErrNotFound, err)

	err = prefixed.NewSnapshot(ContractName, snap).Set(indexKey(1), []byte{1})
	require.NoError(t, err)

	_, err = reader.GetCourseHashAtIndex(1)
	require.EqualError(t, err, "corrupted index: invalid hash length 1 != 32")

	_, err = NewReader(fake.NewBadSnapshot(), owner.NewService()).GetCourseHashAtIndex(0)
	require.EqualError(t, err, fake.Err("failed to read index"))
}

func TestReader_GetCourseCount(t *testing.T) {
	contract, snap := makeDeployed(t)
	reader := NewReader(snap, owner.NewService())

	count, err := reader.GetCourseCount()
	require.NoError(t, err)
	require.Equal(t, uint64(0), count)

	require.NoError(t, contract.purchase(snap, makePurchase(t, buyer, courseID, "1")))

	count, err = reader.GetCourseCount()
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)

	_, err = NewReader(fake.NewBadSnapshot(), owner.NewService()).GetCourseCount()
	require.EqualError(t, err, fake.Err("failed to read count"))
}

func TestReader_GetContractOwner(t *testing.T) {
	_, snap := makeDeployed(t)

	addr, err := NewReader(snap, owner.NewService()).GetContractOwner()
	require.NoError(t, err)
	require.Equal(t, admin.Address(), addr)

	_, err = NewReader(fake.NewSnapshot(), owner.NewService()).GetContractOwner()
	require.Error(t, err)
	require.Regexp(t, "^access: no owner for ", err.Error())
}
