// Package simple implements a validation service that executes the
// transactions one after the other.
//
// Each transaction runs on its own staging snapshot so that a refused
// transaction leaves no write behind. The nonce of the identity is increased
// for every transaction that passed the signature and nonce checks, whether the
// contract accepted it or not.
package simple

import (
	"encoding/binary"

	"go.dedis.ch/coursemarket/core/access"
	"go.dedis.ch/coursemarket/core/execution"
	"go.dedis.ch/coursemarket/core/store"
	"go.dedis.ch/coursemarket/core/store/mem"
	"go.dedis.ch/coursemarket/core/store/prefixed"
	"go.dedis.ch/coursemarket/core/txn"
	"go.dedis.ch/coursemarket/core/validation"
	"golang.org/x/xerrors"
)

// NonceSpace is the keyspace of the nonces in the store.
const NonceSpace = "go.dedis.ch/coursemarket.Nonce"

// verifiable is implemented by the transactions that carry a signature.
type verifiable interface {
	Verify() error
}

// Service is a standard validation service that will process the batch and
// update the snapshot accordingly.
//
// - implements validation.Service
type Service struct {
	execution execution.Service
}

// NewService creates a new validation service.
func NewService(exec execution.Service) Service {
	return Service{
		execution: exec,
	}
}

// GetNonce implements validation.Service. It returns the nonce associated with
// the identity. The value is the next nonce to use to create a valid
// transaction.
func (s Service) GetNonce(r store.Readable, ident access.Identity) (uint64, error) {
	key, err := ident.MarshalBinary()
	if err != nil {
		return 0, xerrors.Errorf("failed to marshal identity: %v", err)
	}

	value, err := prefixed.NewReadable(NonceSpace, r).Get(key)
	if err != nil {
		return 0, xerrors.Errorf("store: %v", err)
	}

	if len(value) != 8 {
		return 0, nil
	}

	return binary.LittleEndian.Uint64(value), nil
}

// Validate implements validation.Service. It processes the list of transactions
// while updating the snapshot then returns a bundle of the transaction results.
func (s Service) Validate(snap store.Snapshot, txs []txn.Transaction) (validation.Result, error) {
	results := make(Result, len(txs))

	for i, tx := range txs {
		res, err := s.validateTx(snap, tx, txs[:i])
		if err != nil {
			// This is a critical error unrelated to the transaction itself.
			return nil, xerrors.Errorf("failed to validate tx %#x: %v", tx.GetID(), err)
		}

		results[i] = res
	}

	return results, nil
}

func (s Service) validateTx(snap store.Snapshot, tx txn.Transaction,
	previous []txn.Transaction) (TransactionResult, error) {

	if tx.GetIdentity() == nil {
		return Refuse(tx, validation.RefusedIdentity, "missing identity in transaction"), nil
	}

	v, ok := tx.(verifiable)
	if ok {
		err := v.Verify()
		if err != nil {
			return Refuse(tx, validation.RefusedSignature, err.Error()), nil
		}
	}

	nonce, err := s.GetNonce(snap, tx.GetIdentity())
	if err != nil {
		return TransactionResult{}, xerrors.Errorf("nonce: %v", err)
	}

	if tx.GetNonce() != nonce {
		reason := xerrors.Errorf("nonce '%d' != '%d'", tx.GetNonce(), nonce)
		return Refuse(tx, validation.RefusedNonce, reason.Error()), nil
	}

	staging := mem.NewSnapshot(snap)

	step := execution.Step{
		Previous: previous,
		Current:  tx,
	}

	res, err := s.execution.Execute(staging, step)
	if err != nil {
		return TransactionResult{}, xerrors.Errorf("failed to execute tx: %v", err)
	}

	if res.Accepted {
		err = staging.Apply(snap)
		if err != nil {
			return TransactionResult{}, xerrors.Errorf("failed to apply tx: %v", err)
		}
	}

	err = s.set(snap, tx.GetIdentity(), nonce+1)
	if err != nil {
		return TransactionResult{}, xerrors.Errorf("failed to set nonce: %v", err)
	}

	if !res.Accepted {
		return Refuse(tx, validation.RefusedContract, res.Message), nil
	}

	return Accept(tx), nil
}

func (s Service) set(snap store.Snapshot, ident access.Identity, nonce uint64) error {
	key, err := ident.MarshalBinary()
	if err != nil {
		return xerrors.Errorf("failed to marshal identity: %v", err)
	}

	buffer := make([]byte, 8)
	binary.LittleEndian.PutUint64(buffer, nonce)

	err = prefixed.NewSnapshot(NonceSpace, snap).Set(key, buffer)
	if err != nil {
		return xerrors.Errorf("store: %v", err)
	}

	return nil
}
