// Package validation defines the validation of the transactions submitted to
// the ordering service.
//
// A validation service checks that a transaction is fresh for its identity,
// executes it, and keeps the writes of the transactions that are accepted.
package validation

import (
	"go.dedis.ch/coursemarket/core/access"
	"go.dedis.ch/coursemarket/core/store"
	"go.dedis.ch/coursemarket/core/txn"
)

// Refusal is the check that refused a transaction.
type Refusal uint8

const (
	// NotRefused is the refusal of an accepted transaction.
	NotRefused Refusal = iota
	// RefusedIdentity is a transaction without an identity.
	RefusedIdentity
	// RefusedSignature is a transaction with an invalid signature.
	RefusedSignature
	// RefusedNonce is a transaction that is replayed or out of order.
	RefusedNonce
	// RefusedContract is a transaction that the contract refused to execute.
	RefusedContract
)

var refusalNames = [...]string{
	NotRefused:       "accepted",
	RefusedIdentity:  "identity",
	RefusedSignature: "signature",
	RefusedNonce:     "nonce",
	RefusedContract:  "contract",
}

// String implements fmt.Stringer.
func (r Refusal) String() string {
	if int(r) >= len(refusalNames) {
		return "unknown"
	}

	return refusalNames[r]
}

// TransactionResult is the result of a transaction processing.
type TransactionResult interface {
	// GetTransaction returns the transaction associated to the result.
	GetTransaction() txn.Transaction

	// GetStatus returns true if the transaction has been accepted, otherwise
	// false with the reason.
	GetStatus() (bool, string)

	// GetRefusal returns the check that refused the transaction, or
	// NotRefused.
	GetRefusal() Refusal
}

// Result is the result of a validation.
type Result interface {
	GetTransactionResults() []TransactionResult
}

// Service is the validation service that processes a batch of transactions
// while updating the snapshot.
type Service interface {
	// GetNonce returns the nonce expected for the next transaction of the
	// identity.
	GetNonce(store.Readable, access.Identity) (uint64, error)

	// Validate processes the transactions in order. Only the writes of the
	// accepted transactions are kept in the snapshot.
	Validate(store.Snapshot, []txn.Transaction) (Result, error)
}
