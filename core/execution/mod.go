// Package execution defines the primitives to execute a transaction against a
// store.
package execution

import (
	"go.dedis.ch/coursemarket/core/store"
	"go.dedis.ch/coursemarket/core/txn"
)

// Step is a context of execution. It contains the transaction to execute and
// the previous ones of the same batch if any.
type Step struct {
	Previous []txn.Transaction
	Current  txn.Transaction
}

// Result is the result of a transaction execution.
type Result struct {
	// Accepted is the success state of the transaction.
	Accepted bool

	// Message gives a chance to the execution to explain why a transaction has
	// failed.
	Message string
}

// Service is the execution service that defines the primitives to execute a
// transaction.
type Service interface {
	// Execute must apply the transaction to the store and return the result
	// of it. A refused transaction is not an error.
	Execute(snap store.Snapshot, step Step) (Result, error)
}
