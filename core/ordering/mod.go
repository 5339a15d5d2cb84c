// Package ordering defines the interface of the ordering service. The
// high-level purpose of this service is to give a total order to the
// transactions submitted by the clients.
//
// Each transaction is either accepted or refused as a whole, and the store
// reflects the transactions in the order they have been processed.
package ordering

import (
	"context"

	"go.dedis.ch/coursemarket/core/store"
	"go.dedis.ch/coursemarket/core/txn"
	"go.dedis.ch/coursemarket/core/validation"
)

// Event is the event sent to the watchers after a transaction has been
// committed.
type Event struct {
	// Index is the position of the transaction in the total order, starting
	// from 1.
	Index uint64

	// Result is the result of the validation of the transaction.
	Result validation.TransactionResult
}

// Service is the interface of an ordering service.
type Service interface {
	// Submit orders and processes the transaction, and returns its result
	// once it is committed.
	Submit(ctx context.Context, tx txn.Transaction) (validation.TransactionResult, error)

	// GetStore returns a read-only view of the latest state.
	GetStore() store.Readable

	// GetIndex returns the index of the latest committed transaction.
	GetIndex() uint64

	// Watch returns a channel populated with the events until the context is
	// done.
	Watch(ctx context.Context) <-chan Event

	// Close stops the service.
	Close() error
}
