package simple

import (
	"go.dedis.ch/coursemarket/core/txn"
	"go.dedis.ch/coursemarket/core/validation"
)

// TransactionResult tells whether a transaction passed every check and, if
// not, which one refused it.
//
// - implements validation.TransactionResult
type TransactionResult struct {
	tx      txn.Transaction
	refusal validation.Refusal
	reason  string
}

// Accept returns the result of a transaction that has been applied.
func Accept(tx txn.Transaction) TransactionResult {
	return TransactionResult{tx: tx}
}

// Refuse returns the result of a transaction refused by the check with the
// reason.
func Refuse(tx txn.Transaction, refusal validation.Refusal, reason string) TransactionResult {
	return TransactionResult{
		tx:      tx,
		refusal: refusal,
		reason:  reason,
	}
}

// GetTransaction implements validation.TransactionResult.
func (res TransactionResult) GetTransaction() txn.Transaction {
	return res.tx
}

// GetStatus implements validation.TransactionResult.
func (res TransactionResult) GetStatus() (bool, string) {
	return res.refusal == validation.NotRefused, res.reason
}

// GetRefusal implements validation.TransactionResult.
func (res TransactionResult) GetRefusal() validation.Refusal {
	return res.refusal
}

// Result is the list of transaction results of a batch, in the order of the
// batch.
//
// - implements validation.Result
type Result []TransactionResult

// Accepted returns the number of transactions of the batch that have been
// applied.
func (r Result) Accepted() int {
	n := 0
	for _, res := range r {
		if res.refusal == validation.NotRefused {
			n++
		}
	}

	return n
}

// GetTransactionResults implements validation.Result.
func (r Result) GetTransactionResults() []validation.TransactionResult {
	res := make([]validation.TransactionResult, len(r))
	for i, txRes := range r {
		res[i] = txRes
	}

	return res
}
