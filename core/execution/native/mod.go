// Package native implements an execution service to run native contracts.
//
// A native contract is written in Go and packaged with the application.
package native

import (
	"sort"
	"sync"

	"go.dedis.ch/coursemarket"
	"go.dedis.ch/coursemarket/core/execution"
	"go.dedis.ch/coursemarket/core/store"
	"golang.org/x/xerrors"
)

const (
	// ContractArg is the argument key in the transaction to look up a contract.
	ContractArg = "go.dedis.ch/coursemarket.ContractArg"
)

// Contract is the interface to implement to register a contract that will be
// executed natively.
type Contract interface {
	Execute(store.Snapshot, execution.Step) error
}

// Service is an execution service for packaged applications. Those
// applications have complete access to the snapshot and can directly update
// it.
//
// - implements execution.Service
type Service struct {
	sync.RWMutex
	contracts map[string]Contract
}

// NewExecution returns a new native execution without any contract.
func NewExecution() *Service {
	return &Service{
		contracts: map[string]Contract{},
	}
}

// Set stores the contract using the name as the key. A transaction can trigger
// this contract by using the same name as the contract argument. It returns an
// error if the name is already used.
func (ns *Service) Set(name string, contract Contract) error {
	ns.Lock()
	defer ns.Unlock()

	_, found := ns.contracts[name]
	if found {
		return xerrors.Errorf("contract '%s' already registered", name)
	}

	ns.contracts[name] = contract

	return nil
}

// GetContracts returns the sorted list of the names of the contracts.
func (ns *Service) GetContracts() []string {
	ns.RLock()
	defer ns.RUnlock()

	names := make([]string, 0, len(ns.contracts))
	for name := range ns.contracts {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Execute implements execution.Service. It uses the contract named in the
// transaction to process it and returns the result.
func (ns *Service) Execute(snap store.Snapshot, step execution.Step) (execution.Result, error) {
	name := string(step.Current.GetArg(ContractArg))

	ns.RLock()
	contract := ns.contracts[name]
	ns.RUnlock()

	if contract == nil {
		return execution.Result{}, xerrors.Errorf("unknown contract '%s'", name)
	}

	res := execution.Result{
		Accepted: true,
	}

	err := contract.Execute(snap, step)
	if err != nil {
		res.Accepted = false
		res.Message = err.Error()

		coursemarket.Logger.Debug().
			Str("contract", name).
			Err(err).
			Msg("transaction refused")
	}

	return res, nil
}
