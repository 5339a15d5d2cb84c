// Package controller implements the initializer that injects a transaction
// manager for the identity of the node.
package controller

import (
	"go.dedis.ch/coursemarket/cli"
	"go.dedis.ch/coursemarket/cli/node"
	"go.dedis.ch/coursemarket/core/access"
	"go.dedis.ch/coursemarket/core/ordering"
	"go.dedis.ch/coursemarket/core/txn/signed"
	"go.dedis.ch/coursemarket/core/validation"
	"go.dedis.ch/coursemarket/crypto"
	"golang.org/x/xerrors"
)

type mgrController struct{}

// NewManagerController creates a new controller that will inject a transaction
// manager in the context.
func NewManagerController() node.Initializer {
	return mgrController{}
}

// SetCommands implements node.Initializer. It does nothing.
func (mgrController) SetCommands(node.Builder) {}

// OnStart implements node.Initializer. It injects a client that reads the
// nonces from the ordering service, and a manager for the node signer.
func (mgrController) OnStart(flags cli.Flags, inj node.Injector) error {
	var srvc ordering.Service
	err := inj.Resolve(&srvc)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	var nonceMgr validation.Service
	err = inj.Resolve(&nonceMgr)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	var signer crypto.Signer
	err = inj.Resolve(&signer)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	c := NewClient(srvc, nonceMgr)

	mgr := signed.NewManager(signer, c)

	err = mgr.Sync()
	if err != nil {
		return xerrors.Errorf("manager: %v", err)
	}

	inj.Inject(c)
	inj.Inject(mgr)

	return nil
}

// OnStop implements node.Initializer. It does nothing.
func (mgrController) OnStop(node.Injector) error {
	return nil
}

// Client is a nonce client that reads the latest state of the ordering
// service.
//
// - implements signed.Client
type Client struct {
	srvc ordering.Service
	mgr  validation.Service
}

// NewClient returns a new nonce client.
func NewClient(srvc ordering.Service, mgr validation.Service) Client {
	return Client{
		srvc: srvc,
		mgr:  mgr,
	}
}

// GetNonce implements signed.Client. It returns the nonce of the identity
// according to the latest committed transaction.
func (c Client) GetNonce(ident access.Identity) (uint64, error) {
	nonce, err := c.mgr.GetNonce(c.srvc.GetStore(), ident)
	if err != nil {
		return 0, xerrors.Errorf("store: %v", err)
	}

	return nonce, nil
}
