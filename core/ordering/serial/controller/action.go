package controller

import (
	"fmt"

	"go.dedis.ch/coursemarket/cli/node"
	"go.dedis.ch/coursemarket/core/ordering"
	"go.dedis.ch/coursemarket/crypto/ed25519"
	"golang.org/x/xerrors"
)

// infoAction is an action to display the identity of the node and the index of
// the latest committed transaction.
//
// - implements node.ActionTemplate
type infoAction struct{}

// Execute implements node.ActionTemplate. It prints the address of the node and
// the latest index.
func (infoAction) Execute(ctx node.Context) error {
	var signer ed25519.Signer
	err := ctx.Injector.Resolve(&signer)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	var srvc ordering.Service
	err = ctx.Injector.Resolve(&srvc)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	addr, err := signer.GetAddress()
	if err != nil {
		return xerrors.Errorf("failed to get address: %v", err)
	}

	fmt.Fprintf(ctx.Out, "Address: %v\nIndex: %d", addr, srvc.GetIndex())

	return nil
}
