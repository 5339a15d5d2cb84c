// Package controller implements the initializer of the ordering service. It
// creates the node identity and the pipeline that processes the transactions.
package controller

import (
	"path/filepath"

	"go.dedis.ch/coursemarket"
	"go.dedis.ch/coursemarket/cli"
	"go.dedis.ch/coursemarket/cli/node"
	"go.dedis.ch/coursemarket/core/execution/native"
	"go.dedis.ch/coursemarket/core/ordering/serial"
	"go.dedis.ch/coursemarket/core/store/kv"
	"go.dedis.ch/coursemarket/core/validation/simple"
	"go.dedis.ch/coursemarket/crypto/ed25519"
	"go.dedis.ch/coursemarket/crypto/loader"
	"golang.org/x/xerrors"
)

// PrivateKeyFile is the name of the file holding the private key of the node
// inside the configuration folder.
const PrivateKeyFile = "private.key"

type minimal struct{}

// NewMinimal creates a new controller for the serial ordering service.
func NewMinimal() node.Initializer {
	return minimal{}
}

// SetCommands implements node.Initializer. It defines the commands to inspect
// the ordering service.
func (minimal) SetCommands(builder node.Builder) {
	cmd := builder.SetCommand("ordering")
	cmd.SetDescription("Ordering service administration")

	sub := cmd.SetSubCommand("info")
	sub.SetDescription("Display the identity of the node and the latest index")
	sub.SetAction(builder.MakeAction(infoAction{}))
}

// OnStart implements node.Initializer. It loads or creates the private key of
// the node, then starts the ordering service on top of the database.
func (minimal) OnStart(flags cli.Flags, inj node.Injector) error {
	var db kv.DB
	err := inj.Resolve(&db)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	path := filepath.Join(flags.String("config"), PrivateKeyFile)

	data, err := loader.NewFileLoader(path).LoadOrCreate(ed25519.Generator{})
	if err != nil {
		return xerrors.Errorf("signer: %v", err)
	}

	signer, err := ed25519.NewSignerFromBytes(data)
	if err != nil {
		return xerrors.Errorf("signer: %v", err)
	}

	exec := native.NewExecution()
	vs := simple.NewService(exec)

	srvc, err := serial.NewService(db, vs)
	if err != nil {
		return xerrors.Errorf("service: %v", err)
	}

	err = srvc.Listen()
	if err != nil {
		return xerrors.Errorf("service: %v", err)
	}

	addr, err := signer.GetAddress()
	if err != nil {
		return xerrors.Errorf("signer: %v", err)
	}

	coursemarket.Logger.Info().Stringer("address", addr).Msg("node identity loaded")

	inj.Inject(signer)
	inj.Inject(exec)
	inj.Inject(vs)
	inj.Inject(srvc)

	return nil
}

// OnStop implements node.Initializer. It stops the ordering service.
func (minimal) OnStop(inj node.Injector) error {
	var srvc *serial.Service
	err := inj.Resolve(&srvc)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	err = srvc.Close()
	if err != nil {
		return xerrors.Errorf("while closing service: %v", err)
	}

	return nil
}
