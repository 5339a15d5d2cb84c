// Package controller implements the initializer of the course contract. It
// registers the contract, deploys it the first time the node starts, and
// defines the commands to interact with the marketplace.
package controller

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.dedis.ch/coursemarket"
	"go.dedis.ch/coursemarket/cli"
	"go.dedis.ch/coursemarket/cli/node"
	"go.dedis.ch/coursemarket/contracts/course"
	"go.dedis.ch/coursemarket/contracts/course/client"
	"go.dedis.ch/coursemarket/core/access/owner"
	"go.dedis.ch/coursemarket/core/execution/native"
	"go.dedis.ch/coursemarket/core/store"
	"go.dedis.ch/coursemarket/crypto"
	"golang.org/x/xerrors"
)

const (
	// ClientConfigFile is the name of the client configuration inside the
	// configuration folder.
	ClientConfigFile = "client.yml"

	// DefaultNetwork is the name of the network when none is provided.
	DefaultNetwork = "local"

	defaultPrefix = "/course"

	timeout = 10 * time.Second
)

// genesisService is the part of the ordering service that initializes the
// state.
type genesisService interface {
	Genesis(ctx context.Context, fn func(store.Snapshot) error) (bool, error)
}

// miniController is the initializer of the course contract.
//
// - implements node.Initializer
type miniController struct{}

// NewController creates a new controller for the course contract.
func NewController() node.Initializer {
	return miniController{}
}

// SetCommands implements node.Initializer. It defines the commands to submit
// transactions to the contract and to read its state.
func (miniController) SetCommands(builder node.Builder) {
	builder.SetStartFlags(cli.StringFlag{
		Name:     "network",
		Usage:    "name of the network the node belongs to",
		Required: false,
		Value:    DefaultNetwork,
	})

	keyFlag := cli.StringFlag{
		Name:     "key",
		Usage:    "path to the private key of the sender, the node key by default",
		Required: false,
	}

	hashFlag := cli.StringFlag{
		Name:     "hash",
		Usage:    "hash of the course in hexadecimal",
		Required: true,
	}

	cmd := builder.SetCommand("course")
	cmd.SetDescription("Course marketplace")

	sub := cmd.SetSubCommand("purchase")
	sub.SetDescription("purchase a course")
	sub.SetFlags(
		cli.StringFlag{
			Name:     "id",
			Usage:    "identifier of the course, as text or 0x prefixed hexadecimal",
			Required: true,
		},
		cli.StringFlag{
			Name:     "proof",
			Usage:    "proof of the purchase, 32 bytes in hexadecimal",
			Required: true,
		},
		cli.StringFlag{
			Name:     "value",
			Usage:    "amount paid for the course",
			Required: false,
			Value:    "0",
		},
		keyFlag,
	)
	sub.SetAction(builder.MakeAction(purchaseAction{}))

	sub = cmd.SetSubCommand("activate")
	sub.SetDescription("activate a purchased course")
	sub.SetFlags(hashFlag, keyFlag)
	sub.SetAction(builder.MakeAction(hashAction{cmd: course.CmdActivate}))

	sub = cmd.SetSubCommand("deactivate")
	sub.SetDescription("deactivate a course")
	sub.SetFlags(hashFlag, keyFlag)
	sub.SetAction(builder.MakeAction(hashAction{cmd: course.CmdDeactivate}))

	sub = cmd.SetSubCommand("transfer")
	sub.SetDescription("transfer the ownership of the contract")
	sub.SetFlags(
		cli.StringFlag{
			Name:     "owner",
			Usage:    "address of the new owner",
			Required: true,
		},
		keyFlag,
	)
	sub.SetAction(builder.MakeAction(transferAction{}))

	sub = cmd.SetSubCommand("show")
	sub.SetDescription("display the course with the given hash")
	sub.SetFlags(hashFlag)
	sub.SetAction(builder.MakeAction(showAction{}))

	sub = cmd.SetSubCommand("at")
	sub.SetDescription("display the hash of the course at the given index")
	sub.SetFlags(cli.IntFlag{
		Name:     "index",
		Usage:    "index of the purchase",
		Required: true,
	})
	sub.SetAction(builder.MakeAction(atAction{}))

	sub = cmd.SetSubCommand("count")
	sub.SetDescription("display the number of purchases")
	sub.SetAction(builder.MakeAction(countAction{}))

	sub = cmd.SetSubCommand("owner")
	sub.SetDescription("display the owner of the contract")
	sub.SetAction(builder.MakeAction(ownerAction{}))

	sub = cmd.SetSubCommand("wallet")
	sub.SetDescription("display the wallet information and the owned courses")
	sub.SetFlags(
		cli.StringSliceFlag{
			Name:     "account",
			Usage:    "address of an account of the wallet, the node by default",
			Required: false,
		},
		cli.StringFlag{
			Name:     "network",
			Usage:    "network the wallet is connected to, the node network by default",
			Required: false,
		},
	)
	sub.SetAction(builder.MakeAction(walletAction{}))

	sub = cmd.SetSubCommand("proxy")
	sub.SetDescription("register the read endpoints on the proxy")
	sub.SetFlags(cli.StringFlag{
		Name:     "prefix",
		Usage:    "prefix of the paths of the endpoints",
		Required: false,
		Value:    defaultPrefix,
	})
	sub.SetAction(builder.MakeAction(proxyAction{}))
}

// OnStart implements node.Initializer. It registers the contract and deploys
// it with the node identity as the owner if the state is new.
func (miniController) OnStart(flags cli.Flags, inj node.Injector) error {
	var exec *native.Service
	err := inj.Resolve(&exec)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	var genesis genesisService
	err = inj.Resolve(&genesis)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	var signer crypto.Signer
	err = inj.Resolve(&signer)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	cfg, err := loadClientConfig(flags)
	if err != nil {
		return xerrors.Errorf("client: %v", err)
	}

	srvc := owner.NewService()

	err = course.RegisterContract(exec, course.NewContract(srvc))
	if err != nil {
		return xerrors.Errorf("contract: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	deployed, err := genesis.Genesis(ctx, func(snap store.Snapshot) error {
		return course.Deploy(snap, srvc, signer.GetPublicKey())
	})
	if err != nil {
		return xerrors.Errorf("deploy: %v", err)
	}

	if deployed {
		coursemarket.Logger.Info().Msg("course contract deployed")
	}

	inj.Inject(srvc)
	inj.Inject(cfg)

	return nil
}

// OnStop implements node.Initializer. It does nothing.
func (miniController) OnStop(node.Injector) error {
	return nil
}

// loadClientConfig reads the client configuration from the configuration
// folder, or returns a default one for the network of the node.
func loadClientConfig(flags cli.Flags) (client.Config, error) {
	cfg := client.Config{}

	path := filepath.Join(flags.String("config"), ClientConfigFile)

	_, err := os.Stat(path)
	if err == nil {
		cfg, err = client.LoadConfig(path)
		if err != nil {
			return cfg, err
		}
	}

	if cfg.Network == "" {
		cfg.Network = flags.String("network")
	}

	if cfg.Network == "" {
		cfg.Network = DefaultNetwork
	}

	return cfg, nil
}
