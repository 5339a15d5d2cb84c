package controller

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"go.dedis.ch/coursemarket/cli/node"
	"go.dedis.ch/coursemarket/contracts/course"
	"go.dedis.ch/coursemarket/contracts/course/client"
	"go.dedis.ch/coursemarket/core/execution/native"
	"go.dedis.ch/coursemarket/core/ordering"
	"go.dedis.ch/coursemarket/core/txn"
	"go.dedis.ch/coursemarket/core/txn/signed"
	"go.dedis.ch/coursemarket/crypto"
	"go.dedis.ch/coursemarket/crypto/ed25519"
	"go.dedis.ch/coursemarket/crypto/loader"
	"go.dedis.ch/coursemarket/serde/json"
	"golang.org/x/xerrors"
)

// purchaseAction is an action to purchase a course.
//
// - implements node.ActionTemplate
type purchaseAction struct{}

// Execute implements node.ActionTemplate. It submits a purchase and prints the
// hash of the course.
func (purchaseAction) Execute(ctx node.Context) error {
	id, err := course.ParseID(ctx.Flags.String("id"))
	if err != nil {
		return xerrors.Errorf("invalid id: %v", err)
	}

	proof, err := parseProof(ctx.Flags.String("proof"))
	if err != nil {
		return xerrors.Errorf("invalid proof: %v", err)
	}

	value := ctx.Flags.String("value")

	_, err = strconv.ParseUint(value, 10, 64)
	if err != nil {
		return xerrors.Errorf("invalid value: %v", err)
	}

	acc, err := loadAccount(ctx)
	if err != nil {
		return xerrors.Errorf("account: %v", err)
	}

	err = acc.submit(ctx, course.CmdPurchase,
		txn.Arg{Key: course.IDArg, Value: id[:]},
		txn.Arg{Key: course.ProofArg, Value: proof[:]},
		txn.Arg{Key: course.ValueArg, Value: []byte(value)},
	)
	if err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out, "Course: %v\n", course.HashOf(id, acc.addr))

	return nil
}

// hashAction is an action to submit a command on an existing course.
//
// - implements node.ActionTemplate
type hashAction struct {
	cmd course.Command
}

// Execute implements node.ActionTemplate. It submits the command for the
// course of the hash.
func (a hashAction) Execute(ctx node.Context) error {
	hash, err := course.ParseHash(ctx.Flags.String("hash"))
	if err != nil {
		return xerrors.Errorf("invalid hash: %v", err)
	}

	acc, err := loadAccount(ctx)
	if err != nil {
		return xerrors.Errorf("account: %v", err)
	}

	return acc.submit(ctx, a.cmd, txn.Arg{Key: course.HashArg, Value: hash[:]})
}

// transferAction is an action to transfer the ownership of the contract.
//
// - implements node.ActionTemplate
type transferAction struct{}

// Execute implements node.ActionTemplate. It submits the transfer to the new
// owner.
func (transferAction) Execute(ctx node.Context) error {
	addr, err := crypto.ParseAddress(ctx.Flags.String("owner"))
	if err != nil {
		return xerrors.Errorf("invalid owner: %v", err)
	}

	acc, err := loadAccount(ctx)
	if err != nil {
		return xerrors.Errorf("account: %v", err)
	}

	return acc.submit(ctx, course.CmdTransferOwnership,
		txn.Arg{Key: course.OwnerArg, Value: addr[:]})
}

// showAction is an action to display a course.
//
// - implements node.ActionTemplate
type showAction struct{}

// Execute implements node.ActionTemplate. It prints the JSON form of the
// course.
func (showAction) Execute(ctx node.Context) error {
	hash, err := course.ParseHash(ctx.Flags.String("hash"))
	if err != nil {
		return xerrors.Errorf("invalid hash: %v", err)
	}

	reader, err := getReader(ctx.Injector)
	if err != nil {
		return err
	}

	c, err := reader.GetCourseByHash(hash)
	if err != nil {
		return xerrors.Errorf("course %v: %v", hash, err)
	}

	data, err := c.Serialize(json.NewContext())
	if err != nil {
		return xerrors.Errorf("failed to serialize: %v", err)
	}

	fmt.Fprintf(ctx.Out, "%s\n", data)

	return nil
}

// atAction is an action to display the hash of a course by its index.
//
// - implements node.ActionTemplate
type atAction struct{}

// Execute implements node.ActionTemplate. It prints the hash of the course at
// the index.
func (atAction) Execute(ctx node.Context) error {
	index := ctx.Flags.Int("index")
	if index < 0 {
		return xerrors.Errorf("invalid index %d", index)
	}

	reader, err := getReader(ctx.Injector)
	if err != nil {
		return err
	}

	hash, err := reader.GetCourseHashAtIndex(uint64(index))
	if err != nil {
		return xerrors.Errorf("index %d: %v", index, err)
	}

	fmt.Fprintf(ctx.Out, "%v\n", hash)

	return nil
}

// countAction is an action to display the number of purchases.
//
// - implements node.ActionTemplate
type countAction struct{}

// Execute implements node.ActionTemplate.
func (countAction) Execute(ctx node.Context) error {
	reader, err := getReader(ctx.Injector)
	if err != nil {
		return err
	}

	count, err := reader.GetCourseCount()
	if err != nil {
		return xerrors.Errorf("failed to read count: %v", err)
	}

	fmt.Fprintf(ctx.Out, "%d\n", count)

	return nil
}

// ownerAction is an action to display the owner of the contract.
//
// - implements node.ActionTemplate
type ownerAction struct{}

// Execute implements node.ActionTemplate.
func (ownerAction) Execute(ctx node.Context) error {
	reader, err := getReader(ctx.Injector)
	if err != nil {
		return err
	}

	addr, err := reader.GetContractOwner()
	if err != nil {
		return xerrors.Errorf("failed to read owner: %v", err)
	}

	fmt.Fprintf(ctx.Out, "%v\n", addr)

	return nil
}

// walletAction is an action to display what the user interface shows about
// the wallet of a user.
//
// - implements node.ActionTemplate
type walletAction struct{}

// Execute implements node.ActionTemplate. It prints the account, the network
// and the courses of the catalogue owned by the account.
func (walletAction) Execute(ctx node.Context) error {
	var cfg client.Config
	err := ctx.Injector.Resolve(&cfg)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	reader, err := getReader(ctx.Injector)
	if err != nil {
		return err
	}

	var accounts []crypto.Address

	for _, text := range ctx.Flags.StringSlice("account") {
		addr, err := crypto.ParseAddress(text)
		if err != nil {
			return xerrors.Errorf("invalid account: %v", err)
		}

		accounts = append(accounts, addr)
	}

	if len(accounts) == 0 {
		var signer crypto.Signer
		err = ctx.Injector.Resolve(&signer)
		if err != nil {
			return xerrors.Errorf("injector: %v", err)
		}

		addr, err := crypto.AddressOf(signer.GetPublicKey())
		if err != nil {
			return xerrors.Errorf("signer: %v", err)
		}

		accounts = append(accounts, addr)
	}

	network := ctx.Flags.String("network")
	if network == "" {
		network = cfg.Network
	}

	c := client.NewClient(client.NewStaticWallet(network, accounts...), reader, cfg)

	printWallet(ctx.Out, c)

	return nil
}

func printWallet(out io.Writer, c *client.Client) {
	info := c.WalletInfo()

	if info.Account.Err != nil {
		fmt.Fprintf(out, "Account: %v\n", info.Account.Err)
	} else {
		role := "user"
		if info.Account.IsAdmin {
			role = "admin"
		}

		fmt.Fprintf(out, "Account: %v (%s)\n", info.Account.Data, role)
	}

	if info.Network.Err != nil {
		fmt.Fprintf(out, "Network: %v\n", info.Network.Err)
	} else {
		fmt.Fprintf(out, "Network: %s (supported: %t)\n",
			info.Network.Data, info.Network.IsSupported)
	}

	fmt.Fprintf(out, "Can purchase: %t\n", info.CanPurchaseCourse)

	owned := c.OwnedCourses()
	if owned.Err != nil {
		fmt.Fprintf(out, "Owned courses: %v\n", owned.Err)
		return
	}

	fmt.Fprintf(out, "Owned courses: %d\n", len(owned.Data))

	for _, oc := range owned.Data {
		fmt.Fprintf(out, "- %s %v (%v)\n", oc.Title, oc.Hash, oc.Record.State)
	}
}

// account is the sender of the transactions of an action.
type account struct {
	mgr  txn.Manager
	addr crypto.Address
}

// loadAccount returns the account of the key file when provided, otherwise
// the account of the node.
func loadAccount(ctx node.Context) (account, error) {
	path := ctx.Flags.Path("key")
	if path == "" {
		return nodeAccount(ctx.Injector)
	}

	data, err := loader.NewFileLoader(path).Load()
	if err != nil {
		return account{}, xerrors.Errorf("failed to load key: %v", err)
	}

	signer, err := ed25519.NewSignerFromBytes(data)
	if err != nil {
		return account{}, xerrors.Errorf("failed to unmarshal signer: %v", err)
	}

	var nonces signed.Client
	err = ctx.Injector.Resolve(&nonces)
	if err != nil {
		return account{}, xerrors.Errorf("injector: %v", err)
	}

	addr, err := signer.GetAddress()
	if err != nil {
		return account{}, xerrors.Errorf("signer: %v", err)
	}

	return account{mgr: signed.NewManager(signer, nonces), addr: addr}, nil
}

func nodeAccount(inj node.Injector) (account, error) {
	var mgr txn.Manager
	err := inj.Resolve(&mgr)
	if err != nil {
		return account{}, xerrors.Errorf("injector: %v", err)
	}

	var signer crypto.Signer
	err = inj.Resolve(&signer)
	if err != nil {
		return account{}, xerrors.Errorf("injector: %v", err)
	}

	addr, err := crypto.AddressOf(signer.GetPublicKey())
	if err != nil {
		return account{}, xerrors.Errorf("signer: %v", err)
	}

	return account{mgr: mgr, addr: addr}, nil
}

// submit creates a transaction for the command and waits until it is
// accepted or refused.
func (acc account) submit(ctx node.Context, cmd course.Command, args ...txn.Arg) error {
	var srvc ordering.Service
	err := ctx.Injector.Resolve(&srvc)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	err = acc.mgr.Sync()
	if err != nil {
		return xerrors.Errorf("failed to sync manager: %v", err)
	}

	args = append(args,
		txn.Arg{Key: native.ContractArg, Value: []byte(course.ContractName)},
		txn.Arg{Key: course.CmdArg, Value: []byte(cmd)},
	)

	tx, err := acc.mgr.Make(args...)
	if err != nil {
		return xerrors.Errorf("failed to create transaction: %v", err)
	}

	submitCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	res, err := srvc.Submit(submitCtx, tx)
	if err != nil {
		return xerrors.Errorf("failed to submit: %v", err)
	}

	accepted, reason := res.GetStatus()
	if !accepted {
		return xerrors.Errorf("transaction refused: %s (%v check)", reason, res.GetRefusal())
	}

	fmt.Fprintf(ctx.Out, "Transaction %x accepted\n", tx.GetID())

	return nil
}

func getReader(inj node.Injector) (course.Reader, error) {
	var srvc ordering.Service
	err := inj.Resolve(&srvc)
	if err != nil {
		return course.Reader{}, xerrors.Errorf("injector: %v", err)
	}

	var access course.AccessService
	err = inj.Resolve(&access)
	if err != nil {
		return course.Reader{}, xerrors.Errorf("injector: %v", err)
	}

	return course.NewReader(srvc.GetStore(), access), nil
}

func parseProof(text string) (course.Proof, error) {
	hash, err := course.ParseHash(text)
	if err != nil {
		return course.Proof{}, err
	}

	return course.Proof(hash), nil
}
