// Package command defines the cli commands to manage the ed25519 keys of the
// node and of the clients.
package command

import (
	"os"

	"go.dedis.ch/coursemarket/cli"
	"go.dedis.ch/coursemarket/cli/node"
	"go.dedis.ch/coursemarket/crypto/ed25519"
)

// Initializer creates the key commands. The actions are executed by the CLI
// process and do not need a running daemon.
//
// - implements node.Initializer
type Initializer struct{}

// NewInitializer returns a new key initializer.
func NewInitializer() Initializer {
	return Initializer{}
}

// SetCommands implements node.Initializer. It creates the commands to generate
// and display keys.
func (Initializer) SetCommands(builder node.Builder) {
	action := action{
		printer:   os.Stdout,
		genSigner: ed25519.Generator{}.Generate,
		getSigner: ed25519.NewSignerFromBytes,
		readFile:  os.ReadFile,
		saveFile:  saveToFile,
	}

	cmd := builder.SetCommand("key")
	cmd.SetDescription("manage the ed25519 keys")

	sub := cmd.SetSubCommand("new")
	sub.SetDescription("create a new private key")
	sub.SetFlags(cli.StringFlag{
		Name:  "save",
		Usage: "if provided, save the private key to that file",
	}, cli.BoolFlag{
		Name:  "force",
		Usage: "overwrite the file if it exists",
	})
	sub.SetAction(action.newKeyAction)

	sub = cmd.SetSubCommand("show")
	sub.SetDescription("display a public information of a private key")
	sub.SetFlags(cli.StringFlag{
		Name:     "path",
		Usage:    "path to the private key file",
		Required: true,
	}, cli.StringFlag{
		Name:  "format",
		Usage: "output format: [ADDRESS | PUBKEY | BASE64_PUBKEY]",
		Value: Address,
	})
	sub.SetAction(action.showKeyAction)
}

// OnStart implements node.Initializer. It does nothing.
func (Initializer) OnStart(cli.Flags, node.Injector) error {
	return nil
}

// OnStop implements node.Initializer. It does nothing.
func (Initializer) OnStop(node.Injector) error {
	return nil
}
