// Package node builds the command line application of a node.
//
// The application has a start command that runs the node until it receives a
// signal, and every other command sends a request to the running node over a
// UNIX socket in the configuration folder. The components of the node are
// initializers: they declare their commands, then start their services and
// inject them so that the actions executed on the node can resolve them.
package node

import (
	"io"

	"go.dedis.ch/coursemarket/cli"
)

// Builder is given to the initializers to declare their commands.
type Builder interface {
	SetCommand(name string) cli.CommandBuilder

	// SetStartFlags adds flags to the start command.
	SetStartFlags(...cli.Flag)

	// MakeAction returns a command action that executes the template on the
	// running node.
	MakeAction(ActionTemplate) cli.Action
}

// ActionTemplate is an action executed on the running node.
type ActionTemplate interface {
	Execute(Context) error
}

// Context is given to an action template. The output is forwarded to the
// command line.
type Context struct {
	Injector Injector
	Flags    cli.Flags
	Out      io.Writer
}

// Injector holds the services of the running node.
type Injector interface {
	// Resolve populates the pointer with the most recent dependency that can
	// be assigned to it.
	Resolve(interface{}) error

	// Inject adds the dependency. It replaces a previous dependency of the
	// same type.
	Inject(interface{})
}

// Initializer is a component of the node.
type Initializer interface {
	SetCommands(Builder)

	// OnStart starts the services and injects them.
	OnStart(cli.Flags, Injector) error

	// OnStop stops the services. The initializers are stopped in the reverse
	// order of the start.
	OnStop(Injector) error
}
