// Package cli defines how the commands of the node are declared, independently
// of the library that parses the command line.
//
// A component declares its commands on a builder:
//
//	cmd := builder.SetCommand("course")
//	sub := cmd.SetSubCommand("count")
//	sub.SetDescription("print the number of purchased courses")
//	sub.SetAction(func(flags cli.Flags) error {
//		...
//	})
package cli

// Builder collects the commands of the application.
type Builder interface {
	// SetCommand creates a top-level command and returns its builder.
	SetCommand(name string) CommandBuilder

	Build() Application
}

// Application is the command line application.
type Application interface {
	Run(arguments []string) error
}

// CommandBuilder defines a command and its subcommands.
type CommandBuilder interface {
	SetDescription(value string)
	SetFlags(...Flag)
	SetAction(Action)
	SetSubCommand(name string) CommandBuilder
}

// Action is executed when its command is invoked.
type Action func(Flags) error

// Flags gives an action the values of the flags of its command and of the
// parent commands. A flag that is not set returns the zero value.
type Flags interface {
	String(name string) string
	StringSlice(name string) []string
	Path(name string) string
	Int(name string) int
	Bool(name string) bool
}
