// Package ucli builds the command line application with urfave/cli.
//
// Every flag can also be set with an environment variable made of the prefix
// of the application and the name of the flag, like COURSEMARKET_CONFIG for
// the flag "config".
package ucli

import (
	"fmt"
	"strings"

	urfave "github.com/urfave/cli/v2"
	"go.dedis.ch/coursemarket/cli"
)

// Builder is the application builder.
//
// - implements cli.Builder
type Builder struct {
	name     string
	usage    string
	flags    []cli.Flag
	commands []*cmdBuilder
}

// NewBuilder returns a builder for the application. The flags are available to
// every command.
func NewBuilder(name, usage string, flags ...cli.Flag) *Builder {
	return &Builder{
		name:  name,
		usage: usage,
		flags: flags,
	}
}

// SetCommand implements cli.Builder.
func (b *Builder) SetCommand(name string) cli.CommandBuilder {
	cmd := &cmdBuilder{name: name}
	b.commands = append(b.commands, cmd)

	return cmd
}

// Build implements cli.Builder. It returns the urfave application.
func (b *Builder) Build() cli.Application {
	env := envPrefix(b.name)

	app := &urfave.App{
		Name:                 b.name,
		Usage:                b.usage,
		HideVersion:          true,
		EnableBashCompletion: true,
		Flags:                buildFlags(env, b.flags),
		Commands:             buildCommands(env, b.commands),
	}

	app.Setup()

	return app
}

// cmdBuilder is the builder of a command.
//
// - implements cli.CommandBuilder
type cmdBuilder struct {
	name        string
	description string
	action      cli.Action
	flags       []cli.Flag
	subcommands []*cmdBuilder
}

// SetDescription implements cli.CommandBuilder.
func (b *cmdBuilder) SetDescription(value string) {
	b.description = value
}

// SetFlags implements cli.CommandBuilder. It replaces the flags of the command.
func (b *cmdBuilder) SetFlags(flags ...cli.Flag) {
	b.flags = flags
}

// SetAction implements cli.CommandBuilder.
func (b *cmdBuilder) SetAction(action cli.Action) {
	b.action = action
}

// SetSubCommand implements cli.CommandBuilder.
func (b *cmdBuilder) SetSubCommand(name string) cli.CommandBuilder {
	sub := &cmdBuilder{name: name}
	b.subcommands = append(b.subcommands, sub)

	return sub
}

func buildCommands(env string, cmds []*cmdBuilder) []*urfave.Command {
	commands := make([]*urfave.Command, len(cmds))

	for i, cmd := range cmds {
		commands[i] = &urfave.Command{
			Name:        cmd.name,
			Usage:       cmd.description,
			Action:      makeAction(cmd.action),
			Flags:       buildFlags(env, cmd.flags),
			Subcommands: buildCommands(env, cmd.subcommands),
		}
	}

	return commands
}

func buildFlags(env string, flags []cli.Flag) []urfave.Flag {
	res := make([]urfave.Flag, len(flags))

	for i, f := range flags {
		res[i] = buildFlag(env, f)
	}

	return res
}

func buildFlag(env string, f cli.Flag) urfave.Flag {
	switch e := f.(type) {
	case cli.StringFlag:
		return &urfave.StringFlag{
			Name:     e.Name,
			Usage:    e.Usage,
			Required: e.Required,
			Value:    e.Value,
			EnvVars:  envVars(env, e.Name),
		}
	case cli.StringSliceFlag:
		return &urfave.StringSliceFlag{
			Name:     e.Name,
			Usage:    e.Usage,
			Required: e.Required,
			Value:    urfave.NewStringSlice(e.Value...),
			EnvVars:  envVars(env, e.Name),
		}
	case cli.IntFlag:
		return &urfave.IntFlag{
			Name:     e.Name,
			Usage:    e.Usage,
			Required: e.Required,
			Value:    e.Value,
			EnvVars:  envVars(env, e.Name),
		}
	case cli.BoolFlag:
		return &urfave.BoolFlag{
			Name:    e.Name,
			Usage:   e.Usage,
			Value:   e.Value,
			EnvVars: envVars(env, e.Name),
		}
	default:
		panic(fmt.Sprintf("flag type '%T' not supported", f))
	}
}

func envPrefix(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_")) + "_"
}

func envVars(prefix, name string) []string {
	return []string{prefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))}
}

func makeAction(action cli.Action) urfave.ActionFunc {
	if action == nil {
		return nil
	}

	return func(ctx *urfave.Context) error {
		return action(ctx)
	}
}
