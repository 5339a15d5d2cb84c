package node

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	urfave "github.com/urfave/cli/v2"
	"go.dedis.ch/coursemarket"
	"go.dedis.ch/coursemarket/cli"
	"go.dedis.ch/coursemarket/cli/ucli"
	"golang.org/x/xerrors"
)

const (
	// AppName is the name of the application. It is also the prefix of the
	// environment variables of the flags.
	AppName = "coursemarket"

	// DefaultConfig is the default folder of the node configuration.
	DefaultConfig = ".coursemarket"

	appUsage = "node of the course marketplace"
)

// CLIBuilder builds the application of a node from its initializers.
//
// - implements node.Builder
// - implements cli.Builder
type CLIBuilder struct {
	cli.Builder

	factory    daemonFactory
	injector   Injector
	actions    *actionMap
	startFlags []cli.Flag
	inits      []Initializer

	// The signals are only listened to when the builder owns the channel.
	// Otherwise the caller stops the node by sending to it.
	ownSignals bool
	sigs       chan os.Signal
}

// NewBuilder returns a builder that writes the results of the commands to the
// standard output.
func NewBuilder(inits ...Initializer) *CLIBuilder {
	return NewBuilderWithCfg(nil, nil, inits...)
}

// NewBuilderWithCfg returns a builder that stops the node when the channel is
// populated, and writes the results of the commands to the writer.
func NewBuilderWithCfg(sigs chan os.Signal, out io.Writer, inits ...Initializer) *CLIBuilder {
	if out == nil {
		out = os.Stdout
	}

	own := sigs == nil
	if own {
		sigs = make(chan os.Signal, 1)
	}

	injector := NewInjector()
	actions := &actionMap{}

	return &CLIBuilder{
		Builder: ucli.NewBuilder(AppName, appUsage, cli.StringFlag{
			Name:  "config",
			Usage: "path to the config folder",
			Value: DefaultConfig,
		}),
		factory: socketFactory{
			injector: injector,
			actions:  actions,
			out:      out,
		},
		injector:   injector,
		actions:    actions,
		inits:      inits,
		ownSignals: own,
		sigs:       sigs,
	}
}

// SetStartFlags implements node.Builder.
func (b *CLIBuilder) SetStartFlags(flags ...cli.Flag) {
	b.startFlags = append(b.startFlags, flags...)
}

// MakeAction implements node.Builder. The action sends the flags of the
// command line to the running node, which executes the template with them.
func (b *CLIBuilder) MakeAction(tmpl ActionTemplate) cli.Action {
	index := b.actions.Set(tmpl)

	return func(flags cli.Flags) error {
		client, err := b.factory.clientFor(flags)
		if err != nil {
			return xerrors.Errorf("couldn't make client: %v", err)
		}

		fset := make(FlagSet)

		ctx, ok := flags.(*urfave.Context)
		if ok {
			lookupFlags(fset, ctx)
		}

		err = client.Send(request{Action: index, Flags: fset})
		if err != nil {
			return xerrors.Errorf("couldn't send action: %v", err)
		}

		return nil
	}
}

// lookupFlags collects the flags of the command and of its parents. The values
// are read from the command context so that a flag of a command hides the flag
// of a parent with the same name.
func lookupFlags(fset FlagSet, ctx *urfave.Context) {
	for _, ancestor := range ctx.Lineage() {
		if ancestor.App != nil {
			fill(fset, ancestor.App.Flags, ctx)
		}

		if ancestor.Command != nil {
			fill(fset, ancestor.Command.Flags, ctx)
		}
	}
}

func fill(fset FlagSet, flags []urfave.Flag, ctx *urfave.Context) {
	for _, flag := range flags {
		names := flag.Names()
		if len(names) == 0 {
			continue
		}

		name := names[0]

		switch flag.(type) {
		case *urfave.StringFlag:
			fset[name] = ctx.String(name)
		case *urfave.StringSliceFlag:
			fset[name] = ctx.StringSlice(name)
		case *urfave.IntFlag:
			fset[name] = ctx.Int(name)
		case *urfave.BoolFlag:
			fset[name] = ctx.Bool(name)
		}
	}
}

// Build implements cli.Builder. It adds the commands of the initializers and
// the start command.
func (b *CLIBuilder) Build() cli.Application {
	for _, init := range b.inits {
		init.SetCommands(b)
	}

	cmd := b.SetCommand("start")
	cmd.SetDescription("start the node")
	cmd.SetFlags(b.startFlags...)
	cmd.SetAction(b.start)

	return b.Builder.Build()
}

func (b *CLIBuilder) start(flags cli.Flags) error {
	if b.ownSignals {
		signal.Notify(b.sigs, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(b.sigs)
	}

	dir := flags.Path("config")
	if dir != "" {
		err := os.MkdirAll(dir, 0700)
		if err != nil {
			return xerrors.Errorf("couldn't make path: %v", err)
		}
	}

	daemon, err := b.factory.daemonFor(flags)
	if err != nil {
		return xerrors.Errorf("couldn't make daemon: %v", err)
	}

	for i, init := range b.inits {
		err = init.OnStart(flags, b.injector)
		if err != nil {
			b.stop(i)
			return xerrors.Errorf("couldn't run the controller: %v", err)
		}
	}

	// The commands are accepted once every component is running.
	err = daemon.Listen()
	if err != nil {
		b.stop(len(b.inits))
		return xerrors.Errorf("couldn't start the daemon: %v", err)
	}

	coursemarket.Logger.Info().
		Str("config", dir).
		Int("components", len(b.inits)).
		Msg("node has started")

	sig := <-b.sigs

	daemon.Close()

	coursemarket.Logger.Info().Str("signal", fmt.Sprint(sig)).Msg("stopping the node")

	err = b.stop(len(b.inits))
	if err != nil {
		return xerrors.Errorf("couldn't stop controller: %v", err)
	}

	coursemarket.Logger.Info().Str("config", dir).Msg("node has been stopped")

	return nil
}

// stop stops the n first initializers in the reverse order. It returns the
// first error but tries to stop every initializer.
func (b *CLIBuilder) stop(n int) error {
	var first error

	for i := n - 1; i >= 0; i-- {
		err := b.inits[i].OnStop(b.injector)
		if err != nil {
			coursemarket.Logger.Err(err).Msgf("failed to stop %T", b.inits[i])

			if first == nil {
				first = err
			}
		}
	}

	return first
}

// actionMap is the list of the action templates of the application. The index
// of a template is the identifier sent by the command line.
type actionMap struct {
	list []ActionTemplate
}

func (m *actionMap) Set(a ActionTemplate) uint16 {
	m.list = append(m.list, a)
	return uint16(len(m.list) - 1)
}

func (m *actionMap) Get(index uint16) ActionTemplate {
	if int(index) >= len(m.list) {
		return nil
	}

	return m.list[index]
}
