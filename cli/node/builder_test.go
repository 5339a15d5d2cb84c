package node

import (
	"flag"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
	urfave "github.com/urfave/cli/v2"
	"go.dedis.ch/coursemarket/cli"
	"go.dedis.ch/coursemarket/internal/testing/fake"
)

func TestCLIBuilder_SetStartFlags(t *testing.T) {
	builder := NewBuilder()

	builder.SetStartFlags(cli.StringFlag{Name: "network"})
	builder.SetStartFlags(cli.StringFlag{Name: "client-config"})
	require.Len(t, builder.startFlags, 2)
}

func TestCLIBuilder_Start(t *testing.T) {
	dir := t.TempDir()

	calls := &fake.Call{}

	builder := NewBuilderWithCfg(make(chan os.Signal, 1), nil,
		fakeInitializer{name: "db", calls: calls},
		fakeInitializer{name: "ordering", calls: calls})

	builder.sigs <- syscall.SIGTERM

	err := builder.start(fakeContext{path: dir})
	require.NoError(t, err)

	// The components are stopped in the reverse order.
	require.Equal(t, []string{"start db", "start ordering", "stop ordering", "stop db"},
		callNames(calls))

	if runtime.GOOS != "windows" {
		file := filepath.Join(dir, "file")
		require.NoError(t, os.WriteFile(file, []byte{}, 0600))

		err = builder.start(fakeContext{path: filepath.Join(file, "sub")})
		require.Error(t, err)
		require.Contains(t, err.Error(), "couldn't make path: ")
	}

	builder.factory = fakeFactory{err: fake.GetError()}
	err = builder.start(fakeContext{})
	require.EqualError(t, err, fake.Err("couldn't make daemon"))
}

func TestCLIBuilder_FailStart_Start(t *testing.T) {
	calls := &fake.Call{}

	builder := NewBuilderWithCfg(make(chan os.Signal, 1), nil,
		fakeInitializer{name: "db", calls: calls},
		fakeInitializer{name: "ordering", calls: calls, err: fake.GetError()},
		fakeInitializer{name: "course", calls: calls})

	builder.factory = fakeFactory{}

	err := builder.start(fakeContext{})
	require.EqualError(t, err, fake.Err("couldn't run the controller"))

	// The database is closed even if the ordering service failed.
	require.Equal(t, []string{"start db", "start ordering", "stop db"}, callNames(calls))

	calls = &fake.Call{}
	builder = NewBuilderWithCfg(make(chan os.Signal, 1), nil,
		fakeInitializer{name: "db", calls: calls})

	builder.factory = fakeFactory{errDaemon: fake.GetError()}

	err = builder.start(fakeContext{})
	require.EqualError(t, err, fake.Err("couldn't start the daemon"))
	require.Equal(t, []string{"start db", "stop db"}, callNames(calls))
}

func TestCLIBuilder_FailStop_Start(t *testing.T) {
	calls := &fake.Call{}

	builder := NewBuilderWithCfg(make(chan os.Signal, 1), nil,
		fakeInitializer{name: "db", calls: calls},
		fakeInitializer{name: "ordering", calls: calls, errStop: fake.GetError()})

	builder.factory = fakeFactory{}
	builder.sigs <- syscall.SIGTERM

	err := builder.start(fakeContext{})
	require.EqualError(t, err, fake.Err("couldn't stop controller"))

	// A failure does not prevent the other components from stopping.
	require.Equal(t, []string{"start db", "start ordering", "stop ordering", "stop db"},
		callNames(calls))
}

func TestCLIBuilder_MakeAction(t *testing.T) {
	calls := &fake.Call{}

	builder := NewBuilder()
	builder.factory = fakeFactory{calls: calls}

	app := &urfave.App{
		Flags: []urfave.Flag{&urfave.StringFlag{Name: "config"}},
	}

	global := flag.NewFlagSet("", 0)
	global.String("config", "", "")
	require.NoError(t, global.Set("config", "node1"))

	local := flag.NewFlagSet("wallet", 0)
	local.Var(urfave.NewStringSlice("0xaa", "0xbb"), "account", "")
	local.Int("index", 2, "")

	// The application context has a parent without application.
	root := urfave.NewContext(nil, flag.NewFlagSet("", 0), nil)
	parent := urfave.NewContext(app, global, root)
	ctx := urfave.NewContext(app, local, parent)
	ctx.Command = &urfave.Command{
		Name: "wallet",
		Flags: []urfave.Flag{
			&urfave.StringSliceFlag{Name: "account"},
			&urfave.IntFlag{Name: "index"},
		},
	}

	builder.MakeAction(fakeAction{})
	err := builder.MakeAction(fakeAction{})(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, calls.Len())

	req := calls.Get(0, 0).(request)
	require.Equal(t, uint16(1), req.Action)
	require.Equal(t, "node1", req.Flags.Path("config"))
	require.Equal(t, []string{"0xaa", "0xbb"}, req.Flags.StringSlice("account"))
	require.Equal(t, 2, req.Flags.Int("index"))

	builder.factory = fakeFactory{err: fake.GetError()}
	err = builder.MakeAction(fakeAction{})(ctx)
	require.EqualError(t, err, fake.Err("couldn't make client"))

	builder.factory = fakeFactory{errClient: fake.GetError()}
	err = builder.MakeAction(fakeAction{})(ctx)
	require.EqualError(t, err, fake.Err("couldn't send action"))
}

func TestCLIBuilder_Build(t *testing.T) {
	builder := NewBuilder(fakeInitializer{name: "course"})
	builder.SetStartFlags(cli.StringFlag{Name: "network"})

	cmd := builder.SetCommand("course")
	cmd.SetSubCommand("count").SetAction(builder.MakeAction(fakeAction{}))

	builder.SetCommand("key")

	app := builder.Build().(*urfave.App)
	require.Equal(t, AppName, app.Name)
	require.Len(t, app.Commands, 4)
	require.Equal(t, "course", app.Commands[0].Name)
	require.Equal(t, "start", app.Commands[2].Name)
	require.Equal(t, "network", app.Commands[2].Flags[0].Names()[0])
	require.Equal(t, "help", app.Commands[3].Name)
}

func TestActionMap_Get(t *testing.T) {
	actions := &actionMap{}

	require.Equal(t, uint16(0), actions.Set(fakeAction{}))
	require.Equal(t, uint16(1), actions.Set(fakeAction{out: "2"}))
	require.Equal(t, fakeAction{out: "2"}, actions.Get(1))
	require.Nil(t, actions.Get(2))
}

// -----------------------------------------------------------------------------
// Utility functions

func callNames(calls *fake.Call) []string {
	names := make([]string, calls.Len())
	for i := range names {
		names[i] = calls.Get(i, 0).(string)
	}

	return names
}
