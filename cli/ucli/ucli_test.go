package ucli

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	urfave "github.com/urfave/cli/v2"
	"go.dedis.ch/coursemarket/cli"
	"golang.org/x/xerrors"
)

func TestBuilder_Build(t *testing.T) {
	builder := NewBuilder("coursemarket", "course marketplace node",
		cli.StringFlag{Name: "config", Value: ".coursemarket"})

	app := builder.Build().(*urfave.App)
	app.Writer = io.Discard

	require.Equal(t, "coursemarket", app.Name)
	require.Equal(t, "course marketplace node", app.Usage)
	require.True(t, app.EnableBashCompletion)
	require.Equal(t, []string{"COURSEMARKET_CONFIG"},
		app.Flags[0].(*urfave.StringFlag).EnvVars)

	require.NoError(t, app.Run([]string{"coursemarket"}))
}

func TestBuilder_SetCommand(t *testing.T) {
	builder := NewBuilder("coursemarket", "")

	cmd := builder.SetCommand("course")
	cmd.SetDescription("interact with the course contract")
	cmd.SetSubCommand("purchase")
	cmd.SetSubCommand("count")

	builder.SetCommand("key")

	app := builder.Build().(*urfave.App)
	require.Len(t, app.Commands, 3)
	require.Equal(t, "course", app.Commands[0].Name)
	require.Equal(t, "interact with the course contract", app.Commands[0].Usage)
	require.Len(t, app.Commands[0].Subcommands, 2)
	require.Equal(t, "count", app.Commands[0].Subcommands[1].Name)
	require.Equal(t, "key", app.Commands[1].Name)
	require.Equal(t, "help", app.Commands[2].Name)
}

func TestBuilder_Run(t *testing.T) {
	var key string
	var accounts []string
	var index int
	var force bool

	builder := NewBuilder("coursemarket", "", cli.StringFlag{Name: "config"})

	cmd := builder.SetCommand("course").SetSubCommand("wallet")
	cmd.SetFlags(
		cli.StringFlag{Name: "key"},
		cli.StringSliceFlag{Name: "account"},
		cli.IntFlag{Name: "index", Value: 3},
		cli.BoolFlag{Name: "force"},
	)
	cmd.SetAction(func(flags cli.Flags) error {
		key = flags.Path("key")
		accounts = flags.StringSlice("account")
		index = flags.Int("index")
		force = flags.Bool("force")

		return nil
	})

	t.Setenv("COURSEMARKET_KEY", "buyer.key")

	app := builder.Build()

	err := app.Run([]string{"coursemarket", "course", "wallet",
		"--account", "0xaa", "--account", "0xbb", "--force"})
	require.NoError(t, err)
	require.Equal(t, "buyer.key", key)
	require.Equal(t, []string{"0xaa", "0xbb"}, accounts)
	require.Equal(t, 3, index)
	require.True(t, force)

	cmd.SetAction(func(cli.Flags) error {
		return xerrors.New("oops")
	})

	err = builder.Build().Run([]string{"coursemarket", "course", "wallet"})
	require.EqualError(t, err, "oops")
}

func TestBuildFlag_Unsupported(t *testing.T) {
	defer func() {
		require.Equal(t, "flag type '<nil>' not supported", recover())
	}()

	buildFlag("COURSEMARKET_", nil)
}

func TestEnvVars(t *testing.T) {
	require.Equal(t, "COURSE_MARKET_", envPrefix("course-market"))
	require.Equal(t, []string{"COURSEMARKET_CLIENT_CONFIG"},
		envVars("COURSEMARKET_", "client-config"))
}
