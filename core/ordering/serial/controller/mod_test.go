package controller

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/coursemarket/cli/node"
	"go.dedis.ch/coursemarket/core/execution/native"
	"go.dedis.ch/coursemarket/core/ordering"
	"go.dedis.ch/coursemarket/core/store/kv"
	"go.dedis.ch/coursemarket/core/validation"
	"go.dedis.ch/coursemarket/crypto/ed25519"
)

func TestMinimal_SetCommands(t *testing.T) {
	builder := node.NewBuilder(NewMinimal())

	app := builder.Build()
	require.NotNil(t, app)
}

func TestMinimal_OnStart(t *testing.T) {
	dir := t.TempDir()

	inj := node.NewInjector()
	inj.Inject(makeDB(t, dir))

	ctrl := NewMinimal()

	err := ctrl.OnStart(node.FlagSet{"config": dir}, inj)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(dir, PrivateKeyFile))

	var srvc ordering.Service
	require.NoError(t, inj.Resolve(&srvc))

	var vs validation.Service
	require.NoError(t, inj.Resolve(&vs))

	var exec *native.Service
	require.NoError(t, inj.Resolve(&exec))

	var signer ed25519.Signer
	require.NoError(t, inj.Resolve(&signer))

	require.NoError(t, ctrl.OnStop(inj))

	// The identity is kept between two starts.
	inj2 := node.NewInjector()
	inj2.Inject(makeDB(t, t.TempDir()))

	err = ctrl.OnStart(node.FlagSet{"config": dir}, inj2)
	require.NoError(t, err)

	var signer2 ed25519.Signer
	require.NoError(t, inj2.Resolve(&signer2))
	require.True(t, signer.GetPublicKey().Equal(signer2.GetPublicKey()))

	require.NoError(t, ctrl.OnStop(inj2))
}

func TestMinimal_MissingDB_OnStart(t *testing.T) {
	err := NewMinimal().OnStart(node.FlagSet{}, node.NewInjector())
	require.EqualError(t, err, "injector: couldn't find dependency for 'kv.DB'")
}

func TestMinimal_BadKey_OnStart(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, PrivateKeyFile), []byte("zz"), 0600))

	inj := node.NewInjector()
	inj.Inject(makeDB(t, dir))

	err := NewMinimal().OnStart(node.FlagSet{"config": dir}, inj)
	require.Error(t, err)
	require.Regexp(t, "^signer: failed to load file: malformed key file", err.Error())

	require.NoError(t, os.WriteFile(filepath.Join(dir, PrivateKeyFile), []byte("aa"), 0600))

	err = NewMinimal().OnStart(node.FlagSet{"config": dir}, inj)
	require.Error(t, err)
	require.Regexp(t, "^signer: couldn't unmarshal scalar", err.Error())
}

func TestMinimal_OnStop(t *testing.T) {
	err := NewMinimal().OnStop(node.NewInjector())
	require.EqualError(t, err,
		"injector: couldn't find dependency for '*serial.Service'")
}

func TestInfoAction_Execute(t *testing.T) {
	dir := t.TempDir()

	inj := node.NewInjector()
	inj.Inject(makeDB(t, dir))

	ctrl := NewMinimal()
	require.NoError(t, ctrl.OnStart(node.FlagSet{"config": dir}, inj))

	defer ctrl.OnStop(inj)

	out := new(bytes.Buffer)
	ctx := node.Context{
		Injector: inj,
		Flags:    node.FlagSet{},
		Out:      out,
	}

	err := infoAction{}.Execute(ctx)
	require.NoError(t, err)
	require.Regexp(t, "^Address: 0x[0-9a-f]{40}\nIndex: 0$", out.String())

	ctx.Injector = node.NewInjector()
	err = infoAction{}.Execute(ctx)
	require.EqualError(t, err,
		"injector: couldn't find dependency for 'ed25519.Signer'")

	ctx.Injector.Inject(ed25519.NewSigner())
	err = infoAction{}.Execute(ctx)
	require.EqualError(t, err,
		"injector: couldn't find dependency for 'ordering.Service'")
}

// -----------------------------------------------------------------------------
// Utility functions

func makeDB(t *testing.T, dir string) kv.DB {
	db, err := kv.New(filepath.Join(dir, "test.db"))
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })

	return db
}
