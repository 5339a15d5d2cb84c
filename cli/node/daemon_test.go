package node

import (
	"bytes"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.dedis.ch/coursemarket/cli"
	"go.dedis.ch/coursemarket/internal/testing/fake"
	"golang.org/x/xerrors"
)

func TestSocketClient_Send(t *testing.T) {
	dir := t.TempDir()

	out := new(bytes.Buffer)

	client := socketClient{
		socketpath: filepath.Join(dir, SocketName),
		out:        out,
		dialFn:     net.DialTimeout,
	}

	echo(t, client.socketpath, "course ", "0x3130\n")

	err := client.Send(request{Flags: FlagSet{"id": "intro"}})
	require.NoError(t, err)

	// A value without a line break gets one.
	require.Equal(t, "course \nintro\n0x3130\n", out.String())
}

func TestSocketClient_FailDial_Send(t *testing.T) {
	client := socketClient{
		dialFn: func(network, addr string, timeout time.Duration) (net.Conn, error) {
			return nil, fake.GetError()
		},
	}

	err := client.Send(request{})
	require.EqualError(t, err, fake.Err("couldn't open connection"))
}

func TestSocketClient_BadConn_Send(t *testing.T) {
	client := socketClient{
		dialFn: func(network, addr string, timeout time.Duration) (net.Conn, error) {
			return badConn{}, nil
		},
	}

	err := client.Send(request{})
	require.EqualError(t, err, fake.Err("couldn't write to daemon"))

	client.dialFn = func(network, addr string, timeout time.Duration) (net.Conn, error) {
		return badConn{counter: fake.NewCounter(1)}, nil
	}

	err = client.Send(request{})
	require.EqualError(t, err, fake.Err("fail to decode event"))
}

func TestSocketDaemon_Listen(t *testing.T) {
	actions := &actionMap{}
	actions.Set(fakeAction{out: "1 course(s)", index: 1}) // id 0
	actions.Set(fakeAction{err: fake.GetError()})         // id 1

	daemon := makeDaemon(t, actions)

	require.NoError(t, daemon.Listen())
	defer daemon.Close()

	done := testutil.ToFloat64(promCommands.WithLabelValues("node.fakeAction", "done"))
	failed := testutil.ToFloat64(promCommands.WithLabelValues("node.fakeAction", "failed"))

	out := new(bytes.Buffer)
	client := socketClient{
		socketpath:  daemon.socketpath,
		out:         out,
		dialTimeout: time.Second,
		dialFn:      net.DialTimeout,
	}

	err := client.Send(request{Action: 0, Flags: FlagSet{"index": 1}})
	require.NoError(t, err)
	require.Equal(t, "1 course(s)\n", out.String())

	err = client.Send(request{Action: 0, Flags: FlagSet{"index": 2}})
	require.EqualError(t, err, "command error: unexpected index 2")

	err = client.Send(request{Action: 1})
	require.EqualError(t, err, fake.Err("command error"))

	err = client.Send(request{Action: 2})
	require.EqualError(t, err, "unknown command '2'")

	require.Equal(t, done+1,
		testutil.ToFloat64(promCommands.WithLabelValues("node.fakeAction", "done")))
	require.Equal(t, failed+2,
		testutil.ToFloat64(promCommands.WithLabelValues("node.fakeAction", "failed")))

	evt := sendRaw(t, daemon.socketpath, "{oops")
	require.True(t, evt.Err)
	require.Contains(t, evt.Value, "failed to decode request: ")
}

func TestSocketDaemon_AlreadyRunning_Listen(t *testing.T) {
	first := makeDaemon(t, &actionMap{})

	require.NoError(t, first.Listen())
	defer first.Close()

	second := makeDaemon(t, &actionMap{})
	second.socketpath = first.socketpath

	err := second.Listen()
	require.EqualError(t, err,
		"socket: a node is already running on '"+first.socketpath+"'")

	// The socket of the first node is still in use.
	conn, err := net.DialTimeout("unix", first.socketpath, time.Second)
	require.NoError(t, err)
	require.NoError(t, conn.Close())
}

func TestSocketDaemon_StaleSocket_Listen(t *testing.T) {
	daemon := makeDaemon(t, &actionMap{})

	// Left by a node that did not stop properly.
	require.NoError(t, os.WriteFile(daemon.socketpath, []byte{}, 0600))

	require.NoError(t, daemon.Listen())
	require.NoError(t, daemon.Close())

	daemon = makeDaemon(t, &actionMap{})
	daemon.dialFn = func(string, string, time.Duration) (net.Conn, error) {
		return nil, fake.GetError()
	}

	require.NoError(t, os.Mkdir(daemon.socketpath, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(daemon.socketpath, "file"), nil, 0600))

	err := daemon.Listen()
	require.Error(t, err)
	require.Contains(t, err.Error(), "socket: couldn't remove stale socket: ")
}

func TestSocketDaemon_EmptyConn_Listen(t *testing.T) {
	daemon := makeDaemon(t, &actionMap{})

	require.NoError(t, daemon.Listen())
	defer daemon.Close()

	conn, err := net.DialTimeout("unix", daemon.socketpath, time.Second)
	require.NoError(t, err)
	require.NoError(t, conn.Close())
}

func TestSocketDaemon_FailBindSocket_Listen(t *testing.T) {
	daemon := &socketDaemon{
		listenFn: func(network, addr string) (net.Listener, error) {
			return nil, fake.GetError()
		},
	}

	err := daemon.Listen()
	require.EqualError(t, err, fake.Err("couldn't bind socket"))
}

func TestSocketDaemon_ConnClosedFromClient_HandleConn(t *testing.T) {
	logger, check := fake.CheckLog("connection to daemon has error")

	daemon := &socketDaemon{
		logger:      logger,
		actions:     &actionMap{},
		closing:     make(chan struct{}),
		readTimeout: 50 * time.Millisecond,
	}

	daemon.handleConn(badConn{})

	check(t)
}

func TestClientWriter_Write(t *testing.T) {
	buffer := new(bytes.Buffer)

	w := newClientWriter(buffer)

	n, err := w.Write([]byte("0x3130"))
	require.NoError(t, err)
	require.Equal(t, 6, n)
	require.Equal(t, `{"Value":"0x3130"}`+"\n", buffer.String())

	w = newClientWriter(fake.NewBadHash())

	n, err = w.Write([]byte("0x3130"))
	require.Equal(t, 0, n)
	require.EqualError(t, err, fake.Err("while packing data"))
}

func TestSocketFactory(t *testing.T) {
	factory := socketFactory{}

	d, err := factory.daemonFor(fakeContext{path: "node1"})
	require.NoError(t, err)
	require.Equal(t, filepath.Join("node1", SocketName), d.(*socketDaemon).socketpath)

	c, err := factory.clientFor(fakeContext{path: "node1"})
	require.NoError(t, err)
	require.Equal(t, filepath.Join("node1", SocketName), c.(socketClient).socketpath)
}

// -----------------------------------------------------------------------------
// Utility functions

func makeDaemon(t *testing.T, actions *actionMap) *socketDaemon {
	return &socketDaemon{
		logger:      zerolog.Nop(),
		socketpath:  filepath.Join(t.TempDir(), SocketName),
		actions:     actions,
		closing:     make(chan struct{}),
		readTimeout: 50 * time.Millisecond,
		listenFn:    net.Listen,
		dialFn:      net.DialTimeout,
	}
}

// echo answers a single request with the values followed by the id flag of
// the request.
func echo(t *testing.T, path string, values ...string) {
	socket, err := net.Listen("unix", path)
	require.NoError(t, err)

	go func() {
		defer socket.Close()

		conn, err := socket.Accept()
		if err != nil {
			return
		}

		defer conn.Close()

		var req request
		err = json.NewDecoder(conn).Decode(&req)
		if err != nil {
			return
		}

		enc := json.NewEncoder(conn)
		enc.Encode(event{Value: values[0]})
		enc.Encode(event{Value: req.Flags.String("id")})

		for _, value := range values[1:] {
			enc.Encode(event{Value: value})
		}
	}()
}

func sendRaw(t *testing.T, path, data string) event {
	conn, err := net.DialTimeout("unix", path, time.Second)
	require.NoError(t, err)

	defer conn.Close()

	_, err = conn.Write([]byte(data))
	require.NoError(t, err)

	var evt event
	require.NoError(t, json.NewDecoder(conn).Decode(&evt))

	return evt
}

type fakeInitializer struct {
	name    string
	calls   *fake.Call
	err     error
	errStop error
}

func (c fakeInitializer) SetCommands(Builder) {}

func (c fakeInitializer) OnStart(cli.Flags, Injector) error {
	c.calls.Add("start " + c.name)
	return c.err
}

func (c fakeInitializer) OnStop(Injector) error {
	c.calls.Add("stop " + c.name)
	return c.errStop
}

type fakeClient struct {
	err   error
	calls *fake.Call
}

func (c fakeClient) Send(req request) error {
	c.calls.Add(req)
	return c.err
}

type fakeDaemon struct {
	err error
}

func (d fakeDaemon) Listen() error {
	return d.err
}

func (d fakeDaemon) Close() error {
	return nil
}

type fakeFactory struct {
	err       error
	errClient error
	errDaemon error
	calls     *fake.Call
}

func (f fakeFactory) clientFor(cli.Flags) (client, error) {
	return fakeClient{err: f.errClient, calls: f.calls}, f.err
}

func (f fakeFactory) daemonFor(cli.Flags) (daemon, error) {
	return fakeDaemon{err: f.errDaemon}, f.err
}

type fakeAction struct {
	out   string
	index int
	err   error
}

func (a fakeAction) Execute(ctx Context) error {
	if a.err != nil {
		return a.err
	}

	if ctx.Flags.Int("index") != a.index {
		return xerrors.Errorf("unexpected index %d", ctx.Flags.Int("index"))
	}

	ctx.Out.Write([]byte(a.out))

	return nil
}

type fakeContext struct {
	cli.Flags
	path string
}

func (ctx fakeContext) Path(name string) string {
	return ctx.path
}

type badConn struct {
	net.Conn

	counter *fake.Counter
}

func (conn badConn) Read(data []byte) (int, error) {
	return 0, fake.GetError()
}

func (conn badConn) Write(data []byte) (int, error) {
	if !conn.counter.Done() {
		conn.counter.Decrease()
		return len(data), nil
	}

	return 0, fake.GetError()
}

func (badConn) SetReadDeadline(t time.Time) error {
	return nil
}

func (badConn) Close() error {
	return nil
}
