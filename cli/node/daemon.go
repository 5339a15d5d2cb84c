package node

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.dedis.ch/coursemarket"
	"go.dedis.ch/coursemarket/cli"
	"golang.org/x/xerrors"
)

const (
	ioTimeout = 30 * time.Second

	// SocketName is the name of the UNIX socket file in the configuration
	// folder.
	SocketName = "daemon.sock"
)

var promCommands = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "coursemarket_daemon_commands_total",
	Help: "total number of commands received by the node",
}, []string{"action", "status"})

func init() {
	coursemarket.PromCollectors = append(coursemarket.PromCollectors, promCommands)
}

// request is the message sent by the command line when it opens a connection.
type request struct {
	Action uint16
	Flags  FlagSet
}

// event is a message sent by the node to the command line. An error event is
// the last one of a connection.
type event struct {
	Err   bool `json:",omitempty"`
	Value string
}

type client interface {
	Send(request) error
}

type daemon interface {
	Listen() error
	Close() error
}

type daemonFactory interface {
	clientFor(cli.Flags) (client, error)
	daemonFor(cli.Flags) (daemon, error)
}

type dialFunc func(network, addr string, timeout time.Duration) (net.Conn, error)

// socketClient sends a request to the node and prints the events it receives.
//
// - implements node.client
type socketClient struct {
	socketpath  string
	out         io.Writer
	dialTimeout time.Duration
	dialFn      dialFunc
}

// Send implements node.client. It returns when the node closes the
// connection, or with the error of the command.
func (c socketClient) Send(req request) error {
	conn, err := c.dialFn("unix", c.socketpath, c.dialTimeout)
	if err != nil {
		return xerrors.Errorf("couldn't open connection: %v", err)
	}

	defer conn.Close()

	err = json.NewEncoder(conn).Encode(req)
	if err != nil {
		return xerrors.Errorf("couldn't write to daemon: %v", err)
	}

	dec := json.NewDecoder(conn)

	for {
		var evt event

		err = dec.Decode(&evt)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return xerrors.Errorf("fail to decode event: %v", err)
		}

		if evt.Err {
			return xerrors.New(evt.Value)
		}

		fmt.Fprint(c.out, evt.Value)
		if !strings.HasSuffix(evt.Value, "\n") {
			fmt.Fprintln(c.out)
		}
	}
}

// socketDaemon executes the requests received on a UNIX socket. Only the users
// with write access to the configuration folder can send a command.
//
// - implements node.daemon
type socketDaemon struct {
	sync.WaitGroup

	logger      zerolog.Logger
	socketpath  string
	injector    Injector
	actions     *actionMap
	closing     chan struct{}
	readTimeout time.Duration
	listenFn    func(network, addr string) (net.Listener, error)
	dialFn      dialFunc
}

// Listen implements node.daemon. It fails if another node is using the
// socket, and removes the socket left by a node that did not stop properly.
func (d *socketDaemon) Listen() error {
	err := d.clearSocket()
	if err != nil {
		return xerrors.Errorf("socket: %v", err)
	}

	socket, err := d.listenFn("unix", d.socketpath)
	if err != nil {
		return xerrors.Errorf("couldn't bind socket: %v", err)
	}

	d.Add(2)

	go func() {
		defer d.Done()

		<-d.closing
		socket.Close()
	}()

	go func() {
		defer d.Done()

		for {
			conn, err := socket.Accept()
			if err != nil {
				select {
				case <-d.closing:
				default:
					d.logger.Err(err).Msg("daemon closed unexpectedly")
				}
				return
			}

			go d.handleConn(conn)
		}
	}()

	return nil
}

func (d *socketDaemon) clearSocket() error {
	_, err := os.Stat(d.socketpath)
	if os.IsNotExist(err) {
		return nil
	}

	conn, err := d.dialFn("unix", d.socketpath, time.Second)
	if err == nil {
		conn.Close()
		return xerrors.Errorf("a node is already running on '%s'", d.socketpath)
	}

	err = os.Remove(d.socketpath)
	if err != nil {
		return xerrors.Errorf("couldn't remove stale socket: %v", err)
	}

	d.logger.Warn().Msg("stale socket removed")

	return nil
}

func (d *socketDaemon) handleConn(conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(d.readTimeout))

	var req request

	err := json.NewDecoder(conn).Decode(&req)
	if err == io.EOF {
		// The connection is closed without a request when another node checks
		// that the socket is in use.
		return
	}
	if err != nil {
		d.sendError(conn, xerrors.Errorf("failed to decode request: %v", err))
		return
	}

	action := d.actions.Get(req.Action)
	if action == nil {
		promCommands.WithLabelValues("unknown", "refused").Inc()
		d.sendError(conn, xerrors.Errorf("unknown command '%d'", req.Action))
		return
	}

	name := fmt.Sprintf("%T", action)

	d.logger.Debug().
		Str("action", name).
		Str("flags", fmt.Sprintf("%v", req.Flags)).
		Msg("received command on the daemon")

	actx := Context{
		Injector: d.injector,
		Flags:    req.Flags,
		Out:      newClientWriter(conn),
	}

	err = action.Execute(actx)
	if err != nil {
		promCommands.WithLabelValues(name, "failed").Inc()
		d.sendError(conn, xerrors.Errorf("command error: %v", err))
		return
	}

	promCommands.WithLabelValues(name, "done").Inc()
}

func (d *socketDaemon) sendError(conn net.Conn, err error) {
	d.logger.Debug().Err(err).Msg("sending error to client")

	err = json.NewEncoder(conn).Encode(event{Err: true, Value: err.Error()})
	if err != nil {
		d.logger.Warn().Err(err).Msg("connection to daemon has error")
	}
}

// Close implements node.daemon. It waits for the listener to be closed.
func (d *socketDaemon) Close() error {
	close(d.closing)
	d.Wait()

	return nil
}

// clientWriter writes each chunk of the output of an action as an event.
//
// - implements io.Writer
type clientWriter struct {
	enc *json.Encoder
}

func newClientWriter(w io.Writer) *clientWriter {
	return &clientWriter{
		enc: json.NewEncoder(w),
	}
}

// Write implements io.Writer.
func (w *clientWriter) Write(data []byte) (int, error) {
	err := w.enc.Encode(event{Value: string(data)})
	if err != nil {
		return 0, xerrors.Errorf("while packing data: %v", err)
	}

	return len(data), nil
}

// socketFactory creates the daemon and the clients of the socket in the
// configuration folder.
//
// - implements node.daemonFactory
type socketFactory struct {
	injector Injector
	actions  *actionMap
	out      io.Writer
}

func (f socketFactory) clientFor(flags cli.Flags) (client, error) {
	c := socketClient{
		socketpath:  socketPath(flags),
		out:         f.out,
		dialTimeout: ioTimeout,
		dialFn:      net.DialTimeout,
	}

	return c, nil
}

func (f socketFactory) daemonFor(flags cli.Flags) (daemon, error) {
	path := socketPath(flags)

	d := &socketDaemon{
		logger:      coursemarket.Logger.With().Str("daemon", path).Logger(),
		socketpath:  path,
		injector:    f.injector,
		actions:     f.actions,
		closing:     make(chan struct{}),
		readTimeout: ioTimeout,
		listenFn:    net.Listen,
		dialFn:      net.DialTimeout,
	}

	return d, nil
}

func socketPath(flags cli.Flags) string {
	return filepath.Join(flags.Path("config"), SocketName)
}
