package controller

import (
	"bytes"
	"io"
	"net"
	gohttp "net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.dedis.ch/coursemarket"
	"go.dedis.ch/coursemarket/cli/node"
	"go.dedis.ch/coursemarket/proxy"
)

func TestStartAction_Execute(t *testing.T) {
	out := new(bytes.Buffer)
	flags := make(node.FlagSet)

	flags["clientaddr"] = "127.0.0.1:0"

	ctx := node.Context{
		Injector: node.NewInjector(),
		Flags:    flags,
		Out:      out,
	}

	action := startAction{}
	err := action.Execute(ctx)
	require.NoError(t, err)

	var p proxy.Proxy
	require.NoError(t, ctx.Injector.Resolve(&p))

	defer p.Stop()

	require.Equal(t, "started proxy server on "+p.GetAddr().String(), out.String())
}

func TestStartAction_Fail_Execute(t *testing.T) {
	oldRetry := defaultRetry
	defaultRetry = 1

	oldFac := proxyFac
	proxyFac = func(string) proxy.Proxy {
		return &fakeProxy{}
	}

	defer func() {
		defaultRetry = oldRetry
		proxyFac = oldFac
	}()

	ctx := node.Context{
		Injector: node.NewInjector(),
		Flags:    make(node.FlagSet),
		Out:      io.Discard,
	}

	err := startAction{}.Execute(ctx)
	require.EqualError(t, err, "failed to start proxy server")
}

func TestPromAction_Execute(t *testing.T) {
	reg := prometheus.NewRegistry()

	oldReg, oldGatherer := registry, gatherer
	registry, gatherer = reg, reg

	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "fake_total"})
	counter.Inc()

	oldCollectors := coursemarket.PromCollectors
	coursemarket.PromCollectors = []prometheus.Collector{counter, counter}

	defer func() {
		registry, gatherer = oldReg, oldGatherer
		coursemarket.PromCollectors = oldCollectors
	}()

	out := new(bytes.Buffer)
	flags := make(node.FlagSet)
	flags["path"] = "/metrics"

	ctx := node.Context{
		Injector: node.NewInjector(),
		Flags:    flags,
		Out:      out,
	}

	err := promAction{}.Execute(ctx)
	require.EqualError(t, err,
		"failed to resolve the proxy: couldn't find dependency for 'proxy.Proxy'")

	p := &fakeProxy{handlers: make(map[string]func(gohttp.ResponseWriter, *gohttp.Request))}
	ctx.Injector.Inject(p)

	err = promAction{}.Execute(ctx)
	require.NoError(t, err)
	require.Contains(t, out.String(), "ERROR: failed to register: ")
	require.Contains(t, out.String(), `registered prometheus service on "/metrics"`)
	require.Contains(t, p.handlers, "/metrics")
}

// -----------------------------------------------------------------------------
// Utility functions

type fakeProxy struct {
	proxy.Proxy

	handlers map[string]func(gohttp.ResponseWriter, *gohttp.Request)
	stopped  bool
}

func (p *fakeProxy) Listen() {}

func (p *fakeProxy) Stop() {
	p.stopped = true
}

func (p *fakeProxy) GetAddr() net.Addr {
	return nil
}

func (p *fakeProxy) RegisterHandler(path string, h func(gohttp.ResponseWriter, *gohttp.Request)) {
	p.handlers[path] = h
}
