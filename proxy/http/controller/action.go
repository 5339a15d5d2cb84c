package controller

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.dedis.ch/coursemarket"
	"go.dedis.ch/coursemarket/cli/node"
	"go.dedis.ch/coursemarket/proxy"
	"go.dedis.ch/coursemarket/proxy/http"
	"golang.org/x/xerrors"
)

var (
	defaultRetry = 10
	retryDelay   = time.Second

	proxyFac = func(addr string) proxy.Proxy {
		return http.NewHTTP(addr)
	}

	registry = prometheus.DefaultRegisterer
	gatherer = prometheus.DefaultGatherer
)

type startAction struct{}

// Execute implements node.ActionTemplate. It starts and injects the proxy http
// server.
func (a startAction) Execute(ctx node.Context) error {
	addr := ctx.Flags.String("clientaddr")

	proxyhttp := proxyFac(addr)

	go proxyhttp.Listen()

	for i := 0; i < defaultRetry && proxyhttp.GetAddr() == nil; i++ {
		time.Sleep(retryDelay)
	}

	if proxyhttp.GetAddr() == nil {
		return xerrors.Errorf("failed to start proxy server")
	}

	ctx.Injector.Inject(proxyhttp)

	fmt.Fprintf(ctx.Out, "started proxy server on %s", proxyhttp.GetAddr().String())

	return nil
}

type promAction struct{}

// Execute implements node.ActionTemplate. It registers the Prometheus handler.
func (a promAction) Execute(ctx node.Context) error {
	var proxyhttp proxy.Proxy

	err := ctx.Injector.Resolve(&proxyhttp)
	if err != nil {
		return xerrors.Errorf("failed to resolve the proxy: %v", err)
	}

	path := ctx.Flags.String("path")

	for _, c := range coursemarket.PromCollectors {
		err = registry.Register(c)
		if err != nil {
			fmt.Fprintf(ctx.Out, "ERROR: failed to register: %v\n", err)
		}
	}

	handler := promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})

	proxyhttp.RegisterHandler(path, handler.ServeHTTP)
	fmt.Fprintf(ctx.Out, "registered prometheus service on %q", path)

	return nil
}
