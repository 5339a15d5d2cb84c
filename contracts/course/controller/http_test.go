package controller

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/coursemarket/cli/node"
	"go.dedis.ch/coursemarket/contracts/course"
	"go.dedis.ch/coursemarket/proxy"
)

func TestProxyAction_Execute(t *testing.T) {
	n := newNode(t)

	_, err := n.run(proxyAction{}, node.FlagSet{"prefix": "/course"})
	require.EqualError(t, err,
		"failed to resolve the proxy: couldn't find dependency for 'proxy.Proxy'")

	p := newFakeProxy()
	n.inj.Inject(p)

	out, err := n.run(proxyAction{}, node.FlagSet{"prefix": "/course/"})
	require.NoError(t, err)
	require.Equal(t, `registered course endpoints on "/course"`, out)

	_, err = n.run(purchaseAction{}, node.FlagSet{
		"id":    "intro",
		"proof": testProof,
		"value": "5",
	})
	require.NoError(t, err)

	hash := course.HashOf(mustParseID(t, "intro"), n.addr)

	code, body := p.get(t, "/course/owner", "/course/owner")
	require.Equal(t, http.StatusOK, code)
	require.JSONEq(t, `{"owner":"`+n.addr.String()+`"}`, body)

	code, body = p.get(t, "/course/count", "/course/count")
	require.Equal(t, http.StatusOK, code)
	require.JSONEq(t, `{"count":1}`, body)

	code, body = p.get(t, "/course/index/", "/course/index/0")
	require.Equal(t, http.StatusOK, code)
	require.JSONEq(t, `{"hash":"`+hash.String()+`"}`, body)

	code, _ = p.get(t, "/course/index/", "/course/index/1")
	require.Equal(t, http.StatusNotFound, code)

	code, body = p.get(t, "/course/index/", "/course/index/abc")
	require.Equal(t, http.StatusBadRequest, code)
	require.JSONEq(t, `{"error":"invalid index 'abc'"}`, body)

	code, body = p.get(t, "/course/hash/", "/course/hash/"+hash.String())
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, `"price":5`)
	require.Contains(t, body, `"hash":"`+hash.String()+`"`)

	code, _ = p.get(t, "/course/hash/", "/course/hash/"+course.Hash{}.String())
	require.Equal(t, http.StatusNotFound, code)

	code, _ = p.get(t, "/course/hash/", "/course/hash/0xzz")
	require.Equal(t, http.StatusBadRequest, code)

	rec := httptest.NewRecorder()
	p.handlers["/course/count"](rec, httptest.NewRequest(http.MethodPost, "/course/count", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandler_MissingDependencies(t *testing.T) {
	h := handler{inj: node.NewInjector()}

	rec := httptest.NewRecorder()
	h.count(rec, httptest.NewRequest(http.MethodGet, "/count", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t,
		`{"error":"injector: couldn't find dependency for 'ordering.Service'"}`,
		rec.Body.String())
}

// -----------------------------------------------------------------------------
// Utility functions

type fakeProxy struct {
	proxy.Proxy

	handlers map[string]func(http.ResponseWriter, *http.Request)
}

func newFakeProxy() *fakeProxy {
	return &fakeProxy{
		handlers: make(map[string]func(http.ResponseWriter, *http.Request)),
	}
}

func (p *fakeProxy) RegisterHandler(path string, h func(http.ResponseWriter, *http.Request)) {
	p.handlers[path] = h
}

func (p *fakeProxy) GetAddr() net.Addr {
	return nil
}

func (p *fakeProxy) get(t *testing.T, pattern, path string) (int, string) {
	h, found := p.handlers[pattern]
	require.True(t, found, pattern)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, path, nil))

	return rec.Code, rec.Body.String()
}
