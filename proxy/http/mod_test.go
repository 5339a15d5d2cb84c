package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/coursemarket/internal/testing/fake"
)

func TestHTTP_Listen(t *testing.T) {
	proxy := NewHTTP("127.0.0.1:0")
	require.Nil(t, proxy.GetAddr())

	go proxy.Listen()
	waitAddr(t, proxy)

	defer proxy.Stop()

	proxy.RegisterHandler("/fake", fakeHandler)

	res, err := http.Get("http://" + proxy.GetAddr().String() + "/fake")
	require.NoError(t, err)

	output, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.NoError(t, res.Body.Close())

	require.Equal(t, "hello", string(output))
	require.NotEmpty(t, res.Header.Get(RequestIDHeader))
}

func TestHTTP_Stop(t *testing.T) {
	proxy := NewHTTP("127.0.0.1:0")

	done := make(chan struct{})
	go func() {
		proxy.Listen()
		close(done)
	}()

	waitAddr(t, proxy)

	proxy.Stop()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	require.Nil(t, proxy.GetAddr())
}

func TestHTTP_BadAddr_Listen(t *testing.T) {
	proxy := NewHTTP("bad://xx")

	logger, check := fake.CheckLog("failed to create conn 'bad://xx'")
	proxy.logger = logger

	// Listen returns straight away when the address is invalid.
	proxy.Listen()

	check(t)
	require.Nil(t, proxy.GetAddr())
}

func TestLogging(t *testing.T) {
	logger, check := fake.CheckLog(`"url":"/fake"`)

	handler := tracing(func() string { return "abc" })(logging(logger)(http.HandlerFunc(fakeHandler)))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fake", nil))

	check(t)
	require.Equal(t, "abc", rec.Header().Get(RequestIDHeader))
}

func TestTracing(t *testing.T) {
	handler := tracing(func() string { return "abc" })(http.HandlerFunc(fakeHandler))

	req := httptest.NewRequest(http.MethodGet, "/fake", nil)
	req.Header.Set(RequestIDHeader, "xyz")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, "xyz", rec.Header().Get(RequestIDHeader))

	logger, check := fake.CheckLog(`"requestID":"unknown"`)

	rec = httptest.NewRecorder()
	logging(logger)(http.HandlerFunc(fakeHandler)).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fake", nil))

	check(t)
}

// -----------------------------------------------------------------------------
// Utility functions

func waitAddr(t *testing.T, proxy *HTTP) {
	for i := 0; i < 50 && proxy.GetAddr() == nil; i++ {
		time.Sleep(20 * time.Millisecond)
	}

	require.NotNil(t, proxy.GetAddr())
}

func fakeHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("hello"))
}
