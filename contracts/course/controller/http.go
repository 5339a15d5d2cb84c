package controller

import (
	gojson "encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.dedis.ch/coursemarket/cli/node"
	"go.dedis.ch/coursemarket/contracts/course"
	"go.dedis.ch/coursemarket/proxy"
	"go.dedis.ch/coursemarket/serde"
	"go.dedis.ch/coursemarket/serde/json"
	"golang.org/x/xerrors"
)

// proxyAction is an action to register the read endpoints of the contract on
// the proxy.
//
// - implements node.ActionTemplate
type proxyAction struct{}

// Execute implements node.ActionTemplate. It registers the handlers under the
// prefix.
func (proxyAction) Execute(ctx node.Context) error {
	var p proxy.Proxy
	err := ctx.Injector.Resolve(&p)
	if err != nil {
		return xerrors.Errorf("failed to resolve the proxy: %v", err)
	}

	prefix := strings.TrimSuffix(ctx.Flags.String("prefix"), "/")

	h := handler{
		inj:    ctx.Injector,
		ctx:    json.NewContext(),
		prefix: prefix,
	}

	p.RegisterHandler(prefix+"/owner", h.owner)
	p.RegisterHandler(prefix+"/count", h.count)
	p.RegisterHandler(prefix+"/index/", h.index)
	p.RegisterHandler(prefix+"/hash/", h.hash)

	fmt.Fprintf(ctx.Out, "registered course endpoints on %q", prefix)

	return nil
}

// handler serves the read surface of the contract as JSON.
type handler struct {
	inj    node.Injector
	ctx    serde.Context
	prefix string
}

func (h handler) owner(w http.ResponseWriter, r *http.Request) {
	reader, ok := h.reader(w, r)
	if !ok {
		return
	}

	addr, err := reader.GetContractOwner()
	if err != nil {
		h.fail(w, http.StatusInternalServerError, err)
		return
	}

	h.write(w, map[string]string{"owner": addr.String()})
}

func (h handler) count(w http.ResponseWriter, r *http.Request) {
	reader, ok := h.reader(w, r)
	if !ok {
		return
	}

	count, err := reader.GetCourseCount()
	if err != nil {
		h.fail(w, http.StatusInternalServerError, err)
		return
	}

	h.write(w, map[string]uint64{"count": count})
}

func (h handler) index(w http.ResponseWriter, r *http.Request) {
	reader, ok := h.reader(w, r)
	if !ok {
		return
	}

	param := strings.TrimPrefix(r.URL.Path, h.prefix+"/index/")

	index, err := strconv.ParseUint(param, 10, 64)
	if err != nil {
		h.fail(w, http.StatusBadRequest, xerrors.Errorf("invalid index '%s'", param))
		return
	}

	hash, err := reader.GetCourseHashAtIndex(index)
	if err == course.ErrNotFound {
		h.fail(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		h.fail(w, http.StatusInternalServerError, err)
		return
	}

	h.write(w, map[string]string{"hash": hash.String()})
}

func (h handler) hash(w http.ResponseWriter, r *http.Request) {
	reader, ok := h.reader(w, r)
	if !ok {
		return
	}

	hash, err := course.ParseHash(strings.TrimPrefix(r.URL.Path, h.prefix+"/hash/"))
	if err != nil {
		h.fail(w, http.StatusBadRequest, err)
		return
	}

	c, err := reader.GetCourseByHash(hash)
	if err == course.ErrNotFound {
		h.fail(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		h.fail(w, http.StatusInternalServerError, err)
		return
	}

	data, err := c.Serialize(h.ctx)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (h handler) reader(w http.ResponseWriter, r *http.Request) (course.Reader, bool) {
	if r.Method != http.MethodGet {
		h.fail(w, http.StatusMethodNotAllowed, xerrors.Errorf("method %s not allowed", r.Method))
		return course.Reader{}, false
	}

	reader, err := getReader(h.inj)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, err)
		return course.Reader{}, false
	}

	return reader, true
}

func (h handler) write(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	gojson.NewEncoder(w).Encode(v)
}

func (h handler) fail(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	gojson.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
