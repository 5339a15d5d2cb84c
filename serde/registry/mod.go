// Package registry keeps the format engines of a message type.
//
// Each message type of the node (transactions, keys, signatures, course
// records) owns a registry, and the format packages register their engine in
// it when they are imported.
package registry

import (
	"sort"
	"sync"

	"go.dedis.ch/coursemarket/serde"
	"golang.org/x/xerrors"
)

// Registry maps a format to the engine of a message type.
type Registry struct {
	sync.RWMutex

	engines map[serde.Format]serde.FormatEngine
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		engines: make(map[serde.Format]serde.FormatEngine),
	}
}

// Register sets the engine of the format. A second call for the same format
// replaces the engine.
func (r *Registry) Register(format serde.Format, engine serde.FormatEngine) {
	r.Lock()
	r.engines[format] = engine
	r.Unlock()
}

// Get returns the engine of the format. It never returns nil: a format without
// an engine gets one that fails every request.
func (r *Registry) Get(format serde.Format) serde.FormatEngine {
	r.RLock()
	defer r.RUnlock()

	engine := r.engines[format]
	if engine == nil {
		return missingFormat{format: format, known: r.formats()}
	}

	return engine
}

// Formats returns the formats with an engine, sorted by name.
func (r *Registry) Formats() []serde.Format {
	r.RLock()
	defer r.RUnlock()

	return r.formats()
}

func (r *Registry) formats() []serde.Format {
	formats := make([]serde.Format, 0, len(r.engines))
	for format := range r.engines {
		formats = append(formats, format)
	}

	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })

	return formats
}

// missingFormat is the engine of a format that is not registered.
//
// - implements serde.FormatEngine
type missingFormat struct {
	format serde.Format
	known  []serde.Format
}

// Encode implements serde.FormatEngine. It always returns an error.
func (f missingFormat) Encode(serde.Context, serde.Message) ([]byte, error) {
	return nil, f.err()
}

// Decode implements serde.FormatEngine. It always returns an error.
func (f missingFormat) Decode(serde.Context, []byte) (serde.Message, error) {
	return nil, f.err()
}

func (f missingFormat) err() error {
	return xerrors.Errorf("format '%s' is not implemented, known formats are %v",
		f.format, f.known)
}
