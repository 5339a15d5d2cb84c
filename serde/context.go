package serde

// ContextEngine is the encoding of a format.
type ContextEngine interface {
	GetFormat() Format
	Marshal(message interface{}) ([]byte, error)
	Unmarshal(data []byte, message interface{}) error
}

// Context carries the format engine and the factories a format needs to
// decode the nested messages, like the public key of a signed transaction.
//
// A context is immutable: adding a factory returns a child that shadows the
// factories of its parent.
type Context struct {
	ContextEngine

	link *factoryLink
}

type factoryLink struct {
	key     interface{}
	factory Factory
	parent  *factoryLink
}

// NewContext returns a context without any factory.
func NewContext(engine ContextEngine) Context {
	return Context{ContextEngine: engine}
}

// GetFactory returns the most recent factory added for the key, or nil.
func (ctx Context) GetFactory(key interface{}) Factory {
	for link := ctx.link; link != nil; link = link.parent {
		if link.key == key {
			return link.factory
		}
	}

	return nil
}

// WithFactory returns a child of the context where the factory is available
// with the key.
func WithFactory(ctx Context, key interface{}, f Factory) Context {
	ctx.link = &factoryLink{
		key:     key,
		factory: f,
		parent:  ctx.link,
	}

	return ctx
}
