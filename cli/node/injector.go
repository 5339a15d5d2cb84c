package node

import (
	"reflect"

	"golang.org/x/xerrors"
)

// reflectInjector keeps the dependencies in the order of injection, so that a
// resolution does not depend on the iteration order of a map.
//
// - implements node.Injector
type reflectInjector struct {
	deps []interface{}
}

// NewInjector returns an empty injector.
func NewInjector() Injector {
	return &reflectInjector{}
}

// Resolve implements node.Injector.
func (inj *reflectInjector) Resolve(v interface{}) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return xerrors.Errorf("expect a non-nil pointer but got '%T'", v)
	}

	target := rv.Elem().Type()

	for i := len(inj.deps) - 1; i >= 0; i-- {
		dep := reflect.ValueOf(inj.deps[i])

		if dep.Type().AssignableTo(target) {
			rv.Elem().Set(dep)
			return nil
		}
	}

	return xerrors.Errorf("couldn't find dependency for '%v'", target)
}

// Inject implements node.Injector.
func (inj *reflectInjector) Inject(v interface{}) {
	if v == nil {
		return
	}

	typ := reflect.TypeOf(v)

	for i, dep := range inj.deps {
		if reflect.TypeOf(dep) == typ {
			inj.deps = append(inj.deps[:i], inj.deps[i+1:]...)
			break
		}
	}

	inj.deps = append(inj.deps, v)
}
