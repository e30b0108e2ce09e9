package resolve

import (
	"os"
	"reflect"
)

// Predicate decides whether a candidate value counts as present.
type Predicate func(v any) bool

// Present treats every non-nil value as present, including 0, "" and false.
func Present(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	}
	return true
}

// Truthy treats nil, the empty string, numeric zero and false as absent.
func Truthy(v any) bool {
	if !Present(v) {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return !rv.IsZero()
	}
	return true
}

// First returns the first value accepted by pred. Later values are never
// inspected. ok is false when no value qualifies.
func First(pred Predicate, values ...any) (any, bool) {
	for _, v := range values {
		if pred(v) {
			return v, true
		}
	}
	return nil, false
}

// Source is a named provider of settings.
type Source interface {
	Name() string
	Lookup(key string) (any, bool)
}

type funcSource struct {
	name   string
	lookup func(key string) (any, bool)
}

func (s funcSource) Name() string                  { return s.name }
func (s funcSource) Lookup(key string) (any, bool) { return s.lookup(key) }

// SourceFunc adapts a lookup function into a named Source.
func SourceFunc(name string, lookup func(key string) (any, bool)) Source {
	return funcSource{name: name, lookup: lookup}
}

// Env returns a Source backed by the process environment.
func Env() Source {
	return EnvFunc("env", os.LookupEnv)
}

// EnvFunc returns an environment Source backed by lookup.
func EnvFunc(name string, lookup func(string) (string, bool)) Source {
	return SourceFunc(name, func(key string) (any, bool) {
		v, ok := lookup(key)
		if !ok {
			return nil, false
		}
		return v, true
	})
}

// Map is a Source over a fixed set of values.
type Map struct {
	Label  string
	Values map[string]any
}

// Name implements Source.
func (m Map) Name() string {
	if m.Label == "" {
		return "map"
	}
	return m.Label
}

// Lookup implements Source.
func (m Map) Lookup(key string) (any, bool) {
	v, ok := m.Values[key]
	return v, ok
}

// EnvMap returns an environment Source over a fixed set of variables, for tests
// and for callers that snapshot the environment.
func EnvMap(vars map[string]string) Source {
	return EnvFunc("env", func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	})
}
