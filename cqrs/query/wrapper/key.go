package wrapper

import (
	"encoding"
	"reflect"
	"sync"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/dispatch/cqrs/query"
)

// CodeUncacheableQuery is returned by Key for queries whose JSON form does
// not carry all of their fields.
const CodeUncacheableQuery = "UNCACHEABLE_QUERY"

//nolint:gochecknoglobals // per-type result of cacheableType
var cacheableTypes sync.Map

//nolint:gochecknoglobals // reflect types checked against query field types
var (
	jsonMarshalerType = reflect.TypeFor[interface{ MarshalJSON() ([]byte, error) }]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
)

// Key returns the cache key of q without prefix: "<identifier>:<json(q)>".
// Queries that are not Cacheable get an error, since two different values
// could share the same key.
func Key(q query.Query) (string, error) {
	if !Cacheable(q) {
		return "", errx.New(
			"query has fields not covered by its JSON encoding",
			errx.WithCode(CodeUncacheableQuery),
			errx.WithDetails(errx.D{"query_name": q.QueryName()}),
		)
	}

	data, err := json.Marshal(q)
	if err != nil {
		return "", errx.Wrap(err)
	}
	return q.QueryName() + ":" + string(data), nil
}

// Cacheable reports whether the JSON encoding of q includes every field of
// q. Unexported fields and fields tagged `json:"-"` make a query type
// uncacheable, also when nested. Types with their own MarshalJSON or
// MarshalText are trusted.
func Cacheable(q query.Query) bool {
	if q == nil {
		return false
	}
	return cacheableType(reflect.TypeOf(q))
}

func cacheableType(t reflect.Type) bool {
	if v, ok := cacheableTypes.Load(t); ok {
		return v.(bool) //nolint:errcheck // only bools are stored
	}
	ok := encodesAllFields(t, map[reflect.Type]bool{})
	cacheableTypes.Store(t, ok)
	return ok
}

func encodesAllFields(t reflect.Type, seen map[reflect.Type]bool) bool {
	if seen[t] {
		return true
	}
	seen[t] = true

	if t.Implements(jsonMarshalerType) || t.Implements(textMarshalerType) {
		return true
	}

	switch t.Kind() { //nolint:exhaustive // scalars always encode fully
	case reflect.Pointer, reflect.Slice, reflect.Array:
		return encodesAllFields(t.Elem(), seen)
	case reflect.Map:
		return encodesAllFields(t.Key(), seen) && encodesAllFields(t.Elem(), seen)
	case reflect.Interface, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return false
	case reflect.Struct:
		for i := range t.NumField() {
			f := t.Field(i)
			if !f.IsExported() || f.Tag.Get("json") == "-" {
				return false
			}
			if !encodesAllFields(f.Type, seen) {
				return false
			}
		}
	}
	return true
}
