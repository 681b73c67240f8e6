// Package mask renders structs as ordered maps for logging, hiding the
// values of fields tagged `mask:"true"`.
package mask

import (
	"reflect"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Placeholder replaces the value of a masked field.
const Placeholder = "***"

const tagName = "mask"

// Map is the flattened representation produced by StructToOrdMap.
type Map = orderedmap.OrderedMap[string, any]

// StructToOrdMap flattens v into an ordered map keyed by field path.
// Nested structs produce dotted keys ("db.password"). Keys follow the json
// tag, then the yaml tag, then the Go field name; "-" skips the field.
// Masked fields holding a zero value are kept as is. A non-struct v is
// stored under the empty key. A nil v returns nil.
func StructToOrdMap(v any) *Map {
	if v == nil {
		return nil
	}

	m := orderedmap.New[string, any]()
	flatten(m, reflect.ValueOf(v), "")
	return m
}

func flatten(m *Map, rv reflect.Value, path string) {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			m.Set(path, nil)
			return
		}
		rv = rv.Elem()
	}

	if rv.Kind() != reflect.Struct {
		m.Set(path, rv.Interface())
		return
	}

	rt := rv.Type()
	for i := range rt.NumField() {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}

		name, ok := fieldName(sf)
		if !ok {
			continue
		}
		if path != "" {
			name = path + "." + name
		}

		fv := rv.Field(i)
		switch {
		case masked(sf):
			m.Set(name, hide(fv))
		case nestedStruct(fv):
			flatten(m, fv, name)
		default:
			m.Set(name, fv.Interface())
		}
	}
}

func nestedStruct(fv reflect.Value) bool {
	if fv.Kind() == reflect.Pointer {
		return !fv.IsNil() && fv.Elem().Kind() == reflect.Struct
	}
	return fv.Kind() == reflect.Struct
}

func masked(sf reflect.StructField) bool {
	return strings.EqualFold(sf.Tag.Get(tagName), "true")
}

func hide(fv reflect.Value) any {
	switch fv.Kind() { //nolint:exhaustive // rest is handled below
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
		if fv.IsNil() {
			return nil
		}
	}
	if fv.IsZero() {
		return fv.Interface()
	}
	return Placeholder
}

func fieldName(sf reflect.StructField) (string, bool) {
	for _, key := range []string{"json", "yaml"} {
		tag, ok := sf.Tag.Lookup(key)
		if !ok {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "-" {
			return "", false
		}
		if name != "" {
			return name, true
		}
	}
	return sf.Name, true
}
