package cache

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = "::"

// defaultKeySerializer implements KeySerializer using reflection.
// Maps are emitted in sorted key order and empty maps encode the same as nil maps,
// so two filter values that are field-wise equal always produce the same key.
type defaultKeySerializer struct{}

// NewDefaultKeySerializer creates a new instance of the default key serializer.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{}
}

// SerializeKey builds a cache key from the namespace and args.
func (s *defaultKeySerializer) SerializeKey(namespace string, args ...any) string {
	if len(args) == 0 {
		return namespace
	}

	parts := make([]string, 0, len(args)+1)
	parts = append(parts, namespace)
	for _, arg := range args {
		parts = append(parts, s.serializeValue(reflect.ValueOf(arg)))
	}

	return strings.Join(parts, KeySeparator)
}

func (s *defaultKeySerializer) serializeValue(rv reflect.Value) string {
	if !rv.IsValid() {
		return "nil"
	}

	// Types such as decimal.Decimal carry unexported state; their String form is canonical.
	if rv.CanInterface() {
		if str, ok := rv.Interface().(fmt.Stringer); ok && rv.Kind() != reflect.Ptr {
			return str.String()
		}
	}

	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return "nil"
		}
		return s.serializeValue(rv.Elem())
	case reflect.Slice, reflect.Array:
		return s.serializeList(rv)
	case reflect.Map:
		return s.serializeMap(rv)
	case reflect.Struct:
		return s.serializeStruct(rv)
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return fmt.Sprintf("%s:%x", rv.Kind(), rv.Pointer())
	}

	if isBasicKind(rv.Kind()) {
		return fmt.Sprintf("%v", rv.Interface())
	}

	return s.jsonFallback(rv)
}

func (s *defaultKeySerializer) serializeList(rv reflect.Value) string {
	parts := make([]string, rv.Len())
	for i := range parts {
		parts[i] = s.serializeValue(rv.Index(i))
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, ","))
}

func (s *defaultKeySerializer) serializeMap(rv reflect.Value) string {
	if rv.Len() == 0 {
		return "{}"
	}

	pairs := make([]string, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		pairs = append(pairs, s.serializeValue(iter.Key())+"="+s.serializeValue(iter.Value()))
	}
	sort.Strings(pairs)

	return fmt.Sprintf("{%s}", strings.Join(pairs, ","))
}

func (s *defaultKeySerializer) serializeStruct(rv reflect.Value) string {
	rt := rv.Type()
	parts := make([]string, 0, rv.NumField())

	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		parts = append(parts, field.Name+":"+s.serializeValue(rv.Field(i)))
	}

	return fmt.Sprintf("%s{%s}", rt.Name(), strings.Join(parts, ","))
}

func isBasicKind(kind reflect.Kind) bool {
	switch kind {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128,
		reflect.String:
		return true
	default:
		return false
	}
}

// jsonFallback is only reached for kinds not handled above.
func (s *defaultKeySerializer) jsonFallback(rv reflect.Value) string {
	if !rv.CanInterface() {
		return "unserializable:" + rv.Type().String()
	}
	data, err := json.Marshal(rv.Interface())
	if err != nil {
		return "unserializable:" + rv.Type().String()
	}
	return "json:" + string(data)
}
