package typedcache

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/cast"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	c "github.com/unkn0wn-root/typedcache/codec"
)

// RecordToList returns the values of m in insertion order.
func RecordToList[V any](m *orderedmap.OrderedMap[string, V]) []V {
	if m == nil {
		return []V{}
	}
	out := make([]V, 0, m.Len())
	for p := m.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Value)
	}
	return out
}

// EncodeForHashBulkWrite flattens items into [field1, enc1, field2, enc2, ...]
// for HMSet. The field of each item is the value found at keyField: a struct
// field matched by json tag or Go name, or a string-keyed map entry.
// An item without a non-nil value there fails with ErrMissingKeyField.
func EncodeForHashBulkWrite[V any](items []V, keyField string, codec c.Codec[V]) ([]string, error) {
	if keyField == "" {
		return nil, fmt.Errorf("%w: empty key field name", ErrMissingKeyField)
	}
	out := make([]string, 0, 2*len(items))
	for i, it := range items {
		kv, ok := lookupField(reflect.ValueOf(it), keyField)
		if !ok || isNil(kv) {
			return nil, fmt.Errorf("item %d: %w %q", i, ErrMissingKeyField, keyField)
		}
		field, err := cast.ToStringE(kv)
		if err != nil {
			return nil, fmt.Errorf("item %d: key field %q: %w", i, keyField, err)
		}
		payload, err := codec.Encode(it)
		if err != nil {
			return nil, fmt.Errorf("item %d: encode: %w", i, err)
		}
		out = append(out, field, string(payload))
	}
	return out, nil
}

func lookupField(v reflect.Value, name string) (any, bool) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		mv := v.MapIndex(reflect.ValueOf(name).Convert(v.Type().Key()))
		if !mv.IsValid() {
			return nil, false
		}
		return mv.Interface(), true
	case reflect.Struct:
		return structField(v, name)
	}
	return nil, false
}

func structField(v reflect.Value, name string) (any, bool) {
	t := v.Type()
	// json tag wins over the Go name, as it does for the JSON codec
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		if tag := strings.Split(sf.Tag.Get("json"), ",")[0]; tag != "" && tag == name {
			return v.Field(i).Interface(), true
		}
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.IsExported() && sf.Name == name && sf.Tag.Get("json") != "-" {
			return v.Field(i).Interface(), true
		}
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.Anonymous || !sf.IsExported() {
			continue
		}
		if fv, ok := lookupField(v.Field(i), name); ok {
			return fv, true
		}
	}
	return nil, false
}
