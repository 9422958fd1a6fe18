package blade

import (
	"fmt"
	"maps"
	"reflect"
	"sort"

	"github.com/spf13/cast"
)

// Data is the scope a view renders with. Inside a template it is `$`.
type Data map[string]any

// toData converts render input to a fresh scope the template may mutate.
// Maps with string keys are copied, structs contribute their exported
// fields, anything else is exposed as "data".
func toData(v any) Data {
	switch d := v.(type) {
	case nil:
		return Data{}
	case Data:
		if d == nil {
			return Data{}
		}
		return maps.Clone(d)
	case map[string]any:
		if d == nil {
			return Data{}
		}
		return Data(maps.Clone(d))
	}

	rv := reflect.Indirect(reflect.ValueOf(v))
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			d := make(Data, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				d[iter.Key().String()] = iter.Value().Interface()
			}
			return d
		}
		if m, err := cast.ToStringMapE(v); err == nil {
			return Data(m)
		}
	case reflect.Struct:
		d := Data{}
		t := rv.Type()
		for i := range t.NumField() {
			if f := t.Field(i); f.IsExported() {
				d[f.Name] = rv.Field(i).Interface()
			}
		}
		return d
	}
	return Data{"data": v}
}

// pairs merges alternating key/value arguments into d.
func (d Data) pairs(kv []any) error {
	if len(kv)%2 != 0 {
		return fmt.Errorf("odd number of key/value arguments: %d", len(kv))
	}
	for i := 0; i < len(kv); i += 2 {
		key, err := cast.ToStringE(kv[i])
		if err != nil {
			return fmt.Errorf("argument %d: %w", i, err)
		}
		d[key] = kv[i+1]
	}
	return nil
}

// argsData builds the scope of @render: nothing, one map-like value, or
// key/value pairs.
func argsData(args []any) (Data, error) {
	switch len(args) {
	case 0:
		return Data{}, nil
	case 1:
		return toData(args[0]), nil
	}
	d := Data{}
	return d, d.pairs(args)
}

type entry struct {
	key   any
	value any
}

// entries lists the elements of a slice, array or map. Map entries are
// ordered by key.
func entries(v any) ([]entry, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.Indirect(reflect.ValueOf(v))
	switch rv.Kind() {
	case reflect.Invalid:
		return nil, nil
	case reflect.Slice, reflect.Array:
		out := make([]entry, rv.Len())
		for i := range out {
			out[i] = entry{key: i, value: rv.Index(i).Interface()}
		}
		return out, nil
	case reflect.Map:
		out := make([]entry, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out = append(out, entry{key: iter.Key().Interface(), value: iter.Value().Interface()})
		}
		sort.Slice(out, func(i, j int) bool {
			return toString(out[i].key) < toString(out[j].key)
		})
		return out, nil
	}
	return nil, fmt.Errorf("cannot iterate over %T", v)
}
