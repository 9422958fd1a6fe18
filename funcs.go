package blade

import (
	"errors"
	"fmt"
	"iter"
	"reflect"
	"text/template"

	gojson "github.com/goccy/go-json"
	"github.com/gosimple/slug"
	"github.com/microcosm-cc/bluemonday"
	"github.com/spf13/cast"
)

// MaxLoopIterations bounds @while loops.
var MaxLoopIterations = 1 << 16

var ugcPolicy = bluemonday.UGCPolicy()

// funcMap returns the functions compiled templates call. The directive
// functions are bound to r, which may be nil when the map is only used to
// parse.
func (e *Engine) funcMap(r *Renderer) template.FuncMap {
	fm := template.FuncMap{
		"e":         escape,
		"raw":       toString,
		"fallback":  fallback,
		"count":     count,
		"loop":      loop,
		"loopGuard": loopGuard,
		"set":       set,
		"unset":     unset,

		"include":      r.include,
		"render":       r.render,
		"renderEach":   r.renderEach,
		"yield":        r.yield,
		"yieldSection": r.yieldSection,
		"sectionStart": r.sectionStart,
		"sectionStop":  r.sectionStop,
		"push":         r.push,
		"endPush":      r.endPush,
		"stack":        r.stack,

		"json":     toJSON,
		"sanitize": sanitize,
		"slug":     slugify,
	}
	for name, fn := range e.FuncMap {
		fm[name] = fn
	}
	return fm
}

// toString never fails: nil is empty, unknown types fall back to fmt.
func toString(v any) string {
	if v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}

func escape(v any) string {
	return template.HTMLEscapeString(toString(v))
}

// fallback returns the first truthy value, or the last one.
func fallback(values ...any) any {
	for _, v := range values {
		if ok, _ := template.IsTrue(v); ok {
			return v
		}
	}
	if len(values) == 0 {
		return nil
	}
	return values[len(values)-1]
}

func count(v any) int {
	if v == nil {
		return 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Array, reflect.Chan, reflect.Map, reflect.Slice, reflect.String:
		return rv.Len()
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return 0
		}
		return count(rv.Elem().Interface())
	}
	return 1
}

// ErrLoopLimit is returned when a @while loop runs MaxLoopIterations times
// without its condition turning false.
var ErrLoopLimit = errors.New("while loop exceeded the iteration limit")

// loop yields an index with dot until the caller breaks out, so the body of
// a @while keeps its dot. It yields one extra index past the limit, so a
// condition still true there reaches loopGuard.
func loop(dot any) iter.Seq2[int, any] {
	return func(yield func(int, any) bool) {
		for i := range MaxLoopIterations + 1 {
			if !yield(i, dot) {
				return
			}
		}
	}
}

func loopGuard(i int) (string, error) {
	if i >= MaxLoopIterations {
		return "", fmt.Errorf("%w (%d)", ErrLoopLimit, MaxLoopIterations)
	}
	return "", nil
}

func set(scope Data, name string, value any) string {
	scope[name] = value
	return ""
}

func unset(scope Data, name string) string {
	delete(scope, name)
	return ""
}

func toJSON(v any) (string, error) {
	b, err := gojson.Marshal(v)
	return string(b), err
}

func sanitize(v any) string {
	return ugcPolicy.Sanitize(toString(v))
}

func slugify(v any) string {
	return slug.Make(toString(v))
}
