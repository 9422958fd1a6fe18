package blade

import (
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// ErrUnclosedSection is returned when a view finishes with a section or push
// still capturing.
var ErrUnclosedSection = errors.New("section left open at end of view")

// Renderer carries the state shared by a top-level render and every render
// nested inside it: sections, stacks, output buffers and the nesting depth.
// Sections and stacks are flushed when the outermost render returns.
// A Renderer is not safe for concurrent use.
type Renderer struct {
	engine   *Engine
	out      *Output
	sections *Sections
	depth    int
	funcs    template.FuncMap
}

// NewRenderer returns a Renderer with empty state.
func (e *Engine) NewRenderer() *Renderer {
	out := &Output{}
	r := &Renderer{
		engine:   e,
		out:      out,
		sections: NewSections(out),
	}
	r.funcs = e.funcMap(r)
	return r
}

// Sections exposes the section registry.
func (r *Renderer) Sections() *Sections {
	return r.sections
}

// Depth returns the number of renders in progress.
func (r *Renderer) Depth() int {
	return r.depth
}

// Enter marks the start of a render.
func (r *Renderer) Enter() {
	r.depth++
}

// Exit marks the end of a render. Leaving the outermost render flushes all
// sections and stacks.
func (r *Renderer) Exit() {
	if r.depth > 0 {
		r.depth--
	}
	if r.depth == 0 {
		r.sections.Flush()
		r.out.Discard(0)
	}
}

// Render renders the named view and returns its output. Renders started
// from inside a view (includes, layouts, render_each) share this Renderer.
func (r *Renderer) Render(name string, data any) (string, error) {
	r.Enter()
	defer r.Exit()

	v, err := r.engine.resolve(name)
	if err != nil {
		return "", err
	}
	tmpl, err := r.engine.template(v)
	if err != nil {
		return "", err
	}
	t, err := tmpl.Clone()
	if err != nil {
		return "", fmt.Errorf("[%s] %w", v.Name, err)
	}
	t.Funcs(r.funcs)

	level := r.out.Level()
	open, pushes := len(r.sections.last), len(r.sections.pushes)
	r.out.Start()
	err = t.Execute(r.out, toData(data))
	if err == nil && r.out.Level() != level+1 {
		err = fmt.Errorf("[%s] %w", v.Name, ErrUnclosedSection)
	}
	if err != nil {
		r.out.Discard(level)
		r.sections.last = r.sections.last[:min(open, len(r.sections.last))]
		r.sections.pushes = r.sections.pushes[:min(pushes, len(r.sections.pushes))]
		return "", err
	}
	return r.out.End()
}

func (r *Renderer) include(scope Data, name string, kv ...any) (string, error) {
	data := toData(scope)
	if err := data.pairs(kv); err != nil {
		return "", fmt.Errorf("include %s: %w", name, err)
	}
	return r.Render(name, data)
}

func (r *Renderer) render(name string, args ...any) (string, error) {
	data, err := argsData(args)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return r.Render(name, data)
}

// renderEach renders name once per element of data, binding the element to
// iterator and its index or key to "key". An empty data renders the empty
// view, or emits it verbatim when it carries RawPrefix.
func (r *Renderer) renderEach(name string, data any, iterator string, empty ...string) (string, error) {
	items, err := entries(data)
	if err != nil {
		return "", fmt.Errorf("render_each %s: %w", name, err)
	}
	if len(items) == 0 {
		if len(empty) == 0 || empty[0] == "" {
			return "", nil
		}
		if raw, ok := strings.CutPrefix(empty[0], RawPrefix); ok {
			return raw, nil
		}
		return r.Render(empty[0], Data{})
	}
	var out strings.Builder
	for _, item := range items {
		s, err := r.Render(name, Data{"key": item.key, iterator: item.value})
		if err != nil {
			return "", err
		}
		out.WriteString(s)
	}
	return out.String(), nil
}

func (r *Renderer) yield(name string, def ...any) string {
	if len(def) > 0 {
		return r.sections.Yield(name, toString(def[0]))
	}
	return r.sections.Yield(name)
}

func (r *Renderer) yieldSection() (string, error) {
	return r.sections.YieldSection()
}

func (r *Renderer) sectionStart(name string, content ...any) string {
	if len(content) > 0 {
		r.sections.Start(name, toString(content[0]))
		return ""
	}
	r.sections.Start(name)
	return ""
}

func (r *Renderer) sectionStop() (string, error) {
	_, err := r.sections.Stop()
	return "", err
}

func (r *Renderer) push(name string) string {
	r.sections.Push(name)
	return ""
}

func (r *Renderer) endPush() (string, error) {
	_, err := r.sections.EndPush()
	return "", err
}

func (r *Renderer) stack(name string) string {
	return r.sections.Stack(name)
}

// observe records a top-level render in the render metrics.
func observe(name string, start time.Time, err error) {
	renderDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		renderErrors.WithLabelValues(name).Inc()
	}
}
