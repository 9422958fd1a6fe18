package blade

import (
	"maps"
	"slices"
)

// CompileContext describes the view being compiled and collects what the
// passes discovered about it.
type CompileContext struct {
	// Name is the view name, e.g. "pages/home".
	Name string
	// Path is the source path of the view.
	Path string
	// Layout is the view named by a leading @layout directive.
	Layout string
	// Includes is the set of statically named views pulled in by @include.
	Includes map[string]struct{}
	// Yields is a map of yielded section names to their default content
	Yields map[string]string
	// Sections is the set of section names opened by @section
	Sections map[string]struct{}
	// Stacks is the set of stack names read by @stack
	Stacks map[string]struct{}

	extensions []Extension
}

// NewCompileContext returns an empty context for the named view.
func NewCompileContext(name, path string) *CompileContext {
	return &CompileContext{
		Name:     name,
		Path:     path,
		Includes: map[string]struct{}{},
		Yields:   map[string]string{},
		Sections: map[string]struct{}{},
		Stacks:   map[string]struct{}{},
	}
}

// References returns the statically known views this view depends on.
func (c *CompileContext) References() []string {
	refs := slices.Sorted(maps.Keys(c.Includes))
	if c.Layout != "" && !slices.Contains(refs, c.Layout) {
		refs = append([]string{c.Layout}, refs...)
	}
	return refs
}

func (c *CompileContext) addInclude(arg string) {
	if name, ok := staticName(arg); ok {
		c.Includes[name] = struct{}{}
	}
}

// staticName reports the view name of a quoted literal argument.
func staticName(arg string) (string, bool) {
	lit := literal(arg)
	if lit == "" || (lit[0] != '"' && lit[0] != '`') {
		return "", false
	}
	return normalizeName(unquote(lit)), true
}
