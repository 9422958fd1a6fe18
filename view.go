package blade

import (
	"path/filepath"
	"strings"
)

// View is one resolved view on its way to being rendered.
type View struct {
	// Name is the normalized view name, e.g. "pages/home"
	Name string
	// Path is the source file path inside the engine filesystem
	Path string
	// CompiledPath is the artifact name in the compiled store
	CompiledPath string
	// Compiled is the artifact text when it was produced by this render
	Compiled string
	// Context is what the compiler discovered, set alongside Compiled
	Context *CompileContext
}

// normalizeName: remove quotes/spaces and extensions, normalize slashes
func normalizeName(n string) string {
	n = strings.TrimSpace(n)
	n = strings.Trim(n, `"' `)
	// remove ext if present
	n = strings.TrimSuffix(n, filepath.Ext(n))
	n = filepath.ToSlash(n)
	return strings.TrimPrefix(n, "/")
}
