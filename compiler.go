package blade

import (
	"slices"
	"sync"
)

// Extension is a user supplied rewrite. Extensions receive the raw template
// text before any built-in pass, so they may emit directives of their own.
type Extension func(text string) string

// Compiler translates template markup into text/template source by running
// an ordered list of passes.
type Compiler struct {
	mu         sync.RWMutex
	passes     []Pass
	extensions []Extension
}

// CompilerOption configures a Compiler.
type CompilerOption func(*Compiler)

// WithPasses replaces the pass pipeline.
func WithPasses(passes []Pass) CompilerOption {
	return func(c *Compiler) {
		c.passes = slices.Clone(passes)
	}
}

// NewCompiler returns a compiler running DefaultPasses.
func NewCompiler(opts ...CompilerOption) *Compiler {
	c := &Compiler{passes: DefaultPasses()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ExtensionsLast returns the default pipeline with user extensions moved to
// the end, where they see fully compiled output.
func ExtensionsLast() []Pass {
	passes := DefaultPasses()
	i := slices.IndexFunc(passes, func(p Pass) bool { return p.Name == "extensions" })
	ext := passes[i]
	return append(slices.Delete(passes, i, i+1), ext)
}

// Extend registers an extension. Extensions run in registration order.
func (c *Compiler) Extend(ext Extension) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.extensions = append(c.extensions, ext)
}

// Passes returns the pass names in execution order.
func (c *Compiler) Passes() []string {
	names := make([]string, len(c.passes))
	for i, p := range c.passes {
		names[i] = p.Name
	}
	return names
}

// Compile runs every pass over text. A nil ctx is allowed.
func (c *Compiler) Compile(text string, ctx *CompileContext) string {
	if ctx == nil {
		ctx = NewCompileContext("", "")
	}
	c.mu.RLock()
	ctx.extensions = slices.Clone(c.extensions)
	c.mu.RUnlock()
	for _, p := range c.passes {
		text = p.Fn(text, ctx)
	}
	return text
}
