package blade

import (
	"fmt"
	"hash/crc32"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

// CompiledExt is the suffix of compiled artifacts.
const CompiledExt = ".compiled"

// Cache decides when a view must be recompiled and keeps the artifacts.
type Cache struct {
	sources  Store
	compiled Store
	compiler *Compiler
	root     string
	logger   *slog.Logger
}

// NewCache returns a gate reading views from sources and writing artifacts
// to compiled. root is joined to source paths before hashing them.
func NewCache(sources, compiled Store, compiler *Compiler, root string) *Cache {
	return &Cache{
		sources:  sources,
		compiled: compiled,
		compiler: compiler,
		root:     root,
		logger:   slog.Default(),
	}
}

// CompiledPath maps a source path to its artifact name. The name is derived
// from the path, not the content, so it is stable across edits.
func (c *Cache) CompiledPath(sourcePath string) string {
	full := path.Join(c.root, sourcePath)
	name := slug.Make(strings.TrimSuffix(sourcePath, path.Ext(sourcePath)))
	return fmt.Sprintf("%s-%08x%s", name, crc32.ChecksumIEEE([]byte(full)), CompiledExt)
}

// NeedsRecompile reports whether the artifact is missing or older than
// its source.
func (c *Cache) NeedsRecompile(sourcePath, compiledPath string) (bool, error) {
	if !c.compiled.Exists(compiledPath) {
		return true, nil
	}
	src, err := c.sources.Timestamp(sourcePath)
	if err != nil {
		return false, err
	}
	dst, err := c.compiled.Timestamp(compiledPath)
	if err != nil {
		return false, err
	}
	return src.After(dst), nil
}

// contentPath keys an artifact by the source content as well. It is used
// for sources without a modification time, such as embed.FS files.
func contentPath(compiledPath, source string) string {
	base := strings.TrimSuffix(compiledPath, CompiledExt)
	return fmt.Sprintf("%s-%08x%s", base, crc32.ChecksumIEEE([]byte(source)), CompiledExt)
}

// Prepare is the before-render hook: it points v at its artifact and,
// when the artifact is stale, compiles and stores it.
func (c *Cache) Prepare(v *View) error {
	v.CompiledPath = c.CompiledPath(v.Path)

	var raw string
	loaded := false
	if stamp, err := c.sources.Timestamp(v.Path); err == nil && stamp.IsZero() {
		if raw, err = c.sources.Load(v.Path); err != nil {
			return err
		}
		loaded = true
		v.CompiledPath = contentPath(v.CompiledPath, raw)
	}

	stale, err := c.NeedsRecompile(v.Path, v.CompiledPath)
	if err != nil {
		return err
	}
	if !stale {
		cacheLookups.WithLabelValues("hit").Inc()
		return nil
	}
	cacheLookups.WithLabelValues("miss").Inc()

	start := time.Now()
	if !loaded {
		if raw, err = c.sources.Load(v.Path); err != nil {
			return err
		}
	}
	ctx := NewCompileContext(v.Name, v.Path)
	compiled := c.compiler.Compile(raw, ctx)
	if err := c.compiled.Store(v.CompiledPath, compiled); err != nil {
		return fmt.Errorf("store compiled view: %w", err)
	}
	v.Compiled = compiled
	v.Context = ctx
	compilesTotal.WithLabelValues(v.Name).Inc()
	c.logger.Debug("compiled view",
		slog.String("view", v.Name),
		slog.String("artifact", v.CompiledPath),
		slog.Duration("took", time.Since(start)),
	)
	return nil
}

// Flush removes every artifact, if the compiled store supports it.
func (c *Cache) Flush() error {
	f, ok := c.compiled.(interface{ Flush() error })
	if !ok {
		return nil
	}
	return f.Flush()
}
