package blade

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"maps"
	"math/rand/v2"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"text/template"
	"time"
)

var ValidFileExtensions = []string{".blade", ".tmpl", ".html", ".gohtml"}

// ErrViewNotFound is returned when no file matches a view name.
var ErrViewNotFound = errors.New("view not found")

// Hook runs before a view is rendered. Hooks may point the view at a
// different artifact by changing CompiledPath, or supply Compiled directly.
type Hook func(v *View) error

// Engine resolves, compiles and renders views.
type Engine struct {
	dirPrefix      string
	root           string
	fs             fs.FS
	compiler       *Compiler
	store          Store
	cache          *Cache
	logger         *slog.Logger
	hooks          []Hook
	templates      map[string]*parsedTemplate
	debugTemplates map[string]string
	mu             sync.Mutex
	FuncMap        template.FuncMap
}

type parsedTemplate struct {
	tmpl  *template.Template
	stamp time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithCacheDir keeps compiled artifacts in dir. Use one directory per view
// tree: artifacts of engines built on an fs.FS are keyed by path only.
func WithCacheDir(dir string) Option {
	return func(e *Engine) {
		e.store = DirStore{Dir: dir}
	}
}

// WithCacheStore keeps compiled artifacts in s.
func WithCacheStore(s Store) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithCompiler replaces the default compiler.
func WithCompiler(c *Compiler) Option {
	return func(e *Engine) {
		e.compiler = c
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithFuncs adds functions callable from templates.
func WithFuncs(fm template.FuncMap) Option {
	return func(e *Engine) {
		maps.Copy(e.FuncMap, fm)
	}
}

// WithPrefix sets the directory views live under inside the filesystem.
// When using embed.FS, pass the embedded folder.
func WithPrefix(prefix string) Option {
	return func(e *Engine) {
		e.dirPrefix = prefix
	}
}

// NewEngine creates a new engine pointing to a directory with files.
func NewEngine(dir string, opts ...Option) *Engine {
	root, err := filepath.Abs(dir)
	if err != nil {
		root = dir
	}
	opts = append([]Option{func(e *Engine) { e.root = filepath.ToSlash(root) }}, opts...)
	return NewEngineFS(os.DirFS(dir), opts...)
}

// NewEngineFS creates a new engine pointing to a filesystem.
func NewEngineFS(fsys fs.FS, opts ...Option) *Engine {
	e := &Engine{
		fs:             fsys,
		compiler:       NewCompiler(),
		logger:         slog.Default(),
		templates:      map[string]*parsedTemplate{},
		debugTemplates: map[string]string{},
		FuncMap:        template.FuncMap{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		e.store = DirStore{Dir: filepath.Join(os.TempDir(), "blade")}
		if e.root == "" {
			// engines sharing the default directory must not share artifacts
			e.root = fmt.Sprintf("fs-%016x", rand.Uint64())
		}
	}
	e.cache = NewCache(FSStore{FS: fsys}, e.store, e.compiler, e.root)
	e.cache.logger = e.logger
	e.hooks = []Hook{e.cache.Prepare}
	return e
}

// Compiler returns the compiler, e.g. to register extensions. Artifacts
// compiled before an extension was added stay valid until Flush.
func (e *Engine) Compiler() *Compiler {
	return e.compiler
}

// Cache returns the compiled artifact gate.
func (e *Engine) Cache() *Cache {
	return e.cache
}

// BeforeRender appends a hook run before every render, after the compile
// gate.
func (e *Engine) BeforeRender(h Hook) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hooks = append(e.hooks, h)
}

// Render executes the view identified by name (e.g., "pages/home") into w
// with data.
func (e *Engine) Render(w io.Writer, name string, data any) error {
	out, err := e.RenderString(name, data)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// RenderString renders the named view with a fresh Renderer.
// Only resolved views get their own metric label.
func (e *Engine) RenderString(name string, data any) (out string, err error) {
	start := time.Now()
	label := notFoundLabel
	if v, rerr := e.resolve(name); rerr == nil {
		label = v.Name
	}
	defer func() { observe(label, start, err) }()
	return e.NewRenderer().Render(name, data)
}

// Load walks the view tree, compiles every stale view and checks that
// statically named layouts and includes exist.
func (e *Engine) Load() error {
	root := "."
	if e.dirPrefix != "" {
		root = e.dirPrefix
	}
	var views []*View
	err := fs.WalkDir(e.fs, root, func(p string, info fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(p))
		if !slices.Contains(ValidFileExtensions, ext) {
			return nil
		}
		v := &View{Name: e.nameFromPath(p), Path: p}
		if _, err := e.template(v); err != nil {
			return err
		}
		views = append(views, v)
		return nil
	})
	if err != nil {
		return err
	}

	for _, v := range views {
		ctx := v.Context
		if ctx == nil {
			raw, err := fs.ReadFile(e.fs, v.Path)
			if err != nil {
				return err
			}
			ctx = NewCompileContext(v.Name, v.Path)
			e.compiler.Compile(string(raw), ctx)
		}
		for _, ref := range ctx.References() {
			if _, err := e.resolve(ref); err != nil {
				return fmt.Errorf(`[%s] template "%s" not found to include`, v.Name, ref)
			}
		}
	}
	e.logger.Debug("views loaded", slog.Int("count", len(views)))
	return nil
}

// Compiled returns the compiled source of the named view.
func (e *Engine) Compiled(name string) (string, error) {
	v, err := e.resolve(name)
	if err != nil {
		return "", err
	}
	if _, err := e.template(v); err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.debugTemplates[v.Name], nil
}

// GetDebugTemplates returns a map of all parsed views and their compiled
// source.
func (e *Engine) GetDebugTemplates() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return maps.Clone(e.debugTemplates)
}

// Flush removes every compiled artifact and forgets parsed templates.
func (e *Engine) Flush() error {
	e.mu.Lock()
	clear(e.templates)
	clear(e.debugTemplates)
	e.mu.Unlock()
	if err := e.cache.Flush(); err != nil {
		return err
	}
	e.logger.Debug("compiled views flushed")
	return nil
}

// resolve finds the source file of a view name.
func (e *Engine) resolve(name string) (*View, error) {
	name = normalizeName(name)
	for _, ext := range ValidFileExtensions {
		p := path.Join(e.dirPrefix, name+ext)
		if _, err := fs.Stat(e.fs, p); err == nil {
			return &View{Name: name, Path: p}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrViewNotFound, name)
}

// template runs the hooks for v and returns its parsed artifact, parsing
// only when the artifact changed since it was last seen.
func (e *Engine) template(v *View) (*template.Template, error) {
	e.mu.Lock()
	hooks := slices.Clone(e.hooks)
	e.mu.Unlock()
	for _, h := range hooks {
		if err := h(v); err != nil {
			e.logger.Warn("before render hook failed", slog.String("view", v.Name), slog.Any("error", err))
			return nil, fmt.Errorf("[%s] %w", v.Name, err)
		}
	}

	fresh := v.Context != nil || v.Compiled != ""
	stamp, err := e.store.Timestamp(v.CompiledPath)
	if err != nil && !fresh {
		return nil, fmt.Errorf("[%s] %w", v.Name, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	text := v.Compiled
	if !fresh {
		if pt, ok := e.templates[v.CompiledPath]; ok && pt.stamp.Equal(stamp) {
			return pt.tmpl, nil
		}
		if text, err = e.store.Load(v.CompiledPath); err != nil {
			return nil, fmt.Errorf("[%s] %w", v.Name, err)
		}
	}
	tmpl, err := template.New(v.Name).Delims(LeftDelim, RightDelim).Funcs(e.funcMap(nil)).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("[%s] %w", v.Name, err)
	}
	e.templates[v.CompiledPath] = &parsedTemplate{tmpl: tmpl, stamp: stamp}
	e.debugTemplates[v.Name] = text
	return tmpl, nil
}

// nameFromPath converts a filesystem path to a view name, relative to the
// engine prefix.
func (e *Engine) nameFromPath(p string) string {
	rel := p
	if e.dirPrefix != "" {
		rel = strings.TrimPrefix(strings.TrimPrefix(p, e.dirPrefix), "/")
	}
	return normalizeName(rel)
}
