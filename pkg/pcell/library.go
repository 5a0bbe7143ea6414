package pcell

import (
	"context"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pcellkit/pkg/component"
	"github.com/matzehuels/pcellkit/pkg/errors"
	"github.com/matzehuels/pcellkit/pkg/observability"
	"github.com/matzehuels/pcellkit/pkg/tech"
)

// Factory fills b, which is already named after the build signature and
// carries the normalized settings. p holds the defaults merged with the
// caller's overrides.
type Factory func(b *component.Builder, lib *Library, p Params) error

// Cell is a parametric cell definition.
type Cell struct {
	Name string
	Doc  string

	// Defaults lists every accepted parameter. Optional parameters without
	// a default are present with a nil value.
	Defaults Params

	Build Factory
}

// merge overlays p on the defaults, rejecting unknown keys.
func (c *Cell) merge(p Params) (Params, error) {
	out := c.Defaults.Clone()
	for k, v := range p {
		if _, ok := c.Defaults[k]; !ok {
			return nil, errors.New(errors.ErrCodeInvalidParams,
				"cell %s has no parameter %q (valid: %s)", c.Name, k, strings.Join(c.Defaults.Keys(), ", "))
		}
		out[k] = v
	}
	return out, nil
}

// Library is a registry of cells bound to a technology and a component
// cache. It is safe for concurrent use.
type Library struct {
	pdk     *tech.PDK
	cache   *Cache
	logger  *log.Logger
	hashLen int

	mu    sync.RWMutex
	cells map[string]*Cell
}

// Option configures a Library.
type Option func(*Library)

// WithCache shares an existing component cache. Signatures include the PDK
// name, so libraries on differently named PDKs never share entries.
func WithCache(c *Cache) Option {
	return func(l *Library) { l.cache = c }
}

// WithLogger sets the logger used for build and cache-hit messages.
func WithLogger(logger *log.Logger) Option {
	return func(l *Library) { l.logger = logger }
}

// WithHashLength sets how many hex characters of the parameter hash go into
// signature keys.
func WithHashLength(n int) Option {
	return func(l *Library) { l.hashLen = n }
}

// NewLibrary creates an empty library. A nil pdk selects the generic one.
func NewLibrary(pdk *tech.PDK, opts ...Option) *Library {
	if pdk == nil {
		pdk = tech.GenericPDK()
	}
	l := &Library{
		pdk:     pdk,
		hashLen: DefaultHashLength,
		cells:   make(map[string]*Cell),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.cache == nil {
		l.cache = NewCache()
	}
	if l.logger == nil {
		l.logger = log.New(io.Discard)
	}
	return l
}

// PDK returns the library's technology.
func (l *Library) PDK() *tech.PDK { return l.pdk }

// Cache returns the component cache.
func (l *Library) Cache() *Cache { return l.cache }

// Logger returns the library logger.
func (l *Library) Logger() *log.Logger { return l.logger }

// Register adds a cell. Names must be unique.
func (l *Library) Register(c *Cell) error {
	if err := errors.ValidateCellName(c.Name); err != nil {
		return err
	}
	if c.Build == nil {
		return errors.New(errors.ErrCodeInvalidInput, "cell %s has no factory", c.Name)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, dup := l.cells[c.Name]; dup {
		return errors.New(errors.ErrCodeInvalidInput, "cell %s already registered", c.Name)
	}
	l.cells[c.Name] = c
	return nil
}

// MustRegister registers cells and panics on error.
func (l *Library) MustRegister(cells ...*Cell) {
	for _, c := range cells {
		if err := l.Register(c); err != nil {
			panic(err)
		}
	}
}

// Cell returns a registered cell.
func (l *Library) Cell(name string) (*Cell, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.cells[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeCellNotFound, "unknown cell %q", name)
	}
	return c, nil
}

// Cells returns the registered cells sorted by name.
func (l *Library) Cells() []*Cell {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Cell, 0, len(l.cells))
	for _, name := range slices.Sorted(maps.Keys(l.cells)) {
		out = append(out, l.cells[name])
	}
	return out
}

// Get builds (or fetches from cache) the named cell with params.
func (l *Library) Get(name string, params Params) (*component.Component, error) {
	cell, err := l.Cell(name)
	if err != nil {
		return nil, err
	}
	return l.build(cell, params)
}

// MustGet is like Get but panics on error. It is meant for tests and for
// cells that fetch fixed sub-cells.
func (l *Library) MustGet(name string, params Params) *component.Component {
	c, err := l.Get(name, params)
	if err != nil {
		panic(err)
	}
	return c
}

// Resolve turns a spec into a component.
func (l *Library) Resolve(s Spec) (*component.Component, error) {
	switch x := s.(type) {
	case ByName:
		return l.Get(x.Name, x.Params)
	case ByFactory:
		if x.Cell == nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, "factory spec without a cell")
		}
		return l.build(x.Cell, x.Params)
	case ByInstance:
		if x.Component == nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, "instance spec without a component")
		}
		return x.Component, nil
	case nil:
		return nil, errors.New(errors.ErrCodeInvalidInput, "nil component spec")
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unsupported spec %T", s)
}

// ResolveValue resolves a loosely typed spec value (see [SpecOf]).
func (l *Library) ResolveValue(v any) (*component.Component, error) {
	s, err := SpecOf(v)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "resolve component")
	}
	return l.Resolve(s)
}

// Signature computes the build signature of the named cell with params,
// without building it.
func (l *Library) Signature(name string, params Params) (Signature, error) {
	cell, err := l.Cell(name)
	if err != nil {
		return Signature{}, err
	}
	merged, err := cell.merge(params)
	if err != nil {
		return Signature{}, err
	}
	return l.signature(cell.Name, merged)
}

// Assemble builds a component that is not a registered cell, such as a
// netlist, under the signature of name and params. It shares the cache,
// hooks and logging of [Library.Get].
func (l *Library) Assemble(name string, params Params, build func(b *component.Builder) error) (*component.Component, error) {
	if err := errors.ValidateCellName(name); err != nil {
		return nil, err
	}
	cell := &Cell{
		Name:     name,
		Defaults: params,
		Build: func(b *component.Builder, _ *Library, _ Params) error {
			return build(b)
		},
	}
	return l.build(cell, nil)
}

func (l *Library) signature(cell string, merged Params) (Signature, error) {
	cz := canonicalizer{specKey: l.specKey}
	canon, err := cz.params(merged)
	if err != nil {
		return Signature{}, errors.Wrap(errors.ErrCodeInvalidParams, err, "cell %s", cell)
	}
	return newSignature(cell, l.pdk.Name+":"+cell+"("+canon+")", l.hashLen), nil
}

func (l *Library) specKey(s Spec) (string, error) {
	switch x := s.(type) {
	case ByName:
		sig, err := l.Signature(x.Name, x.Params)
		if err != nil {
			return "", err
		}
		return "@" + sig.Key, nil
	case ByFactory:
		merged, err := x.Cell.merge(x.Params)
		if err != nil {
			return "", err
		}
		sig, err := l.signature(x.Cell.Name, merged)
		if err != nil {
			return "", err
		}
		return "@" + sig.Key, nil
	case ByInstance:
		return "@" + x.Component.Name(), nil
	}
	return "", errors.New(errors.ErrCodeUnsupported, "unsupported spec %T", s)
}

func (l *Library) build(cell *Cell, params Params) (*component.Component, error) {
	merged, err := cell.merge(params)
	if err != nil {
		return nil, err
	}
	sig, err := l.signature(cell.Name, merged)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	hooks := observability.Cell()

	c, hit, err := l.cache.GetOrBuild(sig, func() (*component.Component, error) {
		start := time.Now()
		hooks.OnBuildStart(ctx, cell.Name, sig.Key)
		c, err := l.runFactory(cell, sig, merged)
		elapsed := time.Since(start)
		hooks.OnBuildComplete(ctx, cell.Name, sig.Key, elapsed, err)
		if err != nil {
			l.logger.Debug("build failed", "cell", cell.Name, "key", sig.Key, "err", err)
			return nil, err
		}
		l.logger.Debug("built", "cell", cell.Name, "key", sig.Key, "polygons", c.NumPolygons(), "duration", elapsed)
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	if hit {
		hooks.OnCacheHit(ctx, cell.Name, sig.Key)
		l.logger.Debug("cache hit", "cell", cell.Name, "key", sig.Key)
	}
	return c, nil
}

func (l *Library) runFactory(cell *Cell, sig Signature, merged Params) (*component.Component, error) {
	b := component.NewBuilder(sig.Key)
	b.SetSettings(settingsView(merged))
	if err := cell.Build(b, l, merged); err != nil {
		code := errors.GetCode(err)
		if code == "" {
			code = errors.ErrCodeInternal
		}
		return nil, errors.Wrap(code, err, "build %s", cell.Name)
	}
	return b.Build()
}

// settingsView replaces specs and components by their names so settings
// stay serializable.
func settingsView(p Params) map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		switch x := v.(type) {
		case Spec:
			out[k] = x.String()
		case *component.Component:
			out[k] = x.Name()
		default:
			out[k] = v
		}
	}
	return out
}

// CrossSection resolves a cross-section parameter value: a name (empty for
// the routing default), a value, or a pointer to one.
func (l *Library) CrossSection(v any) (tech.CrossSection, error) {
	switch x := v.(type) {
	case nil:
		return l.pdk.CrossSection("")
	case string:
		return l.pdk.CrossSection(x)
	case tech.CrossSection:
		return x, x.Validate()
	case *tech.CrossSection:
		if x == nil {
			return l.pdk.CrossSection("")
		}
		return *x, x.Validate()
	}
	return tech.CrossSection{}, errors.New(errors.ErrCodeInvalidParams, "cannot use %T as a cross-section", v)
}

// Layer resolves a layer parameter value: a PDK layer name, a "layer/datatype"
// string, or a LayerID.
func (l *Library) Layer(v any) (tech.LayerID, error) {
	switch x := v.(type) {
	case tech.LayerID:
		return x, nil
	case string:
		return l.pdk.Layer(x)
	}
	return tech.LayerID{}, errors.New(errors.ErrCodeInvalidParams, "cannot use %T as a layer", v)
}
