package pipeline

import (
	"context"
	"encoding/json"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/pcellkit/pkg/cache"
	"github.com/matzehuels/pcellkit/pkg/component"
	"github.com/matzehuels/pcellkit/pkg/drc"
	"github.com/matzehuels/pcellkit/pkg/errors"
	pio "github.com/matzehuels/pcellkit/pkg/io"
	"github.com/matzehuels/pcellkit/pkg/netlist"
	"github.com/matzehuels/pcellkit/pkg/observability"
	"github.com/matzehuels/pcellkit/pkg/pcell"
	"github.com/matzehuels/pcellkit/pkg/storage"
)

// Runner executes pipeline runs against one cell library. It keeps no
// per-run state, so one Runner serves any number of goroutines.
type Runner struct {
	Library *pcell.Library
	Cache   cache.Cache
	Keyer   cache.Keyer

	// Store, when set, receives the layout document of every run.
	Store storage.Store

	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables artifact caching, a nil
// keyer means [cache.DefaultKeyer] and a nil logger means the library's.
func NewRunner(lib *pcell.Library, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = lib.Logger()
	}
	return &Runner{
		Library: lib,
		Cache:   c,
		Keyer:   keyer,
		Logger:  logger,
	}
}

// Execute runs build, check and export.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	result := &Result{}

	buildStart := time.Now()
	c, err := r.Build(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Component = c
	result.Signature = c.Name()
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.Cells = len(c.Hierarchy())
	result.Stats.Polygons = c.NumPolygons()
	r.Logger.Info("built component",
		"cell", c.Name(),
		"cells", result.Stats.Cells,
		"polygons", result.Stats.Polygons,
		"duration", result.Stats.BuildTime)

	if opts.Check {
		checkStart := time.Now()
		report := drc.Check(c, drc.OptionsFor(r.Library.PDK()))
		result.Report = &report
		result.Stats.CheckTime = time.Since(checkStart)
		r.Logger.Info("checked design rules",
			"errors", len(report.Errors),
			"warnings", len(report.Warnings),
			"duration", result.Stats.CheckTime)
		for _, w := range report.Warnings {
			r.Logger.Warn(w.Message, "rule", w.Rule, "cell", w.Cell)
		}
		if err := report.Err(); err != nil {
			return result, err
		}
	}

	exportStart := time.Now()
	artifacts, hit, err := r.ExportWithCacheInfo(ctx, c, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.CacheInfo.ExportHit = hit
	result.Stats.ExportTime = time.Since(exportStart)
	r.Logger.Info("exported",
		"formats", opts.Formats,
		"cached", hit,
		"duration", result.Stats.ExportTime)

	doc := storage.Document{Key: c.Name(), Layout: pio.FromComponent(c), CreatedAt: time.Now().UTC()}
	r.cacheLayout(ctx, doc)
	if r.Store != nil {
		if err := r.Store.Save(ctx, doc); err != nil {
			return nil, err
		}
		r.Logger.Debug("stored layout", "key", doc.Key)
	}
	return result, nil
}

// cacheLayout keeps doc in the cache under its layout key. Failures are
// logged; the store remains the record.
func (r *Runner) cacheLayout(ctx context.Context, doc storage.Document) {
	data, err := json.Marshal(doc)
	if err != nil {
		r.Logger.Warn("encode layout failed", "key", doc.Key, "err", err)
		return
	}
	if err := r.Cache.Set(ctx, r.Keyer.LayoutKey(doc.Key), data, cache.TTLLayout); err != nil {
		r.Logger.Warn("cache write failed", "key", doc.Key, "err", err)
	}
}

// Layout returns the layout document for a component signature, from the
// store when it has one and from the layout cache otherwise.
func (r *Runner) Layout(ctx context.Context, key string) (storage.Document, error) {
	if r.Store != nil {
		doc, err := r.Store.Load(ctx, key)
		if err == nil || !errors.Is(err, errors.ErrCodeNotFound) {
			return doc, err
		}
	}
	data, hit, err := r.Cache.Get(ctx, r.Keyer.LayoutKey(key))
	if err != nil {
		return storage.Document{}, err
	}
	if !hit {
		return storage.Document{}, errors.New(errors.ErrCodeNotFound, "no layout %q", key)
	}
	var doc storage.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return storage.Document{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode cached layout %q", key)
	}
	return doc, nil
}

// Build resolves the cell or assembles the netlist of opts.
func (r *Runner) Build(ctx context.Context, opts Options) (*component.Component, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if opts.Netlist == nil {
		return r.Library.Get(opts.Cell, opts.Params)
	}

	n := opts.Netlist
	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnNetlistStart(ctx, n.Name, len(n.Instances))
	c, err := netlist.Build(r.Library, n)
	hooks.OnNetlistComplete(ctx, n.Name, time.Since(start), err)
	return c, err
}

// ExportWithCacheInfo exports c in every format of opts, reusing cached
// artifacts. It reports whether every artifact came from the cache.
func (r *Runner) ExportWithCacheInfo(ctx context.Context, c *component.Component, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	pdk := r.Library.PDK().Name
	key := func(format string) string {
		return r.Keyer.ArtifactKey(c.Name(), opts.ArtifactKeyOpts(format, pdk))
	}

	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, f := range opts.Formats {
			data, hit, err := r.Cache.Get(ctx, key(f))
			if err != nil {
				r.Logger.Warn("cache read failed", "key", key(f), "err", err)
				break
			}
			if !hit {
				break
			}
			artifacts[f] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil
		}
	}

	artifacts, err := Export(ctx, c, opts.Netlist, opts.Formats)
	if err != nil {
		return nil, false, err
	}
	for f, data := range artifacts {
		if err := r.Cache.Set(ctx, key(f), data, cache.TTLArtifact); err != nil {
			r.Logger.Warn("cache write failed", "key", key(f), "err", err)
		}
	}
	return artifacts, false, nil
}

// ExportAll executes every job concurrently, at most GOMAXPROCS at a
// time. Components are immutable, so jobs sharing subcells are safe. The
// first failure cancels the jobs that have not started yet.
func (r *Runner) ExportAll(ctx context.Context, jobs []Options) ([]*Result, error) {
	results := make([]*Result, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := r.Execute(ctx, job)
			if err != nil {
				name := job.Cell
				if job.Netlist != nil {
					name = job.Netlist.Name
				}
				code := errors.GetCode(err)
				if code == "" {
					code = errors.ErrCodeInternal
				}
				return errors.Wrap(code, err, "job %d (%s)", i, name)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Close releases the cache and store.
func (r *Runner) Close(ctx context.Context) error {
	var err error
	if r.Cache != nil {
		err = r.Cache.Close()
	}
	if r.Store != nil {
		if serr := r.Store.Close(ctx); err == nil {
			err = serr
		}
	}
	return err
}
