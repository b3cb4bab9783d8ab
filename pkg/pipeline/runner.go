package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/crewviz/pkg/cache"
	"github.com/matzehuels/crewviz/pkg/layout"
	"github.com/matzehuels/crewviz/pkg/observability"
	"github.com/matzehuels/crewviz/pkg/source"
	"github.com/matzehuels/crewviz/pkg/workflow"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides cache.LayoutTTL and cache.ArtifactTTL when non-zero.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, src source.Source, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	g, err := r.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.NodeCount = len(g.Nodes)
	result.Stats.EdgeCount = len(g.Edges)
	result.Report = workflow.Validate(g)

	r.Logger.Info("loaded workflow",
		"source", source.String(src),
		"nodes", len(g.Nodes),
		"edges", len(g.Edges),
		"duration", result.Stats.LoadTime)
	for _, issue := range result.Report.Issues {
		r.Logger.Warn("workflow issue", "kind", issue.Kind, "subject", issue.Subject, "detail", issue.Detail)
	}

	// Stage 2: Layout
	layoutStart := time.Now()
	positioned, docHash, layoutHit, err := r.layout(ctx, g, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Graph = positioned
	result.DocHash = docHash
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"strategy", opts.Layout.Strategy,
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, positioned, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load reads a document from src and reports the load through the
// pipeline hooks.
func (r *Runner) Load(ctx context.Context, src source.Source) (workflow.Graph, error) {
	name := source.String(src)
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, name)
	start := time.Now()

	g, err := src.Load(ctx)
	hooks.OnLoadComplete(ctx, name, len(g.Nodes), time.Since(start), err)
	if err != nil {
		return workflow.Graph{}, err
	}
	return g, nil
}

// LayoutWithCacheInfo positions g with caching and returns cache hit info.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, g workflow.Graph, opts Options) (workflow.Graph, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return workflow.Graph{}, false, err
	}
	positioned, _, hit, err := r.layout(ctx, g, opts)
	return positioned, hit, err
}

// Layout is a convenience wrapper that calls LayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, g workflow.Graph, opts Options) (workflow.Graph, error) {
	positioned, _, err := r.LayoutWithCacheInfo(ctx, g, opts)
	return positioned, err
}

// layout expects validated options.
func (r *Runner) layout(ctx context.Context, g workflow.Graph, opts Options) (workflow.Graph, string, bool, error) {
	docData, err := workflow.MarshalGraph(g)
	if err != nil {
		return workflow.Graph{}, "", false, fmt.Errorf("serialize document for cache key: %w", err)
	}
	docHash := cache.Hash(docData)
	cacheKey := r.Keyer.LayoutKey(docHash, opts.LayoutKeyOpts())
	cacheable := opts.layoutCacheable()

	if cacheable && !opts.Refresh {
		if cached, ok := r.lookup(ctx, cacheKey, "layout"); ok {
			if positioned, err := workflow.UnmarshalGraph(cached); err == nil {
				return positioned, docHash, true, nil
			}
		}
	}

	strategy := string(opts.Layout.Strategy)
	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, strategy, len(g.Nodes))
	start := time.Now()
	positioned := layout.Apply(g, opts.LayoutOptions()...)
	hooks.OnLayoutComplete(ctx, strategy, time.Since(start), nil)

	if !cacheable {
		return positioned, docHash, false, nil
	}
	if data, err := workflow.MarshalGraph(positioned); err == nil {
		r.store(ctx, cacheKey, "layout", data, r.ttl(cache.LayoutTTL))
	}
	return positioned, docHash, false, nil
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g workflow.Graph, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	layoutData, err := workflow.MarshalGraph(g)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)

	artifacts := make(map[string][]byte, len(opts.Formats))
	if !opts.Refresh {
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
			data, ok := r.lookup(ctx, key, "artifact")
			if !ok {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil
		}
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	rendered, err := Render(g, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		r.store(ctx, key, "artifact", data, r.ttl(cache.ArtifactTTL))
	}
	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, g workflow.Graph, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, g, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) lookup(ctx context.Context, key, keyType string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", keyType, "error", err)
		return nil, false
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, true
}

func (r *Runner) store(ctx context.Context, key, keyType string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "key", keyType, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
