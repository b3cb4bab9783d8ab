// Package pipeline runs the load → layout → render pipeline for crewviz.
//
// The CLI and the API server both go through a [Runner] so that caching,
// defaults and validation behave the same everywhere.
//
// # Stages
//
//  1. Load: read a workflow document from a [source.Source]
//  2. Layout: position nodes with the layout engine
//  3. Render: produce json, svg, dot, png or pdf artifacts
//
// Load failures stop the pipeline; the engine never sees a document that
// failed to decode. Layout itself cannot fail.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, source.File{Path: "crew.json"}, pipeline.Options{
//	    Formats: []string{"svg"},
//	})
//	if err != nil {
//	    return err
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/crewviz/pkg/cache"
	errs "github.com/matzehuels/crewviz/pkg/errors"
	"github.com/matzehuels/crewviz/pkg/layout"
	"github.com/matzehuels/crewviz/pkg/layout/layered"
	"github.com/matzehuels/crewviz/pkg/workflow"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatSVG  = "svg"
	FormatDOT  = "dot"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// Renderer constants select how SVG (and PNG/PDF) is drawn.
const (
	// RendererCards draws cards at engine positions in pure Go.
	RendererCards = "cards"

	// RendererGraphviz draws the pinned DOT export with Graphviz.
	RendererGraphviz = "graphviz"
)

// DefaultScale is the PNG scale factor.
const DefaultScale = 2.0

// ValidFormats is the set of supported output formats, in display order.
var ValidFormats = []string{FormatJSON, FormatSVG, FormatDOT, FormatPNG, FormatPDF}

// ValidRenderers is the set of supported renderers.
var ValidRenderers = []string{RendererCards, RendererGraphviz}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
type Options struct {
	// Layout is the engine configuration. Nil selects layout.DefaultConfig().
	Layout *layout.Config `json:"-"`

	// Placer overrides the X placer used by the delegated strategy.
	// Nil selects the Graphviz layered placer.
	Placer layout.XPlacer `json:"-"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Renderer string   `json:"renderer,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`
	Scale    float64  `json:"scale,omitempty"`

	// Refresh bypasses cached layouts, artifacts and fetched documents.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the positioned workflow document.
	Graph workflow.Graph

	// DocHash is the content hash of the loaded, unpositioned document.
	DocHash string

	// Report lists non-fatal problems found in the loaded document.
	Report workflow.Report

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	LoadTime   time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the positioned document came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !slices.Contains(ValidFormats, format) {
		return errs.New(errs.ErrCodeInvalidFormat, "invalid format: %q (must be one of: json, svg, dot, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRenderer checks that a renderer is valid.
func ValidateRenderer(r string) error {
	if !slices.Contains(ValidRenderers, r) {
		return errs.New(errs.ErrCodeInvalidInput, "invalid renderer: %q (must be one of: cards, graphviz)", r)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	cfg := layout.DefaultConfig()
	if o.Layout != nil {
		cfg = o.Layout.Clone()
	}
	strategy, err := layout.ParseStrategy(string(cfg.Strategy))
	if err != nil {
		return errs.Wrap(errs.ErrCodeInvalidStrategy, err, "layout options")
	}
	cfg.Strategy = strategy
	o.Layout = &cfg
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return nil
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if o.Renderer == "" {
		o.Renderer = RendererCards
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	return ValidateRenderer(o.Renderer)
}

// Sizes returns the card sizes in effect.
func (o *Options) Sizes() map[workflow.Kind]layout.Size {
	if o.Layout == nil || o.Layout.Sizes == nil {
		return layout.DefaultSizes()
	}
	return o.Layout.Sizes
}

// LayoutOptions returns the engine options for this run.
func (o *Options) LayoutOptions() []layout.Option {
	cfg := layout.DefaultConfig()
	if o.Layout != nil {
		cfg = *o.Layout
	}
	opts := []layout.Option{layout.WithConfig(cfg), layout.WithLogger(o.Logger)}
	if cfg.Strategy == layout.StrategyDelegated {
		placer := o.Placer
		if placer == nil {
			placer = layered.New()
		}
		opts = append(opts, layout.WithPlacer(placer))
	}
	return opts
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	cfg := layout.DefaultConfig()
	if o.Layout != nil {
		cfg = *o.Layout
	}
	return cache.LayoutKeyOpts{
		Strategy:   string(cfg.Strategy),
		Center:     cfg.Center,
		ConfigHash: configHash(cfg),
	}
}

// layoutCacheable reports whether the layout key covers everything that
// shapes the result. The key does not identify a caller-supplied placer.
func (o *Options) layoutCacheable() bool {
	if o.Placer == nil {
		return true
	}
	return o.Layout != nil && o.Layout.Strategy != layout.StrategyDelegated
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format, Detailed: o.Detailed}
	if format != FormatJSON && format != FormatDOT {
		k.Renderer = o.Renderer
	}
	if format == FormatPNG {
		k.Scale = o.Scale
	}
	return k
}

func configHash(cfg layout.Config) string {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Sprintf("%v", cfg)
	}
	return cache.Hash(data)
}
