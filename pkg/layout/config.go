package layout

import (
	"fmt"
	"maps"

	"github.com/matzehuels/crewviz/pkg/workflow"
)

// =============================================================================
// Defaults
// =============================================================================

const (
	// DefaultTopBandY is the row of Input and Task cards.
	DefaultTopBandY = 100.0

	// DefaultAgentBandY is the row of Agent cards.
	DefaultAgentBandY = 500.0

	// DefaultHorizontalSpacing separates neighbouring cards in a band.
	DefaultHorizontalSpacing = 100.0

	// DefaultToolGap is the vertical gap between an agent card and its first tool.
	DefaultToolGap = 120.0

	// DefaultInterToolGap separates stacked tools under the same agent.
	DefaultInterToolGap = 40.0

	// DefaultMarginX is the left edge of the first card in a band.
	DefaultMarginX = 50.0

	// DefaultColumnX is used for agents without a task and tools without an agent.
	DefaultColumnX = 50.0

	// DefaultViewportCenterX is the horizontal center the centering pass aims for.
	DefaultViewportCenterX = 600.0
)

// Strategy selects how X coordinates are derived.
type Strategy string

// Layout strategies.
const (
	// StrategyConnectivity orders the top band by a depth-first walk from the
	// starting node. It is the default and needs no external library.
	StrategyConnectivity Strategy = "connectivity"

	// StrategyDelegated asks an [XPlacer] (a layered graph layout) for X
	// coordinates. Y still comes from the row bands.
	StrategyDelegated Strategy = "delegated"
)

// ParseStrategy validates a strategy name. The empty string selects
// [StrategyConnectivity].
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyConnectivity:
		return StrategyConnectivity, nil
	case StrategyDelegated:
		return StrategyDelegated, nil
	}
	return "", fmt.Errorf("invalid strategy: %q (must be one of: connectivity, delegated)", s)
}

// =============================================================================
// Sizes
// =============================================================================

// Size is the rendered card size of a node kind in pixels.
type Size struct {
	Width  float64 `json:"width" toml:"width"`
	Height float64 `json:"height" toml:"height"`
}

// DefaultSizes returns the card sizes used by the canvas node components.
func DefaultSizes() map[workflow.Kind]Size {
	return map[workflow.Kind]Size{
		workflow.KindInput:     {Width: 250, Height: 160},
		workflow.KindTask:      {Width: 250, Height: 220},
		workflow.KindAgent:     {Width: 250, Height: 200},
		workflow.KindTool:      {Width: 200, Height: 100},
		workflow.KindExecution: {Width: 220, Height: 140},
	}
}

// SizeOf returns the size registered for k, or the zero size when k is missing.
func SizeOf(sizes map[workflow.Kind]Size, k workflow.Kind) Size {
	return sizes[k]
}

// =============================================================================
// Config
// =============================================================================

// Config holds every tunable of the layout engine.
type Config struct {
	Strategy Strategy

	// Sizes maps node kinds to card sizes. Kinds missing from the map are
	// treated as 0x0 for spacing math.
	Sizes map[workflow.Kind]Size

	TopBandY          float64
	AgentBandY        float64
	HorizontalSpacing float64
	ToolGap           float64
	InterToolGap      float64
	MarginX           float64
	DefaultColumnX    float64

	// Center enables the horizontal centering pass.
	Center          bool
	ViewportCenterX float64
}

// DefaultConfig returns the configuration matching the canvas defaults.
// Centering is off.
func DefaultConfig() Config {
	return Config{
		Strategy:          StrategyConnectivity,
		Sizes:             DefaultSizes(),
		TopBandY:          DefaultTopBandY,
		AgentBandY:        DefaultAgentBandY,
		HorizontalSpacing: DefaultHorizontalSpacing,
		ToolGap:           DefaultToolGap,
		InterToolGap:      DefaultInterToolGap,
		MarginX:           DefaultMarginX,
		DefaultColumnX:    DefaultColumnX,
		ViewportCenterX:   DefaultViewportCenterX,
	}
}

// Clone returns a copy of c that does not share the sizes map.
func (c Config) Clone() Config {
	c.Sizes = maps.Clone(c.Sizes)
	return c
}

// size returns the card size for k.
func (c Config) size(k workflow.Kind) Size { return SizeOf(c.Sizes, k) }
