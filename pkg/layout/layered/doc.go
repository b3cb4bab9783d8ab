// Package layered places workflow cards horizontally with the Graphviz dot
// engine.
//
// [Placer] implements [layout.XPlacer]. It emits a top-to-bottom DOT graph
// with fixed-size boxes matching the card sizes, runs Graphviz in process
// through [github.com/goccy/go-graphviz] and reads back the node centers.
// Only X is used: the layout engine keeps its fixed row bands and orders
// each band by the returned X, spacing cards apart as needed.
//
//	g := layout.Layout(nodes, edges,
//	    layout.WithStrategy(layout.StrategyDelegated),
//	    layout.WithPlacer(layered.New()),
//	)
package layered
