// Package layout positions the nodes of an agent workflow graph for the canvas.
//
// # Row bands
//
// Every laid-out kind lives in a fixed horizontal band:
//
//	y = 100   Input and Task cards
//	y = 500   Agent cards
//	y >= 820  Tool cards, stacked under the agent that uses them
//
// Tool Y is agentY + agentHeight + ToolGap + i*(toolHeight + InterToolGap),
// where i counts the tools already stacked under the same agent.
//
// # Horizontal order
//
// With [StrategyConnectivity] (the default) the top band is ordered by a
// depth-first walk that starts at the starting Input node (the one flagged
// is_starting_node, else the first Input), then at the starting Task. The
// walk follows outgoing edges before incoming ones and passes through
// agents and tools, but only Input and Task cards take a slot; unreached
// cards are appended in document order. Cards are packed
// left to right from MarginX with HorizontalSpacing between them.
//
// Each agent sits in the column of the first task it shares an edge with.
// Each tool is centered under the first agent it shares an edge with.
// Agents and tools without such a partner go to DefaultColumnX.
//
// [StrategyDelegated] replaces the walk with an [XPlacer], typically the
// Graphviz placer from package layered. Band Y values still apply: each
// band is ordered by placer X and swept left to right so that neighbours
// keep HorizontalSpacing between them. If the placer fails the engine falls
// back to the connectivity walk.
//
// # Other kinds
//
// Execution nodes and unrecognized kinds keep the position they came with,
// or {0, 0}.
//
// # Centering
//
// When enabled, [CenterHorizontally] shifts all nodes so that their bounding
// box is centered on ViewportCenterX.
//
// [Layout] never mutates its arguments, never fails and is deterministic.
package layout
