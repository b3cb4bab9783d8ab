package layout

import (
	"cmp"
	"io"
	"math"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/crewviz/pkg/workflow"
)

// XPlacer computes horizontal positions for a workflow graph. It is the
// extension point for the delegated strategy; see package layered for the
// Graphviz implementation.
//
// The returned map holds the left X of each node keyed by node ID. Nodes
// missing from the map fall back to the default column.
type XPlacer interface {
	PlaceX(nodes []workflow.Node, edges []workflow.Edge, sizes map[workflow.Kind]Size) (map[string]float64, error)
}

// XPlacerFunc adapts a function to the [XPlacer] interface.
type XPlacerFunc func(nodes []workflow.Node, edges []workflow.Edge, sizes map[workflow.Kind]Size) (map[string]float64, error)

// PlaceX calls f.
func (f XPlacerFunc) PlaceX(nodes []workflow.Node, edges []workflow.Edge, sizes map[workflow.Kind]Size) (map[string]float64, error) {
	return f(nodes, edges, sizes)
}

// Option configures a layout run.
type Option func(*engine)

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(e *engine) { e.cfg = cfg.Clone() }
}

// WithStrategy selects the X strategy.
func WithStrategy(s Strategy) Option {
	return func(e *engine) { e.cfg.Strategy = s }
}

// WithPlacer sets the placer used by [StrategyDelegated]. Without one the
// delegated strategy behaves like [StrategyConnectivity].
func WithPlacer(p XPlacer) Option {
	return func(e *engine) { e.placer = p }
}

// WithCentering enables the centering pass around the given X.
func WithCentering(centerX float64) Option {
	return func(e *engine) {
		e.cfg.Center = true
		e.cfg.ViewportCenterX = centerX
	}
}

// WithSize overrides the card size of one kind.
func WithSize(k workflow.Kind, s Size) Option {
	return func(e *engine) {
		if e.cfg.Sizes == nil {
			e.cfg.Sizes = make(map[workflow.Kind]Size)
		}
		e.cfg.Sizes[k] = s
	}
}

// WithLogger sets the logger for diagnostics. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(e *engine) {
		if l != nil {
			e.logger = l
		}
	}
}

type engine struct {
	cfg    Config
	placer XPlacer
	logger *log.Logger
}

func newEngine(opts []Option) *engine {
	e := &engine{
		cfg:    DefaultConfig(),
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// =============================================================================
// Entry points
// =============================================================================

// Layout assigns a position to every node and returns the positioned graph.
//
// Inputs are never mutated: the result holds deep copies of nodes and edges
// in their original order. Layout never fails. Edges with a missing
// endpoint are ignored for placement and returned unchanged, and nodes of
// kinds it does not lay out keep their position (or receive {0, 0}).
func Layout(nodes []workflow.Node, edges []workflow.Edge, opts ...Option) workflow.Graph {
	e := newEngine(opts)
	return e.run(workflow.Graph{Nodes: nodes, Edges: edges}.Clone())
}

// Apply is [Layout] for a whole document.
func Apply(g workflow.Graph, opts ...Option) workflow.Graph {
	return Layout(g.Nodes, g.Edges, opts...)
}

func (e *engine) run(g workflow.Graph) workflow.Graph {
	idx := workflow.NewIndex(g.Nodes, g.Edges)
	if dropped := len(g.Edges) - len(idx.Edges()); dropped > 0 {
		e.logger.Debug("ignoring dangling edges", "count", dropped)
	}

	for i := range g.Nodes {
		if !g.Nodes[i].Kind.IsLaidOut() && g.Nodes[i].Position == nil {
			g.Nodes[i].SetPos(0, 0)
		}
	}

	if !e.placeDelegated(g.Nodes, idx) {
		e.placeTopBand(g.Nodes, idx)
		e.placeAgents(g.Nodes, idx)
	}
	e.placeTools(g.Nodes, idx)

	if e.cfg.Center {
		CenterHorizontally(g.Nodes, e.cfg.Sizes, e.cfg.ViewportCenterX)
	}

	e.logger.Debug("layout complete", "nodes", len(g.Nodes), "edges", len(g.Edges), "strategy", e.strategy())
	return g
}

func (e *engine) strategy() Strategy {
	if e.cfg.Strategy == StrategyDelegated && e.placer != nil {
		return StrategyDelegated
	}
	return StrategyConnectivity
}

// =============================================================================
// Top band: Input and Task
// =============================================================================

func inTopBand(k workflow.Kind) bool {
	return k == workflow.KindInput || k == workflow.KindTask
}

// bandOrder returns slot indices of Input and Task nodes in walk order.
//
// The walk starts at the starting Input, then the starting Task, and visits
// forward neighbours before reverse ones. It passes through nodes of every
// kind, so tasks linked only through an agent stay next to each other, but
// only Input and Task nodes take a slot. Band nodes the walk cannot reach
// follow in input order.
func bandOrder(nodes []workflow.Node, idx *workflow.Index) []int {
	visited := make([]bool, len(nodes))
	order := make([]int, 0, len(nodes))

	var visit func(i int)
	visit = func(i int) {
		if visited[i] {
			return
		}
		visited[i] = true
		if inTopBand(nodes[i].Kind) {
			order = append(order, i)
		}

		id := nodes[i].ID
		for _, neighbours := range [][]string{idx.Children(id), idx.Parents(id)} {
			for _, nb := range neighbours {
				if j, ok := idx.Position(nb); ok {
					visit(j)
				}
			}
		}
	}

	for _, k := range []workflow.Kind{workflow.KindInput, workflow.KindTask} {
		if start := startingNode(nodes, k); start >= 0 {
			visit(start)
		}
	}
	for i := range nodes {
		if inTopBand(nodes[i].Kind) && !visited[i] {
			visited[i] = true
			order = append(order, i)
		}
	}
	return order
}

// startingNode returns the first node of kind k flagged as starting node,
// else the first node of kind k, else -1.
func startingNode(nodes []workflow.Node, k workflow.Kind) int {
	first := -1
	for i := range nodes {
		if nodes[i].Kind != k {
			continue
		}
		if nodes[i].IsStartingNode {
			return i
		}
		if first < 0 {
			first = i
		}
	}
	return first
}

func (e *engine) placeTopBand(nodes []workflow.Node, idx *workflow.Index) {
	x := e.cfg.MarginX
	for _, i := range bandOrder(nodes, idx) {
		nodes[i].SetPos(x, e.cfg.TopBandY)
		x += e.cfg.size(nodes[i].Kind).Width + e.cfg.HorizontalSpacing
	}
}

// =============================================================================
// Agents
// =============================================================================

// firstConnected maps every node of kind from to the first node of kind to
// that shares an edge with it in either direction, by edge order.
func firstConnected(nodes []workflow.Node, idx *workflow.Index, from, to workflow.Kind) map[string]int {
	kindOf := func(id string) (workflow.Kind, int) {
		i, _ := idx.Position(id)
		return nodes[i].Kind, i
	}

	out := make(map[string]int)
	for _, edge := range idx.Edges() {
		sk, si := kindOf(edge.Source)
		tk, ti := kindOf(edge.Target)
		if sk == from && tk == to {
			if _, ok := out[edge.Source]; !ok {
				out[edge.Source] = ti
			}
		}
		if tk == from && sk == to {
			if _, ok := out[edge.Target]; !ok {
				out[edge.Target] = si
			}
		}
	}
	return out
}

func (e *engine) placeAgents(nodes []workflow.Node, idx *workflow.Index) {
	tasks := firstConnected(nodes, idx, workflow.KindAgent, workflow.KindTask)
	for i := range nodes {
		if nodes[i].Kind != workflow.KindAgent {
			continue
		}
		x := e.cfg.DefaultColumnX
		if t, ok := tasks[nodes[i].ID]; ok {
			x = nodes[t].Pos().X
		}
		nodes[i].SetPos(x, e.cfg.AgentBandY)
	}
}

// =============================================================================
// Delegated placement
// =============================================================================

// placeDelegated positions the Input, Task and Agent nodes from the placer.
// It reports false when the connectivity strategy should be used instead.
func (e *engine) placeDelegated(nodes []workflow.Node, idx *workflow.Index) bool {
	if e.cfg.Strategy != StrategyDelegated {
		return false
	}
	if e.placer == nil {
		e.logger.Warn("delegated strategy without placer, using connectivity")
		return false
	}

	xs, err := e.placer.PlaceX(nodes, idx.Edges(), e.cfg.Sizes)
	if err != nil {
		e.logger.Warn("placer failed, using connectivity", "error", err)
		return false
	}

	var top, agents []int
	for i := range nodes {
		switch nodes[i].Kind {
		case workflow.KindInput, workflow.KindTask:
			top = append(top, i)
		case workflow.KindAgent:
			agents = append(agents, i)
		}
	}
	e.sweep(nodes, top, xs, e.cfg.TopBandY)
	e.sweep(nodes, agents, xs, e.cfg.AgentBandY)
	return true
}

// sweep places the band members at y in placer order, pushing each card
// right as needed to keep HorizontalSpacing to its left neighbour. Members
// the placer left out start at DefaultColumnX.
func (e *engine) sweep(nodes []workflow.Node, band []int, xs map[string]float64, y float64) {
	want := make(map[int]float64, len(band))
	for _, i := range band {
		x, ok := xs[nodes[i].ID]
		if !ok {
			x = e.cfg.DefaultColumnX
		}
		want[i] = x
	}
	slices.SortStableFunc(band, func(a, b int) int { return cmp.Compare(want[a], want[b]) })

	minX := math.Inf(-1)
	for _, i := range band {
		x := math.Max(want[i], minX)
		nodes[i].SetPos(x, y)
		minX = x + e.cfg.size(nodes[i].Kind).Width + e.cfg.HorizontalSpacing
	}
}

// =============================================================================
// Tools
// =============================================================================

func (e *engine) placeTools(nodes []workflow.Node, idx *workflow.Index) {
	owners := firstConnected(nodes, idx, workflow.KindTool, workflow.KindAgent)
	tool := e.cfg.size(workflow.KindTool)
	agent := e.cfg.size(workflow.KindAgent)
	step := tool.Height + e.cfg.InterToolGap

	stacked := make(map[int]int) // owner slot -> tools placed so far
	orphans := 0
	for i := range nodes {
		if nodes[i].Kind != workflow.KindTool {
			continue
		}
		owner, ok := owners[nodes[i].ID]
		if !ok {
			y := e.cfg.AgentBandY + agent.Height + e.cfg.ToolGap + float64(orphans)*step
			nodes[i].SetPos(e.cfg.DefaultColumnX, y)
			orphans++
			continue
		}

		a := nodes[owner].Pos()
		x := a.X + (agent.Width-tool.Width)/2
		y := a.Y + agent.Height + e.cfg.ToolGap + float64(stacked[owner])*step
		nodes[i].SetPos(x, y)
		stacked[owner]++
	}
}
