package workflow

import (
	"encoding/json"
	"maps"
	"slices"
	"strings"
)

// =============================================================================
// Kinds
// =============================================================================

// Kind is the wire "type" of a node. It determines the node's row band and
// card size. Unknown strings are preserved so that documents round-trip.
type Kind string

// Node kinds produced by the trace exporter.
const (
	KindInput     Kind = "agentInput"
	KindTask      Kind = "task"
	KindAgent     Kind = "agent"
	KindTool      Kind = "tool"
	KindExecution Kind = "execution"
)

// kindAliases maps alternative spellings accepted on input to their canonical kind.
var kindAliases = map[string]Kind{
	"input": KindInput,
}

// Kinds returns all known kinds in pipeline order.
func Kinds() []Kind {
	return []Kind{KindInput, KindTask, KindAgent, KindTool, KindExecution}
}

// ParseKind converts a wire string to a Kind. Aliases are canonicalized;
// any other value is returned unchanged.
func ParseKind(s string) Kind {
	if k, ok := kindAliases[s]; ok {
		return k
	}
	return Kind(s)
}

// IsKnown reports whether k is one of the kinds listed by [Kinds].
func (k Kind) IsKnown() bool { return slices.Contains(Kinds(), k) }

// IsLaidOut reports whether the layout engine assigns positions to nodes of this kind.
// Execution nodes are known but keep author-supplied coordinates.
func (k Kind) IsLaidOut() bool {
	switch k {
	case KindInput, KindTask, KindAgent, KindTool:
		return true
	}
	return false
}

// Label returns a short human-readable name for the kind.
func (k Kind) Label() string {
	switch k {
	case KindInput:
		return "Input"
	case KindTask:
		return "Task"
	case KindAgent:
		return "Agent"
	case KindTool:
		return "Tool"
	case KindExecution:
		return "Execution"
	case "":
		return "Unknown"
	}
	return string(k)
}

// =============================================================================
// Markers
// =============================================================================

// MarkerType is an arrowhead style name. Known styles are matched
// case-insensitively and normalized; unknown values pass through as-is.
type MarkerType string

// Arrowhead styles understood by the canvas.
const (
	MarkerArrow       MarkerType = "arrow"
	MarkerArrowClosed MarkerType = "arrowclosed"
)

// ParseMarkerType normalizes s to a known MarkerType when it matches one
// case-insensitively. Otherwise s is returned unchanged.
func ParseMarkerType(s string) MarkerType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(MarkerArrow):
		return MarkerArrow
	case string(MarkerArrowClosed):
		return MarkerArrowClosed
	}
	return MarkerType(s)
}

// IsKnown reports whether t is one of the supported arrowhead styles.
func (t MarkerType) IsKnown() bool {
	return t == MarkerArrow || t == MarkerArrowClosed
}

// Marker describes the arrowhead drawn at an edge end.
type Marker struct {
	Type  MarkerType
	Color string

	// Attrs holds any other members of the marker object.
	Attrs map[string]json.RawMessage
}

// =============================================================================
// Nodes & Edges
// =============================================================================

// Position is a canvas coordinate of a node's top-left corner.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a vertex of a workflow graph.
type Node struct {
	ID             string
	Kind           Kind
	IsStartingNode bool

	// Position is nil when the document did not supply one.
	Position *Position

	// Data is the opaque payload rendered by the card for this kind
	// (role/goal/backstory for agents, name/description for tools, ...).
	Data map[string]any

	// Attrs holds any other members of the node object.
	Attrs map[string]json.RawMessage
}

// Pos returns the node position, or the zero position when unset.
func (n *Node) Pos() Position {
	if n.Position == nil {
		return Position{}
	}
	return *n.Position
}

// SetPos replaces the node position.
func (n *Node) SetPos(x, y float64) {
	n.Position = &Position{X: x, Y: y}
}

// DisplayName returns the most descriptive name found in the payload,
// falling back to the node ID.
func (n *Node) DisplayName() string {
	for _, key := range []string{"name", "role", "task"} {
		if s, ok := n.Data[key].(string); ok && s != "" {
			return s
		}
	}
	return n.ID
}

// Clone returns a deep copy of the node. Payload values are copied one level deep.
func (n Node) Clone() Node {
	out := n
	if n.Position != nil {
		p := *n.Position
		out.Position = &p
	}
	out.Data = maps.Clone(n.Data)
	out.Attrs = cloneRaw(n.Attrs)
	return out
}

// Edge is a directed connection between two nodes.
type Edge struct {
	ID     string
	Source string
	Target string

	// MarkerEnd is nil when no arrowhead was requested.
	MarkerEnd *Marker

	// Attrs holds decorative members (label, style, animated, handles, ...).
	Attrs map[string]json.RawMessage
}

// Clone returns a deep copy of the edge.
func (e Edge) Clone() Edge {
	out := e
	if e.MarkerEnd != nil {
		m := *e.MarkerEnd
		m.Attrs = cloneRaw(e.MarkerEnd.Attrs)
		out.MarkerEnd = &m
	}
	out.Attrs = cloneRaw(e.Attrs)
	return out
}

// =============================================================================
// Graph
// =============================================================================

// Graph is the workflow document: two arrays of nodes and edges.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Clone returns a deep copy of the graph. Nil slices become empty slices.
func (g Graph) Clone() Graph {
	out := Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: make([]Edge, len(g.Edges)),
	}
	for i, n := range g.Nodes {
		out.Nodes[i] = n.Clone()
	}
	for i, e := range g.Edges {
		out.Edges[i] = e.Clone()
	}
	return out
}

// CountByKind returns how many nodes of each kind the graph contains.
func (g Graph) CountByKind() map[Kind]int {
	counts := make(map[Kind]int)
	for _, n := range g.Nodes {
		counts[n.Kind]++
	}
	return counts
}

func cloneRaw(m map[string]json.RawMessage) map[string]json.RawMessage {
	if m == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}
