package workflow

// Index is a read-only adjacency view over a graph's nodes and edges.
//
// Edges whose source or target does not name a node are left out of the
// adjacency maps. When several nodes share an ID, the first one wins.
// Neighbor lists preserve edge order.
//
// The zero value is not usable - use NewIndex.
type Index struct {
	nodes    map[string]int      // node ID -> position in the node slice
	outgoing map[string][]string // node ID -> target IDs
	incoming map[string][]string // node ID -> source IDs
	edges    []Edge              // edges with both endpoints resolved
}

// NewIndex builds an index over nodes and edges. The slices are not retained.
func NewIndex(nodes []Node, edges []Edge) *Index {
	idx := &Index{
		nodes:    make(map[string]int, len(nodes)),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
	}
	for i, n := range nodes {
		if _, dup := idx.nodes[n.ID]; !dup {
			idx.nodes[n.ID] = i
		}
	}
	for _, e := range edges {
		if !idx.Has(e.Source) || !idx.Has(e.Target) {
			continue
		}
		idx.edges = append(idx.edges, e)
		idx.outgoing[e.Source] = append(idx.outgoing[e.Source], e.Target)
		idx.incoming[e.Target] = append(idx.incoming[e.Target], e.Source)
	}
	return idx
}

// Has reports whether a node with the given ID exists.
func (x *Index) Has(id string) bool {
	_, ok := x.nodes[id]
	return ok
}

// Position returns the slice position of the node with the given ID.
func (x *Index) Position(id string) (int, bool) {
	i, ok := x.nodes[id]
	return i, ok
}

// Children returns the targets of edges leaving id, in edge order.
// The returned slice must not be modified.
func (x *Index) Children(id string) []string { return x.outgoing[id] }

// Parents returns the sources of edges entering id, in edge order.
// The returned slice must not be modified.
func (x *Index) Parents(id string) []string { return x.incoming[id] }

// Edges returns the edges whose endpoints both resolve, in input order.
// The returned slice must not be modified.
func (x *Index) Edges() []Edge { return x.edges }

// Degree returns the number of resolved edges touching id in either direction.
func (x *Index) Degree(id string) int {
	return len(x.outgoing[id]) + len(x.incoming[id])
}
