package layered

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/crewviz/pkg/layout"
	"github.com/matzehuels/crewviz/pkg/workflow"
)

// pointsPerInch converts pixel sizes to Graphviz inches at 1pt = 1px.
const pointsPerInch = 72.0

// minNodeInches keeps zero-size cards valid for Graphviz.
const minNodeInches = 0.01

// Placer computes X coordinates with the Graphviz dot engine.
type Placer struct {
	// NodeSep is the minimum horizontal gap between cards in pixels.
	NodeSep float64

	// RankSep is the vertical gap between ranks in pixels. It only
	// influences X through edge straightening.
	RankSep float64

	// MarginX is the X assigned to the leftmost card.
	MarginX float64
}

// New returns a placer using the engine's default spacing.
func New() *Placer {
	return &Placer{
		NodeSep: layout.DefaultHorizontalSpacing,
		RankSep: 120,
		MarginX: layout.DefaultMarginX,
	}
}

var _ layout.XPlacer = (*Placer)(nil)

// PlaceX lays the graph out top to bottom with Graphviz and returns the left
// X of every node, shifted so that the leftmost card starts at MarginX.
func (p *Placer) PlaceX(nodes []workflow.Node, edges []workflow.Edge, sizes map[workflow.Kind]layout.Size) (map[string]float64, error) {
	xs := make(map[string]float64, len(nodes))
	if len(nodes) == 0 {
		return xs, nil
	}

	out, err := run([]byte(p.DOT(nodes, edges, sizes)))
	if err != nil {
		return nil, err
	}
	centers, err := parseCenters(out)
	if err != nil {
		return nil, err
	}

	lefts := make([]float64, len(nodes))
	minLeft := math.Inf(1)
	for i := range nodes {
		cx, ok := centers[i]
		if !ok {
			return nil, fmt.Errorf("graphviz returned no position for node %q", nodes[i].ID)
		}
		lefts[i] = cx - layout.SizeOf(sizes, nodes[i].Kind).Width/2
		minLeft = math.Min(minLeft, lefts[i])
	}

	for i := range nodes {
		if _, seen := xs[nodes[i].ID]; seen {
			continue
		}
		xs[nodes[i].ID] = lefts[i] - minLeft + p.MarginX
	}
	return xs, nil
}

// DOT returns the Graphviz source used for placement. Nodes are named by
// their slice position (n0, n1, ...) so that arbitrary IDs need no quoting
// and duplicate IDs stay distinct. Edges with a missing endpoint are left out.
func (p *Placer) DOT(nodes []workflow.Node, edges []workflow.Edge, sizes map[workflow.Kind]layout.Size) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	fmt.Fprintf(&buf, "  nodesep=%s;\n", inches(p.NodeSep))
	fmt.Fprintf(&buf, "  ranksep=%s;\n", inches(p.RankSep))
	buf.WriteString("  node [shape=box, fixedsize=true, label=\"\"];\n")
	buf.WriteString("\n")

	slot := make(map[string]int, len(nodes))
	for i, n := range nodes {
		if _, dup := slot[n.ID]; !dup {
			slot[n.ID] = i
		}
		s := layout.SizeOf(sizes, n.Kind)
		fmt.Fprintf(&buf, "  n%d [width=%s, height=%s];\n", i, inches(s.Width), inches(s.Height))
	}

	buf.WriteString("\n")
	for _, e := range edges {
		src, ok1 := slot[e.Source]
		dst, ok2 := slot[e.Target]
		if !ok1 || !ok2 {
			continue
		}
		fmt.Fprintf(&buf, "  n%d -> n%d;\n", src, dst)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func inches(px float64) string {
	return strconv.FormatFloat(math.Max(px/pointsPerInch, minNodeInches), 'f', 4, 64)
}

// run lays out dot and returns the positioned graph in dot format.
func run(dot []byte) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes(dot)
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.XDOT, &buf); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	nodeStmtRe = regexp.MustCompile(`(?m)^\s*n(\d+)\s+\[([^\]]*)\]`)
	posRe      = regexp.MustCompile(`pos="([-0-9.e+]+),([-0-9.e+]+)"`)
)

// parseCenters extracts node center X coordinates, keyed by slice position,
// from a positioned dot document.
func parseCenters(out []byte) (map[int]float64, error) {
	out = bytes.ReplaceAll(out, []byte("\\\n"), nil)

	centers := make(map[int]float64)
	for _, m := range nodeStmtRe.FindAllSubmatch(out, -1) {
		i, err := strconv.Atoi(string(m[1]))
		if err != nil {
			return nil, fmt.Errorf("node name n%s: %w", m[1], err)
		}
		pos := posRe.FindSubmatch(m[2])
		if pos == nil {
			continue
		}
		x, err := strconv.ParseFloat(string(pos[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("node n%d pos: %w", i, err)
		}
		centers[i] = x
	}
	return centers, nil
}
