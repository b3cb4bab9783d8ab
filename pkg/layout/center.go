package layout

import (
	"math"

	"github.com/matzehuels/crewviz/pkg/workflow"
)

// minShift is the smallest horizontal shift the centering pass applies.
// Smaller shifts are skipped so that repeated runs leave positions unchanged.
const minShift = 0.5

// Bounds is the horizontal extent of a set of nodes.
type Bounds struct {
	MinX, MaxX float64
}

// Center returns the midpoint of the bounds.
func (b Bounds) Center() float64 { return (b.MinX + b.MaxX) / 2 }

// Width returns the horizontal extent.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// HorizontalBounds returns the extent from the leftmost node edge to the
// rightmost node edge. ok is false when nodes is empty.
func HorizontalBounds(nodes []workflow.Node, sizes map[workflow.Kind]Size) (b Bounds, ok bool) {
	if len(nodes) == 0 {
		return Bounds{}, false
	}
	b = Bounds{MinX: math.Inf(1), MaxX: math.Inf(-1)}
	for i := range nodes {
		x := nodes[i].Pos().X
		b.MinX = math.Min(b.MinX, x)
		b.MaxX = math.Max(b.MaxX, x+SizeOf(sizes, nodes[i].Kind).Width)
	}
	return b, true
}

// CenterHorizontally shifts every node so that the horizontal bounding box is
// centered on centerX. Nodes are modified in place and the applied shift is
// returned. Shifts below half a pixel are skipped, so calling it twice has
// the same effect as calling it once.
func CenterHorizontally(nodes []workflow.Node, sizes map[workflow.Kind]Size, centerX float64) float64 {
	b, ok := HorizontalBounds(nodes, sizes)
	if !ok {
		return 0
	}
	d := centerX - b.Center()
	if math.Abs(d) < minShift {
		return 0
	}
	for i := range nodes {
		p := nodes[i].Pos()
		nodes[i].SetPos(p.X+d, p.Y)
	}
	return d
}
