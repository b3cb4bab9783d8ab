package sink

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/matzehuels/crewviz/pkg/layout"
	"github.com/matzehuels/crewviz/pkg/workflow"
)

func sample() workflow.Graph {
	nodes := []workflow.Node{
		{ID: "in", Kind: workflow.KindInput, IsStartingNode: true, Data: map[string]any{"name": "Topic <AI>"}},
		{ID: "t1", Kind: workflow.KindTask, Data: map[string]any{"name": "research", "description": "Dig into the topic"}},
		{ID: "a1", Kind: workflow.KindAgent, Data: map[string]any{"role": "Researcher", "goal": "Find facts"}},
		{ID: "tool", Kind: workflow.KindTool, Data: map[string]any{"name": "Search"}},
	}
	edges := []workflow.Edge{
		{ID: "e1", Source: "in", Target: "t1", MarkerEnd: &workflow.Marker{Type: workflow.MarkerArrowClosed, Color: "#3b82f6"}},
		{ID: "e2", Source: "a1", Target: "t1", MarkerEnd: &workflow.Marker{Type: workflow.MarkerArrow, Color: "#3b82f6"}},
		{ID: "e3", Source: "a1", Target: "tool", Attrs: map[string]json.RawMessage{"style": json.RawMessage(`{"stroke":"#22c55e"}`)}},
		{ID: "e4", Source: "a1", Target: "missing"},
	}
	return layout.Layout(nodes, edges)
}

func TestRenderSVG(t *testing.T) {
	svg := string(RenderSVG(sample()))

	for _, want := range []string{
		`<svg xmlns="http://www.w3.org/2000/svg"`,
		`id="node-in"`,
		`Topic &lt;AI&gt;`,
		`id="marker-0"`,
		`id="marker-1"`,
		`id="edge-e1"`,
		`marker-end="url(#marker-0)"`,
		`marker-end="url(#marker-1)"`,
		`stroke="#22c55e"`,
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("RenderSVG() missing %q", want)
		}
	}
	if strings.Contains(svg, "edge-e4") {
		t.Error("dangling edge drawn")
	}
	if strings.Count(svg, "<rect") != 4 {
		t.Errorf("got %d cards, want 4", strings.Count(svg, "<rect"))
	}
}

func TestRenderSVGDetails(t *testing.T) {
	plain := string(RenderSVG(sample()))
	detailed := string(RenderSVG(sample(), WithDetails()))
	if strings.Contains(plain, "goal: Find facts") {
		t.Error("details drawn without WithDetails")
	}
	if !strings.Contains(detailed, "goal: Find facts") {
		t.Error("WithDetails did not draw goal")
	}
}

func TestRenderSVGEmpty(t *testing.T) {
	svg := string(RenderSVG(workflow.Graph{}))
	if !strings.Contains(svg, `viewBox="0 0 80 80"`) || !strings.HasSuffix(svg, "</svg>\n") {
		t.Errorf("empty graph svg = %s", svg)
	}
}

func TestFrame(t *testing.T) {
	x, y, w, h := frame([]card{{X: 50, Y: 100, W: 250, H: 160}, {X: 400, Y: 500, W: 250, H: 200}})
	if x != 10 || y != 60 || w != 680 || h != 680 {
		t.Errorf("frame = %v %v %v %v", x, y, w, h)
	}
}

func TestAnchors(t *testing.T) {
	top := card{X: 0, Y: 0, W: 100, H: 50}
	below := card{X: 0, Y: 100, W: 100, H: 50}
	right := card{X: 200, Y: 0, W: 100, H: 50}

	tests := []struct {
		name           string
		src, dst       card
		x1, y1, x2, y2 float64
	}{
		{"down", top, below, 50, 50, 50, 100},
		{"up", below, top, 50, 100, 50, 50},
		{"right", top, right, 100, 25, 200, 25},
		{"left", right, top, 200, 25, 100, 25},
	}
	for _, tt := range tests {
		x1, y1, x2, y2 := anchors(tt.src, tt.dst)
		if x1 != tt.x1 || y1 != tt.y1 || x2 != tt.x2 || y2 != tt.y2 {
			t.Errorf("%s: anchors = (%v,%v)-(%v,%v)", tt.name, x1, y1, x2, y2)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 200, 12); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
	got := truncate("a rather long card title that overflows", 66, 12)
	if len(got) != 10 || !strings.HasSuffix(got, "..") {
		t.Errorf("truncate(long) = %q, want 10 chars ending in ..", got)
	}
}
