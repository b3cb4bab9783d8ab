package workflow

import (
	"encoding/json"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
)

const traceDoc = `{
  "nodes": [
    {"id": "agent-1", "type": "agent", "data": {"role": "Researcher", "goal": "Find", "backstory": "Old hand"}},
    {"id": "tool-1", "type": "tool", "data": {"name": "SerperDevTool", "description": "Search"}},
    {"id": "task-1", "type": "task", "data": {"name": "research"}},
    {"id": "in", "type": "agentInput", "is_starting_node": true, "data": {"name": "User input", "variables": ["topic"]}}
  ],
  "edges": [
    {"id": "e1", "source": "agent-1", "target": "tool-1", "animated": false, "sourceHandle": "out",
     "style": {"stroke": "#3b82f6", "strokeWidth": 2}, "markerEnd": {"type": "ArrowClosed", "color": "#3b82f6"}},
    {"id": "e2", "source": "agent-1", "target": "task-1", "markerEnd": {"type": "ARROW"}},
    {"id": "e3", "source": "in", "target": "task-1", "markerEnd": {"type": "diamond", "width": 12}}
  ]
}`

func TestReadGraph(t *testing.T) {
	g, err := UnmarshalGraph([]byte(traceDoc))
	if err != nil {
		t.Fatalf("UnmarshalGraph() error: %v", err)
	}

	if len(g.Nodes) != 4 || len(g.Edges) != 3 {
		t.Fatalf("got %d nodes, %d edges, want 4, 3", len(g.Nodes), len(g.Edges))
	}

	in := g.Nodes[3]
	if in.Kind != KindInput {
		t.Errorf("Kind = %q, want %q", in.Kind, KindInput)
	}
	if !in.IsStartingNode {
		t.Error("IsStartingNode = false, want true")
	}
	if in.Position != nil {
		t.Errorf("Position = %+v, want nil", in.Position)
	}
	if got := g.Nodes[0].Data["role"]; got != "Researcher" {
		t.Errorf("agent role = %v, want Researcher", got)
	}

	e1 := g.Edges[0]
	if e1.MarkerEnd == nil || e1.MarkerEnd.Type != MarkerArrowClosed {
		t.Errorf("e1 marker = %+v, want arrowclosed", e1.MarkerEnd)
	}
	if e1.MarkerEnd.Color != "#3b82f6" {
		t.Errorf("e1 marker color = %q", e1.MarkerEnd.Color)
	}
	for _, k := range []string{"animated", "sourceHandle", "style"} {
		if _, ok := e1.Attrs[k]; !ok {
			t.Errorf("e1 attr %q not preserved", k)
		}
	}

	if g.Edges[1].MarkerEnd.Type != MarkerArrow {
		t.Errorf("e2 marker = %q, want arrow", g.Edges[1].MarkerEnd.Type)
	}
	if g.Edges[2].MarkerEnd.Type != "diamond" {
		t.Errorf("e3 marker = %q, want passthrough diamond", g.Edges[2].MarkerEnd.Type)
	}
	if _, ok := g.Edges[2].MarkerEnd.Attrs["width"]; !ok {
		t.Error("e3 marker width not preserved")
	}
}

func TestRoundTripPreservesPassthrough(t *testing.T) {
	g, err := UnmarshalGraph([]byte(traceDoc))
	if err != nil {
		t.Fatal(err)
	}
	g.Nodes[0].SetPos(10, 20)

	data, err := MarshalGraph(g)
	if err != nil {
		t.Fatalf("MarshalGraph() error: %v", err)
	}
	again, err := UnmarshalGraph(data)
	if err != nil {
		t.Fatalf("re-read error: %v", err)
	}

	if p := again.Nodes[0].Pos(); p.X != 10 || p.Y != 20 {
		t.Errorf("position = %+v, want {10 20}", p)
	}
	var style map[string]any
	if err := json.Unmarshal(again.Edges[0].Attrs["style"], &style); err != nil {
		t.Fatalf("style attr: %v", err)
	}
	if style["stroke"] != "#3b82f6" {
		t.Errorf("style.stroke = %v", style["stroke"])
	}
	if !strings.Contains(string(data), `"is_starting_node": true`) {
		t.Error("is_starting_node dropped on write")
	}
}

func TestReadGraphMissingArrays(t *testing.T) {
	g, err := UnmarshalGraph([]byte(`{}`))
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if g.Nodes == nil || g.Edges == nil {
		t.Error("missing arrays should decode as empty slices")
	}
}

func TestReadGraphMalformed(t *testing.T) {
	if _, err := UnmarshalGraph([]byte(`{"nodes": [`)); err == nil {
		t.Error("expected error for truncated document")
	}
}

func TestKindAlias(t *testing.T) {
	g, err := UnmarshalGraph([]byte(`{"nodes": [{"id": "a", "type": "input"}, {"id": "b", "type": "widget"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if g.Nodes[0].Kind != KindInput {
		t.Errorf("alias kind = %q, want %q", g.Nodes[0].Kind, KindInput)
	}
	if g.Nodes[1].Kind != "widget" || g.Nodes[1].Kind.IsKnown() {
		t.Errorf("unknown kind = %q, want passthrough widget", g.Nodes[1].Kind)
	}
}

func TestParseMarkerType(t *testing.T) {
	tests := []struct {
		in   string
		want MarkerType
	}{
		{"arrow", MarkerArrow},
		{"Arrow", MarkerArrow},
		{"ArrowClosed", MarkerArrowClosed},
		{" arrowclosed ", MarkerArrowClosed},
		{"Diamond", "Diamond"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ParseMarkerType(tt.in); got != tt.want {
			t.Errorf("ParseMarkerType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	g, err := UnmarshalGraph([]byte(traceDoc))
	if err != nil {
		t.Fatal(err)
	}
	g.Nodes[0].SetPos(1, 1)

	c := g.Clone()
	c.Nodes[0].Position.X = 99
	c.Nodes[0].Data["role"] = "changed"
	c.Edges[0].MarkerEnd.Color = "red"

	if g.Nodes[0].Position.X != 1 {
		t.Error("clone shares position")
	}
	if g.Nodes[0].Data["role"] != "Researcher" {
		t.Error("clone shares data map")
	}
	if g.Edges[0].MarkerEnd.Color != "#3b82f6" {
		t.Error("clone shares marker")
	}
}

func TestIndexSkipsDanglingEdges(t *testing.T) {
	nodes := []Node{{ID: "a"}, {ID: "b"}}
	edges := []Edge{
		{ID: "ab", Source: "a", Target: "b"},
		{ID: "ax", Source: "a", Target: "missing"},
		{ID: "xb", Source: "missing", Target: "b"},
	}
	idx := NewIndex(nodes, edges)

	if got := idx.Children("a"); len(got) != 1 || got[0] != "b" {
		t.Errorf("Children(a) = %v, want [b]", got)
	}
	if got := idx.Parents("b"); len(got) != 1 || got[0] != "a" {
		t.Errorf("Parents(b) = %v, want [a]", got)
	}
	if len(idx.Edges()) != 1 {
		t.Errorf("Edges() = %d, want 1", len(idx.Edges()))
	}
	if idx.Has("missing") {
		t.Error("Has(missing) = true")
	}
}

func TestIndexDuplicateIDsKeepFirst(t *testing.T) {
	idx := NewIndex([]Node{{ID: "a"}, {ID: "a"}}, nil)
	if i, _ := idx.Position("a"); i != 0 {
		t.Errorf("Position(a) = %d, want 0", i)
	}
}

func TestValidate(t *testing.T) {
	g := Graph{
		Nodes: []Node{
			{ID: "in", Kind: KindInput, IsStartingNode: true},
			{ID: "in2", Kind: KindInput, IsStartingNode: true},
			{ID: "t", Kind: KindTask},
			{ID: "t", Kind: KindTask},
			{ID: "w", Kind: "widget"},
		},
		Edges: []Edge{{ID: "e", Source: "in", Target: "nope"}},
	}
	r := Validate(g)

	checks := map[IssueKind]int{
		IssueDanglingEdge:    1,
		IssueDuplicateNodeID: 1,
		IssueUnknownKind:     1,
		IssueMultipleStarts:  1,
	}
	for kind, want := range checks {
		if got := r.Count(kind); got != want {
			t.Errorf("Count(%s) = %d, want %d (%s)", kind, got, want, r)
		}
	}

	if !Validate(Graph{}).OK() {
		t.Error("empty graph should validate")
	}
}

func TestReadWriteGraphFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workflow.json")
	g := Graph{Nodes: []Node{{ID: "a", Kind: KindTask}}}
	if err := WriteGraphFile(path, g); err != nil {
		t.Fatalf("WriteGraphFile() error: %v", err)
	}
	got, err := ReadGraphFile(path)
	if err != nil {
		t.Fatalf("ReadGraphFile() error: %v", err)
	}
	if len(got.Nodes) != 1 || got.Nodes[0].Kind != KindTask {
		t.Errorf("got %+v", got.Nodes)
	}

	if _, err := ReadGraphFile(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		node Node
		want string
	}{
		{Node{ID: "x", Data: map[string]any{"name": "Search"}}, "Search"},
		{Node{ID: "x", Data: map[string]any{"role": "Analyst"}}, "Analyst"},
		{Node{ID: "x"}, "x"},
	}
	for _, tt := range tests {
		if got := tt.node.DisplayName(); got != tt.want {
			t.Errorf("DisplayName() = %q, want %q", got, tt.want)
		}
	}
}
