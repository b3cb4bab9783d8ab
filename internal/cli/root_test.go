package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/crewviz/pkg/workflow"
)

// run executes the root command with args and returns stdout and the error.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	captureUI(t)

	c := New(&bytes.Buffer{}, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(&bytes.Buffer{}, LogInfo).RootCommand()
	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"layout", "render", "inspect", "serve", "workflows", "cache", "completion"} {
		if !strings.Contains(strings.Join(names, " "), want) {
			t.Errorf("missing subcommand %q in %v", want, names)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("missing --config flag")
	}
}

func TestLayoutCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "crew.json")
	doc := `{"nodes": [
		{"id": "in", "type": "agentInput", "is_starting_node": true},
		{"id": "t1", "type": "task"},
		{"id": "a1", "type": "agent"}
	], "edges": [
		{"id": "e1", "source": "in", "target": "t1"},
		{"id": "e2", "source": "a1", "target": "t1"}
	]}`
	if err := os.WriteFile(in, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := run(t, "layout", in, "--no-cache", "--center-x", "1000"); err != nil {
		t.Fatalf("layout: %v", err)
	}
	g, err := workflow.ReadGraphFile(filepath.Join(dir, "crew.layout.json"))
	if err != nil {
		t.Fatal(err)
	}
	// Bounds span 50..650 before centering; center 350 shifts by 650.
	if p := g.Nodes[0].Pos(); p.X != 700 || p.Y != 100 {
		t.Errorf("input at %+v, want {700 100}", p)
	}
	if p := g.Nodes[2].Pos(); p.X != 1050 || p.Y != 500 {
		t.Errorf("agent at %+v, want {1050 500}", p)
	}
}

func TestLayoutCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing file", []string{"layout", filepath.Join(t.TempDir(), "nope.json"), "--no-cache"}, "nope.json"},
		{"bad strategy", []string{"layout", "demo", "--strategy", "spiral", "--no-cache"}, "spiral"},
		{"no args", []string{"layout"}, "accepts 1 arg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestRenderCommand(t *testing.T) {
	base := filepath.Join(t.TempDir(), "demo")
	if _, err := run(t, "render", "demo", "-f", "dot,json,svg", "-o", base, "--no-cache"); err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, ext := range []string{".dot", ".json", ".svg"} {
		if _, err := os.Stat(base + ext); err != nil {
			t.Errorf("missing %s output: %v", ext, err)
		}
	}
	svg, _ := os.ReadFile(base + ".svg")
	if !strings.Contains(string(svg), `id="node-agent-1"`) {
		t.Error("svg has no agent card")
	}
}

func TestRenderCommandRejectsFormat(t *testing.T) {
	if _, err := run(t, "render", "demo", "-f", "gif", "--no-cache"); err == nil {
		t.Error("gif should be rejected")
	}
}

func TestWorkflowsCommands(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "crewviz.toml")
	cfg := "[store]\nbackend = \"file\"\ndir = \"" + filepath.ToSlash(filepath.Join(dir, "store")) + "\"\n\n[cache]\nbackend = \"none\"\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := run(t, "--config", cfgPath, "workflows", "save", "demo", "--name", "demo crew"); err != nil {
		t.Fatalf("save: %v", err)
	}
	entries, err := os.ReadDir(filepath.Join(dir, "store"))
	if err != nil || len(entries) != 1 {
		t.Fatalf("store dir entries = %v, %v", entries, err)
	}
	id := strings.TrimSuffix(entries[0].Name(), ".json")

	if _, err := run(t, "--config", cfgPath, "workflows", "list"); err != nil {
		t.Errorf("list: %v", err)
	}
	if _, err := run(t, "--config", cfgPath, "workflows", "rm", id); err != nil {
		t.Errorf("rm: %v", err)
	}
	if _, err := run(t, "--config", cfgPath, "workflows", "rm", id); err == nil {
		t.Error("second rm should fail")
	}
	if _, err := run(t, "--config", cfgPath, "workflows", "show", "not-an-id"); err == nil {
		t.Error("show with a malformed id should fail")
	}
}

func TestLayoutResearchCrewExample(t *testing.T) {
	out := filepath.Join(t.TempDir(), "crew.layout.json")
	if _, err := run(t, "layout", filepath.Join("..", "..", "examples", "research_crew.json"), "-o", out, "--no-cache"); err != nil {
		t.Fatalf("layout: %v", err)
	}
	g, err := workflow.ReadGraphFile(out)
	if err != nil {
		t.Fatal(err)
	}

	got := map[string]workflow.Position{}
	for _, n := range g.Nodes {
		got[n.DisplayName()] = n.Pos()
	}
	want := map[string]workflow.Position{
		"User input":              {X: 50, Y: 100},
		"research_task":           {X: 400, Y: 100},
		"writing_task":            {X: 750, Y: 100},
		"Senior Research Analyst": {X: 400, Y: 500},
		"Tech Content Strategist": {X: 750, Y: 500},
		"Search the internet":     {X: 425, Y: 820},
		"Read website content":    {X: 425, Y: 960},
	}
	for name, p := range want {
		if got[name] != p {
			t.Errorf("%s at %+v, want %+v", name, got[name], p)
		}
	}
	if len(g.Edges) != 6 || g.Edges[4].Attrs["animated"] == nil {
		t.Errorf("edges not passed through: %+v", g.Edges)
	}
}
