package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/matzehuels/crewviz/pkg/pipeline"
)

func TestDefaultSource(t *testing.T) {
	c := New(&bytes.Buffer{}, LogInfo)
	runner := pipeline.NewRunner(nil, nil, nil)

	tests := []struct {
		name      string
		arg       string
		wantNodes int
	}{
		{"unset serves empty graph", "", 0},
		{"demo", "demo", 4},
		{"file", filepath.Join("..", "..", "examples", "research_crew.json"), 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := c.defaultSource(tt.arg, runner)
			if err != nil {
				t.Fatalf("defaultSource(%q): %v", tt.arg, err)
			}
			g, err := src.Load(context.Background())
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(g.Nodes) != tt.wantNodes {
				t.Errorf("got %d nodes, want %d", len(g.Nodes), tt.wantNodes)
			}
		})
	}
}
