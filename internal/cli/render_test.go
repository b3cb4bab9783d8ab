package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", []string{"svg"}},
		{"svg", []string{"svg"}},
		{"svg,png,pdf", []string{"svg", "png", "pdf"}},
		{" DOT , json", []string{"dot", "json"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, parseFormats(tt.input)); diff != "" {
			t.Errorf("parseFormats(%q) mismatch (-want +got):\n%s", tt.input, diff)
		}
	}
}

func TestOutputBase(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"crews/research.json", "crews/research"},
		{"research", "research"},
		{"demo", "demo"},
		{"https://example.com/crews/research.json?rev=2", "research"},
		{"https://example.com/", "workflow"},
		{".json", "workflow"},
	}
	for _, tt := range tests {
		if got := outputBase(tt.input); got != tt.want {
			t.Errorf("outputBase(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestArtifactPath(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		formats []string
		output  string
		want    string
	}{
		{"derived", "svg", []string{"svg"}, "", "crew.svg"},
		{"single verbatim", "png", []string{"png"}, "out/picture.png", "out/picture.png"},
		{"multiple from base", "pdf", []string{"svg", "pdf"}, "out/crew", "out/crew.pdf"},
		{"multiple strips ext", "svg", []string{"svg", "pdf"}, "out/crew.pdf", "out/crew.svg"},
		{"unknown ext kept", "svg", []string{"svg", "pdf"}, "out/crew.v2", "out/crew.v2.svg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := artifactPath(tt.format, tt.formats, "crew.json", tt.output); got != tt.want {
				t.Errorf("artifactPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "crew")
	artifacts := map[string][]byte{"svg": []byte("<svg/>"), "dot": []byte("digraph G {}")}

	paths, err := writeArtifacts(artifacts, []string{"svg", "dot"}, "crew.json", base)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{base + ".svg", base + ".dot"}, paths); diff != "" {
		t.Errorf("paths mismatch (-want +got):\n%s", diff)
	}
	got, _ := os.ReadFile(base + ".dot")
	if string(got) != "digraph G {}" {
		t.Errorf("dot file = %q", got)
	}
}
