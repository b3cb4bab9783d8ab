package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/crewviz/pkg/layout"
	"github.com/matzehuels/crewviz/pkg/render"
	"github.com/matzehuels/crewviz/pkg/workflow"
)

// Options configures DOT generation.
type Options struct {
	// Detailed adds the node kind and ID below the display name.
	Detailed bool

	// Sizes maps kinds to card sizes. Nil selects [layout.DefaultSizes].
	Sizes map[workflow.Kind]layout.Size
}

// ToDOT converts a positioned workflow graph to Graphviz DOT.
//
// Every node is pinned at its engine position (pos="x,y!"), so the output
// renders with the neato engine exactly as the canvas shows it. Canvas Y
// grows downward, Graphviz Y grows upward; Y is negated. Edges with a
// missing endpoint are left out.
func ToDOT(g workflow.Graph, opts Options) string {
	sizes := opts.Sizes
	if sizes == nil {
		sizes = layout.DefaultSizes()
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fixedsize=true, fontname=\"Helvetica\", fontsize=14];\n")
	buf.WriteString("  edge [color=\"" + render.DefaultEdgeColor + "\", penwidth=2];\n")
	buf.WriteString("\n")

	known := make(map[string]bool, len(g.Nodes))
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if known[n.ID] {
			continue
		}
		known[n.ID] = true
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(n, layout.SizeOf(sizes, n.Kind), opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		if !known[e.Source] || !known[e.Target] {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.Source, e.Target, strings.Join(edgeAttrs(e), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *workflow.Node, detailed bool) string {
	name := n.DisplayName()
	if !detailed {
		return name
	}
	return fmt.Sprintf("%s\n%s (%s)", name, n.Kind.Label(), n.ID)
}

func nodeAttrs(n *workflow.Node, s layout.Size, detailed bool) []string {
	style := render.KindStyle(n.Kind)
	p := n.Pos()
	return []string{
		fmt.Sprintf("label=%q", fmtLabel(n, detailed)),
		fmt.Sprintf("pos=\"%s,%s!\"", num(p.X+s.Width/2), num(-(p.Y + s.Height/2))),
		fmt.Sprintf("width=%s", num(s.Width/72)),
		fmt.Sprintf("height=%s", num(s.Height/72)),
		fmt.Sprintf("fillcolor=%q", style.Fill),
		fmt.Sprintf("color=%q", style.Stroke),
		fmt.Sprintf("fontcolor=%q", style.Accent),
	}
}

func edgeAttrs(e workflow.Edge) []string {
	attrs := []string{"arrowhead=" + arrowhead(e.MarkerEnd)}
	if e.MarkerEnd != nil && e.MarkerEnd.Color != "" {
		attrs = append(attrs, fmt.Sprintf("color=%q", e.MarkerEnd.Color))
	}
	return attrs
}

// arrowhead maps an edge marker to a Graphviz arrow shape.
func arrowhead(m *workflow.Marker) string {
	switch {
	case m == nil:
		return "none"
	case m.Type == workflow.MarkerArrow:
		return "vee"
	default:
		return "normal"
	}
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// RenderSVG renders DOT produced by [ToDOT] to SVG using Graphviz. The neato
// engine honours the pinned node positions.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the Graphviz root element with one that scales
// to its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}

// RenderPDF renders DOT as PDF via SVG conversion.
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders DOT as PNG via SVG conversion at the given scale.
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
