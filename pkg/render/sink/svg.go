package sink

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"

	"github.com/matzehuels/crewviz/pkg/layout"
	"github.com/matzehuels/crewviz/pkg/render"
	"github.com/matzehuels/crewviz/pkg/workflow"
)

const (
	framePadding = 40.0
	cardRadius   = 10.0
	headerSize   = 12.0
	titleSize    = 16.0
	bodySize     = 12.0
	lineHeight   = 18.0
	textInset    = 16.0
	edgeWidth    = 2.0
	maxBodyLines = 4
)

const cardInteractionCSS = `
    .card { transition: stroke-width 0.2s ease; }
    .card:hover { stroke-width: 4; }
    .edge { fill: none; }`

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	sizes   map[workflow.Kind]layout.Size
	details bool
}

// WithSizes sets card sizes. The default is [layout.DefaultSizes].
func WithSizes(s map[workflow.Kind]layout.Size) SVGOption {
	return func(r *svgRenderer) { r.sizes = s }
}

// WithDetails draws payload fields (goal, description, ...) inside cards.
func WithDetails() SVGOption { return func(r *svgRenderer) { r.details = true } }

// card is a node ready to draw.
type card struct {
	ID         string
	Kind       workflow.Kind
	Title      string
	Lines      []string
	X, Y, W, H float64
}

func (c card) centerX() float64 { return c.X + c.W/2 }
func (c card) centerY() float64 { return c.Y + c.H/2 }

// RenderSVG draws g as a standalone SVG document. Nodes are drawn at their
// positions as cards colored by kind; edges are straight lines between card
// borders with an arrowhead when the edge has a marker.
func RenderSVG(g workflow.Graph, opts ...SVGOption) []byte {
	r := svgRenderer{sizes: layout.DefaultSizes()}
	for _, opt := range opts {
		opt(&r)
	}

	cards := r.buildCards(g)
	minX, minY, w, h := frame(cards)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%s %s %s %s" width="%.0f" height="%.0f">`+"\n",
		num(minX), num(minY), num(w), num(h), w, h)

	markers := collectMarkers(g.Edges)
	renderDefs(&buf, markers)
	markerIDs := make(map[markerKey]string, len(markers))
	for i, m := range markers {
		markerIDs[m] = markerID(i)
	}
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", cardInteractionCSS)

	byID := make(map[string]card, len(cards))
	for _, c := range cards {
		if _, dup := byID[c.ID]; !dup {
			byID[c.ID] = c
		}
	}
	for _, e := range g.Edges {
		src, ok1 := byID[e.Source]
		dst, ok2 := byID[e.Target]
		if !ok1 || !ok2 {
			continue
		}
		renderEdge(&buf, e, src, dst, markerIDs)
	}
	for _, c := range cards {
		r.renderCard(&buf, c)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r svgRenderer) buildCards(g workflow.Graph) []card {
	cards := make([]card, 0, len(g.Nodes))
	for i := range g.Nodes {
		n := &g.Nodes[i]
		s := layout.SizeOf(r.sizes, n.Kind)
		p := n.Pos()
		c := card{ID: n.ID, Kind: n.Kind, Title: n.DisplayName(), X: p.X, Y: p.Y, W: s.Width, H: s.Height}
		if r.details {
			c.Lines = detailLines(n)
		}
		cards = append(cards, c)
	}
	return cards
}

// frame returns the viewBox enclosing all cards plus padding.
func frame(cards []card) (x, y, w, h float64) {
	if len(cards) == 0 {
		return 0, 0, 2 * framePadding, 2 * framePadding
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range cards {
		minX = math.Min(minX, c.X)
		minY = math.Min(minY, c.Y)
		maxX = math.Max(maxX, c.X+c.W)
		maxY = math.Max(maxY, c.Y+c.H)
	}
	return minX - framePadding, minY - framePadding, maxX - minX + 2*framePadding, maxY - minY + 2*framePadding
}

// =============================================================================
// Cards
// =============================================================================

func (r svgRenderer) renderCard(buf *bytes.Buffer, c card) {
	style := render.KindStyle(c.Kind)
	fmt.Fprintf(buf, `  <g id="node-%s" class="node %s">`+"\n", escapeXML(c.ID), escapeXML(string(c.Kind)))
	fmt.Fprintf(buf, `    <rect class="card" x="%s" y="%s" width="%s" height="%s" rx="%s" fill="%s" stroke="%s" stroke-width="2"/>`+"\n",
		num(c.X), num(c.Y), num(c.W), num(c.H), num(cardRadius), style.Fill, style.Stroke)

	if c.W <= 0 || c.H <= 0 {
		buf.WriteString("  </g>\n")
		return
	}

	x := c.X + textInset
	y := c.Y + textInset + headerSize
	fmt.Fprintf(buf, `    <text x="%s" y="%s" font-family="Helvetica, Arial, sans-serif" font-size="%s" font-weight="bold" fill="%s">%s</text>`+"\n",
		num(x), num(y), num(headerSize), style.Accent, escapeXML(c.Kind.Label()))

	y += lineHeight + 4
	fmt.Fprintf(buf, `    <text x="%s" y="%s" font-family="Helvetica, Arial, sans-serif" font-size="%s" fill="#0f172a">%s</text>`+"\n",
		num(x), num(y), num(titleSize), escapeXML(truncate(c.Title, c.W-2*textInset, titleSize)))

	for _, line := range c.Lines {
		y += lineHeight
		if y > c.Y+c.H-textInset/2 {
			break
		}
		fmt.Fprintf(buf, `    <text x="%s" y="%s" font-family="Helvetica, Arial, sans-serif" font-size="%s" fill="#475569">%s</text>`+"\n",
			num(x), num(y), num(bodySize), escapeXML(truncate(line, c.W-2*textInset, bodySize)))
	}
	buf.WriteString("  </g>\n")
}

// detailKeys lists the payload fields shown on cards, in display order.
var detailKeys = []string{"goal", "description", "expected_output", "backstory", "variables"}

func detailLines(n *workflow.Node) []string {
	var lines []string
	for _, k := range detailKeys {
		v, ok := n.Data[k]
		if !ok || v == nil {
			continue
		}
		switch v := v.(type) {
		case string:
			if v != "" {
				lines = append(lines, k+": "+v)
			}
		default:
			if b, err := json.Marshal(v); err == nil {
				lines = append(lines, k+": "+string(b))
			}
		}
		if len(lines) == maxBodyLines {
			break
		}
	}
	return lines
}

// =============================================================================
// Edges
// =============================================================================

// markerKey identifies one arrowhead definition.
type markerKey struct {
	Type  workflow.MarkerType
	Color string
}

func markerID(i int) string { return fmt.Sprintf("marker-%d", i) }

func edgeColor(e workflow.Edge) string {
	if e.MarkerEnd != nil && e.MarkerEnd.Color != "" {
		return e.MarkerEnd.Color
	}
	var style struct {
		Stroke string `json:"stroke"`
	}
	if raw, ok := e.Attrs["style"]; ok && json.Unmarshal(raw, &style) == nil && style.Stroke != "" {
		return style.Stroke
	}
	return render.DefaultEdgeColor
}

func markerFor(e workflow.Edge) (markerKey, bool) {
	if e.MarkerEnd == nil {
		return markerKey{}, false
	}
	t := e.MarkerEnd.Type
	if !t.IsKnown() {
		t = workflow.MarkerArrowClosed
	}
	return markerKey{Type: t, Color: edgeColor(e)}, true
}

func collectMarkers(edges []workflow.Edge) []markerKey {
	var keys []markerKey
	for _, e := range edges {
		if k, ok := markerFor(e); ok && !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	return keys
}

func renderDefs(buf *bytes.Buffer, markers []markerKey) {
	if len(markers) == 0 {
		return
	}
	buf.WriteString("  <defs>\n")
	for i, m := range markers {
		fmt.Fprintf(buf, `    <marker id="%s" viewBox="0 0 10 10" refX="10" refY="5" markerWidth="8" markerHeight="8" orient="auto-start-reverse">`, markerID(i))
		if m.Type == workflow.MarkerArrow {
			fmt.Fprintf(buf, `<path d="M 0 0 L 10 5 L 0 10" fill="none" stroke="%s" stroke-width="1.5"/>`, escapeXML(m.Color))
		} else {
			fmt.Fprintf(buf, `<path d="M 0 0 L 10 5 L 0 10 z" fill="%s"/>`, escapeXML(m.Color))
		}
		buf.WriteString("</marker>\n")
	}
	buf.WriteString("  </defs>\n")
}

// anchors returns the line endpoints between two cards: bottom to top when
// dst is below src, top to bottom when above, side to side otherwise.
func anchors(src, dst card) (x1, y1, x2, y2 float64) {
	switch {
	case dst.Y >= src.Y+src.H:
		return src.centerX(), src.Y + src.H, dst.centerX(), dst.Y
	case dst.Y+dst.H <= src.Y:
		return src.centerX(), src.Y, dst.centerX(), dst.Y + dst.H
	case dst.X >= src.X:
		return src.X + src.W, src.centerY(), dst.X, dst.centerY()
	default:
		return src.X, src.centerY(), dst.X + dst.W, dst.centerY()
	}
}

func renderEdge(buf *bytes.Buffer, e workflow.Edge, src, dst card, markerIDs map[markerKey]string) {
	x1, y1, x2, y2 := anchors(src, dst)
	fmt.Fprintf(buf, `  <line class="edge" id="edge-%s" x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="%s"`,
		escapeXML(e.ID), num(x1), num(y1), num(x2), num(y2), escapeXML(edgeColor(e)), num(edgeWidth))
	if k, ok := markerFor(e); ok {
		fmt.Fprintf(buf, ` marker-end="url(#%s)"`, markerIDs[k])
	}
	buf.WriteString("/>\n")
}
