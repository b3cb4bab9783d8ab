// Package render turns positioned workflow graphs into static artifacts.
//
// # Overview
//
// The layout engine produces a [workflow.Graph] with a position on every
// node. This package and its subpackages draw that graph:
//
//   - [sink]: standalone SVG with one card per node at the engine positions
//   - [nodelink]: Graphviz DOT with pinned positions, and an SVG preview
//
// # Palette
//
// [KindStyle] returns the fill, stroke and accent colors used for each node
// kind so that every renderer colors cards the same way as the canvas.
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg).
//
//	svg := sink.RenderSVG(g)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// [sink]: github.com/matzehuels/crewviz/pkg/render/sink
// [nodelink]: github.com/matzehuels/crewviz/pkg/render/nodelink
package render
