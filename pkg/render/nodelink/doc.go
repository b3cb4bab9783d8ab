// Package nodelink exports positioned workflow graphs as Graphviz diagrams.
//
// # Usage
//
// Lay the graph out, convert it to DOT, then render:
//
//	g := layout.Apply(doc)
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(dot)
//
// For PDF or PNG output, use [RenderPDF] and [RenderPNG].
//
// # DOT Format
//
// Every node is emitted with a pinned pos attribute taken from the layout
// engine, so external tools reproduce the canvas with:
//
//	neato -n2 -Tsvg workflow.dot
//
// Cards are rounded boxes colored by kind. Edge arrowheads follow the
// document's markerEnd: arrowclosed becomes "normal", arrow becomes "vee"
// and edges without a marker have none.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
