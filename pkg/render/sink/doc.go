// Package sink draws positioned workflow graphs as standalone SVG.
//
// [RenderSVG] needs no external tools: every node becomes a rounded card
// at the position assigned by the layout engine, colored by kind, with the
// kind label and display name. Edges are straight lines between card
// borders. Edges with a markerEnd get an arrowhead in the marker color
// (closed triangle for arrowclosed, open chevron for arrow).
//
//	g := layout.Apply(doc, layout.WithCentering(600))
//	svg := sink.RenderSVG(g, sink.WithDetails())
//
// Use [render.ToPDF] or [render.ToPNG] to convert the result.
//
// [render.ToPDF]: github.com/matzehuels/crewviz/pkg/render.ToPDF
// [render.ToPNG]: github.com/matzehuels/crewviz/pkg/render.ToPNG
package sink
