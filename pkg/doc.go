// Package pkg holds the crewviz libraries.
//
// crewviz computes canvas positions for AI-agent workflow graphs: inputs and
// tasks on a top band, agents on a band below, tools stacked under their
// agent. The packages are:
//
//   - [workflow]: node, edge and document types with a JSON codec that keeps
//     unknown members
//   - [layout]: the band layout engine, with [layout/layered] placing X with
//     Graphviz for the delegated strategy
//   - [render]: SVG cards ([render/sink]), pinned Graphviz DOT
//     ([render/nodelink]) and PNG/PDF conversion
//   - [source]: documents from files, URLs or the built-in demo
//   - [pipeline]: load → layout → render with caching, shared by CLI and server
//   - [cache], [store]: file, Redis and MongoDB backends
//   - [config]: TOML configuration
//   - [errors], [httputil], [observability], [buildinfo]: support code
//
// # Quick Start
//
//	g, err := workflow.ReadGraphFile("crew.json")
//	if err != nil {
//	    return err
//	}
//	positioned := layout.Apply(g, layout.WithCentering(600))
//	svg := sink.RenderSVG(positioned)
package pkg
