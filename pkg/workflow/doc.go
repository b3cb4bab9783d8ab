// Package workflow defines the agent workflow document consumed by the
// layout engine and the canvas.
//
// A document is a JSON object with two arrays:
//
//	{
//	  "nodes": [{"id": "in", "type": "agentInput", "is_starting_node": true, "data": {...}}],
//	  "edges": [{"id": "e1", "source": "in", "target": "t1", "markerEnd": {"type": "ArrowClosed"}}]
//	}
//
// Node "type" selects a [Kind]: agentInput, task, agent, tool or execution.
// The "data" payload is opaque to this module and forwarded unchanged.
// Every member this package does not model (edge styles, labels, handles,
// animation flags) is preserved in Attrs, so reading and writing a
// document only ever changes node positions.
//
// Arrowhead names in markerEnd.type are matched case-insensitively against
// [MarkerArrow] and [MarkerArrowClosed]; unknown names pass through.
//
// [Index] provides forward and reverse adjacency for traversal and skips
// edges that reference missing nodes. [Validate] reports such problems
// without failing.
package workflow
