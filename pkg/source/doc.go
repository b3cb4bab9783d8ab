// Package source loads workflow documents for the layout engine.
//
// A [Source] yields an unpositioned {nodes, edges} document. Sources are
// the only place where I/O happens before layout: a load or parse failure
// is reported as an error and the engine is never invoked on it.
//
//   - [File]: a JSON document on disk
//   - [URL]: a JSON document fetched over HTTP, optionally cached
//   - [Static]: an in-memory graph, e.g. injected by a test or server
//   - [Demo]: the built-in agent/tool/execution example
//
// [Open] picks File or URL from a path-or-URL argument:
//
//	src, err := source.Open(arg, source.WithCache(c))
//	g, err := src.Load(ctx)
package source
