// Package layout assigns positions to nodes that have none.
//
// A [Layout] receives the nodes and edges of a diagram and returns a centre
// point per node id. The diagram controller calls it once, on the first
// paint, and keeps explicit coordinates where the caller set them.
//
// Two implementations are provided:
//
//   - [Graphviz]: ranked layout computed by the dot engine through
//     [github.com/goccy/go-graphviz] (WebAssembly build, no system Graphviz
//     needed). Positions come from Graphviz's "plain" output (see [ParsePlain]).
//   - [Grid]: row-major grid, used as a fallback and in tests.
package layout
