// Package diagram is the public item API of a node-link diagram.
//
// A [Graph] owns nodes, edges and groups, keeps them consistent under edits
// and keeps a retained scene of shapes in step with them.
//
// # Mutations
//
// [Graph.AddItem], [Graph.RemoveItem], [Graph.Update], [Graph.ShowItem],
// [Graph.HideItem], [Graph.SetSource], [Graph.SetTarget] and [Graph.Clear]
// are the only ways to change a diagram. Each one validates first and then
// applies completely, or returns an *errors.Error and changes nothing:
//
//   - UNKNOWN_KIND, INVALID_CONFIG, INVALID_ID: the request was malformed.
//   - DUPLICATE_ID: AddItem named an id that is already live.
//   - NOT_FOUND: the referenced item does not exist (or belongs to another
//     graph). Removing an item twice is therefore harmless.
//
// Removing a node removes its incident edges with it. An edge whose
// endpoints do not exist is accepted and kept unresolved: it is stored and
// listed by [Graph.Edges], but it is in no node's adjacency and is never
// drawn.
//
// # Redraw
//
// Mutations mark the affected items dirty. The first mark posts one pass to
// the event loop given with [WithLoop]; everything marked before the loop
// turns is synchronized by that single pass. [Graph.Refresh] runs the pass
// right away and consumes the queued one, for callers that read geometry
// back immediately:
//
//	_ = g.SetTarget(edge, other)
//	_ = g.Refresh()
//	path, _ := g.Path(edge)
//
// [Graph.Paint] additionally places nodes without coordinates using the
// configured [layout.Layout] and redraws everything.
//
// Structural queries ([Graph.FindByID], [Graph.Nodes], [Graph.EdgesOf],
// [Graph.IsVisible]) never wait for a pass.
package diagram
