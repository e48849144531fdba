package diagram

import (
	"github.com/matzehuels/linkgraph/pkg/model"
	"github.com/matzehuels/linkgraph/pkg/shape"
)

// FindByID returns the item with the given id.
func (g *Graph) FindByID(id string) (model.Item, bool) { return g.reg.Find(id) }

// Nodes returns the live nodes in insertion order.
func (g *Graph) Nodes() []*model.Node { return g.reg.Nodes() }

// Edges returns the live edges in insertion order, unresolved ones included.
func (g *Graph) Edges() []*model.Edge { return g.reg.Edges() }

// Groups returns the live groups in insertion order.
func (g *Graph) Groups() []*model.Group { return g.reg.Groups() }

// ItemMap returns every live item keyed by id. The map is a fresh copy.
func (g *Graph) ItemMap() map[string]model.Item {
	ids := g.reg.IDs()
	out := make(map[string]model.Item, len(ids))
	for _, id := range ids {
		it, _ := g.reg.Find(id)
		out[id] = it
	}
	return out
}

// Len returns the number of live items of kind k.
func (g *Graph) Len(k model.Kind) int { return g.reg.Len(k) }

// EdgesOf returns the resolved edges incident to a node, in the order they
// were connected. It is empty for unknown nodes.
func (g *Graph) EdgesOf(node model.Ref) []*model.Edge {
	id := model.IDOf(node)
	if id == "" {
		return nil
	}
	ids := g.reg.Adjacency(id)
	out := make([]*model.Edge, 0, len(ids))
	for _, eid := range ids {
		if e, ok := g.reg.Edge(eid); ok {
			out = append(out, e)
		}
	}
	return out
}

// Members returns the nodes of a group in the order they joined.
func (g *Graph) Members(group model.Ref) []*model.Node {
	id := model.IDOf(group)
	if id == "" {
		return nil
	}
	ids := g.reg.Members(id)
	out := make([]*model.Node, 0, len(ids))
	for _, nid := range ids {
		if n, ok := g.reg.Node(nid); ok {
			out = append(out, n)
		}
	}
	return out
}

// IsVisible reports whether an item is drawn. A node needs its own flag and
// its group's; an edge needs its own flag, both endpoints resolved and both
// endpoints visible. Unknown items are not visible.
func (g *Graph) IsVisible(ref model.Ref) bool {
	it, err := g.lookup(ref)
	if err != nil {
		return false
	}
	return g.reg.EffectiveVisible(it.ID())
}

// Matrix returns the transform last drawn for an item.
func (g *Graph) Matrix(ref model.Ref) (shape.Matrix, error) {
	it, err := g.lookup(ref)
	if err != nil {
		return shape.Matrix{}, err
	}
	return g.sync.Matrix(it.ID())
}

// Path returns the path last drawn for an edge.
func (g *Graph) Path(ref model.Ref) (shape.Segments, error) {
	it, err := g.lookup(ref)
	if err != nil {
		return nil, err
	}
	return g.sync.Path(it.ID())
}

// Shape returns the draw attributes last pushed for an item.
func (g *Graph) Shape(ref model.Ref) (shape.Attrs, error) {
	it, err := g.lookup(ref)
	if err != nil {
		return shape.Attrs{}, err
	}
	return g.sync.Attrs(it.ID())
}

// BBox returns the drawn bounds of an item.
func (g *Graph) BBox(ref model.Ref) (shape.Rect, error) {
	it, err := g.lookup(ref)
	if err != nil {
		return shape.Rect{}, err
	}
	return g.sync.BBox(it.ID())
}
