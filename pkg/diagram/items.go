package diagram

import (
	"github.com/matzehuels/linkgraph/pkg/errors"
	"github.com/matzehuels/linkgraph/pkg/model"
	"github.com/matzehuels/linkgraph/pkg/observability"
)

// merge applies patch over cur. A patch that sets Color without an explicit
// stroke lets Color win over any inherited stroke.
func merge(cur, patch model.Config) model.Config {
	out := cur.Merge(patch)
	if patch.Color != "" && patch.Style.Stroke == "" {
		out.Style.Stroke = ""
	}
	return out
}

// lookup resolves ref to one of this graph's items. Items belonging to
// another graph are reported as not found.
func (g *Graph) lookup(ref model.Ref) (model.Item, error) {
	if model.IDOf(ref) == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "missing item reference")
	}
	it, ok := g.reg.Find(ref.ID())
	if !ok {
		return nil, errors.NotFound(ref.ID())
	}
	if other, isItem := ref.(model.Item); isItem && other != it {
		return nil, errors.New(errors.ErrCodeNotFound, "item %q belongs to another diagram", ref.ID())
	}
	return it, nil
}

// AddItem creates an item of kind k. cfg is merged over the kind's defaults
// and validated before anything is stored.
//
// An edge whose source or target does not name a live node is still created;
// it stays unresolved, is kept out of adjacency and is not drawn. Adding the
// missing node later does not resolve it (use SetSource or SetTarget).
func (g *Graph) AddItem(k model.Kind, cfg model.Config) (model.Item, error) {
	if !k.Valid() {
		return nil, errors.New(errors.ErrCodeUnknownKind, "unknown item kind %q", k)
	}
	merged := merge(g.defaults[k], cfg)
	if err := merged.Validate(k); err != nil {
		return nil, err
	}

	it, err := g.reg.Add(k, merged)
	if err != nil {
		return nil, err
	}

	switch v := it.(type) {
	case *model.Node:
		g.sched.MarkDirty(v.ID())
		if v.Group() != "" {
			g.sched.MarkDirty(v.Group())
		}
	case *model.Edge:
		g.sched.MarkDirty(v.ID())
		if !v.Resolved() {
			g.logger.Debug("edge unresolved", "id", v.ID(), "source", v.Source(), "target", v.Target())
		}
	default:
		g.sched.MarkDirty(it.ID())
	}

	g.logger.Debug("added item", "kind", k, "id", it.ID())
	observability.Item().OnItemAdded(g.ctx, string(k), it.ID())
	return it, nil
}

// AddNode is shorthand for AddItem(model.KindNode, cfg).
func (g *Graph) AddNode(cfg model.Config) (*model.Node, error) {
	it, err := g.AddItem(model.KindNode, cfg)
	if err != nil {
		return nil, err
	}
	return it.(*model.Node), nil
}

// AddEdge is shorthand for AddItem(model.KindEdge, cfg) with the endpoints
// filled in.
func (g *Graph) AddEdge(source, target model.Ref, cfg model.Config) (*model.Edge, error) {
	cfg.Source, cfg.Target = source, target
	it, err := g.AddItem(model.KindEdge, cfg)
	if err != nil {
		return nil, err
	}
	return it.(*model.Edge), nil
}

// AddGroup is shorthand for AddItem(model.KindGroup, cfg).
func (g *Graph) AddGroup(cfg model.Config) (*model.Group, error) {
	it, err := g.AddItem(model.KindGroup, cfg)
	if err != nil {
		return nil, err
	}
	return it.(*model.Group), nil
}

// RemoveItem removes an item. Removing a node removes its incident edges
// first; removing a group detaches its members. An unknown id reports
// NOT_FOUND and changes nothing, so repeated removal is harmless.
func (g *Graph) RemoveItem(ref model.Ref) error {
	it, err := g.lookup(ref)
	if err != nil {
		return err
	}

	var dependents []string
	switch v := it.(type) {
	case *model.Node:
		if v.Group() != "" {
			dependents = append(dependents, v.Group())
		}
	case *model.Group:
		for _, id := range g.reg.Members(v.ID()) {
			dependents = append(dependents, g.nodeDependents(id)...)
		}
	}

	removed, err := g.reg.Remove(it.ID())
	if err != nil {
		return err
	}

	for _, r := range removed {
		if box, err := g.sync.BBox(r.ID()); err == nil {
			g.damage = g.damage.Union(box)
		}
		g.sched.MarkDirty(r.ID())
	}
	g.sched.MarkDirty(dependents...)

	cascaded := len(removed) - 1
	g.logger.Debug("removed item", "kind", it.Kind(), "id", it.ID(), "cascade", cascaded)
	observability.Item().OnItemRemoved(g.ctx, string(it.Kind()), it.ID(), cascaded)
	return nil
}

// Update merges patch into an item's configuration: set top-level fields
// replace the current value and Style is merged field by field. The id never
// changes, and neither does a node's group. For edges, a patch Source or
// Target reconnects the endpoint as SetSource and SetTarget do.
func (g *Graph) Update(ref model.Ref, patch model.Config) error {
	it, err := g.lookup(ref)
	if err != nil {
		return err
	}
	id := it.ID()
	if patch.ID != "" && patch.ID != id {
		return errors.New(errors.ErrCodeInvalidConfig, "cannot change id of %q to %q", id, patch.ID)
	}

	if patch.Group != "" && patch.Group != it.Config().Group {
		return errors.New(errors.ErrCodeInvalidConfig, "cannot move %q to group %q; group membership is fixed when the node is added", id, patch.Group)
	}

	merged := merge(it.Config(), patch)
	if err := merged.Validate(it.Kind()); err != nil {
		return err
	}
	if err := g.reg.SetConfig(id, merged); err != nil {
		return err
	}
	if _, ok := it.(*model.Edge); ok {
		if patch.Source != nil {
			if err := g.reg.Reconnect(id, model.Source, patch.Source); err != nil {
				return err
			}
		}
		if patch.Target != nil {
			if err := g.reg.Reconnect(id, model.Target, patch.Target); err != nil {
				return err
			}
		}
	}

	g.markDependents(it)
	g.logger.Debug("updated item", "kind", it.Kind(), "id", id)
	observability.Item().OnItemUpdated(g.ctx, string(it.Kind()), id)
	return nil
}

// ShowItem sets an item's own visible flag. Edges of a shown node become
// visible again if their own flag is set.
func (g *Graph) ShowItem(ref model.Ref) error { return g.setVisible(ref, true) }

// HideItem clears an item's own visible flag. A hidden node hides its edges
// and a hidden group hides its members in the drawn output; their own flags
// are left untouched.
func (g *Graph) HideItem(ref model.Ref) error { return g.setVisible(ref, false) }

func (g *Graph) setVisible(ref model.Ref, visible bool) error {
	it, err := g.lookup(ref)
	if err != nil {
		return err
	}
	if err := g.reg.SetVisible(it.ID(), visible); err != nil {
		return err
	}
	g.markDependents(it)
	g.logger.Debug("changed visibility", "kind", it.Kind(), "id", it.ID(), "visible", visible)
	observability.Item().OnItemUpdated(g.ctx, string(it.Kind()), it.ID())
	return nil
}

// SetSource points an edge's source at node and re-resolves it.
func (g *Graph) SetSource(edge, node model.Ref) error { return g.reconnect(edge, model.Source, node) }

// SetTarget points an edge's target at node and re-resolves it.
func (g *Graph) SetTarget(edge, node model.Ref) error { return g.reconnect(edge, model.Target, node) }

func (g *Graph) reconnect(edge model.Ref, end model.End, node model.Ref) error {
	it, err := g.lookup(edge)
	if err != nil {
		return err
	}
	if model.IDOf(node) == "" {
		return errors.New(errors.ErrCodeInvalidInput, "edge %s requires a node", end)
	}
	if err := g.reg.Reconnect(it.ID(), end, node); err != nil {
		return err
	}
	e := it.(*model.Edge)
	g.sched.MarkDirty(e.ID())
	g.logger.Debug("reconnected edge", "id", e.ID(), "end", end, "node", node.ID(), "resolved", e.Resolved())
	observability.Item().OnItemUpdated(g.ctx, string(model.KindEdge), e.ID())
	return nil
}

// Clear removes every item, destroys their shapes, drops any pending pass
// and restarts id generation.
func (g *Graph) Clear() {
	ids := g.reg.IDs()
	for _, id := range ids {
		if box, err := g.sync.BBox(id); err == nil {
			g.damage = g.damage.Union(box)
		}
	}
	g.sched.Reset()
	if _, err := g.sync.Reset(); err != nil {
		g.logger.Error("destroy shapes", "err", err)
	}
	g.reg.Reset()
	g.logger.Debug("cleared", "items", len(ids))
}

// markDependents marks it and everything whose geometry or visibility
// derives from it.
func (g *Graph) markDependents(it model.Item) {
	switch v := it.(type) {
	case *model.Node:
		g.sched.MarkDirty(g.nodeDependents(v.ID())...)
	case *model.Group:
		g.sched.MarkDirty(v.ID())
		for _, id := range g.reg.Members(v.ID()) {
			g.sched.MarkDirty(g.nodeDependents(id)...)
		}
	default:
		g.sched.MarkDirty(it.ID())
	}
}

// nodeDependents returns a node, its resolved edges and its group.
func (g *Graph) nodeDependents(id string) []string {
	out := append([]string{id}, g.reg.Adjacency(id)...)
	if n, ok := g.reg.Node(id); ok && n.Group() != "" {
		out = append(out, n.Group())
	}
	return out
}
