package model

import (
	"fmt"
	"slices"

	"github.com/matzehuels/linkgraph/pkg/errors"
)

// Registry is the authoritative store of a diagram's items.
//
// It owns every item, keeps per-kind insertion order, and maintains two
// indices transactionally with the item map:
//
//   - adjacency: node id -> ids of resolved edges touching the node
//   - members:   group id -> ids of nodes in the group
//
// Every exported method either applies fully or returns an error without
// changing anything. The zero value is not usable; use NewRegistry.
// Registry is not safe for concurrent use.
type Registry struct {
	items     map[string]Item
	order     map[Kind][]string
	adjacency map[string][]string
	members   map[string][]string
	seq       int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Reset()
	return r
}

// Reset drops every item and restarts the id generator.
func (r *Registry) Reset() {
	r.items = make(map[string]Item)
	r.order = make(map[Kind][]string)
	r.adjacency = make(map[string][]string)
	r.members = make(map[string][]string)
	r.seq = 0
}

// Add creates an item of kind k from cfg and stores it.
//
// An empty cfg.ID is replaced by a generated id ("node-1", "edge-2", ...).
// A live id is rejected with DUPLICATE_ID. Edge endpoints are resolved by
// id; an endpoint that is not a live node (or is a node from another
// registry) leaves the edge unresolved, which is not an error. A node naming
// a group that is not live is stored without membership.
//
// cfg is expected to be validated already (see [Config.Validate]); Add only
// re-checks what the registry itself depends on.
func (r *Registry) Add(k Kind, cfg Config) (Item, error) {
	if !k.Valid() {
		return nil, errors.New(errors.ErrCodeUnknownKind, "unknown item kind %q", k)
	}
	if k == KindEdge && (IDOf(cfg.Source) == "" || IDOf(cfg.Target) == "") {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "edge requires a source and a target")
	}

	id := cfg.ID
	if id == "" {
		id = r.nextID(k)
	} else {
		if err := errors.ValidateItemID(id); err != nil {
			return nil, err
		}
		if _, exists := r.items[id]; exists {
			return nil, errors.New(errors.ErrCodeDuplicateID, "item %q already exists", id)
		}
	}

	it := newItem(k, id, cfg.clone())
	switch v := it.(type) {
	case *Node:
		v.group = r.groupFor(v.cfg.Group)
		if v.group != "" {
			r.members[v.group] = append(r.members[v.group], id)
		}
	case *Edge:
		v.resolved = r.resolve(cfg.Source) && r.resolve(cfg.Target)
		if v.resolved {
			r.link(v)
		}
	}

	r.items[id] = it
	r.order[k] = append(r.order[k], id)
	return it, nil
}

// Remove deletes the item with the given id and returns every item removed,
// in removal order.
//
// Removing a node first removes each incident edge (collected from the
// adjacency index), then the node. Removing a group detaches its members and
// leaves them in place. An unknown id returns NOT_FOUND and changes nothing.
func (r *Registry) Remove(id string) ([]Item, error) {
	it, ok := r.items[id]
	if !ok {
		return nil, errors.NotFound(id)
	}

	var removed []Item
	switch v := it.(type) {
	case *Node:
		for _, eid := range slices.Clone(r.adjacency[id]) {
			if e, ok := r.items[eid]; ok {
				r.drop(e)
				removed = append(removed, e)
			}
		}
		if v.group != "" {
			r.members[v.group] = slices.DeleteFunc(r.members[v.group], func(s string) bool { return s == id })
		}
		delete(r.adjacency, id)
	case *Group:
		for _, nid := range r.members[id] {
			if n, ok := r.items[nid].(*Node); ok {
				n.group = ""
				n.cfg.Group = ""
			}
		}
		delete(r.members, id)
	}
	r.drop(it)
	return append(removed, it), nil
}

// drop unlinks and deletes a single item. Edges already gone are ignored.
func (r *Registry) drop(it Item) {
	if e, ok := it.(*Edge); ok && e.resolved {
		r.unlink(e)
	}
	k := it.Kind()
	delete(r.items, it.ID())
	r.order[k] = slices.DeleteFunc(r.order[k], func(s string) bool { return s == it.ID() })
}

// Find returns the item with the given id.
func (r *Registry) Find(id string) (Item, bool) {
	it, ok := r.items[id]
	return it, ok
}

// Node returns the node with the given id.
func (r *Registry) Node(id string) (*Node, bool) {
	n, ok := r.items[id].(*Node)
	return n, ok
}

// Edge returns the edge with the given id.
func (r *Registry) Edge(id string) (*Edge, bool) {
	e, ok := r.items[id].(*Edge)
	return e, ok
}

// Group returns the group with the given id.
func (r *Registry) Group(id string) (*Group, bool) {
	g, ok := r.items[id].(*Group)
	return g, ok
}

// All returns the items of kind k in insertion order, removed items excluded.
func (r *Registry) All(k Kind) []Item {
	ids := r.order[k]
	out := make([]Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.items[id])
	}
	return out
}

// Nodes returns all nodes in insertion order.
func (r *Registry) Nodes() []*Node { return typed[*Node](r, KindNode) }

// Edges returns all edges in insertion order.
func (r *Registry) Edges() []*Edge { return typed[*Edge](r, KindEdge) }

// Groups returns all groups in insertion order.
func (r *Registry) Groups() []*Group { return typed[*Group](r, KindGroup) }

func typed[T Item](r *Registry, k Kind) []T {
	ids := r.order[k]
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.items[id].(T))
	}
	return out
}

// Len returns the number of live items of kind k.
func (r *Registry) Len(k Kind) int { return len(r.order[k]) }

// Count returns the number of live items of all kinds.
func (r *Registry) Count() int { return len(r.items) }

// IDs returns the ids of all live items: groups, then nodes, then edges,
// each in insertion order.
func (r *Registry) IDs() []string {
	out := make([]string, 0, len(r.items))
	for _, k := range []Kind{KindGroup, KindNode, KindEdge} {
		out = append(out, r.order[k]...)
	}
	return out
}

// Adjacency returns the ids of the resolved edges incident to the node, in
// the order they were linked. It is empty for unknown nodes.
func (r *Registry) Adjacency(nodeID string) []string {
	return slices.Clone(r.adjacency[nodeID])
}

// Members returns the ids of the nodes in the group.
func (r *Registry) Members(groupID string) []string {
	return slices.Clone(r.members[groupID])
}

// SetConfig replaces the configuration of a live item. The id never changes;
// a cfg.ID naming another item is rejected. Edge endpoints are not touched
// here (see [Registry.Reconnect]), and neither is a node's group: membership
// is fixed by Add, so cfg.Group is ignored.
func (r *Registry) SetConfig(id string, cfg Config) error {
	it, ok := r.items[id]
	if !ok {
		return errors.NotFound(id)
	}
	if cfg.ID != "" && cfg.ID != id {
		return errors.New(errors.ErrCodeInvalidConfig, "cannot change id of %q to %q", id, cfg.ID)
	}
	cfg = cfg.clone()
	cfg.ID = id

	b := baseOf(it)
	switch v := it.(type) {
	case *Edge:
		cfg.Source, cfg.Target = ID(v.source), ID(v.target)
	case *Node:
		cfg.Group = v.cfg.Group
	}
	if cfg.Visible != nil {
		b.visible = *cfg.Visible
	}
	b.cfg = cfg
	return nil
}

// SetVisible sets an item's own visible flag.
func (r *Registry) SetVisible(id string, visible bool) error {
	it, ok := r.items[id]
	if !ok {
		return errors.NotFound(id)
	}
	b := baseOf(it)
	b.visible = visible
	b.cfg.Visible = Bool(visible)
	return nil
}

// Reconnect points one end of an edge at ref and re-resolves the edge.
// The edge leaves the adjacency sets of its old endpoints and joins those of
// the new ones if both now resolve; otherwise it becomes unresolved.
func (r *Registry) Reconnect(edgeID string, end End, ref Ref) error {
	e, ok := r.items[edgeID].(*Edge)
	if !ok {
		if _, exists := r.items[edgeID]; exists {
			return errors.New(errors.ErrCodeInvalidInput, "item %q is not an edge", edgeID)
		}
		return errors.NotFound(edgeID)
	}
	if IDOf(ref) == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "edge %s requires a node", end)
	}

	if e.resolved {
		r.unlink(e)
	}
	other := ID(e.target)
	if end == Source {
		e.source = ref.ID()
	} else {
		e.target = ref.ID()
		other = ID(e.source)
	}
	e.cfg.Source, e.cfg.Target = ID(e.source), ID(e.target)
	e.resolved = r.resolve(ref) && r.resolve(other)
	if e.resolved {
		r.link(e)
	}
	return nil
}

// Resolve reports whether ref names a live node of this registry.
func (r *Registry) Resolve(ref Ref) bool { return r.resolve(ref) }

func (r *Registry) resolve(ref Ref) bool {
	if IDOf(ref) == "" {
		return false
	}
	n, ok := r.items[ref.ID()].(*Node)
	if !ok {
		return false
	}
	// A live item passed by reference must be this registry's own.
	if it, isItem := ref.(Item); isItem && it != Item(n) {
		return false
	}
	return true
}

func (r *Registry) groupFor(id string) string {
	if id == "" {
		return ""
	}
	if _, ok := r.items[id].(*Group); ok {
		return id
	}
	return ""
}

func (r *Registry) link(e *Edge) {
	r.adjacency[e.source] = append(r.adjacency[e.source], e.id)
	if !e.Loop() {
		r.adjacency[e.target] = append(r.adjacency[e.target], e.id)
	}
}

func (r *Registry) unlink(e *Edge) {
	for _, n := range []string{e.source, e.target} {
		if adj, ok := r.adjacency[n]; ok {
			r.adjacency[n] = slices.DeleteFunc(adj, func(s string) bool { return s == e.id })
		}
	}
}

func (r *Registry) nextID(k Kind) string {
	for {
		r.seq++
		id := fmt.Sprintf("%s-%d", k, r.seq)
		if _, exists := r.items[id]; !exists {
			return id
		}
	}
}

// NodeVisible reports whether a node is drawn: its own flag is set and, if it
// belongs to a group, the group's flag is set too.
func (r *Registry) NodeVisible(id string) bool {
	n, ok := r.Node(id)
	if !ok || !n.visible {
		return false
	}
	if n.group != "" {
		if g, ok := r.Group(n.group); ok && !g.visible {
			return false
		}
	}
	return true
}

// EffectiveVisible reports whether the item with the given id is drawn.
// An edge is drawn only when its own flag is set, it is resolved and both
// endpoints are drawn; the edge's own flag is left untouched by endpoint
// changes.
func (r *Registry) EffectiveVisible(id string) bool {
	switch v := r.items[id].(type) {
	case *Node:
		return r.NodeVisible(id)
	case *Edge:
		return v.visible && v.resolved && r.NodeVisible(v.source) && r.NodeVisible(v.target)
	case *Group:
		return v.visible
	}
	return false
}

// Check audits the registry invariants and returns INVARIANT_VIOLATION on
// the first inconsistency found. It never modifies the registry.
func (r *Registry) Check() error {
	total := 0
	for k, ids := range r.order {
		total += len(ids)
		for _, id := range ids {
			it, ok := r.items[id]
			if !ok || it.Kind() != k {
				return errors.New(errors.ErrCodeInvariant, "order index lists %s %q which is not live", k, id)
			}
		}
	}
	if total != len(r.items) {
		return errors.New(errors.ErrCodeInvariant, "order index holds %d ids for %d items", total, len(r.items))
	}

	for _, e := range r.Edges() {
		for _, end := range []string{e.source, e.target} {
			listed := slices.Contains(r.adjacency[end], e.id)
			if e.resolved {
				if _, ok := r.Node(end); !ok {
					return errors.New(errors.ErrCodeInvariant, "resolved edge %q points at missing node %q", e.id, end)
				}
				if !listed {
					return errors.New(errors.ErrCodeInvariant, "edge %q missing from adjacency of %q", e.id, end)
				}
			} else if listed {
				return errors.New(errors.ErrCodeInvariant, "unresolved edge %q listed in adjacency of %q", e.id, end)
			}
		}
	}

	for nid, edges := range r.adjacency {
		if _, ok := r.Node(nid); !ok && len(edges) > 0 {
			return errors.New(errors.ErrCodeInvariant, "adjacency kept for missing node %q", nid)
		}
		for _, eid := range edges {
			e, ok := r.Edge(eid)
			if !ok || !e.resolved || (e.source != nid && e.target != nid) {
				return errors.New(errors.ErrCodeInvariant, "adjacency of %q lists stale edge %q", nid, eid)
			}
		}
	}

	for gid, nodes := range r.members {
		if _, ok := r.Group(gid); !ok {
			return errors.New(errors.ErrCodeInvariant, "membership kept for missing group %q", gid)
		}
		for _, nid := range nodes {
			n, ok := r.Node(nid)
			if !ok || n.group != gid {
				return errors.New(errors.ErrCodeInvariant, "group %q lists stale member %q", gid, nid)
			}
		}
	}
	return nil
}
