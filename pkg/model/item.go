package model

import (
	"math"
	"slices"

	"github.com/matzehuels/linkgraph/pkg/errors"
)

// Kind distinguishes the item variants.
type Kind string

const (
	KindNode  Kind = "node"
	KindEdge  Kind = "edge"
	KindGroup Kind = "group"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindNode || k == KindEdge || k == KindGroup
}

// ParseKind converts a kind name ("node", "edge", "group") into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", errors.New(errors.ErrCodeUnknownKind, "unknown item kind %q", s)
	}
	return k, nil
}

// Ref identifies an item. Both bare ids ([ID]) and live items satisfy it, so
// every operation that takes a Ref accepts either.
type Ref interface {
	ID() string
}

// ID is a bare item identifier.
type ID string

// ID returns the identifier itself.
func (id ID) ID() string { return string(id) }

// IDOf returns the id ref names, or "" for a nil Ref or a nil item pointer.
func IDOf(ref Ref) string {
	switch v := ref.(type) {
	case nil:
		return ""
	case *Node:
		if v == nil {
			return ""
		}
	case *Edge:
		if v == nil {
			return ""
		}
	case *Group:
		if v == nil {
			return ""
		}
	}
	return ref.ID()
}

// Item is an entity owned by a [Registry]: a *Node, *Edge or *Group.
//
// Items are read-only outside the registry. All changes go through the
// registry (and, for callers, through the diagram controller), which keeps
// the adjacency and membership indices in step.
type Item interface {
	Ref
	Kind() Kind
	// Config returns a copy of the merged configuration.
	Config() Config
	// Visible reports the item's own visible flag. Effective visibility,
	// which also depends on endpoints and groups, is a registry question.
	Visible() bool
}

type base struct {
	id      string
	cfg     Config
	visible bool
}

func (b *base) ID() string     { return b.id }
func (b *base) Visible() bool  { return b.visible }
func (b *base) Label() string  { return b.cfg.Label }
func (b *base) Config() Config {
	c := b.cfg.clone()
	c.Visible = Bool(b.visible)
	return c
}

// Shape returns the configured shape kind.
func (b *base) Shape() string { return b.cfg.Shape }

// Stroke returns the stroke color: Style.Stroke, falling back to Color.
func (b *base) Stroke() string {
	if b.cfg.Style.Stroke != "" {
		return b.cfg.Style.Stroke
	}
	return b.cfg.Color
}

// LineWidth returns the configured stroke width, 0 when unset.
func (b *base) LineWidth() float64 { return deref(b.cfg.Style.LineWidth) }

// Node is a positioned vertex.
type Node struct {
	base
	group string // resolved group id, "" when not in a live group
}

func (*Node) Kind() Kind { return KindNode }

// Position returns the node centre.
func (n *Node) Position() (x, y float64) { return deref(n.cfg.X), deref(n.cfg.Y) }

// HasPosition reports whether both coordinates were set explicitly.
func (n *Node) HasPosition() bool { return n.cfg.X != nil && n.cfg.Y != nil }

// Group returns the id of the live group the node belongs to, or "".
func (n *Node) Group() string { return n.group }

// Dims returns the node's width and height. Explicit style geometry (R for
// circles, Width/Height otherwise) takes precedence over Size.
func (n *Node) Dims() (w, h float64) {
	w, h = n.cfg.Size.Dims()
	st := n.cfg.Style
	if n.cfg.Shape == ShapeCircle || n.cfg.Shape == "" {
		if st.R != nil {
			return 2 * *st.R, 2 * *st.R
		}
		d := math.Max(w, h)
		return d, d
	}
	if st.Width != nil {
		w = *st.Width
	}
	if st.Height != nil {
		h = *st.Height
	}
	return w, h
}

// End names one endpoint of an edge.
type End int

const (
	Source End = iota
	Target
)

func (e End) String() string {
	if e == Source {
		return "source"
	}
	return "target"
}

// Edge connects two nodes by id. It never holds pointers to its endpoints.
type Edge struct {
	base
	source, target string
	resolved       bool
}

func (*Edge) Kind() Kind { return KindEdge }

// Source returns the source node id, which may not name a live node.
func (e *Edge) Source() string { return e.source }

// Target returns the target node id, which may not name a live node.
func (e *Edge) Target() string { return e.target }

// Endpoint returns the node id at end.
func (e *Edge) Endpoint(end End) string {
	if end == Source {
		return e.source
	}
	return e.target
}

// Resolved reports whether both endpoints named live nodes when they were
// last resolved. Unresolved edges are kept out of adjacency and rendering.
func (e *Edge) Resolved() bool { return e.resolved }

// Loop reports whether the edge starts and ends at the same node.
func (e *Edge) Loop() bool { return e.source == e.target }

// CurveOffset returns the perpendicular bend of a quadratic edge.
func (e *Edge) CurveOffset() float64 { return deref(e.cfg.CurveOffset) }

// Group is a container for nodes.
type Group struct {
	base
}

func (*Group) Kind() Kind { return KindGroup }

// Padding returns the gap kept between the group box and its members.
func (g *Group) Padding() float64 { return deref(g.cfg.Padding) }

func newItem(kind Kind, id string, cfg Config) Item {
	cfg.ID = id
	b := base{id: id, cfg: cfg, visible: cfg.Visible == nil || *cfg.Visible}
	switch kind {
	case KindNode:
		return &Node{base: b}
	case KindEdge:
		e := &Edge{base: b, source: cfg.Source.ID(), target: cfg.Target.ID()}
		// Endpoints are kept as ids only.
		e.cfg.Source, e.cfg.Target = ID(e.source), ID(e.target)
		return e
	default:
		return &Group{base: b}
	}
}

func baseOf(it Item) *base {
	switch v := it.(type) {
	case *Node:
		return &v.base
	case *Edge:
		return &v.base
	case *Group:
		return &v.base
	}
	return nil
}

func (c Config) clone() Config {
	out := c
	out.X, out.Y = cloneFloat(c.X), cloneFloat(c.Y)
	out.CurveOffset, out.Padding = cloneFloat(c.CurveOffset), cloneFloat(c.Padding)
	if c.Visible != nil {
		out.Visible = Bool(*c.Visible)
	}
	out.Size = slices.Clone(c.Size)
	st := &out.Style
	st.LineWidth, st.Opacity = cloneFloat(st.LineWidth), cloneFloat(st.Opacity)
	st.R, st.Width, st.Height, st.Radius = cloneFloat(st.R), cloneFloat(st.Width), cloneFloat(st.Height), cloneFloat(st.Radius)
	st.LineDash = slices.Clone(st.LineDash)
	if st.EndArrow != nil {
		st.EndArrow = Bool(*st.EndArrow)
	}
	return out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return Float(*v)
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
