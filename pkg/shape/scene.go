package shape

import (
	"fmt"
	"math"
	"slices"
)

// Stats counts renderer calls since the scene was created.
type Stats struct {
	Created, Updated, Destroyed int
}

// Scene is a retained-mode, in-memory Renderer. It keeps every live shape in
// creation order and can serialize itself as SVG (see [Scene.WriteSVG]).
//
// Scene is not safe for concurrent use.
type Scene struct {
	shapes map[Handle]*entry
	order  []Handle
	next   Handle
	stats  Stats
}

type entry struct {
	kind  Kind
	attrs Attrs
}

// NewScene creates an empty scene.
func NewScene() *Scene {
	return &Scene{shapes: make(map[Handle]*entry)}
}

// CreateShape adds a shape and returns its handle.
func (s *Scene) CreateShape(kind Kind, attrs Attrs) (Handle, error) {
	switch kind {
	case Circle, Rectangle, Ellipse, Path, Box:
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	s.next++
	h := s.next
	s.shapes[h] = &entry{kind: kind, attrs: normalize(attrs)}
	s.order = append(s.order, h)
	s.stats.Created++
	return h, nil
}

// UpdateShape replaces a shape's attributes.
func (s *Scene) UpdateShape(h Handle, attrs Attrs) error {
	e, ok := s.shapes[h]
	if !ok {
		return ErrUnknownHandle
	}
	e.attrs = normalize(attrs)
	s.stats.Updated++
	return nil
}

// DestroyShape removes a shape. Destroying an unknown handle is an error.
func (s *Scene) DestroyShape(h Handle) error {
	if _, ok := s.shapes[h]; !ok {
		return ErrUnknownHandle
	}
	delete(s.shapes, h)
	s.order = slices.DeleteFunc(s.order, func(x Handle) bool { return x == h })
	s.stats.Destroyed++
	return nil
}

// Matrix returns the shape's transform.
func (s *Scene) Matrix(h Handle) (Matrix, error) {
	e, ok := s.shapes[h]
	if !ok {
		return Matrix{}, ErrUnknownHandle
	}
	return e.attrs.Matrix, nil
}

// Path returns a copy of the shape's path segments (nil for non-path shapes).
func (s *Scene) Path(h Handle) (Segments, error) {
	e, ok := s.shapes[h]
	if !ok {
		return nil, ErrUnknownHandle
	}
	return clonePath(e.attrs.Path), nil
}

// Attrs returns a copy of the shape's attributes.
func (s *Scene) Attrs(h Handle) (Attrs, error) {
	e, ok := s.shapes[h]
	if !ok {
		return Attrs{}, ErrUnknownHandle
	}
	a := e.attrs
	a.Path = clonePath(a.Path)
	a.LineDash = slices.Clone(a.LineDash)
	return a, nil
}

// Kind returns the shape's kind.
func (s *Scene) Kind(h Handle) (Kind, error) {
	e, ok := s.shapes[h]
	if !ok {
		return "", ErrUnknownHandle
	}
	return e.kind, nil
}

// BBox returns the shape's bounds in scene coordinates, stroke included.
func (s *Scene) BBox(h Handle) (Rect, error) {
	e, ok := s.shapes[h]
	if !ok {
		return Rect{}, ErrUnknownHandle
	}
	return bbox(e.kind, e.attrs), nil
}

// Len returns the number of live shapes.
func (s *Scene) Len() int { return len(s.order) }

// Stats returns call counters.
func (s *Scene) Stats() Stats { return s.stats }

// Handles returns the live handles in creation order.
func (s *Scene) Handles() []Handle { return slices.Clone(s.order) }

// Bounds returns the union of the bounding boxes of all visible shapes.
func (s *Scene) Bounds() Rect {
	var r Rect
	for _, h := range s.order {
		e := s.shapes[h]
		if e.attrs.Visible {
			r = r.Union(bbox(e.kind, e.attrs))
		}
	}
	return r
}

func bbox(kind Kind, a Attrs) Rect {
	half := a.LineWidth / 2
	if kind == Path {
		pts := a.Path.Points()
		if len(pts) == 0 {
			return Rect{}
		}
		x0, y0, x1, y1 := pts[0].X, pts[0].Y, pts[0].X, pts[0].Y
		for _, p := range pts[1:] {
			x0, y0 = math.Min(x0, p.X), math.Min(y0, p.Y)
			x1, y1 = math.Max(x1, p.X), math.Max(y1, p.Y)
		}
		return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}.Inset(half)
	}

	w, h := a.Width, a.Height
	if kind == Circle {
		w, h = 2*a.R, 2*a.R
	}
	c := a.Matrix.Apply(Point{})
	return Rect{X: c.X - w/2, Y: c.Y - h/2, W: w, H: h}.Inset(half)
}

func normalize(a Attrs) Attrs {
	if a.Matrix.IsZero() {
		a.Matrix = Identity()
	}
	a.Path = clonePath(a.Path)
	a.LineDash = slices.Clone(a.LineDash)
	return a
}

func clonePath(p Segments) Segments {
	if p == nil {
		return nil
	}
	out := make(Segments, len(p))
	for i, s := range p {
		out[i] = Segment{Cmd: s.Cmd, Args: slices.Clone(s.Args)}
	}
	return out
}

// Ensure Scene implements Renderer.
var _ Renderer = (*Scene)(nil)
