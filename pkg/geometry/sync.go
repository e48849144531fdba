package geometry

import (
	stderrors "errors"
	"math"

	"github.com/matzehuels/linkgraph/pkg/errors"
	"github.com/matzehuels/linkgraph/pkg/model"
	"github.com/matzehuels/linkgraph/pkg/shape"
)

// Result counts the renderer calls one pass made.
type Result struct {
	Created   int
	Updated   int
	Destroyed int
	Skipped   int // unresolved edges with nothing to draw
}

// Total returns the number of items the pass touched.
func (r Result) Total() int { return r.Created + r.Updated + r.Destroyed + r.Skipped }

type visual struct {
	handle shape.Handle
	kind   shape.Kind
}

// Synchronizer keeps one shape per drawable item in step with a registry.
// It is the only caller of the renderer. It is not safe for concurrent use.
type Synchronizer struct {
	reg      *model.Registry
	renderer shape.Renderer
	visuals  map[string]visual
}

// New creates a synchronizer drawing reg's items with renderer.
func New(reg *model.Registry, renderer shape.Renderer) *Synchronizer {
	return &Synchronizer{reg: reg, renderer: renderer, visuals: make(map[string]visual)}
}

// Sync recomputes the given ids. Ids that no longer name a live item, and
// unresolved edges, lose their shape. Every id is attempted; failures are
// joined into the returned error.
func (s *Synchronizer) Sync(ids []string) (Result, error) {
	var res Result
	var errs []error
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if err := s.syncOne(id, &res); err != nil {
			errs = append(errs, err)
		}
	}
	return res, errors.Join(errs...)
}

func (s *Synchronizer) syncOne(id string, res *Result) error {
	it, ok := s.reg.Find(id)
	if !ok {
		return s.destroy(id, res)
	}

	var kind shape.Kind
	var attrs shape.Attrs
	switch v := it.(type) {
	case *model.Node:
		kind, attrs = s.nodeAttrs(v)
	case *model.Edge:
		if !v.Resolved() {
			if _, had := s.visuals[id]; had {
				return s.destroy(id, res)
			}
			res.Skipped++
			return nil
		}
		kind, attrs = s.edgeAttrs(v)
	case *model.Group:
		kind, attrs = s.groupAttrs(v)
	}

	cur, had := s.visuals[id]
	if had && cur.kind != kind {
		if err := s.destroy(id, res); err != nil {
			return err
		}
		had = false
	}
	if had {
		if err := s.renderer.UpdateShape(cur.handle, attrs); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "update shape of %q", id)
		}
		res.Updated++
		return nil
	}
	h, err := s.renderer.CreateShape(kind, attrs)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create shape for %q", id)
	}
	s.visuals[id] = visual{handle: h, kind: kind}
	res.Created++
	return nil
}

func (s *Synchronizer) destroy(id string, res *Result) error {
	v, ok := s.visuals[id]
	if !ok {
		return nil
	}
	delete(s.visuals, id)
	if err := s.renderer.DestroyShape(v.handle); err != nil && !stderrors.Is(err, shape.ErrUnknownHandle) {
		return errors.Wrap(errors.ErrCodeInternal, err, "destroy shape of %q", id)
	}
	res.Destroyed++
	return nil
}

// Reset destroys every shape the synchronizer owns.
func (s *Synchronizer) Reset() (Result, error) {
	var res Result
	var errs []error
	for id := range s.visuals {
		if err := s.destroy(id, &res); err != nil {
			errs = append(errs, err)
		}
	}
	return res, errors.Join(errs...)
}

// Handle returns the shape handle of an item, if it has been drawn.
func (s *Synchronizer) Handle(id string) (shape.Handle, bool) {
	v, ok := s.visuals[id]
	return v.handle, ok
}

// Len returns the number of shapes owned.
func (s *Synchronizer) Len() int { return len(s.visuals) }

// Matrix reads back an item's transform from the renderer.
func (s *Synchronizer) Matrix(id string) (shape.Matrix, error) {
	v, ok := s.visuals[id]
	if !ok {
		return shape.Matrix{}, notDrawn(id)
	}
	return s.renderer.Matrix(v.handle)
}

// Path reads back an item's path from the renderer.
func (s *Synchronizer) Path(id string) (shape.Segments, error) {
	v, ok := s.visuals[id]
	if !ok {
		return nil, notDrawn(id)
	}
	return s.renderer.Path(v.handle)
}

// Attrs reads back an item's draw attributes from the renderer.
func (s *Synchronizer) Attrs(id string) (shape.Attrs, error) {
	v, ok := s.visuals[id]
	if !ok {
		return shape.Attrs{}, notDrawn(id)
	}
	return s.renderer.Attrs(v.handle)
}

// BBox reads back an item's bounds from the renderer.
func (s *Synchronizer) BBox(id string) (shape.Rect, error) {
	v, ok := s.visuals[id]
	if !ok {
		return shape.Rect{}, notDrawn(id)
	}
	return s.renderer.BBox(v.handle)
}

func notDrawn(id string) error {
	return errors.New(errors.ErrCodeNotFound, "item %q has no shape", id)
}

// =============================================================================
// Attributes
// =============================================================================

func paint(cfg model.Config, stroke string) shape.Attrs {
	st := cfg.Style
	a := shape.Attrs{
		ID:       cfg.ID,
		Fill:     st.Fill,
		Stroke:   stroke,
		Opacity:  1,
		LineDash: st.LineDash,
		Label:    cfg.Label,
	}
	if st.LineWidth != nil {
		a.LineWidth = *st.LineWidth
	}
	if st.Opacity != nil {
		a.Opacity = *st.Opacity
	}
	if st.Radius != nil {
		a.Radius = *st.Radius
	}
	return a
}

func (s *Synchronizer) nodeAttrs(n *model.Node) (shape.Kind, shape.Attrs) {
	a := paint(n.Config(), n.Stroke())
	x, y := n.Position()
	w, h := n.Dims()
	a.Matrix = shape.Translate(x, y)
	a.Visible = s.reg.EffectiveVisible(n.ID())

	switch n.Shape() {
	case model.ShapeRect:
		a.Width, a.Height = w, h
		return shape.Rectangle, a
	case model.ShapeEllipse:
		a.Width, a.Height = w, h
		return shape.Ellipse, a
	}
	a.R = w / 2
	return shape.Circle, a
}

func (s *Synchronizer) edgeAttrs(e *model.Edge) (shape.Kind, shape.Attrs) {
	cfg := e.Config()
	a := paint(cfg, e.Stroke())
	a.Fill = ""
	a.Radius = 0
	a.Matrix = shape.Identity()
	a.EndArrow = cfg.Style.EndArrow != nil && *cfg.Style.EndArrow
	a.Visible = s.reg.EffectiveVisible(e.ID())

	src, _ := s.reg.Node(e.Source())
	dst, _ := s.reg.Node(e.Target())
	so, do := OutlineOf(src), OutlineOf(dst)
	switch {
	case e.Loop():
		a.Path = LoopPath(so)
	case e.Shape() == model.ShapeQuadratic:
		a.Path = QuadraticPath(so, do, e.CurveOffset())
	default:
		a.Path = LinePath(so, do)
	}
	return shape.Path, a
}

func (s *Synchronizer) groupAttrs(g *model.Group) (shape.Kind, shape.Attrs) {
	a := paint(g.Config(), g.Stroke())
	box, ok := s.memberBounds(g.ID())
	if !ok {
		a.Matrix = shape.Identity()
		return shape.Box, a
	}
	box = box.Inset(g.Padding())
	a.Matrix = shape.Translate(box.X+box.W/2, box.Y+box.H/2)
	a.Width, a.Height = box.W, box.H
	a.Visible = s.reg.EffectiveVisible(g.ID())
	return shape.Box, a
}

// memberBounds is the union of the stroke-inclusive boxes of a group's
// visible members.
func (s *Synchronizer) memberBounds(groupID string) (shape.Rect, bool) {
	x0, y0 := math.Inf(1), math.Inf(1)
	x1, y1 := math.Inf(-1), math.Inf(-1)
	found := false
	for _, id := range s.reg.Members(groupID) {
		n, ok := s.reg.Node(id)
		if !ok || !n.Visible() {
			continue
		}
		o := OutlineOf(n)
		x0, y0 = math.Min(x0, o.C.X-o.HW), math.Min(y0, o.C.Y-o.HH)
		x1, y1 = math.Max(x1, o.C.X+o.HW), math.Max(y1, o.C.Y+o.HH)
		found = true
	}
	if !found {
		return shape.Rect{}, false
	}
	return shape.Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}, true
}
