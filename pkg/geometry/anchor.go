package geometry

import (
	"math"

	"github.com/matzehuels/linkgraph/pkg/model"
	"github.com/matzehuels/linkgraph/pkg/shape"
)

// Outline is the boundary of a node shape centred at C, already inflated by
// half the stroke width.
type Outline struct {
	Shape string // model.ShapeCircle, ShapeRect or ShapeEllipse
	C     shape.Point
	HW    float64 // half width
	HH    float64 // half height
}

// OutlineOf returns the stroke-inflated outline of n.
func OutlineOf(n *model.Node) Outline {
	x, y := n.Position()
	w, h := n.Dims()
	half := n.LineWidth() / 2
	kind := n.Shape()
	if kind == "" {
		kind = model.ShapeCircle
	}
	return Outline{Shape: kind, C: shape.Point{X: x, Y: y}, HW: w/2 + half, HH: h/2 + half}
}

// Toward returns the point where the ray from the centre toward p leaves the
// outline. When p coincides with the centre the centre itself is returned.
func (o Outline) Toward(p shape.Point) shape.Point {
	dx, dy := p.X-o.C.X, p.Y-o.C.Y
	d := math.Hypot(dx, dy)
	if d == 0 {
		return o.C
	}
	return o.along(dx/d, dy/d)
}

// along returns the boundary point in unit direction (ux, uy).
func (o Outline) along(ux, uy float64) shape.Point {
	var t float64
	switch o.Shape {
	case model.ShapeRect:
		t = math.Inf(1)
		if ux != 0 {
			t = o.HW / math.Abs(ux)
		}
		if uy != 0 {
			t = math.Min(t, o.HH/math.Abs(uy))
		}
	case model.ShapeEllipse:
		if o.HW == 0 || o.HH == 0 {
			t = 0
			break
		}
		t = 1 / math.Hypot(ux/o.HW, uy/o.HH)
	default:
		t = o.HW
	}
	return shape.Point{X: o.C.X + t*ux, Y: o.C.Y + t*uy}
}

// Extent returns the larger of the outline's half sizes.
func (o Outline) Extent() float64 { return math.Max(o.HW, o.HH) }

// LinePath returns a straight path between the outlines of two nodes.
func LinePath(src, dst Outline) shape.Segments {
	a := src.Toward(dst.C)
	b := dst.Toward(src.C)
	return shape.Segments{
		{Cmd: "M", Args: []float64{a.X, a.Y}},
		{Cmd: "L", Args: []float64{b.X, b.Y}},
	}
}

// ControlPoint returns the quadratic control point sitting offset units off
// the middle of the centre line, on its left-hand normal.
func ControlPoint(src, dst shape.Point, offset float64) shape.Point {
	mid := shape.Point{X: (src.X + dst.X) / 2, Y: (src.Y + dst.Y) / 2}
	dx, dy := dst.X-src.X, dst.Y-src.Y
	d := math.Hypot(dx, dy)
	if d == 0 || offset == 0 {
		return mid
	}
	return shape.Point{X: mid.X - dy/d*offset, Y: mid.Y + dx/d*offset}
}

// QuadraticPath returns a curved path whose anchors point at the control point
// rather than at the opposite centre.
func QuadraticPath(src, dst Outline, offset float64) shape.Segments {
	c := ControlPoint(src.C, dst.C, offset)
	a := src.Toward(c)
	b := dst.Toward(c)
	return shape.Segments{
		{Cmd: "M", Args: []float64{a.X, a.Y}},
		{Cmd: "Q", Args: []float64{c.X, c.Y, b.X, b.Y}},
	}
}

// minLoop is the smallest loop reach for tiny nodes.
const minLoop = 20

// LoopPath returns a cubic loop leaving the top of the outline at 30 degrees
// either side of vertical and returning to it.
func LoopPath(o Outline) shape.Segments {
	const spread = math.Pi / 6
	up := -math.Pi / 2
	s := o.along(math.Cos(up-spread), math.Sin(up-spread))
	e := o.along(math.Cos(up+spread), math.Sin(up+spread))

	reach := math.Max(2*o.Extent(), minLoop)
	c1 := shape.Point{X: s.X + reach*math.Cos(up-spread), Y: s.Y + reach*math.Sin(up-spread)}
	c2 := shape.Point{X: e.X + reach*math.Cos(up+spread), Y: e.Y + reach*math.Sin(up+spread)}
	return shape.Segments{
		{Cmd: "M", Args: []float64{s.X, s.Y}},
		{Cmd: "C", Args: []float64{c1.X, c1.Y, c2.X, c2.Y, e.X, e.Y}},
	}
}
