package shape

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrUnknownHandle is returned when a handle was never issued by the
// renderer or has already been destroyed.
var ErrUnknownHandle = errors.New("unknown shape handle")

// ErrUnknownKind is returned by CreateShape for unsupported shape kinds.
var ErrUnknownKind = errors.New("unknown shape kind")

// Kind selects the primitive a shape is drawn with.
type Kind string

const (
	Circle    Kind = "circle"
	Rectangle Kind = "rect"
	Ellipse   Kind = "ellipse"
	Path      Kind = "path"
	// Box is a container rectangle drawn beneath everything else (groups).
	Box Kind = "box"
)

// Handle identifies a shape owned by a renderer. The zero Handle is never
// issued.
type Handle uint64

// Renderer is the drawing capability the geometry synchronizer consumes.
// Implementations own the shapes; callers only hold handles.
type Renderer interface {
	CreateShape(kind Kind, attrs Attrs) (Handle, error)
	UpdateShape(h Handle, attrs Attrs) error
	DestroyShape(h Handle) error
	Matrix(h Handle) (Matrix, error)
	Path(h Handle) (Segments, error)
	Attrs(h Handle) (Attrs, error)
	BBox(h Handle) (Rect, error)
}

// Attrs are the draw attributes of one shape. Circle, Rectangle, Ellipse and Box
// shapes are centred on the origin of their local space and placed by
// Matrix; Path shapes carry absolute coordinates.
type Attrs struct {
	ID        string // element id in rendered output
	Matrix    Matrix
	Fill      string
	Stroke    string
	LineWidth float64
	Opacity   float64
	LineDash  []float64
	EndArrow  bool

	R             float64 // Circle
	Width, Height float64 // Rectangle, Ellipse, Box
	Radius        float64 // Rectangle and Box corner radius

	Path  Segments
	Label string

	Visible bool
}

// Point is a 2D coordinate.
type Point struct{ X, Y float64 }

// Rect is an axis-aligned box given by its top-left corner and size.
type Rect struct{ X, Y, W, H float64 }

// Empty reports whether r has no area and no position, i.e. is the zero Rect.
func (r Rect) Empty() bool { return r == Rect{} }

// Union returns the smallest Rect containing r and o. The zero Rect is
// treated as empty.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	x0, y0 := math.Min(r.X, o.X), math.Min(r.Y, o.Y)
	x1, y1 := math.Max(r.X+r.W, o.X+o.W), math.Max(r.Y+r.H, o.Y+o.H)
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Inset grows (d > 0) or shrinks (d < 0) r on every side.
func (r Rect) Inset(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, W: r.W + 2*d, H: r.H + 2*d}
}

// Matrix is a 3x3 affine transform stored column-major:
//
//	| m[0] m[3] m[6] |
//	| m[1] m[4] m[7] |
//	| m[2] m[5] m[8] |
//
// so the translation sits at indices 6 and 7.
type Matrix [9]float64

// Identity returns the identity transform.
func Identity() Matrix { return Matrix{1, 0, 0, 0, 1, 0, 0, 0, 1} }

// Translate returns a pure translation by (x, y).
func Translate(x, y float64) Matrix { return Matrix{1, 0, 0, 0, 1, 0, x, y, 1} }

// Translation returns the translation part of m.
func (m Matrix) Translation() (x, y float64) { return m[6], m[7] }

// Apply transforms p by m.
func (m Matrix) Apply(p Point) Point {
	return Point{
		X: m[0]*p.X + m[3]*p.Y + m[6],
		Y: m[1]*p.X + m[4]*p.Y + m[7],
	}
}

// IsZero reports whether m is the zero value (not a valid transform).
func (m Matrix) IsZero() bool { return m == Matrix{} }

// SVG returns m as an SVG transform attribute value.
func (m Matrix) SVG() string {
	return fmt.Sprintf("matrix(%s %s %s %s %s %s)", num(m[0]), num(m[1]), num(m[3]), num(m[4]), num(m[6]), num(m[7]))
}

// Segment is one path command with its arguments, e.g. {"M", [x y]} or
// {"Q", [cx cy x y]}.
type Segment struct {
	Cmd  string
	Args []float64
}

// Segments is an ordered path.
type Segments []Segment

// Points returns every coordinate pair mentioned by the path, control
// points included.
func (p Segments) Points() []Point {
	var pts []Point
	for _, s := range p {
		for i := 0; i+1 < len(s.Args); i += 2 {
			pts = append(pts, Point{X: s.Args[i], Y: s.Args[i+1]})
		}
	}
	return pts
}

// Start returns the first point of the path.
func (p Segments) Start() (Point, bool) {
	pts := p.Points()
	if len(pts) == 0 {
		return Point{}, false
	}
	return pts[0], true
}

// End returns the last point of the path.
func (p Segments) End() (Point, bool) {
	pts := p.Points()
	if len(pts) == 0 {
		return Point{}, false
	}
	return pts[len(pts)-1], true
}

// String renders the path as SVG path data.
func (p Segments) String() string {
	var b strings.Builder
	for i, s := range p {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s.Cmd)
		for j, a := range s.Args {
			if j > 0 {
				if j%2 == 1 {
					b.WriteByte(',')
				} else {
					b.WriteByte(' ')
				}
			}
			b.WriteString(num(a))
		}
	}
	return b.String()
}

// num formats v compactly, without trailing zeros.
func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}
