package shape

import (
	"bytes"
	"cmp"
	"fmt"
	"html"
	"io"
	"slices"
	"strings"
)

const arrowDefs = `  <defs>
    <marker id="arrow" viewBox="0 0 10 10" refX="10" refY="5" markerWidth="6" markerHeight="6" orient="auto-start-reverse">
      <path d="M0,0 L10,5 L0,10 z" fill="context-stroke"/>
    </marker>
  </defs>
`

// SVGOption configures [Scene.WriteSVG].
type SVGOption func(*svgWriter)

type svgWriter struct {
	margin     float64
	background string
	labels     bool
}

// WithMargin sets the space kept around the scene bounds (default 20).
func WithMargin(m float64) SVGOption { return func(w *svgWriter) { w.margin = m } }

// WithBackground fills the canvas with the given color.
func WithBackground(color string) SVGOption { return func(w *svgWriter) { w.background = color } }

// WithoutLabels omits shape labels.
func WithoutLabels() SVGOption { return func(w *svgWriter) { w.labels = false } }

// layer orders drawing: containers, then edges, then nodes.
func layer(k Kind) int {
	switch k {
	case Box:
		return 0
	case Path:
		return 1
	}
	return 2
}

// WriteSVG writes the visible shapes as a standalone SVG document. Shapes are
// drawn in layers (boxes, paths, then node shapes) and in creation order
// within a layer.
func (s *Scene) WriteSVG(out io.Writer, opts ...SVGOption) error {
	w := svgWriter{margin: 20, labels: true}
	for _, opt := range opts {
		opt(&w)
	}

	handles := slices.Clone(s.order)
	slices.SortStableFunc(handles, func(a, b Handle) int {
		return cmp.Compare(layer(s.shapes[a].kind), layer(s.shapes[b].kind))
	})

	view := s.Bounds().Inset(w.margin)
	if s.Bounds().Empty() {
		view = Rect{W: 2 * w.margin, H: 2 * w.margin}
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%s %s %s %s" width="%.0f" height="%.0f">`+"\n",
		num(view.X), num(view.Y), num(view.W), num(view.H), view.W, view.H)

	if s.hasArrows() {
		buf.WriteString(arrowDefs)
	}
	if w.background != "" {
		fmt.Fprintf(&buf, `  <rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`+"\n",
			num(view.X), num(view.Y), num(view.W), num(view.H), html.EscapeString(w.background))
	}

	for _, h := range handles {
		e := s.shapes[h]
		if !e.attrs.Visible {
			continue
		}
		writeShape(&buf, e.kind, e.attrs)
	}
	if w.labels {
		for _, h := range handles {
			e := s.shapes[h]
			if e.attrs.Visible && e.attrs.Label != "" {
				writeLabel(&buf, e.kind, e.attrs)
			}
		}
	}

	buf.WriteString("</svg>\n")
	_, err := out.Write(buf.Bytes())
	return err
}

// SVG is a convenience wrapper around WriteSVG.
func (s *Scene) SVG(opts ...SVGOption) []byte {
	var buf bytes.Buffer
	_ = s.WriteSVG(&buf, opts...)
	return buf.Bytes()
}

func (s *Scene) hasArrows() bool {
	for _, e := range s.shapes {
		if e.kind == Path && e.attrs.EndArrow && e.attrs.Visible {
			return true
		}
	}
	return false
}

func writeShape(buf *bytes.Buffer, kind Kind, a Attrs) {
	attrs := paintAttrs(kind, a)
	switch kind {
	case Circle:
		fmt.Fprintf(buf, `  <circle%s cx="0" cy="0" r="%s" transform="%s"%s/>`+"\n",
			idAttr(a.ID), num(a.R), a.Matrix.SVG(), attrs)
	case Ellipse:
		fmt.Fprintf(buf, `  <ellipse%s cx="0" cy="0" rx="%s" ry="%s" transform="%s"%s/>`+"\n",
			idAttr(a.ID), num(a.Width/2), num(a.Height/2), a.Matrix.SVG(), attrs)
	case Rectangle, Box:
		fmt.Fprintf(buf, `  <rect%s x="%s" y="%s" width="%s" height="%s" rx="%s" transform="%s"%s/>`+"\n",
			idAttr(a.ID), num(-a.Width/2), num(-a.Height/2), num(a.Width), num(a.Height), num(a.Radius), a.Matrix.SVG(), attrs)
	case Path:
		marker := ""
		if a.EndArrow {
			marker = ` marker-end="url(#arrow)"`
		}
		fmt.Fprintf(buf, `  <path%s d="%s"%s%s/>`+"\n", idAttr(a.ID), a.Path.String(), attrs, marker)
	}
}

func writeLabel(buf *bytes.Buffer, kind Kind, a Attrs) {
	var p Point
	switch kind {
	case Path:
		pts := a.Path.Points()
		if len(pts) == 0 {
			return
		}
		first, last := pts[0], pts[len(pts)-1]
		p = Point{X: (first.X + last.X) / 2, Y: (first.Y + last.Y) / 2}
	case Box:
		p = a.Matrix.Apply(Point{Y: -a.Height/2 + 14})
	default:
		p = a.Matrix.Apply(Point{})
	}
	fmt.Fprintf(buf, `  <text x="%s" y="%s" text-anchor="middle" dominant-baseline="middle" font-family="sans-serif" font-size="12">%s</text>`+"\n",
		num(p.X), num(p.Y), html.EscapeString(a.Label))
}

func paintAttrs(kind Kind, a Attrs) string {
	var parts []string
	fill := a.Fill
	if kind == Path || fill == "" {
		fill = "none"
	}
	parts = append(parts, fmt.Sprintf(`fill="%s"`, html.EscapeString(fill)))
	if a.Stroke != "" {
		parts = append(parts, fmt.Sprintf(`stroke="%s"`, html.EscapeString(a.Stroke)))
	}
	if a.LineWidth > 0 {
		parts = append(parts, fmt.Sprintf(`stroke-width="%s"`, num(a.LineWidth)))
	}
	if a.Opacity > 0 && a.Opacity < 1 {
		parts = append(parts, fmt.Sprintf(`opacity="%s"`, num(a.Opacity)))
	}
	if len(a.LineDash) > 0 {
		dash := make([]string, len(a.LineDash))
		for i, d := range a.LineDash {
			dash[i] = num(d)
		}
		parts = append(parts, fmt.Sprintf(`stroke-dasharray="%s"`, strings.Join(dash, " ")))
	}
	return " " + strings.Join(parts, " ")
}

func idAttr(id string) string {
	if id == "" {
		return ""
	}
	return fmt.Sprintf(` id="%s"`, html.EscapeString(id))
}
