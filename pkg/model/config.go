package model

import (
	"math"
	"slices"

	"github.com/matzehuels/linkgraph/pkg/errors"
)

// Shape kinds recognized per item kind.
const (
	ShapeCircle    = "circle"
	ShapeRect      = "rect"
	ShapeEllipse   = "ellipse"
	ShapeLine      = "line"
	ShapeQuadratic = "quadratic"
)

var shapesByKind = map[Kind][]string{
	KindNode:  {ShapeCircle, ShapeRect, ShapeEllipse},
	KindEdge:  {ShapeLine, ShapeQuadratic},
	KindGroup: {ShapeRect},
}

// Shapes returns the shape kinds accepted for items of kind k.
func Shapes(k Kind) []string { return slices.Clone(shapesByKind[k]) }

// Float returns a pointer to v, for optional numeric Config and Style fields.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v, for optional boolean Config and Style fields.
func Bool(v bool) *bool { return &v }

// Size is a node size: one value for a diameter (circle) or square side,
// two values for width and height. Nil means unset.
type Size []float64

// Dims returns the width and height described by s.
func (s Size) Dims() (w, h float64) {
	switch len(s) {
	case 1:
		return s[0], s[0]
	case 2:
		return s[0], s[1]
	}
	return 0, 0
}

// Style holds the draw parameters of an item's key shape.
//
// Pointer fields are optional: nil means "inherit". Empty strings mean the
// same for colors. Merging is field-by-field (see [Style.Merge]).
type Style struct {
	Fill      string    `json:"fill,omitempty" toml:"fill,omitempty"`
	Stroke    string    `json:"stroke,omitempty" toml:"stroke,omitempty"`
	LineWidth *float64  `json:"lineWidth,omitempty" toml:"line_width,omitempty"`
	Opacity   *float64  `json:"opacity,omitempty" toml:"opacity,omitempty"`
	R         *float64  `json:"r,omitempty" toml:"r,omitempty"`
	Width     *float64  `json:"width,omitempty" toml:"width,omitempty"`
	Height    *float64  `json:"height,omitempty" toml:"height,omitempty"`
	Radius    *float64  `json:"radius,omitempty" toml:"radius,omitempty"` // rect corner radius
	LineDash  []float64 `json:"lineDash,omitempty" toml:"line_dash,omitempty"`
	EndArrow  *bool     `json:"endArrow,omitempty" toml:"end_arrow,omitempty"`
}

// Merge returns s with every field set in patch overriding s.
func (s Style) Merge(patch Style) Style {
	if patch.Fill != "" {
		s.Fill = patch.Fill
	}
	if patch.Stroke != "" {
		s.Stroke = patch.Stroke
	}
	s.LineWidth = mergeFloat(s.LineWidth, patch.LineWidth)
	s.Opacity = mergeFloat(s.Opacity, patch.Opacity)
	s.R = mergeFloat(s.R, patch.R)
	s.Width = mergeFloat(s.Width, patch.Width)
	s.Height = mergeFloat(s.Height, patch.Height)
	s.Radius = mergeFloat(s.Radius, patch.Radius)
	if patch.LineDash != nil {
		s.LineDash = slices.Clone(patch.LineDash)
	}
	if patch.EndArrow != nil {
		v := *patch.EndArrow
		s.EndArrow = &v
	}
	return s
}

func (s Style) validate() error {
	if err := errors.ValidateColor(s.Fill); err != nil {
		return err
	}
	if err := errors.ValidateColor(s.Stroke); err != nil {
		return err
	}
	for name, v := range map[string]*float64{
		"lineWidth": s.LineWidth,
		"r":         s.R,
		"width":     s.Width,
		"height":    s.Height,
		"radius":    s.Radius,
	} {
		if v != nil && (*v < 0 || !finite(*v)) {
			return errors.New(errors.ErrCodeInvalidConfig, "style %s must be a non-negative number, got %v", name, *v)
		}
	}
	if s.Opacity != nil && (*s.Opacity < 0 || *s.Opacity > 1) {
		return errors.New(errors.ErrCodeInvalidConfig, "style opacity must be within [0, 1], got %v", *s.Opacity)
	}
	for _, d := range s.LineDash {
		if d < 0 || !finite(d) {
			return errors.New(errors.ErrCodeInvalidConfig, "style lineDash entries must be non-negative")
		}
	}
	return nil
}

// Config is the configuration of one item. The same struct serves as the
// full configuration passed to add and as the partial patch passed to update.
//
// Merging (see [Config.Merge]) is shallow at the top level: a set field in
// the patch replaces the current value wholesale. Style is the exception and
// is merged field by field.
type Config struct {
	ID    string
	Shape string
	Color string // stroke shorthand, used when Style.Stroke is unset
	Label string

	// Node position and size.
	X, Y *float64
	Size Size

	// Group is the id of the group a node belongs to.
	Group string

	// Edge endpoints. Either a bare ID or a live item.
	Source Ref
	Target Ref
	// CurveOffset bends quadratic edges perpendicular to the chord.
	CurveOffset *float64

	// Padding is the space a group box keeps around its members.
	Padding *float64

	Visible *bool
	Style   Style
}

// Merge returns c with every field set in patch applied.
func (c Config) Merge(patch Config) Config {
	if patch.ID != "" {
		c.ID = patch.ID
	}
	if patch.Shape != "" {
		c.Shape = patch.Shape
	}
	if patch.Color != "" {
		c.Color = patch.Color
	}
	if patch.Label != "" {
		c.Label = patch.Label
	}
	c.X = mergeFloat(c.X, patch.X)
	c.Y = mergeFloat(c.Y, patch.Y)
	if patch.Size != nil {
		c.Size = slices.Clone(patch.Size)
	}
	if patch.Group != "" {
		c.Group = patch.Group
	}
	if patch.Source != nil {
		c.Source = patch.Source
	}
	if patch.Target != nil {
		c.Target = patch.Target
	}
	c.CurveOffset = mergeFloat(c.CurveOffset, patch.CurveOffset)
	c.Padding = mergeFloat(c.Padding, patch.Padding)
	if patch.Visible != nil {
		v := *patch.Visible
		c.Visible = &v
	}
	c.Style = c.Style.Merge(patch.Style)
	return c
}

// Validate checks c as a complete configuration for an item of kind k.
func (c Config) Validate(k Kind) error {
	if !k.Valid() {
		return errors.New(errors.ErrCodeUnknownKind, "unknown item kind %q", k)
	}
	if c.ID != "" {
		if err := errors.ValidateItemID(c.ID); err != nil {
			return err
		}
	}
	if c.Shape != "" && !slices.Contains(shapesByKind[k], c.Shape) {
		return errors.New(errors.ErrCodeInvalidConfig, "shape %q is not valid for %s items (want one of %v)", c.Shape, k, shapesByKind[k])
	}
	if err := errors.ValidateColor(c.Color); err != nil {
		return err
	}
	if err := c.Style.validate(); err != nil {
		return err
	}
	for _, v := range []*float64{c.X, c.Y, c.CurveOffset} {
		if v != nil && !finite(*v) {
			return errors.New(errors.ErrCodeInvalidConfig, "coordinates must be finite numbers")
		}
	}
	if c.Padding != nil && (*c.Padding < 0 || !finite(*c.Padding)) {
		return errors.New(errors.ErrCodeInvalidConfig, "padding must be a non-negative number")
	}

	switch k {
	case KindNode:
		if len(c.Size) > 2 {
			return errors.New(errors.ErrCodeInvalidConfig, "size takes one or two values, got %d", len(c.Size))
		}
		for _, v := range c.Size {
			if v < 0 || !finite(v) {
				return errors.New(errors.ErrCodeInvalidConfig, "size values must be non-negative numbers")
			}
		}
		if c.Group != "" {
			if err := errors.ValidateItemID(c.Group); err != nil {
				return err
			}
		}
		if c.Source != nil || c.Target != nil {
			return errors.New(errors.ErrCodeInvalidConfig, "nodes do not take source or target")
		}
	case KindEdge:
		if IDOf(c.Source) == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "edge requires a source")
		}
		if IDOf(c.Target) == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "edge requires a target")
		}
		if c.Size != nil || c.X != nil || c.Y != nil {
			return errors.New(errors.ErrCodeInvalidConfig, "edges take no position or size")
		}
		if c.Group != "" {
			return errors.New(errors.ErrCodeInvalidConfig, "edges cannot join a group")
		}
	case KindGroup:
		if c.Source != nil || c.Target != nil || c.Group != "" {
			return errors.New(errors.ErrCodeInvalidConfig, "groups take no endpoints and cannot be nested")
		}
	}
	return nil
}

func mergeFloat(cur, patch *float64) *float64 {
	if patch == nil {
		return cur
	}
	v := *patch
	return &v
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
