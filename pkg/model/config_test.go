package model

import (
	"math"
	"testing"

	"github.com/matzehuels/linkgraph/pkg/errors"
)

func TestConfigMerge(t *testing.T) {
	defaults := Config{
		Shape: ShapeCircle,
		Size:  Size{40},
		Style: Style{Fill: "#fff", Stroke: "#333", LineWidth: Float(1)},
	}

	t.Run("ShallowTopLevel", func(t *testing.T) {
		got := defaults.Merge(Config{Shape: ShapeRect, Size: Size{100, 70}})
		if got.Shape != ShapeRect {
			t.Errorf("Shape = %q, want rect", got.Shape)
		}
		if w, h := got.Size.Dims(); w != 100 || h != 70 {
			t.Errorf("Size = %v, want [100 70]", got.Size)
		}
	})

	t.Run("DeepStyle", func(t *testing.T) {
		got := defaults.Merge(Config{Style: Style{Fill: "#ccc"}})
		if got.Style.Fill != "#ccc" {
			t.Errorf("Fill = %q, want #ccc", got.Style.Fill)
		}
		if got.Style.Stroke != "#333" || *got.Style.LineWidth != 1 {
			t.Errorf("unrelated style fields lost: %+v", got.Style)
		}
	})

	t.Run("ZeroIsAValue", func(t *testing.T) {
		got := defaults.Merge(Config{X: Float(0), Style: Style{LineWidth: Float(0)}})
		if got.X == nil || *got.X != 0 {
			t.Error("X = 0 should be set")
		}
		if *got.Style.LineWidth != 0 {
			t.Errorf("LineWidth = %v, want 0", *got.Style.LineWidth)
		}
	})

	t.Run("DoesNotAlias", func(t *testing.T) {
		patch := Config{X: Float(3), Size: Size{9}}
		got := defaults.Merge(patch)
		*patch.X = 4
		patch.Size[0] = 10
		if *got.X != 3 || got.Size[0] != 9 {
			t.Error("merged config aliases the patch")
		}
	})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		cfg  Config
		code errors.Code
	}{
		{"node ok", KindNode, Config{Shape: ShapeRect, Size: Size{100, 70}, Color: "#666"}, ""},
		{"edge ok", KindEdge, Config{Source: ID("a"), Target: ID("b"), Shape: ShapeQuadratic}, ""},
		{"group ok", KindGroup, Config{Padding: Float(8)}, ""},

		{"unknown kind", Kind("hyperedge"), Config{}, errors.ErrCodeUnknownKind},
		{"bad id", KindNode, Config{ID: "has space"}, errors.ErrCodeInvalidID},
		{"shape for other kind", KindNode, Config{Shape: ShapeLine}, errors.ErrCodeInvalidConfig},
		{"unknown shape", KindEdge, Config{Source: ID("a"), Target: ID("b"), Shape: "spline"}, errors.ErrCodeInvalidConfig},
		{"three sizes", KindNode, Config{Size: Size{1, 2, 3}}, errors.ErrCodeInvalidConfig},
		{"negative size", KindNode, Config{Size: Size{-1}}, errors.ErrCodeInvalidConfig},
		{"nan x", KindNode, Config{X: Float(math.NaN())}, errors.ErrCodeInvalidConfig},
		{"bad color", KindNode, Config{Color: "#zz"}, errors.ErrCodeInvalidConfig},
		{"bad fill", KindNode, Config{Style: Style{Fill: "<x>"}}, errors.ErrCodeInvalidConfig},
		{"negative line width", KindNode, Config{Style: Style{LineWidth: Float(-2)}}, errors.ErrCodeInvalidConfig},
		{"opacity out of range", KindNode, Config{Style: Style{Opacity: Float(2)}}, errors.ErrCodeInvalidConfig},
		{"node with source", KindNode, Config{Source: ID("a")}, errors.ErrCodeInvalidConfig},
		{"edge without source", KindEdge, Config{Target: ID("b")}, errors.ErrCodeInvalidConfig},
		{"edge with empty target", KindEdge, Config{Source: ID("a"), Target: ID("")}, errors.ErrCodeInvalidConfig},
		{"edge with size", KindEdge, Config{Source: ID("a"), Target: ID("b"), Size: Size{3}}, errors.ErrCodeInvalidConfig},
		{"nested group", KindGroup, Config{Group: "outer"}, errors.ErrCodeInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate(tt.kind)
			if tt.code == "" {
				if err != nil {
					t.Errorf("Validate: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("Validate: err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestNodeDims(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		wantW float64
		wantH float64
	}{
		{"circle size", Config{Shape: ShapeCircle, Size: Size{50}}, 50, 50},
		{"circle radius wins", Config{Shape: ShapeCircle, Size: Size{50}, Style: Style{R: Float(20)}}, 40, 40},
		{"default shape is circle", Config{Size: Size{30, 10}}, 30, 30},
		{"rect pair", Config{Shape: ShapeRect, Size: Size{100, 70}}, 100, 70},
		{"rect style override", Config{Shape: ShapeRect, Size: Size{100, 70}, Style: Style{Height: Float(20)}}, 100, 20},
		{"ellipse scalar", Config{Shape: ShapeEllipse, Size: Size{12}}, 12, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			n := mustAdd(t, r, KindNode, tt.cfg).(*Node)
			if w, h := n.Dims(); w != tt.wantW || h != tt.wantH {
				t.Errorf("Dims() = (%v, %v), want (%v, %v)", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestItemConfigIsACopy(t *testing.T) {
	r := NewRegistry()
	n := mustAdd(t, r, KindNode, Config{X: Float(1), Style: Style{LineWidth: Float(2)}}).(*Node)

	cfg := n.Config()
	*cfg.X = 99
	*cfg.Style.LineWidth = 99

	if x, _ := n.Position(); x != 1 {
		t.Errorf("x = %v after mutating a copy", x)
	}
	if n.LineWidth() != 2 {
		t.Errorf("LineWidth = %v after mutating a copy", n.LineWidth())
	}
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"node", "edge", "group"} {
		if _, err := ParseKind(s); err != nil {
			t.Errorf("ParseKind(%q): %v", s, err)
		}
	}
	if _, err := ParseKind("Node"); !errors.Is(err, errors.ErrCodeUnknownKind) {
		t.Errorf("ParseKind(Node): err = %v, want UNKNOWN_KIND", err)
	}
}
