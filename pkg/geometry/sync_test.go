package geometry

import (
	"math"
	"testing"

	"github.com/matzehuels/linkgraph/pkg/errors"
	"github.com/matzehuels/linkgraph/pkg/model"
	"github.com/matzehuels/linkgraph/pkg/shape"
)

func node(t *testing.T, r *model.Registry, id string, x, y float64, cfg model.Config) *model.Node {
	t.Helper()
	cfg.ID = id
	cfg.X, cfg.Y = model.Float(x), model.Float(y)
	if cfg.Style.LineWidth == nil {
		cfg.Style.LineWidth = model.Float(1)
	}
	it, err := r.Add(model.KindNode, cfg)
	if err != nil {
		t.Fatalf("add node %s: %v", id, err)
	}
	return it.(*model.Node)
}

func edge(t *testing.T, r *model.Registry, id, src, dst string, cfg model.Config) *model.Edge {
	t.Helper()
	cfg.ID = id
	cfg.Source, cfg.Target = model.ID(src), model.ID(dst)
	it, err := r.Add(model.KindEdge, cfg)
	if err != nil {
		t.Fatalf("add edge %s: %v", id, err)
	}
	return it.(*model.Edge)
}

func near(a, b shape.Point) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}

func endpoints(t *testing.T, s *Synchronizer, id string) (shape.Point, shape.Point) {
	t.Helper()
	p, err := s.Path(id)
	if err != nil {
		t.Fatalf("Path(%s): %v", id, err)
	}
	a, _ := p.Start()
	b, _ := p.End()
	return a, b
}

func TestSyncCircleAnchors(t *testing.T) {
	reg := model.NewRegistry()
	node(t, reg, "node1", 100, 100, model.Config{Size: model.Size{50}})
	node(t, reg, "node2", 100, 200, model.Config{Size: model.Size{50}})
	edge(t, reg, "edge1", "node1", "node2", model.Config{})

	s := New(reg, shape.NewScene())
	res, err := s.Sync(reg.IDs())
	if err != nil {
		t.Fatal(err)
	}
	if res.Created != 3 {
		t.Errorf("Created = %d, want 3", res.Created)
	}

	a, b := endpoints(t, s, "edge1")
	if !near(a, shape.Point{X: 100, Y: 125.5}) || !near(b, shape.Point{X: 100, Y: 174.5}) {
		t.Errorf("anchors = %v %v, want (100,125.5) (100,174.5)", a, b)
	}

	// Retarget to a node to the right and resync only the edge.
	node(t, reg, "node3", 300, 100, model.Config{Size: model.Size{50}})
	if err := reg.Reconnect("edge1", model.Target, model.ID("node3")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Sync([]string{"edge1", "node3"}); err != nil {
		t.Fatal(err)
	}
	a, b = endpoints(t, s, "edge1")
	if !near(a, shape.Point{X: 125.5, Y: 100}) || !near(b, shape.Point{X: 274.5, Y: 100}) {
		t.Errorf("anchors = %v %v, want (125.5,100) (274.5,100)", a, b)
	}
}

func TestSyncNodeMatrix(t *testing.T) {
	reg := model.NewRegistry()
	n := node(t, reg, "n", 100, 100, model.Config{Size: model.Size{40}})
	s := New(reg, shape.NewScene())
	if _, err := s.Sync([]string{"n"}); err != nil {
		t.Fatal(err)
	}

	cfg := n.Config().Merge(model.Config{X: model.Float(150), Y: model.Float(150)})
	if err := reg.SetConfig("n", cfg); err != nil {
		t.Fatal(err)
	}

	// Not yet synced: the shape still has the old transform.
	m, _ := s.Matrix("n")
	if m[6] != 100 || m[7] != 100 {
		t.Errorf("before sync: translation = (%v, %v)", m[6], m[7])
	}

	res, _ := s.Sync([]string{"n"})
	if res.Updated != 1 || res.Created != 0 {
		t.Errorf("Result = %+v, want one update", res)
	}
	m, _ = s.Matrix("n")
	if m[6] != 150 || m[7] != 150 {
		t.Errorf("translation = (%v, %v), want (150, 150)", m[6], m[7])
	}
}

func TestSyncIsIncremental(t *testing.T) {
	reg := model.NewRegistry()
	node(t, reg, "a", 0, 0, model.Config{})
	node(t, reg, "b", 100, 0, model.Config{})
	scene := shape.NewScene()
	s := New(reg, scene)
	_, _ = s.Sync(reg.IDs())

	before, _ := s.Handle("b")
	_, _ = s.Sync([]string{"a"})
	after, _ := s.Handle("b")

	if before != after {
		t.Error("untouched item got a new handle")
	}
	if st := scene.Stats(); st.Created != 2 || st.Updated != 1 {
		t.Errorf("renderer stats = %+v, want 2 created, 1 updated", st)
	}
}

func TestSyncDestroysGoneAndUnresolved(t *testing.T) {
	reg := model.NewRegistry()
	node(t, reg, "a", 0, 0, model.Config{})
	node(t, reg, "b", 0, 100, model.Config{})
	edge(t, reg, "e", "a", "b", model.Config{})
	edge(t, reg, "dangling", "a", "nowhere", model.Config{})

	scene := shape.NewScene()
	s := New(reg, scene)
	res, _ := s.Sync(reg.IDs())
	if res.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", res.Skipped)
	}
	if _, ok := s.Handle("dangling"); ok {
		t.Error("unresolved edge has a shape")
	}

	removed, _ := reg.Remove("b")
	ids := make([]string, len(removed))
	for i, it := range removed {
		ids[i] = it.ID()
	}
	res, err := s.Sync(ids)
	if err != nil {
		t.Fatal(err)
	}
	if res.Destroyed != 2 {
		t.Errorf("Destroyed = %d, want 2", res.Destroyed)
	}
	if scene.Len() != 1 {
		t.Errorf("scene holds %d shapes, want 1", scene.Len())
	}
	if _, err := s.Path("e"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Path of removed edge: err = %v", err)
	}
}

func TestSyncShapeChangeRecreates(t *testing.T) {
	reg := model.NewRegistry()
	n := node(t, reg, "n", 0, 0, model.Config{Size: model.Size{10}})
	s := New(reg, shape.NewScene())
	_, _ = s.Sync([]string{"n"})
	old, _ := s.Handle("n")

	_ = reg.SetConfig("n", n.Config().Merge(model.Config{Shape: model.ShapeRect, Size: model.Size{30, 20}}))
	res, _ := s.Sync([]string{"n"})
	if res.Destroyed != 1 || res.Created != 1 {
		t.Errorf("Result = %+v, want destroy + create", res)
	}
	if h, _ := s.Handle("n"); h == old {
		t.Error("handle reused across shape kinds")
	}
	a, _ := s.Attrs("n")
	if a.Width != 30 || a.Height != 20 {
		t.Errorf("rect size = %vx%v", a.Width, a.Height)
	}
}

func TestSyncVisibility(t *testing.T) {
	reg := model.NewRegistry()
	node(t, reg, "a", 0, 0, model.Config{})
	node(t, reg, "b", 0, 100, model.Config{})
	edge(t, reg, "e", "a", "b", model.Config{})
	s := New(reg, shape.NewScene())

	_ = reg.SetVisible("a", false)
	_, _ = s.Sync(reg.IDs())

	for id, want := range map[string]bool{"a": false, "b": true, "e": false} {
		a, _ := s.Attrs(id)
		if a.Visible != want {
			t.Errorf("%s visible = %v, want %v", id, a.Visible, want)
		}
	}
}

func TestSyncGroupBox(t *testing.T) {
	reg := model.NewRegistry()
	if _, err := reg.Add(model.KindGroup, model.Config{ID: "g", Padding: model.Float(10)}); err != nil {
		t.Fatal(err)
	}
	node(t, reg, "a", 0, 0, model.Config{Size: model.Size{20}, Group: "g", Style: model.Style{LineWidth: model.Float(0)}})
	node(t, reg, "b", 100, 50, model.Config{Size: model.Size{20}, Group: "g", Style: model.Style{LineWidth: model.Float(0)}})

	s := New(reg, shape.NewScene())
	_, _ = s.Sync([]string{"g"})

	box, err := s.BBox("g")
	if err != nil {
		t.Fatal(err)
	}
	want := shape.Rect{X: -20, Y: -20, W: 140, H: 90}
	if box != want {
		t.Errorf("group box = %+v, want %+v", box, want)
	}

	_ = reg.SetVisible("a", false)
	_, _ = s.Sync([]string{"g"})
	box, _ = s.BBox("g")
	if want := (shape.Rect{X: 80, Y: 30, W: 40, H: 40}); box != want {
		t.Errorf("group box without a = %+v, want %+v", box, want)
	}
}

func TestSyncReset(t *testing.T) {
	reg := model.NewRegistry()
	node(t, reg, "a", 0, 0, model.Config{})
	scene := shape.NewScene()
	s := New(reg, scene)
	_, _ = s.Sync(reg.IDs())

	res, err := s.Reset()
	if err != nil {
		t.Fatal(err)
	}
	if res.Destroyed != 1 || s.Len() != 0 || scene.Len() != 0 {
		t.Errorf("Reset: %+v, owned=%d scene=%d", res, s.Len(), scene.Len())
	}
}
