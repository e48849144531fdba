package layout

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/linkgraph/pkg/errors"
	"github.com/matzehuels/linkgraph/pkg/model"
	"github.com/matzehuels/linkgraph/pkg/shape"
)

func fixture(t *testing.T) ([]*model.Node, []*model.Edge) {
	t.Helper()
	r := model.NewRegistry()
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		if _, err := r.Add(model.KindNode, model.Config{ID: id, Size: model.Size{36}}); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range [][2]string{{"a", "b"}, {"a", "c"}, {"c", "d"}, {"d", "missing"}} {
		if _, err := r.Add(model.KindEdge, model.Config{Source: model.ID(e[0]), Target: model.ID(e[1])}); err != nil {
			t.Fatal(err)
		}
	}
	return r.Nodes(), r.Edges()
}

func TestGrid(t *testing.T) {
	nodes, edges := fixture(t)
	pos, err := Grid{Spacing: 50}.AssignPositions(context.Background(), nodes, edges)
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]shape.Point{
		"a": {X: 25, Y: 25}, "b": {X: 75, Y: 25}, "c": {X: 125, Y: 25},
		"d": {X: 25, Y: 75}, "e": {X: 75, Y: 75},
	}
	for id, p := range want {
		if pos[id] != p {
			t.Errorf("%s = %v, want %v", id, pos[id], p)
		}
	}
}

func TestGridColumnsAndOrigin(t *testing.T) {
	nodes, _ := fixture(t)
	pos, _ := Grid{Columns: 1, Origin: &shape.Point{}}.AssignPositions(context.Background(), nodes, nil)
	if pos["e"] != (shape.Point{X: 0, Y: 400}) {
		t.Errorf("e = %v, want (0,400)", pos["e"])
	}
}

func TestGridCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (Grid{}).AssignPositions(ctx, nil, nil); err == nil {
		t.Error("expected context error")
	}
}

func TestToDOT(t *testing.T) {
	nodes, edges := fixture(t)
	dot := Graphviz{RankDir: "LR"}.ToDOT(nodes, edges)

	for _, want := range []string{
		"rankdir=LR;",
		`"a" [width=0.5, height=0.5];`,
		`"a" -> "b";`,
		`"c" -> "d";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "missing") {
		t.Error("unresolved edge written to DOT")
	}
}

func TestParsePlain(t *testing.T) {
	out := `graph 1 2.5 3
node a 0.5 2.5 0.5 0.5 "" solid box black lightgrey
node "has space" 2 0.5 0.5 0.5 "" solid box black lightgrey
edge a "has space" 4 0.5 2.25 0.5 1.5 2 1.2 2 0.75 solid black
stop
`
	pos, err := ParsePlain([]byte(out))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := pos["a"], (shape.Point{X: 36, Y: 36}); got != want {
		t.Errorf("a = %v, want %v", got, want)
	}
	if got, want := pos["has space"], (shape.Point{X: 144, Y: 180}); got != want {
		t.Errorf("quoted = %v, want %v", got, want)
	}
	if len(pos) != 2 {
		t.Errorf("parsed %d nodes, want 2", len(pos))
	}
}

func TestParsePlainErrors(t *testing.T) {
	for name, in := range map[string]string{
		"short graph": "graph 1\n",
		"bad coords":  "graph 1 1 1\nnode a x y 1 1\n",
		"open quote":  "node \"a 1 1\n",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := ParsePlain([]byte(in)); !errors.Is(err, errors.ErrCodeInvalidFormat) {
				t.Errorf("err = %v, want INVALID_FORMAT", err)
			}
		})
	}
}

func TestGraphvizAssignPositions(t *testing.T) {
	if testing.Short() {
		t.Skip("graphviz layout in -short mode")
	}
	nodes, edges := fixture(t)
	pos, err := Graphviz{}.AssignPositions(context.Background(), nodes, edges)
	if err != nil {
		t.Skipf("graphviz unavailable: %v", err)
	}
	if len(pos) != len(nodes) {
		t.Fatalf("got %d positions, want %d", len(pos), len(nodes))
	}
	// Top-to-bottom ranks: a child sits below its parent.
	if pos["b"].Y <= pos["a"].Y || pos["d"].Y <= pos["c"].Y {
		t.Errorf("ranks not top-to-bottom: %v", pos)
	}
}
