package diagram_test

import (
	"fmt"

	"github.com/matzehuels/linkgraph/pkg/diagram"
	"github.com/matzehuels/linkgraph/pkg/model"
)

func Example() {
	g := diagram.New()

	a, _ := g.AddNode(model.Config{ID: "a", X: model.Float(100), Y: model.Float(100), Size: model.Size{50}})
	b, _ := g.AddNode(model.Config{ID: "b", X: model.Float(100), Y: model.Float(200), Size: model.Size{50}})
	e, _ := g.AddEdge(a, b, model.Config{})

	_ = g.Refresh()
	path, _ := g.Path(e)
	fmt.Println(e.ID(), path)
	// Output: edge-1 M100,125.5 L100,174.5
}

func ExampleGraph_HideItem() {
	g := diagram.New()
	a, _ := g.AddNode(model.Config{ID: "a"})
	b, _ := g.AddNode(model.Config{ID: "b"})
	e, _ := g.AddEdge(a, b, model.Config{ID: "a-b"})

	_ = g.HideItem(a)
	fmt.Println(g.IsVisible(e), e.Visible())

	_ = g.ShowItem(a)
	fmt.Println(g.IsVisible(e))
	// Output:
	// false true
	// true
}

func ExampleGraph_RemoveItem() {
	g := diagram.New()
	for _, id := range []string{"a", "b", "c"} {
		_, _ = g.AddNode(model.Config{ID: id})
	}
	_, _ = g.AddEdge(model.ID("a"), model.ID("b"), model.Config{ID: "ab"})
	_, _ = g.AddEdge(model.ID("b"), model.ID("c"), model.Config{ID: "bc"})

	_ = g.RemoveItem(model.ID("b"))
	fmt.Println(len(g.Nodes()), len(g.Edges()))

	err := g.RemoveItem(model.ID("b"))
	fmt.Println(err)
	// Output:
	// 2 0
	// NOT_FOUND: item "b" not found
}
