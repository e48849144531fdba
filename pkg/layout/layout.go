package layout

import (
	"context"
	"math"

	"github.com/matzehuels/linkgraph/pkg/model"
	"github.com/matzehuels/linkgraph/pkg/shape"
)

// Layout assigns centre positions to nodes. Implementations must return a
// position for every node they were given and must not modify the nodes.
type Layout interface {
	AssignPositions(ctx context.Context, nodes []*model.Node, edges []*model.Edge) (map[string]shape.Point, error)
}

// Func adapts a function to the Layout interface.
type Func func(ctx context.Context, nodes []*model.Node, edges []*model.Edge) (map[string]shape.Point, error)

// AssignPositions calls f.
func (f Func) AssignPositions(ctx context.Context, nodes []*model.Node, edges []*model.Edge) (map[string]shape.Point, error) {
	return f(ctx, nodes, edges)
}

// Grid places nodes row by row in insertion order.
type Grid struct {
	// Spacing is the distance between neighbouring centres (default 100).
	Spacing float64
	// Columns per row; 0 picks a near-square grid.
	Columns int
	// Origin is the centre of the first node (default (Spacing/2, Spacing/2)).
	Origin *shape.Point
}

// AssignPositions implements Layout.
func (g Grid) AssignPositions(ctx context.Context, nodes []*model.Node, _ []*model.Edge) (map[string]shape.Point, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	spacing := g.Spacing
	if spacing <= 0 {
		spacing = 100
	}
	cols := g.Columns
	if cols <= 0 {
		cols = max(1, int(math.Ceil(math.Sqrt(float64(len(nodes))))))
	}
	origin := shape.Point{X: spacing / 2, Y: spacing / 2}
	if g.Origin != nil {
		origin = *g.Origin
	}

	out := make(map[string]shape.Point, len(nodes))
	for i, n := range nodes {
		out[n.ID()] = shape.Point{
			X: origin.X + float64(i%cols)*spacing,
			Y: origin.Y + float64(i/cols)*spacing,
		}
	}
	return out, nil
}
