package diagram

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/linkgraph/pkg/errors"
	"github.com/matzehuels/linkgraph/pkg/model"
	"github.com/matzehuels/linkgraph/pkg/observability"
)

// Refresh runs a synchronization pass now over everything marked dirty and
// consumes any pass already queued on the loop. Geometry read after Refresh
// reflects every preceding mutation.
func (g *Graph) Refresh() error {
	return g.sched.Flush()
}

// Paint lays out nodes that have no coordinates, then redraws every item
// immediately.
func (g *Graph) Paint(ctx context.Context) error {
	if err := g.place(ctx); err != nil {
		return err
	}
	g.sched.MarkDirty(g.reg.IDs()...)
	return g.sched.Flush()
}

// place assigns layout positions to nodes missing X or Y. Nodes with explicit
// coordinates keep them.
func (g *Graph) place(ctx context.Context) error {
	if g.layout == nil {
		return nil
	}
	nodes := g.reg.Nodes()
	var missing []*model.Node
	for _, n := range nodes {
		if !n.HasPosition() {
			missing = append(missing, n)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	name := fmt.Sprintf("%T", g.layout)
	hooks := observability.Sync()
	hooks.OnLayoutStart(ctx, name, len(nodes))
	start := time.Now()

	pos, err := g.layout.AssignPositions(ctx, nodes, g.reg.Edges())
	hooks.OnLayoutComplete(ctx, name, time.Since(start), err)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "layout")
	}

	for _, n := range missing {
		if _, ok := pos[n.ID()]; !ok {
			return errors.New(errors.ErrCodeInternal, "layout returned no position for %q", n.ID())
		}
	}
	for _, n := range missing {
		p := pos[n.ID()]
		cfg := n.Config()
		if cfg.X == nil {
			cfg.X = model.Float(p.X)
		}
		if cfg.Y == nil {
			cfg.Y = model.Float(p.Y)
		}
		if err := g.reg.SetConfig(n.ID(), cfg); err != nil {
			return err
		}
	}
	g.logger.Debug("laid out nodes", "layout", name, "placed", len(missing), "took", time.Since(start))
	return nil
}
