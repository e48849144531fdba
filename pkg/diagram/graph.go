package diagram

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/linkgraph/pkg/geometry"
	"github.com/matzehuels/linkgraph/pkg/layout"
	"github.com/matzehuels/linkgraph/pkg/model"
	"github.com/matzehuels/linkgraph/pkg/observability"
	"github.com/matzehuels/linkgraph/pkg/schedule"
	"github.com/matzehuels/linkgraph/pkg/shape"
)

// =============================================================================
// Defaults
// =============================================================================

// DefaultNode is the configuration every node starts from.
func DefaultNode() model.Config {
	return model.Config{
		Shape: model.ShapeCircle,
		Size:  model.Size{40},
		Style: model.Style{
			Fill:      "#C6E5FF",
			Stroke:    "#5B8FF9",
			LineWidth: model.Float(1),
		},
	}
}

// DefaultEdge is the configuration every edge starts from.
func DefaultEdge() model.Config {
	return model.Config{
		Shape: model.ShapeLine,
		Style: model.Style{
			Stroke:    "#A3B1BF",
			LineWidth: model.Float(1),
		},
	}
}

// DefaultGroup is the configuration every group starts from.
func DefaultGroup() model.Config {
	return model.Config{
		Shape:   model.ShapeRect,
		Padding: model.Float(10),
		Style: model.Style{
			Fill:      "#F3F9FF",
			Stroke:    "#CCCCCC",
			LineWidth: model.Float(1),
			Radius:    model.Float(4),
		},
	}
}

// =============================================================================
// Graph
// =============================================================================

// Graph is the item controller of one diagram. It owns a registry of items,
// the shapes drawn for them and the scheduler that batches redraws.
//
// Every mutation validates before it changes anything, so a rejected call
// leaves the graph exactly as it was. Queries read the registry directly and
// always reflect the last completed mutation; drawn geometry catches up on
// the next pass (see [Graph.Refresh]).
//
// A Graph is single-threaded: all calls, and the loop it posts passes to,
// must run on one goroutine. [schedule.Loop.Do] serializes access when
// several goroutines share a graph.
type Graph struct {
	reg      *model.Registry
	renderer shape.Renderer
	sync     *geometry.Synchronizer
	sched    *schedule.Scheduler
	loop     schedule.Poster
	layout   layout.Layout
	defaults map[model.Kind]model.Config
	logger   *log.Logger
	ctx      context.Context

	damage shape.Rect
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the logger used for structural events (debug level) and
// failed scheduled passes (error level). Without it the graph is silent.
func WithLogger(l *log.Logger) Option {
	return func(g *Graph) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithRenderer sets the shape renderer. The default is a fresh [shape.Scene].
func WithRenderer(r shape.Renderer) Option {
	return func(g *Graph) {
		if r != nil {
			g.renderer = r
		}
	}
}

// WithLayout sets the layout used by Paint for nodes without coordinates.
// The default is [layout.Grid]. A nil layout disables it.
func WithLayout(l layout.Layout) Option {
	return func(g *Graph) { g.layout = l }
}

// WithLoop sets the event loop scheduled passes are posted to. The default
// is [schedule.Discard], so passes only run on Refresh and Paint.
func WithLoop(p schedule.Poster) Option {
	return func(g *Graph) {
		if p != nil {
			g.loop = p
		}
	}
}

// WithDefaults replaces the base configuration for items of kind k. Caller
// configurations are merged over it.
func WithDefaults(k model.Kind, cfg model.Config) Option {
	return func(g *Graph) { g.defaults[k] = cfg }
}

// WithContext sets the context passed to observability hooks.
func WithContext(ctx context.Context) Option {
	return func(g *Graph) {
		if ctx != nil {
			g.ctx = ctx
		}
	}
}

// New creates an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		reg:    model.NewRegistry(),
		layout: layout.Grid{},
		defaults: map[model.Kind]model.Config{
			model.KindNode:  DefaultNode(),
			model.KindEdge:  DefaultEdge(),
			model.KindGroup: DefaultGroup(),
		},
		logger: log.NewWithOptions(io.Discard, log.Options{}),
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.renderer == nil {
		g.renderer = shape.NewScene()
	}
	if g.loop == nil {
		g.loop = schedule.Discard{}
	}
	g.sync = geometry.New(g.reg, g.renderer)
	g.sched = schedule.New(g.loop, g.pass, schedule.WithErrorHandler(func(err error) {
		g.logger.Error("scheduled pass failed", "err", err)
	}))
	return g
}

// Renderer returns the renderer the graph draws with.
func (g *Graph) Renderer() shape.Renderer { return g.renderer }

// Stats returns the scheduler's pass counters.
func (g *Graph) Stats() schedule.Stats { return g.sched.Stats() }

// Pending reports whether a scheduled pass is waiting for the loop.
func (g *Graph) Pending() bool { return g.sched.State() == schedule.Pending }

// Damage returns the area vacated by items removed since the last pass.
func (g *Graph) Damage() shape.Rect { return g.damage }

// Check audits the registry invariants.
func (g *Graph) Check() error { return g.reg.Check() }

// pass is the scheduler's synchronization callback.
func (g *Graph) pass(ids []string) error {
	hooks := observability.Sync()
	hooks.OnSyncStart(g.ctx, len(ids))

	start := time.Now()
	res, err := g.sync.Sync(ids)
	g.damage = shape.Rect{}

	hooks.OnSyncComplete(g.ctx, res.Total(), time.Since(start), err)
	g.logger.Debug("synchronized",
		"dirty", len(ids),
		"created", res.Created,
		"updated", res.Updated,
		"destroyed", res.Destroyed)
	return err
}
