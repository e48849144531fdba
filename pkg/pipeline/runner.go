package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/linkgraph/pkg/diagram"
	"github.com/matzehuels/linkgraph/pkg/document"
	"github.com/matzehuels/linkgraph/pkg/errors"
	"github.com/matzehuels/linkgraph/pkg/model"
	"github.com/matzehuels/linkgraph/pkg/shape"
	"github.com/matzehuels/linkgraph/pkg/store"
)

// Runner executes the pipeline with artifact caching. It holds no per-run
// state, so one Runner may serve concurrent runs.
type Runner struct {
	Store  store.Store
	Keyer  store.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil store disables caching; a nil keyer
// means [store.DefaultKeyer].
func NewRunner(s store.Store, keyer store.Keyer, logger *log.Logger) *Runner {
	if s == nil {
		s = store.NewNullStore()
	}
	if keyer == nil {
		keyer = store.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Store: s, Keyer: keyer, Logger: logger}
}

// Execute loads doc, paints it and renders every requested format. Stored
// artifacts are reused unless opts.Refresh is set; the graph is only built
// when at least one format is missing from the store.
func (r *Runner) Execute(ctx context.Context, doc *document.Document, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options")
	}
	logger := r.logger(opts)

	docHash, err := HashDocument(doc, opts)
	if err != nil {
		return nil, err
	}
	res := &Result{DocHash: docHash, Artifacts: make(map[string][]byte)}

	if !opts.Refresh {
		if arts, ok := r.cached(ctx, docHash, opts.Formats); ok {
			res.Artifacts = arts
			res.CacheHit = true
			logger.Debug("artifacts from store", "hash", docHash[:12], "formats", opts.Formats)
			return res, nil
		}
	}

	g, err := r.Build(ctx, doc, opts, res)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	for _, format := range opts.Formats {
		data, err := Render(g, format, opts)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "render %s", format)
		}
		res.Artifacts[format] = data
		if err := r.Store.Set(ctx, r.Keyer.ArtifactKey(docHash, format), data, store.TTLArtifact); err != nil {
			logger.Warn("could not store artifact", "format", format, "err", err)
		}
	}
	res.Stats.RenderTime = time.Since(start)
	logger.Info("rendered", "formats", opts.Formats, "duration", res.Stats.RenderTime)
	return res, nil
}

// Build loads doc into a new graph and paints it. res, when not nil,
// receives the load statistics.
func (r *Runner) Build(ctx context.Context, doc *document.Document, opts Options, res *Result) (*diagram.Graph, error) {
	if res == nil {
		res = &Result{}
	}
	logger := r.logger(opts)

	graphOpts := append([]diagram.Option{}, opts.GraphOptions...)
	graphOpts = append(graphOpts, diagram.WithLogger(logger), diagram.WithContext(ctx))
	g := diagram.New(graphOpts...)

	start := time.Now()
	added, loadErr := document.Load(g, doc)
	res.Stats.LoadTime = time.Since(start)
	res.Rejected = doc.Len() - added
	res.LoadErr = loadErr
	if loadErr != nil {
		if opts.Strict {
			return nil, loadErr
		}
		logger.Warn("skipped document entries", "rejected", res.Rejected, "err", loadErr)
	}
	res.Graph = g
	res.Stats.Nodes = g.Len(model.KindNode)
	res.Stats.Edges = g.Len(model.KindEdge)
	res.Stats.Groups = g.Len(model.KindGroup)
	logger.Info("loaded document",
		"nodes", res.Stats.Nodes,
		"edges", res.Stats.Edges,
		"groups", res.Stats.Groups,
		"duration", res.Stats.LoadTime)

	start = time.Now()
	if err := g.Paint(ctx); err != nil {
		return nil, err
	}
	res.Stats.PaintTime = time.Since(start)
	logger.Debug("painted", "duration", res.Stats.PaintTime)
	return g, nil
}

// Render encodes a painted graph in one format. SVG needs the graph to draw
// on a [shape.Scene].
func Render(g *diagram.Graph, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatSVG:
		scene, ok := g.Renderer().(*shape.Scene)
		if !ok {
			return nil, errors.New(errors.ErrCodeUnsupported, "svg output needs a shape.Scene renderer, have %T", g.Renderer())
		}
		svgOpts := []shape.SVGOption{shape.WithMargin(opts.Margin)}
		if opts.Background != "" {
			svgOpts = append(svgOpts, shape.WithBackground(opts.Background))
		}
		if opts.NoLabels {
			svgOpts = append(svgOpts, shape.WithoutLabels())
		}
		var buf bytes.Buffer
		if err := scene.WriteSVG(&buf, svgOpts...); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatJSON, FormatTOML:
		return document.Marshal(document.Snapshot(g), format)
	}
	return nil, ValidateFormat(format)
}

// HashDocument returns the cache identity of rendering doc with opts.
func HashDocument(doc *document.Document, opts Options) (string, error) {
	data, err := json.Marshal(struct {
		Doc    *document.Document
		Params any
	}{doc, opts.keyParams()})
	if err != nil {
		return "", fmt.Errorf("hash document: %w", err)
	}
	return store.Hash(data), nil
}

// Close releases the store.
func (r *Runner) Close() error {
	if r.Store != nil {
		return r.Store.Close()
	}
	return nil
}

func (r *Runner) cached(ctx context.Context, docHash string, formats []string) (map[string][]byte, bool) {
	out := make(map[string][]byte, len(formats))
	for _, format := range formats {
		data, ok, err := r.Store.Get(ctx, r.Keyer.ArtifactKey(docHash, format))
		if err != nil || !ok {
			return nil, false
		}
		out[format] = data
	}
	return out, true
}

func (r *Runner) logger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}
