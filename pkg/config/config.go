// Package config loads linkgraph settings from TOML.
//
// A file only needs the keys it changes; everything else keeps the value
// from [Default]:
//
//	[defaults.node]
//	shape = "rect"
//	size = [80, 30]
//
//	[layout]
//	engine = "graphviz"
//	rank_dir = "LR"
//
//	[store]
//	backend = "redis"
//	url = "redis://localhost:6379/0"
//	ttl = "24h"
package config

import (
	"os"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/linkgraph/pkg/diagram"
	"github.com/matzehuels/linkgraph/pkg/errors"
	"github.com/matzehuels/linkgraph/pkg/layout"
	"github.com/matzehuels/linkgraph/pkg/model"
)

// Layout engines.
const (
	EngineGrid     = "grid"
	EngineGraphviz = "graphviz"
	EngineNone     = "none"
)

// Store backends.
const (
	BackendNull  = "null"
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// =============================================================================
// Config
// =============================================================================

// Config is the complete settings tree.
type Config struct {
	Defaults Defaults `toml:"defaults"`
	Layout   Layout   `toml:"layout"`
	Server   Server   `toml:"server"`
	Store    Store    `toml:"store"`
}

// Defaults overrides the built-in base configuration of each item kind.
type Defaults struct {
	Node  ItemDefaults `toml:"node"`
	Edge  ItemDefaults `toml:"edge"`
	Group ItemDefaults `toml:"group"`
}

// ItemDefaults is the subset of an item configuration that makes sense as a
// default for every item of one kind.
type ItemDefaults struct {
	Shape   string      `toml:"shape,omitempty"`
	Color   string      `toml:"color,omitempty"`
	Size    []float64   `toml:"size,omitempty"`
	Padding *float64    `toml:"padding,omitempty"`
	Style   model.Style `toml:"style,omitempty"`
}

// Layout selects how Paint places nodes without coordinates.
type Layout struct {
	Engine  string  `toml:"engine"`
	Spacing float64 `toml:"spacing,omitempty"`
	Columns int     `toml:"columns,omitempty"`
	RankDir string  `toml:"rank_dir,omitempty"`
	NodeSep float64 `toml:"node_sep,omitempty"`
	RankSep float64 `toml:"rank_sep,omitempty"`
}

// Server configures the HTTP API.
type Server struct {
	Addr           string        `toml:"addr"`
	RequestTimeout time.Duration `toml:"request_timeout"`
	MaxBodyBytes   int64         `toml:"max_body_bytes"`
}

// Store configures where diagram snapshots are kept.
type Store struct {
	Backend    string        `toml:"backend"`
	Dir        string        `toml:"dir,omitempty"`
	URL        string        `toml:"url,omitempty"`
	Database   string        `toml:"database,omitempty"`
	Collection string        `toml:"collection,omitempty"`
	Prefix     string        `toml:"prefix,omitempty"`
	TTL        time.Duration `toml:"ttl"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Layout: Layout{Engine: EngineGrid},
		Server: Server{
			Addr:           "127.0.0.1:8080",
			RequestTimeout: 30 * time.Second,
			MaxBodyBytes:   4 << 20,
		},
		Store: Store{
			Backend:    BackendFile,
			Database:   "linkgraph",
			Collection: "snapshots",
			TTL:        7 * 24 * time.Hour,
		},
	}
}

// Load reads a TOML file over [Default]. An empty path returns the defaults.
// Unknown keys are rejected so that typos do not pass silently.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	return Parse(data)
}

// Parse decodes TOML data over [Default].
func Parse(data []byte) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, errors.New(errors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks values that TOML decoding cannot.
func (c Config) Validate() error {
	for _, k := range []model.Kind{model.KindNode, model.KindEdge, model.KindGroup} {
		cfg := c.Defaults.of(k).Config(k)
		if k == model.KindEdge {
			// Endpoints are per edge; stand-ins let the rest be checked.
			cfg.Source, cfg.Target = model.ID("source"), model.ID("target")
		}
		if err := cfg.Validate(k); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "defaults.%s", k)
		}
	}
	if !slices.Contains([]string{EngineGrid, EngineGraphviz, EngineNone}, c.Layout.Engine) {
		return errors.New(errors.ErrCodeInvalidConfig, "layout.engine must be grid, graphviz or none, got %q", c.Layout.Engine)
	}
	if c.Layout.Spacing < 0 || c.Layout.Columns < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "layout spacing and columns must not be negative")
	}
	if !slices.Contains([]string{BackendNull, BackendFile, BackendRedis, BackendMongo}, c.Store.Backend) {
		return errors.New(errors.ErrCodeInvalidConfig, "store.backend must be null, file, redis or mongo, got %q", c.Store.Backend)
	}
	if (c.Store.Backend == BackendRedis || c.Store.Backend == BackendMongo) && c.Store.URL == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "store.url is required for the %s backend", c.Store.Backend)
	}
	if c.Store.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "store.ttl must not be negative")
	}
	if c.Server.RequestTimeout < 0 || c.Server.MaxBodyBytes < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server limits must not be negative")
	}
	return nil
}

// =============================================================================
// Wiring
// =============================================================================

func (d Defaults) of(k model.Kind) ItemDefaults {
	switch k {
	case model.KindEdge:
		return d.Edge
	case model.KindGroup:
		return d.Group
	}
	return d.Node
}

// Config converts d into a model configuration for items of kind k. Fields
// that do not apply to the kind are dropped.
func (d ItemDefaults) Config(k model.Kind) model.Config {
	cfg := model.Config{Shape: d.Shape, Color: d.Color, Style: d.Style}
	switch k {
	case model.KindNode:
		if d.Size != nil {
			cfg.Size = model.Size(slices.Clone(d.Size))
		}
	case model.KindGroup:
		cfg.Padding = d.Padding
	}
	return cfg
}

// BuildLayout returns the layout engine named by l, or nil for "none".
func (l Layout) BuildLayout() layout.Layout {
	switch l.Engine {
	case EngineGraphviz:
		return layout.Graphviz{RankDir: l.RankDir, NodeSep: l.NodeSep, RankSep: l.RankSep}
	case EngineNone:
		return nil
	default:
		return layout.Grid{Spacing: l.Spacing, Columns: l.Columns}
	}
}

// DiagramOptions returns the graph options c describes: the layout and the
// item defaults merged over the built-in ones.
func (c Config) DiagramOptions() []diagram.Option {
	base := map[model.Kind]model.Config{
		model.KindNode:  diagram.DefaultNode(),
		model.KindEdge:  diagram.DefaultEdge(),
		model.KindGroup: diagram.DefaultGroup(),
	}
	opts := []diagram.Option{diagram.WithLayout(c.Layout.BuildLayout())}
	for _, k := range []model.Kind{model.KindNode, model.KindEdge, model.KindGroup} {
		over := c.Defaults.of(k).Config(k)
		cfg := base[k].Merge(over)
		if over.Color != "" && over.Style.Stroke == "" {
			cfg.Style.Stroke = ""
		}
		opts = append(opts, diagram.WithDefaults(k, cfg))
	}
	return opts
}
