// Package document reads and writes diagrams as JSON or TOML files.
//
// A document lists groups, nodes and edges with their configuration. Edge
// endpoints and node groups are plain ids:
//
//	[[nodes]]
//	id = "api"
//	x = 100.0
//	y = 100.0
//
//	[[nodes]]
//	id = "db"
//
//	[[edges]]
//	source = "api"
//	target = "db"
//	label = "queries"
//
// [Load] applies a document to a [diagram.Graph] through its public API, so
// every entry is validated exactly like a direct AddItem call. [Snapshot]
// captures a graph back into a document.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/linkgraph/pkg/diagram"
	"github.com/matzehuels/linkgraph/pkg/errors"
	"github.com/matzehuels/linkgraph/pkg/model"
)

// Supported encodings.
const (
	FormatJSON = "json"
	FormatTOML = "toml"
)

// Document is the file representation of a diagram.
type Document struct {
	Title  string `json:"title,omitempty" toml:"title,omitempty"`
	Groups []Item `json:"groups,omitempty" toml:"groups,omitempty"`
	Nodes  []Item `json:"nodes,omitempty" toml:"nodes,omitempty"`
	Edges  []Item `json:"edges,omitempty" toml:"edges,omitempty"`
}

// Item is one entry of a document. Which fields apply depends on the list
// it appears in.
type Item struct {
	ID          string      `json:"id,omitempty" toml:"id,omitempty"`
	Shape       string      `json:"shape,omitempty" toml:"shape,omitempty"`
	Color       string      `json:"color,omitempty" toml:"color,omitempty"`
	Label       string      `json:"label,omitempty" toml:"label,omitempty"`
	X           *float64    `json:"x,omitempty" toml:"x,omitempty"`
	Y           *float64    `json:"y,omitempty" toml:"y,omitempty"`
	Size        []float64   `json:"size,omitempty" toml:"size,omitempty"`
	Group       string      `json:"group,omitempty" toml:"group,omitempty"`
	Source      string      `json:"source,omitempty" toml:"source,omitempty"`
	Target      string      `json:"target,omitempty" toml:"target,omitempty"`
	CurveOffset *float64    `json:"curveOffset,omitempty" toml:"curve_offset,omitempty"`
	Padding     *float64    `json:"padding,omitempty" toml:"padding,omitempty"`
	Visible     *bool       `json:"visible,omitempty" toml:"visible,omitempty"`
	Style       model.Style `json:"style,omitzero" toml:"style,omitempty"`
}

// Len returns the number of entries in d.
func (d *Document) Len() int { return len(d.Groups) + len(d.Nodes) + len(d.Edges) }

// =============================================================================
// Decoding
// =============================================================================

// FormatOf returns the format implied by a file extension.
func FormatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "cannot tell the format of %q (want .json or .toml)", path)
}

// Decode reads a document in the given format.
func Decode(r io.Reader, format string) (*Document, error) {
	var doc Document
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json document")
		}
	case FormatTOML:
		md, err := toml.NewDecoder(r).Decode(&doc)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode toml document")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown document key %s", undecoded[0])
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported document format %q", format)
	}
	return &doc, nil
}

// ReadFile reads a document, choosing the format from the extension.
func ReadFile(path string) (*Document, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()
	return Decode(f, format)
}

// Parse decodes a document held in memory.
func Parse(data []byte, format string) (*Document, error) {
	return Decode(bytes.NewReader(data), format)
}

// =============================================================================
// Encoding
// =============================================================================

// Encode writes d in the given format.
func Encode(w io.Writer, d *Document, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	case FormatTOML:
		return toml.NewEncoder(w).Encode(d)
	}
	return errors.New(errors.ErrCodeInvalidFormat, "unsupported document format %q", format)
}

// Marshal returns d encoded in the given format.
func Marshal(d *Document, format string) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, d, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes d to path, choosing the format from the extension.
func WriteFile(path string, d *Document) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	data, err := Marshal(d, format)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// =============================================================================
// Graph conversion
// =============================================================================

// Load adds every entry of d to g: groups first, then nodes, then edges.
// Entries that fail are skipped and their errors collected; the rest are
// applied. It returns the number of items added.
func Load(g *diagram.Graph, d *Document) (int, error) {
	var (
		added int
		errs  []error
	)
	apply := func(k model.Kind, list []Item) {
		for i, it := range list {
			cfg := it.Config()
			var err error
			if k == model.KindEdge {
				src, dst := it.Endpoints()
				_, err = g.AddEdge(src, dst, cfg)
			} else {
				_, err = g.AddItem(k, cfg)
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("%ss[%d]%s: %w", k, i, label(it.ID), err))
				continue
			}
			added++
		}
	}
	apply(model.KindGroup, d.Groups)
	apply(model.KindNode, d.Nodes)
	apply(model.KindEdge, d.Edges)
	return added, errors.Join(errs...)
}

// Snapshot captures the items of g as a document. Edge endpoints and node
// groups are written as the ids currently recorded by the graph.
func Snapshot(g *diagram.Graph) *Document {
	d := &Document{}
	for _, grp := range g.Groups() {
		d.Groups = append(d.Groups, ItemOf(grp))
	}
	for _, n := range g.Nodes() {
		d.Nodes = append(d.Nodes, ItemOf(n))
	}
	for _, e := range g.Edges() {
		d.Edges = append(d.Edges, ItemOf(e))
	}
	return d
}

// Config converts it to a model configuration. Source and Target are left
// unset; callers pass endpoints explicitly (see [Item.Endpoints]).
func (it Item) Config() model.Config {
	cfg := model.Config{
		ID:          it.ID,
		Shape:       it.Shape,
		Color:       it.Color,
		Label:       it.Label,
		X:           it.X,
		Y:           it.Y,
		Group:       it.Group,
		CurveOffset: it.CurveOffset,
		Padding:     it.Padding,
		Visible:     it.Visible,
		Style:       it.Style,
	}
	if it.Size != nil {
		cfg.Size = model.Size(slices.Clone(it.Size))
	}
	return cfg
}

// Endpoints returns the edge endpoints of it as references, nil when unset.
func (it Item) Endpoints() (source, target model.Ref) {
	return ref(it.Source), ref(it.Target)
}

// ItemOf captures a live item. Visibility is the item's own flag.
func ItemOf(m model.Item) Item {
	cfg := m.Config()
	it := Item{
		ID:          cfg.ID,
		Shape:       cfg.Shape,
		Color:       cfg.Color,
		Label:       cfg.Label,
		X:           cfg.X,
		Y:           cfg.Y,
		Size:        slices.Clone([]float64(cfg.Size)),
		CurveOffset: cfg.CurveOffset,
		Padding:     cfg.Padding,
		Style:       cfg.Style,
	}
	if !m.Visible() {
		it.Visible = model.Bool(false)
	}
	switch v := m.(type) {
	case *model.Node:
		it.Group = v.Group()
	case *model.Edge:
		it.Source, it.Target = v.Source(), v.Target()
	}
	return it
}

// ref turns an id into an edge endpoint. An empty id stays nil so the graph
// reports the missing endpoint.
func ref(id string) model.Ref {
	if id == "" {
		return nil
	}
	return model.ID(id)
}

func label(id string) string {
	if id == "" {
		return ""
	}
	return fmt.Sprintf(" %q", id)
}
