package document

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/linkgraph/pkg/diagram"
	"github.com/matzehuels/linkgraph/pkg/errors"
	"github.com/matzehuels/linkgraph/pkg/model"
)

const sampleTOML = `
title = "services"

[[groups]]
id = "backend"

[[nodes]]
id = "api"
x = 100.0
y = 100.0
group = "backend"

[[nodes]]
id = "db"
shape = "rect"
size = [60.0, 30.0]
group = "backend"

[nodes.style]
fill = "#EEEEEE"

[[edges]]
source = "api"
target = "db"
label = "queries"
`

const sampleJSON = `{
  "title": "services",
  "groups": [{"id": "backend"}],
  "nodes": [
    {"id": "api", "x": 100, "y": 100, "group": "backend"},
    {"id": "db", "shape": "rect", "size": [60, 30], "group": "backend", "style": {"fill": "#EEEEEE"}}
  ],
  "edges": [{"source": "api", "target": "db", "label": "queries"}]
}`

func TestDecode(t *testing.T) {
	tests := []struct {
		format string
		data   string
	}{
		{FormatTOML, sampleTOML},
		{FormatJSON, sampleJSON},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			doc, err := Parse([]byte(tt.data), tt.format)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if doc.Title != "services" || doc.Len() != 4 {
				t.Fatalf("doc = %+v", doc)
			}
			db := doc.Nodes[1]
			if db.Shape != "rect" || len(db.Size) != 2 || db.Style.Fill != "#EEEEEE" {
				t.Errorf("db = %+v", db)
			}
			if doc.Edges[0].Source != "api" || doc.Edges[0].Target != "db" {
				t.Errorf("edge = %+v", doc.Edges[0])
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name   string
		format string
		data   string
	}{
		{"bad json", FormatJSON, `{"nodes": [`},
		{"unknown json field", FormatJSON, `{"vertices": []}`},
		{"bad toml", FormatTOML, `[[nodes]`},
		{"unknown toml key", FormatTOML, "[[nodes]]\nidd = \"a\""},
		{"unknown format", "yaml", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), tt.format)
			if !errors.Is(err, errors.ErrCodeInvalidFormat) {
				t.Errorf("Parse error = %v, want INVALID_FORMAT", err)
			}
		})
	}
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"a.json", FormatJSON, true},
		{"dir/B.TOML", FormatTOML, true},
		{"a.yaml", "", false},
		{"noext", "", false},
	}
	for _, tt := range tests {
		got, err := FormatOf(tt.path)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("FormatOf(%q) = %q, %v", tt.path, got, err)
		}
	}
}

func TestLoad(t *testing.T) {
	doc, err := Parse([]byte(sampleTOML), FormatTOML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	g := diagram.New()
	n, err := Load(g, doc)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n != 4 {
		t.Errorf("Load added %d items, want 4", n)
	}
	if got := len(g.Members(model.ID("backend"))); got != 2 {
		t.Errorf("backend has %d members, want 2", got)
	}
	edges := g.EdgesOf(model.ID("api"))
	if len(edges) != 1 || !edges[0].Resolved() || edges[0].Label() != "queries" {
		t.Errorf("EdgesOf(api) = %v", edges)
	}
	if err := g.Check(); err != nil {
		t.Errorf("Check: %v", err)
	}
}

func TestLoadCollectsErrors(t *testing.T) {
	doc := &Document{
		Nodes: []Item{
			{ID: "a"},
			{ID: "a"},
			{ID: "b", Shape: "line"},
			{ID: "c"},
		},
		Edges: []Item{
			{Source: "a", Target: "c"},
			{Source: "a"},
			{Source: "a", Target: "ghost"},
		},
	}
	g := diagram.New()
	n, err := Load(g, doc)
	if err == nil {
		t.Fatal("Load should report the bad entries")
	}
	// a, c, a->c and the unresolved a->ghost.
	if n != 4 {
		t.Errorf("Load added %d items, want 4", n)
	}
	msg := err.Error()
	for _, want := range []string{`nodes[1] "a"`, `nodes[2] "b"`, "edges[1]"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q does not mention %s", msg, want)
		}
	}
	if !errors.Is(err, errors.ErrCodeDuplicateID) {
		t.Errorf("error chain should carry DUPLICATE_ID: %v", err)
	}
	if got := len(g.Edges()); got != 2 {
		t.Errorf("%d edges, want 2", got)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	g := diagram.New()
	if _, err := g.AddGroup(model.Config{ID: "grp", Padding: model.Float(4)}); err != nil {
		t.Fatal(err)
	}
	a, _ := g.AddNode(model.Config{ID: "a", X: model.Float(10), Y: model.Float(20), Group: "grp"})
	b, _ := g.AddNode(model.Config{ID: "b", Label: "B"})
	if _, err := g.AddEdge(a, b, model.Config{ID: "ab", Shape: model.ShapeQuadratic, CurveOffset: model.Float(15)}); err != nil {
		t.Fatal(err)
	}
	if _, err := g.AddEdge(a, model.ID("nowhere"), model.Config{ID: "dangling"}); err != nil {
		t.Fatal(err)
	}
	_ = g.HideItem(b)

	for _, format := range []string{FormatJSON, FormatTOML} {
		t.Run(format, func(t *testing.T) {
			data, err := Marshal(Snapshot(g), format)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			doc, err := Parse(data, format)
			if err != nil {
				t.Fatalf("Parse: %v\n%s", err, data)
			}

			h := diagram.New()
			if _, err := Load(h, doc); err != nil {
				t.Fatalf("Load: %v", err)
			}
			if h.Len(model.KindNode) != 2 || h.Len(model.KindEdge) != 2 || h.Len(model.KindGroup) != 1 {
				t.Fatalf("counts = %d/%d/%d", h.Len(model.KindNode), h.Len(model.KindEdge), h.Len(model.KindGroup))
			}
			it, _ := h.FindByID("b")
			if it.Visible() || it.Config().Label != "B" {
				t.Errorf("b = visible %v label %q", it.Visible(), it.Config().Label)
			}
			it, _ = h.FindByID("ab")
			e := it.(*model.Edge)
			if e.Shape() != model.ShapeQuadratic || e.CurveOffset() != 15 {
				t.Errorf("ab = %s offset %v", e.Shape(), e.CurveOffset())
			}
			it, _ = h.FindByID("dangling")
			if it.(*model.Edge).Resolved() {
				t.Error("dangling edge resolved after round trip")
			}
			it, _ = h.FindByID("a")
			if n := it.(*model.Node); n.Group() != "grp" {
				t.Errorf("a.Group() = %q", n.Group())
			}
		})
	}
}

func TestFileRoundTrip(t *testing.T) {
	g := diagram.New()
	_, _ = g.AddNode(model.Config{ID: "solo", Size: model.Size{30}})

	path := filepath.Join(t.TempDir(), "diagram.toml")
	if err := WriteFile(path, Snapshot(g)); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	doc, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(doc.Nodes) != 1 || doc.Nodes[0].ID != "solo" {
		t.Errorf("doc = %+v", doc)
	}
}

func TestEncodeUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, &Document{}, "xml"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Encode error = %v", err)
	}
}
