package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/linkgraph/pkg/diagram"
	"github.com/matzehuels/linkgraph/pkg/document"
	"github.com/matzehuels/linkgraph/pkg/errors"
	"github.com/matzehuels/linkgraph/pkg/model"
	"github.com/matzehuels/linkgraph/pkg/pipeline"
)

// =============================================================================
// Wire types
// =============================================================================

type diagramInfo struct {
	ID       string    `json:"id"`
	Title    string    `json:"title,omitempty"`
	Items    int       `json:"items"`
	Created  time.Time `json:"created"`
	Added    *int      `json:"added,omitempty"`
	Rejected []string  `json:"rejected,omitempty"`
}

type itemRequest struct {
	Kind string `json:"kind"`
	document.Item
}

type itemView struct {
	Kind string `json:"kind"`
	document.Item
	Resolved *bool `json:"resolved,omitempty"`
	Drawn    bool  `json:"drawn"`
}

type paintInfo struct {
	Nodes  int `json:"nodes"`
	Edges  int `json:"edges"`
	Groups int `json:"groups"`
	Passes int `json:"passes"`
}

// =============================================================================
// Helpers
// =============================================================================

// decode reads a JSON body of at most maxBody bytes into v. An empty body
// leaves v untouched when optional is set.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any, optional bool) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		if optional {
			return nil
		}
		return errors.New(errors.ErrCodeInvalidInput, "request body is empty")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request body")
	}
	return nil
}

// lookup returns the diagram named in the URL. It must run on the loop.
func (s *Server) lookup(r *http.Request) (*entry, error) {
	id := chi.URLParam(r, "id")
	e, ok := s.diagrams[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "diagram %q not found", id)
	}
	return e, nil
}

// withDiagram runs fn on the loop with the diagram named in the URL.
func (s *Server) withDiagram(r *http.Request, fn func(e *entry) error) error {
	return s.loop.Do(r.Context(), func() error {
		e, err := s.lookup(r)
		if err != nil {
			return err
		}
		return fn(e)
	})
}

func (s *Server) newGraph() *diagram.Graph {
	opts := slices.Clone(s.graphOpt)
	opts = append(opts, diagram.WithLoop(s.loop), diagram.WithLogger(s.logger))
	return diagram.New(opts...)
}

func info(id string, e *entry) diagramInfo {
	return diagramInfo{
		ID:      id,
		Title:   e.title,
		Items:   len(e.graph.ItemMap()),
		Created: e.created,
	}
}

func viewOf(g *diagram.Graph, it model.Item) itemView {
	v := itemView{
		Kind:  string(it.Kind()),
		Item:  document.ItemOf(it),
		Drawn: g.IsVisible(it),
	}
	if e, ok := it.(*model.Edge); ok {
		v.Resolved = model.Bool(e.Resolved())
	}
	return v
}

func loadErrors(err error) []string {
	if err == nil {
		return nil
	}
	return strings.Split(err.Error(), "\n")
}

// =============================================================================
// Diagrams
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	err := s.loop.Do(r.Context(), func() error { return nil })
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListDiagrams(w http.ResponseWriter, r *http.Request) {
	var out []diagramInfo
	err := s.loop.Do(r.Context(), func() error {
		out = make([]diagramInfo, 0, len(s.diagrams))
		for id, e := range s.diagrams {
			out = append(out, info(id, e))
		}
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	slices.SortFunc(out, func(a, b diagramInfo) int {
		if c := a.Created.Compare(b.Created); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateDiagram(w http.ResponseWriter, r *http.Request) {
	var doc document.Document
	if err := s.decode(w, r, &doc, true); err != nil {
		writeError(w, err)
		return
	}

	id := uuid.NewString()
	var out diagramInfo
	err := s.loop.Do(r.Context(), func() error {
		e := &entry{graph: s.newGraph(), title: doc.Title, created: time.Now()}
		added, loadErr := document.Load(e.graph, &doc)
		s.diagrams[id] = e
		out = info(id, e)
		out.Added = &added
		out.Rejected = loadErrors(loadErr)
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	s.logger.Info("created diagram", "id", id, "items", out.Items)
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleGetDiagram(w http.ResponseWriter, r *http.Request) {
	var doc *document.Document
	err := s.withDiagram(r, func(e *entry) error {
		doc = document.Snapshot(e.graph)
		doc.Title = e.title
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDiagram(w http.ResponseWriter, r *http.Request) {
	err := s.withDiagram(r, func(e *entry) error {
		e.graph.Clear()
		delete(s.diagrams, chi.URLParam(r, "id"))
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePaint(w http.ResponseWriter, r *http.Request) {
	var out paintInfo
	err := s.withDiagram(r, func(e *entry) error {
		if err := e.graph.Paint(r.Context()); err != nil {
			return err
		}
		out = paintInfo{
			Nodes:  e.graph.Len(model.KindNode),
			Edges:  e.graph.Len(model.KindEdge),
			Groups: e.graph.Len(model.KindGroup),
			Passes: e.graph.Stats().Passes,
		}
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	opts := pipeline.Options{Margin: pipeline.DefaultMargin, Background: r.URL.Query().Get("background")}
	if m := r.URL.Query().Get("margin"); m != "" {
		v, err := strconv.ParseFloat(m, 64)
		if err != nil || v < 0 {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "margin must be a non-negative number"))
			return
		}
		opts.Margin = v
	}
	opts.NoLabels = r.URL.Query().Get("labels") == "false"

	var svg []byte
	err := s.withDiagram(r, func(e *entry) error {
		if err := e.graph.Refresh(); err != nil {
			return err
		}
		var err error
		svg, err = pipeline.Render(e.graph, pipeline.FormatSVG, opts)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

// =============================================================================
// Snapshots
// =============================================================================

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var doc *document.Document
	err := s.withDiagram(r, func(e *entry) error {
		doc = document.Snapshot(e.graph)
		doc.Title = e.title
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := document.Marshal(doc, document.FormatJSON)
	if err == nil {
		err = s.store.Set(r.Context(), s.keyer.SnapshotKey(id), data, s.ttl)
	}
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "save snapshot"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "items": doc.Len(), "bytes": len(data)})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	data, ok, err := s.store.Get(r.Context(), s.keyer.SnapshotKey(id))
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "load snapshot"))
		return
	}
	if !ok {
		writeError(w, errors.New(errors.ErrCodeNotFound, "no snapshot saved for diagram %q", id))
		return
	}
	doc, err := document.Parse(data, document.FormatJSON)
	if err != nil {
		writeError(w, err)
		return
	}

	var out diagramInfo
	err = s.loop.Do(r.Context(), func() error {
		e, ok := s.diagrams[id]
		if !ok {
			e = &entry{graph: s.newGraph(), created: time.Now()}
			s.diagrams[id] = e
		}
		e.graph.Clear()
		e.title = doc.Title
		added, loadErr := document.Load(e.graph, doc)
		out = info(id, e)
		out.Added = &added
		out.Rejected = loadErrors(loadErr)
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// Items
// =============================================================================

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := s.decode(w, r, &req, false); err != nil {
		writeError(w, err)
		return
	}
	kind, err := model.ParseKind(req.Kind)
	if err != nil {
		writeError(w, err)
		return
	}

	var out itemView
	err = s.withDiagram(r, func(e *entry) error {
		cfg := req.Config()
		cfg.Source, cfg.Target = req.Endpoints()
		it, err := e.graph.AddItem(kind, cfg)
		if err != nil {
			return err
		}
		out = viewOf(e.graph, it)
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	var out itemView
	err := s.withDiagram(r, func(e *entry) error {
		id := chi.URLParam(r, "item")
		it, ok := e.graph.FindByID(id)
		if !ok {
			return errors.NotFound(id)
		}
		out = viewOf(e.graph, it)
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var patch document.Item
	if err := s.decode(w, r, &patch, false); err != nil {
		writeError(w, err)
		return
	}

	var out itemView
	err := s.withDiagram(r, func(e *entry) error {
		id := model.ID(chi.URLParam(r, "item"))
		cfg := patch.Config()
		cfg.Source, cfg.Target = patch.Endpoints()
		if err := e.graph.Update(id, cfg); err != nil {
			return err
		}
		it, _ := e.graph.FindByID(id.ID())
		out = viewOf(e.graph, it)
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	err := s.withDiagram(r, func(e *entry) error {
		return e.graph.RemoveItem(model.ID(chi.URLParam(r, "item")))
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleShowItem(w http.ResponseWriter, r *http.Request) {
	s.setVisible(w, r, true)
}

func (s *Server) handleHideItem(w http.ResponseWriter, r *http.Request) {
	s.setVisible(w, r, false)
}

func (s *Server) setVisible(w http.ResponseWriter, r *http.Request, visible bool) {
	var out itemView
	err := s.withDiagram(r, func(e *entry) error {
		id := model.ID(chi.URLParam(r, "item"))
		op := e.graph.HideItem
		if visible {
			op = e.graph.ShowItem
		}
		if err := op(id); err != nil {
			return err
		}
		it, _ := e.graph.FindByID(id.ID())
		out = viewOf(e.graph, it)
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
