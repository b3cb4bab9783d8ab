package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/crewviz/pkg/buildinfo"
	errs "github.com/matzehuels/crewviz/pkg/errors"
	"github.com/matzehuels/crewviz/pkg/httputil"
	"github.com/matzehuels/crewviz/pkg/layout"
	"github.com/matzehuels/crewviz/pkg/pipeline"
	"github.com/matzehuels/crewviz/pkg/store"
	"github.com/matzehuels/crewviz/pkg/workflow"
)

// =============================================================================
// Request parsing
// =============================================================================

// pipelineOptions builds run options from the server configuration and the
// strategy, center, center_x, detailed, renderer and refresh query parameters.
func (s *Server) pipelineOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	cfg := s.layout.Clone()

	if v := q.Get("strategy"); v != "" {
		strategy, err := layout.ParseStrategy(v)
		if err != nil {
			return pipeline.Options{}, errs.Wrap(errs.ErrCodeInvalidStrategy, err, "invalid strategy %q", v)
		}
		cfg.Strategy = strategy
	}
	if v := q.Get("center"); v != "" {
		center, err := strconv.ParseBool(v)
		if err != nil {
			return pipeline.Options{}, errs.New(errs.ErrCodeInvalidInput, "center must be a boolean, got %q", v)
		}
		cfg.Center = center
	}
	if v := q.Get("center_x"); v != "" {
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return pipeline.Options{}, errs.New(errs.ErrCodeInvalidInput, "center_x must be a number, got %q", v)
		}
		cfg.Center = true
		cfg.ViewportCenterX = x
	}

	opts := pipeline.Options{
		Layout:   &cfg,
		Renderer: q.Get("renderer"),
		Logger:   s.logger,
	}
	opts.Detailed, _ = strconv.ParseBool(q.Get("detailed"))
	opts.Refresh, _ = strconv.ParseBool(q.Get("refresh"))
	return opts, nil
}

func readGraph(w http.ResponseWriter, r *http.Request) (workflow.Graph, error) {
	g, err := workflow.ReadGraph(http.MaxBytesReader(w, r.Body, httputil.MaxBodySize))
	if err != nil {
		return workflow.Graph{}, errs.Wrap(errs.ErrCodeInvalidDocument, err, "request body is not a workflow document")
	}
	return g, nil
}

func (s *Server) loadStored(r *http.Request) (*store.Document, error) {
	id := chi.URLParam(r, "id")
	doc, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errs.Wrap(errs.ErrCodeWorkflowNotFound, err, "workflow %s not found", id)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "load workflow %s", id)
	}
	return doc, nil
}

// layoutFor positions g with the request's options.
func (s *Server) layoutFor(r *http.Request, g workflow.Graph) (workflow.Graph, pipeline.Options, error) {
	opts, err := s.pipelineOptions(r)
	if err != nil {
		return workflow.Graph{}, opts, err
	}
	positioned, err := s.runner.Layout(r.Context(), g, opts)
	if err != nil {
		return workflow.Graph{}, opts, err
	}
	return positioned, opts, nil
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleDefault(w http.ResponseWriter, r *http.Request) {
	g, err := s.runner.Load(r.Context(), s.def)
	if err != nil {
		writeError(w, r, err)
		return
	}
	positioned, _, err := s.layoutFor(r, g)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, positioned)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	g, err := readGraph(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	positioned, _, err := s.layoutFor(r, g)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, positioned)
}

type listResponse struct {
	Workflows []store.Summary `json:"workflows"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, r, errs.Wrap(errs.ErrCodeInternal, err, "list workflows"))
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Workflows: list})
}

type createRequest struct {
	Name  string         `json:"name"`
	Graph workflow.Graph `json:"graph"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, httputil.MaxBodySize))
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, errs.Wrap(errs.ErrCodeInvalidDocument, err, "request body must be {\"name\", \"graph\"}"))
		return
	}
	if err := errs.ValidateName(req.Name); err != nil {
		writeError(w, r, err)
		return
	}
	for _, issue := range workflow.Validate(req.Graph).Issues {
		s.logger.Warn("stored workflow issue", "name", req.Name, "issue", issue.String())
	}

	doc := &store.Document{Name: req.Name, Graph: req.Graph}
	if err := s.store.Save(r.Context(), doc); err != nil {
		writeError(w, r, errs.Wrap(errs.ErrCodeInternal, err, "save workflow"))
		return
	}
	w.Header().Set("Location", "/api/v1/workflows/"+doc.ID)
	writeJSON(w, http.StatusCreated, doc.Summarize())
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	doc, err := s.loadStored(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.store.Delete(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, r, errs.Wrap(errs.ErrCodeWorkflowNotFound, err, "workflow %s not found", id))
	case err != nil:
		writeError(w, r, errs.Wrap(errs.ErrCodeInternal, err, "delete workflow %s", id))
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleStoredLayout(w http.ResponseWriter, r *http.Request) {
	doc, err := s.loadStored(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	positioned, _, err := s.layoutFor(r, doc.Graph)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, positioned)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := s.loadStored(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	positioned, opts, err := s.layoutFor(r, doc.Graph)
	if err != nil {
		writeError(w, r, err)
		return
	}

	opts.Formats = []string{format}
	artifacts, err := s.runner.Render(r.Context(), positioned, opts)
	if err != nil {
		if errs.GetCode(err) == "" {
			err = errs.Wrap(errs.ErrCodeUnsupported, err, "cannot render %s", format)
		}
		writeError(w, r, err)
		return
	}
	writeArtifact(w, format, artifacts[format])
}
