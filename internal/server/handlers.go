package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/matzehuels/decomptree/pkg/errors"
	"github.com/matzehuels/decomptree/pkg/export"
	"github.com/matzehuels/decomptree/pkg/layout"
	"github.com/matzehuels/decomptree/pkg/pipeline"
	"github.com/matzehuels/decomptree/pkg/session"
	"github.com/matzehuels/decomptree/pkg/tree"
	"github.com/matzehuels/decomptree/pkg/view"
)

// errorResponse is the JSON error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// sessionResponse is the JSON shape of a viewer session.
type sessionResponse struct {
	ID       string     `json:"id"`
	TreeHash string     `json:"tree_hash"`
	State    view.State `json:"state"`
	Visible  int        `json:"visible"`
}

// eventRequest carries one reducer event. Reorder positions are computed
// server-side from the current layout, so clients only send the drop
// coordinate.
type eventRequest struct {
	Type  string  `json:"type"` // toggle, expand_all, collapse_all, sort, reorder
	Path  string  `json:"path,omitempty"`
	Mode  string  `json:"mode,omitempty"`
	DropY float64 `json:"drop_y,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.ErrCodeNotFound, errors.ErrCodeNodeNotFound, errors.ErrCodeColumnNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeInvalidHierarchy, errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidScale, errors.ErrCodeInvalidOverride, errors.ErrCodeInvalidTable,
		errors.ErrCodeUnsupported:
		status = http.StatusBadRequest
	}
	writeJSON(w, status, errorResponse{
		Code:    string(errors.GetCode(err)),
		Message: errors.UserMessage(err),
	})
}

// run executes the pipeline against the server's table. Requests share the
// runner's cache, so after the first render these calls are mostly reads.
func (s *Server) run(r *http.Request, state *view.State, variant export.Variant, formats ...string) (*pipeline.Result, error) {
	return s.runner.Execute(r.Context(), pipeline.Options{
		Config:  s.cfg,
		CSVPath: s.csvPath,
		State:   state,
		Variant: variant,
		Formats: formats,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleTree returns the complete aggregated tree with embedded raw rows.
func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	result, err := s.run(r, nil, export.VariantComplete, pipeline.FormatJSON)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Tree-Hash", result.TreeHash)
	_, _ = w.Write(result.Artifacts[pipeline.FormatJSON])
}

// handleTableCSV streams the loaded table back as RFC 4180 CSV.
func (s *Server) handleTableCSV(w http.ResponseWriter, r *http.Request) {
	result, err := s.run(r, nil, export.VariantComplete, pipeline.FormatJSON)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	_ = export.WriteTableCSV(w, result.Table)
}

// handleExport renders the complete tree in the requested format.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, nil, export.VariantComplete)
}

// handleSessionExport renders a session's current view.
func (s *Server) handleSessionExport(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if sess == nil {
		writeError(w, errors.New(errors.ErrCodeNotFound, "unknown session"))
		return
	}
	s.export(w, r, &sess.State, export.VariantCurrentView)
}

var formatContentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatDOT:  "text/vnd.graphviz",
	pipeline.FormatJSON: "application/json",
}

func (s *Server) export(w http.ResponseWriter, r *http.Request, state *view.State, variant export.Variant) {
	format := chi.URLParam(r, "format")
	if v := r.URL.Query().Get("variant"); v != "" {
		variant = export.Variant(v)
	}
	result, err := s.run(r, state, variant, format)
	if err != nil {
		writeError(w, err)
		return
	}

	// Complete-tree downloads keep the undecorated filename; only the
	// current view gets tagged.
	tag := ""
	if variant == export.VariantCurrentView {
		tag = string(export.VariantCurrentView)
	}
	name := export.Filename(tag, format, time.Now())
	w.Header().Set("Content-Type", formatContentTypes[format])
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	_, _ = w.Write(result.Artifacts[format])
}

// handleNodeRows streams one node's raw rows as CSV. The node is addressed
// by its view path, URL-escaped by the client.
func (s *Server) handleNodeRows(w http.ResponseWriter, r *http.Request) {
	n, err := s.findNode(r)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	if r.URL.Query().Get("spreadsheet") == "true" {
		_ = export.WriteNodeCSVForSpreadsheet(w, n)
		return
	}
	_ = export.WriteNodeCSV(w, n)
}

// handleNodeSubtree returns one node's subtree without raw rows.
func (s *Server) handleNodeSubtree(w http.ResponseWriter, r *http.Request) {
	n, err := s.findNode(r)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = export.WriteSubtreeJSON(w, n)
}

func (s *Server) findNode(r *http.Request) (*tree.Node, error) {
	result, err := s.run(r, nil, export.VariantComplete, pipeline.FormatJSON)
	if err != nil {
		return nil, err
	}
	path := r.URL.Query().Get("path")
	n := view.Find(result.Tree, path)
	if n == nil {
		return nil, errors.New(errors.ErrCodeNodeNotFound, "no node at path %q", path)
	}
	return n, nil
}

// handleCreateSession starts a viewer session with the default view state.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	result, err := s.run(r, nil, export.VariantComplete, pipeline.FormatJSON)
	if err != nil {
		writeError(w, err)
		return
	}
	sess := session.New(result.State, result.TreeHash, session.DefaultTTL)
	if err := s.sessions.Set(r.Context(), sess); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "store session"))
		return
	}
	writeJSON(w, http.StatusCreated, s.sessionResponse(result.Tree, sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, result, err := s.loadSession(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionResponse(result.Tree, sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "delete session"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSessionEvent applies one reducer event to a session's state.
func (s *Server) handleSessionEvent(w http.ResponseWriter, r *http.Request) {
	sess, result, err := s.loadSession(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse event"))
		return
	}

	event, err := s.toEvent(result, sess.State, req)
	if err != nil {
		writeError(w, err)
		return
	}

	sess.State = view.Apply(result.Tree, sess.State, event)
	sess.TreeHash = result.TreeHash
	sess.Touch(session.DefaultTTL)
	if err := s.sessions.Set(r.Context(), sess); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "store session"))
		return
	}
	writeJSON(w, http.StatusOK, s.sessionResponse(result.Tree, sess))
}

func (s *Server) toEvent(result *pipeline.Result, state view.State, req eventRequest) (view.Event, error) {
	switch req.Type {
	case "toggle":
		return view.Toggle{Path: req.Path}, nil
	case "expand_all":
		return view.ExpandAll{}, nil
	case "collapse_all":
		return view.CollapseAll{}, nil
	case "sort":
		return view.SetSort{Mode: tree.ParseSortMode(req.Mode)}, nil
	case "reorder":
		visible := view.Visible(result.Tree, state)
		positions := layout.Compute(visible).Positions()
		return view.Reorder{Path: req.Path, DropY: req.DropY, Positions: positions}, nil
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unknown event type %q", req.Type)
	}
}

// loadSession fetches the session and the current tree, resetting the state
// when the aggregation changed underneath the viewer.
func (s *Server) loadSession(r *http.Request) (*session.Session, *pipeline.Result, error) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "load session")
	}
	if sess == nil {
		return nil, nil, errors.New(errors.ErrCodeNotFound, "unknown session")
	}
	result, err := s.run(r, nil, export.VariantComplete, pipeline.FormatJSON)
	if err != nil {
		return nil, nil, err
	}
	if sess.TreeHash != result.TreeHash {
		sess.State = result.State
		sess.TreeHash = result.TreeHash
	}
	return sess, result, nil
}

func (s *Server) sessionResponse(root *tree.Node, sess *session.Session) sessionResponse {
	return sessionResponse{
		ID:       sess.ID,
		TreeHash: sess.TreeHash,
		State:    sess.State,
		Visible:  view.Visible(root, sess.State).Count(),
	}
}
