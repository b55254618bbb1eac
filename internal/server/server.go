// Package server exposes a planner session over a small JSON HTTP API.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/twiced-technology-gmbh/studyplanner/internal/clierr"
	"github.com/twiced-technology-gmbh/studyplanner/internal/date"
	"github.com/twiced-technology-gmbh/studyplanner/internal/export"
	"github.com/twiced-technology-gmbh/studyplanner/internal/output"
	"github.com/twiced-technology-gmbh/studyplanner/internal/planner"
	"github.com/twiced-technology-gmbh/studyplanner/internal/repository"
	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
	"github.com/twiced-technology-gmbh/studyplanner/internal/view"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithDefaults sets the priority and category of tasks created without one.
func WithDefaults(p task.Priority, c task.Category) Option {
	return func(s *Server) { s.priority, s.category = p, c }
}

// WithExport sets the base options for image export.
func WithExport(o export.Options) Option {
	return func(s *Server) { s.export = o }
}

// WithClock overrides the clock used for projections and export dates.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithLocation sets the zone for deadlines given without one.
func WithLocation(loc *time.Location) Option {
	return func(s *Server) { s.loc = loc }
}

// Server serves one planner session.
type Server struct {
	session  *planner.Session
	log      *slog.Logger
	priority task.Priority
	category task.Category
	export   export.Options
	now      func() time.Time
	loc      *time.Location
}

// New creates a Server for session.
func New(session *planner.Session, opts ...Option) *Server {
	s := &Server{
		session:  session,
		log:      slog.New(slog.DiscardHandler),
		priority: task.Medium,
		category: task.Homework,
		now:      time.Now,
		loc:      time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the API mux without CORS handling.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("GET /api/tasks", s.listTasks)
	mux.HandleFunc("POST /api/tasks", s.createTask)
	mux.HandleFunc("GET /api/tasks/{id}", s.getTask)
	mux.HandleFunc("PUT /api/tasks/{id}", s.updateTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.deleteTask)
	mux.HandleFunc("POST /api/tasks/{id}/toggle", s.toggleTask)

	mux.HandleFunc("GET /api/summary", s.summary)

	mux.HandleFunc("GET /api/selection", s.getSelection)
	mux.HandleFunc("POST /api/selection/all", s.selectAll)
	mux.HandleFunc("POST /api/selection/{id}", s.toggleSelection)
	mux.HandleFunc("DELETE /api/selection", s.clearSelection)

	mux.HandleFunc("POST /api/export", s.exportSelected)
	return mux
}

// Handler returns the API wrapped with CORS for the given origins.
func (s *Server) Handler(allowedOrigins []string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.logRequests(s.Routes()))
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
	})
}

// listResponse is the body of GET /api/tasks.
type listResponse struct {
	output.TaskList
	Loading   bool   `json:"loading"`
	LoadError string `json:"loadError,omitempty"`
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	opts, err := s.viewOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	snap := s.session.Repository().Snapshot()
	resp := listResponse{
		TaskList: output.NewTaskList(opts, view.Project(snap.Tasks, opts, s.now())),
		Loading:  snap.Loading,
	}
	if snap.LoadErr != nil {
		resp.LoadError = snap.LoadErr.Error()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	t, ok := s.session.Get(id)
	if !ok {
		s.writeError(w, task.NotFound(id))
		return
	}
	s.writeJSON(w, http.StatusOK, t)
}

// issued returns the context for a store mutation. Once a mutation reaches
// the store it runs to completion, so a client that disconnects does not
// roll back a write the store may already have committed.
func issued(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	t, err := req.apply(task.Task{Priority: s.priority, Category: s.category}, s.loc)
	if err != nil {
		s.writeError(w, err)
		return
	}
	created, err := s.session.Add(issued(r), t.Draft())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	current, ok := s.session.Get(id)
	if !ok {
		s.writeError(w, task.NotFound(id))
		return
	}
	var req taskRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.empty() {
		s.writeError(w, clierr.New(clierr.NoChanges, "no fields to update"))
		return
	}
	edited, err := req.apply(current, s.loc)
	if err != nil {
		s.writeError(w, err)
		return
	}
	ctx := issued(r)
	updated := current
	if req.edits() {
		if updated, err = s.session.Update(ctx, edited); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if req.IsCompleted != nil && *req.IsCompleted != updated.IsCompleted {
		if updated, err = s.session.Toggle(ctx, id); err != nil {
			s.writeError(w, err)
			return
		}
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Delete(issued(r), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) toggleTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.session.Toggle(issued(r), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, t)
}

func (s *Server) summary(w http.ResponseWriter, _ *http.Request) {
	snap := s.session.Repository().Snapshot()
	s.writeJSON(w, http.StatusOK, view.Summarize(snap.Tasks, s.now()))
}

type selectionResponse struct {
	IDs []string `json:"ids"`
}

func (s *Server) getSelection(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, selectionResponse{IDs: s.session.SelectedIDs()})
}

func (s *Server) toggleSelection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	selected, err := s.session.ToggleSelect(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"id": id, "selected": selected})
}

// selectAll applies the filter and sort given in the query to the session
// before toggling, so "all" means what the caller is looking at.
func (s *Server) selectAll(w http.ResponseWriter, r *http.Request) {
	opts, err := s.viewOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.session.SetFilter(opts.Filter)
	s.session.SetSort(opts.Sort)
	s.session.SetSearch(opts.Search)
	s.session.SelectAll()
	s.writeJSON(w, http.StatusOK, selectionResponse{IDs: s.session.SelectedIDs()})
}

func (s *Server) clearSelection(w http.ResponseWriter, _ *http.Request) {
	s.session.ClearSelection()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) exportSelected(w http.ResponseWriter, r *http.Request) {
	tasks := s.session.Selected()
	if len(tasks) == 0 {
		s.writeError(w, clierr.New(clierr.NothingSelected, "select at least one task to export"))
		return
	}

	opts := s.export
	opts.Now = s.now()
	q := r.URL.Query()
	if v := q.Get("ratio"); v != "" {
		ratio, err := export.ParseRatio(v)
		if err != nil {
			s.writeError(w, err)
			return
		}
		opts.Ratio = ratio
	}
	if v := q.Get("format"); v != "" {
		format, err := export.ParseFormat(v)
		if err != nil {
			s.writeError(w, err)
			return
		}
		opts.Format = format
	}
	if v := q.Get("scale"); v != "" {
		scale, err := export.ParseScale(v)
		if err != nil {
			s.writeError(w, err)
			return
		}
		opts.Scale = scale
	}
	if opts.Format == "" {
		opts.Format = export.PNG
	}

	var buf bytes.Buffer
	if err := export.Render(&buf, tasks, opts); err != nil {
		s.log.Warn("export failed", "error", err)
		s.writeError(w, clierr.Wrap(clierr.ExportFailed, err))
		return
	}
	w.Header().Set("Content-Type", "image/"+string(opts.Format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(opts.Format)))
	_, _ = buf.WriteTo(w)
}

// viewOptions starts from the session's options and applies the filter,
// sort and q query parameters.
func (s *Server) viewOptions(r *http.Request) (view.Options, error) {
	opts := s.session.Options()
	q := r.URL.Query()
	if v := q.Get("filter"); v != "" {
		f, err := view.ParseFilter(v)
		if err != nil {
			return opts, err
		}
		opts.Filter = f
	}
	if v := q.Get("sort"); v != "" {
		by, err := view.ParseSort(v)
		if err != nil {
			return opts, err
		}
		opts.Sort = by
	}
	if q.Has("q") {
		opts.Search = q.Get("q")
	}
	return opts, nil
}

// taskRequest is the body of create and update requests. Absent fields
// keep their current value.
type taskRequest struct {
	Name        *string `json:"name"`
	Subject     *string `json:"subject"`
	Deadline    *string `json:"deadline"`
	Notes       *string `json:"notes"`
	Priority    *string `json:"priority"`
	Category    *string `json:"category"`
	IsCompleted *bool   `json:"isCompleted"`
}

// edits reports whether any editable field is set.
func (req taskRequest) edits() bool {
	return req.Name != nil || req.Subject != nil || req.Deadline != nil || req.Notes != nil ||
		req.Priority != nil || req.Category != nil
}

func (req taskRequest) empty() bool {
	return !req.edits() && req.IsCompleted == nil
}

func (req taskRequest) apply(t task.Task, loc *time.Location) (task.Task, error) {
	if req.Name != nil {
		t.Name = *req.Name
	}
	if req.Subject != nil {
		t.Subject = *req.Subject
	}
	if req.Notes != nil {
		t.Notes = *req.Notes
	}
	if req.Deadline != nil {
		d, err := date.Parse(*req.Deadline, loc)
		if err != nil {
			return t, task.ValidateDate(task.FieldDeadline, *req.Deadline, err)
		}
		t.Deadline = d
	}
	if req.Priority != nil {
		p, err := task.ParsePriority(*req.Priority)
		if err != nil {
			return t, err
		}
		t.Priority = p
	}
	if req.Category != nil {
		c, err := task.ParseCategory(*req.Category)
		if err != nil {
			return t, err
		}
		t.Category = c
	}
	d := t.Draft().WithDefaults(t.Priority, t.Category)
	return t.WithEdits(d), nil
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return clierr.Newf(clierr.InvalidInput, "invalid request body: %v", err)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := output.JSON(w, v); err != nil {
		s.log.Warn("writing response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	cliErr := repository.Classify(err)
	status := statusFor(cliErr.Code)
	if status >= http.StatusInternalServerError {
		s.log.Warn("request failed", "code", cliErr.Code, "error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	output.JSONError(w, cliErr)
}

func statusFor(code string) int {
	switch code {
	case clierr.TaskNotFound:
		return http.StatusNotFound
	case clierr.TaskPending:
		return http.StatusConflict
	case clierr.InvalidInput, clierr.InvalidPriority, clierr.InvalidCategory, clierr.InvalidDate,
		clierr.InvalidTaskID, clierr.InvalidFilter, clierr.InvalidSort, clierr.InvalidRatio,
		clierr.InvalidFormat, clierr.NoChanges, clierr.NothingSelected:
		return http.StatusBadRequest
	case clierr.LoadFailed, clierr.CreateFailed, clierr.UpdateFailed, clierr.DeleteFailed,
		clierr.StoreUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
