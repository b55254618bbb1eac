// Package planner wires the task repository, the view, the selection and
// the confirmation gate into one session used by every surface.
package planner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/twiced-technology-gmbh/studyplanner/internal/gate"
	"github.com/twiced-technology-gmbh/studyplanner/internal/repository"
	"github.com/twiced-technology-gmbh/studyplanner/internal/selection"
	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
	"github.com/twiced-technology-gmbh/studyplanner/internal/view"
)

// Option configures a Session.
type Option func(*Session)

// WithView sets the initial filter, sort and locale.
func WithView(o view.Options) Option {
	return func(s *Session) { s.opts = o }
}

// WithClock overrides the clock used for filtering.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// Session is the state behind one planner screen. It is safe for
// concurrent use.
type Session struct {
	repo  *repository.Repository
	sel   *selection.Tracker
	gate  *gate.Gate
	now   func() time.Time
	unsub func()

	mu   sync.Mutex
	opts view.Options
}

// New returns a session over repo. The selection follows repository
// changes: deleted tasks are dropped, confirmed ids are renamed and a load
// prunes ids that no longer exist.
func New(repo *repository.Repository, opts ...Option) *Session {
	s := &Session{
		repo: repo,
		sel:  selection.New(),
		gate: &gate.Gate{},
		now:  time.Now,
		opts: view.Options{Filter: view.All, Sort: view.ByDeadline},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.unsub = repo.Subscribe(s.follow)
	return s
}

func (s *Session) follow(c repository.Change) {
	switch c.Kind {
	case repository.Removed, repository.RolledBack:
		if _, ok := c.Snapshot.Find(c.ID); !ok {
			s.sel.Reconcile(c.ID)
		}
	case repository.Confirmed:
		s.sel.Rename(c.PrevID, c.ID)
	case repository.Loaded:
		s.sel.Retain(c.Snapshot.IDs())
	}
}

// Close detaches the session from the repository.
func (s *Session) Close() {
	s.unsub()
}

// Repository returns the underlying repository.
func (s *Session) Repository() *repository.Repository { return s.repo }

// Gate returns the session's confirmation gate.
func (s *Session) Gate() *gate.Gate { return s.gate }

// Load reloads the collection from the store.
func (s *Session) Load(ctx context.Context) error {
	return s.repo.Load(ctx)
}

// Options returns the current view options.
func (s *Session) Options() view.Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts
}

// SetFilter changes the filter mode.
func (s *Session) SetFilter(f view.Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.Filter = f
}

// SetSort changes the sort mode.
func (s *Session) SetSort(by view.Sort) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.Sort = by
}

// SetSearch changes the search text.
func (s *Session) SetSearch(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.Search = q
}

// Visible returns the projection of the collection under the current
// options.
func (s *Session) Visible() []task.Task {
	return view.Project(s.repo.Snapshot().Tasks, s.Options(), s.now())
}

// VisibleIDs returns the ids of Visible in order.
func (s *Session) VisibleIDs() []string {
	return view.IDs(s.Visible())
}

// ToggleSelect flips the selection of id and reports whether it is now
// selected. Unknown ids are never selected.
func (s *Session) ToggleSelect(id string) (bool, error) {
	if _, ok := s.repo.Get(id); !ok {
		return false, fmt.Errorf("%w: %s", repository.ErrNotFound, id)
	}
	return s.sel.Toggle(id), nil
}

// SelectAll selects every visible task, or clears the selection when it
// already equals the visible set.
func (s *Session) SelectAll() {
	s.sel.SelectAll(s.VisibleIDs())
}

// IsSelected reports whether id is selected.
func (s *Session) IsSelected(id string) bool {
	return s.sel.Has(id)
}

// SelectedIDs returns the selected ids, sorted.
func (s *Session) SelectedIDs() []string {
	return s.sel.IDs()
}

// ClearSelection deselects everything.
func (s *Session) ClearSelection() {
	s.sel.Clear()
}

// Selected returns the selected tasks in collection order. This is the
// set an export renders.
func (s *Session) Selected() []task.Task {
	var out []task.Task
	for _, t := range s.repo.Snapshot().Tasks {
		if s.sel.Has(t.ID) {
			out = append(out, t)
		}
	}
	return out
}

// Get returns the task with the given id.
func (s *Session) Get(id string) (task.Task, bool) {
	return s.repo.Get(id)
}

// Add creates a task.
func (s *Session) Add(ctx context.Context, d task.Draft) (task.Task, error) {
	return s.repo.Add(ctx, d)
}

// Update saves an edited task.
func (s *Session) Update(ctx context.Context, t task.Task) (task.Task, error) {
	return s.repo.Update(ctx, t)
}

// Delete removes a task without asking.
func (s *Session) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Toggle flips completion without asking.
func (s *Session) Toggle(ctx context.Context, id string) (task.Task, error) {
	return s.repo.ToggleComplete(ctx, id)
}

// RequestDelete puts the deletion of id behind the gate and returns the
// prompt to show.
func (s *Session) RequestDelete(id string) (gate.Prompt, error) {
	t, ok := s.repo.Get(id)
	if !ok {
		return gate.Prompt{}, fmt.Errorf("%w: %s", repository.ErrNotFound, id)
	}
	p := gate.DeletePrompt(t)
	s.gate.Request(p, func(ctx context.Context) error {
		return s.repo.Delete(ctx, id)
	})
	return p, nil
}

// RequestToggle puts completing id behind the gate. When no confirmation
// is needed it returns false and the caller should call Toggle directly.
func (s *Session) RequestToggle(id string) (gate.Prompt, bool, error) {
	t, ok := s.repo.Get(id)
	if !ok {
		return gate.Prompt{}, false, fmt.Errorf("%w: %s", repository.ErrNotFound, id)
	}
	p, gated := gate.TogglePrompt(t)
	if !gated {
		return gate.Prompt{}, false, nil
	}
	s.gate.Request(p, func(ctx context.Context) error {
		_, err := s.repo.ToggleComplete(ctx, id)
		return err
	})
	return p, true, nil
}
