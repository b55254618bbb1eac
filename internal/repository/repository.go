// Package repository holds the in-memory task collection and keeps it in
// step with a store.Store. Mutations are applied locally first and then
// confirmed by the store; a failed store call rolls the local change back.
package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/twiced-technology-gmbh/studyplanner/internal/store"
	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
)

// TempIDPrefix marks ids that the store has not confirmed yet.
const TempIDPrefix = "tmp-"

// Sentinel errors. Store failures are wrapped so that errors.Is matches
// both the kind and the store's own error.
var (
	ErrLoad     = errors.New("loading tasks")
	ErrCreate   = errors.New("creating task")
	ErrUpdate   = errors.New("updating task")
	ErrDelete   = errors.New("deleting task")
	ErrNotFound = errors.New("task not found")
	ErrPending  = errors.New("task is still being created")
)

// Snapshot is an immutable view of the collection. Tasks must not be
// modified by callers.
type Snapshot struct {
	Tasks   []task.Task
	Loading bool
	LoadErr error
}

// Find returns the task with the given id.
func (s Snapshot) Find(id string) (task.Task, bool) {
	if i := indexOf(s.Tasks, id); i >= 0 {
		return s.Tasks[i], true
	}
	return task.Task{}, false
}

// IDs returns the ids in collection order.
func (s Snapshot) IDs() []string {
	ids := make([]string, len(s.Tasks))
	for i, t := range s.Tasks {
		ids[i] = t.ID
	}
	return ids
}

// Journal records mutation outcomes. activity.Log implements it.
type Journal interface {
	Record(action, taskID, detail string)
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger used for failures.
func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) { r.log = l }
}

// WithJournal records every mutation outcome in j.
func WithJournal(j Journal) Option {
	return func(r *Repository) { r.journal = j }
}

// WithClock overrides the time source used for creation times.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithIDGenerator overrides the temporary id generator.
func WithIDGenerator(gen func() string) Option {
	return func(r *Repository) { r.tempID = gen }
}

// WithSerializedMutations runs overlapping mutations on the same id one at
// a time. Without it the last store response wins.
func WithSerializedMutations() Option {
	return func(r *Repository) { r.keys = newKeyedMutex() }
}

// Repository is the single source of truth for the task collection.
// It is safe for concurrent use.
type Repository struct {
	store   store.Store
	log     *slog.Logger
	journal Journal
	now     func() time.Time
	tempID  func() string
	keys    *keyedMutex

	mu        sync.Mutex
	snap      Snapshot
	listeners map[int]func(Change)
	nextSub   int
}

// New returns a repository over s. It reports Loading until the first Load
// completes.
func New(s store.Store, opts ...Option) *Repository {
	r := &Repository{
		store:     s,
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,
		tempID:    func() string { return TempIDPrefix + uuid.NewString() },
		snap:      Snapshot{Tasks: []task.Task{}, Loading: true},
		listeners: make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Snapshot returns the current collection state.
func (r *Repository) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap
}

// Get returns the task with the given id.
func (r *Repository) Get(id string) (task.Task, bool) {
	return r.Snapshot().Find(id)
}

// IsTemporary reports whether id has not been confirmed by the store.
func IsTemporary(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// Load fetches the whole collection. On failure the collection is empty,
// the error is logged and kept in Snapshot.LoadErr, and an error wrapping
// ErrLoad is returned.
func (r *Repository) Load(ctx context.Context) error {
	r.mu.Lock()
	r.snap = Snapshot{Tasks: r.snap.Tasks, Loading: true}
	r.mu.Unlock()

	tasks, err := r.store.ListAll(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrLoad, err)
		r.log.Warn("load failed", "error", err)
		r.record("load", "", "failed: "+err.Error())
		r.commit(Change{Kind: Loaded}, func() Snapshot {
			return Snapshot{Tasks: []task.Task{}, LoadErr: err}
		})
		return err
	}

	if tasks == nil {
		tasks = []task.Task{}
	}
	r.log.Debug("loaded tasks", "count", len(tasks))
	r.commit(Change{Kind: Loaded}, func() Snapshot {
		// Creates still in flight are not in the listing yet.
		next := append([]task.Task(nil), tasks...)
		for _, t := range r.snap.Tasks {
			if IsTemporary(t.ID) {
				next = append(next, t)
			}
		}
		return Snapshot{Tasks: next}
	})
	return nil
}

// Add creates a task from d. The task appears immediately under a
// temporary id; once the store confirms, the same entry takes the store's
// id. On failure the entry is removed and an error wrapping ErrCreate is
// returned.
func (r *Repository) Add(ctx context.Context, d task.Draft) (task.Task, error) {
	if err := d.Validate(); err != nil {
		return task.Task{}, err
	}

	tempID := r.tempID()
	t := task.New(d, tempID, r.now())
	r.commit(Change{Kind: Added, ID: tempID}, func() Snapshot {
		return r.with(append(clone(r.snap.Tasks), t))
	})

	id, err := r.store.Create(ctx, t)
	if err != nil {
		err = fmt.Errorf("%w %q: %w", ErrCreate, d.Name, err)
		r.log.Warn("create failed, rolling back", "name", d.Name, "error", err)
		r.record("create", tempID, "rolled back: "+err.Error())
		r.commit(Change{Kind: RolledBack, ID: tempID}, func() Snapshot {
			return r.with(remove(r.snap.Tasks, tempID))
		})
		return task.Task{}, err
	}

	t.ID = id
	r.commit(Change{Kind: Confirmed, ID: id, PrevID: tempID}, func() Snapshot {
		tasks := clone(r.snap.Tasks)
		i := indexOf(tasks, tempID)
		switch {
		case indexOf(tasks, id) >= 0:
			// A reload already brought in the stored copy.
			tasks = remove(tasks, tempID)
		case i >= 0:
			tasks[i].ID = id
		default:
			tasks = append(tasks, t)
		}
		return r.with(tasks)
	})
	r.record("create", id, t.Name)
	return t, nil
}

// Update replaces the editable fields of the stored task with those of t.
// The id, creation time and completion flag of the existing entry are
// kept; completion changes go through ToggleComplete. On failure the
// edited fields are restored and an error wrapping ErrUpdate is returned.
func (r *Repository) Update(ctx context.Context, t task.Task) (task.Task, error) {
	if err := t.Validate(); err != nil {
		return task.Task{}, err
	}
	unlock := r.lockID(t.ID)
	defer unlock()

	prev, err := r.current(t.ID)
	if err != nil {
		return task.Task{}, err
	}
	next := prev.WithEdits(t.Draft())

	r.commit(Change{Kind: Updated, ID: t.ID}, func() Snapshot {
		return r.with(r.edited(t.ID, next.Draft()))
	})

	if err := r.store.Update(ctx, t.ID, task.Edits(next)); err != nil {
		err = fmt.Errorf("%w %s: %w", ErrUpdate, t.ID, err)
		r.log.Warn("update failed, rolling back", "id", t.ID, "error", err)
		r.record("update", t.ID, "rolled back: "+err.Error())
		r.commit(Change{Kind: RolledBack, ID: t.ID}, func() Snapshot {
			return r.with(r.edited(t.ID, prev.Draft()))
		})
		return task.Task{}, err
	}
	if cur, ok := r.Get(t.ID); ok {
		next = cur
	}

	r.record("update", t.ID, next.Name)
	return next, nil
}

// Delete removes the task with the given id. Unknown ids are a no-op. On
// failure the task is put back (at its old position when possible) and an
// error wrapping ErrDelete is returned.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if IsTemporary(id) {
		return fmt.Errorf("%w: %s", ErrPending, id)
	}
	unlock := r.lockID(id)
	defer unlock()

	var (
		prev  task.Task
		index = -1
	)
	r.mu.Lock()
	if i := indexOf(r.snap.Tasks, id); i >= 0 {
		prev, index = r.snap.Tasks[i], i
	}
	r.mu.Unlock()
	if index < 0 {
		return nil
	}

	r.commit(Change{Kind: Removed, ID: id}, func() Snapshot {
		return r.with(remove(r.snap.Tasks, id))
	})

	if err := r.store.Delete(ctx, id); err != nil {
		err = fmt.Errorf("%w %s: %w", ErrDelete, id, err)
		r.log.Warn("delete failed, restoring", "id", id, "error", err)
		r.record("delete", id, "rolled back: "+err.Error())
		r.commit(Change{Kind: Restored, ID: id}, func() Snapshot {
			return r.with(insert(r.snap.Tasks, index, prev))
		})
		return err
	}

	r.record("delete", id, prev.Name)
	return nil
}

// ToggleComplete flips the completion flag of the task with the given id
// and writes only that field to the store. On failure the flag is flipped
// back and an error wrapping ErrUpdate is returned.
func (r *Repository) ToggleComplete(ctx context.Context, id string) (task.Task, error) {
	unlock := r.lockID(id)
	defer unlock()

	prev, err := r.current(id)
	if err != nil {
		return task.Task{}, err
	}
	next := prev.Toggled()

	r.commit(Change{Kind: Updated, ID: id}, func() Snapshot {
		return r.with(r.completed(id, next.IsCompleted))
	})

	if err := r.store.Update(ctx, id, task.Completion(next.IsCompleted)); err != nil {
		err = fmt.Errorf("%w %s: %w", ErrUpdate, id, err)
		r.log.Warn("toggle failed, rolling back", "id", id, "error", err)
		r.record("toggle", id, "rolled back: "+err.Error())
		r.commit(Change{Kind: RolledBack, ID: id}, func() Snapshot {
			return r.with(r.completed(id, prev.IsCompleted))
		})
		return task.Task{}, err
	}

	detail := "reopened"
	if next.IsCompleted {
		detail = "completed"
	}
	r.record("toggle", id, detail)
	return next, nil
}

// current returns the present value of id, refusing unconfirmed tasks.
func (r *Repository) current(id string) (task.Task, error) {
	if IsTemporary(id) {
		return task.Task{}, fmt.Errorf("%w: %s", ErrPending, id)
	}
	t, ok := r.Get(id)
	if !ok {
		return task.Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return t, nil
}

// commit swaps in the snapshot built by next under the lock and then
// notifies listeners outside it.
func (r *Repository) commit(c Change, next func() Snapshot) {
	r.mu.Lock()
	r.snap = next()
	c.Snapshot = r.snap
	listeners := make([]func(Change), 0, len(r.listeners))
	for _, fn := range r.listeners {
		listeners = append(listeners, fn)
	}
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(c)
	}
}

// with returns the current snapshot flags with tasks replaced. Callers
// hold r.mu.
func (r *Repository) with(tasks []task.Task) Snapshot {
	s := r.snap
	s.Tasks = tasks
	return s
}

func (r *Repository) record(action, id, detail string) {
	if r.journal != nil {
		r.journal.Record(action, id, detail)
	}
}

func (r *Repository) lockID(id string) func() {
	if r.keys == nil {
		return func() {}
	}
	return r.keys.lock(id)
}

func indexOf(tasks []task.Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// edited applies d to the current entry for id. Must be called with r.mu held.
func (r *Repository) edited(id string, d task.Draft) []task.Task {
	tasks := clone(r.snap.Tasks)
	if i := indexOf(tasks, id); i >= 0 {
		tasks[i] = tasks[i].WithEdits(d)
	}
	return tasks
}

// completed sets the completion flag of id. Must be called with r.mu held.
func (r *Repository) completed(id string, done bool) []task.Task {
	tasks := clone(r.snap.Tasks)
	if i := indexOf(tasks, id); i >= 0 {
		tasks[i].IsCompleted = done
	}
	return tasks
}

func clone(tasks []task.Task) []task.Task {
	return append(make([]task.Task, 0, len(tasks)+1), tasks...)
}

func remove(tasks []task.Task, id string) []task.Task {
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

// insert puts t back at index, or appends it when index is past the end.
// An entry already present is left alone.
func insert(tasks []task.Task, index int, t task.Task) []task.Task {
	if indexOf(tasks, t.ID) >= 0 {
		return clone(tasks)
	}
	if index > len(tasks) {
		index = len(tasks)
	}
	out := make([]task.Task, 0, len(tasks)+1)
	out = append(out, tasks[:index]...)
	out = append(out, t)
	return append(out, tasks[index:]...)
}
