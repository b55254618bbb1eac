// Package storetest provides an in-memory store.Store with scripted
// failures and blocking calls, for tests of code built on top of a store.
package storetest

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/twiced-technology-gmbh/studyplanner/internal/store"
	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
)

// Operation names used for scripting.
const (
	OpList   = "list"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Call records one invocation of the fake.
type Call struct {
	Op    string
	ID    string
	Patch task.Patch
}

// Gate pauses the next call of an operation. Entered is closed once the
// call is waiting; Release lets it continue.
type Gate struct {
	Entered chan struct{}
	release chan struct{}
}

// Release lets the paused call continue.
func (g *Gate) Release() { close(g.release) }

// Fake is an in-memory store.Store.
type Fake struct {
	mu      sync.Mutex
	tasks   []task.Task
	nextIDs []string
	seq     int
	fail    map[string][]error
	gates   map[string]*Gate
	calls   []Call
}

// New returns a fake holding tasks.
func New(tasks ...task.Task) *Fake {
	return &Fake{
		tasks: append([]task.Task(nil), tasks...),
		fail:  make(map[string][]error),
		gates: make(map[string]*Gate),
	}
}

// FailNext makes the next call of op return err.
func (f *Fake) FailNext(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[op] = append(f.fail[op], err)
}

// NextID sets the ids handed out by subsequent creates.
func (f *Fake) NextID(ids ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextIDs = append(f.nextIDs, ids...)
}

// Pause makes the next call of op wait until the returned gate is released.
func (f *Fake) Pause(op string) *Gate {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := &Gate{Entered: make(chan struct{}), release: make(chan struct{})}
	f.gates[op] = g
	return g
}

// Tasks returns a copy of the stored tasks.
func (f *Fake) Tasks() []task.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]task.Task(nil), f.tasks...)
}

// Calls returns the recorded calls in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// begin records the call, waits on a gate if one is set, and returns the
// scripted error for op.
func (f *Fake) begin(ctx context.Context, c Call) error {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	g := f.gates[c.Op]
	delete(f.gates, c.Op)
	f.mu.Unlock()

	if g != nil {
		close(g.Entered)
		select {
		case <-g.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if errs := f.fail[c.Op]; len(errs) > 0 {
		f.fail[c.Op] = errs[1:]
		return errs[0]
	}
	return nil
}

// ListAll implements store.Store.
func (f *Fake) ListAll(ctx context.Context) ([]task.Task, error) {
	if err := f.begin(ctx, Call{Op: OpList}); err != nil {
		return nil, err
	}
	return f.Tasks(), nil
}

// Create implements store.Store.
func (f *Fake) Create(ctx context.Context, t task.Task) (string, error) {
	if err := f.begin(ctx, Call{Op: OpCreate}); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.nextIDs) > 0 {
		t.ID = f.nextIDs[0]
		f.nextIDs = f.nextIDs[1:]
	} else {
		f.seq++
		t.ID = "doc-" + strconv.Itoa(f.seq)
	}
	f.tasks = append(f.tasks, t)
	return t.ID, nil
}

// Update implements store.Store.
func (f *Fake) Update(ctx context.Context, id string, p task.Patch) error {
	if err := f.begin(ctx, Call{Op: OpUpdate, ID: id, Patch: p}); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			p.Apply(&f.tasks[i])
			return nil
		}
	}
	return fmt.Errorf("task %s: %w", id, store.ErrNotFound)
}

// Delete implements store.Store.
func (f *Fake) Delete(ctx context.Context, id string) error {
	if err := f.begin(ctx, Call{Op: OpDelete, ID: id}); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("task %s: %w", id, store.ErrNotFound)
}
