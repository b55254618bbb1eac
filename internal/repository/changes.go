package repository

import "sync"

// Kind identifies what happened to the collection.
type Kind int

const (
	Loaded     Kind = iota // collection replaced by a load
	Added                  // optimistic create appended under a temporary id
	Confirmed              // temporary id replaced by the store id
	Updated                // optimistic field change
	Removed                // optimistic delete
	Restored               // failed delete put back
	RolledBack             // failed create or update undone
)

var kindNames = map[Kind]string{
	Loaded:     "loaded",
	Added:      "added",
	Confirmed:  "confirmed",
	Updated:    "updated",
	Removed:    "removed",
	Restored:   "restored",
	RolledBack: "rolled-back",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Change is delivered to subscribers after every state transition.
// PrevID is set for Confirmed and holds the temporary id.
type Change struct {
	Kind     Kind
	ID       string
	PrevID   string
	Snapshot Snapshot
}

// Subscribe registers fn for every change. Listeners run synchronously on
// the goroutine that made the change, after the new state is visible. The
// returned function unsubscribes.
func (r *Repository) Subscribe(fn func(Change)) (unsubscribe func()) {
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.listeners[id] = fn
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.listeners, id)
			r.mu.Unlock()
		})
	}
}

// keyedMutex hands out one lock per task id.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedEntry)}
}

func (k *keyedMutex) lock(id string) func() {
	k.mu.Lock()
	e, ok := k.locks[id]
	if !ok {
		e = &keyedEntry{}
		k.locks[id] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}
