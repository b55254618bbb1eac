// Package selection tracks which tasks are marked for export.
package selection

import (
	"sort"
	"sync"
)

// Tracker is a set of task ids. It is safe for concurrent use.
type Tracker struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

// New returns an empty tracker.
func New() *Tracker {
	return &Tracker{ids: make(map[string]struct{})}
}

// Toggle adds id if absent, removes it if present, and reports whether it
// is selected afterwards.
func (s *Tracker) Toggle(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// SelectAll clears the selection when it already equals exactly the
// visible ids; otherwise the selection becomes the visible ids.
func (s *Tracker) SelectAll(visible []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[string]struct{}, len(visible))
	for _, id := range visible {
		want[id] = struct{}{}
	}
	if sameSet(s.ids, want) {
		s.ids = make(map[string]struct{})
		return
	}
	s.ids = want
}

// Reconcile drops id, typically after its task was deleted.
func (s *Tracker) Reconcile(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, id)
}

// Rename moves the selection of oldID to newID.
func (s *Tracker) Rename(oldID, newID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[oldID]; !ok {
		return
	}
	delete(s.ids, oldID)
	s.ids[newID] = struct{}{}
}

// Retain drops every id not in present.
func (s *Tracker) Retain(present []string) {
	keep := make(map[string]struct{}, len(present))
	for _, id := range present {
		keep[id] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.ids {
		if _, ok := keep[id]; !ok {
			delete(s.ids, id)
		}
	}
}

// Has reports whether id is selected.
func (s *Tracker) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// IDs returns the selected ids, sorted.
func (s *Tracker) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of selected ids.
func (s *Tracker) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// Clear empties the selection.
func (s *Tracker) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = make(map[string]struct{})
}

func sameSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			return false
		}
	}
	return true
}
