// Package store defines the contract every task document store satisfies.
// Backends live in subpackages: local (single JSON slot), mdstore (markdown
// files), firestore (Cloud Firestore REST) and sqlstore (SQLite/PostgreSQL).
package store

import (
	"context"
	"errors"

	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
)

// ErrNotFound is returned when an id does not name a stored document.
var ErrNotFound = errors.New("task document not found")

// Store is a remote collection of task documents. Ids are assigned by the
// store on Create.
type Store interface {
	// ListAll fetches every task document.
	ListAll(ctx context.Context) ([]task.Task, error)
	// Create stores t (its ID is ignored) and returns the assigned id.
	Create(ctx context.Context, t task.Task) (string, error)
	// Update writes the set fields of p to the document with the given id.
	Update(ctx context.Context, id string, p task.Patch) error
	// Delete removes the document with the given id.
	Delete(ctx context.Context, id string) error
}

// Backend names accepted in configuration.
const (
	BackendLocal     = "local"
	BackendFiles     = "files"
	BackendFirestore = "firestore"
	BackendSQL       = "sql"
)

// Backends lists the backend names in documentation order.
var Backends = []string{BackendLocal, BackendFiles, BackendFirestore, BackendSQL}

// Close releases resources held by s if it has any.
func Close(s Store) error {
	if c, ok := s.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// Watchable is implemented by file-backed stores whose changes can be
// observed on disk.
type Watchable interface {
	WatchPaths() []string
}
