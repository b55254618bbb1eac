// Package mdstore keeps one markdown file per task: YAML front matter for
// the fields, the markdown body for the notes. Files are named
// "<id>-<slug>.md" so they stay readable in an editor.
package mdstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/twiced-technology-gmbh/studyplanner/internal/filelock"
	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
)

const (
	dirMode  = 0o750
	idLength = 12
)

// Store is a store.Store over a directory of markdown files.
type Store struct {
	dir string

	mu       sync.Mutex
	warnings []ReadWarning
}

// Open returns a Store rooted at dir, creating the directory if needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, fmt.Errorf("creating tasks directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// WatchPaths returns the tasks directory.
func (s *Store) WatchPaths() []string { return []string{s.dir} }

// Warnings returns the files skipped by the most recent ListAll.
func (s *Store) Warnings() []ReadWarning {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ReadWarning(nil), s.warnings...)
}

// ListAll implements store.Store. Malformed files are skipped and reported
// through Warnings. Tasks are returned in creation order.
func (s *Store) ListAll(ctx context.Context) ([]task.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tasks, warnings, err := readAllLenient(s.dir)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.warnings = warnings
	s.mu.Unlock()

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].DateAdded.Before(tasks[j].DateAdded)
	})
	return tasks, nil
}

// Create implements store.Store.
func (s *Store) Create(ctx context.Context, t task.Task) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	t.ID = newID()
	err := s.locked(ctx, func() error {
		return Write(filepath.Join(s.dir, filename(t.ID, t.Name)), t)
	})
	if err != nil {
		return "", fmt.Errorf("writing task: %w", err)
	}
	return t.ID, nil
}

// Update implements store.Store. The file is renamed when the name changes.
func (s *Store) Update(ctx context.Context, id string, p task.Patch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.locked(ctx, func() error {
		path, err := findByID(s.dir, id)
		if err != nil {
			return err
		}
		t, err := Read(path)
		if err != nil {
			return err
		}
		p.Apply(&t)
		t.ID = id

		newPath := filepath.Join(s.dir, filename(id, t.Name))
		if err := Write(newPath, t); err != nil {
			return fmt.Errorf("writing task: %w", err)
		}
		if newPath != path {
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("removing old task file: %w", err)
			}
		}
		return nil
	})
}

// Delete implements store.Store.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.locked(ctx, func() error {
		path, err := findByID(s.dir, id)
		if err != nil {
			return err
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("removing task file: %w", err)
		}
		return nil
	})
}

func (s *Store) locked(ctx context.Context, fn func() error) error {
	return filelock.With(ctx, filepath.Join(s.dir, ".lock"), fn)
}

// newID returns a short random id without dashes so the filename prefix
// stays unambiguous.
func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:idLength]
}
