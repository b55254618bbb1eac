// Package local stores the whole task collection in one JSON slot file.
// The slot is read on every call and rewritten after every change, under
// an advisory lock so concurrent planner processes do not lose writes.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/twiced-technology-gmbh/studyplanner/internal/filelock"
	"github.com/twiced-technology-gmbh/studyplanner/internal/store"
	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
)

const (
	// SlotName is the key under which the collection is persisted.
	SlotName = "tasks"

	fileMode = 0o600
)

// Store is a store.Store backed by a single JSON file.
type Store struct {
	path  string
	lock  string
	newID func() string
}

// Open returns a Store whose slot lives in dir. The file is created lazily.
func Open(dir, file string) (*Store, error) {
	if file == "" {
		file = SlotName + ".json"
	}
	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, file)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil { //nolint:mnd // directory mode
		return nil, fmt.Errorf("creating slot directory: %w", err)
	}
	return &Store{
		path:  path,
		lock:  path + ".lock",
		newID: uuid.NewString,
	}, nil
}

// Path returns the slot file path.
func (s *Store) Path() string { return s.path }

// WatchPaths returns the directory holding the slot. Watching the directory
// catches the rename used for atomic rewrites.
func (s *Store) WatchPaths() []string { return []string{filepath.Dir(s.path)} }

// ListAll implements store.Store.
func (s *Store) ListAll(ctx context.Context) ([]task.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.read()
}

// Create implements store.Store.
func (s *Store) Create(ctx context.Context, t task.Task) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	t.ID = s.newID()
	err := s.modify(ctx, func(tasks []task.Task) ([]task.Task, error) {
		return append(tasks, t), nil
	})
	if err != nil {
		return "", err
	}
	return t.ID, nil
}

// Update implements store.Store.
func (s *Store) Update(ctx context.Context, id string, p task.Patch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.modify(ctx, func(tasks []task.Task) ([]task.Task, error) {
		for i := range tasks {
			if tasks[i].ID == id {
				p.Apply(&tasks[i])
				return tasks, nil
			}
		}
		return nil, fmt.Errorf("updating %s: %w", id, store.ErrNotFound)
	})
}

// Delete implements store.Store.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.modify(ctx, func(tasks []task.Task) ([]task.Task, error) {
		for i := range tasks {
			if tasks[i].ID == id {
				return append(tasks[:i], tasks[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("deleting %s: %w", id, store.ErrNotFound)
	})
}

func (s *Store) modify(ctx context.Context, fn func([]task.Task) ([]task.Task, error)) error {
	return filelock.With(ctx, s.lock, func() error {
		tasks, err := s.read()
		if err != nil {
			return err
		}
		tasks, err = fn(tasks)
		if err != nil {
			return err
		}
		return s.write(tasks)
	})
}

func (s *Store) read() ([]task.Task, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []task.Task{}, nil
		}
		return nil, fmt.Errorf("reading slot: %w", err)
	}
	if len(data) == 0 {
		return []task.Task{}, nil
	}
	var tasks []task.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("parsing slot %s: %w", s.path, err)
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return tasks, nil
}

// write replaces the slot atomically via a temp file and rename.
func (s *Store) write(tasks []task.Task) error {
	if tasks == nil {
		tasks = []task.Task{}
	}
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling slot: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), fileMode); err != nil {
		return fmt.Errorf("writing slot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing slot: %w", err)
	}
	return nil
}
