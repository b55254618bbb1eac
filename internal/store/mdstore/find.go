package mdstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/twiced-technology-gmbh/studyplanner/internal/store"
	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
)

// ReadWarning names a task file that was skipped because it did not parse.
type ReadWarning struct {
	File string // base name
	Err  error
}

// taskFiles lists the base names of task files in dir, in name order.
// A missing directory holds no tasks.
func taskFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading tasks directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if _, ok := idOf(e.Name()); ok && !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func findByID(dir, id string) (string, error) {
	names, err := taskFiles(dir)
	if err != nil {
		return "", err
	}
	for _, name := range names {
		if got, _ := idOf(name); got == id {
			return filepath.Join(dir, name), nil
		}
	}
	return "", fmt.Errorf("task %s: %w", id, store.ErrNotFound)
}

// readAllLenient parses every task file. Files that fail are reported as
// warnings rather than failing the whole listing.
func readAllLenient(dir string) ([]task.Task, []ReadWarning, error) {
	names, err := taskFiles(dir)
	if err != nil {
		return nil, nil, err
	}
	tasks := make([]task.Task, 0, len(names))
	var warnings []ReadWarning
	for _, name := range names {
		t, err := Read(filepath.Join(dir, name))
		if err != nil {
			warnings = append(warnings, ReadWarning{File: name, Err: err})
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, warnings, nil
}
