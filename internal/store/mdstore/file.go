package mdstore

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
)

const fileMode = 0o600

var (
	fence = []byte("---\n")

	errNoFrontmatter = errors.New("file does not start with YAML frontmatter (---)")
	errUnclosed      = errors.New("unclosed frontmatter (missing closing ---)")
)

// Read loads one task file. The markdown body becomes the task notes.
func Read(path string) (task.Task, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the store directory listing
	if err != nil {
		return task.Task{}, fmt.Errorf("reading task file: %w", err)
	}

	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return task.Task{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	var t task.Task
	if err := yaml.Unmarshal(fm, &t); err != nil {
		return task.Task{}, fmt.Errorf("parsing frontmatter in %s: %w", path, err)
	}
	t.Notes = strings.TrimRight(body, "\n")
	return t, nil
}

// Write stores t at path, replacing any previous file in one rename.
func Write(path string, t task.Task) error {
	fm, err := yaml.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshaling frontmatter: %w", err)
	}

	doc := append(append(append([]byte{}, fence...), fm...), fence...)
	if notes := strings.TrimRight(t.Notes, "\n"); notes != "" {
		doc = append(doc, '\n')
		doc = append(doc, notes...)
		doc = append(doc, '\n')
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, doc, fileMode); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// splitFrontmatter separates the YAML between the opening and closing fences
// from the markdown that follows. A closing fence may end the file without
// a newline.
func splitFrontmatter(data []byte) ([]byte, string, error) {
	rest, ok := bytes.CutPrefix(data, fence)
	if !ok {
		return nil, "", errNoFrontmatter
	}
	if fm, body, found := bytes.Cut(rest, []byte("\n---\n")); found {
		return fm, strings.TrimLeft(string(body), "\n"), nil
	}
	if fm, found := bytes.CutSuffix(rest, []byte("\n---")); found {
		return rest[:len(fm)+1], "", nil
	}
	return nil, "", errUnclosed
}
