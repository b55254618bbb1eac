package task

import (
	"strings"

	"github.com/twiced-technology-gmbh/studyplanner/internal/clierr"
)

// ParsePriority matches s case-insensitively against the priorities.
func ParsePriority(s string) (Priority, error) {
	for _, p := range Priorities {
		if strings.EqualFold(string(p), strings.TrimSpace(s)) {
			return p, nil
		}
	}
	return "", clierr.Newf(clierr.InvalidPriority, "invalid priority %q", s).
		WithDetails(map[string]any{
			"priority": s,
			"allowed":  Priorities,
		})
}

// ParseCategory matches s case-insensitively against the categories.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, nil
		}
	}
	return "", clierr.Newf(clierr.InvalidCategory, "invalid category %q", s).
		WithDetails(map[string]any{
			"category": s,
			"allowed":  Categories,
		})
}

// Validate checks that the draft can become a task.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return clierr.New(clierr.InvalidInput, "task name is required").
			WithDetails(map[string]any{"field": FieldName})
	}
	if d.Deadline.IsZero() {
		return clierr.New(clierr.InvalidDate, "task deadline is required").
			WithDetails(map[string]any{"field": FieldDeadline})
	}
	if !d.Priority.Valid() {
		_, err := ParsePriority(string(d.Priority))
		return err
	}
	if !d.Category.Valid() {
		_, err := ParseCategory(string(d.Category))
		return err
	}
	return nil
}

// Validate checks the editable fields of t.
func (t Task) Validate() error {
	return t.Draft().Validate()
}

// ValidateDate returns a CLIError for invalid date input.
func ValidateDate(field, input string, err error) *clierr.Error {
	return clierr.Newf(clierr.InvalidDate, "invalid %s: %v", field, err).
		WithDetails(map[string]any{
			"field": field,
			"input": input,
		})
}

// ValidateTaskID returns a CLIError for invalid task ID input.
func ValidateTaskID(input string) *clierr.Error {
	return clierr.Newf(clierr.InvalidTaskID, "invalid task ID %q", input).
		WithDetails(map[string]any{"input": input})
}

// NotFound returns a CLIError for an id that is not in the collection.
func NotFound(id string) *clierr.Error {
	return clierr.Newf(clierr.TaskNotFound, "task not found: %s", id).
		WithDetails(map[string]any{"id": id})
}

// ParseIDs splits a comma-separated ID string into deduplicated IDs,
// preserving order.
func ParseIDs(arg string) ([]string, error) {
	parts := strings.Split(arg, ",")
	seen := make(map[string]bool, len(parts))
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if strings.ContainsAny(p, " /\\") {
			return nil, ValidateTaskID(p)
		}
		if !seen[p] {
			ids = append(ids, p)
			seen[p] = true
		}
	}
	if len(ids) == 0 {
		return nil, clierr.New(clierr.InvalidTaskID, "no valid task IDs provided")
	}
	return ids, nil
}
