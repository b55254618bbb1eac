// Package task defines the student task entity, its enumerations and the
// draft and patch shapes used to create and change it.
package task

import (
	"strings"
	"time"
)

// Task is a single student task. JSON names match the document layout
// used by every store backend.
type Task struct {
	ID          string    `yaml:"id" json:"id"`
	Name        string    `yaml:"name" json:"name"`
	Subject     string    `yaml:"subject" json:"subject"`
	Deadline    time.Time `yaml:"deadline" json:"deadline"`
	Notes       string    `yaml:"-" json:"notes"`
	Priority    Priority  `yaml:"priority" json:"priority"`
	Category    Category  `yaml:"category" json:"category"`
	IsCompleted bool      `yaml:"is_completed" json:"isCompleted"`
	DateAdded   time.Time `yaml:"date_added" json:"dateAdded"`
}

// Priority is the urgency level chosen by the student.
type Priority string

// Priority values.
const (
	Low    Priority = "Low"
	Medium Priority = "Medium"
	High   Priority = "High"
)

// Priorities lists all priorities in form order.
var Priorities = []Priority{Low, Medium, High}

// Rank orders priorities for sorting: High 0, Medium 1, Low 2.
// Unknown values sort last.
func (p Priority) Rank() int {
	switch p {
	case High:
		return 0
	case Medium:
		return 1
	case Low:
		return 2 //nolint:mnd // lowest rank
	default:
		return 3 //nolint:mnd // unknown sorts last
	}
}

// Valid reports whether p is one of the defined priorities.
func (p Priority) Valid() bool {
	return p.Rank() < 3 //nolint:mnd // defined priorities only
}

// UnmarshalText rejects values outside the enumeration. Empty input
// leaves the value unset so defaults can apply.
func (p *Priority) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*p = ""
		return nil
	}
	parsed, err := ParsePriority(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Category classifies what kind of work a task is.
type Category string

// Category values.
const (
	Quiz        Category = "Quiz"
	Project     Category = "Project"
	Exam        Category = "Exam"
	Requirement Category = "Requirement"
	Homework    Category = "Homework"
	Reading     Category = "Reading"
)

// Categories lists all categories in form order.
var Categories = []Category{Quiz, Project, Exam, Requirement, Homework, Reading}

// Valid reports whether c is one of the defined categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// UnmarshalText rejects values outside the enumeration.
func (c *Category) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*c = ""
		return nil
	}
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Draft holds the user-editable fields of a task: everything except the
// id, completion flag and creation time.
type Draft struct {
	Name     string    `json:"name"`
	Subject  string    `json:"subject"`
	Deadline time.Time `json:"deadline"`
	Notes    string    `json:"notes"`
	Priority Priority  `json:"priority"`
	Category Category  `json:"category"`
}

// WithDefaults fills an empty priority or category.
func (d Draft) WithDefaults(p Priority, c Category) Draft {
	if d.Priority == "" {
		d.Priority = p
	}
	if d.Category == "" {
		d.Category = c
	}
	d.Name = strings.TrimSpace(d.Name)
	d.Subject = strings.TrimSpace(d.Subject)
	return d
}

// Field names used in patches. They equal the JSON names.
const (
	FieldName        = "name"
	FieldSubject     = "subject"
	FieldDeadline    = "deadline"
	FieldNotes       = "notes"
	FieldPriority    = "priority"
	FieldCategory    = "category"
	FieldIsCompleted = "isCompleted"
)

// Patch is a partial update. Nil fields are left unchanged. The id and
// creation time are never patchable.
type Patch struct {
	Name        *string
	Subject     *string
	Deadline    *time.Time
	Notes       *string
	Priority    *Priority
	Category    *Category
	IsCompleted *bool
}

// Full returns a patch setting every mutable field of t.
func Full(t Task) Patch {
	return Patch{
		Name:        &t.Name,
		Subject:     &t.Subject,
		Deadline:    &t.Deadline,
		Notes:       &t.Notes,
		Priority:    &t.Priority,
		Category:    &t.Category,
		IsCompleted: &t.IsCompleted,
	}
}

// Edits returns a patch setting the editable fields of t. Completion is
// left unchanged.
func Edits(t Task) Patch {
	p := Full(t)
	p.IsCompleted = nil
	return p
}

// Completion returns a patch that only sets the completion flag.
func Completion(done bool) Patch {
	return Patch{IsCompleted: &done}
}

// FieldPaths lists the set fields by JSON name in a fixed order.
func (p Patch) FieldPaths() []string {
	var paths []string
	if p.Name != nil {
		paths = append(paths, FieldName)
	}
	if p.Subject != nil {
		paths = append(paths, FieldSubject)
	}
	if p.Deadline != nil {
		paths = append(paths, FieldDeadline)
	}
	if p.Notes != nil {
		paths = append(paths, FieldNotes)
	}
	if p.Priority != nil {
		paths = append(paths, FieldPriority)
	}
	if p.Category != nil {
		paths = append(paths, FieldCategory)
	}
	if p.IsCompleted != nil {
		paths = append(paths, FieldIsCompleted)
	}
	return paths
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return len(p.FieldPaths()) == 0
}

// Apply writes the set fields onto t.
func (p Patch) Apply(t *Task) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Subject != nil {
		t.Subject = *p.Subject
	}
	if p.Deadline != nil {
		t.Deadline = *p.Deadline
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.IsCompleted != nil {
		t.IsCompleted = *p.IsCompleted
	}
}
