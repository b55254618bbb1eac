package task

import "time"

// New builds a task from a draft. The task starts incomplete and records
// now as its creation time.
func New(d Draft, id string, now time.Time) Task {
	return Task{
		ID:          id,
		Name:        d.Name,
		Subject:     d.Subject,
		Deadline:    d.Deadline,
		Notes:       d.Notes,
		Priority:    d.Priority,
		Category:    d.Category,
		IsCompleted: false,
		DateAdded:   now,
	}
}

// Draft returns the editable fields of t.
func (t Task) Draft() Draft {
	return Draft{
		Name:     t.Name,
		Subject:  t.Subject,
		Deadline: t.Deadline,
		Notes:    t.Notes,
		Priority: t.Priority,
		Category: t.Category,
	}
}

// WithEdits replaces the editable fields of t with d. The id, completion
// flag and creation time are kept.
func (t Task) WithEdits(d Draft) Task {
	edited := New(d, t.ID, t.DateAdded)
	edited.IsCompleted = t.IsCompleted
	return edited
}

// Toggled returns t with its completion flag flipped.
func (t Task) Toggled() Task {
	t.IsCompleted = !t.IsCompleted
	return t
}
