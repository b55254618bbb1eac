package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/twiced-technology-gmbh/studyplanner/internal/date"
	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
)

// Form field order. Text fields come first, then the two enum pickers.
const (
	fieldName = iota
	fieldSubject
	fieldDeadline
	fieldNotes
	fieldPriority
	fieldCategory
	fieldCount
)

const textFields = fieldPriority

// form edits a task draft. editing holds the original task when the form
// was opened on an existing one.
type form struct {
	inputs   [textFields]textinput.Model
	priority int
	category int
	focus    int
	editing  *task.Task
	err      string
}

func newForm(t *task.Task, p task.Priority, c task.Category) *form {
	f := &form{editing: t}

	placeholders := [textFields]string{
		"Read chapter 5",
		"Biology",
		"YYYY-MM-DD or YYYY-MM-DDTHH:MM",
		"optional",
	}
	limits := [textFields]int{120, 60, 25, 500}
	for i := range f.inputs {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.CharLimit = limits[i]
		in.Prompt = ""
		f.inputs[i] = in
	}

	if t != nil {
		f.inputs[fieldName].SetValue(t.Name)
		f.inputs[fieldSubject].SetValue(t.Subject)
		f.inputs[fieldDeadline].SetValue(date.Input(t.Deadline))
		f.inputs[fieldNotes].SetValue(t.Notes)
		p, c = t.Priority, t.Category
	}
	f.priority = indexOf(task.Priorities, p)
	f.category = indexOf(task.Categories, c)
	f.inputs[fieldName].Focus()
	return f
}

func indexOf[T comparable](list []T, v T) int {
	for i, x := range list {
		if x == v {
			return i
		}
	}
	return 0
}

func (f *form) title() string {
	if f.editing != nil {
		return "Edit task"
	}
	return "New task"
}

// move shifts focus by delta, wrapping around.
func (f *form) move(delta int) {
	if f.focus < textFields {
		f.inputs[f.focus].Blur()
	}
	f.focus = (f.focus + delta + fieldCount) % fieldCount
	if f.focus < textFields {
		f.inputs[f.focus].Focus()
	}
}

// cycle changes the focused enum picker by delta.
func (f *form) cycle(delta int) {
	switch f.focus {
	case fieldPriority:
		f.priority = (f.priority + delta + len(task.Priorities)) % len(task.Priorities)
	case fieldCategory:
		f.category = (f.category + delta + len(task.Categories)) % len(task.Categories)
	}
}

// update forwards a key to the focused text input.
func (f *form) update(msg tea.Msg) tea.Cmd {
	if f.focus >= textFields {
		return nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// draft validates the inputs and returns the draft they describe.
func (f *form) draft(loc *time.Location) (task.Draft, bool) {
	name := strings.TrimSpace(f.inputs[fieldName].Value())
	if name == "" {
		f.err = "Name is required."
		return task.Draft{}, false
	}
	deadline, err := date.Parse(f.inputs[fieldDeadline].Value(), loc)
	if err != nil {
		f.err = "Deadline: " + err.Error()
		return task.Draft{}, false
	}
	f.err = ""
	return task.Draft{
		Name:     name,
		Subject:  strings.TrimSpace(f.inputs[fieldSubject].Value()),
		Deadline: deadline,
		Notes:    f.inputs[fieldNotes].Value(),
		Priority: task.Priorities[f.priority],
		Category: task.Categories[f.category],
	}, true
}
