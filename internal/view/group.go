package view

import (
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/twiced-technology-gmbh/studyplanner/internal/clierr"
	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
)

const (
	groupSubject  = "subject"
	groupPriority = "priority"
	groupCategory = "category"
	groupUrgency  = "urgency"

	noSubject = "(no subject)"
)

// Grouped holds tasks grouped by a field.
type Grouped struct {
	Field  string  `json:"field"`
	Groups []Group `json:"groups"`
}

// Group is one group within a grouped view. Tasks keep their projection
// order.
type Group struct {
	Key       string      `json:"key"`
	Tasks     []task.Task `json:"tasks"`
	Pending   int         `json:"pending"`
	Completed int         `json:"completed"`
}

// GroupFields returns the valid --group-by field names.
func GroupFields() []string {
	return []string{groupSubject, groupPriority, groupCategory, groupUrgency}
}

// ParseGroupField validates a group-by field name.
func ParseGroupField(s string) (string, error) {
	f := strings.ToLower(s)
	if slices.Contains(GroupFields(), f) {
		return f, nil
	}
	return "", clierr.Newf(clierr.InvalidInput, "invalid group-by field %q; valid: %s",
		s, strings.Join(GroupFields(), ", "))
}

// GroupBy groups tasks by field. Priority, category and urgency groups are
// ordered by their enum order, subjects alphabetically with untitled last.
func GroupBy(tasks []task.Task, field string, now time.Time) Grouped {
	groups := make(map[string][]task.Task)
	for _, t := range tasks {
		key := groupKey(t, field, now)
		groups[key] = append(groups[key], t)
	}

	result := Grouped{Field: field, Groups: make([]Group, 0, len(groups))}
	for _, key := range sortGroupKeys(groups, field) {
		g := Group{Key: key, Tasks: groups[key]}
		for _, t := range g.Tasks {
			if t.IsCompleted {
				g.Completed++
			} else {
				g.Pending++
			}
		}
		result.Groups = append(result.Groups, g)
	}
	return result
}

func groupKey(t task.Task, field string, now time.Time) string {
	switch field {
	case groupPriority:
		return string(t.Priority)
	case groupCategory:
		return string(t.Category)
	case groupUrgency:
		return string(UrgencyOf(t, now))
	default:
		if s := strings.TrimSpace(t.Subject); s != "" {
			return s
		}
		return noSubject
	}
}

var urgencyOrder = []Urgency{Overdue, Urgent, Soon, OnTrack, Done}

func sortGroupKeys(groups map[string][]task.Task, field string) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}

	rank := func(string) int { return 0 }
	switch field {
	case groupPriority:
		rank = func(k string) int { return task.Priority(k).Rank() }
	case groupCategory:
		rank = func(k string) int { return slices.Index(task.Categories, task.Category(k)) }
	case groupUrgency:
		rank = func(k string) int { return slices.Index(urgencyOrder, Urgency(k)) }
	}

	sort.SliceStable(keys, func(i, j int) bool {
		ri, rj := rank(keys[i]), rank(keys[j])
		if ri != rj {
			return ri < rj
		}
		if (keys[i] == noSubject) != (keys[j] == noSubject) {
			return keys[j] == noSubject
		}
		return keys[i] < keys[j]
	})
	return keys
}
