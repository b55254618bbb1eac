// Package view derives the displayed list from the task collection.
// Everything here is pure: the same tasks, options and clock give the same
// result, and the input slice is never modified.
package view

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/twiced-technology-gmbh/studyplanner/internal/clierr"
	"github.com/twiced-technology-gmbh/studyplanner/internal/date"
	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
)

// Filter selects which tasks are visible.
type Filter string

// Filter modes.
const (
	All       Filter = "all"
	Today     Filter = "today"
	Week      Filter = "week"
	Completed Filter = "completed"
)

// Filters lists the filter modes in display order.
var Filters = []Filter{All, Today, Week, Completed}

// Sort orders the visible tasks.
type Sort string

// Sort modes.
const (
	ByDeadline  Sort = "deadline"
	ByPriority  Sort = "priority"
	BySubject   Sort = "subject"
	ByDateAdded Sort = "dateAdded"
)

// Sorts lists the sort modes in display order.
var Sorts = []Sort{ByDeadline, ByPriority, BySubject, ByDateAdded}

// Options controls a projection. Zero values mean all tasks by deadline,
// collated for English.
type Options struct {
	Filter Filter
	Sort   Sort
	Search string       // case-insensitive substring of name, subject or notes
	Locale language.Tag // subject collation
}

// ParseFilter validates a filter mode name.
func ParseFilter(s string) (Filter, error) {
	for _, f := range Filters {
		if strings.EqualFold(string(f), s) {
			return f, nil
		}
	}
	return "", clierr.Newf(clierr.InvalidFilter, "invalid filter %q", s).
		WithDetails(map[string]any{
			"filter":  s,
			"allowed": Filters,
		})
}

// ParseSort validates a sort mode name.
func ParseSort(s string) (Sort, error) {
	for _, m := range Sorts {
		if strings.EqualFold(string(m), s) {
			return m, nil
		}
	}
	return "", clierr.Newf(clierr.InvalidSort, "invalid sort %q", s).
		WithDetails(map[string]any{
			"sort":    s,
			"allowed": Sorts,
		})
}

// Project returns the tasks visible under opts, sorted. now fixes "today"
// and "this week" and its location is used for calendar days.
func Project(tasks []task.Task, opts Options, now time.Time) []task.Task {
	out := Filtered(tasks, opts, now)
	SortTasks(out, opts.Sort, opts.Locale)
	return out
}

// Filtered applies the filter and search of opts without sorting. The
// result is a new slice.
func Filtered(tasks []task.Task, opts Options, now time.Time) []task.Task {
	out := make([]task.Task, 0, len(tasks))
	endOfWeek := date.EndOfWeek(now)
	query := strings.ToLower(strings.TrimSpace(opts.Search))

	for _, t := range tasks {
		if !matchesFilter(t, opts.Filter, now, endOfWeek) {
			continue
		}
		if query != "" && !matchesSearch(t, query) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func matchesFilter(t task.Task, f Filter, now, endOfWeek time.Time) bool {
	if f == Completed {
		return t.IsCompleted
	}
	if t.IsCompleted {
		return false
	}
	switch f {
	case Today:
		return date.SameDay(t.Deadline, now)
	case Week:
		return !t.Deadline.After(endOfWeek)
	default:
		return true
	}
}

func matchesSearch(t task.Task, q string) bool {
	return strings.Contains(strings.ToLower(t.Name), q) ||
		strings.Contains(strings.ToLower(t.Subject), q) ||
		strings.Contains(strings.ToLower(t.Notes), q)
}

// SortTasks sorts tasks in place. The sort is stable, so ties keep their
// collection order.
func SortTasks(tasks []task.Task, by Sort, locale language.Tag) {
	switch by {
	case ByPriority:
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].Priority.Rank() < tasks[j].Priority.Rank()
		})
	case BySubject:
		if locale == language.Und {
			locale = language.English
		}
		col := collate.New(locale)
		sort.SliceStable(tasks, func(i, j int) bool {
			return col.CompareString(tasks[i].Subject, tasks[j].Subject) < 0
		})
	case ByDateAdded:
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].DateAdded.After(tasks[j].DateAdded)
		})
	default:
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].Deadline.Before(tasks[j].Deadline)
		})
	}
}

// IDs returns the ids of tasks in order.
func IDs(tasks []task.Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}

// Subjects returns the distinct non-empty subjects in first-seen order.
func Subjects(tasks []task.Task) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range tasks {
		s := strings.TrimSpace(t.Subject)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
