package view

import (
	"time"

	"github.com/twiced-technology-gmbh/studyplanner/internal/date"
	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
)

// Urgency classifies how close a task is to its deadline.
type Urgency string

// Urgency levels, from least to most pressing.
const (
	Done    Urgency = "done"
	OnTrack Urgency = "on-track"
	Soon    Urgency = "soon"
	Urgent  Urgency = "urgent"
	Overdue Urgency = "overdue"
)

const (
	urgentWindow = 24 * time.Hour
	soonWindow   = 72 * time.Hour
)

// UrgencyOf returns the urgency of t at now.
func UrgencyOf(t task.Task, now time.Time) Urgency {
	if t.IsCompleted {
		return Done
	}
	left := t.Deadline.Sub(now)
	switch {
	case left < 0:
		return Overdue
	case left <= urgentWindow:
		return Urgent
	case left <= soonWindow:
		return Soon
	default:
		return OnTrack
	}
}

// Summary holds collection statistics.
type Summary struct {
	Total      int                   `json:"total"`
	Pending    int                   `json:"pending"`
	Completed  int                   `json:"completed"`
	Overdue    int                   `json:"overdue"`
	DueToday   int                   `json:"due_today"`
	DueWeek    int                   `json:"due_this_week"`
	ByPriority map[task.Priority]int `json:"by_priority"`
	ByCategory map[task.Category]int `json:"by_category"`
	Subjects   []string              `json:"subjects"`
}

// Summarize computes statistics for tasks at now. Due counts only include
// pending tasks and use the same rules as the today and week filters.
func Summarize(tasks []task.Task, now time.Time) Summary {
	s := Summary{
		Total:      len(tasks),
		ByPriority: make(map[task.Priority]int, len(task.Priorities)),
		ByCategory: make(map[task.Category]int, len(task.Categories)),
		Subjects:   Subjects(tasks),
	}
	endOfWeek := date.EndOfWeek(now)

	for _, t := range tasks {
		if t.IsCompleted {
			s.Completed++
			continue
		}
		s.Pending++
		s.ByPriority[t.Priority]++
		s.ByCategory[t.Category]++
		if t.Deadline.Before(now) {
			s.Overdue++
		}
		if date.SameDay(t.Deadline, now) {
			s.DueToday++
		}
		if !t.Deadline.After(endOfWeek) {
			s.DueWeek++
		}
	}
	return s
}
