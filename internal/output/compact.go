package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/twiced-technology-gmbh/studyplanner/internal/activity"
	"github.com/twiced-technology-gmbh/studyplanner/internal/date"
	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
	"github.com/twiced-technology-gmbh/studyplanner/internal/view"
)

// TaskCompact renders a list of tasks in one-line-per-record compact format.
func TaskCompact(w io.Writer, tasks []task.Task, now time.Time) {
	if len(tasks) == 0 {
		fmt.Fprintln(os.Stderr, "No tasks found.")
		return
	}

	for _, t := range tasks {
		fmt.Fprintln(w, formatTaskLine(t, now))
	}
}

// TaskDetailCompact renders a single task with detail in compact format.
func TaskDetailCompact(w io.Writer, t task.Task, now time.Time) {
	fmt.Fprintln(w, formatTaskLine(t, now))
	fmt.Fprintln(w, "  added:"+date.Day(t.DateAdded)+" deadline:"+date.Input(t.Deadline))

	if t.Notes != "" {
		for _, noteLine := range strings.Split(t.Notes, "\n") {
			fmt.Fprintln(w, "  "+noteLine)
		}
	}
}

// SummaryCompact renders collection statistics in compact format.
func SummaryCompact(w io.Writer, name string, s view.Summary) {
	fmt.Fprintf(w, "%s (%d tasks, %d pending, %d completed)\n", name, s.Total, s.Pending, s.Completed)
	fmt.Fprintf(w, "  due: overdue=%d today=%d week=%d\n", s.Overdue, s.DueToday, s.DueWeek)

	parts := make([]string, 0, len(task.Priorities))
	for _, p := range []task.Priority{task.High, task.Medium, task.Low} {
		parts = append(parts, string(p)+"="+strconv.Itoa(s.ByPriority[p]))
	}
	fmt.Fprintln(w, "Priority: "+strings.Join(parts, " "))

	var cats []string
	for _, c := range task.Categories {
		if n := s.ByCategory[c]; n > 0 {
			cats = append(cats, string(c)+"="+strconv.Itoa(n))
		}
	}
	if len(cats) > 0 {
		fmt.Fprintln(w, "Category: "+strings.Join(cats, " "))
	}
}

// ActivityCompact renders journal entries one per line.
func ActivityCompact(w io.Writer, entries []activity.Entry) {
	for _, e := range entries {
		line := e.Timestamp.Format(time.RFC3339) + " " + e.Action
		if e.TaskID != "" {
			line += " " + e.TaskID
		}
		if e.Detail != "" {
			line += " " + e.Detail
		}
		fmt.Fprintln(w, line)
	}
}

// formatTaskLine builds the one-line representation of a task.
func formatTaskLine(t task.Task, now time.Time) string {
	mark := "[ ]"
	if t.IsCompleted {
		mark = "[x]"
	}
	line := mark + " " + t.ID + " [" + string(t.Priority) + "/" + string(t.Category) + "] " + t.Name

	if t.Subject != "" {
		line += " (" + t.Subject + ")"
	}
	line += " due:" + date.Input(t.Deadline)
	if u := view.UrgencyOf(t, now); u != view.OnTrack && u != view.Done {
		line += " !" + string(u)
	}

	return line
}

// GroupedCompact renders grouped tasks with a header line per group.
func GroupedCompact(w io.Writer, g view.Grouped, now time.Time) {
	for _, grp := range g.Groups {
		fmt.Fprintf(w, "## %s (%d pending, %d completed)\n", grp.Key, grp.Pending, grp.Completed)
		for _, t := range grp.Tasks {
			fmt.Fprintln(w, formatTaskLine(t, now))
		}
	}
}
