package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/twiced-technology-gmbh/studyplanner/internal/activity"
	"github.com/twiced-technology-gmbh/studyplanner/internal/date"
	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
	"github.com/twiced-technology-gmbh/studyplanner/internal/view"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("244"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))

	// Urgency colors aligned with the TUI card borders.
	urgencyStyles = map[string]lipgloss.Style{
		string(view.Done):    lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
		string(view.OnTrack): lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
		string(view.Soon):    lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
		string(view.Urgent):  lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		string(view.Overdue): lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}

	// Priority colors matching the export pills.
	priorityStyles = map[string]lipgloss.Style{
		string(task.High):   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		string(task.Medium): lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
		string(task.Low):    lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
	}

	categoryStyles = map[string]lipgloss.Style{
		string(task.Quiz):        lipgloss.NewStyle().Foreground(lipgloss.Color("135")),
		string(task.Project):     lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		string(task.Exam):        lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		string(task.Requirement): lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		string(task.Homework):    lipgloss.NewStyle().Foreground(lipgloss.Color("40")),
		string(task.Reading):     lipgloss.NewStyle().Foreground(lipgloss.Color("63")),
	}

	subjectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
)

// DisableColor strips all styling from table output.
func DisableColor() {
	headerStyle = lipgloss.NewStyle()
	dimStyle = lipgloss.NewStyle()
	doneStyle = lipgloss.NewStyle()
	urgencyStyles = map[string]lipgloss.Style{}
	priorityStyles = map[string]lipgloss.Style{}
	categoryStyles = map[string]lipgloss.Style{}
	subjectStyle = lipgloss.NewStyle()
}

// TaskTable renders a list of tasks as a formatted table. Selected ids are
// marked with an asterisk.
func TaskTable(w io.Writer, tasks []task.Task, now time.Time, selected map[string]bool) {
	if len(tasks) == 0 {
		fmt.Fprintln(os.Stderr, "No tasks found.")
		return
	}

	// Calculate column widths.
	const pad = 2
	idW, prioW, catW, nameW, subjW, dueW := 4, 10, 10, 6, 9, 18
	for _, t := range tasks {
		idW = max(idW, len(t.ID)+pad)
		catW = max(catW, len(t.Category)+pad)
		nameW = max(nameW, min(len(t.Name)+pad, 42))   //nolint:mnd // max name column width
		subjW = max(subjW, min(len(t.Subject)+pad, 20)) //nolint:mnd // max subject column width
	}

	header := fmt.Sprintf("  %-*s %-4s %-*s %-*s %-*s %-*s %-*s %s",
		idW, "ID", "DONE", prioW, "PRIORITY", catW, "CATEGORY",
		nameW, "NAME", subjW, "SUBJECT", dueW, "DEADLINE", "STATUS")
	fmt.Fprintln(w, headerStyle.Render(strings.TrimRight(header, " ")))

	for _, t := range tasks {
		mark := " "
		if selected[t.ID] {
			mark = "*"
		}
		done := dimStyle.Render("[ ]")
		if t.IsCompleted {
			done = doneStyle.Render("[x]")
		}
		subject := t.Subject
		if subject == "" {
			subject = dimStyle.Render("--")
		} else {
			subject = subjectStyle.Render(truncate(subject, subjW-pad))
		}

		row := fmt.Sprintf("%s %-*s %s %s %s %s %s %s %s",
			mark,
			idW, t.ID,
			padRight(done, 4), //nolint:mnd // DONE column width
			padRight(styledValue(string(t.Priority), priorityStyles), prioW),
			padRight(styledValue(string(t.Category), categoryStyles), catW),
			padRight(truncate(t.Name, nameW-pad), nameW),
			padRight(subject, subjW),
			padRight(date.Short(t.Deadline), dueW),
			styledValue(string(view.UrgencyOf(t, now)), urgencyStyles))
		fmt.Fprintln(w, strings.TrimRight(row, " "))
	}
}

// TaskDetail renders a single task with full detail. notes is written
// as given so callers can pre-render markdown.
func TaskDetail(w io.Writer, t task.Task, now time.Time, notes string) {
	titleLine := "Task " + t.ID + ": " + t.Name
	fmt.Fprintln(w, lipgloss.NewStyle().Bold(true).Render(titleLine))
	fmt.Fprintln(w, strings.Repeat("─", lipgloss.Width(titleLine)))

	status := "pending"
	if t.IsCompleted {
		status = doneStyle.Render("completed")
	}
	printField(w, "Status", status)
	printField(w, "Priority", styledValue(string(t.Priority), priorityStyles))
	printField(w, "Category", styledValue(string(t.Category), categoryStyles))
	printField(w, "Subject", stringOrDash(t.Subject))
	printField(w, "Deadline", date.Short(t.Deadline))
	printField(w, "Urgency", styledValue(string(view.UrgencyOf(t, now)), urgencyStyles))
	if !t.IsCompleted {
		left := t.Deadline.Sub(now)
		if left >= 0 {
			printField(w, "Time left", FormatDuration(left))
		} else {
			printField(w, "Overdue by", FormatDuration(-left))
		}
	}
	printField(w, "Added", t.DateAdded.Format("2006-01-02 15:04"))

	if notes != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, strings.TrimRight(notes, "\n"))
	}
}

// SummaryTable renders collection statistics as a small dashboard.
func SummaryTable(w io.Writer, name string, s view.Summary) {
	fmt.Fprintln(w, lipgloss.NewStyle().Bold(true).Render(name))
	fmt.Fprintf(w, "Total: %d tasks (%d pending, %d completed)\n\n", s.Total, s.Pending, s.Completed)

	const labelW = 16
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-*s %6s", labelW, "DUE", "COUNT")))
	fmt.Fprintf(w, "%s %6d\n", padRight(styledValue(string(view.Overdue), urgencyStyles), labelW), s.Overdue)
	fmt.Fprintf(w, "%-*s %6d\n", labelW, "today", s.DueToday)
	fmt.Fprintf(w, "%-*s %6d\n", labelW, "this week", s.DueWeek)

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-*s %6s", labelW, "PRIORITY", "COUNT")))
	for _, p := range []task.Priority{task.High, task.Medium, task.Low} {
		fmt.Fprintf(w, "%s %6d\n", padRight(styledValue(string(p), priorityStyles), labelW), s.ByPriority[p])
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-*s %6s", labelW, "CATEGORY", "COUNT")))
	for _, c := range task.Categories {
		if s.ByCategory[c] == 0 {
			continue
		}
		fmt.Fprintf(w, "%s %6d\n", padRight(styledValue(string(c), categoryStyles), labelW), s.ByCategory[c])
	}

	if len(s.Subjects) > 0 {
		fmt.Fprintln(w)
		printField(w, "Subjects", subjectStyle.Render(strings.Join(s.Subjects, ", ")))
	}
}

// GroupedTable renders one task table per group under a heading line.
func GroupedTable(w io.Writer, g view.Grouped, now time.Time, selected map[string]bool) {
	if len(g.Groups) == 0 {
		fmt.Fprintln(os.Stderr, "No tasks found.")
		return
	}
	for i, grp := range g.Groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		key := grp.Key
		switch g.Field {
		case "priority":
			key = styledValue(key, priorityStyles)
		case "category":
			key = styledValue(key, categoryStyles)
		case "urgency":
			key = styledValue(key, urgencyStyles)
		}
		fmt.Fprintf(w, "%s %s\n", lipgloss.NewStyle().Bold(true).Render(key),
			dimStyle.Render(fmt.Sprintf("(%d pending, %d completed)", grp.Pending, grp.Completed)))
		TaskTable(w, grp.Tasks, now, selected)
	}
}

// ActivityTable renders journal entries, oldest first.
func ActivityTable(w io.Writer, entries []activity.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "No activity recorded.")
		return
	}
	const timeW, actionW, idW = 17, 8, 14
	header := fmt.Sprintf("%-*s %-*s %-*s %s", timeW, "TIME", actionW, "ACTION", idW, "TASK", "DETAIL")
	fmt.Fprintln(w, headerStyle.Render(header))
	for _, e := range entries {
		id := e.TaskID
		if id == "" {
			id = "--"
		}
		detail := e.Detail
		if strings.HasPrefix(detail, "rolled back") || strings.HasPrefix(detail, "failed") {
			detail = urgencyStyles[string(view.Overdue)].Render(detail)
		}
		fmt.Fprintf(w, "%-*s %-*s %-*s %s\n",
			timeW, e.Timestamp.Format("2006-01-02 15:04"),
			actionW, e.Action,
			idW, truncate(id, idW),
			detail)
	}
}

// Messagef prints a simple formatted message line.
func Messagef(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...)
}

func printField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %-12s %s\n", label+":", value)
}

// FormatDuration renders a duration as human-readable "Xd Yh" or "Xh Ym".
func FormatDuration(d time.Duration) string {
	const hoursPerDay = 24
	days := int(d.Hours()) / hoursPerDay
	hours := int(d.Hours()) % hoursPerDay
	if days > 0 {
		return strconv.Itoa(days) + "d " + strconv.Itoa(hours) + "h"
	}
	minutes := int(d.Minutes()) % 60 //nolint:mnd // 60 minutes per hour
	return strconv.Itoa(hours) + "h " + strconv.Itoa(minutes) + "m"
}

// padRight pads s with spaces to the given visible width, accounting for ANSI
// escape codes that are invisible but consume bytes.
func padRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

// truncate shortens s to at most n runes, ending with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	const ellipsis = 3
	if n <= ellipsis {
		return string(r[:n])
	}
	return string(r[:n-ellipsis]) + "..."
}

func stringOrDash(s string) string {
	if s == "" {
		return dimStyle.Render("--")
	}
	return s
}

// styledValue renders s using a matching style from the map, or returns s unchanged.
func styledValue(s string, styles map[string]lipgloss.Style) string {
	if st, ok := styles[s]; ok {
		return st.Render(s)
	}
	return s
}
