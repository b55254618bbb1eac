package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/twiced-technology-gmbh/studyplanner/internal/date"
	"github.com/twiced-technology-gmbh/studyplanner/internal/gate"
	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
	"github.com/twiced-technology-gmbh/studyplanner/internal/view"
)

// --- Styles ---

var (
	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	activeCardStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	titleStyle = lipgloss.NewStyle().Bold(true)

	doneTitleStyle = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("242"))

	// Border colors by urgency.
	urgencyColors = map[view.Urgency]lipgloss.Color{
		view.Done:    "242",
		view.OnTrack: "34",
		view.Soon:    "226",
		view.Urgent:  "208",
		view.Overdue: "196",
	}

	priorityColors = map[task.Priority]lipgloss.Color{
		task.High:   "196",
		task.Medium: "226",
		task.Low:    "34",
	}

	dialogPadY = 1
	dialogPadX = 2

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(dialogPadY, dialogPadX)

	dangerDialogStyle = dialogStyle.BorderForeground(lipgloss.Color("196"))

	labelStyle = lipgloss.NewStyle().Width(10).Foreground(lipgloss.Color("244"))

	focusLabelStyle = labelStyle.Foreground(lipgloss.Color("62")).Bold(true)
)

var filterLabels = map[view.Filter]string{
	view.All:       "All",
	view.Today:     "Today",
	view.Week:      "This Week",
	view.Completed: "Completed",
}

var sortLabels = map[view.Sort]string{
	view.ByDeadline:  "deadline",
	view.ByPriority:  "priority",
	view.BySubject:   "subject",
	view.ByDateAdded: "newest",
}

// --- View rendering ---

func (m *Model) viewList() string {
	var lines []string
	lines = append(lines, m.renderHeader(), "")

	if len(m.visible) == 0 {
		empty := "No tasks here. Press a to add one."
		if m.loading {
			empty = "Loading tasks..."
		}
		lines = append(lines, dimStyle.Render("  "+empty))
	} else {
		end := min(m.offset+m.pageSize(), len(m.visible))
		for i := m.offset; i < end; i++ {
			lines = append(lines, m.renderCard(m.visible[i], i == m.cursor))
		}
	}

	body := lipgloss.JoinVertical(lipgloss.Left, lines...)
	targetHeight := m.height - m.statusHeight()
	if targetHeight > 0 {
		actual := strings.Count(body, "\n") + 1
		if actual > targetHeight {
			bodyLines := strings.SplitN(body, "\n", targetHeight+1)
			body = strings.Join(bodyLines[:targetHeight], "\n")
		} else if actual < targetHeight {
			body += strings.Repeat("\n", targetHeight-actual)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, body, m.renderStatusBar())
}

func (m *Model) renderHeader() string {
	opts := m.session.Options()
	tabs := make([]string, 0, len(view.Filters))
	for i, f := range view.Filters {
		label := strconv.Itoa(i+1) + " " + filterLabels[f]
		if f == opts.Filter {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	header += dimStyle.Render("  sort: " + sortLabels[opts.Sort])
	if m.mode == modeSearch {
		header += "  " + m.search.View()
	} else if opts.Search != "" {
		header += dimStyle.Render("  /" + opts.Search)
	}
	return header
}

func (m *Model) cardWidth() int {
	const maxCardWidth = 100
	return min(max(m.width, 20), maxCardWidth) //nolint:mnd // minimum card width
}

func (m *Model) renderCard(t task.Task, active bool) string {
	width := m.cardWidth()
	const cardChrome = 4 // border (2) + padding (2)
	inner := max(width-cardChrome, 1)

	check := "[ ]"
	if t.IsCompleted {
		check = "[x]"
	}
	sel := "○"
	if m.session.IsSelected(t.ID) {
		sel = "●"
	}
	pill := lipgloss.NewStyle().Foreground(priorityColors[t.Priority]).Render(string(t.Priority))

	nameStyle := titleStyle
	if t.IsCompleted {
		nameStyle = doneTitleStyle
	}
	prefix := sel + " " + check + " "
	nameWidth := max(inner-lipgloss.Width(prefix)-lipgloss.Width(pill)-1, 1)
	name := truncate(t.Name, nameWidth)
	gap := max(inner-lipgloss.Width(prefix)-lipgloss.Width(name)-lipgloss.Width(pill), 1)
	first := prefix + nameStyle.Render(name) + strings.Repeat(" ", gap) + pill

	now := m.now()
	urgency := view.UrgencyOf(t, now)
	parts := []string{string(t.Category)}
	if t.Subject != "" {
		parts = append(parts, t.Subject)
	}
	parts = append(parts, date.Short(t.Deadline))
	if !t.IsCompleted {
		parts = append(parts, dueLabel(t.Deadline.Sub(now)))
	}
	second := dimStyle.Render(truncate(strings.Join(parts, " · "), inner))

	style := cardStyle.BorderForeground(urgencyColors[urgency])
	if active {
		style = activeCardStyle
	}
	return style.Width(width - 2).Render(first + "\n" + second) //nolint:mnd // border width
}

// dueLabel describes the time left until a deadline.
func dueLabel(left time.Duration) string {
	if left < 0 {
		return "overdue by " + humanDuration(-left)
	}
	return "due in " + humanDuration(left)
}

func (m *Model) statusHeight() int {
	if m.err != nil || m.info != "" {
		return 1 + errorChrome
	}
	return 1
}

func (m *Model) renderStatusBar() string {
	snap := m.session.Repository().Snapshot()
	state := fmt.Sprintf("%d shown · %d total", len(m.visible), len(snap.Tasks))
	if m.loading {
		state = "loading..."
	}
	if n := len(m.session.SelectedIDs()); n > 0 {
		state += fmt.Sprintf(" · %d selected", n)
	}
	name := m.opts.Name
	if name == "" {
		name = "Planner"
	}
	status := fmt.Sprintf(" %s | %s | a:add e:edit x:done d:del space:select A:all E:export s:sort /:search q:quit",
		name, state)
	status = truncate(status, max(m.width, 4)) //nolint:mnd // minimum width

	bar := statusBarStyle.Render(status)
	if m.info != "" && m.err == nil {
		bar = infoStyle.Render(truncate(" "+m.info, max(m.width, 4))) + "\n" + bar //nolint:mnd // minimum width
	}
	if m.err != nil {
		errStr := errorStyle.Render(truncate("Error: "+m.err.Error(), max(m.width, 4))) //nolint:mnd // minimum width
		return errStr + "\n" + bar
	}
	return bar
}

func (m *Model) viewForm() string {
	f := m.form
	labels := [fieldCount]string{"Name", "Subject", "Deadline", "Notes", "Priority", "Category"}

	var rows []string
	rows = append(rows, titleStyle.Render(f.title()), "")
	for i := range fieldCount {
		label := labelStyle.Render(labels[i])
		if i == f.focus {
			label = focusLabelStyle.Render(labels[i])
		}
		var value string
		switch {
		case i < textFields:
			value = f.inputs[i].View()
		case i == fieldPriority:
			p := task.Priorities[f.priority]
			value = "‹ " + lipgloss.NewStyle().Foreground(priorityColors[p]).Render(string(p)) + " ›"
		default:
			value = "‹ " + string(task.Categories[f.category]) + " ›"
		}
		rows = append(rows, label+" "+value)
	}
	if f.err != "" {
		rows = append(rows, "", errorStyle.Render(f.err))
	}
	rows = append(rows, "", dimStyle.Render("tab:next  ←/→:change  enter:save  esc:cancel"))

	return dialogStyle.Render(strings.Join(rows, "\n"))
}

func (m *Model) viewConfirm() string {
	p := m.prompt
	style := dialogStyle
	head := titleStyle
	if p.Variant == gate.Danger {
		style = dangerDialogStyle
		head = errorStyle
	}
	content := head.Render(p.Title) + "\n\n" +
		wrap(p.Message, 50) + "\n\n" + //nolint:mnd // dialog text width
		dimStyle.Render("y:"+strings.ToLower(p.Confirm)+"  n:cancel")
	return style.Render(content)
}

func (m *Model) viewExportError() string {
	content := errorStyle.Render("Export failed") + "\n\n" +
		wrap(m.exportErr.Error(), 50) + "\n\n" + //nolint:mnd // dialog text width
		dimStyle.Render("press any key")
	return dangerDialogStyle.Render(content)
}

// wrap word-wraps s to lines of at most width display cells.
func wrap(s string, width int) string {
	words := strings.Fields(s)
	var lines []string
	var current strings.Builder
	for _, word := range words {
		if current.Len() > 0 && lipgloss.Width(current.String())+1+lipgloss.Width(word) > width {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, maxLen int) string {
	if maxLen < 4 { //nolint:mnd // minimum length for truncation
		maxLen = 4
	}
	if lipgloss.Width(s) <= maxLen {
		return s
	}
	// Slice by runes to avoid breaking multi-byte UTF-8 characters.
	runes := []rune(s)
	target := maxLen - 3 //nolint:mnd // room for "..."
	if target > len(runes) {
		target = len(runes)
	}
	// Trim runes from the end until the display width fits.
	for target > 0 && lipgloss.Width(string(runes[:target])) > maxLen-3 {
		target--
	}
	return string(runes[:target]) + "..."
}

// humanDuration formats a duration as a compact human-readable string.
// Examples: "<1m", "5m", "2h", "3d", "2w", "3mo", "1y".
func humanDuration(d time.Duration) string {
	const (
		day   = 24 * time.Hour
		week  = 7 * day
		month = 30 * day
		year  = 365 * day
	)

	switch {
	case d < time.Minute:
		return "<1m"
	case d < time.Hour:
		return strconv.Itoa(int(d.Minutes())) + "m"
	case d < day:
		return strconv.Itoa(int(d.Hours())) + "h"
	case d < week:
		return strconv.Itoa(int(d/day)) + "d"
	case d < month:
		return strconv.Itoa(int(d/week)) + "w"
	case d < year:
		return strconv.Itoa(int(d/month)) + "mo"
	default:
		return strconv.Itoa(int(d/year)) + "y"
	}
}
