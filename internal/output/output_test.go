package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/twiced-technology-gmbh/studyplanner/internal/clierr"
	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
	"github.com/twiced-technology-gmbh/studyplanner/internal/view"
)

var now = time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)

func sample() []task.Task {
	return []task.Task{
		{ID: "a1", Name: "Essay draft", Subject: "English", Priority: task.High, Category: task.Homework,
			Deadline: now.Add(-2 * time.Hour), DateAdded: now.Add(-48 * time.Hour)},
		{ID: "b2", Name: "Read chapter 4", Priority: task.Low, Category: task.Reading,
			Deadline: now.Add(96 * time.Hour), IsCompleted: true, DateAdded: now},
	}
}

func TestDetect(t *testing.T) {
	t.Setenv("PLANNER_OUTPUT", "")
	if f := Detect(true, true, true); f != FormatJSON {
		t.Errorf("Expected json flag to win, got %v", f)
	}
	if f := Detect(false, false, false); f != FormatTable {
		t.Errorf("Expected table default, got %v", f)
	}
	t.Setenv("PLANNER_OUTPUT", "compact")
	if f := Detect(false, false, false); f != FormatCompact {
		t.Errorf("Expected compact from env, got %v", f)
	}
}

func TestTaskTable(t *testing.T) {
	DisableColor()
	var buf bytes.Buffer
	TaskTable(&buf, sample(), now, map[string]bool{"b2": true})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected header and 2 rows, got %d:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[1], "overdue") || !strings.Contains(lines[1], "[ ]") {
		t.Errorf("Expected overdue pending row, got %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "*") || !strings.Contains(lines[2], "[x]") {
		t.Errorf("Expected selected completed row, got %q", lines[2])
	}
}

func TestTaskCompact(t *testing.T) {
	var buf bytes.Buffer
	TaskCompact(&buf, sample(), now)
	want := "[ ] a1 [High/Homework] Essay draft (English) due:2024-03-06T10:00 !overdue\n" +
		"[x] b2 [Low/Reading] Read chapter 4 due:2024-03-10T12:00\n"
	if buf.String() != want {
		t.Errorf("Expected:\n%s\ngot:\n%s", want, buf.String())
	}
}

func TestSummaryCompact(t *testing.T) {
	var buf bytes.Buffer
	SummaryCompact(&buf, "Semester", view.Summarize(sample(), now))
	out := buf.String()
	for _, want := range []string{"Semester (2 tasks, 1 pending, 1 completed)", "overdue=1", "High=1 Medium=0 Low=0"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in:\n%s", want, out)
		}
	}
}

func TestJSONError(t *testing.T) {
	var buf bytes.Buffer
	JSONError(&buf, clierr.New(clierr.TaskNotFound, "task x not found").WithDetails(map[string]any{"id": "x"}))
	out := buf.String()
	if !strings.Contains(out, `"code": "TASK_NOT_FOUND"`) || !strings.Contains(out, `"id": "x"`) {
		t.Errorf("Expected code and details in envelope, got %s", out)
	}

	buf.Reset()
	JSONError(&buf, clierr.New(clierr.InternalError, "boom"))
	if strings.Contains(buf.String(), "details") {
		t.Errorf("Expected details omitted, got %s", buf.String())
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		ok   bool
	}{
		{"json", FormatJSON, true},
		{"TABLE", FormatTable, true},
		{"compact", FormatCompact, true},
		{"oneline", FormatCompact, true},
		{"", "", false},
		{"yaml", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseFormat(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseFormat(%q): expected (%q, %v), got (%q, %v)", tt.in, tt.want, tt.ok, got, ok)
		}
	}
}

func TestNewTaskList(t *testing.T) {
	opts := view.Options{Filter: view.Today, Sort: view.ByPriority}
	empty := NewTaskList(opts, nil)
	if empty.Tasks == nil || empty.Count != 0 {
		t.Errorf("Expected empty non-nil list, got %+v", empty)
	}

	var buf bytes.Buffer
	if err := JSON(&buf, NewTaskList(opts, sample())); err != nil {
		t.Fatalf("JSON failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"count": 2`) || strings.Contains(out, `"search"`) {
		t.Errorf("Expected count and no search, got %s", out)
	}
}

func TestNewBatchResult(t *testing.T) {
	ok := NewBatchResult("a1", nil)
	if !ok.OK || ok.Code != "" {
		t.Errorf("Expected success, got %+v", ok)
	}
	failed := NewBatchResult("zz", clierr.New(clierr.TaskNotFound, "task zz not found"))
	if failed.OK || failed.Code != clierr.TaskNotFound {
		t.Errorf("Expected TASK_NOT_FOUND failure, got %+v", failed)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{26 * time.Hour, "1d 2h"},
		{90 * time.Minute, "1h 30m"},
		{0, "0h 0m"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("Calculus", 20); got != "Calculus" {
		t.Errorf("Expected unchanged, got %q", got)
	}
	if got := truncate("Organic chemistry", 8); got != "Organ..." {
		t.Errorf("Expected Organ..., got %q", got)
	}
}
