package view

import (
	"reflect"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
)

// Wednesday noon; the week filter runs through Sunday midnight (Mar 10).
var now = time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)

func mk(id string, deadline time.Time, p task.Priority, done bool) task.Task {
	return task.Task{
		ID:          id,
		Name:        "Task " + id,
		Deadline:    deadline,
		Priority:    p,
		Category:    task.Homework,
		IsCompleted: done,
	}
}

func fixture() []task.Task {
	return []task.Task{
		mk("today", now.Add(3*time.Hour), task.Low, false),
		mk("overdue", now.Add(-48*time.Hour), task.High, false),
		mk("sunday", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), task.Medium, false),
		mk("next", time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC), task.High, false),
		mk("done", now.Add(time.Hour), task.Low, true),
	}
}

func TestFilters(t *testing.T) {
	tests := []struct {
		filter Filter
		want   []string
	}{
		{All, []string{"today", "overdue", "sunday", "next"}},
		{Today, []string{"today"}},
		{Week, []string{"today", "overdue", "sunday"}},
		{Completed, []string{"done"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			got := IDs(Filtered(fixture(), Options{Filter: tt.filter}, now))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCompletedPartition(t *testing.T) {
	tasks := fixture()
	all := Filtered(tasks, Options{Filter: All}, now)
	done := Filtered(tasks, Options{Filter: Completed}, now)
	if len(all)+len(done) != len(tasks) {
		t.Errorf("Expected all and completed to partition %d tasks, got %d + %d", len(tasks), len(all), len(done))
	}
	seen := make(map[string]bool)
	for _, tk := range append(all, done...) {
		if seen[tk.ID] {
			t.Errorf("Expected %s in exactly one partition", tk.ID)
		}
		seen[tk.ID] = true
	}
}

func TestProjectionIsSubset(t *testing.T) {
	tasks := fixture()
	ids := make(map[string]bool)
	for _, tk := range tasks {
		ids[tk.ID] = true
	}
	for _, f := range Filters {
		for _, s := range Sorts {
			for _, tk := range Project(tasks, Options{Filter: f, Sort: s}, now) {
				if !ids[tk.ID] {
					t.Errorf("Expected %s/%s projection to only hold collection tasks, found %s", f, s, tk.ID)
				}
			}
		}
	}
}

func TestPriorityOrder(t *testing.T) {
	tasks := []task.Task{
		{ID: "1", Priority: task.Low},
		{ID: "2", Priority: task.High},
	}
	got := IDs(Project(tasks, Options{Sort: ByPriority}, now))
	if !reflect.DeepEqual(got, []string{"2", "1"}) {
		t.Errorf("Expected [2 1], got %v", got)
	}
}

func TestPriorityStable(t *testing.T) {
	tasks := []task.Task{
		{ID: "a", Priority: task.Medium},
		{ID: "b", Priority: task.High},
		{ID: "c", Priority: task.Medium},
		{ID: "d", Priority: task.Low},
		{ID: "e", Priority: task.High},
	}
	got := IDs(Project(tasks, Options{Sort: ByPriority}, now))
	want := []string{"b", "e", "a", "c", "d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestSortDirections(t *testing.T) {
	tasks := []task.Task{
		{ID: "a", Deadline: now.Add(2 * time.Hour), DateAdded: now.Add(-3 * time.Hour)},
		{ID: "b", Deadline: now.Add(1 * time.Hour), DateAdded: now.Add(-1 * time.Hour)},
		{ID: "c", Deadline: now.Add(3 * time.Hour), DateAdded: now.Add(-2 * time.Hour)},
	}
	if got := IDs(Project(tasks, Options{Sort: ByDeadline}, now)); !reflect.DeepEqual(got, []string{"b", "a", "c"}) {
		t.Errorf("Expected deadline ascending [b a c], got %v", got)
	}
	if got := IDs(Project(tasks, Options{Sort: ByDateAdded}, now)); !reflect.DeepEqual(got, []string{"b", "c", "a"}) {
		t.Errorf("Expected dateAdded descending [b c a], got %v", got)
	}
}

func TestSubjectCollation(t *testing.T) {
	tasks := []task.Task{
		{ID: "1", Subject: "physics"},
		{ID: "2", Subject: "Économie"},
		{ID: "3", Subject: "Biology"},
		{ID: "4", Subject: "english"},
	}
	got := IDs(Project(tasks, Options{Sort: BySubject, Locale: language.French}, now))
	want := []string{"3", "2", "4", "1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestSortIdempotent(t *testing.T) {
	for _, s := range Sorts {
		once := Project(fixture(), Options{Sort: s}, now)
		twice := Project(once, Options{Sort: s}, now)
		if !reflect.DeepEqual(IDs(once), IDs(twice)) {
			t.Errorf("Expected %s sort to be idempotent, got %v then %v", s, IDs(once), IDs(twice))
		}
	}
}

func TestProjectDoesNotModifyInput(t *testing.T) {
	tasks := fixture()
	before := IDs(tasks)
	Project(tasks, Options{Sort: ByPriority}, now)
	if !reflect.DeepEqual(IDs(tasks), before) {
		t.Errorf("Expected input order %v to be kept, got %v", before, IDs(tasks))
	}
}

func TestSearch(t *testing.T) {
	tasks := []task.Task{
		{ID: "1", Name: "Lab report", Subject: "Chemistry"},
		{ID: "2", Name: "Reading", Subject: "History", Notes: "chapter on the lab era"},
		{ID: "3", Name: "Essay", Subject: "English"},
	}
	got := IDs(Filtered(tasks, Options{Search: "LAB"}, now))
	if !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Errorf("Expected [1 2], got %v", got)
	}
}

func TestParseModes(t *testing.T) {
	if f, err := ParseFilter("Week"); err != nil || f != Week {
		t.Errorf("Expected week, got %q (%v)", f, err)
	}
	if _, err := ParseFilter("month"); err == nil {
		t.Error("Expected error for unknown filter")
	}
	if s, err := ParseSort("dateadded"); err != nil || s != ByDateAdded {
		t.Errorf("Expected dateAdded, got %q (%v)", s, err)
	}
	if _, err := ParseSort("name"); err == nil {
		t.Error("Expected error for unknown sort")
	}
}

func TestSubjects(t *testing.T) {
	tasks := []task.Task{{Subject: "Math"}, {Subject: ""}, {Subject: "Art"}, {Subject: "Math"}}
	got := Subjects(tasks)
	if !reflect.DeepEqual(got, []string{"Math", "Art"}) {
		t.Errorf("Expected [Math Art], got %v", got)
	}
}

func TestUrgency(t *testing.T) {
	tests := []struct {
		name string
		task task.Task
		want Urgency
	}{
		{"done", task.Task{Deadline: now.Add(-time.Hour), IsCompleted: true}, Done},
		{"overdue", task.Task{Deadline: now.Add(-time.Minute)}, Overdue},
		{"urgent", task.Task{Deadline: now.Add(23 * time.Hour)}, Urgent},
		{"soon", task.Task{Deadline: now.Add(48 * time.Hour)}, Soon},
		{"on track", task.Task{Deadline: now.Add(96 * time.Hour)}, OnTrack},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UrgencyOf(tt.task, now); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(fixture(), now)
	if s.Total != 5 || s.Pending != 4 || s.Completed != 1 {
		t.Errorf("Expected 5 total, 4 pending, 1 completed, got %+v", s)
	}
	if s.Overdue != 1 {
		t.Errorf("Expected 1 overdue, got %d", s.Overdue)
	}
	if s.DueToday != 1 {
		t.Errorf("Expected 1 due today, got %d", s.DueToday)
	}
	if s.DueWeek != 3 {
		t.Errorf("Expected 3 due this week, got %d", s.DueWeek)
	}
	if s.ByPriority[task.High] != 2 {
		t.Errorf("Expected 2 pending high priority, got %d", s.ByPriority[task.High])
	}
}
