package scheduler

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/twiced-technology-gmbh/studyplanner/internal/export"
	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
)

func TestDailySpec(t *testing.T) {
	tests := []struct {
		clock   string
		want    string
		wantErr bool
	}{
		{"07:30", "0 30 7 * * *", false},
		{"00:00", "0 0 0 * * *", false},
		{"23:59", "0 59 23 * * *", false},
		{"24:00", "", true},
		{"7", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.clock, func(t *testing.T) {
			got, err := DailySpec(tt.clock)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q", tt.clock)
				}
				return
			}
			if err != nil {
				t.Fatalf("DailySpec failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestScheduleDailyNext(t *testing.T) {
	s := New(time.UTC, nil)
	id, err := s.ScheduleDaily("06:15", func() {})
	if err != nil {
		t.Fatalf("ScheduleDaily failed: %v", err)
	}
	s.Start()
	defer s.Stop()

	next := s.Next(id)
	if next.Hour() != 6 || next.Minute() != 15 || next.Second() != 0 {
		t.Errorf("Expected next run at 06:15:00, got %v", next)
	}
}

func TestDigestRun(t *testing.T) {
	now := time.Date(2024, 3, 6, 7, 30, 0, 0, time.UTC)
	tasks := []task.Task{
		{ID: "1", Name: "Lab report", Priority: task.High, Category: task.Project, Deadline: now.Add(24 * time.Hour)},
		{ID: "2", Name: "Next month", Priority: task.Low, Category: task.Reading, Deadline: now.AddDate(0, 1, 0)},
	}
	dir := filepath.Join(t.TempDir(), "exports")
	d := Digest{
		Tasks:   func() []task.Task { return tasks },
		Dir:     dir,
		Options: export.Options{Ratio: export.Landscape, Scale: 0.5},
		Now:     func() time.Time { return now },
	}

	path, err := d.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if filepath.Base(path) != "digest-2024-03-06.png" {
		t.Errorf("Unexpected digest name %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("DecodeConfig failed: %v", err)
	}
	if cfg.Width != 640 || cfg.Height != 360 {
		t.Errorf("Expected 640x360, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestDigestWithoutSource(t *testing.T) {
	if _, err := (Digest{Dir: t.TempDir()}).Run(); err == nil {
		t.Error("Expected error without a task source")
	}
}
