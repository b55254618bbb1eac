package date

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2024-03-07", time.Date(2024, 3, 7, 0, 0, 0, 0, loc)},
		{"2024-03-07T09:30", time.Date(2024, 3, 7, 9, 30, 0, 0, loc)},
		{"2024-03-07 09:30", time.Date(2024, 3, 7, 9, 30, 0, 0, loc)},
		{" 2024-03-07T09:30:15 ", time.Date(2024, 3, 7, 9, 30, 15, 0, loc)},
		{"2024-03-07T09:30:00Z", time.Date(2024, 3, 7, 9, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input, loc)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestParseRejects(t *testing.T) {
	for _, input := range []string{"", "   ", "tomorrow", "2024-13-01", "07.03.2024"} {
		if _, err := Parse(input, time.UTC); err == nil {
			t.Errorf("Expected error for %q", input)
		}
	}
}

func TestEndOfWeek(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"wednesday", time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC), time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)},
		{"saturday", time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC), time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)},
		{"sunday", time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC), time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC)},
		{"monday", time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EndOfWeek(tt.now); !got.Equal(tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSameDay(t *testing.T) {
	ref := time.Date(2024, 3, 6, 23, 0, 0, 0, time.UTC)
	if !SameDay(time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC), ref) {
		t.Error("Expected midnight to be the same day")
	}
	if SameDay(time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC), ref) {
		t.Error("Expected next midnight to be a different day")
	}
	// 01:00 on the 7th at UTC+2 is still the 6th in UTC.
	plus2 := time.FixedZone("UTC+2", 2*60*60)
	if !SameDay(time.Date(2024, 3, 7, 1, 0, 0, 0, plus2), ref) {
		t.Error("Expected comparison in the reference location")
	}
}

func TestFormats(t *testing.T) {
	ts := time.Date(2024, 3, 7, 15, 4, 0, 0, time.UTC)
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"short", Short(ts), "3/7/24, 3:04 PM"},
		{"input", Input(ts), "2024-03-07T15:04"},
		{"day", Day(ts), "2024-03-07"},
		{"weekday", Weekday(ts), "Thursday"},
		{"month day", MonthDay(ts), "March 7"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.name, tt.want, tt.got)
		}
	}
}

func TestInputRoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 7, 9, 0, 0, 0, time.UTC)
	got, err := Parse(Input(ts), time.UTC)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !got.Equal(ts) {
		t.Errorf("Expected %v, got %v", ts, got)
	}
}
