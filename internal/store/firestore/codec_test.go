package firestore

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	fs "google.golang.org/api/firestore/v1"

	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
)

var added = time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)

func sample() task.Task {
	return task.Task{
		ID:        "ignored",
		Name:      "Problem set 3",
		Subject:   "",
		Deadline:  added.Add(48 * time.Hour),
		Notes:     "",
		Priority:  task.Medium,
		Category:  task.Homework,
		DateAdded: added,
	}
}

func TestEncodeSendsZeroValues(t *testing.T) {
	tk := sample()
	doc, err := encodeDocument(tk, task.Full(tk), true)
	if err != nil {
		t.Fatalf("encodeDocument failed: %v", err)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	got := string(data)
	for _, want := range []string{
		`"subject":{"stringValue":""}`,
		`"notes":{"stringValue":""}`,
		`"isCompleted":{"booleanValue":false}`,
		`"deadline":{"timestampValue":"2024-03-08T12:00:00Z"}`,
		`"dateAdded":{"timestampValue":"2024-03-06T12:00:00Z"}`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected %s in %s", want, got)
		}
	}
	if strings.Contains(got, "ignored") {
		t.Errorf("Expected id to stay out of the fields, got %s", got)
	}
}

func TestEncodePatchOnlySetFields(t *testing.T) {
	doc, err := encodeDocument(task.Task{}, task.Completion(true), false)
	if err != nil {
		t.Fatalf("encodeDocument failed: %v", err)
	}
	if len(doc.Fields) != 1 {
		t.Fatalf("Expected 1 field, got %d", len(doc.Fields))
	}
	if v := doc.Fields[task.FieldIsCompleted]; !v.BooleanValue {
		t.Errorf("Expected isCompleted true, got %+v", v)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	tk := sample()
	doc, err := encodeDocument(tk, task.Full(tk), true)
	if err != nil {
		t.Fatalf("encodeDocument failed: %v", err)
	}
	doc.Name = "projects/p/databases/(default)/documents/tasks/abc123"

	got, err := decodeDocument(doc)
	if err != nil {
		t.Fatalf("decodeDocument failed: %v", err)
	}
	if got.ID != "abc123" {
		t.Errorf("Expected id abc123, got %q", got.ID)
	}
	if got.Name != tk.Name || got.Priority != tk.Priority || got.Category != tk.Category {
		t.Errorf("Expected %+v, got %+v", tk, got)
	}
	if !got.Deadline.Equal(tk.Deadline) || !got.DateAdded.Equal(tk.DateAdded) {
		t.Errorf("Expected times %v/%v, got %v/%v", tk.Deadline, tk.DateAdded, got.Deadline, got.DateAdded)
	}
}

func TestDecodeLegacyStringTimestamps(t *testing.T) {
	deadline := "2024-03-08T12:00:00.000Z"
	name := "Old task"
	prio := "High"
	cat := "Exam"
	doc := &fs.Document{
		Name: "projects/p/databases/(default)/documents/tasks/legacy",
		Fields: map[string]fs.Value{
			task.FieldName:     {StringValue: name},
			task.FieldDeadline: {StringValue: deadline},
			task.FieldPriority: {StringValue: prio},
			task.FieldCategory: {StringValue: cat},
		},
	}
	got, err := decodeDocument(doc)
	if err != nil {
		t.Fatalf("decodeDocument failed: %v", err)
	}
	if !got.Deadline.Equal(time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected string deadline to parse, got %v", got.Deadline)
	}
	if !got.DateAdded.IsZero() {
		t.Errorf("Expected missing dateAdded to be zero, got %v", got.DateAdded)
	}
	if got.IsCompleted {
		t.Error("Expected missing isCompleted to be false")
	}
}

func TestDecodeRejectsUnknownEnums(t *testing.T) {
	name := "Bad"
	prio := "Someday"
	cat := "Homework"
	doc := &fs.Document{
		Name: "projects/p/databases/(default)/documents/tasks/bad",
		Fields: map[string]fs.Value{
			task.FieldName:     {StringValue: name},
			task.FieldPriority: {StringValue: prio},
			task.FieldCategory: {StringValue: cat},
		},
	}
	if _, err := decodeDocument(doc); err == nil {
		t.Error("Expected error for unknown priority")
	}
}
