package firestore

import (
	"encoding/json"
	"fmt"
	"path"
	"time"

	fs "google.golang.org/api/firestore/v1"

	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
)

// value is the subset of the Firestore Value wire shape that task
// documents use. Documents written by older clients stored timestamps as
// ISO strings, so both forms are read.
type value struct {
	StringValue    *string `json:"stringValue,omitempty"`
	BooleanValue   *bool   `json:"booleanValue,omitempty"`
	TimestampValue string  `json:"timestampValue,omitempty"`
	NullValue      *string `json:"nullValue,omitempty"`
}

type wireDocument struct {
	Name   string           `json:"name,omitempty"`
	Fields map[string]value `json:"fields"`
}

func str(s string) value { return value{StringValue: &s} }

func boolean(b bool) value { return value{BooleanValue: &b} }

func timestamp(t time.Time) value {
	return value{TimestampValue: t.UTC().Format(time.RFC3339Nano)}
}

// encodeDocument builds a Firestore document holding the fields set in p.
// With withCreated the creation time of t is included too.
func encodeDocument(t task.Task, p task.Patch, withCreated bool) (*fs.Document, error) {
	fields := make(map[string]value)
	if p.Name != nil {
		fields[task.FieldName] = str(*p.Name)
	}
	if p.Subject != nil {
		fields[task.FieldSubject] = str(*p.Subject)
	}
	if p.Deadline != nil {
		fields[task.FieldDeadline] = timestamp(*p.Deadline)
	}
	if p.Notes != nil {
		fields[task.FieldNotes] = str(*p.Notes)
	}
	if p.Priority != nil {
		fields[task.FieldPriority] = str(string(*p.Priority))
	}
	if p.Category != nil {
		fields[task.FieldCategory] = str(string(*p.Category))
	}
	if p.IsCompleted != nil {
		fields[task.FieldIsCompleted] = boolean(*p.IsCompleted)
	}
	if withCreated {
		fields["dateAdded"] = timestamp(t.DateAdded)
	}

	data, err := json.Marshal(wireDocument{Fields: fields})
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	var doc fs.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	// Empty strings and false must still be sent, or the value has no type.
	for name, v := range fields {
		fv := doc.Fields[name]
		switch {
		case v.StringValue != nil:
			fv.ForceSendFields = append(fv.ForceSendFields, "StringValue")
		case v.BooleanValue != nil:
			fv.ForceSendFields = append(fv.ForceSendFields, "BooleanValue")
		}
		doc.Fields[name] = fv
	}
	return &doc, nil
}

// decodeDocument converts a Firestore document into a task. The id is the
// last segment of the document name.
func decodeDocument(doc *fs.Document) (task.Task, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return task.Task{}, fmt.Errorf("decoding document: %w", err)
	}
	var wire wireDocument
	if err := json.Unmarshal(data, &wire); err != nil {
		return task.Task{}, fmt.Errorf("decoding document: %w", err)
	}

	t := task.Task{
		ID:          path.Base(doc.Name),
		Name:        wire.Fields[task.FieldName].text(),
		Subject:     wire.Fields[task.FieldSubject].text(),
		Notes:       wire.Fields[task.FieldNotes].text(),
		IsCompleted: wire.Fields[task.FieldIsCompleted].flag(),
	}
	if t.Deadline, err = wire.Fields[task.FieldDeadline].time(); err != nil {
		return task.Task{}, fmt.Errorf("document %s: deadline: %w", t.ID, err)
	}
	if t.DateAdded, err = wire.Fields["dateAdded"].time(); err != nil {
		return task.Task{}, fmt.Errorf("document %s: dateAdded: %w", t.ID, err)
	}
	if t.Priority, err = task.ParsePriority(wire.Fields[task.FieldPriority].text()); err != nil {
		return task.Task{}, fmt.Errorf("document %s: %w", t.ID, err)
	}
	if t.Category, err = task.ParseCategory(wire.Fields[task.FieldCategory].text()); err != nil {
		return task.Task{}, fmt.Errorf("document %s: %w", t.ID, err)
	}
	return t, nil
}

func (v value) text() string {
	if v.StringValue == nil {
		return ""
	}
	return *v.StringValue
}

func (v value) flag() bool {
	return v.BooleanValue != nil && *v.BooleanValue
}

func (v value) time() (time.Time, error) {
	raw := v.TimestampValue
	if raw == "" {
		raw = v.text()
	}
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
	}
	return t.Local(), nil
}
