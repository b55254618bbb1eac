package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/twiced-technology-gmbh/studyplanner/internal/clierr"
	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
	"github.com/twiced-technology-gmbh/studyplanner/internal/view"
)

// JSON writes data as indented JSON to the given writer.
func JSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// ErrorResponse is the JSON envelope shared by the CLI and the HTTP API.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// JSONError writes e as an error envelope. Write failures are dropped.
func JSONError(w io.Writer, e *clierr.Error) {
	_ = JSON(w, ErrorResponse{Error: e.Message, Code: e.Code, Details: e.Details})
}

// TaskList is the JSON shape of a projection: the tasks plus the view
// that produced them.
type TaskList struct {
	Filter view.Filter `json:"filter"`
	Sort   view.Sort   `json:"sort"`
	Search string      `json:"search,omitempty"`
	Count  int         `json:"count"`
	Tasks  []task.Task `json:"tasks"`
}

// NewTaskList builds a TaskList. A nil slice is encoded as [].
func NewTaskList(opts view.Options, tasks []task.Task) TaskList {
	if tasks == nil {
		tasks = []task.Task{}
	}
	return TaskList{
		Filter: opts.Filter,
		Sort:   opts.Sort,
		Search: opts.Search,
		Count:  len(tasks),
		Tasks:  tasks,
	}
}

// BatchResult is the outcome for one id of a comma-separated batch.
type BatchResult struct {
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
}

// NewBatchResult records success for a nil e and the coded failure otherwise.
func NewBatchResult(id string, e *clierr.Error) BatchResult {
	if e == nil {
		return BatchResult{ID: id, OK: true}
	}
	return BatchResult{ID: id, Error: e.Message, Code: e.Code}
}
