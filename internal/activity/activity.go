// Package activity keeps an append-only JSON lines journal of task
// mutations in the planner directory.
package activity

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	// FileName is the journal file inside the planner directory.
	FileName = "activity.jsonl"

	fileMode      = 0o600
	maxLogEntries = 10000 // truncate oldest entries when log exceeds this size
)

// Entry is a single journal line.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	TaskID    string    `json:"task_id,omitempty"`
	Detail    string    `json:"detail"`
}

// Log appends entries to the journal in one directory. It is safe for
// concurrent use within a process.
type Log struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// New returns a journal stored in dir.
func New(dir string) *Log {
	return &Log{path: filepath.Join(dir, FileName), now: time.Now}
}

// Path returns the journal file path.
func (l *Log) Path() string { return l.path }

// Record appends an entry. Errors are silently discarded because the
// journal should never fail a mutation.
func (l *Log) Record(action, taskID, detail string) {
	_ = l.Append(Entry{
		Timestamp: l.now(),
		Action:    action,
		TaskID:    taskID,
		Detail:    detail,
	})
}

// Append writes entry to the journal. If the journal exceeds
// maxLogEntries, the oldest entries are truncated.
func (l *Log) Append(entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, fileMode) //nolint:gosec // path from trusted planner dir
	if err != nil {
		return fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling activity entry: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing activity entry: %w", err)
	}

	// Best-effort; a failed truncation leaves a longer log.
	_ = truncateIfNeeded(l.path, maxLogEntries)
	return nil
}

// Tail returns the last n entries, oldest first. n <= 0 returns all of
// them. A missing journal is empty. Malformed lines are skipped.
func (l *Log) Tail(n int) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lines, err := readLines(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading activity log: %w", err)
	}
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}

	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		var e Entry
		if json.Unmarshal([]byte(line), &e) == nil {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // trusted path
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// truncateIfNeeded rewrites the file keeping only the most recent max
// lines.
func truncateIfNeeded(path string, maxLines int) error {
	lines, err := readLines(path)
	if err != nil {
		return err
	}
	if len(lines) <= maxLines {
		return nil
	}
	lines = lines[len(lines)-maxLines:]

	var buf strings.Builder
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(buf.String()), fileMode)
}
