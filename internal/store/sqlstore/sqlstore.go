// Package sqlstore keeps task documents in a SQL table. SQLite (pure Go,
// modernc.org/sqlite) and PostgreSQL (lib/pq) are supported.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"  // registers the "postgres" driver
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/twiced-technology-gmbh/studyplanner/internal/store"
	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store is a store.Store over a database/sql handle.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the database and ensures the tasks table exists. For
// SQLite, dsn may be a plain file path.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite:
		dsn = sqliteDSN(dsn)
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported sql driver %q (use %s or %s)", driver, DriverSQLite, DriverPostgres)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{db: db, driver: driver}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// sqliteDSN turns a file path into a file: URL with a busy timeout so
// concurrent planner processes wait instead of failing.
func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") || path == ":memory:" {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	q := u.Query()
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	u.RawQuery = q.Encode()
	return u.String()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	const schema = `CREATE TABLE IF NOT EXISTS tasks (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	subject      TEXT NOT NULL DEFAULT '',
	deadline     TEXT NOT NULL,
	notes        TEXT NOT NULL DEFAULT '',
	priority     TEXT NOT NULL,
	category     TEXT NOT NULL,
	is_completed BOOLEAN NOT NULL DEFAULT FALSE,
	date_added   TEXT NOT NULL
)`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating tasks table: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// ListAll implements store.Store. Rows come back in creation order.
func (s *Store) ListAll(ctx context.Context) ([]task.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, subject, deadline, notes, priority, category, is_completed, date_added
FROM tasks ORDER BY date_added, id`)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	tasks := []task.Task{}
	for rows.Next() {
		var (
			t                   task.Task
			deadline, dateAdded string
			priority, category  string
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.Subject, &deadline, &t.Notes,
			&priority, &category, &t.IsCompleted, &dateAdded); err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		if t.Deadline, err = parseTime(deadline); err != nil {
			return nil, fmt.Errorf("task %s: deadline: %w", t.ID, err)
		}
		if t.DateAdded, err = parseTime(dateAdded); err != nil {
			return nil, fmt.Errorf("task %s: date_added: %w", t.ID, err)
		}
		if t.Priority, err = task.ParsePriority(priority); err != nil {
			return nil, fmt.Errorf("task %s: %w", t.ID, err)
		}
		if t.Category, err = task.ParseCategory(category); err != nil {
			return nil, fmt.Errorf("task %s: %w", t.ID, err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return tasks, nil
}

// Create implements store.Store.
func (s *Store) Create(ctx context.Context, t task.Task) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO tasks
(id, name, subject, deadline, notes, priority, category, is_completed, date_added)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		id, t.Name, t.Subject, formatTime(t.Deadline), t.Notes,
		string(t.Priority), string(t.Category), t.IsCompleted, formatTime(t.DateAdded))
	if err != nil {
		return "", fmt.Errorf("create task: %w", err)
	}
	return id, nil
}

// columns maps patch field names to table columns.
var columns = map[string]string{
	task.FieldName:        "name",
	task.FieldSubject:     "subject",
	task.FieldDeadline:    "deadline",
	task.FieldNotes:       "notes",
	task.FieldPriority:    "priority",
	task.FieldCategory:    "category",
	task.FieldIsCompleted: "is_completed",
}

// Update implements store.Store.
func (s *Store) Update(ctx context.Context, id string, p task.Patch) error {
	paths := p.FieldPaths()
	if len(paths) == 0 {
		return nil
	}
	values := patchValues(p)

	sets := make([]string, 0, len(paths))
	args := make([]any, 0, len(paths)+1)
	for _, field := range paths {
		sets = append(sets, columns[field]+" = ?")
		args = append(args, values[field])
	}
	args = append(args, id)

	query := s.rebind("UPDATE tasks SET " + strings.Join(sets, ", ") + " WHERE id = ?")
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return expectRow(res, id)
}

// Delete implements store.Store.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM tasks WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return expectRow(res, id)
}

func patchValues(p task.Patch) map[string]any {
	var t task.Task
	p.Apply(&t)
	return map[string]any{
		task.FieldName:        t.Name,
		task.FieldSubject:     t.Subject,
		task.FieldDeadline:    formatTime(t.Deadline),
		task.FieldNotes:       t.Notes,
		task.FieldPriority:    string(t.Priority),
		task.FieldCategory:    string(t.Category),
		task.FieldIsCompleted: t.IsCompleted,
	}
}

func expectRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("task %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// timeLayout is fixed-width RFC 3339 so stored text sorts chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, errors.New("invalid timestamp " + strconv.Quote(s))
	}
	return t.Local(), nil
}
