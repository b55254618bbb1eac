package sqlstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/twiced-technology-gmbh/studyplanner/internal/store"
	"github.com/twiced-technology-gmbh/studyplanner/internal/store/storetest"
)

func openSQLite(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestContractSQLite(t *testing.T) {
	storetest.RunContract(t, func(t *testing.T) store.Store { return openSQLite(t) })
}

// TestContractPostgres runs against PLANNER_TEST_POSTGRES_DSN when set.
// The tasks table is emptied before each case.
func TestContractPostgres(t *testing.T) {
	dsn := os.Getenv("PLANNER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("PLANNER_TEST_POSTGRES_DSN not set")
	}
	storetest.RunContract(t, func(t *testing.T) store.Store {
		s, err := Open(context.Background(), DriverPostgres, dsn)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		if _, err := s.db.Exec("DELETE FROM tasks"); err != nil {
			t.Fatalf("clearing tasks: %v", err)
		}
		return s
	})
}

func TestReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.db")
	ctx := context.Background()

	s, err := Open(ctx, DriverSQLite, path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	id, err := s.Create(ctx, storetest.Sample("Persist me", time.Now()))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(ctx, DriverSQLite, path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer reopened.Close()
	tasks, err := reopened.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != id {
		t.Errorf("Expected task %s after reopen, got %+v", id, tasks)
	}
}

func TestUnsupportedDriver(t *testing.T) {
	if _, err := Open(context.Background(), "mysql", "x"); err == nil {
		t.Error("Expected error for unsupported driver")
	}
}

func TestRebind(t *testing.T) {
	pg := &Store{driver: DriverPostgres}
	got := pg.rebind("UPDATE tasks SET name = ?, notes = ? WHERE id = ?")
	if want := "UPDATE tasks SET name = $1, notes = $2 WHERE id = $3"; got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	lite := &Store{driver: DriverSQLite}
	if got := lite.rebind("DELETE FROM tasks WHERE id = ?"); got != "DELETE FROM tasks WHERE id = ?" {
		t.Errorf("Expected query unchanged, got %q", got)
	}
}

func TestSQLiteDSN(t *testing.T) {
	if got := sqliteDSN(":memory:"); got != ":memory:" {
		t.Errorf("Expected :memory:, got %q", got)
	}
	if got := sqliteDSN("file:x.db?mode=ro"); got != "file:x.db?mode=ro" {
		t.Errorf("Expected file URL unchanged, got %q", got)
	}
	got := sqliteDSN(filepath.Join(t.TempDir(), "tasks.db"))
	if !strings.HasPrefix(got, "file:") || !strings.Contains(got, "busy_timeout") {
		t.Errorf("Expected file URL with busy timeout, got %q", got)
	}
}

func TestTimeFormatSorts(t *testing.T) {
	early := formatTime(time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC))
	late := formatTime(time.Date(2024, 3, 6, 9, 0, 0, 500, time.UTC))
	if len(early) != len(late) || early >= late {
		t.Errorf("Expected fixed-width increasing text, got %q and %q", early, late)
	}
	parsed, err := parseTime(late)
	if err != nil {
		t.Fatalf("parseTime failed: %v", err)
	}
	if !parsed.Equal(time.Date(2024, 3, 6, 9, 0, 0, 500, time.UTC)) {
		t.Errorf("Expected round trip, got %v", parsed)
	}
}
