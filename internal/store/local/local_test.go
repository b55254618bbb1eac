package local

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/twiced-technology-gmbh/studyplanner/internal/store"
	"github.com/twiced-technology-gmbh/studyplanner/internal/store/storetest"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), "")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return s
}

func TestContract(t *testing.T) {
	storetest.RunContract(t, func(t *testing.T) store.Store { return openTemp(t) })
}

func TestOpenPaths(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, "")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if want := filepath.Join(dir, SlotName+".json"); s.Path() != want {
		t.Errorf("Expected path %s, got %s", want, s.Path())
	}
	if got := s.WatchPaths(); len(got) != 1 || got[0] != dir {
		t.Errorf("Expected watch path %s, got %v", dir, got)
	}

	nested, err := Open(dir, filepath.Join("data", "mine.json"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "data")); err != nil {
		t.Errorf("Expected slot directory to be created: %v", err)
	}
	if want := filepath.Join(dir, "data", "mine.json"); nested.Path() != want {
		t.Errorf("Expected path %s, got %s", want, nested.Path())
	}
}

func TestWriteIsAtomic(t *testing.T) {
	s := openTemp(t)
	if _, err := s.Create(context.Background(), storetest.Sample("Atomic", time.Now())); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := os.Stat(s.Path() + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("Expected temp file to be renamed away, got %v", err)
	}
}

func TestCorruptSlot(t *testing.T) {
	s := openTemp(t)
	if err := os.WriteFile(s.Path(), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := s.ListAll(context.Background()); err == nil {
		t.Error("Expected error for corrupt slot")
	}
}

func TestEmptySlotFile(t *testing.T) {
	s := openTemp(t)
	if err := os.WriteFile(s.Path(), nil, 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	tasks, err := s.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("Expected no tasks, got %d", len(tasks))
	}
}

func TestConcurrentWritersShareSlot(t *testing.T) {
	dir := t.TempDir()
	a, err := Open(dir, "")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	b, err := Open(dir, "")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	const perWriter = 10
	var wg sync.WaitGroup
	for _, s := range []*Store{a, b} {
		wg.Add(1)
		go func(s *Store) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				if _, err := s.Create(context.Background(), storetest.Sample("Task", time.Now())); err != nil {
					t.Errorf("Create failed: %v", err)
				}
			}
		}(s)
	}
	wg.Wait()

	tasks, err := a.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(tasks) != 2*perWriter {
		t.Errorf("Expected %d tasks, got %d", 2*perWriter, len(tasks))
	}
}

func TestCanceledContext(t *testing.T) {
	s := openTemp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Create(ctx, storetest.Sample("Late", time.Now())); err == nil {
		t.Error("Expected error for canceled context")
	}
}
