package filelock

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestWithRunsUnderLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lock")
	ran := false
	if err := With(context.Background(), path, func() error { ran = true; return nil }); err != nil {
		t.Fatalf("With failed: %v", err)
	}
	if !ran {
		t.Error("Expected fn to run")
	}

	want := errors.New("boom")
	if err := With(context.Background(), path, func() error { return want }); !errors.Is(err, want) {
		t.Errorf("Expected fn error, got %v", err)
	}
}

func TestLockWaitsForHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lock")
	unlock, err := Lock(context.Background(), path)
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := Lock(ctx, path); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected DeadlineExceeded while held, got %v", err)
	}

	acquired := make(chan error, 1)
	go func() {
		u, err := Lock(context.Background(), path)
		if err == nil {
			err = u()
		}
		acquired <- err
	}()

	time.Sleep(10 * time.Millisecond)
	if err := unlock(); err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
	select {
	case err := <-acquired:
		if err != nil {
			t.Fatalf("second Lock failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Expected waiter to acquire the lock after release")
	}
}
