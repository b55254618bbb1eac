package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/twiced-technology-gmbh/studyplanner/internal/store"
	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
)

// Sample returns a valid task created at added. The id is left empty.
func Sample(name string, added time.Time) task.Task {
	return task.Task{
		Name:      name,
		Subject:   "Chemistry",
		Deadline:  added.Add(72 * time.Hour),
		Notes:     "- balance equations\n- read ch. 5",
		Priority:  task.High,
		Category:  task.Homework,
		DateAdded: added,
	}
}

// RunContract checks the behavior every store.Store backend shares. open
// must return an empty store.
func RunContract(t *testing.T, open func(t *testing.T) store.Store) {
	t.Helper()
	base := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)

	t.Run("EmptyList", func(t *testing.T) {
		s := open(t)
		tasks, err := s.ListAll(context.Background())
		if err != nil {
			t.Fatalf("ListAll failed: %v", err)
		}
		if tasks == nil || len(tasks) != 0 {
			t.Errorf("Expected empty non-nil list, got %#v", tasks)
		}
	})

	t.Run("CreateRoundTrip", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		want := Sample("Lab report", base)

		id, err := s.Create(ctx, want)
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if id == "" {
			t.Fatal("Expected store-assigned id")
		}

		tasks, err := s.ListAll(ctx)
		if err != nil {
			t.Fatalf("ListAll failed: %v", err)
		}
		if len(tasks) != 1 {
			t.Fatalf("Expected 1 task, got %d", len(tasks))
		}
		want.ID = id
		assertSame(t, want, tasks[0])
	})

	t.Run("CreateOrderAndIDs", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		var ids []string
		for i, name := range []string{"First", "Second", "Third"} {
			id, err := s.Create(ctx, Sample(name, base.Add(time.Duration(i)*time.Minute)))
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			ids = append(ids, id)
		}
		if ids[0] == ids[1] || ids[1] == ids[2] || ids[0] == ids[2] {
			t.Errorf("Expected distinct ids, got %v", ids)
		}

		tasks, err := s.ListAll(ctx)
		if err != nil {
			t.Fatalf("ListAll failed: %v", err)
		}
		if len(tasks) != len(ids) {
			t.Fatalf("Expected %d tasks, got %d", len(ids), len(tasks))
		}
		for i, tk := range tasks {
			if tk.ID != ids[i] {
				t.Errorf("Expected task %d to be %s, got %s", i, ids[i], tk.ID)
			}
		}
	})

	t.Run("UpdatePatchesSetFields", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		orig := Sample("Essay", base)
		id, err := s.Create(ctx, orig)
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		name := "Essay (final)"
		subject := ""
		if err := s.Update(ctx, id, task.Patch{Name: &name, Subject: &subject}); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if err := s.Update(ctx, id, task.Completion(true)); err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		got := only(t, s)
		want := orig
		want.ID = id
		want.Name = name
		want.Subject = ""
		want.IsCompleted = true
		assertSame(t, want, got)

		if err := s.Update(ctx, id, task.Completion(false)); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if only(t, s).IsCompleted {
			t.Error("Expected task to be reopened")
		}
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		s := open(t)
		err := s.Update(context.Background(), "missing", task.Completion(true))
		if !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		keep, err := s.Create(ctx, Sample("Keep", base))
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		drop, err := s.Create(ctx, Sample("Drop", base.Add(time.Minute)))
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		if err := s.Delete(ctx, drop); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if got := only(t, s); got.ID != keep {
			t.Errorf("Expected %s to remain, got %s", keep, got.ID)
		}

		if err := s.Delete(ctx, drop); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Expected ErrNotFound on second delete, got %v", err)
		}
	})
}

func only(t *testing.T, s store.Store) task.Task {
	t.Helper()
	tasks, err := s.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("Expected 1 task, got %d", len(tasks))
	}
	return tasks[0]
}

func assertSame(t *testing.T, want, got task.Task) {
	t.Helper()
	if got.ID != want.ID || got.Name != want.Name || got.Subject != want.Subject ||
		got.Notes != want.Notes || got.Priority != want.Priority ||
		got.Category != want.Category || got.IsCompleted != want.IsCompleted {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
	if !got.Deadline.Equal(want.Deadline) {
		t.Errorf("Expected deadline %v, got %v", want.Deadline, got.Deadline)
	}
	if !got.DateAdded.Equal(want.DateAdded) {
		t.Errorf("Expected dateAdded %v, got %v", want.DateAdded, got.DateAdded)
	}
}
