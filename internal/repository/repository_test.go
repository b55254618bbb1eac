package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/twiced-technology-gmbh/studyplanner/internal/store/storetest"
	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
)

var (
	fixedNow   = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	errOffline = errors.New("offline")
)

func sampleTask(id, name string) task.Task {
	return task.Task{
		ID:        id,
		Name:      name,
		Subject:   "Math",
		Deadline:  fixedNow.Add(48 * time.Hour),
		Priority:  task.Medium,
		Category:  task.Homework,
		DateAdded: fixedNow.Add(-time.Hour),
	}
}

func sampleDraft(name string) task.Draft {
	return task.Draft{
		Name:     name,
		Subject:  "Math",
		Deadline: fixedNow.Add(24 * time.Hour),
		Priority: task.High,
		Category: task.Exam,
	}
}

func loaded(t *testing.T, fake *storetest.Fake, opts ...Option) *Repository {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	repo := New(fake, opts...)
	if err := repo.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return repo
}

func TestNewReportsLoading(t *testing.T) {
	repo := New(storetest.New())
	snap := repo.Snapshot()
	if !snap.Loading {
		t.Error("Expected Loading before the first load")
	}
	if len(snap.Tasks) != 0 {
		t.Errorf("Expected empty collection, got %d tasks", len(snap.Tasks))
	}
}

func TestLoad(t *testing.T) {
	repo := loaded(t, storetest.New(sampleTask("a", "Essay"), sampleTask("b", "Lab")))
	snap := repo.Snapshot()
	if snap.Loading {
		t.Error("Expected Loading to be false after load")
	}
	if snap.LoadErr != nil {
		t.Errorf("Expected no load error, got %v", snap.LoadErr)
	}
	if len(snap.Tasks) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(snap.Tasks))
	}
}

func TestLoadFailureLeavesEmptyCollection(t *testing.T) {
	fake := storetest.New(sampleTask("a", "Essay"))
	fake.FailNext(storetest.OpList, errOffline)
	journal := &recorder{}
	repo := New(fake, WithJournal(journal))

	err := repo.Load(context.Background())
	if !errors.Is(err, ErrLoad) || !errors.Is(err, errOffline) {
		t.Fatalf("Expected error wrapping ErrLoad and the store error, got %v", err)
	}
	snap := repo.Snapshot()
	if snap.Loading {
		t.Error("Expected Loading to be false after a failed load")
	}
	if len(snap.Tasks) != 0 {
		t.Errorf("Expected empty collection, got %d tasks", len(snap.Tasks))
	}
	if !errors.Is(snap.LoadErr, ErrLoad) {
		t.Errorf("Expected LoadErr to be recorded, got %v", snap.LoadErr)
	}
	if journal.count("load") != 1 {
		t.Errorf("Expected the failure to be journaled, got %v", journal.entries)
	}
}

func TestAddConfirmsInPlace(t *testing.T) {
	fake := storetest.New(sampleTask("a", "Essay"))
	fake.NextID("abc")
	repo := loaded(t, fake)

	var changes []Change
	repo.Subscribe(func(c Change) { changes = append(changes, c) })

	got, err := repo.Add(context.Background(), sampleDraft("Midterm"))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if got.ID != "abc" {
		t.Errorf("Expected id abc, got %s", got.ID)
	}
	if got.IsCompleted {
		t.Error("Expected new task to be incomplete")
	}
	if !got.DateAdded.Equal(fixedNow) {
		t.Errorf("Expected dateAdded %v, got %v", fixedNow, got.DateAdded)
	}

	snap := repo.Snapshot()
	if len(snap.Tasks) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(snap.Tasks))
	}
	if snap.Tasks[1].ID != "abc" {
		t.Errorf("Expected confirmed task in the appended slot, got %s", snap.Tasks[1].ID)
	}
	for _, tk := range snap.Tasks {
		if IsTemporary(tk.ID) {
			t.Errorf("Expected no temporary ids after confirmation, found %s", tk.ID)
		}
	}

	if len(changes) != 2 || changes[0].Kind != Added || changes[1].Kind != Confirmed {
		t.Fatalf("Expected added then confirmed, got %v", changes)
	}
	if changes[1].PrevID != changes[0].ID || changes[1].ID != "abc" {
		t.Errorf("Expected confirmed %s -> abc, got %s -> %s", changes[0].ID, changes[1].PrevID, changes[1].ID)
	}
}

func TestAddIsVisibleBeforeStoreResponds(t *testing.T) {
	fake := storetest.New()
	fake.NextID("abc")
	repo := loaded(t, fake, WithIDGenerator(func() string { return "tmp-1" }))
	gate := fake.Pause(storetest.OpCreate)

	done := make(chan error, 1)
	go func() {
		_, err := repo.Add(context.Background(), sampleDraft("Midterm"))
		done <- err
	}()

	<-gate.Entered
	snap := repo.Snapshot()
	if len(snap.Tasks) != 1 || snap.Tasks[0].ID != "tmp-1" {
		t.Fatalf("Expected optimistic task tmp-1, got %v", snap.IDs())
	}
	if _, err := repo.ToggleComplete(context.Background(), "tmp-1"); !errors.Is(err, ErrPending) {
		t.Errorf("Expected ErrPending for a temporary id, got %v", err)
	}

	gate.Release()
	if err := <-done; err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if ids := repo.Snapshot().IDs(); len(ids) != 1 || ids[0] != "abc" {
		t.Errorf("Expected [abc], got %v", ids)
	}
}

func TestReloadKeepsPendingCreate(t *testing.T) {
	fake := storetest.New(sampleTask("a", "Essay"))
	fake.NextID("abc")
	repo := loaded(t, fake, WithIDGenerator(func() string { return "tmp-1" }))
	gate := fake.Pause(storetest.OpCreate)

	done := make(chan error, 1)
	go func() {
		_, err := repo.Add(context.Background(), sampleDraft("Midterm"))
		done <- err
	}()
	<-gate.Entered

	if err := repo.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if ids := repo.Snapshot().IDs(); len(ids) != 2 || ids[1] != "tmp-1" {
		t.Fatalf("Expected pending tmp-1 kept across reload, got %v", ids)
	}

	gate.Release()
	if err := <-done; err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if ids := repo.Snapshot().IDs(); len(ids) != 2 || ids[0] != "a" || ids[1] != "abc" {
		t.Errorf("Expected [a abc], got %v", ids)
	}
}

// committedCreate lets the store write land and then holds the response.
type committedCreate struct {
	*storetest.Fake
	written chan struct{}
	respond chan struct{}
}

func (c committedCreate) Create(ctx context.Context, t task.Task) (string, error) {
	id, err := c.Fake.Create(ctx, t)
	close(c.written)
	<-c.respond
	return id, err
}

func TestConfirmAfterReloadSawStoredCopy(t *testing.T) {
	fake := storetest.New()
	fake.NextID("abc")
	st := committedCreate{Fake: fake, written: make(chan struct{}), respond: make(chan struct{})}
	repo := New(st, WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string { return "tmp-1" }))
	if err := repo.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := repo.Add(context.Background(), sampleDraft("Midterm"))
		done <- err
	}()
	<-st.written

	if err := repo.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	close(st.respond)
	if err := <-done; err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if ids := repo.Snapshot().IDs(); len(ids) != 1 || ids[0] != "abc" {
		t.Errorf("Expected exactly [abc], got %v", ids)
	}
}

func TestAddFailureRemovesOptimisticEntry(t *testing.T) {
	fake := storetest.New(sampleTask("a", "Essay"))
	fake.FailNext(storetest.OpCreate, errOffline)
	repo := loaded(t, fake)

	_, err := repo.Add(context.Background(), sampleDraft("Midterm"))
	if !errors.Is(err, ErrCreate) {
		t.Fatalf("Expected ErrCreate, got %v", err)
	}
	if ids := repo.Snapshot().IDs(); len(ids) != 1 || ids[0] != "a" {
		t.Errorf("Expected [a], got %v", ids)
	}
}

func TestAddRejectsInvalidDraft(t *testing.T) {
	fake := storetest.New()
	repo := loaded(t, fake)

	d := sampleDraft("  ")
	if _, err := repo.Add(context.Background(), d); err == nil {
		t.Fatal("Expected error for empty name")
	}
	for _, c := range fake.Calls() {
		if c.Op == storetest.OpCreate {
			t.Error("Expected no store call for an invalid draft")
		}
	}
}

func TestUpdateKeepsIdentity(t *testing.T) {
	orig := sampleTask("a", "Essay")
	fake := storetest.New(orig)
	repo := loaded(t, fake)

	edit := orig
	edit.Name = "Final essay"
	edit.Priority = task.High
	edit.DateAdded = fixedNow.Add(time.Hour)

	got, err := repo.Update(context.Background(), edit)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Name != "Final essay" || got.Priority != task.High {
		t.Errorf("Expected edited fields, got %+v", got)
	}
	if !got.DateAdded.Equal(orig.DateAdded) {
		t.Errorf("Expected dateAdded %v to be preserved, got %v", orig.DateAdded, got.DateAdded)
	}
	if stored := fake.Tasks()[0]; stored.Name != "Final essay" {
		t.Errorf("Expected store to hold the edit, got %s", stored.Name)
	}
}

func TestUpdateKeepsConcurrentCompletion(t *testing.T) {
	orig := sampleTask("a", "Essay")
	fake := storetest.New(orig)
	repo := loaded(t, fake)

	stale, _ := repo.Get("a")
	if _, err := repo.ToggleComplete(context.Background(), "a"); err != nil {
		t.Fatalf("ToggleComplete failed: %v", err)
	}

	stale.Name = "Final essay"
	got, err := repo.Update(context.Background(), stale)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !got.IsCompleted {
		t.Error("Expected completion from the toggle to survive the edit")
	}
	if stored := fake.Tasks()[0]; !stored.IsCompleted || stored.Name != "Final essay" {
		t.Errorf("Expected stored task edited and completed, got %+v", stored)
	}
	calls := fake.Calls()
	if p := calls[len(calls)-1].Patch; p.IsCompleted != nil {
		t.Error("Expected the edit patch to leave completion alone")
	}
}

func TestUpdateFailureRestoresFields(t *testing.T) {
	orig := sampleTask("a", "Essay")
	fake := storetest.New(orig)
	fake.FailNext(storetest.OpUpdate, errOffline)
	repo := loaded(t, fake)

	edit := orig
	edit.Name = "Changed"
	edit.Priority = task.Low

	if _, err := repo.Update(context.Background(), edit); !errors.Is(err, ErrUpdate) {
		t.Fatalf("Expected ErrUpdate, got %v", err)
	}
	got, ok := repo.Get("a")
	if !ok {
		t.Fatal("Expected task a to remain")
	}
	if got.Name != "Essay" || got.Priority != task.Medium {
		t.Errorf("Expected original fields restored, got %+v", got)
	}
}

func TestUpdateUnknownID(t *testing.T) {
	repo := loaded(t, storetest.New())
	if _, err := repo.Update(context.Background(), sampleTask("zzz", "Ghost")); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	fake := storetest.New(sampleTask("a", "Essay"), sampleTask("b", "Lab"))
	repo := loaded(t, fake)

	if err := repo.Delete(context.Background(), "a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if ids := repo.Snapshot().IDs(); len(ids) != 1 || ids[0] != "b" {
		t.Errorf("Expected [b], got %v", ids)
	}
	if len(fake.Tasks()) != 1 {
		t.Errorf("Expected store to hold 1 task, got %d", len(fake.Tasks()))
	}
}

func TestDeleteAbsentIsNoop(t *testing.T) {
	fake := storetest.New(sampleTask("a", "Essay"))
	repo := loaded(t, fake)

	if err := repo.Delete(context.Background(), "missing"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	for _, c := range fake.Calls() {
		if c.Op == storetest.OpDelete {
			t.Error("Expected no store call for an absent id")
		}
	}
}

func TestDeleteFailureRestoresTask(t *testing.T) {
	fake := storetest.New(sampleTask("a", "Essay"), sampleTask("b", "Lab"), sampleTask("c", "Quiz"))
	fake.FailNext(storetest.OpDelete, errOffline)
	repo := loaded(t, fake)

	var kinds []Kind
	repo.Subscribe(func(c Change) { kinds = append(kinds, c.Kind) })

	if err := repo.Delete(context.Background(), "b"); !errors.Is(err, ErrDelete) {
		t.Fatalf("Expected ErrDelete, got %v", err)
	}
	ids := repo.Snapshot().IDs()
	if len(ids) != 3 || ids[1] != "b" {
		t.Errorf("Expected b restored at its old position, got %v", ids)
	}
	if len(kinds) != 2 || kinds[0] != Removed || kinds[1] != Restored {
		t.Errorf("Expected removed then restored, got %v", kinds)
	}
}

func TestToggleComplete(t *testing.T) {
	fake := storetest.New(sampleTask("a", "Essay"))
	repo := loaded(t, fake)

	got, err := repo.ToggleComplete(context.Background(), "a")
	if err != nil {
		t.Fatalf("ToggleComplete failed: %v", err)
	}
	if !got.IsCompleted {
		t.Error("Expected task to be completed")
	}

	calls := fake.Calls()
	last := calls[len(calls)-1]
	if paths := last.Patch.FieldPaths(); len(paths) != 1 || paths[0] != task.FieldIsCompleted {
		t.Errorf("Expected single-field update, got %v", paths)
	}
}

func TestToggleFailureReverts(t *testing.T) {
	fake := storetest.New(sampleTask("a", "Essay"))
	fake.FailNext(storetest.OpUpdate, errOffline)
	repo := loaded(t, fake)

	if _, err := repo.ToggleComplete(context.Background(), "a"); !errors.Is(err, ErrUpdate) {
		t.Fatalf("Expected ErrUpdate, got %v", err)
	}
	if got, _ := repo.Get("a"); got.IsCompleted {
		t.Error("Expected completion flag to be reverted")
	}
}

func TestSerializedMutations(t *testing.T) {
	fake := storetest.New(sampleTask("a", "Essay"))
	repo := loaded(t, fake, WithSerializedMutations())
	gate := fake.Pause(storetest.OpUpdate)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = repo.ToggleComplete(context.Background(), "a")
	}()
	<-gate.Entered

	second := make(chan task.Task, 1)
	go func() {
		got, _ := repo.ToggleComplete(context.Background(), "a")
		second <- got
	}()

	select {
	case <-second:
		t.Fatal("Expected second toggle to wait for the first")
	case <-time.After(20 * time.Millisecond):
	}

	gate.Release()
	wg.Wait()
	if got := <-second; got.IsCompleted {
		t.Error("Expected two toggles to leave the task incomplete")
	}
}

func TestUnsubscribe(t *testing.T) {
	repo := loaded(t, storetest.New(sampleTask("a", "Essay")))
	n := 0
	cancel := repo.Subscribe(func(Change) { n++ })
	cancel()
	cancel()
	_ = repo.Delete(context.Background(), "a")
	if n != 0 {
		t.Errorf("Expected no events after unsubscribe, got %d", n)
	}
}

type recorder struct {
	mu      sync.Mutex
	entries []string
}

func (r *recorder) Record(action, _, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, action)
}

func (r *recorder) count(action string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.entries {
		if a == action {
			n++
		}
	}
	return n
}
