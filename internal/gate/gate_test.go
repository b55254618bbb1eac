package gate

import (
	"context"
	"errors"
	"testing"

	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
)

func TestConfirmRunsActionOnce(t *testing.T) {
	var g Gate
	runs := 0
	g.Request(Prompt{Message: "sure?"}, func(context.Context) error {
		runs++
		return nil
	})

	if _, ok := g.Pending(); !ok {
		t.Fatal("Expected a pending prompt")
	}
	if err := g.Confirm(context.Background()); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if err := g.Confirm(context.Background()); err != nil {
		t.Fatalf("Second confirm failed: %v", err)
	}
	if runs != 1 {
		t.Errorf("Expected action to run once, got %d", runs)
	}
	if _, ok := g.Pending(); ok {
		t.Error("Expected gate to be idle after confirm")
	}
}

func TestConfirmReturnsActionError(t *testing.T) {
	var g Gate
	want := errors.New("boom")
	g.Request(Prompt{}, func(context.Context) error { return want })
	if err := g.Confirm(context.Background()); !errors.Is(err, want) {
		t.Errorf("Expected %v, got %v", want, err)
	}
	if _, ok := g.Pending(); ok {
		t.Error("Expected gate to be idle even when the action fails")
	}
}

func TestCancelDiscards(t *testing.T) {
	var g Gate
	ran := false
	g.Request(Prompt{}, func(context.Context) error {
		ran = true
		return nil
	})
	g.Cancel()
	if err := g.Confirm(context.Background()); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if ran {
		t.Error("Expected cancelled action not to run")
	}
}

func TestRequestOverwrites(t *testing.T) {
	var g Gate
	var ran []string
	g.Request(Prompt{Message: "first"}, func(context.Context) error {
		ran = append(ran, "first")
		return nil
	})
	g.Request(Prompt{Message: "second"}, func(context.Context) error {
		ran = append(ran, "second")
		return nil
	})

	p, _ := g.Pending()
	if p.Message != "second" {
		t.Errorf("Expected second prompt, got %q", p.Message)
	}
	_ = g.Confirm(context.Background())
	if len(ran) != 1 || ran[0] != "second" {
		t.Errorf("Expected only second action to run, got %v", ran)
	}
}

func TestAcceptHandsBackAction(t *testing.T) {
	var g Gate
	if g.Accept() != nil {
		t.Error("Expected nil action from an idle gate")
	}
	g.Request(Prompt{}, func(context.Context) error { return nil })
	if g.Accept() == nil {
		t.Error("Expected pending action")
	}
	if _, ok := g.Pending(); ok {
		t.Error("Expected gate to be idle after accept")
	}
}

func TestPolicyPrompts(t *testing.T) {
	tk := task.Task{Name: "Essay"}
	if p := DeletePrompt(tk); p.Variant != Danger {
		t.Errorf("Expected danger variant for delete, got %s", p.Variant)
	}
	if p, ok := TogglePrompt(tk); !ok || p.Variant != Primary {
		t.Errorf("Expected gated primary prompt for completing, got %v %v", p, ok)
	}
	tk.IsCompleted = true
	if _, ok := TogglePrompt(tk); ok {
		t.Error("Expected reopening a completed task not to be gated")
	}
}
