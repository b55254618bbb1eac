// Package gate holds at most one pending action behind a confirmation
// prompt. It is caller-side policy: stores and the repository never
// consult it.
package gate

import (
	"context"
	"fmt"
	"sync"

	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
)

// Variant styles the confirm button.
type Variant string

// Prompt variants.
const (
	Danger  Variant = "danger"
	Primary Variant = "primary"
)

// Prompt is shown to the user while an action waits.
type Prompt struct {
	Title   string
	Message string
	Confirm string
	Variant Variant
}

// Action runs once the prompt is confirmed.
type Action func(ctx context.Context) error

// Gate is either idle or awaiting one prompt. It is safe for concurrent
// use.
type Gate struct {
	mu      sync.Mutex
	prompt  Prompt
	action  Action
	pending bool
}

// Request makes the gate await p, replacing any prompt already pending.
func (g *Gate) Request(p Prompt, action Action) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompt, g.action, g.pending = p, action, true
}

// Pending returns the awaiting prompt, if any.
func (g *Gate) Pending() (Prompt, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.prompt, g.pending
}

// Accept returns the gate to idle and hands back the pending action, or nil
// when idle. Callers that run actions asynchronously use it instead of
// Confirm.
func (g *Gate) Accept() Action {
	g.mu.Lock()
	defer g.mu.Unlock()
	action := g.action
	g.prompt, g.action, g.pending = Prompt{}, nil, false
	return action
}

// Confirm returns the gate to idle and runs the pending action. It is a
// no-op when idle.
func (g *Gate) Confirm(ctx context.Context) error {
	action := g.Accept()
	if action == nil {
		return nil
	}
	return action(ctx)
}

// Cancel discards the pending action.
func (g *Gate) Cancel() {
	g.Accept()
}

// DeletePrompt is the prompt for deleting t. Deletion is always gated.
func DeletePrompt(t task.Task) Prompt {
	return Prompt{
		Title:   "Delete Task",
		Message: fmt.Sprintf("Are you sure you want to delete %q? This action cannot be undone.", t.Name),
		Confirm: "Delete",
		Variant: Danger,
	}
}

// TogglePrompt is the prompt for toggling t. Only marking an incomplete
// task complete needs confirmation; reopening returns false.
func TogglePrompt(t task.Task) (Prompt, bool) {
	if t.IsCompleted {
		return Prompt{}, false
	}
	return Prompt{
		Title:   "Complete Task",
		Message: fmt.Sprintf("Mark %q as completed?", t.Name),
		Confirm: "Complete",
		Variant: Primary,
	}, true
}
