package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/studyplanner/internal/clierr"
	"github.com/twiced-technology-gmbh/studyplanner/internal/output"
	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
)

var doneCmd = &cobra.Command{
	Use:     "done ID[,ID,...]",
	Aliases: []string{"toggle"},
	Short:   "Toggle task completion",
	Long: `Marks an incomplete task as completed, or reopens a completed one.
Completing asks for confirmation in interactive mode; reopening does not.
Multiple IDs can be provided as a comma-separated list (requires --yes).`,
	Args: cobra.ExactArgs(1),
	RunE: runDone,
}

func init() {
	doneCmd.Flags().BoolP("yes", "y", false, "skip confirmation prompt")
	rootCmd.AddCommand(doneCmd)
}

func runDone(cmd *cobra.Command, args []string) error {
	ids, err := task.ParseIDs(args[0])
	if err != nil {
		return err
	}

	yes, _ := cmd.Flags().GetBool("yes")
	if len(ids) > 1 && !yes {
		return clierr.New(clierr.ConfirmationReq,
			"batch completion requires --yes")
	}

	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.load(ctx); err != nil {
		return err
	}

	if len(ids) == 1 {
		t, canceled, err := toggleTask(ctx, a, ids[0], yes)
		if err != nil {
			return err
		}
		if canceled {
			fmt.Fprintln(os.Stderr, "Canceled.")
			return nil
		}
		if outputFormat() == output.FormatJSON {
			return output.JSON(os.Stdout, t)
		}
		state := "Reopened"
		if t.IsCompleted {
			state = "Completed"
		}
		output.Messagef(os.Stdout, "%s task %s: %s", state, t.ID, t.Name)
		return nil
	}

	return runBatch(ids, func(id string) error {
		_, _, err := toggleTask(ctx, a, id, true)
		return err
	})
}

// toggleTask flips completion of id. Completing goes through the gate and
// is confirmed interactively unless yes is set.
func toggleTask(ctx context.Context, a *app, id string, yes bool) (task.Task, bool, error) {
	prompt, gated, err := a.session.RequestToggle(id)
	if err != nil {
		return task.Task{}, false, err
	}

	if !gated {
		ctx, cancel := context.WithTimeout(ctx, storeTimeout)
		defer cancel()
		t, err := a.session.Toggle(ctx, id)
		return t, false, err
	}

	if !yes {
		ok, err := ask(prompt)
		if err != nil || !ok {
			a.session.Gate().Cancel()
			return task.Task{}, err == nil, err
		}
	}
	if err := confirmGate(ctx, a); err != nil {
		return task.Task{}, false, err
	}
	t, _ := a.session.Get(id)
	return t, false, nil
}
