package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/twiced-technology-gmbh/studyplanner/internal/clierr"
	"github.com/twiced-technology-gmbh/studyplanner/internal/gate"
	"github.com/twiced-technology-gmbh/studyplanner/internal/output"
	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
)

var deleteCmd = &cobra.Command{
	Use:     "delete ID[,ID,...]",
	Aliases: []string{"rm"},
	Short:   "Delete a task",
	Long: `Deletes a task from the store. Prompts for confirmation in interactive mode.
Multiple IDs can be provided as a comma-separated list (requires --yes).`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolP("yes", "y", false, "skip confirmation prompt")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	ids, err := task.ParseIDs(args[0])
	if err != nil {
		return err
	}

	yes, _ := cmd.Flags().GetBool("yes")

	// Batch mode requires --yes.
	if len(ids) > 1 && !yes {
		return clierr.New(clierr.ConfirmationReq,
			"batch delete requires --yes")
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
		return deleteSingleTask(ctx, a, ids[0], yes)
	}

	return runBatch(ids, func(id string) error {
		if _, err := a.session.RequestDelete(id); err != nil {
			return err
		}
		return confirmGate(ctx, a)
	})
}

// deleteSingleTask handles a single task delete with confirmation and output.
func deleteSingleTask(ctx context.Context, a *app, id string, yes bool) error {
	t, err := a.find(id)
	if err != nil {
		return err
	}

	prompt, err := a.session.RequestDelete(id)
	if err != nil {
		return err
	}
	if !yes {
		ok, err := ask(prompt)
		if err != nil {
			a.session.Gate().Cancel()
			return err
		}
		if !ok {
			a.session.Gate().Cancel()
			fmt.Fprintln(os.Stderr, "Canceled.")
			return nil
		}
	}
	if err := confirmGate(ctx, a); err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{
			"status": "deleted",
			"id":     t.ID,
			"name":   t.Name,
		})
	}

	output.Messagef(os.Stdout, "Deleted task %s: %s", t.ID, t.Name)
	return nil
}

// confirmGate runs the action waiting behind the session's gate.
func confirmGate(ctx context.Context, a *app) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	return a.session.Gate().Confirm(ctx)
}

// ask shows p on stderr and reads a y/N answer from stdin. Without a
// terminal it fails so scripts must pass --yes.
func ask(p gate.Prompt) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, clierr.New(clierr.ConfirmationReq,
			"cannot prompt for confirmation (not a terminal); use --yes")
	}
	fmt.Fprintf(os.Stderr, "%s: %s [y/N] ", p.Title, p.Message)
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes", nil
}
