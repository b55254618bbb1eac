package cmd

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/studyplanner/internal/clierr"
	"github.com/twiced-technology-gmbh/studyplanner/internal/output"
	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
)

var editCmd = &cobra.Command{
	Use:   "edit ID[,ID,...]",
	Short: "Edit a task",
	Long: `Modifies fields of an existing task. Only specified fields are changed; the
whole task is then written back. Multiple IDs can be provided as a comma-separated list.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

// editFields are the flags that change a task.
var editFields = []string{"name", "subject", "deadline", "priority", "category", "notes", "append-notes"}

func init() {
	editCmd.Flags().String("name", "", "new name")
	editCmd.Flags().String("subject", "", "new subject")
	editCmd.Flags().String("deadline", "", "new deadline (YYYY-MM-DD, YYYY-MM-DDTHH:MM or RFC 3339)")
	editCmd.Flags().String("priority", "", "new priority")
	editCmd.Flags().String("category", "", "new category")
	editCmd.Flags().String("notes", "", "new notes (replaces existing notes)")
	editCmd.Flags().StringP("append-notes", "a", "", "append text to task notes")
	editCmd.Flags().BoolP("timestamp", "t", false, "prefix a timestamp line when appending")
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	ids, err := task.ParseIDs(args[0])
	if err != nil {
		return err
	}
	if !anyChanged(cmd, editFields) {
		return clierr.New(clierr.NoChanges, "no changes specified")
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

	// Single ID: full output.
	if len(ids) == 1 {
		t, err := executeEdit(ctx, a, ids[0], cmd)
		if err != nil {
			return err
		}
		if outputFormat() == output.FormatJSON {
			return output.JSON(os.Stdout, t)
		}
		output.Messagef(os.Stdout, "Updated task %s: %s", t.ID, t.Name)
		return nil
	}

	return runBatch(ids, func(id string) error {
		_, err := executeEdit(ctx, a, id, cmd)
		return err
	})
}

// executeEdit applies the flags to the task and writes it back.
func executeEdit(ctx context.Context, a *app, id string, cmd *cobra.Command) (task.Task, error) {
	t, err := a.find(id)
	if err != nil {
		return task.Task{}, err
	}

	d, err := draftFromFlags(cmd, t.Draft(), time.Local)
	if err != nil {
		return task.Task{}, err
	}
	if text, _ := cmd.Flags().GetString("append-notes"); text != "" {
		stamp, _ := cmd.Flags().GetBool("timestamp")
		d.Notes = appendNotes(d.Notes, text, stamp, time.Now())
	}
	if err := d.Validate(); err != nil {
		return task.Task{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	return a.session.Update(ctx, t.WithEdits(d))
}

// appendNotes adds text as a new paragraph, optionally under a timestamp line.
func appendNotes(notes, text string, stamp bool, now time.Time) string {
	if stamp {
		text = "**" + now.Format("2006-01-02 15:04") + "**\n" + text
	}
	notes = strings.TrimRight(notes, "\n")
	if notes == "" {
		return text
	}
	return notes + "\n\n" + text
}

func anyChanged(cmd *cobra.Command, names []string) bool {
	for _, n := range names {
		if cmd.Flags().Changed(n) {
			return true
		}
	}
	return false
}
