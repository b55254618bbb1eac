package cmd

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/twiced-technology-gmbh/studyplanner/internal/clierr"
	"github.com/twiced-technology-gmbh/studyplanner/internal/date"
	"github.com/twiced-technology-gmbh/studyplanner/internal/output"
	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
)

var addCmd = &cobra.Command{
	Use:     "add [NAME]",
	Aliases: []string{"create"},
	Short:   "Add a new task",
	Long: `Adds a task with the given name and deadline.

Name can be provided as a positional argument or via --name flag.
Priority and category default to the planner's configured defaults.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().String("name", "", "task name (alternative to positional argument)")
	addCmd.Flags().String("subject", "", "course or subject")
	addCmd.Flags().String("deadline", "", "deadline (YYYY-MM-DD, YYYY-MM-DDTHH:MM or RFC 3339)")
	addCmd.Flags().String("priority", "", "priority: Low, Medium, High (default from config)")
	addCmd.Flags().String("category", "", "category: Quiz, Project, Exam, Requirement, Homework, Reading (default from config)")
	addCmd.Flags().String("notes", "", "free-form notes (markdown)")
	addCmd.Flags().SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		switch name {
		case "due":
			name = "deadline"
		case "course":
			name = "subject"
		}
		return pflag.NormalizedName(name)
	})
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	name, err := resolveAddName(cmd, args)
	if err != nil {
		return err
	}
	d, err := draftFromFlags(cmd, task.Draft{Name: name}, time.Local)
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	d = d.WithDefaults(a.cfg.DefaultPriority(), a.cfg.DefaultCategory())
	if err := d.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	t, err := a.session.Add(ctx, d)
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, t)
	}

	output.Messagef(os.Stdout, "Added task %s: %s", t.ID, t.Name)
	output.Messagef(os.Stdout, "  Deadline: %s", date.Short(t.Deadline))
	output.Messagef(os.Stdout, "  Priority: %s | Category: %s", t.Priority, t.Category)
	if t.Subject != "" {
		output.Messagef(os.Stdout, "  Subject: %s", t.Subject)
	}
	return nil
}

// resolveAddName returns the task name from either the positional arg or --name flag.
func resolveAddName(cmd *cobra.Command, args []string) (string, error) {
	flagName, _ := cmd.Flags().GetString("name")
	hasPositional := len(args) > 0
	hasFlag := flagName != ""

	switch {
	case hasPositional && hasFlag:
		return "", clierr.New(clierr.InvalidInput,
			"name provided both as argument and --name flag; use one or the other")
	case hasPositional:
		return args[0], nil
	case hasFlag:
		return flagName, nil
	default:
		return "", errors.New("name is required: provide it as an argument or with --name")
	}
}

// draftFromFlags applies the task field flags that were set on cmd to base.
func draftFromFlags(cmd *cobra.Command, base task.Draft, loc *time.Location) (task.Draft, error) {
	flags := cmd.Flags()
	if flags.Changed("name") {
		base.Name, _ = flags.GetString("name")
	}
	if flags.Changed("subject") {
		base.Subject, _ = flags.GetString("subject")
	}
	if v, _ := flags.GetString("deadline"); v != "" {
		d, err := date.Parse(v, loc)
		if err != nil {
			return task.Draft{}, task.ValidateDate("deadline", v, err)
		}
		base.Deadline = d
	}
	if v, _ := flags.GetString("priority"); v != "" {
		p, err := task.ParsePriority(v)
		if err != nil {
			return task.Draft{}, err
		}
		base.Priority = p
	}
	if v, _ := flags.GetString("category"); v != "" {
		c, err := task.ParseCategory(v)
		if err != nil {
			return task.Draft{}, err
		}
		base.Category = c
	}
	if flags.Changed("notes") {
		base.Notes, _ = flags.GetString("notes")
	}
	return base, nil
}
