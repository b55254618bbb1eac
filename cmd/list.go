package cmd

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/studyplanner/internal/output"
	"github.com/twiced-technology-gmbh/studyplanner/internal/planner"
	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
	"github.com/twiced-technology-gmbh/studyplanner/internal/view"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	Long: `Lists tasks through the same filter and sort modes the TUI offers.

Filters: all (pending tasks), today, week (through the coming Sunday), completed.
Sorts: deadline (earliest first), priority (High first), subject (A-Z), dateAdded (newest first).`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringP("filter", "f", "", "filter mode (all, today, week, completed); default from config")
	listCmd.Flags().String("sort", "", "sort mode (deadline, priority, subject, dateAdded); default from config")
	listCmd.Flags().IntP("limit", "n", 0, "limit number of results")
	listCmd.Flags().StringP("search", "s", "", "search name, subject and notes (case-insensitive)")
	listCmd.Flags().String("group-by", "", "group results by field ("+strings.Join(view.GroupFields(), ", ")+")")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	groupBy, _ := cmd.Flags().GetString("group-by")
	if groupBy != "" {
		field, err := view.ParseGroupField(groupBy)
		if err != nil {
			return err
		}
		groupBy = field
	}

	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := applyViewFlags(cmd, a.session); err != nil {
		return err
	}
	if err := a.load(ctx); err != nil {
		return err
	}

	tasks := a.session.Visible()
	if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 && len(tasks) > limit {
		tasks = tasks[:limit]
	}

	now := time.Now()
	if groupBy != "" {
		return outputGroupedList(view.GroupBy(tasks, groupBy, now), now)
	}
	return outputTaskList(a.session.Options(), tasks, now)
}

// applyViewFlags sets the session's filter, sort and search from the
// --filter, --sort and --search flags when present.
func applyViewFlags(cmd *cobra.Command, s *planner.Session) error {
	if v, _ := cmd.Flags().GetString("filter"); v != "" {
		f, err := view.ParseFilter(v)
		if err != nil {
			return err
		}
		s.SetFilter(f)
	}
	if v, _ := cmd.Flags().GetString("sort"); v != "" {
		by, err := view.ParseSort(v)
		if err != nil {
			return err
		}
		s.SetSort(by)
	}
	if cmd.Flags().Lookup("search") != nil {
		if v, _ := cmd.Flags().GetString("search"); v != "" {
			s.SetSearch(v)
		}
	}
	return nil
}

func outputGroupedList(grouped view.Grouped, now time.Time) error {
	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, grouped)
	case output.FormatCompact:
		output.GroupedCompact(os.Stdout, grouped, now)
	default:
		output.GroupedTable(os.Stdout, grouped, now, nil)
	}
	return nil
}

func outputTaskList(opts view.Options, tasks []task.Task, now time.Time) error {
	format := outputFormat()
	if format == output.FormatJSON {
		return output.JSON(os.Stdout, output.NewTaskList(opts, tasks))
	}
	if format == output.FormatCompact {
		output.TaskCompact(os.Stdout, tasks, now)
		return nil
	}

	output.TaskTable(os.Stdout, tasks, now, nil)
	return nil
}
