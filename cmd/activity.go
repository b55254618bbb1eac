package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/studyplanner/internal/activity"
	"github.com/twiced-technology-gmbh/studyplanner/internal/clierr"
	"github.com/twiced-technology-gmbh/studyplanner/internal/output"
)

const defaultActivityLimit = 20

var activityCmd = &cobra.Command{
	Use:     "activity",
	Aliases: []string{"log"},
	Short:   "Show recent task changes",
	Long: `Prints the most recent entries of the planner's activity journal: creates,
updates, deletes and completion toggles, including those that were rolled back.`,
	Args: cobra.NoArgs,
	RunE: runActivity,
}

func init() {
	activityCmd.Flags().IntP("limit", "n", defaultActivityLimit, "number of entries to show")
	rootCmd.AddCommand(activityCmd)
}

func runActivity(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		return clierr.Newf(clierr.InvalidInput, "--limit must be positive, got %d", limit)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	entries, err := activity.New(cfg.Dir()).Tail(limit)
	if err != nil {
		return err
	}

	switch outputFormat() {
	case output.FormatJSON:
		if entries == nil {
			entries = []activity.Entry{}
		}
		return output.JSON(os.Stdout, entries)
	case output.FormatCompact:
		output.ActivityCompact(os.Stdout, entries)
	default:
		output.ActivityTable(os.Stdout, entries)
	}
	return nil
}
