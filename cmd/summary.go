package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/studyplanner/internal/clierr"
	"github.com/twiced-technology-gmbh/studyplanner/internal/output"
	"github.com/twiced-technology-gmbh/studyplanner/internal/store"
	"github.com/twiced-technology-gmbh/studyplanner/internal/view"
	"github.com/twiced-technology-gmbh/studyplanner/internal/watcher"
)

var flagWatch bool

var summaryCmd = &cobra.Command{
	Use:     "summary",
	Aliases: []string{"stats"},
	Short:   "Show planner summary",
	Long: `Displays task counts: pending and completed, overdue and due soon, and the
priority and category distribution of pending tasks.

Use --watch to keep the display live-updating. The summary re-renders whenever
the store files change on disk (local and files backends only). Press Ctrl+C to stop.`,
	RunE: runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().BoolVarP(&flagWatch, "watch", "w", false, "live-update the summary on file changes")
}

func runSummary(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// Render once.
	if err := renderSummary(ctx, a); err != nil {
		return err
	}

	if !flagWatch {
		return nil
	}

	w, ok := a.store.(store.Watchable)
	if !ok {
		return clierr.Newf(clierr.InvalidInput, "--watch needs a file-backed store (backend is %s)", a.cfg.Store.Backend)
	}
	return watchSummary(a, w.WatchPaths())
}

func renderSummary(ctx context.Context, a *app) error {
	if err := a.load(ctx); err != nil {
		return err
	}
	s := view.Summarize(a.session.Repository().Snapshot().Tasks, time.Now())

	format := outputFormat()
	if format == output.FormatJSON {
		return output.JSON(os.Stdout, s)
	}
	if format == output.FormatCompact {
		output.SummaryCompact(os.Stdout, a.cfg.Name, s)
		return nil
	}

	output.SummaryTable(os.Stdout, a.cfg.Name, s)
	return nil
}

func watchSummary(a *app, paths []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, err := watcher.New(paths, func() {
		clearScreen()
		if renderErr := renderSummary(ctx, a); renderErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: rendering summary: %v\n", renderErr)
		}
	})
	if err != nil {
		return fmt.Errorf("starting file watcher: %w", err)
	}
	defer w.Close()

	fmt.Fprintln(os.Stderr, "Watching for changes... (Ctrl+C to stop)")

	w.Run(ctx, func(watchErr error) {
		fmt.Fprintf(os.Stderr, "Warning: file watcher: %v\n", watchErr)
	})

	return nil
}

// clearScreen sends ANSI escape codes to clear the terminal and move the
// cursor to the top-left corner.
func clearScreen() {
	fmt.Fprint(os.Stdout, "\033[2J\033[H")
}
