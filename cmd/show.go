package cmd

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/twiced-technology-gmbh/studyplanner/internal/output"
)

var showCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show task details",
	Long:  `Displays full details of a single task. Notes are rendered as markdown on a terminal.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.load(ctx); err != nil {
		return err
	}

	t, err := a.find(args[0])
	if err != nil {
		return err
	}

	now := time.Now()
	format := outputFormat()
	if format == output.FormatJSON {
		return output.JSON(os.Stdout, t)
	}
	if format == output.FormatCompact {
		output.TaskDetailCompact(os.Stdout, t, now)
		return nil
	}

	output.TaskDetail(os.Stdout, t, now, renderNotes(t.Notes))
	return nil
}

// renderNotes renders markdown notes for the terminal. Piped output and
// rendering failures get the raw text.
func renderNotes(notes string) string {
	if strings.TrimSpace(notes) == "" {
		return ""
	}
	if flagNoColor || !term.IsTerminal(int(os.Stdout.Fd())) {
		return notes
	}
	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = min(w, 100) //nolint:mnd // max wrap width
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		return notes
	}
	out, err := r.Render(notes)
	if err != nil {
		return notes
	}
	return out
}
