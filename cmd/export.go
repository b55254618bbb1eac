package cmd

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/studyplanner/internal/clierr"
	"github.com/twiced-technology-gmbh/studyplanner/internal/config"
	"github.com/twiced-technology-gmbh/studyplanner/internal/export"
	"github.com/twiced-technology-gmbh/studyplanner/internal/output"
	"github.com/twiced-technology-gmbh/studyplanner/internal/planner"
	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
	"github.com/twiced-technology-gmbh/studyplanner/internal/tui"
)

var exportCmd = &cobra.Command{
	Use:   "export [ID[,ID,...]]",
	Short: "Export tasks as an image",
	Long: `Renders a summary card of the given tasks to a PNG or JPEG file.

Without IDs every task of the current view (--filter, --sort) is exported.
The file goes to the planner's export directory unless --output is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringP("filter", "f", "", "filter mode when no IDs are given")
	exportCmd.Flags().String("sort", "", "sort mode when no IDs are given")
	exportCmd.Flags().String("ratio", "", "card shape (square, portrait, landscape); default from config")
	exportCmd.Flags().String("format", "", "image format (png, jpeg); default from config or --output extension")
	exportCmd.Flags().Float64("scale", 0, "pixel scale factor; default from config")
	exportCmd.Flags().StringP("output", "o", "", "output file path")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	var ids []string
	if len(args) > 0 {
		parsed, err := task.ParseIDs(args[0])
		if err != nil {
			return err
		}
		ids = parsed
	}

	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	opts, path, err := exportFlags(cmd, a.cfg)
	if err != nil {
		return err
	}
	if err := applyViewFlags(cmd, a.session); err != nil {
		return err
	}
	if err := a.load(ctx); err != nil {
		return err
	}

	if err := selectForExport(a.session, ids); err != nil {
		return err
	}
	tasks := a.session.Selected()
	if len(tasks) == 0 {
		return clierr.New(clierr.NothingSelected, "no tasks to export")
	}

	if err := export.RenderFile(path, tasks, opts); err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{
			"status": "exported",
			"path":   path,
			"tasks":  len(tasks),
			"ratio":  opts.Ratio,
			"format": opts.Format,
		})
	}
	output.Messagef(os.Stdout, "Exported %d tasks to %s", len(tasks), path)
	return nil
}

// selectForExport selects ids, or the whole visible projection when ids is
// empty.
func selectForExport(s *planner.Session, ids []string) error {
	if len(ids) == 0 {
		s.SelectAll()
		return nil
	}
	for _, id := range ids {
		if _, ok := s.Get(id); !ok {
			return task.NotFound(id)
		}
		if !s.IsSelected(id) {
			if _, err := s.ToggleSelect(id); err != nil {
				return err
			}
		}
	}
	return nil
}

// exportFlags merges the export flags over the configured defaults and
// returns the options and target path.
func exportFlags(cmd *cobra.Command, cfg *config.Config) (export.Options, string, error) {
	opts := cfg.ExportOptions()
	path, _ := cmd.Flags().GetString("output")

	if v, _ := cmd.Flags().GetString("ratio"); v != "" {
		r, err := export.ParseRatio(v)
		if err != nil {
			return opts, "", err
		}
		opts.Ratio = r
	}
	if v, _ := cmd.Flags().GetString("format"); v != "" {
		f, err := export.ParseFormat(v)
		if err != nil {
			return opts, "", err
		}
		opts.Format = f
	} else if f, ok := export.FormatFromPath(path); ok {
		opts.Format = f
	}
	if cmd.Flags().Changed("scale") {
		scale, _ := cmd.Flags().GetFloat64("scale")
		if err := export.CheckScale(scale); err != nil {
			return opts, "", err
		}
		opts.Scale = scale
	}

	if path == "" {
		path = filepath.Join(cfg.ExportPath(), export.FileName(opts.Format))
	}
	return opts, path, nil
}

// tuiExporter writes the selected tasks with the configured options to the
// export directory.
func tuiExporter(cfg *config.Config) tui.ExportFunc {
	return func(tasks []task.Task) (string, error) {
		opts := cfg.ExportOptions()
		opts.Now = time.Now()
		path := filepath.Join(cfg.ExportPath(), export.FileName(opts.Format))
		if err := export.RenderFile(path, tasks, opts); err != nil {
			return "", err
		}
		return path, nil
	}
}
