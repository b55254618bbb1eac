package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/studyplanner/internal/clierr"
	"github.com/twiced-technology-gmbh/studyplanner/internal/config"
	"github.com/twiced-technology-gmbh/studyplanner/internal/output"
	"github.com/twiced-technology-gmbh/studyplanner/internal/store"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new planner",
	Long: `Creates a planner directory with config.yml. Tasks are kept in a local JSON
slot unless another backend is chosen.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().String("name", "", "planner name (defaults to current directory name)")
	initCmd.Flags().String("backend", config.DefaultBackend, "task store (local, files, firestore, sql)")
	initCmd.Flags().String("project", "", "Firestore project ID (firestore backend)")
	initCmd.Flags().String("driver", "", "SQL driver: sqlite or postgres (sql backend)")
	initCmd.Flags().String("dsn", "", "SQL data source name (sql backend)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	dir := flagDir
	if dir == "" {
		dir = config.DefaultDir
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	// Check if already initialized.
	if _, err := os.Stat(filepath.Join(absDir, config.ConfigFileName)); err == nil {
		return clierr.Newf(clierr.PlannerExists, "planner already initialized in %s", absDir).
			WithDetails(map[string]any{"dir": absDir})
	}

	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		name = filepath.Base(cwd)
	}

	cfg := config.NewDefault(name)
	cfg.SetDir(absDir)

	cfg.Store.Backend, _ = cmd.Flags().GetString("backend")
	cfg.Store.Firestore.ProjectID, _ = cmd.Flags().GetString("project")
	cfg.Store.SQL.Driver, _ = cmd.Flags().GetString("driver")
	cfg.Store.SQL.DSN, _ = cmd.Flags().GetString("dsn")

	if err := cfg.Validate(); err != nil {
		return err
	}

	const dirMode = 0o750
	if err := os.MkdirAll(absDir, dirMode); err != nil {
		return fmt.Errorf("creating planner directory: %w", err)
	}
	if cfg.Store.Backend == store.BackendFiles {
		if err := os.MkdirAll(cfg.FilesPath(), dirMode); err != nil {
			return fmt.Errorf("creating tasks directory: %w", err)
		}
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	format := outputFormat()
	if format == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]string{
			"status":  "initialized",
			"dir":     absDir,
			"name":    name,
			"config":  cfg.ConfigPath(),
			"backend": cfg.Store.Backend,
		})
	}

	output.Messagef(os.Stdout, "Initialized planner %q in %s", name, absDir)
	output.Messagef(os.Stdout, "  Config:  %s", cfg.ConfigPath())
	output.Messagef(os.Stdout, "  Store:   %s", cfg.Store.Backend)
	output.Messagef(os.Stdout, "  Hint:    Add a task with: planner add \"Read chapter 5\" --deadline 2024-03-08")
	return nil
}
