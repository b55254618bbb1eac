package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/studyplanner/internal/scheduler"
	"github.com/twiced-technology-gmbh/studyplanner/internal/server"
	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the task collection over HTTP",
	Long: `Starts a JSON API over the planner's task collection. Browser origins listed
in server.allowed_origins may call it cross-origin.

When export.schedule is set (HH:MM), a digest card of the tasks due this week
is written to the export directory every day at that time.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address; default from config")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.load(ctx); err != nil {
		return err
	}

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = a.cfg.Server.Addr
	}

	srv := server.New(a.session,
		server.WithLogger(a.log),
		server.WithDefaults(a.cfg.DefaultPriority(), a.cfg.DefaultCategory()),
		server.WithExport(a.cfg.ExportOptions()),
		server.WithLocation(time.Local),
	)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(a.cfg.Server.AllowedOrigins),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	if a.cfg.Export.Schedule != "" {
		sched, err := startDigest(a)
		if err != nil {
			return err
		}
		defer sched.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	fmt.Fprintf(os.Stderr, "Serving %s on http://%s (Ctrl+C to stop)\n", a.cfg.Name, addr)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// startDigest schedules the daily digest export from the loaded collection.
func startDigest(a *app) (*scheduler.Scheduler, error) {
	repo := a.session.Repository()
	digest := scheduler.Digest{
		Tasks:   func() []task.Task { return repo.Snapshot().Tasks },
		Dir:     a.cfg.ExportPath(),
		Options: a.cfg.ExportOptions(),
		Logger:  a.log,
	}

	sched := scheduler.New(time.Local, a.log)
	id, err := sched.ScheduleDaily(a.cfg.Export.Schedule, digest.Job())
	if err != nil {
		return nil, err
	}
	sched.Start()
	a.log.Info("digest scheduled", "next", sched.Next(id))
	return sched, nil
}
