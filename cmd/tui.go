package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/studyplanner/internal/repository"
	"github.com/twiced-technology-gmbh/studyplanner/internal/store"
	"github.com/twiced-technology-gmbh/studyplanner/internal/tui"
	"github.com/twiced-technology-gmbh/studyplanner/internal/watcher"
)

const tuiLogFile = "planner.log"

func runTUI(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The alternate screen owns stderr, so logs go to a file next to the config.
	logFile, err := os.OpenFile(filepath.Join(cfg.Dir(), tuiLogFile),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:mnd // owner read/write
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx, cfg, newLogger(cfg, logFile))
	if err != nil {
		return err
	}
	defer a.Close()

	model := tui.New(a.session, tui.Options{
		Name:     cfg.Name,
		Priority: cfg.DefaultPriority(),
		Category: cfg.DefaultCategory(),
		Location: time.Local,
		Export:   tuiExporter(cfg),
	})
	p := tea.NewProgram(model, tea.WithAltScreen())

	// Send blocks until the program reads the message; mutations notify
	// from worker goroutines and must not wait on the event loop.
	unsub := a.session.Repository().Subscribe(func(repository.Change) {
		go p.Send(tui.ChangedMsg{})
	})
	defer unsub()

	if w, ok := a.store.(store.Watchable); ok {
		go startTUIWatcher(ctx, a, w.WatchPaths(), p)
	}

	_, err = p.Run()
	return err
}

func startTUIWatcher(ctx context.Context, a *app, paths []string, p *tea.Program) {
	w, err := watcher.New(paths, func() {
		p.Send(tui.ReloadMsg{})
	})
	if err != nil {
		a.log.Warn("file watcher disabled", "err", err)
		return
	}
	defer w.Close()
	w.Run(ctx, func(watchErr error) {
		a.log.Warn("file watcher", "err", watchErr)
	})
}
