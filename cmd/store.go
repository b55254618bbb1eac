package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/twiced-technology-gmbh/studyplanner/internal/activity"
	"github.com/twiced-technology-gmbh/studyplanner/internal/clierr"
	"github.com/twiced-technology-gmbh/studyplanner/internal/config"
	"github.com/twiced-technology-gmbh/studyplanner/internal/planner"
	"github.com/twiced-technology-gmbh/studyplanner/internal/repository"
	"github.com/twiced-technology-gmbh/studyplanner/internal/store"
	"github.com/twiced-technology-gmbh/studyplanner/internal/store/firestore"
	"github.com/twiced-technology-gmbh/studyplanner/internal/store/local"
	"github.com/twiced-technology-gmbh/studyplanner/internal/store/mdstore"
	"github.com/twiced-technology-gmbh/studyplanner/internal/store/sqlstore"
	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
)

const storeTimeout = 30 * time.Second

// openStore opens the backend selected in cfg.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	var (
		s   store.Store
		err error
	)
	switch cfg.Store.Backend {
	case store.BackendLocal:
		p := cfg.LocalPath()
		s, err = local.Open(filepath.Dir(p), filepath.Base(p))
	case store.BackendFiles:
		s, err = mdstore.Open(cfg.FilesPath())
	case store.BackendFirestore:
		fc := cfg.Store.Firestore
		s, err = firestore.Open(ctx, firestore.Config{
			ProjectID:       fc.ProjectID,
			Database:        fc.Database,
			Collection:      fc.Collection,
			APIKey:          fc.APIKey,
			CredentialsFile: cfg.CredentialsPath(),
			Endpoint:        fc.Endpoint,
		})
	case store.BackendSQL:
		s, err = sqlstore.Open(ctx, cfg.SQLDriver(), cfg.SQLDSN())
	default:
		return nil, clierr.Newf(clierr.InvalidInput, "unknown store backend %q", cfg.Store.Backend)
	}
	if err != nil {
		return nil, clierr.Wrap(clierr.StoreUnavailable,
			fmt.Errorf("opening %s store: %w", cfg.Store.Backend, err))
	}
	return s, nil
}

// app bundles what a command needs to work on the task collection.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	store   store.Store
	journal *activity.Log
	session *planner.Session
}

// openApp loads the config, opens the store and wires a session over it.
// The collection is not loaded; commands call load when they need it.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newApp(ctx, cfg, newLogger(cfg, os.Stderr))
}

// newApp opens the store selected in cfg and wires a session over it.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	s, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	journal := activity.New(cfg.Dir())
	repo := repository.New(s,
		repository.WithLogger(logger),
		repository.WithJournal(journal),
		repository.WithSerializedMutations(),
	)
	session := planner.New(repo, planner.WithView(cfg.ViewOptions()))

	return &app{cfg: cfg, log: logger, store: s, journal: journal, session: session}, nil
}

// load fetches the collection. A failed load is a command error here, not
// an empty list.
func (a *app) load(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	return a.session.Load(ctx)
}

// find returns the loaded task with the given id.
func (a *app) find(id string) (task.Task, error) {
	t, ok := a.session.Get(id)
	if !ok {
		return task.Task{}, task.NotFound(id)
	}
	return t, nil
}

// Close releases the session and the store.
func (a *app) Close() {
	a.session.Close()
	if err := store.Close(a.store); err != nil {
		a.log.Warn("closing store", "err", err)
	}
}
