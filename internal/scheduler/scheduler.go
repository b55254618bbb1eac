// Package scheduler runs recurring planner jobs, such as the daily digest
// export, on a cron schedule.
package scheduler

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/twiced-technology-gmbh/studyplanner/internal/config"
	"github.com/twiced-technology-gmbh/studyplanner/internal/date"
	"github.com/twiced-technology-gmbh/studyplanner/internal/export"
	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
	"github.com/twiced-technology-gmbh/studyplanner/internal/view"
)

// Scheduler wraps a cron runner with second-level specs.
type Scheduler struct {
	cron *cron.Cron
}

// New creates a Scheduler evaluating specs in loc.
func New(loc *time.Location, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cronLogger{logger})),
		),
	}
}

// ScheduleDaily registers job to run every day at clock (HH:MM).
func (s *Scheduler) ScheduleDaily(clock string, job func()) (cron.EntryID, error) {
	spec, err := DailySpec(clock)
	if err != nil {
		return 0, err
	}
	return s.cron.AddFunc(spec, job)
}

// Next returns the next run time of the entry, or the zero time when the
// scheduler has not been started.
func (s *Scheduler) Next(id cron.EntryID) time.Time {
	return s.cron.Entry(id).Next
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// DailySpec converts HH:MM to a six-field cron spec.
func DailySpec(clock string) (string, error) {
	offset, err := config.ParseClock(clock)
	if err != nil {
		return "", err
	}
	hour := int(offset / time.Hour)
	minute := int((offset % time.Hour) / time.Minute)
	// second minute hour dom month dow
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}

// Digest renders the pending tasks due this week to a dated image in Dir.
type Digest struct {
	Tasks   func() []task.Task
	Dir     string
	Options export.Options
	Now     func() time.Time
	Logger  *slog.Logger
}

// Run writes the digest and returns its path. A week with no pending tasks
// still produces a card.
func (d Digest) Run() (string, error) {
	if d.Tasks == nil {
		return "", errors.New("digest has no task source")
	}
	now := time.Now()
	if d.Now != nil {
		now = d.Now()
	}

	opts := d.Options
	opts.Now = now
	if opts.Format == "" {
		opts.Format = export.PNG
	}
	due := view.Project(d.Tasks(), view.Options{Filter: view.Week, Sort: view.ByDeadline}, now)

	path := filepath.Join(d.Dir, "digest-"+date.Day(now)+"."+opts.Format.Extension())
	if err := export.RenderFile(path, due, opts); err != nil {
		return "", err
	}
	return path, nil
}

// Job adapts Run to a cron callback that logs its outcome.
func (d Digest) Job() func() {
	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return func() {
		path, err := d.Run()
		if err != nil {
			logger.Warn("digest export failed", "error", err)
			return
		}
		logger.Info("digest exported", "path", path)
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}
