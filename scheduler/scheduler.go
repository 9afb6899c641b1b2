// Package scheduler runs work-queue syncs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/humbal1/pierce-doc-links-scrapper/models"
)

// Syncer starts jobs for the eligible rows of the work queue.
type Syncer interface {
	Sync(ctx context.Context) ([]models.StartedJob, error)
}

// SyncerFunc adapts a function to Syncer.
type SyncerFunc func(ctx context.Context) ([]models.StartedJob, error)

// Sync calls f.
func (f SyncerFunc) Sync(ctx context.Context) ([]models.StartedJob, error) { return f(ctx) }

// syncTimeout bounds one sync pass; the jobs it starts outlive it.
const syncTimeout = 2 * time.Minute

// Scheduler triggers periodic syncs. Overlapping runs are skipped.
type Scheduler struct {
	syncer Syncer
	cron   *cron.Cron
	logger *slog.Logger
}

// New creates a stopped Scheduler.
func New(syncer Syncer, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	cl := cronLogger{logger: logger}
	return &Scheduler{
		syncer: syncer,
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		logger: logger,
	}
}

// Validate reports whether schedule is a standard cron expression or descriptor.
func Validate(schedule string) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid sync schedule %q: %w", schedule, err)
	}
	return nil
}

// Start registers schedule and starts the cron loop.
func (s *Scheduler) Start(schedule string) error {
	if err := Validate(schedule); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("work queue sync scheduler started", "schedule", schedule)
	return nil
}

// Stop halts the scheduler and waits for a running sync to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("work queue sync scheduler stopped")
}

// RunNow performs one sync synchronously.
func (s *Scheduler) RunNow() {
	s.run()
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	started, err := s.syncer.Sync(ctx)
	if err != nil {
		s.logger.Error("scheduled sync failed", "error", err)
		return
	}
	s.logger.Info("scheduled sync completed", "started", len(started))
}

// cronLogger routes cron's internal logging to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
