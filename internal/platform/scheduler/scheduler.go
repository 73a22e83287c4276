// Package scheduler runs periodic jobs on top of robfig/cron.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler manages the cron jobs of one process.
type Scheduler struct {
	cron *cron.Cron
}

// New creates a Scheduler. Schedules are evaluated in loc (UTC when nil).
// Standard five-field specs and descriptors such as "@every 1m" are accepted.
func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
	}
}

// Add registers fn under spec.
func (s *Scheduler) Add(name, spec string, fn func()) error {
	if _, err := s.cron.AddFunc(spec, func() {
		slog.Debug("running scheduled job", "job", name)
		fn()
	}); err != nil {
		return fmt.Errorf("register %s job %q: %w", name, spec, err)
	}
	slog.Info("registered scheduled job", "job", name, "spec", spec)
	return nil
}

// Every registers fn to run at a fixed interval. Intervals under a second are rounded up.
func (s *Scheduler) Every(name string, interval time.Duration, fn func()) error {
	if interval <= 0 {
		return fmt.Errorf("register %s job: interval must be positive, got %s", name, interval)
	}
	return s.Add(name, "@every "+interval.String(), fn)
}

// Len returns the number of registered jobs.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Start starts the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("scheduler started", "jobs", s.Len())
}

// Stop stops the scheduler. The returned context is done once running jobs have finished.
func (s *Scheduler) Stop() context.Context {
	ctx := s.cron.Stop()
	slog.Info("scheduler stopped")
	return ctx
}
