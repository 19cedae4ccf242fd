// Package scheduler wraps gocron for the hourly-aligned daemon loop.
package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs one job on a cron schedule in a fixed timezone.
type Scheduler struct {
	scheduler *gocron.Scheduler
	schedule  cron.Schedule
	expr      string
	log       *zap.Logger
}

// New validates expr as a standard five-field cron expression and
// prepares a scheduler in loc.
func New(expr string, loc *time.Location, log *zap.Logger) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(loc),
		schedule:  schedule,
		expr:      expr,
		log:       log,
	}, nil
}

// NextActivation returns the first activation strictly after t.
func (s *Scheduler) NextActivation(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// Start schedules fn and starts the scheduler without blocking. When
// immediate is true fn also runs right away. Scheduled runs never
// overlap: a tick that arrives while fn still runs is skipped.
func (s *Scheduler) Start(fn func(), immediate bool) error {
	sched := s.scheduler.Cron(s.expr).SingletonMode()
	if immediate {
		sched = sched.StartImmediately()
	}
	job, err := sched.Do(fn)
	if err != nil {
		return fmt.Errorf("schedule %q: %w", s.expr, err)
	}
	s.scheduler.StartAsync()
	s.log.Info("schedule started",
		zap.String("cron", s.expr),
		zap.Time("next_run", job.NextRun()))
	return nil
}

// Stop stops the scheduler; a job in flight finishes on its own.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
