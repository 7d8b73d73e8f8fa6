// Package scheduler provides cron-based scheduling for ShapeBot.
//
// It drives the reminder dispatcher tick on a cron expression, mirroring the
// external "call /admin/cron hourly" contract with an in-process timer.
package scheduler

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// DefaultTickExpr fires at the top of every hour.
const DefaultTickExpr = "0 * * * *"

// Scheduler provides cron-based job scheduling.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler creates and starts a cron scheduler. Jobs run in the given
// location so reminder hours line up with the users' wall clock.
func NewScheduler(opts ...cron.Option) *Scheduler {
	// Standard 5-field cron parser (min, hour, dom, month, dow) with panic recovery.
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	opts = append([]cron.Option{
		cron.WithParser(parser),
		cron.WithChain(cron.Recover(cron.DefaultLogger)),
	}, opts...)
	c := cron.New(opts...)
	c.Start()
	return &Scheduler{cron: c}
}

// AddJob schedules a task using the provided cron expression. An empty
// expression falls back to DefaultTickExpr.
func (s *Scheduler) AddJob(expr string, task func()) error {
	if expr == "" {
		expr = DefaultTickExpr
	}
	if _, err := s.cron.AddFunc(expr, task); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	slog.Debug("Scheduler job added", "expr", expr)
	return nil
}

// Stop stops the cron scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	slog.Debug("Scheduler stopped")
}
