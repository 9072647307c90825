// Package scheduler wires up the cron jobs that keep the listing fresh and,
// optionally, verify the bookmark backup on a schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"jobmate/listing-service/internal/listing"
	"jobmate/listing-service/internal/model"
)

// Target is the subset of jobstate.State the scheduler drives.
type Target interface {
	FetchJobs(ctx context.Context, page int) error
	VerifyAndRepairBookmarks(ctx context.Context) ([]model.Job, error)
}

// Scheduler wraps robfig/cron.
type Scheduler struct {
	cron        *cron.Cron
	target      Target
	refreshSpec string // e.g. "@every 10m"; empty when disabled
	verifySpec  string // standard cron spec; empty when disabled
}

// New creates a Scheduler that re-fetches page 1 every refreshMinutes
// (0 disables it) and runs backup verification on verifySpec (empty
// disables it).
func New(target Target, refreshMinutes int, verifySpec string) *Scheduler {
	logger := slogCronLogger{}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.SkipIfStillRunning(logger)),
		),
		target:     target,
		verifySpec: verifySpec,
	}
	if refreshMinutes > 0 {
		s.refreshSpec = fmt.Sprintf("@every %dm", refreshMinutes)
	}
	return s
}

// Start registers the enabled jobs and starts the scheduler. It also runs
// one page-1 fetch immediately so the listing is populated without waiting
// for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.refreshSpec != "" {
		if _, err := s.cron.AddFunc(s.refreshSpec, func() { s.RunRefresh(ctx) }); err != nil {
			return fmt.Errorf("cron.AddFunc refresh: %w", err)
		}
	}
	if s.verifySpec != "" {
		if _, err := s.cron.AddFunc(s.verifySpec, func() { s.RunVerify(ctx) }); err != nil {
			return fmt.Errorf("cron.AddFunc verify: %w", err)
		}
	}

	s.cron.Start()
	slog.Info("cron started", "refresh", s.refreshSpec, "verify", s.verifySpec, "entries", len(s.cron.Entries()))

	go s.RunRefresh(ctx)
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("cron stopped")
}

// Entries returns the number of registered jobs.
func (s *Scheduler) Entries() int { return len(s.cron.Entries()) }

// RunRefresh re-fetches page 1. A fetch already in flight is not an error.
func (s *Scheduler) RunRefresh(ctx context.Context) {
	err := s.target.FetchJobs(ctx, 1)
	switch {
	case err == nil:
		slog.Debug("listing refreshed")
	case errors.Is(err, listing.ErrFetchInProgress):
		slog.Debug("listing refresh skipped, fetch in progress")
	default:
		slog.Warn("listing refresh failed", "err", err)
	}
}

// RunVerify runs one backup verification cycle.
func (s *Scheduler) RunVerify(ctx context.Context) {
	jobs, err := s.target.VerifyAndRepairBookmarks(ctx)
	if err != nil {
		slog.Warn("scheduled bookmark verification failed", "err", err)
		return
	}
	slog.Info("bookmarks verified", "count", len(jobs))
}

// slogCronLogger routes cron's own logging through slog.
type slogCronLogger struct{}

func (slogCronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogCronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}
