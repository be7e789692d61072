// Package scheduler runs recurring bulk market captures on cron specs.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/guarzo/wowecon/internal/market"
	"github.com/guarzo/wowecon/internal/model"
)

// Updater runs one bulk capture. Satisfied by market.Service, which
// also guards against overlapping runs through its update-interval gate.
type Updater interface {
	UpdateRealms(ctx context.Context, req market.UpdateRequest) (model.UpdateSummary, error)
}

// Scheduler owns a cron runner and the registered capture jobs.
type Scheduler struct {
	cron    *cron.Cron
	updater Updater
	budget  time.Duration
	logger  *slog.Logger
}

// New creates a scheduler. Each firing runs under a context deadline of
// executionBudget when positive.
func New(updater Updater, executionBudget time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:    cron.New(),
		updater: updater,
		budget:  executionBudget,
		logger:  logger,
	}
}

// Add registers a capture on a cron spec (standard five-field syntax,
// or descriptors like @hourly and @every 1h).
func (s *Scheduler) Add(spec string, req market.UpdateRequest) (cron.EntryID, error) {
	return s.cron.AddFunc(spec, func() { s.run(req) })
}

// Start begins firing registered jobs in their own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling. The returned context is done once any running
// job completes.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Entries reports the registered jobs.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) run(req market.UpdateRequest) {
	ctx := context.Background()
	if s.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.budget)
		defer cancel()
	}

	started := time.Now()
	summary, err := s.updater.UpdateRealms(ctx, req)
	if err != nil {
		s.logger.Error("scheduled update rejected",
			"region", req.Region, "realms", len(req.Realms), "error", err)
		return
	}
	s.logger.Info("scheduled update finished",
		"region", summary.Region,
		"realms_updated", summary.RealmsUpdated,
		"items_tracked", summary.ItemsTracked,
		"points_stored", summary.PointsStored,
		"truncated", summary.Truncated,
		"elapsed", time.Since(started).Round(time.Millisecond))
}
