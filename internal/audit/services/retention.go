package services

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// RetentionSweeper runs the scheduled purge of audit entries whose
// retention_until has elapsed. It is the only code path that removes audit
// data.
type RetentionSweeper struct {
	service  *Service
	schedule string
	cron     *cron.Cron
}

// NewRetentionSweeper creates a sweeper with the given cron schedule
// (default: daily at 03:00).
func NewRetentionSweeper(service *Service, schedule string) *RetentionSweeper {
	if schedule == "" {
		schedule = "0 3 * * *"
	}
	return &RetentionSweeper{service: service, schedule: schedule}
}

// Start begins the scheduled sweep and blocks until ctx is done or the stop
// channel closes.
func (rs *RetentionSweeper) Start(ctx context.Context, stopCh <-chan struct{}) {
	rs.cron = cron.New()
	_, err := rs.cron.AddFunc(rs.schedule, func() {
		if _, err := rs.service.PurgeExpired(ctx); err != nil {
			slog.Error("Audit retention sweep failed", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		slog.Error("Invalid retention sweep schedule",
			slog.String("schedule", rs.schedule),
			slog.String("error", err.Error()))
		return
	}

	rs.cron.Start()
	slog.Info("Audit retention sweeper started", slog.String("schedule", rs.schedule))

	select {
	case <-ctx.Done():
	case <-stopCh:
	}
	rs.cron.Stop()
	slog.Info("Audit retention sweeper stopped")
}
