// Package scheduler runs the periodic corpus maintenance job.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// MaintenanceRunner is the job the scheduler fires on every tick.
type MaintenanceRunner interface {
	RetireExactDuplicates(ctx context.Context, limit int) (int64, error)
}

// Scheduler wraps robfig/cron around the maintenance job.
type Scheduler struct {
	cron        *cron.Cron
	maintenance MaintenanceRunner
	batchLimit  int
	spec        string
	logger      *zap.Logger
}

// New creates a Scheduler that fires every intervalHours hours, retiring at
// most batchLimit duplicates per tick.
func New(maintenance MaintenanceRunner, intervalHours, batchLimit int, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		maintenance: maintenance,
		batchLimit:  batchLimit,
		spec:        fmt.Sprintf("@every %dh", intervalHours),
		logger:      logger,
	}
}

// Start registers the job and starts the scheduler. One pass runs immediately
// so a backlog left by downtime does not wait for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.run(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Maintenance scheduler started", zap.String("spec", s.spec))

	go s.run(ctx)
	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("Maintenance scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	retired, err := s.maintenance.RetireExactDuplicates(ctx, s.batchLimit)
	if err != nil {
		s.logger.Error("Maintenance pass failed", zap.Error(err))
		return
	}
	s.logger.Debug("Maintenance pass complete", zap.Int64("retired", retired))
}
