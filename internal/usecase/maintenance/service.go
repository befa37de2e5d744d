// Package maintenance runs periodic corpus housekeeping.
package maintenance

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Repository defines the storage contract for maintenance jobs.
type Repository interface {
	// RetireFingerprintDuplicates retires postings sharing an identical
	// fingerprint with a newer one, keeping the freshest per group, up to
	// limit rows. Returns the number retired.
	RetireFingerprintDuplicates(ctx context.Context, at time.Time, limit int) (int64, error)
}

// Service runs housekeeping passes over the posting corpus.
type Service struct {
	repo   Repository
	logger *zap.Logger

	now func() time.Time
}

// New creates a maintenance service.
func New(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// RetireExactDuplicates retires postings whose fingerprint collides exactly
// with a newer live posting. Exact collisions slip past ingestion when the
// older posting was inserted before the newer repost arrived through a
// different source window. Postings are retired, never deleted; identity
// keys stay on record.
func (s *Service) RetireExactDuplicates(ctx context.Context, limit int) (int64, error) {
	retired, err := s.repo.RetireFingerprintDuplicates(ctx, s.now(), limit)
	if err != nil {
		return 0, fmt.Errorf("retire exact duplicates: %w", err)
	}
	if retired > 0 {
		s.logger.Info("Retired exact fingerprint duplicates", zap.Int64("count", retired))
	}
	return retired, nil
}
