// Package ingest implements duplicate detection and batch ingestion of
// scraped vacancy postings.
//
// Two orthogonal duplicate signals are combined: an exact identity-key check
// (cheap, content-independent) and a fingerprint similarity check (catches
// the same listing reposted with cosmetic edits). A batch is first
// deduplicated against itself, then each survivor is checked against the
// persisted corpus.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/hirewire/vacmatch/internal/domain"
)

// Config holds the dedup tunables.
type Config struct {
	SimilarityThreshold float64
	MaxFingerprintBytes int
	Stopwords           map[string]struct{} // nil = package default
}

// Service ingests batches of candidate postings for one source at a time.
type Service struct {
	repo            Repository
	cfg             Config
	candidatesTotal *prometheus.CounterVec // labels: source, outcome; may be nil
	runDuration     *prometheus.HistogramVec
	logger          *zap.Logger
}

// New creates an ingestion service. Metric vecs may be nil.
func New(
	repo Repository,
	cfg Config,
	candidatesTotal *prometheus.CounterVec,
	runDuration *prometheus.HistogramVec,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:            repo,
		cfg:             cfg,
		candidatesTotal: candidatesTotal,
		runDuration:     runDuration,
		logger:          logger,
	}
}

// Ingest runs one ingestion pass for a single source. Candidates are
// processed in the order given (the scraper's natural, chronological order);
// batch-local dedup is sequential by design, because merge semantics keep
// the earlier candidate and advance its published time.
//
// Per-candidate problems (validation, duplicate) never abort the batch.
// Storage failures abort the whole run so the scheduler can retry it; no
// partial success is reported.
func (s *Service) Ingest(
	ctx context.Context, source domain.Source, batch []domain.CandidatePosting,
) (domain.IngestResult, error) {
	if !source.Valid() {
		return domain.IngestResult{}, fmt.Errorf("%w: %q", domain.ErrUnknownSource, source)
	}

	start := time.Now()
	defer func() {
		if s.runDuration != nil {
			s.runDuration.WithLabelValues(string(source)).Observe(time.Since(start).Seconds())
		}
	}()

	var result domain.IngestResult

	accepted := s.dedupBatch(ctx, source, batch, &result)

	for _, p := range accepted {
		outcome, err := s.persist(ctx, p)
		if err != nil {
			return domain.IngestResult{}, fmt.Errorf("ingest %s: %w", source, err)
		}
		switch outcome {
		case outcomeAccepted:
			result.Accepted++
		case outcomeMerged:
			result.Merged++
		}
		s.countCandidate(source, outcome)
	}

	s.logger.Info("Ingestion run finished",
		zap.String("source", string(source)),
		zap.Int("batch", len(batch)),
		zap.Int("accepted", result.Accepted),
		zap.Int("merged", result.Merged),
		zap.Int("rejected", result.Rejected),
	)
	return result, nil
}

// dedupBatch validates candidates and collapses near-duplicates within the
// batch itself, before anything touches storage. On a merge the
// earlier-accepted posting wins and its published time advances to the max
// of the two.
func (s *Service) dedupBatch(
	_ context.Context, source domain.Source, batch []domain.CandidatePosting, result *domain.IngestResult,
) []*domain.Posting {
	accepted := make([]*domain.Posting, 0, len(batch))

nextCandidate:
	for _, c := range batch {
		if err := c.Validate(); err != nil {
			s.logger.Debug("Rejecting candidate", zap.String("link", c.Link), zap.Error(err))
			result.Rejected++
			s.countCandidate(source, outcomeRejected)
			continue
		}

		fp := domain.FingerprintWith(c.RawText, s.cfg.Stopwords, s.cfg.MaxFingerprintBytes)

		for _, prev := range accepted {
			if domain.TrigramSimilarity(fp, prev.Fingerprint) > s.cfg.SimilarityThreshold {
				if c.PublishedAt.After(prev.PublishedAt) {
					prev.PublishedAt = c.PublishedAt
				}
				s.logger.Debug("Merged in-batch near-duplicate",
					zap.String("link", c.Link),
					zap.String("kept_link", prev.Link),
				)
				result.Merged++
				s.countCandidate(source, outcomeMerged)
				continue nextCandidate
			}
		}

		accepted = append(accepted, &domain.Posting{
			Source:      source,
			IdentityKey: domain.IdentityKey(source, c.LocalID),
			Fingerprint: fp,
			Link:        c.Link,
			RawText:     c.RawText,
			PublishedAt: c.PublishedAt,
			Profession:  c.Profession,
			Grades:      c.Grades,
			WorkFormats: c.WorkFormats,
			Skills:      c.Skills,
		})
	}

	return accepted
}

type outcome string

const (
	outcomeAccepted outcome = "accepted"
	outcomeMerged   outcome = "merged"
	outcomeRejected outcome = "rejected"
)

// persist runs the against-storage duplicate checks for one batch survivor
// and inserts it when it is genuinely new.
func (s *Service) persist(ctx context.Context, p *domain.Posting) (outcome, error) {
	exists, err := s.repo.IdentityExists(ctx, p.IdentityKey)
	if err != nil {
		return "", fmt.Errorf("identity check: %w", err)
	}
	if exists {
		s.logger.Debug("Skipping exact duplicate", zap.String("link", p.Link))
		return outcomeMerged, nil
	}

	dupID, found, err := s.repo.FindNearDuplicate(ctx, p.Fingerprint, s.cfg.SimilarityThreshold)
	if err != nil {
		return "", fmt.Errorf("near-duplicate check: %w", err)
	}
	if found {
		// The repost bumps the existing posting's freshness instead of
		// creating a ranking duplicate.
		if err := s.repo.AdvancePublishedAt(ctx, dupID, p.PublishedAt); err != nil {
			return "", fmt.Errorf("bump near-duplicate: %w", err)
		}
		s.logger.Debug("Merged stored near-duplicate",
			zap.String("link", p.Link),
			zap.Int64("existing_id", dupID),
		)
		return outcomeMerged, nil
	}

	if _, err := s.repo.Insert(ctx, p); err != nil {
		if errors.Is(err, domain.ErrDuplicateIdentity) {
			// Race with a concurrent run for another source window; the row
			// is there, which is all ingestion wants.
			s.logger.Info("Identity race on insert, treating as duplicate",
				zap.String("link", p.Link),
			)
			return outcomeMerged, nil
		}
		return "", fmt.Errorf("insert: %w", err)
	}
	return outcomeAccepted, nil
}

// LastPublishedAt returns the per-source ingestion high-water mark. Callers
// use it to bound the next fetch instead of keeping process-wide state.
func (s *Service) LastPublishedAt(ctx context.Context, source domain.Source) (time.Time, error) {
	if !source.Valid() {
		return time.Time{}, fmt.Errorf("%w: %q", domain.ErrUnknownSource, source)
	}
	ts, err := s.repo.LatestPublishedAt(ctx, source)
	if err != nil {
		return time.Time{}, fmt.Errorf("last published_at for %s: %w", source, err)
	}
	return ts, nil
}

func (s *Service) countCandidate(source domain.Source, o outcome) {
	if s.candidatesTotal != nil {
		s.candidatesTotal.WithLabelValues(string(source), string(o)).Inc()
	}
}
