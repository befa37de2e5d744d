// Package match ranks live vacancy postings against a user's criteria and
// provides stateless cursor navigation over the ranked list.
//
// Ranking is two-phase: a coarse SQL fetch narrows the corpus to eligible
// candidates with skill counts precomputed, then application code applies the
// scoring formula and the total order. Ranked id lists are cached per
// canonical criteria key; concurrent misses for the same key are collapsed
// with singleflight so the corpus is ranked once per key per TTL window.
package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/hirewire/vacmatch/internal/domain"
)

// Config holds the ranking tunables.
type Config struct {
	RecencyWindowDays    int
	MinSimilarityPercent float64
	MinSkillsCount       int
	BonusPerExtraSkill   float64
	MissingSkillPenalty  float64
	SubsetBonus          float64
	RecencyBonusDays     int
	RecencyBonusPerDay   float64
	ResultLimit          int
}

// Service ranks postings and answers cursor-relative match requests.
type Service struct {
	repo          Repository
	cache         RankCache // may be nil
	cfg           Config
	group         singleflight.Group
	matchDuration prometheus.Histogram // may be nil
	logger        *zap.Logger

	now func() time.Time
}

// New creates a matching service. Cache and histogram may be nil.
func New(repo Repository, cache RankCache, cfg Config, matchDuration prometheus.Histogram, logger *zap.Logger) *Service {
	return &Service{
		repo:          repo,
		cache:         cache,
		cfg:           cfg,
		matchDuration: matchDuration,
		logger:        logger,
		now:           time.Now,
	}
}

// Match returns posting ids ranked for the criteria, best first. Criteria
// without skills rank nothing and return an empty result, not an error.
func (s *Service) Match(ctx context.Context, criteria domain.MatchCriteria) ([]int64, error) {
	if criteria.Empty() {
		return nil, nil
	}

	norm := criteria.Normalize()
	key := norm.CacheKey()

	if s.cache != nil {
		if ids, ok := s.cache.Get(ctx, key); ok {
			return ids, nil
		}
	}

	v, err, shared := s.group.Do(key, func() (any, error) {
		return s.rank(ctx, norm, key)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("Ranking shared across concurrent requests", zap.String("key", key))
	}
	return v.([]int64), nil
}

// rank is the cache-miss path: fetch, score, store.
func (s *Service) rank(ctx context.Context, criteria domain.MatchCriteria, key string) ([]int64, error) {
	start := s.now()
	since := start.AddDate(0, 0, -s.cfg.RecencyWindowDays)

	rows, err := s.repo.FetchCandidates(ctx, criteria, since, s.cfg.MinSimilarityPercent)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}

	ids := rankCandidates(rows, len(criteria.Skills), s.cfg, start)

	if s.matchDuration != nil {
		s.matchDuration.Observe(time.Since(start).Seconds())
	}

	// A cancelled request must not plant its possibly short-lived view of the
	// corpus under a shared key.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if s.cache != nil {
		s.cache.Put(ctx, key, ids)
	}

	s.logger.Debug("Ranked corpus",
		zap.String("key", key),
		zap.Int("candidates", len(rows)),
		zap.Int("ranked", len(ids)),
	)
	return ids, nil
}

// Relevant answers one match request: it ranks the corpus for the criteria,
// places the cursor, and loads the posting under it. An unknown or stale
// cursor yields the empty triple so the caller can restart from the top.
func (s *Service) Relevant(ctx context.Context, criteria domain.MatchCriteria, currentID *int64) (domain.Neighbors, error) {
	ids, err := s.Match(ctx, criteria)
	if err != nil {
		return domain.Neighbors{}, err
	}

	prev, current, next := Neighbors(ids, currentID)
	if current == nil {
		return domain.Neighbors{}, nil
	}

	p, err := s.repo.Get(ctx, *current)
	if errors.Is(err, domain.ErrNotFound) {
		// The cached ranking outlived the posting. Treat as an empty result
		// rather than an error; the next recompute heals it.
		s.logger.Debug("Ranked posting vanished", zap.Int64("id", *current))
		return domain.Neighbors{}, nil
	}
	if err != nil {
		return domain.Neighbors{}, fmt.Errorf("load posting %d: %w", *current, err)
	}

	return domain.Neighbors{PrevID: prev, Current: &p, NextID: next}, nil
}
