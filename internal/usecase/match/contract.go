package match

import (
	"context"
	"time"

	"github.com/hirewire/vacmatch/internal/domain"
	"github.com/hirewire/vacmatch/internal/repository/posting"
)

// Repository defines the storage contract for ranking.
type Repository interface {
	// FetchCandidates returns live postings published at or after since that
	// pass every conjunctive criteria filter, with per-posting total and
	// overlapping skill counts computed in storage. Rows with zero overlap
	// never come back.
	FetchCandidates(ctx context.Context, criteria domain.MatchCriteria, since time.Time, minSimilarityPercent float64) ([]posting.CandidateRow, error)

	// Get loads one posting with its tags. Returns domain.ErrNotFound when
	// the id is unknown.
	Get(ctx context.Context, id int64) (domain.Posting, error)
}

// RankCache caches ranked id lists per canonical criteria key. Lookups and
// writes are best-effort; a failing cache degrades to recomputation.
type RankCache interface {
	Get(ctx context.Context, criteriaKey string) ([]int64, bool)
	Put(ctx context.Context, criteriaKey string, ids []int64)
}
