package ingest

import (
	"context"
	"time"

	"github.com/hirewire/vacmatch/internal/domain"
)

// Repository defines the storage contract for ingestion.
type Repository interface {
	// IdentityExists checks an identity key against all postings, live and
	// retired.
	IdentityExists(ctx context.Context, identityKey string) (bool, error)

	// FindNearDuplicate returns at most one live posting id whose fingerprint
	// similarity to the given fingerprint exceeds threshold. The lookup must
	// be index-backed; the candidate pool is never iterated client-side.
	FindNearDuplicate(ctx context.Context, fingerprint string, threshold float64) (id int64, found bool, err error)

	// AdvancePublishedAt moves a posting's published time forward, never
	// backward.
	AdvancePublishedAt(ctx context.Context, id int64, publishedAt time.Time) error

	// Insert persists a posting with its tags. Returns
	// domain.ErrDuplicateIdentity (wrapped) on an identity key race.
	Insert(ctx context.Context, p *domain.Posting) (int64, error)

	// LatestPublishedAt returns the newest published time for a source, or
	// the zero time when none exists.
	LatestPublishedAt(ctx context.Context, source domain.Source) (time.Time, error)
}
