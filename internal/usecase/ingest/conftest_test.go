package ingest

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hirewire/vacmatch/internal/domain"
)

type advanceCall struct {
	id int64
	ts time.Time
}

// mockRepo keeps an in-memory corpus keyed by identity key.
type mockRepo struct {
	identities map[string]struct{}
	inserted   []*domain.Posting
	advanced   []advanceCall
	latest     time.Time

	nearDupID    int64
	nearDupFound bool

	identityErr error
	nearDupErr  error
	insertErr   error
	advanceErr  error
}

func newMockRepo() *mockRepo {
	return &mockRepo{identities: map[string]struct{}{}}
}

func (m *mockRepo) IdentityExists(_ context.Context, key string) (bool, error) {
	if m.identityErr != nil {
		return false, m.identityErr
	}
	_, ok := m.identities[key]
	return ok, nil
}

func (m *mockRepo) FindNearDuplicate(_ context.Context, _ string, _ float64) (int64, bool, error) {
	if m.nearDupErr != nil {
		return 0, false, m.nearDupErr
	}
	return m.nearDupID, m.nearDupFound, nil
}

func (m *mockRepo) AdvancePublishedAt(_ context.Context, id int64, ts time.Time) error {
	if m.advanceErr != nil {
		return m.advanceErr
	}
	m.advanced = append(m.advanced, advanceCall{id: id, ts: ts})
	return nil
}

func (m *mockRepo) Insert(_ context.Context, p *domain.Posting) (int64, error) {
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	m.identities[p.IdentityKey] = struct{}{}
	m.inserted = append(m.inserted, p)
	return int64(len(m.inserted)), nil
}

func (m *mockRepo) LatestPublishedAt(_ context.Context, _ domain.Source) (time.Time, error) {
	return m.latest, nil
}

func newTestService(t *testing.T, repo Repository) *Service {
	t.Helper()
	return New(repo, Config{
		SimilarityThreshold: 0.85,
		MaxFingerprintBytes: domain.MaxFingerprintBytes,
	}, nil, nil, zap.NewNop())
}

func candidate(localID, text string, publishedAt time.Time) domain.CandidatePosting {
	return domain.CandidatePosting{
		LocalID:     localID,
		Link:        "https://example.com/jobs/" + localID,
		RawText:     text,
		PublishedAt: publishedAt,
	}
}
