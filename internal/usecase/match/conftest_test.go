package match

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hirewire/vacmatch/internal/domain"
	"github.com/hirewire/vacmatch/internal/repository/posting"
)

type mockRepo struct {
	mu         sync.Mutex
	rows       []posting.CandidateRow
	postings   map[int64]domain.Posting
	fetchCalls int
	fetchErr   error
	fetchGate  chan struct{} // when set, FetchCandidates blocks until closed
}

func newMockRepo(rows ...posting.CandidateRow) *mockRepo {
	return &mockRepo{rows: rows, postings: map[int64]domain.Posting{}}
}

func (m *mockRepo) FetchCandidates(
	_ context.Context, _ domain.MatchCriteria, _ time.Time, _ float64,
) ([]posting.CandidateRow, error) {
	m.mu.Lock()
	m.fetchCalls++
	gate := m.fetchGate
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.rows, nil
}

func (m *mockRepo) Get(_ context.Context, id int64) (domain.Posting, error) {
	p, ok := m.postings[id]
	if !ok {
		return domain.Posting{}, domain.ErrNotFound
	}
	return p, nil
}

func (m *mockRepo) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchCalls
}

type mockCache struct {
	mu      sync.Mutex
	entries map[string][]int64
	puts    int
}

func newMockCache() *mockCache {
	return &mockCache{entries: map[string][]int64{}}
}

func (c *mockCache) Get(_ context.Context, key string) ([]int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids, ok := c.entries[key]
	return ids, ok
}

func (c *mockCache) Put(_ context.Context, key string, ids []int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = ids
	c.puts++
}

func testConfig() Config {
	return Config{
		RecencyWindowDays:    21,
		MinSimilarityPercent: 60,
		MinSkillsCount:       5,
		BonusPerExtraSkill:   7,
		MissingSkillPenalty:  5,
		SubsetBonus:          15,
		RecencyBonusDays:     7,
		RecencyBonusPerDay:   15,
		ResultLimit:          50,
	}
}

func newTestService(t *testing.T, repo Repository, cache RankCache) *Service {
	t.Helper()
	svc := New(repo, cache, testConfig(), nil, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2025, 8, 25, 12, 0, 0, 0, time.UTC) }
	return svc
}

func skillCriteria(skills ...string) domain.MatchCriteria {
	tags := make([]domain.CanonicalTag, len(skills))
	for i, s := range skills {
		tags[i] = domain.CanonicalTag(s)
	}
	return domain.MatchCriteria{Skills: tags}
}

func ptr(id int64) *int64 { return &id }
