package rankcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hirewire/vacmatch/internal/db"
)

type mockStore struct {
	data    map[string][]byte
	getErr  error
	setErr  error
	lastTTL time.Duration
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string][]byte{}}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.lastTTL = ttl
	return nil
}

func TestCache_RoundTrip(t *testing.T) {
	ms := newMockStore()
	c := New(ms, 5*time.Minute, nil, zap.NewNop())
	ctx := context.Background()

	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Put(ctx, "k", []int64{3, 1, 2})

	ids, ok := c.Get(ctx, "k")
	if !ok {
		t.Fatal("expected hit after put")
	}
	if len(ids) != 3 || ids[0] != 3 || ids[1] != 1 || ids[2] != 2 {
		t.Errorf("cached order not preserved: %v", ids)
	}
	if ms.lastTTL != 5*time.Minute {
		t.Errorf("ttl = %v, want 5m", ms.lastTTL)
	}
}

func TestCache_EmptyResultIsCached(t *testing.T) {
	ms := newMockStore()
	c := New(ms, time.Minute, nil, zap.NewNop())
	ctx := context.Background()

	c.Put(ctx, "empty", []int64{})

	ids, ok := c.Get(ctx, "empty")
	if !ok {
		t.Fatal("expected hit for cached empty result")
	}
	if len(ids) != 0 {
		t.Errorf("expected empty list, got %v", ids)
	}
}

func TestCache_StoreErrorDegradesToMiss(t *testing.T) {
	ms := newMockStore()
	ms.getErr = errors.New("connection refused")
	c := New(ms, time.Minute, nil, zap.NewNop())

	if _, ok := c.Get(context.Background(), "k"); ok {
		t.Fatal("store error must read as a miss")
	}
}

func TestCache_CorruptEntryDegradesToMiss(t *testing.T) {
	ms := newMockStore()
	ms.data[keyPrefix+"k"] = []byte("{not json")
	c := New(ms, time.Minute, nil, zap.NewNop())

	if _, ok := c.Get(context.Background(), "k"); ok {
		t.Fatal("corrupt entry must read as a miss")
	}
}

func TestCache_WriteErrorIsSwallowed(t *testing.T) {
	ms := newMockStore()
	ms.setErr = errors.New("connection refused")
	c := New(ms, time.Minute, nil, zap.NewNop())

	// Must not panic or surface the error.
	c.Put(context.Background(), "k", []int64{1})
}
