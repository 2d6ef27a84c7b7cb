package odds

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultCacheTTL is how long a fetched snapshot stays fresh.
const DefaultCacheTTL = 5 * time.Minute

// SnapshotStore keeps the most recent snapshot for a bounded time.
type SnapshotStore interface {
	Load(ctx context.Context) (snap *Snapshot, ok bool, err error)
	Save(ctx context.Context, snap *Snapshot, ttl time.Duration) error
}

// MemoryStore is an in-process SnapshotStore.
type MemoryStore struct {
	mu      sync.Mutex
	snap    *Snapshot
	expires time.Time
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (m *MemoryStore) Load(ctx context.Context) (*Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil || !m.now().Before(m.expires) {
		return nil, false, nil
	}
	return m.snap, true, nil
}

func (m *MemoryStore) Save(ctx context.Context, snap *Snapshot, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap
	m.expires = m.now().Add(ttl)
	return nil
}

// CachedProvider serves snapshots from a store and refreshes from the
// underlying provider when the stored copy has expired.
type CachedProvider struct {
	inner Provider
	store SnapshotStore
	ttl   time.Duration
	log   logrus.FieldLogger
}

func NewCachedProvider(inner Provider, store SnapshotStore, ttl time.Duration, log logrus.FieldLogger) *CachedProvider {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedProvider{inner: inner, store: store, ttl: ttl, log: log}
}

func (c *CachedProvider) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap, ok, err := c.store.Load(ctx)
	if err != nil {
		c.log.WithError(err).Warn("odds cache read failed")
	} else if ok {
		return snap, nil
	}

	snap, err = c.inner.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.store.Save(ctx, snap, c.ttl); err != nil {
		c.log.WithError(err).Warn("odds cache write failed")
	}
	return snap, nil
}
