package idempotency

import (
	"context"
	"sync"
	"time"

	platformclock "github.com/iforum-lawyers/lawyer-directory-api/internal/platform/clock"
	clockport "github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/clock"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/idempotency"
)

// DefaultTTL is how long a stored response stays replayable.
const DefaultTTL = 24 * time.Hour

// Store is an in-memory implementation of idempotency.Store.
// Records older than the TTL are not replayed and are pruned on write.
type Store struct {
	mu  sync.Mutex
	clk clockport.Clock
	ttl time.Duration
	m   map[idempotency.Fingerprint]idempotency.Record
}

func NewStore() *Store {
	return NewStoreWithOptions(platformclock.NewSystemClock(), DefaultTTL)
}

func NewStoreWithOptions(clk clockport.Clock, ttl time.Duration) *Store {
	return &Store{
		clk: clk,
		ttl: ttl,
		m:   make(map[idempotency.Fingerprint]idempotency.Record),
	}
}

func (s *Store) Get(ctx context.Context, fp idempotency.Fingerprint) (idempotency.Record, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.m[fp]
	if !ok || s.expired(rec) {
		return idempotency.Record{}, false, nil
	}
	return rec, true, nil
}

func (s *Store) Put(ctx context.Context, fp idempotency.Fingerprint, rec idempotency.Record) error {
	_ = ctx
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.clk.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range s.m {
		if s.expired(v) {
			delete(s.m, k)
		}
	}
	s.m[fp] = rec
	return nil
}

func (s *Store) expired(rec idempotency.Record) bool {
	return s.ttl > 0 && s.clk.Now().Sub(rec.CreatedAt) >= s.ttl
}
