package cache

import (
	"context"
	"sync"
	"time"

	"github.com/retailops/backend/internal/domain/shared"
)

// DefaultSweepInterval bounds how often expired claims are dropped.
const DefaultSweepInterval = 5 * time.Minute

// MemoryIdempotencyStore keeps claims in process memory. Claims do not
// survive a restart and are not shared between processes, so it backs
// single-node deployments and tests. Expired claims are swept lazily from
// Claim, at most once per sweep interval.
type MemoryIdempotencyStore struct {
	mu        sync.Mutex
	claims    map[string]time.Time
	every     time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewMemoryIdempotencyStore(sweepInterval time.Duration) *MemoryIdempotencyStore {
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	return &MemoryIdempotencyStore{
		claims: make(map[string]time.Time),
		every:  sweepInterval,
		now:    time.Now,
	}
}

func (s *MemoryIdempotencyStore) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= s.every {
		s.sweepLocked(now)
	}
	if until, held := s.claims[key]; held && now.Before(until) {
		return false, nil
	}
	s.claims[key] = now.Add(ttl)
	return true, nil
}

func (s *MemoryIdempotencyStore) Forget(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.claims, key)
	s.mu.Unlock()
	return nil
}

// Held reports whether key has an unexpired claim.
func (s *MemoryIdempotencyStore) Held(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.claims[key]
	return ok && s.now().Before(until)
}

// Len counts stored claims, including expired ones not yet swept.
func (s *MemoryIdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.claims)
}

func (s *MemoryIdempotencyStore) Close() error { return nil }

func (s *MemoryIdempotencyStore) sweepLocked(now time.Time) {
	for k, until := range s.claims {
		if !now.Before(until) {
			delete(s.claims, k)
		}
	}
	s.lastSweep = now
}

var _ shared.IdempotencyStore = (*MemoryIdempotencyStore)(nil)
