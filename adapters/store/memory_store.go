package store

import (
	"context"
	"sync"
	"time"

	"github.com/layer-3/nftgate/core"
	"github.com/layer-3/nftgate/ports"
)

// DefaultSweepInterval is how often elapsed windows are dropped
const DefaultSweepInterval = 5 * time.Minute

// MemoryStore is a process-local implementation of the RateLimitStore interface.
// Counters are not shared between instances.
type MemoryStore struct {
	mu       sync.Mutex
	entries  map[string]*core.RateLimitEntry
	stopCh   chan struct{}
	stopOnce sync.Once
}

var _ ports.RateLimitStore = (*MemoryStore)(nil)

// NewMemoryStore creates a new in-memory store and starts the sweep loop.
// A non-positive interval disables the loop.
func NewMemoryStore(sweepInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*core.RateLimitEntry),
		stopCh:  make(chan struct{}),
	}
	if sweepInterval > 0 {
		go s.sweepLoop(sweepInterval)
	}
	return s
}

// Hit admits or denies one request for wallet. Denied requests do not consume budget.
func (s *MemoryStore) Hit(ctx context.Context, wallet string, limit core.RateLimit, now time.Time) (core.RateDecision, error) {
	key := core.NormalizeAddress(wallet)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entries[key]
	if entry == nil || now.After(entry.ResetTime) {
		entry = &core.RateLimitEntry{
			WalletAddress: key,
			ResetTime:     now.Add(limit.Window),
		}
		s.entries[key] = entry
	}

	if entry.Count >= limit.Max {
		return core.RateDecision{Allowed: false, Remaining: 0, ResetTime: entry.ResetTime}, nil
	}

	entry.Count++
	return core.RateDecision{
		Allowed:   true,
		Remaining: limit.Max - entry.Count,
		ResetTime: entry.ResetTime,
	}, nil
}

// Peek returns the budget left for wallet without consuming it
func (s *MemoryStore) Peek(ctx context.Context, wallet string, limit core.RateLimit, now time.Time) (int, error) {
	key := core.NormalizeAddress(wallet)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entries[key]
	if entry == nil || now.After(entry.ResetTime) {
		return limit.Max, nil
	}
	return max(0, limit.Max-entry.Count), nil
}

// Sweep removes entries whose window has elapsed and returns how many were dropped
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if now.After(entry.ResetTime) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked wallets
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// Close stops the sweep loop
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	return nil
}

func (s *MemoryStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep(time.Now())
		case <-s.stopCh:
			return
		}
	}
}
