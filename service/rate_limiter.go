package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/layer-3/nftgate/core"
	"github.com/layer-3/nftgate/internal/metrics"
	"github.com/layer-3/nftgate/ports"
)

const (
	ClassHolder  = "holder"
	ClassRegular = "regular"
)

type quotaClass struct {
	name  string
	store ports.RateLimitStore
	limit core.RateLimit
}

// RateLimiter applies per-wallet fixed-window quotas, one for NFT holders and
// one for regular users
type RateLimiter struct {
	holder  quotaClass
	regular quotaClass
	now     func() time.Time
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewRateLimiter creates a new rate limiter. Each class needs its own store.
func NewRateLimiter(
	holderStore ports.RateLimitStore, holderLimit core.RateLimit,
	regularStore ports.RateLimitStore, regularLimit core.RateLimit,
	logger *slog.Logger, m *metrics.Metrics,
) *RateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RateLimiter{
		holder:  quotaClass{name: ClassHolder, store: holderStore, limit: holderLimit},
		regular: quotaClass{name: ClassRegular, store: regularStore, limit: regularLimit},
		now:     time.Now,
		logger:  logger,
		metrics: m,
	}
}

func (l *RateLimiter) class(holder bool) quotaClass {
	if holder {
		return l.holder
	}
	return l.regular
}

// CheckLimit consumes one request from the wallet's budget. A store failure
// denies the request.
func (l *RateLimiter) CheckLimit(ctx context.Context, wallet string, holder bool) core.RateDecision {
	c := l.class(holder)
	now := l.now()

	decision, err := c.store.Hit(ctx, wallet, c.limit, now)
	if err != nil {
		l.logger.ErrorContext(ctx, "rate limit store failed", "class", c.name, "wallet", wallet, "error", err)
		decision = core.RateDecision{Allowed: false, Remaining: 0, ResetTime: now.Add(c.limit.Window)}
	}

	l.metrics.RateLimit(c.name, decision.Allowed)
	if !decision.Allowed {
		l.logger.InfoContext(ctx, "rate limit exceeded", "class", c.name, "wallet", wallet, "reset", decision.ResetTime)
	}
	return decision
}

// Remaining reports the wallet's budget without consuming it
func (l *RateLimiter) Remaining(ctx context.Context, wallet string, holder bool) int {
	c := l.class(holder)

	left, err := c.store.Peek(ctx, wallet, c.limit, l.now())
	if err != nil {
		l.logger.ErrorContext(ctx, "rate limit store failed", "class", c.name, "wallet", wallet, "error", err)
		return 0
	}
	return left
}

// Limit returns the quota applied to the class
func (l *RateLimiter) Limit(holder bool) core.RateLimit {
	return l.class(holder).limit
}

// Stats reports the number of tracked wallets per class for stores that keep
// them in process. Elapsed windows are swept first.
func (l *RateLimiter) Stats() map[string]int {
	type sweeper interface {
		Sweep(now time.Time) int
		Len() int
	}

	stats := make(map[string]int)
	now := l.now()
	for _, c := range []quotaClass{l.holder, l.regular} {
		if s, ok := c.store.(sweeper); ok {
			s.Sweep(now)
			stats[c.name] = s.Len()
		}
	}
	return stats
}
