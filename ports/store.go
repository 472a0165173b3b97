package ports

import (
	"context"
	"time"

	"github.com/layer-3/nftgate/core"
)

// RateLimitStore keeps fixed-window counters for one quota class.
// Hit must run its read-check-increment as one serialized step per wallet.
type RateLimitStore interface {
	Hit(ctx context.Context, wallet string, limit core.RateLimit, now time.Time) (core.RateDecision, error)
	Peek(ctx context.Context, wallet string, limit core.RateLimit, now time.Time) (int, error)
}
